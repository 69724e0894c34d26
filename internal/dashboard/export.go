package dashboard

import (
	"io"
	"strconv"
	"strings"
	"time"

	"nryli/internal/model"
)

// ExportHeader is the fixed header row of the CSV export.
var ExportHeader = []string{
	"Registration ID", "Date", "Name", "Delegate Type", "Institution",
	"Region", "Contact", "Email", "Age", "T-shirt Size", "Status",
}

const exportDateLayout = "1/2/2006"

// Exporter writes registrations as CSV with every field quoted. Dates are
// rendered in loc without a time component.
type Exporter struct {
	loc *time.Location
}

func NewExporter(loc *time.Location) *Exporter {
	if loc == nil {
		loc = time.UTC
	}
	return &Exporter{loc: loc}
}

// Location is the time zone dates are rendered in.
func (e *Exporter) Location() *time.Location {
	return e.loc
}

// Filename is the suggested download name for an export taken at now.
func (e *Exporter) Filename(now time.Time) string {
	return "nryli_registrations_" + now.In(e.loc).Format(time.DateOnly) + ".csv"
}

// Row renders one registration in header order.
func (e *Exporter) Row(reg model.Registration) []string {
	return []string{
		reg.RegistrationID,
		reg.CreatedAt.In(e.loc).Format(exportDateLayout),
		reg.Surname + ", " + reg.FirstName,
		reg.DelegateType,
		reg.Institution,
		string(reg.RegionCluster),
		reg.DelegateContact,
		reg.DelegateEmail,
		strconv.Itoa(reg.Age),
		reg.TshirtSize,
		string(reg.Status),
	}
}

// Write emits the header then one row per registration, each terminated by a newline.
func (e *Exporter) Write(w io.Writer, regs []model.Registration) error {
	if err := writeRow(w, ExportHeader); err != nil {
		return err
	}
	for _, reg := range regs {
		if err := writeRow(w, e.Row(reg)); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(w io.Writer, fields []string) error {
	var b strings.Builder
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('"')
		b.WriteString(strings.ReplaceAll(f, `"`, `""`))
		b.WriteByte('"')
	}
	b.WriteByte('\n')
	_, err := io.WriteString(w, b.String())
	return err
}
