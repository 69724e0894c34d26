// Package dashboard holds the administrative views over already-fetched
// registrations: search and region filtering, aggregate shaping and CSV export.
// Nothing here talks to the store.
package dashboard

import (
	"strings"

	"golang.org/x/text/cases"

	"nryli/internal/model"
)

// Filter is the dashboard's search box and region select. The zero value
// matches everything.
type Filter struct {
	Search string
	Region string
}

func (f Filter) IsZero() bool {
	return f.Search == "" && f.Region == ""
}

// Matches reports whether reg passes both the text search and the region filter.
func (f Filter) Matches(reg model.Registration) bool {
	return f.matchesSearch(reg) && f.matchesRegion(reg)
}

func (f Filter) matchesRegion(reg model.Registration) bool {
	return f.Region == "" || string(reg.RegionCluster) == f.Region
}

func (f Filter) matchesSearch(reg model.Registration) bool {
	if f.Search == "" {
		return true
	}
	term := fold(f.Search)
	return strings.Contains(fold(reg.RegistrationID), term) ||
		strings.Contains(fold(reg.FullName()), term) ||
		strings.Contains(fold(reg.Institution), term)
}

// Apply returns the matching registrations in their original order.
func (f Filter) Apply(regs []model.Registration) []model.Registration {
	out := make([]model.Registration, 0, len(regs))
	for _, reg := range regs {
		if f.Matches(reg) {
			out = append(out, reg)
		}
	}
	return out
}

func fold(s string) string {
	return cases.Fold().String(s)
}
