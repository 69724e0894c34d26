package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"nryli/internal/dashboard"
	"nryli/internal/model"
)

var (
	ErrNotFound                = errors.New("registration not found")
	ErrDuplicateRegistrationID = errors.New("duplicate registration id")
	ErrUnknownField            = errors.New("unknown registration field")
)

//go:generate mockgen -source=repo.go -destination=mocks/repository.go -package=mocks Repository

// Repository is the system of record for registrations.
type Repository interface {
	Insert(ctx context.Context, reg model.Registration) (model.Registration, error)
	ListAll(ctx context.Context) ([]model.Registration, error)
	GetByRegistrationID(ctx context.Context, registrationID string) (*model.Registration, error)
	UpdateStatus(ctx context.Context, registrationID string, status model.Status) error
	CountAll(ctx context.Context) (int, error)
	ListField(ctx context.Context, field string) ([]string, error)
	Stats(ctx context.Context) (model.Stats, error)
}

// Conn is the query surface shared by *dbpg.DB and *sql.DB.
type Conn interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// listableFields are the columns ListField may read.
var listableFields = map[string]bool{
	"delegate_type":       true,
	"region_cluster":      true,
	"tshirt_size":         true,
	"dietary_preferences": true,
	"payment_option":      true,
	"status":              true,
	"age":                 true,
}

const columns = `id, registration_id, delegate_type, surname, first_name, middle_initial,
	institution, institution_address, institution_contact, institution_email,
	region_cluster, delegate_contact, delegate_email, age, tshirt_size,
	dietary_preferences, dietary_comments, payment_option, payment_proof_url,
	transaction_ref, status, created_at`

type repository struct {
	master Conn
	db     Conn
	log    *zerolog.Logger
	tracer trace.Tracer
}

// NewRepository writes through master and reads lists and aggregates through
// read, which may be a replica or a read-only login. Single-record lookups go
// to master so a registration is visible right after it is inserted. A nil
// read uses master for everything.
func NewRepository(master, read Conn, log *zerolog.Logger) (Repository, error) {
	if master == nil {
		return nil, fmt.Errorf("db cannot be nil")
	}
	if read == nil {
		read = master
	}
	if log == nil {
		nop := zerolog.Nop()
		log = &nop
	}
	return &repository{master: master, db: read, log: log, tracer: otel.Tracer("nryli/repo")}, nil
}

func (r *repository) Insert(ctx context.Context, reg model.Registration) (model.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "repo.Insert", trace.WithAttributes(
		attribute.String("registration_id", reg.RegistrationID),
	))
	var err error
	defer func() { finish(span, err) }()

	if reg.CreatedAt.IsZero() {
		reg.CreatedAt = time.Now()
	}
	reg.CreatedAt = reg.CreatedAt.UTC()

	query := `
		INSERT INTO registrations (registration_id, delegate_type, surname, first_name, middle_initial,
			institution, institution_address, institution_contact, institution_email,
			region_cluster, delegate_contact, delegate_email, age, tshirt_size,
			dietary_preferences, dietary_comments, payment_option, payment_proof_url,
			transaction_ref, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		RETURNING id
	`
	err = r.master.QueryRowContext(ctx, query,
		reg.RegistrationID, reg.DelegateType, reg.Surname, reg.FirstName, nullable(reg.MiddleInitial),
		reg.Institution, reg.InstitutionAddress, reg.InstitutionContact, reg.InstitutionEmail,
		string(reg.RegionCluster), reg.DelegateContact, reg.DelegateEmail, reg.Age, reg.TshirtSize,
		reg.DietaryPreferences, nullable(reg.DietaryComments), reg.PaymentOption, nullable(reg.PaymentProofURL),
		nullable(reg.TransactionRef), string(reg.Status), reg.CreatedAt,
	).Scan(&reg.ID)
	if err != nil {
		if isUniqueViolation(err) {
			err = ErrDuplicateRegistrationID
			return model.Registration{}, err
		}
		err = fmt.Errorf("failed to insert registration: %w", err)
		return model.Registration{}, err
	}
	return reg, nil
}

func (r *repository) ListAll(ctx context.Context) ([]model.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "repo.ListAll")
	var err error
	defer func() { finish(span, err) }()

	query := `SELECT ` + columns + ` FROM registrations ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err = fmt.Errorf("failed to get registrations: %w", err)
		return nil, err
	}
	defer rows.Close()

	regs := make([]model.Registration, 0)
	for rows.Next() {
		var reg model.Registration
		if err = scanRegistration(rows, &reg); err != nil {
			err = fmt.Errorf("failed to scan registration: %w", err)
			return nil, err
		}
		regs = append(regs, reg)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to iterate registrations: %w", err)
		return nil, err
	}
	return regs, nil
}

func (r *repository) GetByRegistrationID(ctx context.Context, registrationID string) (*model.Registration, error) {
	ctx, span := r.tracer.Start(ctx, "repo.GetByRegistrationID")
	var err error
	defer func() { finish(span, err) }()

	query := `SELECT ` + columns + ` FROM registrations WHERE registration_id = $1`
	var reg model.Registration
	if err = scanRegistration(r.master.QueryRowContext(ctx, query, registrationID), &reg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = ErrNotFound
			return nil, err
		}
		err = fmt.Errorf("failed to get registration: %w", err)
		return nil, err
	}
	return &reg, nil
}

func (r *repository) UpdateStatus(ctx context.Context, registrationID string, status model.Status) error {
	ctx, span := r.tracer.Start(ctx, "repo.UpdateStatus", trace.WithAttributes(
		attribute.String("registration_id", registrationID),
		attribute.String("status", string(status)),
	))
	var err error
	defer func() { finish(span, err) }()

	query := `UPDATE registrations SET status = $1 WHERE registration_id = $2`
	res, err := r.master.ExecContext(ctx, query, string(status), registrationID)
	if err != nil {
		err = fmt.Errorf("failed to update registration status: %w", err)
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		err = fmt.Errorf("failed to read affected rows: %w", err)
		return err
	}
	if n == 0 {
		err = ErrNotFound
		return err
	}
	return nil
}

func (r *repository) CountAll(ctx context.Context) (int, error) {
	ctx, span := r.tracer.Start(ctx, "repo.CountAll")
	var err error
	defer func() { finish(span, err) }()

	var count int
	if err = r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM registrations`).Scan(&count); err != nil {
		err = fmt.Errorf("failed to count registrations: %w", err)
		return 0, err
	}
	return count, nil
}

func (r *repository) ListField(ctx context.Context, field string) ([]string, error) {
	if !listableFields[field] {
		return nil, fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	ctx, span := r.tracer.Start(ctx, "repo.ListField", trace.WithAttributes(attribute.String("field", field)))
	var err error
	defer func() { finish(span, err) }()

	rows, err := r.db.QueryContext(ctx, `SELECT `+field+` FROM registrations`)
	if err != nil {
		err = fmt.Errorf("failed to list %s: %w", field, err)
		return nil, err
	}
	defer rows.Close()

	values := make([]string, 0)
	for rows.Next() {
		var v sql.NullString
		if err = rows.Scan(&v); err != nil {
			err = fmt.Errorf("failed to scan %s: %w", field, err)
			return nil, err
		}
		values = append(values, v.String)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to iterate %s: %w", field, err)
		return nil, err
	}
	return values, nil
}

// Stats reads the total, per-region and per-delegate-type counts in one grouped query.
func (r *repository) Stats(ctx context.Context) (model.Stats, error) {
	ctx, span := r.tracer.Start(ctx, "repo.Stats")
	var err error
	defer func() { finish(span, err) }()

	query := `
		SELECT region_cluster, delegate_type, COUNT(*)
		FROM registrations
		GROUP BY region_cluster, delegate_type
	`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		err = fmt.Errorf("failed to aggregate registrations: %w", err)
		return model.Stats{}, err
	}
	defer rows.Close()

	var groups []dashboard.GroupCount
	for rows.Next() {
		var g dashboard.GroupCount
		if err = rows.Scan(&g.Region, &g.DelegateType, &g.Count); err != nil {
			err = fmt.Errorf("failed to scan aggregate: %w", err)
			return model.Stats{}, err
		}
		groups = append(groups, g)
	}
	if err = rows.Err(); err != nil {
		err = fmt.Errorf("failed to iterate aggregates: %w", err)
		return model.Stats{}, err
	}
	return dashboard.StatsFromGroups(groups), nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRegistration(row scanner, reg *model.Registration) error {
	var (
		middle, comments, proof, txRef sql.NullString
		region, status                 string
		created                        timestamp
	)
	if err := row.Scan(
		&reg.ID,
		&reg.RegistrationID,
		&reg.DelegateType,
		&reg.Surname,
		&reg.FirstName,
		&middle,
		&reg.Institution,
		&reg.InstitutionAddress,
		&reg.InstitutionContact,
		&reg.InstitutionEmail,
		&region,
		&reg.DelegateContact,
		&reg.DelegateEmail,
		&reg.Age,
		&reg.TshirtSize,
		&reg.DietaryPreferences,
		&comments,
		&reg.PaymentOption,
		&proof,
		&txRef,
		&status,
		&created,
	); err != nil {
		return err
	}
	reg.MiddleInitial = ptr(middle)
	reg.DietaryComments = ptr(comments)
	reg.PaymentProofURL = ptr(proof)
	reg.TransactionRef = ptr(txRef)
	reg.RegionCluster = model.Region(region)
	reg.Status = model.Status(status)
	reg.CreatedAt = created.Time
	return nil
}

// timestamp scans a time column from drivers that return either time.Time or text.
type timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02 15:04:05.999999999",
	time.DateTime,
}

func (t *timestamp) Scan(src any) error {
	switch v := src.(type) {
	case time.Time:
		t.Time = v
		return nil
	case string:
		return t.parse(v)
	case []byte:
		return t.parse(string(v))
	case nil:
		t.Time = time.Time{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into timestamp", src)
	}
}

func (t *timestamp) parse(s string) error {
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("cannot parse timestamp %q", s)
}

func nullable(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func ptr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func finish(span trace.Span, err error) {
	if err != nil && !errors.Is(err, ErrNotFound) {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}
