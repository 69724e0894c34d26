// Package registration turns a public form submission into a Registration
// ready to be stored: required-field checks, normalization of optional
// fields, and registration id assignment.
package registration

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"sync"
	"time"

	"nryli/internal/dto"
	"nryli/internal/model"
	"nryli/pkg/validator"
)

const (
	DefaultPrefix  = "NRYLI2025"
	DefaultDietary = "None"

	suffixModulo = 100_000_000
)

// ValidationError names the first required field that is missing or malformed.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Reason, e.Field)
}

// Validate checks required fields in form order and the age format.
func Validate(ctx context.Context, req dto.RegisterRequest) error {
	if err := validator.Validate(ctx, req); err != nil {
		var fe *validator.FieldError
		if errors.As(err, &fe) {
			return &ValidationError{Field: fe.Field, Reason: fe.Msg}
		}
		return err
	}
	if _, err := ParseAge(req.Age.String()); err != nil {
		return &ValidationError{Field: "age", Reason: validator.ErrInvalidFormat}
	}
	return nil
}

// ParseAge coerces the age field to an integer. Fractions are truncated; no
// range check is applied.
func ParseAge(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("age %q is not a number", s)
	}
	return int(f), nil
}

// Build maps a validated request onto a new pending Registration.
func Build(req dto.RegisterRequest, registrationID string, now time.Time) model.Registration {
	age, _ := ParseAge(req.Age.String())

	dietary := req.DietaryPreferences.String()
	if dietary == "" {
		dietary = DefaultDietary
	}

	return model.Registration{
		RegistrationID:     registrationID,
		DelegateType:       req.DelegateType.String(),
		Surname:            req.Surname.String(),
		FirstName:          req.FirstName.String(),
		MiddleInitial:      req.MiddleInitial.Ptr(),
		Institution:        req.Institution.String(),
		InstitutionAddress: req.InstitutionAddress.String(),
		InstitutionContact: req.InstitutionContact.String(),
		InstitutionEmail:   req.InstitutionEmail.String(),
		RegionCluster:      model.Region(req.RegionCluster.String()),
		DelegateContact:    req.DelegateContact.String(),
		DelegateEmail:      req.DelegateEmail.String(),
		Age:                age,
		TshirtSize:         req.TshirtSize.String(),
		DietaryPreferences: dietary,
		DietaryComments:    req.DietaryComments.Ptr(),
		PaymentOption:      req.PaymentOption.String(),
		PaymentProofURL:    req.PaymentProofURL.Ptr(),
		TransactionRef:     req.TransactionRef.Ptr(),
		Status:             model.StatusPending,
		CreatedAt:          now,
	}
}

// IDGenerator issues "<prefix>-<8 digits>" ids where the digits are the last
// eight of the millisecond epoch. Within one process the millisecond value
// never repeats: a second call in the same millisecond borrows the next one.
type IDGenerator struct {
	prefix string
	now    func() time.Time

	mu   sync.Mutex
	last int64
}

func NewIDGenerator(prefix string, now func() time.Time) *IDGenerator {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if now == nil {
		now = time.Now
	}
	return &IDGenerator{prefix: prefix, now: now}
}

func (g *IDGenerator) Prefix() string {
	return g.prefix
}

func (g *IDGenerator) Next() string {
	ms := g.now().UnixMilli()

	g.mu.Lock()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	g.mu.Unlock()

	return fmt.Sprintf("%s-%08d", g.prefix, ms%suffixModulo)
}
