package validator

import (
	"context"
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator"

	"nryli/internal/model"
)

var global *validator.Validate

const (
	ErrInvalidFormat      = "Invalid format"
	ErrFieldRequired      = "Missing required field"
	ErrFieldExceedsMaxLen = "Field exceeds maximum length"
	ErrFieldBelowMinLen   = "Field is below minimum length"
	ErrInvalidRegion      = "Region must be one of NCR, Luzon, Visayas, Mindanao"
	ErrInvalidStatus      = "Status must be one of pending, approved, rejected"
	ErrUnknownValidation  = "Unknown validation error"
)

// FieldError is the first failing field of a struct, named by its json tag.
type FieldError struct {
	Field string
	Tag   string
	Msg   string
}

func (e *FieldError) Error() string {
	return e.Msg + ": " + e.Field
}

func init() {
	SetValidator(New())
}

func New() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(jsonName)
	_ = v.RegisterValidation("region", validateRegion)
	_ = v.RegisterValidation("status", validateStatus)
	return v
}

func SetValidator(v *validator.Validate) {
	global = v
}

func Validator() *validator.Validate {
	return global
}

func jsonName(fld reflect.StructField) string {
	name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
	if name == "-" || name == "" {
		return fld.Name
	}
	return name
}

func validateRegion(fl validator.FieldLevel) bool {
	return model.Region(fl.Field().String()).Valid()
}

func validateStatus(fl validator.FieldLevel) bool {
	_, err := model.ParseStatus(fl.Field().String())
	return err == nil
}

// Validate checks structure and returns a *FieldError for the first failing
// field in declaration order, or nil.
func Validate(ctx context.Context, structure any) error {
	return parseValidationErrors(Validator().StructCtx(ctx, structure))
}

func parseValidationErrors(err error) error {
	if err == nil {
		return nil
	}
	var vErrors validator.ValidationErrors
	if !errors.As(err, &vErrors) || len(vErrors) == 0 {
		return err
	}
	ve := vErrors[0]
	var msg string
	switch ve.Tag() {
	case "required":
		msg = ErrFieldRequired
	case "max":
		msg = ErrFieldExceedsMaxLen
	case "min":
		msg = ErrFieldBelowMinLen
	case "email", "numeric", "url":
		msg = ErrInvalidFormat
	case "region":
		msg = ErrInvalidRegion
	case "status":
		msg = ErrInvalidStatus
	default:
		msg = ErrUnknownValidation
	}
	return &FieldError{Field: ve.Field(), Tag: ve.Tag(), Msg: msg}
}
