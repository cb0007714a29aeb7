// Package validation checks request payloads and reports every failing field at once.
package validation

import (
	"fmt"
	"net/mail"
	"slices"
	"strings"

	"github.com/google/uuid"

	"github.com/JaimeStill/tollgate/pkg/apperr"
	"github.com/JaimeStill/tollgate/pkg/result"
)

// ErrValidation is the classification of every validation failure.
var ErrValidation = apperr.BadRequest("ValidationError", "Validation failed")

// FieldError describes one failing field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates field errors.
type Validator struct {
	errs []FieldError
}

// New creates an empty Validator.
func New() *Validator {
	return &Validator{}
}

// Check records message for field when ok is false.
func (v *Validator) Check(ok bool, field, message string) *Validator {
	if !ok {
		v.errs = append(v.errs, FieldError{Field: field, Message: message})
	}
	return v
}

func (v *Validator) Required(field, value string) *Validator {
	return v.Check(strings.TrimSpace(value) != "", field, field+" is required")
}

func (v *Validator) Email(field, value string) *Validator {
	addr, err := mail.ParseAddress(value)
	return v.Check(err == nil && addr.Address == strings.TrimSpace(value), field, field+" must be a valid email")
}

func (v *Validator) MinLength(field, value string, n int) *Validator {
	return v.Check(len([]rune(value)) >= n, field, fmt.Sprintf("%s must be at least %d characters", field, n))
}

func (v *Validator) MaxLength(field, value string, n int) *Validator {
	return v.Check(len([]rune(value)) <= n, field, fmt.Sprintf("%s must be at most %d characters", field, n))
}

func (v *Validator) Min(field string, value, min int) *Validator {
	return v.Check(value >= min, field, fmt.Sprintf("%s must be at least %d", field, min))
}

// UUID checks value is a UUID. Empty values pass; combine with Required.
func (v *Validator) UUID(field, value string) *Validator {
	if value == "" {
		return v
	}
	_, err := uuid.Parse(value)
	return v.Check(err == nil, field, field+" must be a UUID")
}

// OneOf checks value is one of allowed. Empty values pass; combine with Required.
func (v *Validator) OneOf(field, value string, allowed ...string) *Validator {
	if value == "" {
		return v
	}
	return v.Check(
		slices.Contains(allowed, value),
		field,
		fmt.Sprintf("%s must be one of: %s", field, strings.Join(allowed, ", ")),
	)
}

// Errors returns the accumulated field errors.
func (v *Validator) Errors() []FieldError {
	return v.errs
}

// Err returns nil when every check passed, otherwise a ValidationError
// carrying the field errors as details.
func (v *Validator) Err() error {
	if len(v.errs) == 0 {
		return nil
	}
	return ErrValidation.WithDetails(v.errs)
}

// Validate runs rules against dto and returns the dto on success.
func Validate[T any](dto T, rules func(*Validator, T)) result.Result[T] {
	v := New()
	rules(v, dto)
	if err := v.Err(); err != nil {
		return result.Fail[T](err)
	}
	return result.Success(dto)
}
