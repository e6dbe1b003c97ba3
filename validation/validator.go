package validation

import (
	"slices"
	"strings"

	"github.com/kbukum/whisper-srt/errors"
)

// FieldError is one failed check.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Validator accumulates failed checks so a caller can report them all at
// once. Checks chain:
//
//	err := validation.New().Required("uploads.dir", dir).Validate()
type Validator struct {
	failures []FieldError
}

func New() *Validator { return &Validator{} }

// check records message for field when ok is false.
func (v *Validator) check(ok bool, field, message string) *Validator {
	if !ok {
		v.AddError(field, message)
	}
	return v
}

func (v *Validator) AddError(field, message string) {
	v.failures = append(v.failures, FieldError{Field: field, Message: message})
}

func (v *Validator) HasErrors() bool { return len(v.failures) > 0 }

func (v *Validator) Errors() []FieldError { return v.failures }

// Validate returns nil, or a 400 AppError whose message lists every failure
// and whose details carry them as "fields".
func (v *Validator) Validate() error {
	if !v.HasErrors() {
		return nil
	}
	parts := make([]string, len(v.failures))
	for i, f := range v.failures {
		parts[i] = f.Field + ": " + f.Message
	}
	return errors.Validation(strings.Join(parts, "; ")).WithDetail("fields", v.failures)
}

// Required fails on empty or all-space values.
func (v *Validator) Required(field, value string) *Validator {
	return v.check(strings.TrimSpace(value) != "", field, "is required")
}

// Language accepts an empty value or a language IsLanguage allows.
func (v *Validator) Language(field, value string) *Validator {
	return v.check(value == "" || IsLanguage(value), field, "must be a language code or name such as en, pt-BR or english")
}

func (v *Validator) OneOf(field, value string, allowed []string) *Validator {
	return v.check(slices.Contains(allowed, value), field, "must be one of: "+strings.Join(allowed, ", "))
}

// Custom records message unless condition holds.
func (v *Validator) Custom(condition bool, field, message string) *Validator {
	return v.check(condition, field, message)
}
