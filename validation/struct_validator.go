// Package validation checks request and configuration input and reports
// failures as 400 *errors.AppError values with per-field details.
//
// Struct tags go through go-playground/validator with two extra tags:
// "language" (an ISO 639 code such as "en" or "pt-BR", a Whisper language
// name such as "english", or "auto"; case is ignored) and
// "subformat" (srt or vtt, case-insensitive).
//
//	type form struct {
//	    Language string `form:"language" validate:"omitempty,language"`
//	}
//	err := validation.Validate(form)
//
// Validator collects checks programmatically:
//
//	err := validation.New().Required("uploads.dir", dir).Validate()
package validation

import (
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/kbukum/whisper-srt/errors"
)

var (
	validate *validator.Validate
	once     sync.Once

	languageCodeRE = regexp.MustCompile(`^[a-z]{2,3}(-[a-z]{2,4})?$`)
	languageNameRE = regexp.MustCompile(`^[a-z]{3,}( [a-z]+)*$`)
)

// maxLanguageName fits the longest Whisper names ("haitian creole").
const maxLanguageName = 32

// IsLanguage reports whether s looks like a language the backends accept:
// a code or a full name, in any case. Whether the backend knows it is left
// to the backend.
func IsLanguage(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "auto", languageCodeRE.MatchString(s):
		return true
	default:
		return len(s) <= maxLanguageName && languageNameRE.MatchString(s)
	}
}

func getValidator() *validator.Validate {
	once.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())

		// Error field names follow form, then json tags.
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			for _, tag := range []string{"form", "json", "mapstructure"} {
				name := strings.SplitN(fld.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return toSnakeCase(fld.Name)
		})

		_ = validate.RegisterValidation("language", func(fl validator.FieldLevel) bool {
			return IsLanguage(fl.Field().String())
		})
		_ = validate.RegisterValidation("subformat", func(fl validator.FieldLevel) bool {
			switch strings.ToLower(strings.TrimSpace(fl.Field().String())) {
			case "srt", "vtt":
				return true
			}
			return false
		})
	})
	return validate
}

// Validate validates a struct using its `validate` tags.
func Validate(s any) error {
	err := getValidator().Struct(s)
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Validation("validation failed")
	}

	v := New()
	for _, e := range validationErrors {
		v.AddError(e.Field(), formatValidationError(e))
	}
	return v.Validate()
}

func formatValidationError(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "is required"
	case "min":
		return "must be at least " + e.Param()
	case "max":
		return "must be at most " + e.Param()
	case "oneof":
		return "must be one of: " + e.Param()
	case "language":
		return "must be a language code or name such as en, pt-BR or english"
	case "subformat":
		return "must be srt or vtt"
	default:
		return "is invalid"
	}
}

func toSnakeCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				result.WriteRune('_')
			}
			r += 'a' - 'A'
		}
		result.WriteRune(r)
	}
	return result.String()
}
