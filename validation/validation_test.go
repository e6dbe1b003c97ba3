package validation

import (
	stderrors "errors"
	"strings"
	"testing"

	"github.com/kbukum/whisper-srt/errors"
)

type uploadForm struct {
	Language string `form:"language" validate:"omitempty,language"`
	Format   string `form:"format" validate:"omitempty,subformat"`
	Model    string `json:"model" validate:"max=8"`
}

func fieldsOf(t *testing.T, err error) []FieldError {
	t.Helper()
	var appErr *errors.AppError
	if !stderrors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T %v", err, err)
	}
	if appErr.Code != errors.ErrCodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %s", appErr.Code)
	}
	fields, _ := appErr.Details["fields"].([]FieldError)
	return fields
}

func TestValidate_Form(t *testing.T) {
	tests := []struct {
		name   string
		form   uploadForm
		fields []string
	}{
		{"empty is fine", uploadForm{}, nil},
		{"valid", uploadForm{Language: "pt-BR", Format: "VTT"}, nil},
		{"auto language", uploadForm{Language: "auto", Format: "srt"}, nil},
		{"upper case code", uploadForm{Language: "EN"}, nil},
		{"language name", uploadForm{Language: "english"}, nil},
		{"capitalized name", uploadForm{Language: "English"}, nil},
		{"bad language", uploadForm{Language: "en_US"}, []string{"language"}},
		{"bad format", uploadForm{Format: "ass"}, []string{"format"}},
		{"json tag name", uploadForm{Model: "much-too-long"}, []string{"model"}},
		{"several", uploadForm{Language: "e", Format: "txt"}, []string{"language", "format"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.form)
			if tt.fields == nil {
				if err != nil {
					t.Fatalf("expected no error, got %v", err)
				}
				return
			}
			fields := fieldsOf(t, err)
			if len(fields) != len(tt.fields) {
				t.Fatalf("expected %d field errors, got %+v", len(tt.fields), fields)
			}
			for i, f := range tt.fields {
				if fields[i].Field != f {
					t.Errorf("field %d: expected %s, got %s", i, f, fields[i].Field)
				}
			}
		})
	}
}

func TestValidate_MessageNamesField(t *testing.T) {
	err := Validate(uploadForm{Format: "ass"})
	if err == nil || !strings.Contains(err.Error(), "format: must be srt or vtt") {
		t.Errorf("unexpected error %v", err)
	}
}

func TestIsLanguage(t *testing.T) {
	for _, ok := range []string{"en", "EN", "de", "yue", "zh-Hant", "auto", "english", "English", "haitian creole"} {
		if !IsLanguage(ok) {
			t.Errorf("expected %q to be accepted", ok)
		}
	}
	for _, bad := range []string{"", "en_US", "e", "en1", "english!", strings.Repeat("a", 40)} {
		if IsLanguage(bad) {
			t.Errorf("expected %q to be rejected", bad)
		}
	}
}

func TestValidator_Chain(t *testing.T) {
	err := New().
		Required("uploads.dir", "  ").
		Language("default_language", "en_US").
		OneOf("provider", "azure", []string{"whisper", "openai"}).
		Custom(false, "queue_size", "must be positive").
		Validate()

	fields := fieldsOf(t, err)
	want := []string{"uploads.dir", "default_language", "provider", "queue_size"}
	if len(fields) != len(want) {
		t.Fatalf("expected %d errors, got %+v", len(want), fields)
	}
	for i, f := range want {
		if fields[i].Field != f {
			t.Errorf("error %d: expected %s, got %s", i, f, fields[i].Field)
		}
	}
}

func TestValidator_NoErrors(t *testing.T) {
	v := New().Required("a", "x").Language("lang", "").OneOf("p", "whisper", []string{"whisper"})
	if v.HasErrors() {
		t.Errorf("expected no errors, got %v", v.Errors())
	}
	if err := v.Validate(); err != nil {
		t.Errorf("expected nil error, got %v", err)
	}
}

func TestToSnakeCase(t *testing.T) {
	if got := toSnakeCase("DefaultLanguage"); got != "default_language" {
		t.Errorf("unexpected %q", got)
	}
}
