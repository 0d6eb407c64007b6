package validation

import (
	"strings"
	"testing"

	"github.com/kbukum/eradiate-pp/errors"
)

func TestValidatorRequired(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"non-empty", "radiance", false},
		{"empty", "", true},
		{"whitespace only", "   ", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().Required("name", tc.value)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tc.wantErr)
			}
		})
	}
}

func TestValidatorIdentifier(t *testing.T) {
	tests := []struct {
		value   string
		wantErr bool
	}{
		{"_brdf_brf", false},
		{"radiance_var", false},
		{"", false},
		{"2d", true},
		{"with space", true},
		{"dash-ed", true},
	}
	for _, tc := range tests {
		t.Run(tc.value, func(t *testing.T) {
			v := New().Identifier("name", tc.value)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tc.wantErr)
			}
		})
	}
}

func TestValidatorUnique(t *testing.T) {
	v := New().Unique("depends_on", []string{"a", "b", "c"})
	if v.HasErrors() {
		t.Errorf("unexpected errors %v", v.Errors())
	}

	v = New().Unique("depends_on", []string{"a", "b", "a"})
	if !v.HasErrors() {
		t.Fatal("expected duplicate error")
	}
	if !strings.Contains(v.Errors()[0].Message, "a") {
		t.Errorf("expected duplicate name in message, got %q", v.Errors()[0].Message)
	}
}

func TestValidatorMaxLength(t *testing.T) {
	if New().MaxLength("desc", "short", 10).HasErrors() {
		t.Error("expected no error within limit")
	}
	if !New().MaxLength("desc", "this is too long", 10).HasErrors() {
		t.Error("expected error beyond limit")
	}
}

func TestValidatorPattern(t *testing.T) {
	tests := []struct {
		name    string
		value   string
		wantErr bool
	}{
		{"match", "ckd", false},
		{"empty skipped", "", false},
		{"no match", "mono", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			v := New().Pattern("mode", tc.value, `^ckd`)
			if v.HasErrors() != tc.wantErr {
				t.Errorf("HasErrors() = %v, want %v", v.HasErrors(), tc.wantErr)
			}
		})
	}
}

func TestValidatorOneOf(t *testing.T) {
	allowed := []string{"radiance", "brdf"}
	if New().OneOf("var", "radiance", allowed).HasErrors() {
		t.Error("expected allowed value to pass")
	}
	if New().OneOf("var", "", allowed).HasErrors() {
		t.Error("expected empty value to be skipped")
	}
	if !New().OneOf("var", "albedo", allowed).HasErrors() {
		t.Error("expected disallowed value to fail")
	}
}

func TestValidatorCustom(t *testing.T) {
	if New().Custom(true, "field", "msg").HasErrors() {
		t.Error("expected no error for true condition")
	}
	v := New().Custom(false, "field", "custom error")
	if !v.HasErrors() || v.Errors()[0].Message != "custom error" {
		t.Errorf("unexpected errors %v", v.Errors())
	}
}

func TestValidatorValidate(t *testing.T) {
	if err := New().Validate(); err != nil {
		t.Errorf("expected nil for a clean validator, got %v", err)
	}

	err := New().Required("name", "").Required("component", "").Validate()
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.HasCode(err, errors.ErrCodeInvalidInput) {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
	appErr, _ := errors.AsAppError(err)
	fields, ok := appErr.Details["fields"].([]FieldError)
	if !ok || len(fields) != 2 {
		t.Errorf("expected two field errors in details, got %v", appErr.Details)
	}
	if !strings.Contains(err.Error(), "name: is required") {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestRequiredFunc(t *testing.T) {
	if err := Required("name", "value"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := Required("name", ""); err == nil {
		t.Error("expected error for empty value")
	}
}

type nodeSpec struct {
	Name      string   `yaml:"name" validate:"required,identifier"`
	DependsOn []string `yaml:"depends_on" validate:"unique,dive,required"`
	Mode      string   `yaml:"mode" validate:"omitempty,oneof=mono ckd"`
}

type document struct {
	Title string     `yaml:"title" validate:"required"`
	Nodes []nodeSpec `yaml:"nodes" validate:"min=1,dive"`
}

func TestStructValidate(t *testing.T) {
	tests := []struct {
		name      string
		doc       document
		wantField string
	}{
		{"valid", document{Title: "t", Nodes: []nodeSpec{{Name: "a", DependsOn: []string{"b"}}}}, ""},
		{"missing title", document{Nodes: []nodeSpec{{Name: "a"}}}, "title"},
		{"no nodes", document{Title: "t"}, "nodes"},
		{"bad node name", document{Title: "t", Nodes: []nodeSpec{{Name: "1a"}}}, "nodes[0].name"},
		{"duplicate dependency", document{Title: "t", Nodes: []nodeSpec{{Name: "a", DependsOn: []string{"b", "b"}}}}, "nodes[0].depends_on"},
		{"empty dependency", document{Title: "t", Nodes: []nodeSpec{{Name: "a", DependsOn: []string{""}}}}, "nodes[0].depends_on[0]"},
		{"bad mode", document{Title: "t", Nodes: []nodeSpec{{Name: "a", Mode: "rgb"}}}, "nodes[0].mode"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Validate(&tc.doc)
			if tc.wantField == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("expected error")
			}
			appErr, ok := errors.AsAppError(err)
			if !ok {
				t.Fatalf("expected AppError, got %T", err)
			}
			fields := appErr.Details["fields"].([]FieldError)
			if len(fields) != 1 || fields[0].Field != tc.wantField {
				t.Errorf("expected single error on %q, got %v", tc.wantField, fields)
			}
		})
	}
}

func TestToSnakeCase(t *testing.T) {
	tests := map[string]string{
		"Name":           "name",
		"DefinitionDirs": "definition_dirs",
		"ModeID":         "mode_i_d",
	}
	for in, want := range tests {
		if got := toSnakeCase(in); got != want {
			t.Errorf("toSnakeCase(%q) = %q, want %q", in, got, want)
		}
	}
}
