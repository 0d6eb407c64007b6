// Package validation checks configuration and definition documents.
//
// Struct tags are checked with go-playground/validator; fields are reported
// by their yaml name. The custom "identifier" tag accepts names made of
// letters, digits and underscores that do not start with a digit.
//
//	type NodeSpec struct {
//	    Name string `yaml:"name" validate:"required,identifier"`
//	}
//	err := validation.Validate(spec)
//
// Rules spanning several fields use the fluent Validator:
//
//	v := validation.New()
//	v.Required("component", spec.Component).Unique("depends_on", spec.DependsOn)
//	err := v.Validate()
//
// Both return an *errors.AppError with code INVALID_INPUT whose "fields"
// detail lists every failing field.
package validation
