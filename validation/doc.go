// Package validation provides input validation for module definitions,
// manifests and configuration.
//
// Struct tag validation uses go-playground/validator:
//
//	type Settings struct {
//	    Dir string `validate:"required"`
//	}
//	err := validation.Validate(settings)
//
// Programmatic validation collects field errors:
//
//	v := validation.New().
//	    Required("key", key).
//	    Unique("dependencies", deps)
//	if appErr := v.Validate(); appErr != nil { ... }
package validation
