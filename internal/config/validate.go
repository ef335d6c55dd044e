package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/chr1sbest/splice/internal/download"
)

// ValidationError holds details about a configuration validation failure.
type ValidationError struct {
	Field   string
	Message string
	Context string
}

func (e ValidationError) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s (in %s)", e.Field, e.Message, e.Context)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationErrors collects multiple validation errors.
type ValidationErrors []ValidationError

func (errs ValidationErrors) Error() string {
	if len(errs) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, e := range errs {
		msgs = append(msgs, "  - "+e.Error())
	}
	return fmt.Sprintf("validation failed with %d error(s):\n%s", len(errs), strings.Join(msgs, "\n"))
}

// HasErrors returns true if there are any validation errors.
func (errs ValidationErrors) HasErrors() bool {
	return len(errs) > 0
}

// Validator validates configuration files.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// Validate checks a config for errors and returns detailed validation errors.
func (v *Validator) Validate(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	if strings.TrimSpace(cfg.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "config name is required",
		})
	}

	for i, pattern := range cfg.Inputs {
		ctx := fmt.Sprintf("inputs[%d]", i)
		if strings.TrimSpace(pattern) == "" {
			errs = append(errs, ValidationError{Field: "inputs", Message: "input pattern is empty", Context: ctx})
			continue
		}
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, ValidationError{
				Field:   "inputs",
				Message: fmt.Sprintf("invalid glob %q: %v", pattern, err),
				Context: ctx,
			})
		}
	}

	errs = append(errs, v.validateScript("extract", cfg.Extract)...)
	errs = append(errs, v.validateScript("merge", cfg.Merge)...)

	if cfg.Output.Name != "" {
		if err := download.ValidateName(cfg.Output.Name); err != nil {
			errs = append(errs, ValidationError{
				Field:   "output.name",
				Message: "output name must be a plain file name",
				Context: cfg.Output.Name,
			})
		}
	}

	for k := range cfg.Vars {
		if strings.TrimSpace(k) == "" {
			errs = append(errs, ValidationError{Field: "vars", Message: "variable name is empty"})
		}
	}

	for i, imp := range cfg.AllowedImports {
		if strings.TrimSpace(imp) == "" {
			errs = append(errs, ValidationError{
				Field:   "allowed_imports",
				Message: "import path is empty",
				Context: fmt.Sprintf("allowed_imports[%d]", i),
			})
		}
	}

	return errs
}

func (v *Validator) validateScript(field string, s ScriptConfig) ValidationErrors {
	if s.File != "" && s.Source != "" {
		return ValidationErrors{{
			Field:   field,
			Message: "set either file or source, not both",
		}}
	}
	return nil
}

// ValidateConfig is a convenience function to validate a config.
func ValidateConfig(cfg *Config) error {
	validator := NewValidator()
	errs := validator.Validate(cfg)
	if errs.HasErrors() {
		return errs
	}
	return nil
}
