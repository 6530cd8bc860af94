// Package validation provides input validation utilities for rule configuration.
// This package implements a small validation framework with reusable
// validators for required values, regular expressions, Ant file patterns,
// enumerations and numeric bounds.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/paveg/textrules/internal/antpath"
	"github.com/paveg/textrules/internal/errors"
	"go.uber.org/multierr"
)

// Validator interface for input validation
type Validator interface {
	Validate() error
}

// RequiredValidator checks that a configuration value is not blank
type RequiredValidator struct {
	value string
	field string
	op    string
	rule  string
}

// NewRequiredValidator creates a validator for required values
func NewRequiredValidator(value, field, op, rule string) *RequiredValidator {
	return &RequiredValidator{
		value: value,
		field: field,
		op:    op,
		rule:  rule,
	}
}

// Validate checks that the value is present
func (v *RequiredValidator) Validate() error {
	if strings.TrimSpace(v.value) == "" {
		return errors.NewValidationError(v.op, v.rule, fmt.Sprintf("%s is required", v.field))
	}
	return nil
}

// RegexValidator checks that a value compiles as a regular expression.
// Blank values are accepted; combine with RequiredValidator when needed.
type RegexValidator struct {
	expr  string
	field string
	op    string
	rule  string
}

// NewRegexValidator creates a validator for regular expressions
func NewRegexValidator(expr, field, op, rule string) *RegexValidator {
	return &RegexValidator{
		expr:  expr,
		field: field,
		op:    op,
		rule:  rule,
	}
}

// Validate compiles the expression
func (v *RegexValidator) Validate() error {
	if strings.TrimSpace(v.expr) == "" {
		return nil
	}
	if _, err := regexp.Compile(v.expr); err != nil {
		return errors.NewInvalidExpressionError(v.rule, v.field, err)
	}
	return nil
}

// PatternValidator checks that a value is a valid Ant file pattern
type PatternValidator struct {
	pattern string
	field   string
	op      string
	rule    string
}

// NewPatternValidator creates a validator for Ant file patterns
func NewPatternValidator(pattern, field, op, rule string) *PatternValidator {
	return &PatternValidator{
		pattern: pattern,
		field:   field,
		op:      op,
		rule:    rule,
	}
}

// Validate compiles the pattern
func (v *PatternValidator) Validate() error {
	if _, err := antpath.Compile(v.pattern); err != nil {
		return errors.NewValidationError(v.op, v.rule, fmt.Sprintf("%s: %v", v.field, err))
	}
	return nil
}

// OneOfValidator checks that a value belongs to a fixed set
type OneOfValidator struct {
	value   string
	allowed []string
	field   string
	op      string
	rule    string
}

// NewOneOfValidator creates a validator for enumerated values
func NewOneOfValidator(value string, allowed []string, field, op, rule string) *OneOfValidator {
	return &OneOfValidator{
		value:   value,
		allowed: allowed,
		field:   field,
		op:      op,
		rule:    rule,
	}
}

// Validate checks membership
func (v *OneOfValidator) Validate() error {
	for _, a := range v.allowed {
		if v.value == a {
			return nil
		}
	}
	message := fmt.Sprintf("%s must be one of [%s], got %q", v.field, strings.Join(v.allowed, ", "), v.value)
	return errors.NewValidationError(v.op, v.rule, message)
}

// NonNegativeValidator checks integer settings
type NonNegativeValidator struct {
	value int
	field string
	op    string
}

// NewNonNegativeValidator creates a validator for integer settings
func NewNonNegativeValidator(value int, field, op string) *NonNegativeValidator {
	return &NonNegativeValidator{
		value: value,
		field: field,
		op:    op,
	}
}

// Validate checks that the value is not negative
func (v *NonNegativeValidator) Validate() error {
	if v.value < 0 {
		return errors.NewValidationError(v.op, "", fmt.Sprintf("%s must be non-negative, got %d", v.field, v.value))
	}
	return nil
}

// CompoundValidator combines multiple validators
type CompoundValidator struct {
	validators []Validator
}

// NewCompoundValidator creates a validator that checks multiple conditions
func NewCompoundValidator(validators ...Validator) *CompoundValidator {
	return &CompoundValidator{
		validators: validators,
	}
}

// Validate runs all validators and returns the first error encountered
func (v *CompoundValidator) Validate() error {
	for _, validator := range v.validators {
		if err := validator.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Collect runs every validator and combines all failures into one error.
// Use multierr.Errors on the result to inspect them individually.
func Collect(validators ...Validator) error {
	var err error
	for _, validator := range validators {
		err = multierr.Append(err, validator.Validate())
	}
	return err
}

// Convenience validation functions

// ValidateRequired is a convenience function for required values
func ValidateRequired(value, field, op, rule string) error {
	return NewRequiredValidator(value, field, op, rule).Validate()
}

// ValidateRegex is a convenience function for regular expressions
func ValidateRegex(expr, field, op, rule string) error {
	return NewRegexValidator(expr, field, op, rule).Validate()
}

// ValidatePattern is a convenience function for Ant file patterns
func ValidatePattern(pattern, field, op, rule string) error {
	return NewPatternValidator(pattern, field, op, rule).Validate()
}
