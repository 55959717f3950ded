package schema

import (
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	srvErrors "github.com/kubev2v/relcore/pkg/errors"
)

// Validator inspects a converted column value. It returns an empty string to accept
// the value or a message explaining the rejection.
type Validator func(c *Column, value any) string

func defaultValidators(c *Column) []Validator {
	vs := []Validator{requiredValidator}
	if c.MaxLength > 0 {
		vs = append(vs, maxLengthValidator)
	}
	if c.Validate != "" {
		vs = append(vs, ruleValidator)
	}
	return vs
}

// AddValidator appends v to the column's chain.
func (c *Column) AddValidator(v Validator) {
	c.validators = append(c.validators, v)
}

// Check converts value to the column type and runs the validator chain. The first
// rejection is returned as a ValidationFailedError naming the column.
func (c *Column) Check(value any) (any, error) {
	v, err := c.Type.Convert(value)
	if err != nil {
		return nil, srvErrors.NewValidationFailedError(c.Name, err.Error())
	}
	for _, check := range c.validators {
		if msg := check(c, v); msg != "" {
			return nil, srvErrors.NewValidationFailedError(c.Name, msg)
		}
	}
	return v, nil
}

func requiredValidator(c *Column, value any) string {
	if !c.Required {
		return ""
	}
	if value == nil {
		return "value is required"
	}
	if s, ok := value.(string); ok && s == "" {
		return "value is required"
	}
	return ""
}

func maxLengthValidator(c *Column, value any) string {
	s, ok := value.(string)
	if !ok {
		return ""
	}
	if n := utf8.RuneCountInString(s); n > c.MaxLength {
		return fmt.Sprintf("value is %d characters long, the limit is %d", n, c.MaxLength)
	}
	return ""
}

func ruleValidator(c *Column, value any) string {
	if value == nil {
		return ""
	}
	err := validate.Var(value, c.Validate)
	if err == nil {
		return ""
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fmt.Sprintf("value %v does not satisfy %s=%s", value, fe.Tag(), fe.Param())
		}
		return fmt.Sprintf("value %v does not satisfy %s", value, fe.Tag())
	}
	return err.Error()
}
