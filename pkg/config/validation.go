package config

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/strataml/cubefit/pkg/errors"
)

// ValidationError represents one configuration validation failure.
type ValidationError struct {
	Field string
	Tag   string
	Value interface{}
}

func (e *ValidationError) Error() string {
	switch e.Tag {
	case "required":
		return fmt.Sprintf("%s is required", e.Field)
	case "min":
		return fmt.Sprintf("%s is below its minimum", e.Field)
	case "max":
		return fmt.Sprintf("%s is above its maximum", e.Field)
	case "oneof":
		return fmt.Sprintf("%s has an unsupported value %v", e.Field, e.Value)
	default:
		return fmt.Sprintf("%s failed validation (%s)", e.Field, e.Tag)
	}
}

// Validate checks a configuration against its struct tags, returning a
// Configuration-coded error naming every failing field.
func Validate(cfg *Config) error {
	v := validator.New()
	err := v.Struct(cfg)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.Wrap(err, errors.Configuration, "validating config")
	}

	var messages []string
	for _, fe := range verrs {
		ve := &ValidationError{Field: fe.Namespace(), Tag: fe.Tag(), Value: fe.Value()}
		messages = append(messages, ve.Error())
	}
	return errors.Newf(errors.Configuration, "invalid configuration: %s", strings.Join(messages, "; "))
}
