package config

import (
	"fmt"
	"strings"
)

// ValidationError represents a validation error with context
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

// Error implements the error interface
func (ve ValidationError) Error() string {
	if ve.Field == "" {
		return ve.Message
	}
	return fmt.Sprintf("field '%s': %s", ve.Field, ve.Message)
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface for multiple validation errors
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}
	if len(ve) == 1 {
		return ve[0].Error()
	}

	var messages []string
	for _, err := range ve {
		messages = append(messages, err.Error())
	}
	return fmt.Sprintf("validation failed: %s", strings.Join(messages, "; "))
}

// HasErrors returns true if there are any validation errors
func (ve ValidationErrors) HasErrors() bool {
	return len(ve) > 0
}

// Add adds a new validation error
func (ve *ValidationErrors) Add(field, message string, value ...interface{}) {
	var val interface{}
	if len(value) > 0 {
		val = value[0]
	}
	*ve = append(*ve, ValidationError{
		Field:   field,
		Value:   val,
		Message: message,
	})
}

// addErr appends err if it is a ValidationError; other errors are kept as
// field-less messages.
func (ve *ValidationErrors) addErr(err error) {
	if err == nil {
		return
	}
	if v, ok := err.(ValidationError); ok {
		*ve = append(*ve, v)
		return
	}
	*ve = append(*ve, ValidationError{Message: err.Error()})
}

// ValidateRequired checks if a required string field is not empty
func ValidateRequired(field, value, entityType string) error {
	if strings.TrimSpace(value) == "" {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("is required for %s", entityType),
		}
	}
	return nil
}

// ValidateOneOf checks if a value is in a list of allowed values
func ValidateOneOf(field, value string, allowed []string) error {
	for _, allowedValue := range allowed {
		if value == allowedValue {
			return nil
		}
	}
	return ValidationError{
		Field:   field,
		Value:   value,
		Message: fmt.Sprintf("must be one of: %s", strings.Join(allowed, ", ")),
	}
}

// ValidateMaxLength checks if a string doesn't exceed maximum length
func ValidateMaxLength(field, value string, maxLength int) error {
	if len(value) > maxLength {
		return ValidationError{
			Field:   field,
			Value:   value,
			Message: fmt.Sprintf("must not exceed %d characters", maxLength),
		}
	}
	return nil
}

// ValidateServerName checks that name can be used in qualified tool names.
func ValidateServerName(field, name string) error {
	if err := ValidateRequired(field, name, "servers"); err != nil {
		return err
	}
	if err := ValidateMaxLength(field, name, 100); err != nil {
		return err
	}
	if strings.ContainsAny(name, " \t\n") {
		return ValidationError{Field: field, Value: name, Message: "cannot contain whitespace"}
	}
	if strings.Contains(name, "__") {
		return ValidationError{Field: field, Value: name, Message: "cannot contain a double underscore"}
	}
	return nil
}

// Validate checks every server entry and returns all problems at once.
func (f *File) Validate() error {
	var errs ValidationErrors

	durations := []struct {
		field string
		value Duration
	}{
		{"settings.toolTimeout", f.Settings.ToolTimeout},
		{"settings.retryTimeout", f.Settings.RetryTimeout},
		{"settings.discoveryTimeout", f.Settings.DiscoveryTimeout},
		{"settings.remoteConnectTimeout", f.Settings.RemoteConnectTimeout},
		{"settings.localConnectTimeout", f.Settings.LocalConnectTimeout},
		{"settings.packageConnectTimeout", f.Settings.PackageConnectTimeout},
	}
	for _, d := range durations {
		if d.value < 0 {
			errs.Add(d.field, "must not be negative", d.value.String())
		}
	}

	seen := make(map[string]int, len(f.Servers))

	for i, s := range f.Servers {
		prefix := fmt.Sprintf("servers[%d]", i)

		errs.addErr(ValidateServerName(prefix+".name", s.Name))
		if first, dup := seen[s.Name]; dup && s.Name != "" {
			errs.Add(prefix+".name", fmt.Sprintf("duplicates servers[%d]", first), s.Name)
		} else {
			seen[s.Name] = i
		}

		if err := ValidateOneOf(prefix+".type", s.Type, ServerTypes); err != nil {
			errs.addErr(err)
			continue
		}

		switch s.Type {
		case ServerTypeStdio:
			errs.addErr(ValidateRequired(prefix+".command", s.Command, "stdio servers"))
		case ServerTypeSSE, ServerTypeHTTPStreamable:
			errs.addErr(ValidateRequired(prefix+".serverUrl", s.ServerURL, s.Type+" servers"))
		}
		if len(s.RequiredEnvVars) > 0 && s.Type != ServerTypeHTTPStreamable {
			errs.Add(prefix+".requiredEnvVars", "is only supported for http-streamable servers")
		}
	}

	if errs.HasErrors() {
		return errs
	}
	return nil
}
