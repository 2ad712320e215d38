package config

import (
	"fmt"
	"strings"
)

// Error types reported in ConfigurationError.ErrorType.
const (
	ErrorTypeIO         = "io"
	ErrorTypeParse      = "parse"
	ErrorTypeValidation = "validation"
)

// ConfigurationError represents a structured error that occurs during configuration loading
type ConfigurationError struct {
	FilePath    string   `json:"filePath"`    // Full path to the file that caused the error
	Format      string   `json:"format"`      // yaml, json or toml
	ErrorType   string   `json:"errorType"`   // io, parse or validation
	Message     string   `json:"message"`     // Human-readable error message
	Suggestions []string `json:"suggestions"` // Actionable suggestions to fix the error

	err error
}

// Error implements the error interface
func (ce *ConfigurationError) Error() string {
	return fmt.Sprintf("%s error in %s: %s", ce.ErrorType, ce.FilePath, ce.Message)
}

// Unwrap returns the underlying decoder, filesystem or validation error.
func (ce *ConfigurationError) Unwrap() error {
	return ce.err
}

// DetailedError returns a detailed error message with all context
func (ce *ConfigurationError) DetailedError() string {
	var parts []string

	parts = append(parts, fmt.Sprintf("Configuration Error in %s", ce.FilePath))
	if ce.Format != "" {
		parts = append(parts, fmt.Sprintf("  Format: %s", ce.Format))
	}
	parts = append(parts, fmt.Sprintf("  Type: %s", ce.ErrorType))
	parts = append(parts, fmt.Sprintf("  Error: %s", ce.Message))

	if len(ce.Suggestions) > 0 {
		parts = append(parts, "  Suggestions:")
		for _, suggestion := range ce.Suggestions {
			parts = append(parts, fmt.Sprintf("    - %s", suggestion))
		}
	}

	return strings.Join(parts, "\n")
}

func newConfigurationError(path, format, errorType string, err error, suggestions ...string) *ConfigurationError {
	return &ConfigurationError{
		FilePath:    path,
		Format:      format,
		ErrorType:   errorType,
		Message:     err.Error(),
		Suggestions: suggestions,
		err:         err,
	}
}
