package api

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotConnected is returned when an operation needs a live connection and the
// server has none.
var ErrNotConnected = errors.New("not connected")

// NotFoundError reports an operation on a server name that is not registered.
type NotFoundError struct {
	ResourceType string
	ResourceName string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.ResourceType, e.ResourceName)
}

// NewServerNotFoundError creates a NotFoundError for an MCP server name.
func NewServerNotFoundError(name string) *NotFoundError {
	return &NotFoundError{ResourceType: "mcp server", ResourceName: name}
}

// IsNotFound checks if an error is or wraps a NotFoundError.
func IsNotFound(err error) bool {
	var notFoundErr *NotFoundError
	return errors.As(err, &notFoundErr)
}

// AlreadyExistsError is returned when registering a name that is already taken.
type AlreadyExistsError struct {
	Name string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("mcp server %s already exists", e.Name)
}

// IsAlreadyExists checks if an error is or wraps an AlreadyExistsError.
func IsAlreadyExists(err error) bool {
	var existsErr *AlreadyExistsError
	return errors.As(err, &existsErr)
}

// ConfigError reports a malformed or incomplete server configuration.
type ConfigError struct {
	Server  string
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	if e.Server == "" {
		return fmt.Sprintf("invalid server config: field '%s' %s", e.Field, e.Message)
	}
	return fmt.Sprintf("invalid config for server %s: field '%s' %s", e.Server, e.Field, e.Message)
}

// NewConfigError creates a ConfigError.
func NewConfigError(server, field, message string) *ConfigError {
	return &ConfigError{Server: server, Field: field, Message: message}
}

// IsConfigError checks if an error is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// ConnectTimeoutError reports a transport that did not finish its handshake
// within its budget.
type ConnectTimeoutError struct {
	Server  string
	Timeout time.Duration
	// Hint is an actionable suggestion, set for package-fetch style commands.
	Hint string
}

func (e *ConnectTimeoutError) Error() string {
	msg := fmt.Sprintf("connection to %s timed out after %s", e.Server, e.Timeout)
	if e.Hint != "" {
		msg += ". " + e.Hint
	}
	return msg
}

// IsConnectTimeout checks if an error is or wraps a ConnectTimeoutError.
func IsConnectTimeout(err error) bool {
	var timeoutErr *ConnectTimeoutError
	return errors.As(err, &timeoutErr)
}

// CallTimeoutError reports a request that did not answer within its timeout.
type CallTimeoutError struct {
	Operation string
	Timeout   time.Duration
}

func (e *CallTimeoutError) Error() string {
	return fmt.Sprintf("%s timeout after %s", e.Operation, e.Timeout)
}
