package api

import (
	"fmt"
	"reflect"
	"strings"
)

// TransportKind identifies how mcphub reaches a server.
type TransportKind string

const (
	TransportStdio          TransportKind = "stdio"
	TransportSSE            TransportKind = "sse"
	TransportHTTPStreamable TransportKind = "http-streamable"
	TransportInProcess      TransportKind = "in-process"
)

// ServerConfig is the closed set of server configurations. Only the four
// variants in this package implement it.
//
// Callers branch on the variant with Accept and a ConfigVisitor rather than a
// type switch: adding a variant adds a visitor method, which breaks the build of
// every visitor that does not handle it yet.
type ServerConfig interface {
	ServerName() string
	IsEnabled() bool
	Kind() TransportKind
	Accept(v ConfigVisitor) error

	// WithEnabled returns a copy of the configuration with the enabled flag set.
	WithEnabled(enabled bool) ServerConfig

	isServerConfig()
}

// ConfigVisitor handles each ServerConfig variant.
type ConfigVisitor interface {
	VisitStdio(cfg *StdioConfig) error
	VisitSSE(cfg *SSEConfig) error
	VisitStreamable(cfg *StreamableConfig) error
	VisitInProcess(cfg *InProcessConfig) error
}

// StdioConfig describes a server launched as a local subprocess and spoken to
// over stdin/stdout.
type StdioConfig struct {
	Name    string
	Command string
	Args    []string
	Env     map[string]string
	Enabled bool
	// LazyLoad defers connecting until first use. Nil means true.
	LazyLoad *bool
}

func (c *StdioConfig) ServerName() string           { return c.Name }
func (c *StdioConfig) IsEnabled() bool              { return c.Enabled }
func (c *StdioConfig) Kind() TransportKind          { return TransportStdio }
func (c *StdioConfig) Accept(v ConfigVisitor) error { return v.VisitStdio(c) }
func (c *StdioConfig) isServerConfig()              {}

func (c *StdioConfig) WithEnabled(enabled bool) ServerConfig {
	cp := *c
	cp.Enabled = enabled
	return &cp
}

// ShouldLazyLoad reports whether the server connects on first use. Lazy
// loading is on unless explicitly disabled.
func (c *StdioConfig) ShouldLazyLoad() bool {
	return c.LazyLoad == nil || *c.LazyLoad
}

// SSEConfig describes a remote server reached over the event-stream transport.
type SSEConfig struct {
	Name    string
	URL     string
	Headers map[string]string
	Enabled bool
}

func (c *SSEConfig) ServerName() string           { return c.Name }
func (c *SSEConfig) IsEnabled() bool              { return c.Enabled }
func (c *SSEConfig) Kind() TransportKind          { return TransportSSE }
func (c *SSEConfig) Accept(v ConfigVisitor) error { return v.VisitSSE(c) }
func (c *SSEConfig) isServerConfig()              {}

func (c *SSEConfig) WithEnabled(enabled bool) ServerConfig {
	cp := *c
	cp.Enabled = enabled
	return &cp
}

// StreamableConfig describes a remote server reached over streamable HTTP.
type StreamableConfig struct {
	Name    string
	URL     string
	Headers map[string]string
	// RequiredEnvVars lists environment variables that must be present; the
	// server is force-disabled when any is missing.
	RequiredEnvVars []string
	Enabled         bool
}

func (c *StreamableConfig) ServerName() string           { return c.Name }
func (c *StreamableConfig) IsEnabled() bool              { return c.Enabled }
func (c *StreamableConfig) Kind() TransportKind          { return TransportHTTPStreamable }
func (c *StreamableConfig) Accept(v ConfigVisitor) error { return v.VisitStreamable(c) }
func (c *StreamableConfig) isServerConfig()              {}

func (c *StreamableConfig) WithEnabled(enabled bool) ServerConfig {
	cp := *c
	cp.Enabled = enabled
	return &cp
}

// MissingEnvVars returns the required variables that lookup cannot find.
func (c *StreamableConfig) MissingEnvVars(lookup func(string) (string, bool)) []string {
	var missing []string
	for _, name := range c.RequiredEnvVars {
		if _, ok := lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	return missing
}

// InProcessFactory produces a fresh in-process server instance.
type InProcessFactory func() (InProcessServer, error)

// InProcessConfig describes a logical server living in the same process.
type InProcessConfig struct {
	Name    string
	Enabled bool
	Factory InProcessFactory
}

func (c *InProcessConfig) ServerName() string           { return c.Name }
func (c *InProcessConfig) IsEnabled() bool              { return c.Enabled }
func (c *InProcessConfig) Kind() TransportKind          { return TransportInProcess }
func (c *InProcessConfig) Accept(v ConfigVisitor) error { return v.VisitInProcess(c) }
func (c *InProcessConfig) isServerConfig()              {}

func (c *InProcessConfig) WithEnabled(enabled bool) ServerConfig {
	cp := *c
	cp.Enabled = enabled
	return &cp
}

// validator checks the required fields of each variant.
type validator struct{}

func (validator) VisitStdio(cfg *StdioConfig) error {
	if strings.TrimSpace(cfg.Command) == "" {
		return NewConfigError(cfg.Name, "command", "is required for stdio servers")
	}
	return nil
}

func (validator) VisitSSE(cfg *SSEConfig) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return NewConfigError(cfg.Name, "serverUrl", "is required for sse servers")
	}
	return nil
}

func (validator) VisitStreamable(cfg *StreamableConfig) error {
	if strings.TrimSpace(cfg.URL) == "" {
		return NewConfigError(cfg.Name, "serverUrl", "is required for http-streamable servers")
	}
	return nil
}

func (validator) VisitInProcess(cfg *InProcessConfig) error {
	if cfg.Factory == nil {
		return NewConfigError(cfg.Name, "serverFactory", "is required for in-process servers")
	}
	return nil
}

// Validate checks that cfg is non-nil, named, and carries the fields its
// transport needs.
func Validate(cfg ServerConfig) error {
	if cfg == nil || reflect.ValueOf(cfg).IsNil() {
		return NewConfigError("", "config", "must not be nil")
	}
	if strings.TrimSpace(cfg.ServerName()) == "" {
		return NewConfigError("", "name", "is required")
	}
	if strings.Contains(cfg.ServerName(), "__") {
		return NewConfigError(cfg.ServerName(), "name", "cannot contain a double underscore")
	}
	return cfg.Accept(validator{})
}

// EqualConfigs reports whether a and b describe the same server setup. In-process
// factories are compared by identity.
func EqualConfigs(a, b ServerConfig) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	ia, okA := a.(*InProcessConfig)
	ib, okB := b.(*InProcessConfig)
	if okA && okB {
		return ia.Name == ib.Name && ia.Enabled == ib.Enabled &&
			reflect.ValueOf(ia.Factory).Pointer() == reflect.ValueOf(ib.Factory).Pointer()
	}
	return reflect.DeepEqual(a, b)
}

// Describe renders a short human-readable target for logs, e.g. "npx -y pkg" or a URL.
func Describe(cfg ServerConfig) string {
	var out string
	_ = cfg.Accept(describer{out: &out})
	return out
}

type describer struct{ out *string }

func (d describer) VisitStdio(cfg *StdioConfig) error {
	*d.out = strings.TrimSpace(cfg.Command + " " + strings.Join(cfg.Args, " "))
	return nil
}

func (d describer) VisitSSE(cfg *SSEConfig) error {
	*d.out = cfg.URL
	return nil
}

func (d describer) VisitStreamable(cfg *StreamableConfig) error {
	*d.out = cfg.URL
	return nil
}

func (d describer) VisitInProcess(cfg *InProcessConfig) error {
	*d.out = fmt.Sprintf("in-process:%s", cfg.Name)
	return nil
}
