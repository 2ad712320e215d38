package config

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// File is the on-disk configuration of mcphub.
type File struct {
	Settings Settings      `yaml:"settings" toml:"settings"`
	Servers  []ServerEntry `yaml:"servers" toml:"servers"`
}

// Settings tunes the hub. Zero durations fall back to the built-in defaults.
type Settings struct {
	ToolTimeout           Duration `yaml:"toolTimeout,omitempty" toml:"toolTimeout"`
	RetryTimeout          Duration `yaml:"retryTimeout,omitempty" toml:"retryTimeout"`
	DiscoveryTimeout      Duration `yaml:"discoveryTimeout,omitempty" toml:"discoveryTimeout"`
	RemoteConnectTimeout  Duration `yaml:"remoteConnectTimeout,omitempty" toml:"remoteConnectTimeout"`
	LocalConnectTimeout   Duration `yaml:"localConnectTimeout,omitempty" toml:"localConnectTimeout"`
	PackageConnectTimeout Duration `yaml:"packageConnectTimeout,omitempty" toml:"packageConnectTimeout"`
}

// Server types accepted in the "type" field.
const (
	ServerTypeStdio          = "stdio"
	ServerTypeSSE            = "sse"
	ServerTypeHTTPStreamable = "http-streamable"
	ServerTypeInProcess      = "in-process"
)

// ServerTypes lists every accepted server type.
var ServerTypes = []string{ServerTypeStdio, ServerTypeSSE, ServerTypeHTTPStreamable, ServerTypeInProcess}

// ServerEntry is one server as written in the configuration file. Which
// fields apply depends on Type.
type ServerEntry struct {
	Name    string `yaml:"name" toml:"name"`
	Type    string `yaml:"type" toml:"type"`
	Enabled *bool  `yaml:"enabled,omitempty" toml:"enabled"`

	// stdio
	Command  string            `yaml:"command,omitempty" toml:"command"`
	Args     []string          `yaml:"args,omitempty" toml:"args"`
	Env      map[string]string `yaml:"env,omitempty" toml:"env"`
	LazyLoad *bool             `yaml:"lazyLoad,omitempty" toml:"lazyLoad"`

	// sse and http-streamable
	ServerURL       string            `yaml:"serverUrl,omitempty" toml:"serverUrl"`
	Headers         map[string]string `yaml:"headers,omitempty" toml:"headers"`
	RequiredEnvVars []string          `yaml:"requiredEnvVars,omitempty" toml:"requiredEnvVars"`

	// in-process; defaults to Name
	Factory string `yaml:"factory,omitempty" toml:"factory"`
}

// IsEnabled reports the enabled flag. Servers are enabled unless stated
// otherwise.
func (e ServerEntry) IsEnabled() bool {
	return e.Enabled == nil || *e.Enabled
}

// FactoryName is the in-process factory this entry refers to.
func (e ServerEntry) FactoryName() string {
	if e.Factory != "" {
		return e.Factory
	}
	return e.Name
}

// Duration is a time.Duration written as a Go duration string such as "30s"
// or "3m".
type Duration time.Duration

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

func (d Duration) String() string { return time.Duration(d).String() }

// UnmarshalText implements encoding.TextUnmarshaler, used by the TOML decoder.
func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a string like \"30s\"", value.Line)
	}
	return d.UnmarshalText([]byte(value.Value))
}
