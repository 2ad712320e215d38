package config

import (
	"fmt"
	"os"
	"regexp"
	"sort"

	"mcphub/internal/api"
	"mcphub/internal/hub"
	"mcphub/internal/mcpserver"
	"mcphub/pkg/logging"
)

// Factories maps factory names to in-process server factories that
// "in-process" entries can refer to.
type Factories map[string]api.InProcessFactory

// Names returns the registered factory names, sorted.
func (f Factories) Names() []string {
	names := make([]string, 0, len(f))
	for name := range f {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var placeholderPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// ExpandEnv replaces ${VAR} placeholders in value using lookup. An unset
// variable expands to the empty string and is logged.
func ExpandEnv(value string, lookup func(string) (string, bool)) string {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	return placeholderPattern.ReplaceAllStringFunc(value, func(match string) string {
		name := placeholderPattern.FindStringSubmatch(match)[1]
		resolved, ok := lookup(name)
		if !ok {
			logging.Warn("ConfigLoader", "Environment variable %s is not set, using empty value", name)
			return ""
		}
		return resolved
	})
}

func expandMap(in map[string]string, lookup func(string) (string, bool)) map[string]string {
	if in == nil {
		return nil
	}
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = ExpandEnv(v, lookup)
	}
	return out
}

// ServerConfigs converts the file's entries into hub configurations. Env and
// header values have their placeholders resolved through lookup, which
// defaults to os.LookupEnv.
func (f *File) ServerConfigs(factories Factories, lookup func(string) (string, bool)) ([]api.ServerConfig, error) {
	var (
		configs = make([]api.ServerConfig, 0, len(f.Servers))
		errs    ValidationErrors
	)
	for i, s := range f.Servers {
		cfg, err := s.toServerConfig(factories, lookup)
		if err != nil {
			errs.Add(fmt.Sprintf("servers[%d]", i), err.Error(), s.Name)
			continue
		}
		configs = append(configs, cfg)
	}
	if errs.HasErrors() {
		return configs, errs
	}
	return configs, nil
}

func (s ServerEntry) toServerConfig(factories Factories, lookup func(string) (string, bool)) (api.ServerConfig, error) {
	switch s.Type {
	case ServerTypeStdio:
		return &api.StdioConfig{
			Name:     s.Name,
			Command:  s.Command,
			Args:     append([]string(nil), s.Args...),
			Env:      expandMap(s.Env, lookup),
			Enabled:  s.IsEnabled(),
			LazyLoad: s.LazyLoad,
		}, nil
	case ServerTypeSSE:
		return &api.SSEConfig{
			Name:    s.Name,
			URL:     s.ServerURL,
			Headers: expandMap(s.Headers, lookup),
			Enabled: s.IsEnabled(),
		}, nil
	case ServerTypeHTTPStreamable:
		return &api.StreamableConfig{
			Name:            s.Name,
			URL:             s.ServerURL,
			Headers:         expandMap(s.Headers, lookup),
			RequiredEnvVars: append([]string(nil), s.RequiredEnvVars...),
			Enabled:         s.IsEnabled(),
		}, nil
	case ServerTypeInProcess:
		factory, ok := factories[s.FactoryName()]
		if !ok {
			return nil, fmt.Errorf("unknown in-process server %q (available: %v)", s.FactoryName(), factories.Names())
		}
		return &api.InProcessConfig{
			Name:    s.Name,
			Enabled: s.IsEnabled(),
			Factory: factory,
		}, nil
	default:
		return nil, fmt.Errorf("unknown server type %q", s.Type)
	}
}

// TimeoutPolicy returns the connect timeouts configured in s.
func (s Settings) TimeoutPolicy() mcpserver.TimeoutPolicy {
	return mcpserver.TimeoutPolicy{
		Remote:       s.RemoteConnectTimeout.Std(),
		Local:        s.LocalConnectTimeout.Std(),
		PackageFetch: s.PackageConnectTimeout.Std(),
	}.WithDefaults()
}

// HubOptions returns hub options reflecting s. Unset values keep the hub
// defaults.
func (s Settings) HubOptions() hub.Options {
	return hub.Options{
		TimeoutPolicy:    s.TimeoutPolicy(),
		ToolTimeout:      s.ToolTimeout.Std(),
		RetryTimeout:     s.RetryTimeout.Std(),
		DiscoveryTimeout: s.DiscoveryTimeout.Std(),
	}
}
