package mcpserver

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"mcphub/internal/api"
)

const (
	// DefaultRemoteConnectTimeout bounds the handshake with sse and
	// http-streamable servers.
	DefaultRemoteConnectTimeout = 30 * time.Second

	// DefaultLocalConnectTimeout bounds spawning and initializing an ordinary
	// stdio server.
	DefaultLocalConnectTimeout = 60 * time.Second

	// DefaultPackageConnectTimeout bounds stdio servers launched through a
	// package runner, whose first start may download the package.
	DefaultPackageConnectTimeout = 3 * time.Minute
)

// packageRunners start a package by name, fetching it when missing.
var packageRunners = map[string]bool{
	"npx":  true,
	"bunx": true,
	"pnpx": true,
	"uvx":  true,
	"pipx": true,
}

// packageSubcommands are runner invocations spelled as command + subcommand.
var packageSubcommands = map[string][]string{
	"npm":  {"exec"},
	"pnpm": {"dlx"},
	"yarn": {"dlx"},
	"bun":  {"x"},
	"uv":   {"tool", "run"},
}

// TimeoutPolicy selects the connection timeout for a server by transport and,
// for stdio servers, by the shape of the command.
type TimeoutPolicy struct {
	Remote       time.Duration
	Local        time.Duration
	PackageFetch time.Duration
}

// DefaultTimeoutPolicy returns the built-in connection timeouts.
func DefaultTimeoutPolicy() TimeoutPolicy {
	return TimeoutPolicy{
		Remote:       DefaultRemoteConnectTimeout,
		Local:        DefaultLocalConnectTimeout,
		PackageFetch: DefaultPackageConnectTimeout,
	}
}

// WithDefaults fills zero durations from DefaultTimeoutPolicy.
func (p TimeoutPolicy) WithDefaults() TimeoutPolicy {
	d := DefaultTimeoutPolicy()
	if p.Remote <= 0 {
		p.Remote = d.Remote
	}
	if p.Local <= 0 {
		p.Local = d.Local
	}
	if p.PackageFetch <= 0 {
		p.PackageFetch = d.PackageFetch
	}
	return p
}

// For returns the connect timeout for cfg and, for package-runner commands, a
// hint to include when that timeout expires.
func (p TimeoutPolicy) For(cfg api.ServerConfig) (timeout time.Duration, hint string) {
	p = p.WithDefaults()
	sel := &timeoutSelector{policy: p}
	_ = cfg.Accept(sel)
	return sel.timeout, sel.hint
}

type timeoutSelector struct {
	policy  TimeoutPolicy
	timeout time.Duration
	hint    string
}

func (s *timeoutSelector) VisitStdio(cfg *api.StdioConfig) error {
	if IsPackageFetchCommand(cfg.Command, cfg.Args) {
		s.timeout = s.policy.PackageFetch
		s.hint = PrefetchHint(cfg.Command, cfg.Args)
		return nil
	}
	s.timeout = s.policy.Local
	return nil
}

func (s *timeoutSelector) VisitSSE(*api.SSEConfig) error {
	s.timeout = s.policy.Remote
	return nil
}

func (s *timeoutSelector) VisitStreamable(*api.StreamableConfig) error {
	s.timeout = s.policy.Remote
	return nil
}

// In-process servers never race a timer; the value is only informational.
func (s *timeoutSelector) VisitInProcess(*api.InProcessConfig) error {
	s.timeout = s.policy.Local
	return nil
}

// IsPackageFetchCommand reports whether command and args launch a server
// through a package runner such as npx or uvx.
func IsPackageFetchCommand(command string, args []string) bool {
	base := strings.ToLower(filepath.Base(command))
	for _, ext := range []string{".cmd", ".exe", ".bat"} {
		base = strings.TrimSuffix(base, ext)
	}

	if packageRunners[base] {
		return true
	}

	sub, ok := packageSubcommands[base]
	if !ok || len(args) < len(sub) {
		return false
	}
	for i, word := range sub {
		if args[i] != word {
			return false
		}
	}
	return true
}

// PrefetchHint suggests running a package-runner command by hand once so the
// download happens outside the connect budget.
func PrefetchHint(command string, args []string) string {
	line := strings.TrimSpace(command + " " + strings.Join(args, " "))
	return fmt.Sprintf("The first run may be downloading the package; run `%s` once manually to pre-fetch it, then retry", line)
}
