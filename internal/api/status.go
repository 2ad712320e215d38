package api

import (
	"encoding/json"
	"time"
)

// Status is the connection state of a registered server.
type Status string

const (
	// StatusLazy marks a local server that connects on first use.
	StatusLazy         Status = "lazy"
	StatusDisconnected Status = "disconnected"
	StatusConnecting   Status = "connecting"
	StatusConnected    Status = "connected"
	StatusError        Status = "error"
)

// ServerState is a read-only snapshot of one registered server.
type ServerState struct {
	Config        ServerConfig  `json:"-"`
	Name          string        `json:"name"`
	Kind          TransportKind `json:"type"`
	Enabled       bool          `json:"enabled"`
	Status        Status        `json:"status"`
	LastError     string        `json:"lastError,omitempty"`
	ToolCount     int           `json:"toolCount"`
	ResourceCount int           `json:"resourceCount"`
	PromptCount   int           `json:"promptCount"`
	LastConnected time.Time     `json:"lastConnected,omitempty"`
}

// HubStatus is the aggregate view used by health panels.
type HubStatus struct {
	ConnectedServers []string `json:"connectedServers"`
	InProcessServers []string `json:"inProcessServers"`
	ToolCount        int      `json:"toolCount"`
	ResourceCount    int      `json:"resourceCount"`
	PromptCount      int      `json:"promptCount"`
}

// ToolCall is a single tool invocation request.
type ToolCall struct {
	// CallID correlates the result with the request. Generated when empty.
	CallID    string
	Server    string
	Tool      string
	Arguments map[string]any
	// Timeout bounds the primary attempt. Zero selects the hub default.
	Timeout time.Duration
}

// ToolResult is the outcome of a tool call. Failures are reported here rather
// than as Go errors.
type ToolResult struct {
	CallID   string        `json:"callId"`
	Success  bool          `json:"success"`
	Output   string        `json:"output,omitempty"`
	Error    string        `json:"error,omitempty"`
	Duration time.Duration `json:"-"`
}

// MarshalJSON reports Duration as integer milliseconds in "durationMs".
func (r ToolResult) MarshalJSON() ([]byte, error) {
	type plain ToolResult
	return json.Marshal(struct {
		plain
		DurationMs int64 `json:"durationMs"`
	}{plain: plain(r), DurationMs: r.Duration.Milliseconds()})
}

// ReconnectResult reports the outcome of a reconnect.
type ReconnectResult struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}
