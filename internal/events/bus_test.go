package events

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mcphub/internal/api"
)

func TestBus_SubscribeAndUnsubscribe(t *testing.T) {
	bus := NewBus()

	var got []Event
	unsubscribe := bus.Subscribe(func(e Event) { got = append(got, e) })

	bus.Publish(Event{Reason: ReasonServerAdded, Server: "fs"})
	unsubscribe()
	unsubscribe()
	bus.Publish(Event{Reason: ReasonServerRemoved, Server: "fs"})

	require.Len(t, got, 1)
	assert.Equal(t, ReasonServerAdded, got[0].Reason)
	assert.False(t, got[0].Time.IsZero(), "publish should stamp the time")
}

func TestBus_PanickingHandlerDoesNotAffectOthers(t *testing.T) {
	bus := NewBus()

	var delivered atomic.Int32
	bus.Subscribe(func(Event) { panic("boom") })
	bus.Subscribe(func(Event) { delivered.Add(1) })

	assert.NotPanics(t, func() {
		bus.Publish(Event{Reason: ReasonStatusChanged, Server: "fs"})
	})
	assert.Equal(t, int32(1), delivered.Load())
}

func TestBus_Channel(t *testing.T) {
	bus := NewBus()
	ch, cancel := bus.Channel(1)

	bus.Publish(Event{Reason: ReasonServerAdded, Server: "a"})
	// Buffer is full, this one is dropped rather than blocking.
	bus.Publish(Event{Reason: ReasonServerAdded, Server: "b"})

	e := <-ch
	assert.Equal(t, "a", e.Server)

	cancel()
	cancel()
	_, open := <-ch
	assert.False(t, open)

	assert.NotPanics(t, func() {
		bus.Publish(Event{Reason: ReasonServerAdded, Server: "c"})
	})
}

func TestEvent_Type(t *testing.T) {
	assert.Equal(t, EventTypeNormal, Event{Reason: ReasonStatusChanged, To: api.StatusConnected}.Type())
	assert.Equal(t, EventTypeWarning, Event{Reason: ReasonStatusChanged, To: api.StatusError, Error: "x"}.Type())
	assert.Equal(t, EventTypeWarning, Event{Reason: ReasonToolCallRetried, Error: "closed"}.Type())
}

func TestMessageTemplateEngine_Render(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{
			name:  "added",
			event: Event{Reason: ReasonServerAdded, Server: "fs"},
			want:  "MCP server fs registered",
		},
		{
			name:  "initial status",
			event: Event{Reason: ReasonStatusChanged, Server: "fs", To: api.StatusLazy},
			want:  "MCP server fs new -> lazy",
		},
		{
			name:  "error status",
			event: Event{Reason: ReasonStatusChanged, Server: "fs", From: api.StatusConnecting, To: api.StatusError, Error: "spawn failed"},
			want:  "MCP server fs connecting -> error: spawn failed",
		},
		{
			name:  "single tool",
			event: Event{Reason: ReasonCapabilitiesChanged, Server: "fs", ToolCount: 1},
			want:  "MCP server fs now provides 1 tool, 0 resources, 0 prompts",
		},
		{
			name:  "unknown reason",
			event: Event{Reason: EventReason("Other"), Server: "fs"},
			want:  "Event: Other for fs",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.Message())
		})
	}
}

func TestMessageTemplateEngine_SetTemplate(t *testing.T) {
	engine := NewMessageTemplateEngine()
	require.NoError(t, engine.SetTemplate(ReasonServerAdded, "{{.Server | upper}} joined"))
	assert.Equal(t, "FS joined", engine.Render(Event{Reason: ReasonServerAdded, Server: "fs"}))

	assert.Error(t, engine.SetTemplate(ReasonServerAdded, "{{.Server"))
}
