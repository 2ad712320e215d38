package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/mark3labs/mcp-go/mcp"

	"mcphub/internal/api"
	"mcphub/internal/catalog"
	"mcphub/internal/events"
	"mcphub/internal/formatting"
)

// commandTimeout bounds one REPL command.
const commandTimeout = 5 * time.Minute

// errExit ends the session.
var errExit = errors.New("exit")

// Hub is what the REPL drives. *hub.Hub satisfies it.
type Hub interface {
	GetServerStates() []api.ServerState
	AgentTools() []catalog.AgentTool
	GetResources() []catalog.Resource
	GetPrompts() []catalog.Prompt
	CallAgentTool(ctx context.Context, callID, qualifiedName string, args map[string]any, timeout time.Duration) api.ToolResult
	ReadResource(ctx context.Context, server, uri string) (*mcp.ReadResourceResult, error)
	GetPrompt(ctx context.Context, server, name string, args map[string]any) (*mcp.GetPromptResult, error)
	Connect(ctx context.Context, name string) error
	Reconnect(ctx context.Context, name string) api.ReconnectResult
	SetServerEnabled(ctx context.Context, name string, enabled bool) error
	Subscribe(handler events.Handler) (unsubscribe func())
}

// REPL is an interactive shell over a hub.
type REPL struct {
	hub       Hub
	formatter formatting.Formatter
	registry  *registry

	mu  sync.Mutex
	out io.Writer

	showEvents atomic.Bool
}

// New creates a REPL writing to out. Hub events are printed as they happen
// until turned off with "events off".
func New(h Hub, formatter formatting.Formatter, out io.Writer) *REPL {
	r := &REPL{
		hub:       h,
		formatter: formatter,
		registry:  newRegistry(),
		out:       out,
	}
	r.showEvents.Store(true)
	r.registerCommands()
	return r
}

// Run reads commands until exit, Ctrl+D or ctx is cancelled.
func (r *REPL) Run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          color.New(color.FgCyan).Sprint("mcphub") + " » ",
		HistoryFile:     filepath.Join(os.TempDir(), ".mcphub_history"),
		AutoComplete:    r.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		return fmt.Errorf("failed to create readline instance: %w", err)
	}
	defer rl.Close()

	r.setOutput(rl.Stdout())
	unsubscribe := r.hub.Subscribe(r.printEvent)
	defer unsubscribe()

	go func() {
		<-ctx.Done()
		_ = rl.Close()
	}()

	r.printf("Type 'help' for available commands. Use TAB for completion.\n")

	for {
		line, err := rl.Readline()
		switch {
		case errors.Is(err, readline.ErrInterrupt):
			continue
		case errors.Is(err, io.EOF):
			return nil
		case err != nil:
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("readline error: %w", err)
		}

		if err := r.executeCommand(ctx, line); err != nil {
			if errors.Is(err, errExit) {
				return nil
			}
			r.printf("%s\n", color.RedString("Error: %v", err))
		}
	}
}

// executeCommand parses one input line and runs the command it names.
func (r *REPL) executeCommand(ctx context.Context, input string) error {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return nil
	}

	name := strings.ToLower(parts[0])
	cmd, ok := r.registry.get(name)
	if !ok {
		return fmt.Errorf("unknown command: %s. Type 'help' for available commands", parts[0])
	}

	cmdCtx, cancel := context.WithTimeout(ctx, commandTimeout)
	defer cancel()
	return cmd.run(cmdCtx, parts[1:])
}

func (r *REPL) setOutput(w io.Writer) {
	r.mu.Lock()
	r.out = w
	r.mu.Unlock()
}

func (r *REPL) printf(format string, args ...interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *REPL) print(s string) {
	r.printf("%s", s)
}

func (r *REPL) printEvent(ev events.Event) {
	if !r.showEvents.Load() {
		return
	}
	msg := ev.Message()
	if ev.Type() == events.EventTypeWarning {
		msg = color.YellowString("%s", msg)
	} else {
		msg = color.HiBlackString("%s", msg)
	}
	r.printf("%s\n", msg)
}

func filterInput(r rune) (rune, bool) {
	// block CtrlZ feature
	if r == readline.CharCtrlZ {
		return r, false
	}
	return r, true
}
