package repl

import (
	"context"
	"sort"
)

// command is one REPL command.
type command struct {
	name        string
	usage       string
	description string
	aliases     []string
	run         func(ctx context.Context, args []string) error
}

// registry maps command names and aliases to commands.
type registry struct {
	commands map[string]*command
	aliases  map[string]string // alias -> primary command name
}

func newRegistry() *registry {
	return &registry{
		commands: make(map[string]*command),
		aliases:  make(map[string]string),
	}
}

func (r *registry) register(cmd *command) {
	r.commands[cmd.name] = cmd
	for _, alias := range cmd.aliases {
		r.aliases[alias] = cmd.name
	}
}

func (r *registry) get(name string) (*command, bool) {
	if cmd, ok := r.commands[name]; ok {
		return cmd, true
	}
	if primary, ok := r.aliases[name]; ok {
		cmd, ok := r.commands[primary]
		return cmd, ok
	}
	return nil, false
}

// sorted returns the commands ordered by name.
func (r *registry) sorted() []*command {
	out := make([]*command, 0, len(r.commands))
	for _, cmd := range r.commands {
		out = append(out, cmd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].name < out[j].name })
	return out
}

// names returns every command name and alias.
func (r *registry) names() []string {
	names := make([]string, 0, len(r.commands)+len(r.aliases))
	for name := range r.commands {
		names = append(names, name)
	}
	for alias := range r.aliases {
		names = append(names, alias)
	}
	sort.Strings(names)
	return names
}
