package repl

import (
	"github.com/chzyer/readline"
)

// completer builds tab completion. Tool, server and resource names are
// looked up on every TAB so they follow the hub's current state.
func (r *REPL) completer() *readline.PrefixCompleter {
	commandNames := r.registry.names()
	commandItems := make([]readline.PrefixCompleterInterface, len(commandNames))
	for i, name := range commandNames {
		commandItems[i] = readline.PcItem(name)
	}

	servers := func() readline.PrefixCompleterInterface {
		return readline.PcItemDynamic(r.serverNames)
	}

	return readline.NewPrefixCompleter(
		readline.PcItem("help", commandItems...),
		readline.PcItem("?"),
		readline.PcItem("servers"),
		readline.PcItem("status"),
		readline.PcItem("tools"),
		readline.PcItem("resources"),
		readline.PcItem("prompts"),
		readline.PcItem("describe", readline.PcItemDynamic(r.toolNames)),
		readline.PcItem("call", readline.PcItemDynamic(r.toolNames)),
		readline.PcItem("read", readline.PcItemDynamic(r.serverNames, readline.PcItemDynamic(r.resourceURIs))),
		readline.PcItem("prompt", servers()),
		readline.PcItem("connect", servers()),
		readline.PcItem("reconnect", servers()),
		readline.PcItem("enable", servers()),
		readline.PcItem("disable", servers()),
		readline.PcItem("events",
			readline.PcItem("on"),
			readline.PcItem("off"),
		),
		readline.PcItem("exit"),
		readline.PcItem("quit"),
	)
}
