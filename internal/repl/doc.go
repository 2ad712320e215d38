// Package repl provides an interactive shell over a running hub.
//
// The shell lists servers and their capabilities, calls tools by their
// mcp__<server>__<tool> names, reads resources, renders prompts and toggles
// servers. Hub events are printed above the prompt as they happen. Input
// editing, history and tab completion come from chzyer/readline.
package repl
