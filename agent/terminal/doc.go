// Package terminal implements the command-line interface (CLI) mode for the Palaver agent.
//
// This package provides an interactive terminal-based user interface where
// users converse with the agent through text prompts. Responses stream to
// the terminal fragment by fragment, with tool results arriving at the end
// of the turn.
//
// # Usage
//
// To use the terminal interface, create an agent instance and pass it to the terminal:
//
//	a, err := agent.New(ctx, opts)
//	if err != nil {
//	    // handle error
//	}
//
//	term := terminal.New(a, memory.Store{Dir: cfg.ConversationDir}, os.Stdin, os.Stdout)
//	err = term.Run(ctx, initialPrompt)
//
// # Commands
//
// Input beginning with a slash is a command rather than a message:
//
//   - /help: show available commands
//   - /clear: reset the conversation history
//   - /save [name]: persist the conversation under the store directory
//   - /load <name>: replace the conversation from a saved file
//   - /sessions: list saved conversations
//   - /info: show provider, model, tools and message count
//   - /quit, /exit: end the session
package terminal
