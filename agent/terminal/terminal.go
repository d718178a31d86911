package terminal

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/m4xw311/palaver/agent"
	"github.com/m4xw311/palaver/memory"
)

// Terminal handles the terminal/CLI interaction mode for the agent
type Terminal struct {
	agent *agent.Agent
	store memory.Store
	in    io.Reader
	out   io.Writer
}

// New creates a new Terminal instance. Saved conversations live under
// store.Dir and are addressed by name through the slash commands.
func New(a *agent.Agent, store memory.Store, in io.Reader, out io.Writer) *Terminal {
	return &Terminal{
		agent: a,
		store: store,
		in:    in,
		out:   out,
	}
}

// Run starts the interactive terminal session
func (t *Terminal) Run(ctx context.Context, initialPrompt string) error {
	// If there's an initial prompt from the command line, use it first
	if initialPrompt != "" {
		if err := t.processTurn(ctx, initialPrompt); err != nil {
			return err
		}
	}

	scanner := bufio.NewScanner(t.in)
	for {
		fmt.Fprint(t.out, "You: ")
		if !scanner.Scan() {
			// EOF or read error ends the session
			break
		}

		userInput := strings.TrimSpace(scanner.Text())
		if userInput == "" {
			continue
		}

		if strings.HasPrefix(userInput, "/") {
			done, err := t.runCommand(ctx, userInput)
			if err != nil {
				fmt.Fprintf(t.out, "Error: %v\n", err)
			}
			if done {
				break
			}
			continue
		}

		if err := t.processTurn(ctx, userInput); err != nil {
			fmt.Fprintf(t.out, "Error: %v\n", err)
		}
	}

	if err := scanner.Err(); err != nil {
		return err
	}

	return nil
}

// runCommand dispatches a slash command. It returns true when the session
// should end.
func (t *Terminal) runCommand(ctx context.Context, input string) (bool, error) {
	cmd, arg, _ := strings.Cut(input, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return true, nil

	case "/help":
		t.printHelp()

	case "/clear":
		t.agent.ClearHistory()
		fmt.Fprintln(t.out, "Conversation cleared.")

	case "/save":
		name := arg
		if name == "" {
			name = "conversation"
		}
		path, err := t.store.Path(name)
		if err != nil {
			return false, err
		}
		if err := t.agent.SaveConversation(path); err != nil {
			return false, err
		}
		fmt.Fprintf(t.out, "Conversation saved to %s\n", path)

	case "/load":
		if arg == "" {
			return false, fmt.Errorf("usage: /load <name>")
		}
		path, err := t.store.Path(arg)
		if err != nil {
			return false, err
		}
		if err := t.agent.LoadConversation(path); err != nil {
			return false, err
		}
		fmt.Fprintf(t.out, "Conversation loaded from %s\n", path)

	case "/sessions":
		names, err := t.store.List("")
		if err != nil {
			return false, err
		}
		if len(names) == 0 {
			fmt.Fprintln(t.out, "No saved conversations.")
			break
		}
		fmt.Fprintln(t.out, "Saved conversations:")
		for _, name := range names {
			fmt.Fprintf(t.out, "  %s\n", strings.TrimSuffix(name, ".json"))
		}

	case "/info":
		info := t.agent.Info()
		fmt.Fprintf(t.out, "Provider: %v\n", info["provider"])
		fmt.Fprintf(t.out, "Model: %v\n", info["model"])
		fmt.Fprintf(t.out, "Tools: %v\n", info["tools"])
		fmt.Fprintf(t.out, "Messages: %v\n", info["conversation_length"])

	default:
		fmt.Fprintf(t.out, "Unknown command %s. Type /help for a list.\n", cmd)
	}

	return false, nil
}

func (t *Terminal) printHelp() {
	fmt.Fprint(t.out, `Commands:
  /help            Show this help
  /clear           Clear the conversation history
  /save [name]     Save the conversation (default name: conversation)
  /load <name>     Load a saved conversation
  /sessions        List saved conversations
  /info            Show agent details
  /quit            Exit
`)
}

// processTurn handles a single user input turn, printing response fragments
// as they arrive.
func (t *Terminal) processTurn(ctx context.Context, userInput string) error {
	fragments, err := t.agent.StreamChat(ctx, userInput)
	if err != nil {
		return err
	}

	fmt.Fprint(t.out, "Palaver: ")
	for ev := range fragments {
		if ev.Err != nil {
			fmt.Fprintln(t.out)
			return ev.Err
		}
		fmt.Fprint(t.out, ev.Text)
	}
	fmt.Fprintln(t.out)
	return nil
}
