// Package agent provides the core conversational agent for Palaver.
//
// This package contains the shared orchestration logic used by both the
// terminal CLI and the HTTP server. It defines the Agent type, which binds a
// completion provider, a bounded conversation transcript, and a fixed tool
// roster into a single converse operation.
//
// # Core Functionality
//
// The Agent type provides:
//
//   - Provider resolution by name through the provider factory
//   - Bounded conversation history with save/load persistence
//   - Detection and execution of tool calls embedded in responses
//   - Blocking (Chat) and incremental (StreamChat) response delivery
//
// # Usage
//
// To create and converse with an agent:
//
//	a, err := agent.New(ctx, agent.Options{
//	    Provider: "ollama",
//	    Model:    "llama3",
//	    Tools:    tools.Defaults(),
//	    Settings: cfg.ProviderSettings(),
//	})
//	if err != nil {
//	    // handle error
//	}
//
//	reply, err := a.Chat(ctx, "What is 2 + 2?")
//
// For incremental delivery, StreamChat returns a finite channel of
// fragments; tool results arrive as one trailing fragment after the
// provider's own output is exhausted.
//
// # Tool Calls
//
// Tool use follows a text convention rather than a structured API: the
// system prompt instructs the model to emit lines of the form
//
//	TOOL_CALL: tool_name(param=value, other=value)
//
// and the agent scans each complete response for that marker, executes the
// named tools, and appends their results to the response before committing
// it to the transcript. The original tool-call text is left in place.
//
// # Subpackages
//
// agent/terminal: Provides the interactive command-line interface, including
// slash commands for clearing, saving, loading and listing conversations.
package agent
