package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/m4xw311/palaver/agent"
	"github.com/m4xw311/palaver/agent/terminal"
	"github.com/m4xw311/palaver/config"
	"github.com/m4xw311/palaver/memory"
	"github.com/m4xw311/palaver/provider"
	"github.com/m4xw311/palaver/tools"
)

func main() {
	providerFlag := flag.String("provider", "", "Provider to use: "+strings.Join(provider.Names(), ", "))
	modelFlag := flag.String("model", "", "Model name (defaults to a provider-specific model)")
	noToolsFlag := flag.Bool("no-tools", false, "Disable tool use")
	loadFlag := flag.String("load", "", "Load a saved conversation by name")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %+v\n", err)
		os.Exit(1)
	}

	providerName := *providerFlag
	if providerName == "" {
		providerName = cfg.DefaultProvider
	}
	model := *modelFlag
	if model == "" {
		if cfg.DefaultModel != "" {
			model = cfg.DefaultModel
		} else {
			model = defaultModel(providerName)
		}
	}

	var roster []tools.Tool
	if !*noToolsFlag {
		roster = tools.Defaults()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := agent.New(ctx, agent.Options{
		Provider:   providerName,
		Model:      model,
		Tools:      roster,
		MaxHistory: cfg.MaxHistory,
		Settings:   cfg.ProviderSettings(),
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing agent: %+v\n", err)
		os.Exit(1)
	}

	store := memory.Store{Dir: cfg.ConversationDir}

	if *loadFlag != "" {
		path, err := store.Path(*loadFlag)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading conversation '%s': %+v\n", *loadFlag, err)
			os.Exit(1)
		}
		if err := a.LoadConversation(path); err != nil {
			fmt.Fprintf(os.Stderr, "Error loading conversation '%s': %+v\n", *loadFlag, err)
			os.Exit(1)
		}
		fmt.Printf("Resuming conversation: %s\n", *loadFlag)
	}

	// Remaining arguments form the initial prompt.
	initialPrompt := strings.Join(flag.Args(), " ")

	fmt.Printf("Palaver is ready (%s / %s). Type your prompt, or /help for commands.\n", providerName, model)
	term := terminal.New(a, store, os.Stdin, os.Stdout)
	if err := term.Run(ctx, initialPrompt); err != nil {
		fmt.Fprintf(os.Stderr, "Agent stopped with an error: %+v\n", err)
		os.Exit(1)
	}
}

// defaultModel picks a sensible model for providers that have a well-known
// default.
func defaultModel(providerName string) string {
	switch providerName {
	case provider.NameOllama:
		return "llama3"
	case provider.NameHuggingFace:
		return "mistralai/Mistral-7B-Instruct-v0.2"
	case provider.NameAnthropic:
		return "claude-3-5-sonnet-latest"
	case provider.NameGemini:
		return "gemini-1.5-flash"
	case provider.NameBedrock:
		return "anthropic.claude-3-5-sonnet-20240620-v1:0"
	default:
		return "gpt-3.5-turbo"
	}
}
