package main

import (
	"testing"

	"github.com/m4xw311/palaver/provider"
)

func TestDefaultModel(t *testing.T) {
	tests := []struct {
		provider string
		want     string
	}{
		{provider.NameOllama, "llama3"},
		{provider.NameHuggingFace, "mistralai/Mistral-7B-Instruct-v0.2"},
		{provider.NameAnthropic, "claude-3-5-sonnet-latest"},
		{provider.NameGemini, "gemini-1.5-flash"},
		{provider.NameBedrock, "anthropic.claude-3-5-sonnet-20240620-v1:0"},
		{provider.NameOpenAI, "gpt-3.5-turbo"},
		{"unknown", "gpt-3.5-turbo"},
	}

	for _, tt := range tests {
		if got := defaultModel(tt.provider); got != tt.want {
			t.Errorf("defaultModel(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}
