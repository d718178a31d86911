package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// CallMarker is the literal textual convention a model uses to request tool
// execution from within generated text.
const CallMarker = "TOOL_CALL:"

// callPattern matches `TOOL_CALL: name(arguments)`. Arguments end at the
// first closing parenthesis; nesting is not part of the convention.
var callPattern = regexp.MustCompile(`TOOL_CALL:\s*(\w+)\(([^)]*)\)`)

// Interpreter scans generated text for embedded tool calls and executes them
// against a fixed roster.
type Interpreter struct {
	roster []Tool
}

func NewInterpreter(roster []Tool) *Interpreter {
	return &Interpreter{roster: roster}
}

// Process executes every tool call in text, in left-to-right order of
// appearance, and returns the original text with a blank line and the
// per-call result lines appended. Text without the call marker is returned
// unchanged, byte for byte. The TOOL_CALL markers themselves are never
// removed from the visible text.
//
// A tool that cannot be resolved or whose execution fails produces an inline
// error line instead of aborting the remaining calls.
func (in *Interpreter) Process(ctx context.Context, text string) string {
	if !strings.Contains(text, CallMarker) {
		return text
	}
	matches := callPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return text
	}

	results := make([]string, 0, len(matches))
	for _, m := range matches {
		name, rawArgs := m[1], m[2]

		tool := in.lookup(name)
		if tool == nil {
			results = append(results, fmt.Sprintf("Error: Tool '%s' not found", name))
			continue
		}

		result, err := tool.Execute(ctx, ParseParams(rawArgs))
		if err != nil {
			results = append(results, fmt.Sprintf("Error executing %s: %v", name, err))
			continue
		}
		rendered, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			results = append(results, fmt.Sprintf("Error executing %s: %v", name, err))
			continue
		}
		results = append(results, fmt.Sprintf("Tool %s result: %s", name, rendered))
	}

	return text + "\n\n" + strings.Join(results, "\n")
}

func (in *Interpreter) lookup(name string) Tool {
	for _, t := range in.roster {
		if t.Name() == name {
			return t
		}
	}
	return nil
}

// ParseParams splits the raw argument text on commas and each segment on the
// first '='. Keys and values are trimmed of whitespace and a single layer of
// surrounding quotes. Segments without '=' are dropped. The convention has no
// escaping, so values cannot contain commas or '='.
func ParseParams(raw string) map[string]string {
	params := make(map[string]string)
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return params
	}
	for _, segment := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(segment, "=")
		if !ok {
			continue
		}
		params[stripQuotes(strings.TrimSpace(key))] = stripQuotes(strings.TrimSpace(value))
	}
	return params
}

// stripQuotes removes one leading and one trailing quote character, if
// present. The pair does not have to match.
func stripQuotes(s string) string {
	if len(s) > 0 && (s[0] == '"' || s[0] == '\'') {
		s = s[1:]
	}
	if len(s) > 0 && (s[len(s)-1] == '"' || s[len(s)-1] == '\'') {
		s = s[:len(s)-1]
	}
	return s
}
