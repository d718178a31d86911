package tools

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/m4xw311/palaver/errors"
)

// WebSearch returns canned search results. It stands in for a real search
// API and keeps the tool roster deterministic.
type WebSearch struct{}

func NewWebSearch() *WebSearch { return &WebSearch{} }

func (s *WebSearch) Name() string { return "web_search" }
func (s *WebSearch) Description() string {
	return "Searches the web for information on a given query."
}

type webSearchParams struct {
	Query      string `json:"query" jsonschema_description:"Search query."`
	NumResults int    `json:"num_results,omitempty" jsonschema_description:"Number of search results to return (default: 3)."`
}

func (s *WebSearch) Parameters() *jsonschema.Schema {
	return GenerateSchema[webSearchParams]()
}

const defaultNumResults = 3
const maxNumResults = 5

func (s *WebSearch) Execute(ctx context.Context, params map[string]string) (map[string]any, error) {
	query, ok := params["query"]
	if !ok || strings.TrimSpace(query) == "" {
		return nil, errors.New("missing 'query' parameter")
	}

	numResults := defaultNumResults
	if raw, ok := params["num_results"]; ok {
		if n, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil && n > 0 {
			numResults = n
		}
	}
	if numResults > maxNumResults {
		numResults = maxNumResults
	}

	results := make([]map[string]any, 0, numResults)
	for i := 1; i <= numResults; i++ {
		results = append(results, map[string]any{
			"title":   fmt.Sprintf("Result %d for '%s'", i, query),
			"url":     fmt.Sprintf("https://example.com/result%d", i),
			"snippet": "This is a mock search result. Integrate a real search API for production use.",
		})
	}
	return map[string]any{
		"success":     true,
		"query":       query,
		"num_results": numResults,
		"results":     results,
	}, nil
}
