package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/m4xw311/palaver/errors"
)

// Weather returns canned weather data for a handful of cities. It stands in
// for a real weather API and keeps the tool roster deterministic.
type Weather struct{}

func NewWeather() *Weather { return &Weather{} }

func (w *Weather) Name() string { return "weather" }
func (w *Weather) Description() string {
	return "Gets current weather information for a location."
}

type weatherParams struct {
	Location string `json:"location" jsonschema_description:"City name or location to get weather for."`
}

func (w *Weather) Parameters() *jsonschema.Schema {
	return GenerateSchema[weatherParams]()
}

type weatherEntry struct {
	temp      int
	condition string
	humidity  int
}

var mockWeather = map[string]weatherEntry{
	"new york": {72, "Sunny", 45},
	"london":   {62, "Cloudy", 70},
	"tokyo":    {78, "Clear", 55},
	"paris":    {68, "Partly Cloudy", 60},
	"sydney":   {75, "Sunny", 50},
}

const mockDataNote = "This is mock data. Integrate a real weather API for production use."

func (w *Weather) Execute(ctx context.Context, params map[string]string) (map[string]any, error) {
	location, ok := params["location"]
	if !ok || strings.TrimSpace(location) == "" {
		return nil, errors.New("missing 'location' parameter")
	}
	entry, ok := mockWeather[strings.ToLower(location)]
	if !ok {
		return map[string]any{
			"success": false,
			"error":   fmt.Sprintf("Weather data not available for %s", location),
			"note":    mockDataNote,
		}, nil
	}
	return map[string]any{
		"success":     true,
		"location":    location,
		"temperature": entry.temp,
		"condition":   entry.condition,
		"humidity":    entry.humidity,
		"note":        mockDataNote,
	}, nil
}
