package tools

import (
	"context"
	"testing"
)

func TestRegistryRegisterAndGet(t *testing.T) {
	r := NewRegistry()
	for _, tool := range Defaults() {
		if err := r.Register(tool); err != nil {
			t.Fatalf("Register(%s): %v", tool.Name(), err)
		}
	}

	if _, ok := r.Get("calculator"); !ok {
		t.Error("calculator not found after registration")
	}
	if _, ok := r.Get("missing"); ok {
		t.Error("Get returned a tool for an unregistered name")
	}
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(NewCalculator()); err != nil {
		t.Fatal(err)
	}
	if err := r.Register(NewCalculator()); err == nil {
		t.Error("expected error registering a duplicate name")
	}
}

func TestRegistryRejectsNil(t *testing.T) {
	r := NewRegistry()
	if err := r.Register(nil); err == nil {
		t.Error("expected error registering nil tool")
	}
}

func TestRegistryListSorted(t *testing.T) {
	r := NewRegistry()
	for _, tool := range Defaults() {
		if err := r.Register(tool); err != nil {
			t.Fatal(err)
		}
	}
	list := r.List()
	if len(list) != 3 {
		t.Fatalf("List returned %d tools, want 3", len(list))
	}
	for i := 1; i < len(list); i++ {
		if list[i-1].Name() >= list[i].Name() {
			t.Errorf("List not sorted: %s before %s", list[i-1].Name(), list[i].Name())
		}
	}
}

func TestDefaultsHaveSchemas(t *testing.T) {
	for _, tool := range Defaults() {
		if tool.Parameters() == nil {
			t.Errorf("tool %s has no parameter schema", tool.Name())
		}
		if tool.Name() == "" || tool.Description() == "" {
			t.Errorf("tool %q is missing a name or description", tool.Name())
		}
	}
}

func TestWeatherExecute(t *testing.T) {
	w := NewWeather()

	result, err := w.Execute(context.Background(), map[string]string{"location": "London"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["success"] != true || result["condition"] != "Cloudy" {
		t.Errorf("unexpected London weather: %v", result)
	}

	result, err = w.Execute(context.Background(), map[string]string{"location": "Atlantis"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["success"] != false {
		t.Errorf("expected failure result for unknown location, got %v", result)
	}
}

func TestWebSearchExecute(t *testing.T) {
	s := NewWebSearch()

	result, err := s.Execute(context.Background(), map[string]string{"query": "golang"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["num_results"] != defaultNumResults {
		t.Errorf("num_results = %v, want %d", result["num_results"], defaultNumResults)
	}
	results, ok := result["results"].([]map[string]any)
	if !ok || len(results) != defaultNumResults {
		t.Fatalf("unexpected results shape: %v", result["results"])
	}

	result, err = s.Execute(context.Background(), map[string]string{"query": "golang", "num_results": "2"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["num_results"] != 2 {
		t.Errorf("num_results = %v, want 2", result["num_results"])
	}

	if _, err := s.Execute(context.Background(), map[string]string{}); err == nil {
		t.Error("expected error for missing query parameter")
	}
}
