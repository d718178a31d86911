package tools

import (
	"context"
	"testing"
)

func TestEvaluate(t *testing.T) {
	tests := []struct {
		expr string
		want float64
	}{
		{"2+2", 4},
		{"2 + 2", 4},
		{"45 * 67", 3015},
		{"45 * 67 + 123", 3138},
		{"2 + 3 * 4", 14},
		{"(2 + 3) * 4", 20},
		{"10 / 4", 2.5},
		{"-5 + 3", -2},
		{"-(2 + 3)", -5},
		{"--4", 4},
		{"3.5 * 2", 7},
		{"((1))", 1},
		{"100 - 20 - 5", 75},
		{"100 / 10 / 2", 5},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := evaluate(tt.expr)
			if err != nil {
				t.Fatalf("evaluate(%q): %v", tt.expr, err)
			}
			if got != tt.want {
				t.Errorf("evaluate(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestEvaluateErrors(t *testing.T) {
	exprs := []string{
		"",
		"2 +",
		"2 + abc",
		"import os",
		"1; 2",
		"(1 + 2",
		"4 / 0",
		"2..5 + 1",
		"2 ** 3",
	}
	for _, expr := range exprs {
		t.Run(expr, func(t *testing.T) {
			if _, err := evaluate(expr); err == nil {
				t.Errorf("evaluate(%q) succeeded, want error", expr)
			}
		})
	}
}

func TestCalculatorExecute(t *testing.T) {
	calc := NewCalculator()

	result, err := calc.Execute(context.Background(), map[string]string{"expression": "6 * 7"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["success"] != true {
		t.Fatalf("success = %v, want true: %v", result["success"], result)
	}
	if result["result"] != float64(42) {
		t.Errorf("result = %v, want 42", result["result"])
	}
	if result["expression"] != "6 * 7" {
		t.Errorf("expression = %v, want original text", result["expression"])
	}
}

func TestCalculatorRejectsDisallowedCharacters(t *testing.T) {
	calc := NewCalculator()
	result, err := calc.Execute(context.Background(), map[string]string{"expression": "os.system('rm')"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["success"] != false {
		t.Errorf("expected a failure result for disallowed input, got %v", result)
	}
}

func TestCalculatorMissingExpression(t *testing.T) {
	calc := NewCalculator()
	if _, err := calc.Execute(context.Background(), map[string]string{}); err == nil {
		t.Error("expected error for missing expression parameter")
	}
}

func TestCalculatorDivisionByZero(t *testing.T) {
	calc := NewCalculator()
	result, err := calc.Execute(context.Background(), map[string]string{"expression": "1/0"})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result["success"] != false {
		t.Errorf("expected failure result for division by zero, got %v", result)
	}
}
