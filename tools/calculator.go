package tools

import (
	"context"
	"strconv"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/m4xw311/palaver/errors"
)

// Calculator evaluates arithmetic expressions with a small recursive-descent
// parser. There is no dynamic evaluation: anything outside numbers, the four
// basic operators and parentheses is rejected during tokenization.
type Calculator struct{}

func NewCalculator() *Calculator { return &Calculator{} }

func (c *Calculator) Name() string { return "calculator" }
func (c *Calculator) Description() string {
	return "Performs mathematical calculations. Supports basic arithmetic operations."
}

type calculatorParams struct {
	Expression string `json:"expression" jsonschema_description:"Mathematical expression to evaluate (e.g. '2 + 2', '45 * 67 + 123')."`
}

func (c *Calculator) Parameters() *jsonschema.Schema {
	return GenerateSchema[calculatorParams]()
}

// Execute evaluates the 'expression' parameter. Evaluation failures (bad
// syntax, disallowed characters, division by zero) come back as a structured
// failure result rather than an execution error, so the model sees what went
// wrong.
func (c *Calculator) Execute(ctx context.Context, params map[string]string) (map[string]any, error) {
	expression, ok := params["expression"]
	if !ok || strings.TrimSpace(expression) == "" {
		return nil, errors.New("missing 'expression' parameter")
	}
	result, err := evaluate(expression)
	if err != nil {
		return map[string]any{
			"success": false,
			"error":   err.Error(),
		}, nil
	}
	return map[string]any{
		"success":    true,
		"expression": expression,
		"result":     result,
	}, nil
}

// evaluate parses and computes an arithmetic expression.
//
// Grammar:
//
//	expr   = term { ("+" | "-") term }
//	term   = factor { ("*" | "/") factor }
//	factor = number | "-" factor | "(" expr ")"
func evaluate(expression string) (float64, error) {
	p := &exprParser{input: expression}
	v, err := p.expr()
	if err != nil {
		return 0, err
	}
	p.skipSpaces()
	if p.pos < len(p.input) {
		return 0, errors.New("unexpected character %q at position %d", p.input[p.pos], p.pos)
	}
	return v, nil
}

type exprParser struct {
	input string
	pos   int
}

func (p *exprParser) skipSpaces() {
	for p.pos < len(p.input) && (p.input[p.pos] == ' ' || p.input[p.pos] == '\t') {
		p.pos++
	}
}

func (p *exprParser) peek() (byte, bool) {
	p.skipSpaces()
	if p.pos >= len(p.input) {
		return 0, false
	}
	return p.input[p.pos], true
}

func (p *exprParser) expr() (float64, error) {
	v, err := p.term()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '+' && op != '-') {
			return v, nil
		}
		p.pos++
		rhs, err := p.term()
		if err != nil {
			return 0, err
		}
		if op == '+' {
			v += rhs
		} else {
			v -= rhs
		}
	}
}

func (p *exprParser) term() (float64, error) {
	v, err := p.factor()
	if err != nil {
		return 0, err
	}
	for {
		op, ok := p.peek()
		if !ok || (op != '*' && op != '/') {
			return v, nil
		}
		p.pos++
		rhs, err := p.factor()
		if err != nil {
			return 0, err
		}
		if op == '*' {
			v *= rhs
		} else {
			if rhs == 0 {
				return 0, errors.New("division by zero")
			}
			v /= rhs
		}
	}
}

func (p *exprParser) factor() (float64, error) {
	ch, ok := p.peek()
	if !ok {
		return 0, errors.New("unexpected end of expression")
	}
	switch {
	case ch == '(':
		p.pos++
		v, err := p.expr()
		if err != nil {
			return 0, err
		}
		closing, ok := p.peek()
		if !ok || closing != ')' {
			return 0, errors.New("missing closing parenthesis")
		}
		p.pos++
		return v, nil
	case ch == '-':
		p.pos++
		v, err := p.factor()
		if err != nil {
			return 0, err
		}
		return -v, nil
	case ch >= '0' && ch <= '9' || ch == '.':
		return p.number()
	default:
		return 0, errors.New("unexpected character %q at position %d", ch, p.pos)
	}
}

func (p *exprParser) number() (float64, error) {
	start := p.pos
	for p.pos < len(p.input) {
		ch := p.input[p.pos]
		if (ch < '0' || ch > '9') && ch != '.' {
			break
		}
		p.pos++
	}
	v, err := strconv.ParseFloat(p.input[start:p.pos], 64)
	if err != nil {
		return 0, errors.New("invalid number %q", p.input[start:p.pos])
	}
	return v, nil
}
