package flagdef

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"

	"github.com/diegoholiveira/jsonlogic/v3"

	"github.com/amichne/konditional/internal/evalctx"
)

// ErrEmptyExpression is returned when a JSONLogicPredicate is built from
// an empty or whitespace-only expression.
var ErrEmptyExpression = errors.New("flagdef: jsonlogic expression must not be blank")

// ErrInvalidExpression is returned when an expression is not valid
// JSON Logic.
var ErrInvalidExpression = errors.New("flagdef: jsonlogic expression is invalid")

// JSONLogicPredicate is a CustomPredicate backed by a JSON Logic
// expression (jsonlogic.com), evaluated against a flattened snapshot
// of the context's known projections plus its axis values. It exists
// for hosts that want to express ad hoc targeting conditions as data
// rather than compiling a Go type per rule.
type JSONLogicPredicate struct {
	expression string
	axisKeys   []string
}

// NewJSONLogicPredicate validates expression as JSON Logic against an
// empty document and returns a predicate that evaluates it against a
// context projection at match time. axisKeys lists which axis
// identifiers should be exposed to the expression under "axes.<id>".
func NewJSONLogicPredicate(expression string, axisKeys ...string) (*JSONLogicPredicate, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, ErrEmptyExpression
	}
	var rule any
	if err := json.Unmarshal([]byte(expression), &rule); err != nil {
		return nil, ErrInvalidExpression
	}
	ruleReader := strings.NewReader(expression)
	dataReader := strings.NewReader("{}")
	var buf bytes.Buffer
	if err := jsonlogic.Apply(ruleReader, dataReader, &buf); err != nil {
		return nil, ErrInvalidExpression
	}
	return &JSONLogicPredicate{expression: expression, axisKeys: axisKeys}, nil
}

// Match evaluates the expression against a flattened view of ctx.
func (p *JSONLogicPredicate) Match(ctx evalctx.Context) (bool, error) {
	doc := map[string]any{
		"locale":   ctx.Locale(),
		"platform": ctx.Platform(),
		"version":  ctx.Version().String(),
	}
	if len(p.axisKeys) > 0 {
		axes := make(map[string]any, len(p.axisKeys))
		for _, key := range p.axisKeys {
			if v, ok := ctx.AxisValue(key); ok {
				axes[key] = v
			}
		}
		doc["axes"] = axes
	}

	dataBytes, err := json.Marshal(doc)
	if err != nil {
		return false, err
	}

	ruleReader := strings.NewReader(p.expression)
	dataReader := bytes.NewReader(dataBytes)
	var resultBuf bytes.Buffer
	if err := jsonlogic.Apply(ruleReader, dataReader, &resultBuf); err != nil {
		return false, ErrInvalidExpression
	}

	var result any
	if err := json.Unmarshal(resultBuf.Bytes(), &result); err != nil {
		return false, err
	}
	return isTruthy(result), nil
}

// isTruthy follows JavaScript-like truthiness rules, matching the
// semantics jsonlogic.com itself assumes for its boolean operators.
func isTruthy(v any) bool {
	if v == nil {
		return false
	}
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case string:
		return val != ""
	case []any:
		return len(val) > 0
	case map[string]any:
		return len(val) > 0
	default:
		return true
	}
}
