package sdk

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/hashicorp/go-bexpr"
	"github.com/mitchellh/mapstructure"
)

// Filter is a compiled go-bexpr expression evaluated against entity fields,
// addressed by their wire names, e.g. `role == "doctor" and full_name matches "^A"`.
type Filter struct {
	expr      string
	evaluator *bexpr.Evaluator
}

// ParseFilter compiles expr. An empty expression yields a nil Filter, which
// matches everything.
func ParseFilter(expr string) (*Filter, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}
	evaluator, err := bexpr.CreateEvaluator(expr)
	if err != nil {
		return nil, fmt.Errorf("%w: filter %q: %v", ErrInvalidInput, expr, err)
	}
	return &Filter{expr: expr, evaluator: evaluator}, nil
}

func (f *Filter) String() string {
	if f == nil {
		return ""
	}
	return f.expr
}

// Match reports whether item satisfies the filter. A field the expression
// references but the item lacks is a non-match rather than an error.
func (f *Filter) Match(item any) bool {
	if f == nil {
		return true
	}
	fields, err := Fields(item)
	if err != nil {
		return false
	}
	matched, err := f.evaluator.Evaluate(fields)
	if err != nil {
		return false
	}
	return matched
}

// FilterItems returns the items matching f, preserving order.
func FilterItems[T any](items []T, f *Filter) []T {
	if f == nil {
		return items
	}
	out := make([]T, 0, len(items))
	for _, item := range items {
		if f.Match(item) {
			out = append(out, item)
		}
	}
	return out
}

// Fields flattens an entity into a map keyed by its mapstructure tags.
// Named string and integer types are reduced to their base kinds so
// expressions compare against plain literals.
func Fields(item any) (map[string]any, error) {
	fields := map[string]any{}
	if err := mapstructure.Decode(item, &fields); err != nil {
		return nil, fmt.Errorf("flatten %T: %w", item, err)
	}
	for key, value := range fields {
		fields[key] = baseKind(value)
	}
	return fields, nil
}

func baseKind(value any) any {
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.String:
		return v.String()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return v.Int()
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Bool:
		return v.Bool()
	default:
		return value
	}
}
