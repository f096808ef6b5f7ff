package translate

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
)

// rangeBoundKeys maps a comparison operator to the bound it sets. The same
// table drives numeric RangeFilters and datetime DateRangeFilters.
var rangeBoundKeys = map[string]string{
	"<":  "lt",
	">":  "gt",
	"<=": "lte",
	">=": "gte",
}

// CompileCQL2Filter compiles a CQL2-JSON filter tree into a Planet filter
// plus the collection names extracted from equality and membership predicates
// on the reserved "collection" property. Those predicates never become filter
// nodes: Planet scopes searches by item_types, so their values bubble up as a
// secondary result for the caller to merge into the request.
//
// Unrecognized operators are logged and skipped rather than rejected; a
// structurally broken tree (missing op, args of the wrong shape) fails with
// ErrInvalidFilter.
func CompileCQL2Filter(filter map[string]any, logger *slog.Logger) (planet.Filter, []string, error) {
	if filter == nil {
		return nil, nil, nil
	}
	if logger == nil {
		logger = slog.Default()
	}
	return compileNode(filter, logger)
}

func compileNode(node map[string]any, logger *slog.Logger) (planet.Filter, []string, error) {
	op, ok := node["op"].(string)
	if !ok {
		return nil, nil, fmt.Errorf("%w: missing 'op' field", ErrInvalidFilter)
	}

	args, ok := node["args"].([]any)
	if !ok {
		return nil, nil, fmt.Errorf("%w: 'args' must be an array", ErrInvalidFilter)
	}

	switch strings.ToLower(op) {
	case "and", "or":
		return compileLogical(op, args, logger)
	case "<", ">", "<=", ">=":
		f, err := compileComparison(op, args)
		return f, nil, err
	case "between":
		f, err := compileBetween(args)
		return f, nil, err
	case "=", "eq":
		return compileMembership(args, true)
	case "in":
		return compileMembership(args, false)
	case "s_intersects":
		f, err := compileIntersects(args)
		return f, nil, err
	default:
		logger.Warn("skipping unsupported filter operator", slog.String("op", op))
		return nil, nil, nil
	}
}

// compileLogical recurses into and/or arguments. Arguments that compile to
// nothing are dropped; collection names bubble up from any depth.
func compileLogical(op string, args []any, logger *slog.Logger) (planet.Filter, []string, error) {
	var filters []planet.Filter
	var itemTypes []string

	for _, arg := range args {
		child, ok := arg.(map[string]any)
		if !ok {
			return nil, nil, fmt.Errorf("%w: '%s' arguments must be filter objects", ErrInvalidFilter, op)
		}

		f, types, err := compileNode(child, logger)
		if err != nil {
			return nil, nil, err
		}
		if f != nil {
			filters = append(filters, f)
		}
		itemTypes = append(itemTypes, types...)
	}

	if len(filters) == 0 {
		return nil, itemTypes, nil
	}

	if strings.EqualFold(op, "or") {
		return planet.NewOrFilter(filters...), itemTypes, nil
	}
	return planet.NewAndFilter(filters...), itemTypes, nil
}

func compileComparison(op string, args []any) (planet.Filter, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: '%s' requires exactly 2 arguments", ErrInvalidFilter, op)
	}

	field, err := propertyName(args[0])
	if err != nil {
		return nil, err
	}

	if field == "datetime" {
		value, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("%w: datetime comparison requires a string literal", ErrInvalidFilter)
		}
		bounds := &planet.DateRangeBounds{}
		switch rangeBoundKeys[op] {
		case "lt":
			bounds.LT = value
		case "gt":
			bounds.GT = value
		case "lte":
			bounds.LTE = value
		case "gte":
			bounds.GTE = value
		}
		return planet.NewDateRangeFilter("acquired", bounds), nil
	}

	value, ok := toFloat(args[1])
	if !ok {
		return nil, fmt.Errorf("%w: '%s' on %q requires a numeric literal", ErrInvalidFilter, op, field)
	}
	bounds := &planet.RangeBounds{}
	switch rangeBoundKeys[op] {
	case "lt":
		bounds.LT = &value
	case "gt":
		bounds.GT = &value
	case "lte":
		bounds.LTE = &value
	case "gte":
		bounds.GTE = &value
	}
	return planet.NewRangeFilter(field, bounds), nil
}

// compileBetween expands to a gte and lte bound from the two literal
// arguments.
func compileBetween(args []any) (planet.Filter, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("%w: 'between' requires exactly 3 arguments", ErrInvalidFilter)
	}

	field, err := propertyName(args[0])
	if err != nil {
		return nil, err
	}

	if field == "datetime" {
		low, lowOK := args[1].(string)
		high, highOK := args[2].(string)
		if !lowOK || !highOK {
			return nil, fmt.Errorf("%w: 'between' on datetime requires string literals", ErrInvalidFilter)
		}
		return planet.NewDateRangeFilter("acquired", &planet.DateRangeBounds{GTE: low, LTE: high}), nil
	}

	low, lowOK := toFloat(args[1])
	high, highOK := toFloat(args[2])
	if !lowOK || !highOK {
		return nil, fmt.Errorf("%w: 'between' on %q requires numeric literals", ErrInvalidFilter, field)
	}
	return planet.NewRangeFilter(field, &planet.RangeBounds{GTE: &low, LTE: &high}), nil
}

// compileMembership handles '=' and 'in'. A single '=' literal is normalized
// to a one-element list before dispatch. Predicates on "collection" return
// their values as item types instead of a filter node.
func compileMembership(args []any, single bool) (planet.Filter, []string, error) {
	if len(args) != 2 {
		return nil, nil, fmt.Errorf("%w: equality requires exactly 2 arguments", ErrInvalidFilter)
	}

	field, err := propertyName(args[0])
	if err != nil {
		return nil, nil, err
	}

	var values []any
	if single {
		values = []any{args[1]}
	} else {
		list, ok := args[1].([]any)
		if !ok {
			return nil, nil, fmt.Errorf("%w: second argument of 'in' must be an array", ErrInvalidFilter)
		}
		values = list
	}
	if len(values) == 0 {
		return nil, nil, fmt.Errorf("%w: empty value list for %q", ErrInvalidFilter, field)
	}

	if field == "collection" {
		itemTypes := make([]string, 0, len(values))
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, nil, fmt.Errorf("%w: collection values must be strings", ErrInvalidFilter)
			}
			itemTypes = append(itemTypes, s)
		}
		return nil, itemTypes, nil
	}

	switch values[0].(type) {
	case string:
		strs := make([]string, 0, len(values))
		for _, v := range values {
			s, ok := v.(string)
			if !ok {
				return nil, nil, fmt.Errorf("%w: mixed value types for %q", ErrInvalidFilter, field)
			}
			strs = append(strs, s)
		}
		return planet.NewStringInFilter(field, strs), nil, nil
	default:
		nums := make([]float64, 0, len(values))
		for _, v := range values {
			n, ok := toFloat(v)
			if !ok {
				return nil, nil, fmt.Errorf("%w: mixed value types for %q", ErrInvalidFilter, field)
			}
			nums = append(nums, n)
		}
		return planet.NewNumberInFilter(field, nums), nil, nil
	}
}

func compileIntersects(args []any) (planet.Filter, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("%w: 's_intersects' requires exactly 2 arguments", ErrInvalidFilter)
	}

	field, err := propertyName(args[0])
	if err != nil {
		return nil, err
	}

	geometry, ok := args[1].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: 's_intersects' requires a GeoJSON geometry literal", ErrInvalidFilter)
	}

	config := map[string]any{
		"type":        geometry["type"],
		"coordinates": geometry["coordinates"],
	}
	return planet.NewGeometryFilter(field, config), nil
}

// propertyName extracts the field name from a CQL2 property reference,
// stripping the "properties." prefix.
func propertyName(arg any) (string, error) {
	ref, ok := arg.(map[string]any)
	if !ok {
		return "", fmt.Errorf("%w: first argument must be a property reference", ErrInvalidFilter)
	}
	name, ok := ref["property"].(string)
	if !ok || name == "" {
		return "", fmt.Errorf("%w: property reference has no name", ErrInvalidFilter)
	}
	return strings.TrimPrefix(name, "properties."), nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	default:
		return 0, false
	}
}
