package filter

import "strings"

// Evaluate compares a record value against an upstream value.
//
// Two absent values are equal under OpEqual. A single absent operand never
// matches. String operators stringify both sides first, and the
// case-insensitive ones lower-case both. An unknown operator keeps the record.
func Evaluate(result any, op Operator, compareValue any) bool {
	if result == nil && compareValue == nil && op == OpEqual {
		return true
	}
	if result == nil || compareValue == nil {
		return false
	}

	switch op {
	case OpEqual:
		return LooseEqual(result, compareValue)
	case OpGreater:
		c, ok := compare(result, compareValue)
		return ok && c > 0
	case OpGreaterOrEqual:
		c, ok := compare(result, compareValue)
		return ok && c >= 0
	case OpLess:
		c, ok := compare(result, compareValue)
		return ok && c < 0
	case OpLessOrEqual:
		c, ok := compare(result, compareValue)
		return ok && c <= 0
	case OpContains:
		return strings.Contains(lower(result), lower(compareValue))
	case OpStartsWith:
		return strings.HasPrefix(lower(result), lower(compareValue))
	case OpEndsWith:
		return strings.HasSuffix(lower(result), lower(compareValue))
	case OpContainsCS:
		return strings.Contains(String(result), String(compareValue))
	case OpStartsWithCS:
		return strings.HasPrefix(String(result), String(compareValue))
	case OpEndsWithCS:
		return strings.HasSuffix(String(result), String(compareValue))
	default:
		return true
	}
}

func lower(value any) string {
	return strings.ToLower(String(value))
}
