package filter

// Operator names a comparison between a record value and an upstream value.
type Operator string

// Supported operators.
const (
	OpEqual          Operator = "eq"
	OpGreater        Operator = "gt"
	OpGreaterOrEqual Operator = "gte"
	OpLess           Operator = "lt"
	OpLessOrEqual    Operator = "lte"
	OpContains       Operator = "contains"
	OpStartsWith     Operator = "starts"
	OpEndsWith       Operator = "ends"
	OpContainsCS     Operator = "containsCS"
	OpStartsWithCS   Operator = "startsCS"
	OpEndsWithCS     Operator = "endsCS"
)

// OperatorInfo pairs an operator with the label editors show for it.
type OperatorInfo struct {
	Op    Operator
	Label string
}

var operators = []OperatorInfo{
	{OpEqual, "="},
	{OpGreater, ">"},
	{OpGreaterOrEqual, ">="},
	{OpLess, "<"},
	{OpLessOrEqual, "<="},
	{OpContains, "contains"},
	{OpStartsWith, "starts with"},
	{OpEndsWith, "ends with"},
	{OpContainsCS, "contains (case sensitive)"},
	{OpStartsWithCS, "starts with (case sensitive)"},
	{OpEndsWithCS, "ends with (case sensitive)"},
}

// Operators returns the supported operators in editor order.
func Operators() []OperatorInfo {
	out := make([]OperatorInfo, len(operators))
	copy(out, operators)
	return out
}

// Known reports whether op is one of the supported operators.
func (op Operator) Known() bool {
	for _, info := range operators {
		if info.Op == op {
			return true
		}
	}
	return false
}
