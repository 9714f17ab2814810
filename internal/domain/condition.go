package domain

import "fmt"

// ConditionOp names the comparison a Conditional transform performs.
type ConditionOp string

const (
	ConditionEquals    ConditionOp = "eq"
	ConditionNotEquals ConditionOp = "neq"
	ConditionIsNull    ConditionOp = "null"
	ConditionIsNotNull ConditionOp = "notnull"
)

// Condition compares a source field value against a literal.
type Condition struct {
	Op    ConditionOp `json:"op"`
	Value Value       `json:"value,omitempty"`
}

// Evaluate applies the condition to the actual field value. Equality is
// strict structural equality.
func (c Condition) Evaluate(actual Value) bool {
	switch c.Op {
	case ConditionEquals:
		return actual.Equal(c.Value)
	case ConditionNotEquals:
		return !actual.Equal(c.Value)
	case ConditionIsNull:
		return actual.IsNull()
	case ConditionIsNotNull:
		return !actual.IsNull()
	default:
		return false
	}
}

func (c Condition) String() string {
	switch c.Op {
	case ConditionEquals:
		return fmt.Sprintf("= %s", c.Value)
	case ConditionNotEquals:
		return fmt.Sprintf("!= %s", c.Value)
	case ConditionIsNull:
		return "is null"
	case ConditionIsNotNull:
		return "is not null"
	default:
		return string(c.Op)
	}
}

// FallbackType selects what happens when a ValueMap has no matching entry.
type FallbackType string

const (
	FallbackError       FallbackType = "error"
	FallbackDefault     FallbackType = "default"
	FallbackPassThrough FallbackType = "passthrough"
	FallbackNull        FallbackType = "null"
)

// Fallback is the no-match policy of a ValueMap transform. Default carries
// the substitute value, which may be the $source dynamic placeholder.
type Fallback struct {
	Type    FallbackType `json:"type"`
	Default Value        `json:"default,omitempty"`
}

// DefaultFallback errors on unmapped values.
func DefaultFallback() Fallback {
	return Fallback{Type: FallbackError}
}

// Replacement is one step of a Replace transform. Pattern is a literal
// substring unless IsRegex is set.
type Replacement struct {
	Pattern     string `json:"pattern"`
	Replacement string `json:"replacement"`
	IsRegex     bool   `json:"isRegex,omitempty"`
}
