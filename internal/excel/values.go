package excel

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvkit/transfer/internal/domain"
)

// optionSetPattern matches "1 (Active)" style cells exported with their
// label alongside the numeric option value.
var optionSetPattern = regexp.MustCompile(`^(-?\d+)\s*\(.*\)$`)

// ParseValue interprets a mapping cell as a typed value. Tried in order:
// empty, dynamic placeholder, bool, option set with label, int, float,
// GUID, RFC-3339 timestamp; anything else stays a string.
func ParseValue(cell string) domain.Value {
	trimmed := strings.TrimSpace(cell)
	if trimmed == "" {
		return domain.Null()
	}
	if dyn, ok := domain.ParseDynamic(trimmed); ok {
		return domain.Dynamic(dyn)
	}
	switch trimmed {
	case "true":
		return domain.Bool(true)
	case "false":
		return domain.Bool(false)
	}
	if m := optionSetPattern.FindStringSubmatch(trimmed); m != nil {
		if n, err := strconv.ParseInt(m[1], 10, 32); err == nil {
			return domain.OptionSet(int32(n))
		}
	}
	if i, err := strconv.ParseInt(trimmed, 10, 64); err == nil {
		return domain.Int(i)
	}
	if f, err := strconv.ParseFloat(trimmed, 64); err == nil {
		return domain.Float(f)
	}
	if id, err := uuid.Parse(trimmed); err == nil {
		return domain.Guid(id)
	}
	if t, err := time.Parse(time.RFC3339, trimmed); err == nil {
		return domain.DateTime(t)
	}
	return domain.String(trimmed)
}

// FormatValue renders a value back into cell form. Option sets lose
// their label: they write as the bare number and re-read as Int.
func FormatValue(v domain.Value) string {
	if v.IsNull() {
		return ""
	}
	return v.String()
}

// ParseCondition builds a condition from the condition and
// condition_value columns.
func ParseCondition(op, value string) (domain.Condition, bool) {
	switch strings.ToLower(strings.TrimSpace(op)) {
	case "eq":
		return domain.Condition{Op: domain.ConditionEquals, Value: ParseValue(value)}, true
	case "neq":
		return domain.Condition{Op: domain.ConditionNotEquals, Value: ParseValue(value)}, true
	case "null":
		return domain.Condition{Op: domain.ConditionIsNull}, true
	case "notnull":
		return domain.Condition{Op: domain.ConditionIsNotNull}, true
	default:
		return domain.Condition{}, false
	}
}

// FormatConditionOp is the inverse of ParseCondition's op column.
func FormatConditionOp(op domain.ConditionOp) string {
	return string(op)
}

// ParseFallback builds a fallback from the fallback and default_value
// columns. Unknown or empty fallback names mean error.
func ParseFallback(name, defaultValue string) domain.Fallback {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "default":
		return domain.Fallback{Type: domain.FallbackDefault, Default: ParseValue(defaultValue)}
	case "passthrough":
		return domain.Fallback{Type: domain.FallbackPassThrough}
	case "null":
		return domain.Fallback{Type: domain.FallbackNull}
	default:
		return domain.Fallback{Type: domain.FallbackError}
	}
}

// FormatFallback is the inverse of ParseFallback's name column.
func FormatFallback(f domain.Fallback) string {
	return string(f.Type)
}
