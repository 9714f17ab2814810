package format

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/dvkit/transfer/internal/domain"
)

// Evaluate renders the template against a raw record. A null
// expression result contributes nothing to the output; the
// NullHandling policy applies to null operands inside math,
// comparison, and negation, not to bare field reads.
func Evaluate(t *Template, record map[string]any, nulls NullHandling) (string, error) {
	var b strings.Builder
	for _, part := range t.Parts {
		if part.Expr == nil {
			b.WriteString(part.Literal)
			continue
		}
		val, err := evalExpr(part.Expr, record, nulls)
		if err != nil {
			return "", err
		}
		if val.IsNull() {
			continue
		}
		b.WriteString(valueToString(val))
	}
	return b.String(), nil
}

func evalExpr(expr Expr, record map[string]any, nulls NullHandling) (domain.Value, error) {
	switch node := expr.(type) {
	case FieldExpr:
		return domain.ResolvePath(record, node.Path), nil
	case ConstantExpr:
		return node.Value, nil
	case MathExpr:
		return evalMath(node, record, nulls)
	case CompareExpr:
		return evalCompare(node, record, nulls)
	case TernaryExpr:
		cond, err := evalExpr(node.Cond, record, nulls)
		if err != nil {
			return domain.Null(), err
		}
		if isTruthy(cond) {
			return evalExpr(node.Then, record, nulls)
		}
		return evalExpr(node.Else, record, nulls)
	case CoalesceExpr:
		for _, alt := range node.Exprs {
			val, err := evalExpr(alt, record, nulls)
			if err != nil {
				return domain.Null(), err
			}
			if !val.IsNull() {
				return val, nil
			}
		}
		return domain.Null(), nil
	case NegateExpr:
		val, err := evalExpr(node.Expr, record, nulls)
		if err != nil {
			return domain.Null(), err
		}
		if val.IsNull() {
			switch nulls {
			case NullError:
				return domain.Null(), fmt.Errorf("null value in negation")
			case NullZero:
				val = domain.Int(0)
			default:
				return domain.Null(), nil
			}
		}
		if i, ok := val.AsInt(); ok {
			if i == math.MinInt64 {
				return domain.Null(), fmt.Errorf("integer overflow")
			}
			return domain.Int(-i), nil
		}
		if f, ok := val.AsFloat(); ok {
			return domain.Float(-f), nil
		}
		return domain.Null(), fmt.Errorf("cannot negate %s value", val.Kind())
	case FormattedExpr:
		val, err := evalExpr(node.Expr, record, nulls)
		if err != nil {
			return domain.Null(), err
		}
		if val.IsNull() {
			return domain.Null(), nil
		}
		formatted, err := applySpec(val, node.Spec)
		if err != nil {
			return domain.Null(), err
		}
		return domain.String(formatted), nil
	default:
		return domain.Null(), fmt.Errorf("unknown expression node %T", expr)
	}
}

func evalMath(node MathExpr, record map[string]any, nulls NullHandling) (domain.Value, error) {
	left, err := evalExpr(node.Left, record, nulls)
	if err != nil {
		return domain.Null(), err
	}
	right, err := evalExpr(node.Right, record, nulls)
	if err != nil {
		return domain.Null(), err
	}
	if left.IsNull() || right.IsNull() {
		switch nulls {
		case NullError:
			return domain.Null(), fmt.Errorf("null value in math operation")
		case NullZero:
			if left.IsNull() {
				left = domain.Int(0)
			}
			if right.IsNull() {
				right = domain.Int(0)
			}
		default:
			return domain.Null(), nil
		}
	}
	li, lok := left.AsInt()
	ri, rok := right.AsInt()
	if lok && rok {
		return intMath(li, ri, node.Op)
	}
	lf, lok := numericOf(left)
	rf, rok := numericOf(right)
	if !lok || !rok {
		return domain.Null(), fmt.Errorf("cannot apply %s to %s and %s", node.Op, left.Kind(), right.Kind())
	}
	switch node.Op {
	case MathAdd:
		return domain.Float(lf + rf), nil
	case MathSub:
		return domain.Float(lf - rf), nil
	case MathMul:
		return domain.Float(lf * rf), nil
	case MathDiv:
		if rf == 0 {
			return domain.Null(), fmt.Errorf("division by zero")
		}
		return domain.Float(lf / rf), nil
	default:
		return domain.Null(), fmt.Errorf("unknown math operator %q", node.Op)
	}
}

func intMath(l, r int64, op MathOp) (domain.Value, error) {
	switch op {
	case MathAdd:
		sum := l + r
		if (r > 0 && sum < l) || (r < 0 && sum > l) {
			return domain.Null(), fmt.Errorf("integer overflow")
		}
		return domain.Int(sum), nil
	case MathSub:
		diff := l - r
		if (r > 0 && diff > l) || (r < 0 && diff < l) {
			return domain.Null(), fmt.Errorf("integer overflow")
		}
		return domain.Int(diff), nil
	case MathMul:
		if (l == -1 && r == math.MinInt64) || (r == -1 && l == math.MinInt64) {
			return domain.Null(), fmt.Errorf("integer overflow")
		}
		if l != 0 && r != 0 {
			product := l * r
			if product/l != r {
				return domain.Null(), fmt.Errorf("integer overflow")
			}
			return domain.Int(product), nil
		}
		return domain.Int(0), nil
	case MathDiv:
		if r == 0 {
			return domain.Null(), fmt.Errorf("division by zero")
		}
		if l == math.MinInt64 && r == -1 {
			return domain.Null(), fmt.Errorf("integer overflow")
		}
		return domain.Int(l / r), nil
	default:
		return domain.Null(), fmt.Errorf("unknown math operator %q", op)
	}
}

func evalCompare(node CompareExpr, record map[string]any, nulls NullHandling) (domain.Value, error) {
	left, err := evalExpr(node.Left, record, nulls)
	if err != nil {
		return domain.Null(), err
	}
	right, err := evalExpr(node.Right, record, nulls)
	if err != nil {
		return domain.Null(), err
	}
	if left.IsNull() || right.IsNull() {
		if nulls == NullError {
			return domain.Null(), fmt.Errorf("null value in comparison")
		}
		// null equals only null; ordering against null is always false
		bothNull := left.IsNull() && right.IsNull()
		switch node.Op {
		case CompareEq:
			return domain.Bool(bothNull), nil
		case CompareNeq:
			return domain.Bool(!bothNull), nil
		default:
			return domain.Bool(false), nil
		}
	}
	switch node.Op {
	case CompareEq:
		return domain.Bool(domain.LooseEqual(left, right)), nil
	case CompareNeq:
		return domain.Bool(!domain.LooseEqual(left, right)), nil
	}
	ordering, err := compareOrdered(left, right)
	if err != nil {
		return domain.Null(), err
	}
	switch node.Op {
	case CompareLt:
		return domain.Bool(ordering < 0), nil
	case CompareLte:
		return domain.Bool(ordering <= 0), nil
	case CompareGt:
		return domain.Bool(ordering > 0), nil
	case CompareGte:
		return domain.Bool(ordering >= 0), nil
	default:
		return domain.Null(), fmt.Errorf("unknown comparison operator %q", node.Op)
	}
}

func compareOrdered(a, b domain.Value) (int, error) {
	if af, aok := numericOf(a); aok {
		if bf, bok := numericOf(b); bok {
			switch {
			case af < bf:
				return -1, nil
			case af > bf:
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	if as, aok := a.AsString(); aok {
		if bs, bok := b.AsString(); bok {
			return strings.Compare(as, bs), nil
		}
	}
	if at, aok := a.AsDateTime(); aok {
		if bt, bok := b.AsDateTime(); bok {
			switch {
			case at.Before(bt):
				return -1, nil
			case at.After(bt):
				return 1, nil
			default:
				return 0, nil
			}
		}
	}
	return 0, fmt.Errorf("cannot compare %s and %s", a.Kind(), b.Kind())
}

func isTruthy(v domain.Value) bool {
	switch v.Kind() {
	case domain.KindNull:
		return false
	case domain.KindBool:
		b, _ := v.AsBool()
		return b
	case domain.KindInt:
		i, _ := v.AsInt()
		return i != 0
	case domain.KindFloat:
		f, _ := v.AsFloat()
		return f != 0
	case domain.KindOptionSet:
		n, _ := v.AsOptionSet()
		return n != 0
	case domain.KindString:
		s, _ := v.AsString()
		return s != ""
	default:
		return true
	}
}

func numericOf(v domain.Value) (float64, bool) {
	if i, ok := v.AsInt(); ok {
		return float64(i), true
	}
	if f, ok := v.AsFloat(); ok {
		return f, true
	}
	if n, ok := v.AsOptionSet(); ok {
		return float64(n), true
	}
	return 0, false
}

func valueToString(v domain.Value) string {
	if t, ok := v.AsDateTime(); ok {
		return t.Format(time.RFC3339)
	}
	return v.String()
}

func applySpec(v domain.Value, spec Spec) (string, error) {
	switch spec.Type {
	case SpecFloat:
		f, ok := numericOf(v)
		if !ok {
			return "", fmt.Errorf("numeric format applied to %s value", v.Kind())
		}
		prec := 2
		if spec.Precision != nil {
			prec = *spec.Precision
		}
		return groupFormatted(strconv.FormatFloat(f, 'f', prec, 64), spec.ThousandsSep), nil
	case SpecInteger:
		f, ok := numericOf(v)
		if !ok {
			return "", fmt.Errorf("numeric format applied to %s value", v.Kind())
		}
		return groupFormatted(strconv.FormatInt(int64(f), 10), spec.ThousandsSep), nil
	case SpecPercent:
		f, ok := numericOf(v)
		if !ok {
			return "", fmt.Errorf("percent format applied to %s value", v.Kind())
		}
		prec := 0
		if spec.Precision != nil {
			prec = *spec.Precision
		}
		return groupFormatted(strconv.FormatFloat(f*100, 'f', prec, 64), spec.ThousandsSep) + "%", nil
	case SpecDate:
		t, ok := v.AsDateTime()
		if !ok {
			return "", fmt.Errorf("date format requires a datetime value, got %s", v.Kind())
		}
		return t.Format("2006-01-02"), nil
	case SpecDateTime:
		t, ok := v.AsDateTime()
		if !ok {
			return "", fmt.Errorf("datetime format requires a datetime value, got %s", v.Kind())
		}
		return t.Format(time.RFC3339), nil
	default:
		if f, ok := numericOf(v); ok {
			var s string
			if spec.Precision != nil {
				s = strconv.FormatFloat(f, 'f', *spec.Precision, 64)
			} else {
				s = valueToString(v)
			}
			return groupFormatted(s, spec.ThousandsSep), nil
		}
		return valueToString(v), nil
	}
}

// groupFormatted inserts thousands separators into the integer part of
// an already-formatted number.
func groupFormatted(s string, sep bool) string {
	if !sep {
		return s
	}
	sign := ""
	rest := s
	if strings.HasPrefix(rest, "-") {
		sign = "-"
		rest = rest[1:]
	}
	intPart := rest
	frac := ""
	if idx := strings.IndexByte(rest, '.'); idx >= 0 {
		intPart = rest[:idx]
		frac = rest[idx:]
	}
	if len(intPart) <= 3 {
		return sign + intPart + frac
	}
	var b strings.Builder
	lead := len(intPart) % 3
	if lead > 0 {
		b.WriteString(intPart[:lead])
	}
	for i := lead; i < len(intPart); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(intPart[i : i+3])
	}
	return sign + b.String() + frac
}
