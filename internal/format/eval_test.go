package format

import (
	"strings"
	"testing"
)

func eval(t *testing.T, source string, record map[string]any, nulls NullHandling) string {
	t.Helper()
	tmpl, err := Parse(source)
	if err != nil {
		t.Fatalf("parse %q: %v", source, err)
	}
	out, err := Evaluate(tmpl, record, nulls)
	if err != nil {
		t.Fatalf("evaluate %q: %v", source, err)
	}
	return out
}

func TestEvaluate_Literals(t *testing.T) {
	if out := eval(t, "plain text", nil, NullError); out != "plain text" {
		t.Fatalf("literal output = %q", out)
	}
}

func TestEvaluate_Fields(t *testing.T) {
	record := map[string]any{"firstname": "Jane", "lastname": "Doe"}
	out := eval(t, "${firstname} ${lastname}", record, NullError)
	if out != "Jane Doe" {
		t.Fatalf("output = %q", out)
	}
}

func TestEvaluate_Arithmetic(t *testing.T) {
	cases := map[string]string{
		"${2 + 3 * 4}":     "14",
		"${(2 + 3) * 4}":   "20",
		"${10 / 4}":        "2",
		"${10.0 / 4}":      "2.5",
		"${-5 + 2}":        "-3",
		"${1 + 2.5}":       "3.5",
	}
	for source, want := range cases {
		if out := eval(t, source, nil, NullError); out != want {
			t.Fatalf("%s = %q, want %q", source, out, want)
		}
	}
}

func TestEvaluate_DivisionByZero(t *testing.T) {
	tmpl := MustParse("${1 / 0}")
	if _, err := Evaluate(tmpl, nil, NullError); err == nil {
		t.Fatal("integer division by zero should error")
	}
	tmpl = MustParse("${1.0 / 0}")
	if _, err := Evaluate(tmpl, nil, NullError); err == nil {
		t.Fatal("float division by zero should error")
	}
}

func TestEvaluate_IntegerOverflow(t *testing.T) {
	tmpl := MustParse("${9223372036854775807 + 1}")
	if _, err := Evaluate(tmpl, nil, NullError); err == nil {
		t.Fatal("int64 overflow should error")
	}
}

func TestEvaluate_Comparison(t *testing.T) {
	record := map[string]any{"age": float64(30), "name": "Bob"}
	cases := map[string]string{
		"${age > 18 ? 'adult' : 'minor'}": "adult",
		"${age == 30}":                    "true",
		"${age != 30}":                    "false",
		"${name == 'Bob'}":                "true",
		"${age >= 30}":                    "true",
		"${age < 30}":                     "false",
	}
	for source, want := range cases {
		if out := eval(t, source, record, NullError); out != want {
			t.Fatalf("%s = %q, want %q", source, out, want)
		}
	}
}

func TestEvaluate_NumericCoercionInEquality(t *testing.T) {
	record := map[string]any{"count": float64(3)}
	if out := eval(t, "${count == 3.0}", record, NullError); out != "true" {
		t.Fatalf("int/float equality = %q", out)
	}
}

func TestEvaluate_NullHandling(t *testing.T) {
	record := map[string]any{"present": "x"}

	// a bare null field renders empty under every policy
	for _, nulls := range []NullHandling{NullError, NullZero, NullEmpty} {
		if out := eval(t, "a${missing}b", record, nulls); out != "ab" {
			t.Fatalf("bare null field under %s = %q", nulls, out)
		}
	}

	tmpl := MustParse("${missing + 5}")
	if _, err := Evaluate(tmpl, record, NullError); err == nil {
		t.Fatal("null operand under error policy should fail")
	}
	if out := eval(t, "${missing + 5}", record, NullZero); out != "5" {
		t.Fatalf("zero policy output = %q", out)
	}
	if out := eval(t, "x${missing + 5}y", record, NullEmpty); out != "xy" {
		t.Fatalf("empty policy output = %q", out)
	}
	if out := eval(t, "${-missing}", record, NullZero); out != "0" {
		t.Fatalf("negated null under zero policy = %q", out)
	}
}

func TestEvaluate_NullComparison(t *testing.T) {
	record := map[string]any{}

	// null never equals a value, even when zero substitution is on
	if out := eval(t, "${a == 0}", record, NullZero); out != "false" {
		t.Fatalf("null == 0 under zero policy = %q", out)
	}
	if out := eval(t, "${a == b}", record, NullZero); out != "true" {
		t.Fatalf("null == null = %q", out)
	}
	if out := eval(t, "${a != 0}", record, NullEmpty); out != "true" {
		t.Fatalf("null != 0 = %q", out)
	}
	if out := eval(t, "${a < 5}", record, NullEmpty); out != "false" {
		t.Fatalf("null < 5 = %q", out)
	}

	tmpl := MustParse("${a == 0}")
	if _, err := Evaluate(tmpl, record, NullError); err == nil {
		t.Fatal("null comparison under error policy should fail")
	}
}

func TestEvaluate_NullPropagationInMath(t *testing.T) {
	// a null operand under the empty policy nulls the whole expression
	record := map[string]any{}
	if out := eval(t, "x${missing * 2}y", record, NullEmpty); out != "xy" {
		t.Fatalf("output = %q", out)
	}
}

func TestEvaluate_Coalesce(t *testing.T) {
	record := map[string]any{"nickname": nil, "firstname": "Amy"}
	if out := eval(t, "${nickname ?? firstname ?? 'unknown'}", record, NullError); out != "Amy" {
		t.Fatalf("coalesce picked %q", out)
	}
	// nulls pass through the alternatives even under the error policy
	if out := eval(t, "${nickname ?? 'fallback'}", record, NullError); out != "fallback" {
		t.Fatalf("coalesce fallback = %q", out)
	}
}

func TestEvaluate_CoalesceAllNull(t *testing.T) {
	// an exhausted coalesce is plain null, whatever the policy says
	record := map[string]any{}
	for _, nulls := range []NullHandling{NullError, NullZero, NullEmpty} {
		if out := eval(t, "x${a ?? b}", record, nulls); out != "x" {
			t.Fatalf("all-null coalesce under %s = %q", nulls, out)
		}
	}
}

func TestEvaluate_FloatSpec(t *testing.T) {
	record := map[string]any{"revenue": 1234567.891}
	if out := eval(t, "${revenue:,.2f}", record, NullError); out != "1,234,567.89" {
		t.Fatalf("formatted revenue = %q", out)
	}
	if out := eval(t, "${revenue:f}", record, NullError); out != "1234567.89" {
		t.Fatalf("default float precision = %q", out)
	}
}

func TestEvaluate_IntegerSpec(t *testing.T) {
	record := map[string]any{"count": 1234.9}
	if out := eval(t, "${count:d}", record, NullError); out != "1234" {
		t.Fatalf("integer spec = %q", out)
	}
	if out := eval(t, "${count:,d}", record, NullError); out != "1,234" {
		t.Fatalf("grouped integer spec = %q", out)
	}
}

func TestEvaluate_PercentSpec(t *testing.T) {
	record := map[string]any{"rate": 0.8567}
	if out := eval(t, "${rate:%}", record, NullError); out != "86%" {
		t.Fatalf("percent spec = %q", out)
	}
	if out := eval(t, "${rate:.1%}", record, NullError); out != "85.7%" {
		t.Fatalf("percent with precision = %q", out)
	}
}

func TestEvaluate_DateSpecs(t *testing.T) {
	record := map[string]any{"createdon": "2024-03-15T10:30:00Z"}
	if out := eval(t, "${createdon:date}", record, NullError); out != "2024-03-15" {
		t.Fatalf("date spec = %q", out)
	}
	if out := eval(t, "${createdon:datetime}", record, NullError); out != "2024-03-15T10:30:00Z" {
		t.Fatalf("datetime spec = %q", out)
	}
	tmpl := MustParse("${createdon:.2f}")
	if _, err := Evaluate(tmpl, record, NullError); err == nil {
		t.Fatal("numeric spec on a datetime should error")
	}
}

func TestEvaluate_NestedLookupField(t *testing.T) {
	record := map[string]any{
		"parentcustomerid": map[string]any{"name": "Contoso"},
	}
	if out := eval(t, "${parentcustomerid.name}", record, NullError); out != "Contoso" {
		t.Fatalf("lookup output = %q", out)
	}
}

func TestEvaluate_OrderingNullFails(t *testing.T) {
	tmpl := MustParse("${a < 5}")
	_, err := Evaluate(tmpl, map[string]any{}, NullError)
	if err == nil || !strings.Contains(err.Error(), "comparison") {
		t.Fatalf("expected comparison error, got %v", err)
	}
}

func TestGroupFormatted(t *testing.T) {
	cases := map[string]string{
		"123":         "123",
		"1234":        "1,234",
		"1234567.89":  "1,234,567.89",
		"-1234567.89": "-1,234,567.89",
		"-999":        "-999",
	}
	for in, want := range cases {
		if got := groupFormatted(in, true); got != want {
			t.Fatalf("groupFormatted(%q) = %q, want %q", in, got, want)
		}
	}
	if got := groupFormatted("1234", false); got != "1234" {
		t.Fatalf("ungrouped = %q", got)
	}
}
