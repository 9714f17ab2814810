package excel

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dvkit/transfer/internal/domain"
)

func TestParseValue(t *testing.T) {
	if v := ParseValue(""); !v.IsNull() {
		t.Fatalf("empty cell = %v", v)
	}
	if v := ParseValue("  "); !v.IsNull() {
		t.Fatalf("blank cell = %v", v)
	}

	if v := ParseValue("$now"); !v.IsDynamic() {
		t.Fatalf("$now cell = %v", v)
	}

	if v := ParseValue("true"); v.Kind() != domain.KindBool {
		t.Fatalf("true cell kind = %s", v.Kind())
	}
	// only exact lowercase spellings are booleans
	if v := ParseValue("True"); v.Kind() != domain.KindString {
		t.Fatalf("True cell kind = %s", v.Kind())
	}

	v := ParseValue("1 (Active)")
	if n, ok := v.AsOptionSet(); !ok || n != 1 {
		t.Fatalf("option set cell = %v", v)
	}
	v = ParseValue("100000001(Custom)")
	if n, ok := v.AsOptionSet(); !ok || n != 100000001 {
		t.Fatalf("unspaced option set cell = %v", v)
	}

	if v := ParseValue("42"); v.Kind() != domain.KindInt {
		t.Fatalf("int cell kind = %s", v.Kind())
	}
	if v := ParseValue("3.14"); v.Kind() != domain.KindFloat {
		t.Fatalf("float cell kind = %s", v.Kind())
	}

	id := uuid.New()
	if v := ParseValue(id.String()); v.Kind() != domain.KindGuid {
		t.Fatalf("guid cell kind = %s", v.Kind())
	}
	if v := ParseValue("2024-03-15T10:30:00Z"); v.Kind() != domain.KindDateTime {
		t.Fatalf("datetime cell kind = %s", v.Kind())
	}
	if v := ParseValue("hello world"); v.Kind() != domain.KindString {
		t.Fatalf("string cell kind = %s", v.Kind())
	}
}

func TestFormatValue(t *testing.T) {
	if got := FormatValue(domain.Null()); got != "" {
		t.Fatalf("null cell = %q", got)
	}
	if got := FormatValue(domain.Int(7)); got != "7" {
		t.Fatalf("int cell = %q", got)
	}
	// option sets write as the bare number and re-read as Int
	written := FormatValue(domain.OptionSet(1))
	if written != "1" {
		t.Fatalf("option set cell = %q", written)
	}
	if back := ParseValue(written); back.Kind() != domain.KindInt {
		t.Fatalf("option set re-reads as %s", back.Kind())
	}
}

func TestFormatValue_RoundTrip(t *testing.T) {
	stamp, err := time.Parse(time.RFC3339, "2024-03-15T10:30:00Z")
	if err != nil {
		t.Fatalf("parse stamp: %v", err)
	}
	values := []domain.Value{
		domain.Null(),
		domain.Bool(true),
		domain.Bool(false),
		domain.Int(42),
		domain.Float(3.25),
		domain.String("test"),
		domain.Guid(uuid.New()),
		domain.DateTime(stamp),
		domain.Dynamic(domain.DynamicNow),
		domain.Dynamic(domain.DynamicSource),
	}
	for _, val := range values {
		got := ParseValue(FormatValue(val))
		if !got.Equal(val) {
			t.Fatalf("round trip of %v produced %v", val, got)
		}
	}
	// option sets are the lossy exception: the label is dropped on write
	// and the bare number re-reads as Int
	if got := ParseValue(FormatValue(domain.OptionSet(1))); !got.Equal(domain.Int(1)) {
		t.Fatalf("option set round trip = %v", got)
	}
	// so is a whole-number float, which re-reads as Int
	if got := ParseValue(FormatValue(domain.Float(42))); !got.Equal(domain.Int(42)) {
		t.Fatalf("whole float round trip = %v", got)
	}
}

func TestParseCondition(t *testing.T) {
	cond, ok := ParseCondition("eq", "42")
	if !ok || cond.Op != domain.ConditionEquals {
		t.Fatalf("eq condition = %v, %v", cond, ok)
	}
	if i, _ := cond.Value.AsInt(); i != 42 {
		t.Fatalf("condition value = %v", cond.Value)
	}
	cond, ok = ParseCondition("NOTNULL", "")
	if !ok || cond.Op != domain.ConditionIsNotNull {
		t.Fatalf("notnull condition = %v, %v", cond, ok)
	}
	if _, ok := ParseCondition("between", "1"); ok {
		t.Fatal("unknown op should not parse")
	}
}

func TestParseFallback(t *testing.T) {
	fb := ParseFallback("default", "0")
	if fb.Type != domain.FallbackDefault {
		t.Fatalf("fallback type = %s", fb.Type)
	}
	if i, _ := fb.Default.AsInt(); i != 0 {
		t.Fatalf("fallback default = %v", fb.Default)
	}
	if fb := ParseFallback("passthrough", ""); fb.Type != domain.FallbackPassThrough {
		t.Fatalf("fallback type = %s", fb.Type)
	}
	if fb := ParseFallback("null", ""); fb.Type != domain.FallbackNull {
		t.Fatalf("fallback type = %s", fb.Type)
	}
	if fb := ParseFallback("", ""); fb.Type != domain.FallbackError {
		t.Fatalf("empty fallback type = %s", fb.Type)
	}
	if fb := ParseFallback("whatever", ""); fb.Type != domain.FallbackError {
		t.Fatalf("unknown fallback type = %s", fb.Type)
	}
}
