package domain

import "testing"

func TestResolvePath_Direct(t *testing.T) {
	record := map[string]any{"firstname": "Alice"}
	v := ResolvePath(record, MustFieldPath("firstname"))
	if s, ok := v.AsString(); !ok || s != "Alice" {
		t.Fatalf("expected Alice, got %v", v)
	}
}

func TestResolvePath_CaseInsensitive(t *testing.T) {
	record := map[string]any{"FirstName": "Bob"}
	v := ResolvePath(record, MustFieldPath("firstname"))
	if s, ok := v.AsString(); !ok || s != "Bob" {
		t.Fatalf("expected case-insensitive match, got %v", v)
	}
}

func TestResolvePath_FlattenedLookup(t *testing.T) {
	record := map[string]any{"_parentcustomerid_value": float64(7)}
	v := ResolvePath(record, MustFieldPath("parentcustomerid"))
	if n, ok := v.AsInt(); !ok || n != 7 {
		t.Fatalf("expected flattened lookup value 7, got %v", v)
	}
}

func TestResolvePath_Nested(t *testing.T) {
	record := map[string]any{
		"parentcustomerid": map[string]any{
			"name": "Contoso",
		},
	}
	v := ResolvePath(record, MustFieldPath("parentcustomerid.name"))
	if s, ok := v.AsString(); !ok || s != "Contoso" {
		t.Fatalf("expected Contoso, got %v", v)
	}
}

func TestResolvePath_MissingAndNull(t *testing.T) {
	record := map[string]any{"a": nil}
	if v := ResolvePath(record, MustFieldPath("missing")); !v.IsNull() {
		t.Fatalf("missing key should be null, got %v", v)
	}
	if v := ResolvePath(record, MustFieldPath("a")); !v.IsNull() {
		t.Fatalf("json null should be null, got %v", v)
	}
	// Traversing through a scalar yields null too.
	record = map[string]any{"a": "scalar"}
	if v := ResolvePath(record, MustFieldPath("a.b")); !v.IsNull() {
		t.Fatalf("traversal through scalar should be null, got %v", v)
	}
}
