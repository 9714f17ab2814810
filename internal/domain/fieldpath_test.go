package domain

import (
	"encoding/json"
	"testing"
)

func TestParseFieldPath(t *testing.T) {
	path, err := ParseFieldPath("parentcustomerid.name")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if path.BaseField() != "parentcustomerid" {
		t.Fatalf("base field = %q", path.BaseField())
	}
	if path.TargetField() != "name" {
		t.Fatalf("target field = %q", path.TargetField())
	}
	if !path.IsLookup() {
		t.Fatal("two segment path should be a lookup")
	}
	lookup, ok := path.LookupField()
	if !ok || lookup != "name" {
		t.Fatalf("lookup field = %q, %v", lookup, ok)
	}
}

func TestParseFieldPath_Simple(t *testing.T) {
	path, err := ParseFieldPath("firstname")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if path.IsLookup() {
		t.Fatal("single segment path is not a lookup")
	}
	if path.BaseField() != "firstname" || path.TargetField() != "firstname" {
		t.Fatalf("base %q target %q", path.BaseField(), path.TargetField())
	}
}

func TestParseFieldPath_Errors(t *testing.T) {
	if _, err := ParseFieldPath(""); err == nil {
		t.Fatal("empty path must error")
	}
	if _, err := ParseFieldPath("a..b"); err == nil {
		t.Fatal("empty segment must error")
	}
	if _, err := ParseFieldPath("  "); err == nil {
		t.Fatal("blank path must error")
	}
}

func TestParseFieldPath_DeepTraversal(t *testing.T) {
	path, err := ParseFieldPath("account.owner.email")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(path.Segments()) != 3 {
		t.Fatalf("expected 3 segments, got %d", len(path.Segments()))
	}
	if path.String() != "account.owner.email" {
		t.Fatalf("round trip = %q", path.String())
	}
}

func TestFieldPath_JSON(t *testing.T) {
	path := MustFieldPath("contact.fullname")
	data, err := json.Marshal(path)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(data) != `"contact.fullname"` {
		t.Fatalf("encoded as %s", data)
	}
	var back FieldPath
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.String() != path.String() {
		t.Fatalf("round trip mismatch: %q", back.String())
	}
	var bad FieldPath
	if err := json.Unmarshal([]byte(`"a..b"`), &bad); err == nil {
		t.Fatal("invalid path must fail to decode")
	}
}
