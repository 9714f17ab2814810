package odata

import (
	"testing"

	"github.com/dvkit/transfer/internal/domain"
)

func TestExpandTree_SingleLevel(t *testing.T) {
	tree := NewExpandTree()
	tree.AddPath(domain.MustFieldPath("parentcustomerid.name"))
	tree.AddPath(domain.MustFieldPath("parentcustomerid.accountnumber"))
	clauses := tree.Clauses()
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %v", clauses)
	}
	want := "parentcustomerid($select=accountnumber,name)"
	if clauses[0] != want {
		t.Fatalf("clause = %q, want %q", clauses[0], want)
	}
}

func TestExpandTree_Nested(t *testing.T) {
	tree := NewExpandTree()
	tree.AddPath(domain.MustFieldPath("userid.contactid.email"))
	tree.AddPath(domain.MustFieldPath("userid.fullname"))
	clauses := tree.Clauses()
	if len(clauses) != 1 {
		t.Fatalf("expected 1 clause, got %v", clauses)
	}
	want := "userid($select=fullname;$expand=contactid($select=email))"
	if clauses[0] != want {
		t.Fatalf("clause = %q, want %q", clauses[0], want)
	}
}

func TestExpandTree_AlphabeticalOrder(t *testing.T) {
	tree := NewExpandTree()
	tree.AddPath(domain.MustFieldPath("zzz.name"))
	tree.AddPath(domain.MustFieldPath("aaa.name"))
	clauses := tree.Clauses()
	if len(clauses) != 2 || clauses[0] != "aaa($select=name)" {
		t.Fatalf("clauses = %v", clauses)
	}
}

func TestExpandTree_IgnoresPlainFields(t *testing.T) {
	tree := NewExpandTree()
	tree.AddPath(domain.MustFieldPath("firstname"))
	if !tree.IsEmpty() {
		t.Fatal("single segment paths should be ignored")
	}
}
