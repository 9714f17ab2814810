package transform

import (
	"encoding/json"
	"testing"

	"github.com/dvkit/transfer/internal/domain"
	"github.com/dvkit/transfer/internal/format"
)

func TestTransform_JSONRoundTrip(t *testing.T) {
	transforms := []Transform{
		Copy(domain.MustFieldPath("firstname")),
		CopyResolved(domain.MustFieldPath("parentcustomerid.name"), "account_by_name"),
		Constant(domain.String("fixed")),
		{Type: TypeConditional, Conditional: &ConditionalTransform{
			SourcePath: domain.MustFieldPath("statuscode"),
			Condition:  domain.Condition{Op: domain.ConditionEquals, Value: domain.Int(1)},
			Then:       domain.Bool(true),
			Else:       domain.Bool(false),
		}},
		{Type: TypeValueMap, ValueMap: &ValueMapTransform{
			SourcePath: domain.MustFieldPath("status"),
			Entries:    []ValueMapEntry{{From: domain.String("a"), To: domain.Int(1)}},
			Fallback:   domain.Fallback{Type: domain.FallbackPassThrough},
		}},
		{Type: TypeFormat, Format: &FormatTransform{
			Template:     format.MustParse("${firstname} ${lastname}"),
			NullHandling: format.NullEmpty,
		}},
		{Type: TypeReplace, Replace: &ReplaceTransform{
			SourcePath:   domain.MustFieldPath("phone"),
			Replacements: []domain.Replacement{{Pattern: "-", Replacement: ""}},
		}},
	}
	for _, tr := range transforms {
		data, err := json.Marshal(tr)
		if err != nil {
			t.Fatalf("marshal %s: %v", tr.Describe(), err)
		}
		var back Transform
		if err := json.Unmarshal(data, &back); err != nil {
			t.Fatalf("unmarshal %s: %v", data, err)
		}
		if back.Type != tr.Type {
			t.Fatalf("type mismatch: %q vs %q", back.Type, tr.Type)
		}
		if err := back.Validate(); err != nil {
			t.Fatalf("decoded transform invalid: %v", err)
		}
		if back.Describe() != tr.Describe() {
			t.Fatalf("describe mismatch: %q vs %q", back.Describe(), tr.Describe())
		}
	}
}

func TestFormatTransform_DecodeDefaultsNullHandling(t *testing.T) {
	var tr FormatTransform
	if err := json.Unmarshal([]byte(`{"template":"${a}"}`), &tr); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tr.NullHandling != format.NullError {
		t.Fatalf("null handling defaulted to %q", tr.NullHandling)
	}
	if err := json.Unmarshal([]byte(`{"template":"${"}`), &tr); err == nil {
		t.Fatal("invalid template should fail to decode")
	}
}

func TestTransform_Describe(t *testing.T) {
	cases := map[string]Transform{
		"copy(firstname)":                   Copy(domain.MustFieldPath("firstname")),
		"copy(ownerid) via user_by_email":   CopyResolved(domain.MustFieldPath("ownerid"), "user_by_email"),
		"constant(42)":                      Constant(domain.Int(42)),
	}
	for want, tr := range cases {
		if got := tr.Describe(); got != want {
			t.Fatalf("describe = %q, want %q", got, want)
		}
	}
}

func TestTransform_SourceFieldsAndLookupPaths(t *testing.T) {
	tr := Transform{Type: TypeFormat, Format: &FormatTransform{
		Template:     format.MustParse("${account.name} ${firstname} ${account.number}"),
		NullHandling: format.NullEmpty,
	}}
	fields := tr.SourceFields()
	if len(fields) != 2 || fields[0] != "account" || fields[1] != "firstname" {
		t.Fatalf("source fields = %v", fields)
	}
	paths := tr.LookupPaths()
	if len(paths) != 2 {
		t.Fatalf("lookup paths = %v", paths)
	}

	plain := Copy(domain.MustFieldPath("firstname"))
	if len(plain.LookupPaths()) != 0 {
		t.Fatal("simple copy has no lookup paths")
	}
}

func TestEntityMapping_SourceFields(t *testing.T) {
	mapping := EntityMapping{
		SourceEntity: "contact",
		TargetEntity: "contact",
		FieldMappings: []FieldMapping{
			{TargetField: "firstname", Transform: Copy(domain.MustFieldPath("firstname"))},
			{TargetField: "fullname", Transform: Transform{Type: TypeFormat, Format: &FormatTransform{
				Template:     format.MustParse("${firstname} ${lastname}"),
				NullHandling: format.NullEmpty,
			}}},
		},
	}
	fields := mapping.SourceFields()
	if len(fields) != 2 || fields[0] != "firstname" || fields[1] != "lastname" {
		t.Fatalf("mapping source fields = %v", fields)
	}
}

func TestTransferConfig_Validate(t *testing.T) {
	valid := TransferConfig{
		Name: "contacts",
		EntityMappings: []EntityMapping{{
			SourceEntity:  "contact",
			TargetEntity:  "contact",
			FieldMappings: []FieldMapping{{TargetField: "firstname", Transform: Copy(domain.MustFieldPath("firstname"))}},
		}},
		Resolvers: []domain.Resolver{{Name: "r1", SourceEntity: "account", MatchField: "name"}},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	noName := valid
	noName.Name = ""
	if err := noName.Validate(); err == nil {
		t.Fatal("missing name should fail")
	}

	empty := valid
	empty.EntityMappings = nil
	if err := empty.Validate(); err == nil {
		t.Fatal("no entity mappings should fail")
	}

	dupes := valid
	dupes.Resolvers = []domain.Resolver{{Name: "r1"}, {Name: "r1"}}
	if err := dupes.Validate(); err == nil {
		t.Fatal("duplicate resolver names should fail")
	}
}

func TestTransferConfig_MappingsByPriority(t *testing.T) {
	cfg := TransferConfig{
		Name: "ordered",
		EntityMappings: []EntityMapping{
			{SourceEntity: "contact", TargetEntity: "contact", Priority: 2},
			{SourceEntity: "account", TargetEntity: "account", Priority: 1},
			{SourceEntity: "lead", TargetEntity: "lead", Priority: 2},
		},
	}
	ordered := cfg.EntityMappingsByPriority()
	if ordered[0].SourceEntity != "account" {
		t.Fatalf("first mapping = %s", ordered[0].SourceEntity)
	}
	// equal priorities keep declaration order
	if ordered[1].SourceEntity != "contact" || ordered[2].SourceEntity != "lead" {
		t.Fatalf("stable order violated: %s, %s", ordered[1].SourceEntity, ordered[2].SourceEntity)
	}
}
