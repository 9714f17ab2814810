package transform

import (
	"testing"

	"github.com/google/uuid"

	"github.com/dvkit/transfer/internal/domain"
)

func accountTarget(ids ...uuid.UUID) map[string][]map[string]any {
	return map[string][]map[string]any{
		"account": {
			{"accountid": ids[0].String(), "name": "Contoso"},
			{"accountid": ids[1].String(), "name": "Fabrikam"},
		},
	}
}

func TestResolverContext_Resolve(t *testing.T) {
	contoso, fabrikam := uuid.New(), uuid.New()
	ctx := BuildResolverContext(
		[]domain.Resolver{{Name: "account_by_name", SourceEntity: "account", MatchField: "name"}},
		accountTarget(contoso, fabrikam),
		nil,
	)
	if !ctx.Has("account_by_name") {
		t.Fatal("resolver should be registered")
	}

	id, status := ctx.Resolve("account_by_name", domain.String("Contoso"))
	if status != ResolveFound || id != contoso {
		t.Fatalf("resolve = %s, %s", id, status)
	}

	// match keys are case-insensitive and trimmed
	id, status = ctx.Resolve("account_by_name", domain.String("  FABRIKAM "))
	if status != ResolveFound || id != fabrikam {
		t.Fatalf("normalized resolve = %s, %s", id, status)
	}

	if _, status := ctx.Resolve("account_by_name", domain.String("Northwind")); status != ResolveNotFound {
		t.Fatalf("missing key status = %s", status)
	}
}

func TestResolverContext_Duplicates(t *testing.T) {
	target := map[string][]map[string]any{
		"account": {
			{"accountid": uuid.New().String(), "name": "Contoso"},
			{"accountid": uuid.New().String(), "name": "contoso"},
		},
	}
	ctx := BuildResolverContext(
		[]domain.Resolver{{Name: "account_by_name", SourceEntity: "account", MatchField: "name"}},
		target,
		nil,
	)
	if _, status := ctx.Resolve("account_by_name", domain.String("Contoso")); status != ResolveDuplicate {
		t.Fatalf("duplicate key status = %s", status)
	}
}

func TestResolverContext_CustomPrimaryKey(t *testing.T) {
	id := uuid.New()
	target := map[string][]map[string]any{
		"systemuser": {{"systemuserid_custom": id.String(), "email": "a@b.c"}},
	}
	ctx := BuildResolverContext(
		[]domain.Resolver{{Name: "user_by_email", SourceEntity: "systemuser", MatchField: "email"}},
		target,
		map[string]string{"systemuser": "systemuserid_custom"},
	)
	got, status := ctx.Resolve("user_by_email", domain.String("a@b.c"))
	if status != ResolveFound || got != id {
		t.Fatalf("resolve = %s, %s", got, status)
	}
}

func TestResolverContext_Funcs(t *testing.T) {
	contoso, fabrikam := uuid.New(), uuid.New()
	ctx := BuildResolverContext(
		[]domain.Resolver{
			{Name: "strict", SourceEntity: "account", MatchField: "name"},
			{Name: "lenient", SourceEntity: "account", MatchField: "name", Fallback: domain.ResolverFallbackNull},
		},
		accountTarget(contoso, fabrikam),
		nil,
	)
	funcs := ctx.Funcs()

	got, err := funcs["strict"](domain.String("Contoso"))
	if err != nil {
		t.Fatalf("strict resolve: %v", err)
	}
	if id, _ := got.AsGuid(); id != contoso {
		t.Fatalf("resolved id = %v", got)
	}

	if _, err := funcs["strict"](domain.String("Northwind")); err == nil {
		t.Fatal("strict resolver should error on no match")
	}

	got, err = funcs["lenient"](domain.String("Northwind"))
	if err != nil || !got.IsNull() {
		t.Fatalf("lenient resolver = %v, %v", got, err)
	}
}
