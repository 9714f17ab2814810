package transform

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/dvkit/transfer/internal/domain"
)

// ResolveStatus is the outcome of a lookup resolution.
type ResolveStatus string

const (
	ResolveFound     ResolveStatus = "found"
	ResolveNotFound  ResolveStatus = "not_found"
	ResolveDuplicate ResolveStatus = "duplicate"
)

// ResolverContext holds per-resolver lookup tables built from target
// environment data. Match keys are normalized to lowercased, trimmed
// strings; keys seen more than once are tracked as duplicates and removed
// from the table so an ambiguous match never resolves silently.
type ResolverContext struct {
	resolvers  map[string]domain.Resolver
	tables     map[string]map[string]uuid.UUID
	duplicates map[string]map[string]bool
}

// BuildResolverContext indexes target records for each resolver.
// primaryKeys maps entity name to its primary key field; entities absent
// from the map default to "<entity>id".
func BuildResolverContext(resolvers []domain.Resolver, target map[string][]map[string]any, primaryKeys map[string]string) *ResolverContext {
	ctx := &ResolverContext{
		resolvers:  map[string]domain.Resolver{},
		tables:     map[string]map[string]uuid.UUID{},
		duplicates: map[string]map[string]bool{},
	}
	for _, r := range resolvers {
		ctx.resolvers[r.Name] = r
		table := map[string]uuid.UUID{}
		dupes := map[string]bool{}
		pkField := primaryKeyFor(r.SourceEntity, primaryKeys)
		for _, record := range target[r.SourceEntity] {
			matchVal := domain.ResolvePath(record, domain.NewFieldPath(r.MatchField))
			if matchVal.IsNull() {
				continue
			}
			key := normalizeMatchKey(matchVal.String())
			if key == "" {
				continue
			}
			pkVal := domain.ResolvePath(record, domain.NewFieldPath(pkField))
			id, ok := pkVal.AsGuid()
			if !ok {
				continue
			}
			if dupes[key] {
				continue
			}
			if _, exists := table[key]; exists {
				dupes[key] = true
				delete(table, key)
				continue
			}
			table[key] = id
		}
		ctx.tables[r.Name] = table
		ctx.duplicates[r.Name] = dupes
	}
	return ctx
}

func primaryKeyFor(entity string, primaryKeys map[string]string) string {
	if pk, ok := primaryKeys[entity]; ok {
		return pk
	}
	return entity + "id"
}

func normalizeMatchKey(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// Has reports whether a resolver with the given name is configured.
func (c *ResolverContext) Has(name string) bool {
	_, ok := c.resolvers[name]
	return ok
}

// Resolve looks up a source value in the named resolver's table.
func (c *ResolverContext) Resolve(name string, value domain.Value) (uuid.UUID, ResolveStatus) {
	key := normalizeMatchKey(value.String())
	if c.duplicates[name][key] {
		return uuid.Nil, ResolveDuplicate
	}
	if id, ok := c.tables[name][key]; ok {
		return id, ResolveFound
	}
	return uuid.Nil, ResolveNotFound
}

// Funcs exposes the resolvers as the function registry an Applier is
// constructed with. NotFound and Duplicate turn into Null or an error
// per each resolver's fallback.
func (c *ResolverContext) Funcs() map[string]ResolverFunc {
	funcs := make(map[string]ResolverFunc, len(c.resolvers))
	for name, cfg := range c.resolvers {
		name, cfg := name, cfg
		funcs[name] = func(value domain.Value) (domain.Value, error) {
			id, status := c.Resolve(name, value)
			switch status {
			case ResolveFound:
				return domain.Guid(id), nil
			case ResolveDuplicate:
				if cfg.Fallback == domain.ResolverFallbackNull {
					return domain.Null(), nil
				}
				return domain.Null(), fmt.Errorf("ambiguous match for %q in %s.%s", value, cfg.SourceEntity, cfg.MatchField)
			default:
				if cfg.Fallback == domain.ResolverFallbackNull {
					return domain.Null(), nil
				}
				return domain.Null(), fmt.Errorf("no match for %q in %s.%s", value, cfg.SourceEntity, cfg.MatchField)
			}
		}
	}
	return funcs
}
