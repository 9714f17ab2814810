package domain

// ResolverFallback selects what an unresolvable lookup becomes.
type ResolverFallback string

const (
	ResolverFallbackError ResolverFallback = "error"
	ResolverFallbackNull  ResolverFallback = "null"
)

// Resolver configures a named lookup resolver: source values are matched
// against MatchField of SourceEntity records in the target environment to
// find the referenced record's GUID.
type Resolver struct {
	Name         string           `json:"name"`
	SourceEntity string           `json:"sourceEntity"`
	MatchField   string           `json:"matchField"`
	Fallback     ResolverFallback `json:"fallback"`
}
