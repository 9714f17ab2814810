package odata

import (
	"net/url"
	"strings"

	"github.com/dvkit/transfer/internal/transform"
)

// Query is the fetch request an entity mapping needs: the entity set
// path plus $select and $expand parts.
type Query struct {
	EntitySet string   `json:"entitySet"`
	Select    []string `json:"select,omitempty"`
	Expand    []string `json:"expand,omitempty"`
}

// BuildQuery derives the source fetch query for an entity mapping.
// Plain field reads become $select entries; lookup traversals become
// nested $expand clauses.
func BuildQuery(mapping transform.EntityMapping, forceSimplePlural bool) Query {
	lookups := map[string]bool{}
	tree := NewExpandTree()
	for _, path := range mapping.LookupPaths() {
		lookups[path.BaseField()] = true
		tree.AddPath(path)
	}
	var selects []string
	for _, field := range mapping.SourceFields() {
		if !lookups[field] {
			selects = append(selects, field)
		}
	}
	return Query{
		EntitySet: Pluralize(mapping.SourceEntity, forceSimplePlural),
		Select:    selects,
		Expand:    tree.Clauses(),
	}
}

// String renders the query as a relative request path.
func (q Query) String() string {
	var params []string
	if len(q.Select) > 0 {
		params = append(params, "$select="+strings.Join(q.Select, ","))
	}
	if len(q.Expand) > 0 {
		params = append(params, "$expand="+strings.Join(q.Expand, ","))
	}
	path := url.PathEscape(q.EntitySet)
	if len(params) == 0 {
		return path
	}
	return path + "?" + strings.Join(params, "&")
}
