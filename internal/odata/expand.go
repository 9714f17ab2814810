package odata

import (
	"sort"
	"strings"

	"github.com/dvkit/transfer/internal/domain"
)

// ExpandTree accumulates lookup field paths and renders them as nested
// OData $expand clauses. Output ordering is alphabetical so clauses are
// deterministic regardless of insertion order.
type ExpandTree struct {
	root expandNode
}

type expandNode struct {
	selects  map[string]bool
	children map[string]*expandNode
}

func NewExpandTree() *ExpandTree {
	return &ExpandTree{root: newExpandNode()}
}

func newExpandNode() expandNode {
	return expandNode{selects: map[string]bool{}, children: map[string]*expandNode{}}
}

// AddPath records a lookup traversal. Paths with fewer than two segments
// carry no expansion and are ignored.
func (t *ExpandTree) AddPath(path domain.FieldPath) {
	segments := path.Segments()
	if len(segments) < 2 {
		return
	}
	node := &t.root
	for _, nav := range segments[:len(segments)-2] {
		child, ok := node.children[nav]
		if !ok {
			fresh := newExpandNode()
			child = &fresh
			node.children[nav] = child
		}
		node = child
	}
	nav := segments[len(segments)-2]
	child, ok := node.children[nav]
	if !ok {
		fresh := newExpandNode()
		child = &fresh
		node.children[nav] = child
	}
	child.selects[segments[len(segments)-1]] = true
}

// Clauses renders the top-level expand clauses, one per navigation
// property, e.g. "userid($select=fullname;$expand=contactid($select=email))".
func (t *ExpandTree) Clauses() []string {
	names := sortedKeys(t.root.children)
	clauses := make([]string, 0, len(names))
	for _, name := range names {
		clauses = append(clauses, t.root.children[name].clause(name))
	}
	return clauses
}

// IsEmpty reports whether any path was added.
func (t *ExpandTree) IsEmpty() bool {
	return len(t.root.children) == 0
}

func (n *expandNode) clause(name string) string {
	var parts []string
	if len(n.selects) > 0 {
		fields := make([]string, 0, len(n.selects))
		for field := range n.selects {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		parts = append(parts, "$select="+strings.Join(fields, ","))
	}
	if len(n.children) > 0 {
		names := sortedKeys(n.children)
		subs := make([]string, 0, len(names))
		for _, childName := range names {
			subs = append(subs, n.children[childName].clause(childName))
		}
		parts = append(parts, "$expand="+strings.Join(subs, ","))
	}
	if len(parts) == 0 {
		return name
	}
	return name + "(" + strings.Join(parts, ";") + ")"
}

func sortedKeys(m map[string]*expandNode) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
