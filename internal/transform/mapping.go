package transform

import (
	"fmt"
	"sort"

	"github.com/dvkit/transfer/internal/domain"
)

// OrphanHandling selects what happens to target records with no source
// counterpart.
type OrphanHandling string

const (
	OrphanIgnore     OrphanHandling = "ignore"
	OrphanDelete     OrphanHandling = "delete"
	OrphanDeactivate OrphanHandling = "deactivate"
)

// FieldMapping produces one target field.
type FieldMapping struct {
	TargetField string    `json:"targetField"`
	Transform   Transform `json:"transform"`
}

// EntityMapping maps one source entity onto one target entity.
type EntityMapping struct {
	SourceEntity   string         `json:"sourceEntity"`
	TargetEntity   string         `json:"targetEntity"`
	Priority       int            `json:"priority"`
	OrphanHandling OrphanHandling `json:"orphanHandling,omitempty"`
	FieldMappings  []FieldMapping `json:"fieldMappings"`
}

// SourceFields lists the distinct base fields the mapping reads, in
// first-use order, for building $select clauses.
func (m EntityMapping) SourceFields() []string {
	var fields []string
	seen := map[string]bool{}
	for _, fm := range m.FieldMappings {
		for _, field := range fm.Transform.SourceFields() {
			if !seen[field] {
				seen[field] = true
				fields = append(fields, field)
			}
		}
	}
	return fields
}

// LookupPaths lists every lookup-traversing path the mapping reads.
func (m EntityMapping) LookupPaths() []domain.FieldPath {
	var paths []domain.FieldPath
	seen := map[string]bool{}
	for _, fm := range m.FieldMappings {
		for _, path := range fm.Transform.LookupPaths() {
			key := path.String()
			if !seen[key] {
				seen[key] = true
				paths = append(paths, path)
			}
		}
	}
	return paths
}

// TransferConfig is a complete migration definition between two
// environments.
type TransferConfig struct {
	Name           string            `json:"name"`
	SourceEnv      string            `json:"sourceEnv"`
	TargetEnv      string            `json:"targetEnv"`
	EntityMappings []EntityMapping   `json:"entityMappings"`
	Resolvers      []domain.Resolver `json:"resolvers,omitempty"`
}

// EntityMappingsByPriority returns the mappings sorted by ascending
// priority. The sort is stable so equal priorities keep file order.
func (c TransferConfig) EntityMappingsByPriority() []EntityMapping {
	out := append([]EntityMapping(nil), c.EntityMappings...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority < out[j].Priority
	})
	return out
}

// Validate checks the config is runnable.
func (c TransferConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("config name is required")
	}
	if len(c.EntityMappings) == 0 {
		return fmt.Errorf("config %q has no entity mappings", c.Name)
	}
	for _, mapping := range c.EntityMappings {
		if mapping.SourceEntity == "" || mapping.TargetEntity == "" {
			return fmt.Errorf("config %q: entity mapping missing source or target entity", c.Name)
		}
		for _, fm := range mapping.FieldMappings {
			if fm.TargetField == "" {
				return fmt.Errorf("config %q: %s -> %s has a field mapping without a target field", c.Name, mapping.SourceEntity, mapping.TargetEntity)
			}
			if err := fm.Transform.Validate(); err != nil {
				return fmt.Errorf("config %q: field %s: %w", c.Name, fm.TargetField, err)
			}
		}
	}
	seen := map[string]bool{}
	for _, r := range c.Resolvers {
		if r.Name == "" {
			return fmt.Errorf("config %q has a resolver without a name", c.Name)
		}
		if seen[r.Name] {
			return fmt.Errorf("config %q: duplicate resolver %q", c.Name, r.Name)
		}
		seen[r.Name] = true
	}
	return nil
}
