package transform

import (
	"fmt"

	"github.com/dvkit/transfer/internal/domain"
)

// Engine runs a whole transfer config against in-memory datasets and
// plans the actions a sync would take. Datasets are keyed by entity
// name; records are raw decoded JSON objects.
type Engine struct {
	applier *Applier
}

func NewEngine(applier *Applier) *Engine {
	return &Engine{applier: applier}
}

// TransformAll processes every entity mapping in priority order.
func (e *Engine) TransformAll(cfg TransferConfig, source, target map[string][]map[string]any, primaryKeys map[string]string) (ResolvedTransfer, error) {
	if err := cfg.Validate(); err != nil {
		return ResolvedTransfer{}, fmt.Errorf("invalid config: %w", err)
	}
	resolved := ResolvedTransfer{ConfigName: cfg.Name}
	for _, mapping := range cfg.EntityMappingsByPriority() {
		pkField := primaryKeyFor(mapping.TargetEntity, primaryKeys)
		entity := e.TransformEntity(mapping, source[mapping.SourceEntity], target[mapping.TargetEntity], pkField)
		resolved.Entities = append(resolved.Entities, entity)
	}
	return resolved, nil
}

// TransformEntity transforms every source record and compares the result
// against the target dataset by primary key.
func (e *Engine) TransformEntity(mapping EntityMapping, sourceRecords, targetRecords []map[string]any, pkField string) ResolvedEntity {
	fieldNames := make([]string, 0, len(mapping.FieldMappings))
	for _, fm := range mapping.FieldMappings {
		fieldNames = append(fieldNames, fm.TargetField)
	}
	entity := ResolvedEntity{
		SourceEntity:    mapping.SourceEntity,
		TargetEntity:    mapping.TargetEntity,
		Priority:        mapping.Priority,
		PrimaryKeyField: pkField,
		FieldNames:      fieldNames,
	}

	targetIndex := make(map[string]map[string]any, len(targetRecords))
	for _, record := range targetRecords {
		pkVal := domain.ResolvePath(record, domain.NewFieldPath(pkField))
		if pkVal.IsNull() {
			continue
		}
		targetIndex[normalizeMatchKey(pkVal.String())] = record
	}
	matched := map[string]bool{}

	for _, record := range sourceRecords {
		fields, fieldErrors := e.TransformRecord(mapping, record)
		resolved := ResolvedRecord{Fields: fields, Errors: fieldErrors}
		if len(fieldErrors) > 0 {
			resolved.Action = ActionError
			entity.Records = append(entity.Records, resolved)
			continue
		}
		resolved.Action = ActionCreate
		if pkVal, ok := fields[pkField]; ok && !pkVal.IsNull() {
			key := normalizeMatchKey(pkVal.String())
			if targetRecord, exists := targetIndex[key]; exists {
				matched[key] = true
				if recordMatches(fields, targetRecord) {
					resolved.Action = ActionNoChange
				} else {
					resolved.Action = ActionUpdate
				}
			}
		}
		entity.Records = append(entity.Records, resolved)
	}

	orphanAction := ActionTargetOnly
	switch mapping.OrphanHandling {
	case OrphanDelete:
		orphanAction = ActionDelete
	case OrphanDeactivate:
		orphanAction = ActionDeactivate
	}
	for _, record := range targetRecords {
		pkVal := domain.ResolvePath(record, domain.NewFieldPath(pkField))
		if pkVal.IsNull() {
			continue
		}
		key := normalizeMatchKey(pkVal.String())
		if matched[key] {
			continue
		}
		entity.Records = append(entity.Records, ResolvedRecord{
			Action: orphanAction,
			Fields: map[string]domain.Value{pkField: pkVal},
		})
	}
	return entity
}

// TransformRecord applies every field mapping, collecting failures
// instead of stopping at the first one.
func (e *Engine) TransformRecord(mapping EntityMapping, record map[string]any) (map[string]domain.Value, []FieldError) {
	fields := make(map[string]domain.Value, len(mapping.FieldMappings))
	var fieldErrors []FieldError
	for _, fm := range mapping.FieldMappings {
		value, err := e.applier.Apply(fm.Transform, record)
		if err != nil {
			fieldErrors = append(fieldErrors, FieldError{Field: fm.TargetField, Message: err.Error()})
			continue
		}
		fields[fm.TargetField] = value
	}
	return fields, fieldErrors
}

// recordMatches reports whether every transformed field equals the
// corresponding value on the target record.
func recordMatches(fields map[string]domain.Value, targetRecord map[string]any) bool {
	for field, value := range fields {
		actual := domain.ResolvePath(targetRecord, domain.NewFieldPath(field))
		if !domain.LooseEqual(value, actual) {
			return false
		}
	}
	return true
}
