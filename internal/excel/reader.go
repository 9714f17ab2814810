package excel

import (
	"bytes"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/dvkit/transfer/internal/domain"
	"github.com/dvkit/transfer/internal/format"
	"github.com/dvkit/transfer/internal/transform"
)

const (
	colSourceEntity = iota
	colTargetEntity
	colPriority
	colTargetField
	colTransformType
	colSourceField
	colCondition
	colConditionValue
	colThenValue
	colElseValue
	colFallback
	colDefaultValue
	columnCount
)

var headerCells = []string{
	"source_entity", "target_entity", "priority", "target_field",
	"transform_type", "source_field", "condition", "condition_value",
	"then_value", "else_value", "fallback", "default_value",
}

type pendingValueMap struct {
	entityKey   string
	targetField string
	sourcePath  domain.FieldPath
	fallback    domain.Fallback
	entries     []transform.ValueMapEntry
}

type pendingReplace struct {
	entityKey   string
	targetField string
	sourcePath  domain.FieldPath
	entries     []domain.Replacement
}

// ReadMapping parses the first sheet of an xlsx mapping workbook into
// entity mappings. The caller supplies config name and environments.
func ReadMapping(payload []byte) ([]transform.EntityMapping, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheets[0], err)
	}

	var entities []*transform.EntityMapping
	index := map[string]*transform.EntityMapping{}
	getEntity := func(key, source, target string, priority int) *transform.EntityMapping {
		if entity, ok := index[key]; ok {
			return entity
		}
		entity := &transform.EntityMapping{
			SourceEntity:   source,
			TargetEntity:   target,
			Priority:       priority,
			OrphanHandling: transform.OrphanIgnore,
		}
		entities = append(entities, entity)
		index[key] = entity
		return entity
	}

	var pendingMap *pendingValueMap
	var pendingRepl *pendingReplace
	finalize := func() {
		if pendingMap != nil {
			entity := index[pendingMap.entityKey]
			entity.FieldMappings = append(entity.FieldMappings, transform.FieldMapping{
				TargetField: pendingMap.targetField,
				Transform: transform.Transform{
					Type: transform.TypeValueMap,
					ValueMap: &transform.ValueMapTransform{
						SourcePath: pendingMap.sourcePath,
						Entries:    pendingMap.entries,
						Fallback:   pendingMap.fallback,
					},
				},
			})
			pendingMap = nil
		}
		if pendingRepl != nil {
			entity := index[pendingRepl.entityKey]
			entity.FieldMappings = append(entity.FieldMappings, transform.FieldMapping{
				TargetField: pendingRepl.targetField,
				Transform: transform.Transform{
					Type: transform.TypeReplace,
					Replace: &transform.ReplaceTransform{
						SourcePath:   pendingRepl.sourcePath,
						Replacements: pendingRepl.entries,
					},
				},
			})
			pendingRepl = nil
		}
	}

	for i := 1; i < len(rows); i++ {
		rowNum := i + 1
		row := rows[i]
		if rowEmpty(row) {
			continue
		}
		sourceEntity := cellAt(row, colSourceEntity)
		targetEntity := cellAt(row, colTargetEntity)
		if sourceEntity == "" || targetEntity == "" {
			continue
		}
		priority := 1
		if parsed, err := strconv.Atoi(cellAt(row, colPriority)); err == nil {
			priority = parsed
		}
		targetField := cellAt(row, colTargetField)
		transformType := strings.ToLower(cellAt(row, colTransformType))
		entityKey := sourceEntity + "\x00" + targetEntity

		switch transformType {
		case "value_map_entry":
			if pendingMap == nil {
				return nil, fmt.Errorf("row %d: value_map_entry without preceding value_map", rowNum)
			}
			pendingMap.entries = append(pendingMap.entries, transform.ValueMapEntry{
				From: ParseValue(cellAt(row, colConditionValue)),
				To:   ParseValue(cellAt(row, colThenValue)),
			})
			continue
		case "replace_entry":
			if pendingRepl == nil {
				return nil, fmt.Errorf("row %d: replace_entry without preceding replace", rowNum)
			}
			pendingRepl.entries = append(pendingRepl.entries, domain.Replacement{
				Pattern:     cellAt(row, colConditionValue),
				Replacement: cellAt(row, colThenValue),
				IsRegex:     strings.ToLower(cellAt(row, colFallback)) == "regex",
			})
			continue
		}

		finalize()

		var built transform.Transform
		switch transformType {
		case "copy", "copy_resolved":
			sourcePath, err := parseSourcePath(row, rowNum)
			if err != nil {
				return nil, err
			}
			cfg := &transform.CopyTransform{SourcePath: sourcePath}
			if transformType == "copy_resolved" {
				cfg.Resolver = cellAt(row, colFallback)
			}
			built = transform.Transform{Type: transform.TypeCopy, Copy: cfg}

		case "constant":
			built = transform.Constant(ParseValue(cellAt(row, colThenValue)))

		case "conditional":
			sourcePath, err := parseSourcePath(row, rowNum)
			if err != nil {
				return nil, err
			}
			condition, ok := ParseCondition(cellAt(row, colCondition), cellAt(row, colConditionValue))
			if !ok {
				return nil, fmt.Errorf("row %d: invalid condition %q", rowNum, cellAt(row, colCondition))
			}
			built = transform.Transform{
				Type: transform.TypeConditional,
				Conditional: &transform.ConditionalTransform{
					SourcePath: sourcePath,
					Condition:  condition,
					Then:       ParseValue(cellAt(row, colThenValue)),
					Else:       ParseValue(cellAt(row, colElseValue)),
				},
			}

		case "value_map":
			sourcePath, err := parseSourcePath(row, rowNum)
			if err != nil {
				return nil, err
			}
			getEntity(entityKey, sourceEntity, targetEntity, priority)
			pendingMap = &pendingValueMap{
				entityKey:   entityKey,
				targetField: targetField,
				sourcePath:  sourcePath,
				fallback:    ParseFallback(cellAt(row, colFallback), cellAt(row, colDefaultValue)),
			}
			continue

		case "format":
			templateStr := cellAt(row, colThenValue)
			if templateStr == "" {
				return nil, fmt.Errorf("row %d: format transform requires a template in the then_value column", rowNum)
			}
			tmpl, err := format.Parse(templateStr)
			if err != nil {
				return nil, fmt.Errorf("row %d: invalid format template: %w", rowNum, err)
			}
			handling, ok := format.ParseNullHandling(cellAt(row, colFallback))
			if !ok {
				handling = format.NullError
			}
			built = transform.Transform{
				Type:   transform.TypeFormat,
				Format: &transform.FormatTransform{Template: tmpl, NullHandling: handling},
			}

		case "replace":
			sourcePath, err := parseSourcePath(row, rowNum)
			if err != nil {
				return nil, err
			}
			getEntity(entityKey, sourceEntity, targetEntity, priority)
			pendingRepl = &pendingReplace{
				entityKey:   entityKey,
				targetField: targetField,
				sourcePath:  sourcePath,
			}
			continue

		default:
			return nil, fmt.Errorf("row %d: unknown transform_type %q", rowNum, transformType)
		}

		entity := getEntity(entityKey, sourceEntity, targetEntity, priority)
		entity.FieldMappings = append(entity.FieldMappings, transform.FieldMapping{
			TargetField: targetField,
			Transform:   built,
		})
	}

	finalize()

	sort.SliceStable(entities, func(i, j int) bool {
		return entities[i].Priority < entities[j].Priority
	})
	out := make([]transform.EntityMapping, 0, len(entities))
	for _, entity := range entities {
		out = append(out, *entity)
	}
	return out, nil
}

func parseSourcePath(row []string, rowNum int) (domain.FieldPath, error) {
	raw := cellAt(row, colSourceField)
	if raw == "" {
		return domain.FieldPath{}, fmt.Errorf("row %d: transform requires source_field", rowNum)
	}
	path, err := domain.ParseFieldPath(raw)
	if err != nil {
		return domain.FieldPath{}, fmt.Errorf("row %d: invalid source_field: %w", rowNum, err)
	}
	return path, nil
}

func cellAt(row []string, i int) string {
	if i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func rowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
