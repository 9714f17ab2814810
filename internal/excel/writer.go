package excel

import (
	"bytes"
	"fmt"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/dvkit/transfer/internal/domain"
	"github.com/dvkit/transfer/internal/transform"
)

const mappingSheet = "Mappings"

// WriteMapping renders entity mappings as an xlsx workbook that
// ReadMapping round-trips. Option set labels are not reconstructed.
func WriteMapping(mappings []transform.EntityMapping) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), mappingSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("name sheet: %w", err)
	}

	rowNum := 1
	writeRow := func(row []any) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(mappingSheet, cell, &row); err != nil {
			return err
		}
		rowNum++
		return nil
	}

	header := make([]any, len(headerCells))
	for i, name := range headerCells {
		header[i] = name
	}
	if err := writeRow(header); err != nil {
		f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for _, entity := range mappings {
		for _, fm := range entity.FieldMappings {
			rows, err := fieldMappingRows(entity, fm)
			if err != nil {
				f.Close()
				return nil, err
			}
			for _, row := range rows {
				if err := writeRow(row); err != nil {
					f.Close()
					return nil, fmt.Errorf("write row: %w", err)
				}
			}
		}
	}
	return f, nil
}

// WriteMappingBytes is WriteMapping serialized to an xlsx payload.
func WriteMappingBytes(mappings []transform.EntityMapping) ([]byte, error) {
	f, err := WriteMapping(mappings)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func fieldMappingRows(entity transform.EntityMapping, fm transform.FieldMapping) ([][]any, error) {
	t := fm.Transform
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("field %s: %w", fm.TargetField, err)
	}
	switch t.Type {
	case transform.TypeCopy:
		row := baseRow(entity, fm.TargetField)
		if t.Copy.Resolver != "" {
			row[colTransformType] = "copy_resolved"
			row[colFallback] = t.Copy.Resolver
		} else {
			row[colTransformType] = "copy"
		}
		row[colSourceField] = t.Copy.SourcePath.String()
		return [][]any{row}, nil

	case transform.TypeConstant:
		row := baseRow(entity, fm.TargetField)
		row[colTransformType] = "constant"
		row[colThenValue] = FormatValue(t.Constant.Value)
		return [][]any{row}, nil

	case transform.TypeConditional:
		row := baseRow(entity, fm.TargetField)
		row[colTransformType] = "conditional"
		row[colSourceField] = t.Conditional.SourcePath.String()
		row[colCondition] = FormatConditionOp(t.Conditional.Condition.Op)
		switch t.Conditional.Condition.Op {
		case domain.ConditionEquals, domain.ConditionNotEquals:
			row[colConditionValue] = FormatValue(t.Conditional.Condition.Value)
		}
		row[colThenValue] = FormatValue(t.Conditional.Then)
		row[colElseValue] = FormatValue(t.Conditional.Else)
		return [][]any{row}, nil

	case transform.TypeValueMap:
		rows := [][]any{}
		head := baseRow(entity, fm.TargetField)
		head[colTransformType] = "value_map"
		head[colSourceField] = t.ValueMap.SourcePath.String()
		head[colFallback] = FormatFallback(t.ValueMap.Fallback)
		if t.ValueMap.Fallback.Type == domain.FallbackDefault {
			head[colDefaultValue] = FormatValue(t.ValueMap.Fallback.Default)
		}
		rows = append(rows, head)
		for _, entry := range t.ValueMap.Entries {
			row := baseRow(entity, fm.TargetField)
			row[colTransformType] = "value_map_entry"
			row[colConditionValue] = FormatValue(entry.From)
			row[colThenValue] = FormatValue(entry.To)
			rows = append(rows, row)
		}
		return rows, nil

	case transform.TypeFormat:
		row := baseRow(entity, fm.TargetField)
		row[colTransformType] = "format"
		row[colThenValue] = t.Format.Template.Source
		row[colFallback] = string(t.Format.NullHandling)
		return [][]any{row}, nil

	case transform.TypeReplace:
		rows := [][]any{}
		head := baseRow(entity, fm.TargetField)
		head[colTransformType] = "replace"
		head[colSourceField] = t.Replace.SourcePath.String()
		rows = append(rows, head)
		for _, rule := range t.Replace.Replacements {
			row := baseRow(entity, fm.TargetField)
			row[colTransformType] = "replace_entry"
			row[colConditionValue] = rule.Pattern
			row[colThenValue] = rule.Replacement
			if rule.IsRegex {
				row[colFallback] = "regex"
			}
			rows = append(rows, row)
		}
		return rows, nil

	default:
		return nil, fmt.Errorf("field %s: unknown transform type %q", fm.TargetField, t.Type)
	}
}

func baseRow(entity transform.EntityMapping, targetField string) []any {
	row := make([]any, columnCount)
	for i := range row {
		row[i] = ""
	}
	row[colSourceEntity] = entity.SourceEntity
	row[colTargetEntity] = entity.TargetEntity
	row[colPriority] = strconv.Itoa(entity.Priority)
	row[colTargetField] = targetField
	return row
}
