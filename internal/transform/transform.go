package transform

import (
	"encoding/json"
	"fmt"

	"github.com/dvkit/transfer/internal/domain"
	"github.com/dvkit/transfer/internal/format"
)

// Type discriminates the transform union.
type Type string

const (
	TypeCopy        Type = "copy"
	TypeConstant    Type = "constant"
	TypeConditional Type = "conditional"
	TypeValueMap    Type = "value_map"
	TypeFormat      Type = "format"
	TypeReplace     Type = "replace"
)

// Transform produces one target field value from a source record. Exactly
// one config pointer matching Type is set.
type Transform struct {
	Type        Type                  `json:"type"`
	Copy        *CopyTransform        `json:"copy,omitempty"`
	Constant    *ConstantTransform    `json:"constant,omitempty"`
	Conditional *ConditionalTransform `json:"conditional,omitempty"`
	ValueMap    *ValueMapTransform    `json:"valueMap,omitempty"`
	Format      *FormatTransform      `json:"format,omitempty"`
	Replace     *ReplaceTransform     `json:"replace,omitempty"`
}

// CopyTransform reads a source path, optionally resolving the value to a
// target-environment GUID through a named resolver.
type CopyTransform struct {
	SourcePath domain.FieldPath `json:"sourcePath"`
	Resolver   string           `json:"resolver,omitempty"`
}

// ConstantTransform emits a fixed value, which may be a dynamic
// placeholder resolved per record.
type ConstantTransform struct {
	Value domain.Value `json:"value"`
}

// ConditionalTransform picks between two values based on a condition over
// a source field.
type ConditionalTransform struct {
	SourcePath domain.FieldPath `json:"sourcePath"`
	Condition  domain.Condition `json:"condition"`
	Then       domain.Value     `json:"then"`
	Else       domain.Value     `json:"else"`
}

// ValueMapEntry maps one source value to one target value.
type ValueMapEntry struct {
	From domain.Value `json:"from"`
	To   domain.Value `json:"to"`
}

// ValueMapTransform translates a source field through an ordered entry
// list; the first structurally-equal entry wins.
type ValueMapTransform struct {
	SourcePath domain.FieldPath `json:"sourcePath"`
	Entries    []ValueMapEntry  `json:"entries"`
	Fallback   domain.Fallback  `json:"fallback"`
}

// FormatTransform renders a template against the whole source record.
type FormatTransform struct {
	Template     *format.Template
	NullHandling format.NullHandling
}

type formatTransformJSON struct {
	Template     string              `json:"template"`
	NullHandling format.NullHandling `json:"nullHandling"`
}

func (f FormatTransform) MarshalJSON() ([]byte, error) {
	source := ""
	if f.Template != nil {
		source = f.Template.Source
	}
	return json.Marshal(formatTransformJSON{Template: source, NullHandling: f.NullHandling})
}

func (f *FormatTransform) UnmarshalJSON(data []byte) error {
	var raw formatTransformJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode format transform: %w", err)
	}
	tmpl, err := format.Parse(raw.Template)
	if err != nil {
		return fmt.Errorf("decode format transform: %w", err)
	}
	handling := raw.NullHandling
	if handling == "" {
		handling = format.NullError
	}
	*f = FormatTransform{Template: tmpl, NullHandling: handling}
	return nil
}

// ReplaceTransform rewrites the stringified source field through an
// ordered replacement list.
type ReplaceTransform struct {
	SourcePath   domain.FieldPath     `json:"sourcePath"`
	Replacements []domain.Replacement `json:"replacements"`
}

// Copy builds a plain copy transform.
func Copy(path domain.FieldPath) Transform {
	return Transform{Type: TypeCopy, Copy: &CopyTransform{SourcePath: path}}
}

// CopyResolved builds a copy transform routed through a named resolver.
func CopyResolved(path domain.FieldPath, resolver string) Transform {
	return Transform{Type: TypeCopy, Copy: &CopyTransform{SourcePath: path, Resolver: resolver}}
}

// Constant builds a constant transform.
func Constant(value domain.Value) Transform {
	return Transform{Type: TypeConstant, Constant: &ConstantTransform{Value: value}}
}

// Validate checks that the config matching Type is present.
func (t Transform) Validate() error {
	switch t.Type {
	case TypeCopy:
		if t.Copy == nil {
			return fmt.Errorf("copy transform missing config")
		}
	case TypeConstant:
		if t.Constant == nil {
			return fmt.Errorf("constant transform missing config")
		}
	case TypeConditional:
		if t.Conditional == nil {
			return fmt.Errorf("conditional transform missing config")
		}
	case TypeValueMap:
		if t.ValueMap == nil {
			return fmt.Errorf("value_map transform missing config")
		}
	case TypeFormat:
		if t.Format == nil || t.Format.Template == nil {
			return fmt.Errorf("format transform missing config")
		}
	case TypeReplace:
		if t.Replace == nil {
			return fmt.Errorf("replace transform missing config")
		}
	default:
		return fmt.Errorf("unknown transform type %q", t.Type)
	}
	return nil
}

// Describe renders a short human summary for logs and previews.
func (t Transform) Describe() string {
	switch t.Type {
	case TypeCopy:
		if t.Copy == nil {
			return "copy(?)"
		}
		if t.Copy.Resolver != "" {
			return fmt.Sprintf("copy(%s) via %s", t.Copy.SourcePath, t.Copy.Resolver)
		}
		return fmt.Sprintf("copy(%s)", t.Copy.SourcePath)
	case TypeConstant:
		if t.Constant == nil {
			return "constant(?)"
		}
		return fmt.Sprintf("constant(%s)", t.Constant.Value)
	case TypeConditional:
		if t.Conditional == nil {
			return "if(?)"
		}
		c := t.Conditional
		return fmt.Sprintf("if(%s %s) then %s else %s", c.SourcePath, c.Condition, c.Then, c.Else)
	case TypeValueMap:
		if t.ValueMap == nil {
			return "map(?)"
		}
		return fmt.Sprintf("map(%s) [%d entries]", t.ValueMap.SourcePath, len(t.ValueMap.Entries))
	case TypeFormat:
		if t.Format == nil || t.Format.Template == nil {
			return "format(?)"
		}
		return fmt.Sprintf("format(%s)", t.Format.Template.Source)
	case TypeReplace:
		if t.Replace == nil {
			return "replace(?)"
		}
		return fmt.Sprintf("replace(%s) [%d rules]", t.Replace.SourcePath, len(t.Replace.Replacements))
	default:
		return string(t.Type)
	}
}

// SourceFields lists the distinct base fields the transform reads.
func (t Transform) SourceFields() []string {
	var fields []string
	seen := map[string]bool{}
	add := func(field string) {
		if field != "" && !seen[field] {
			seen[field] = true
			fields = append(fields, field)
		}
	}
	switch t.Type {
	case TypeCopy:
		if t.Copy != nil {
			add(t.Copy.SourcePath.BaseField())
		}
	case TypeConditional:
		if t.Conditional != nil {
			add(t.Conditional.SourcePath.BaseField())
		}
	case TypeValueMap:
		if t.ValueMap != nil {
			add(t.ValueMap.SourcePath.BaseField())
		}
	case TypeFormat:
		if t.Format != nil && t.Format.Template != nil {
			for _, field := range t.Format.Template.BaseFields() {
				add(field)
			}
		}
	case TypeReplace:
		if t.Replace != nil {
			add(t.Replace.SourcePath.BaseField())
		}
	}
	return fields
}

// LookupPaths lists the lookup-traversing paths the transform reads,
// feeding $expand clause construction.
func (t Transform) LookupPaths() []domain.FieldPath {
	var paths []domain.FieldPath
	switch t.Type {
	case TypeCopy:
		if t.Copy != nil && t.Copy.SourcePath.IsLookup() {
			paths = append(paths, t.Copy.SourcePath)
		}
	case TypeConditional:
		if t.Conditional != nil && t.Conditional.SourcePath.IsLookup() {
			paths = append(paths, t.Conditional.SourcePath)
		}
	case TypeValueMap:
		if t.ValueMap != nil && t.ValueMap.SourcePath.IsLookup() {
			paths = append(paths, t.ValueMap.SourcePath)
		}
	case TypeFormat:
		if t.Format != nil && t.Format.Template != nil {
			for _, path := range t.Format.Template.FieldPaths() {
				if path.IsLookup() {
					paths = append(paths, path)
				}
			}
		}
	case TypeReplace:
		if t.Replace != nil && t.Replace.SourcePath.IsLookup() {
			paths = append(paths, t.Replace.SourcePath)
		}
	}
	return paths
}
