package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FieldPath addresses a field on a record, optionally traversing lookup
// navigation properties: "parentcustomerid.name" reads the name field of
// the record referenced by parentcustomerid.
type FieldPath struct {
	segments []string
}

// NewFieldPath builds a path from already-validated segments.
func NewFieldPath(segments ...string) FieldPath {
	copied := append([]string(nil), segments...)
	return FieldPath{segments: copied}
}

// ParseFieldPath splits a dot-separated path. The path must be non-empty
// and every segment must be non-empty.
func ParseFieldPath(raw string) (FieldPath, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return FieldPath{}, fmt.Errorf("field path is empty")
	}
	segments := strings.Split(trimmed, ".")
	for _, segment := range segments {
		if strings.TrimSpace(segment) == "" {
			return FieldPath{}, fmt.Errorf("field path %q has an empty segment", raw)
		}
	}
	for i, segment := range segments {
		segments[i] = strings.TrimSpace(segment)
	}
	return FieldPath{segments: segments}, nil
}

// MustFieldPath is ParseFieldPath for static paths; it panics on error.
func MustFieldPath(raw string) FieldPath {
	path, err := ParseFieldPath(raw)
	if err != nil {
		panic(err)
	}
	return path
}

func (p FieldPath) Segments() []string {
	return append([]string(nil), p.segments...)
}

// BaseField is the first segment: the field on the record itself.
func (p FieldPath) BaseField() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[0]
}

// TargetField is the last segment: the field the path ultimately reads.
func (p FieldPath) TargetField() string {
	if len(p.segments) == 0 {
		return ""
	}
	return p.segments[len(p.segments)-1]
}

// IsLookup reports whether the path traverses at least one lookup.
func (p FieldPath) IsLookup() bool {
	return len(p.segments) > 1
}

// LookupField returns the second segment when the path is a lookup
// traversal.
func (p FieldPath) LookupField() (string, bool) {
	if len(p.segments) < 2 {
		return "", false
	}
	return p.segments[1], true
}

func (p FieldPath) String() string {
	return strings.Join(p.segments, ".")
}

func (p FieldPath) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *FieldPath) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("decode field path: %w", err)
	}
	parsed, err := ParseFieldPath(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
