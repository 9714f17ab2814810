package domain

import "strings"

// ResolvePath walks a field path through a raw record. Each intermediate
// segment must land on a nested object (an expanded lookup). Lookup
// matching tries the exact key, then a case-insensitive match (Dataverse
// navigation properties keep schema casing), then the flattened OData
// form "_<segment>_value". A missing key or JSON null anywhere yields
// Null rather than an error.
func ResolvePath(record map[string]any, path FieldPath) Value {
	var current any = record
	for _, segment := range path.segments {
		obj, ok := current.(map[string]any)
		if !ok {
			return Null()
		}
		next, found := lookupKey(obj, segment)
		if !found {
			return Null()
		}
		current = next
	}
	return FromJSON(current)
}

func lookupKey(obj map[string]any, segment string) (any, bool) {
	if val, ok := obj[segment]; ok {
		return val, true
	}
	for key, val := range obj {
		if strings.EqualFold(key, segment) {
			return val, true
		}
	}
	if val, ok := obj["_"+segment+"_value"]; ok {
		return val, true
	}
	return nil, false
}
