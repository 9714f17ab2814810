package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// ValueKind discriminates the Value union on the wire.
type ValueKind string

const (
	KindNull      ValueKind = "null"
	KindString    ValueKind = "string"
	KindInt       ValueKind = "int"
	KindFloat     ValueKind = "float"
	KindBool      ValueKind = "bool"
	KindDateTime  ValueKind = "datetime"
	KindGuid      ValueKind = "guid"
	KindOptionSet ValueKind = "optionset"
	KindDynamic   ValueKind = "dynamic"
)

// DynamicValue is a placeholder resolved at apply time.
type DynamicValue string

const (
	DynamicSource  DynamicValue = "$source"
	DynamicNow     DynamicValue = "$now"
	DynamicNewGuid DynamicValue = "$guid"
)

// ParseDynamic recognises the dynamic placeholder literals.
func ParseDynamic(s string) (DynamicValue, bool) {
	switch DynamicValue(s) {
	case DynamicSource, DynamicNow, DynamicNewGuid:
		return DynamicValue(s), true
	default:
		return "", false
	}
}

// ErrUnresolvedDynamic is returned when a Dynamic value reaches
// serialization without having been resolved.
var ErrUnresolvedDynamic = errors.New("dynamic values must be resolved before serialization")

// Value is a typed record field value. The zero Value is Null.
type Value struct {
	kind ValueKind
	str  string
	i    int64
	f    float64
	b    bool
	t    time.Time
	id   uuid.UUID
	opt  int32
	dyn  DynamicValue
}

func Null() Value                  { return Value{kind: KindNull} }
func String(s string) Value        { return Value{kind: KindString, str: s} }
func Int(i int64) Value            { return Value{kind: KindInt, i: i} }
func Float(f float64) Value        { return Value{kind: KindFloat, f: f} }
func Bool(b bool) Value            { return Value{kind: KindBool, b: b} }
func DateTime(t time.Time) Value   { return Value{kind: KindDateTime, t: t.UTC()} }
func Guid(id uuid.UUID) Value      { return Value{kind: KindGuid, id: id} }
func OptionSet(n int32) Value      { return Value{kind: KindOptionSet, opt: n} }
func Dynamic(d DynamicValue) Value { return Value{kind: KindDynamic, dyn: d} }

func (v Value) Kind() ValueKind {
	if v.kind == "" {
		return KindNull
	}
	return v.kind
}

func (v Value) IsNull() bool    { return v.Kind() == KindNull }
func (v Value) IsDynamic() bool { return v.Kind() == KindDynamic }

func (v Value) AsString() (string, bool)       { return v.str, v.kind == KindString }
func (v Value) AsInt() (int64, bool)           { return v.i, v.kind == KindInt }
func (v Value) AsFloat() (float64, bool)       { return v.f, v.kind == KindFloat }
func (v Value) AsBool() (bool, bool)           { return v.b, v.kind == KindBool }
func (v Value) AsDateTime() (time.Time, bool)  { return v.t, v.kind == KindDateTime }
func (v Value) AsGuid() (uuid.UUID, bool)      { return v.id, v.kind == KindGuid }
func (v Value) AsOptionSet() (int32, bool)     { return v.opt, v.kind == KindOptionSet }
func (v Value) AsDynamic() (DynamicValue, bool) { return v.dyn, v.kind == KindDynamic }

// Equal is strict structural equality: kinds must match exactly.
// Int(1) and Float(1) are not equal here.
func (v Value) Equal(other Value) bool {
	if v.Kind() != other.Kind() {
		return false
	}
	switch v.Kind() {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindInt:
		return v.i == other.i
	case KindFloat:
		return v.f == other.f
	case KindBool:
		return v.b == other.b
	case KindDateTime:
		return v.t.Equal(other.t)
	case KindGuid:
		return v.id == other.id
	case KindOptionSet:
		return v.opt == other.opt
	case KindDynamic:
		return v.dyn == other.dyn
	default:
		return false
	}
}

// LooseEqual compares with numeric coercion: Int, Float, and OptionSet
// values equal each other when their numeric values match.
func LooseEqual(a, b Value) bool {
	an, aok := a.numeric()
	bn, bok := b.numeric()
	if aok && bok {
		return math.Abs(an-bn) < 1e-9
	}
	return a.Equal(b)
}

func (v Value) numeric() (float64, bool) {
	switch v.Kind() {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	case KindOptionSet:
		return float64(v.opt), true
	default:
		return 0, false
	}
}

// String renders a display form for diagnostics and templates.
func (v Value) String() string {
	switch v.Kind() {
	case KindNull:
		return "(null)"
	case KindString:
		return v.str
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindDateTime:
		return v.t.Format(time.RFC3339)
	case KindGuid:
		return v.id.String()
	case KindOptionSet:
		return strconv.FormatInt(int64(v.opt), 10)
	case KindDynamic:
		return string(v.dyn)
	default:
		return "(null)"
	}
}

// ToJSON converts to the plain JSON representation used for record
// payloads. Dynamic values are an error: they must be resolved first.
func (v Value) ToJSON() (any, error) {
	switch v.Kind() {
	case KindNull:
		return nil, nil
	case KindString:
		return v.str, nil
	case KindInt:
		return v.i, nil
	case KindFloat:
		return v.f, nil
	case KindBool:
		return v.b, nil
	case KindDateTime:
		return v.t.Format(time.RFC3339), nil
	case KindGuid:
		return v.id.String(), nil
	case KindOptionSet:
		return v.opt, nil
	case KindDynamic:
		return nil, ErrUnresolvedDynamic
	default:
		return nil, nil
	}
}

// FromJSON converts a decoded JSON value into a typed Value. Strings are
// upgraded when they parse as a GUID or an RFC-3339 timestamp, in that
// order. Arrays and objects collapse to their compact JSON text.
func FromJSON(raw any) Value {
	switch val := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(val)
	case float64:
		if val == math.Trunc(val) && !math.IsInf(val, 0) && math.Abs(val) < 1<<53 {
			return Int(int64(val))
		}
		return Float(val)
	case int:
		return Int(int64(val))
	case int64:
		return Int(val)
	case int32:
		return Int(int64(val))
	case json.Number:
		if i, err := val.Int64(); err == nil {
			return Int(i)
		}
		if f, err := val.Float64(); err == nil {
			return Float(f)
		}
		return String(val.String())
	case string:
		if id, err := uuid.Parse(val); err == nil {
			return Guid(id)
		}
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return DateTime(t)
		}
		return String(val)
	default:
		encoded, err := json.Marshal(val)
		if err != nil {
			return String(fmt.Sprintf("%v", val))
		}
		return String(string(encoded))
	}
}

type valueEnvelope struct {
	Type  ValueKind       `json:"type"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes the tagged form {"type": ..., "value": ...}.
func (v Value) MarshalJSON() ([]byte, error) {
	env := valueEnvelope{Type: v.Kind()}
	var inner any
	switch v.Kind() {
	case KindNull:
		return json.Marshal(env)
	case KindString:
		inner = v.str
	case KindInt:
		inner = v.i
	case KindFloat:
		inner = v.f
	case KindBool:
		inner = v.b
	case KindDateTime:
		inner = v.t.Format(time.RFC3339)
	case KindGuid:
		inner = v.id.String()
	case KindOptionSet:
		inner = v.opt
	case KindDynamic:
		inner = string(v.dyn)
	}
	encoded, err := json.Marshal(inner)
	if err != nil {
		return nil, err
	}
	env.Value = encoded
	return json.Marshal(env)
}

func (v *Value) UnmarshalJSON(data []byte) error {
	var env valueEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("decode value: %w", err)
	}
	switch env.Type {
	case KindNull, "":
		*v = Null()
		return nil
	case KindString:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return fmt.Errorf("decode string value: %w", err)
		}
		*v = String(s)
	case KindInt:
		var i int64
		if err := json.Unmarshal(env.Value, &i); err != nil {
			return fmt.Errorf("decode int value: %w", err)
		}
		*v = Int(i)
	case KindFloat:
		var f float64
		if err := json.Unmarshal(env.Value, &f); err != nil {
			return fmt.Errorf("decode float value: %w", err)
		}
		*v = Float(f)
	case KindBool:
		var b bool
		if err := json.Unmarshal(env.Value, &b); err != nil {
			return fmt.Errorf("decode bool value: %w", err)
		}
		*v = Bool(b)
	case KindDateTime:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return fmt.Errorf("decode datetime value: %w", err)
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("decode datetime value: %w", err)
		}
		*v = DateTime(t)
	case KindGuid:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return fmt.Errorf("decode guid value: %w", err)
		}
		id, err := uuid.Parse(s)
		if err != nil {
			return fmt.Errorf("decode guid value: %w", err)
		}
		*v = Guid(id)
	case KindOptionSet:
		var n int32
		if err := json.Unmarshal(env.Value, &n); err != nil {
			return fmt.Errorf("decode optionset value: %w", err)
		}
		*v = OptionSet(n)
	case KindDynamic:
		var s string
		if err := json.Unmarshal(env.Value, &s); err != nil {
			return fmt.Errorf("decode dynamic value: %w", err)
		}
		dyn, ok := ParseDynamic(s)
		if !ok {
			return fmt.Errorf("unknown dynamic placeholder %q", s)
		}
		*v = Dynamic(dyn)
	default:
		return fmt.Errorf("unknown value type %q", env.Type)
	}
	return nil
}
