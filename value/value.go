package value

import (
	"bytes"
	"fmt"
	"reflect"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Kind identifies the variant stored in a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindInt16
	KindInt32
	KindInt64
	KindFloat32
	KindFloat64
	KindString
	KindBytes
	KindTime
	KindUUID
	KindJSON
	KindDecimal
	KindArray
	KindEnum
)

var kindNames = [...]string{
	KindNull:    "Null",
	KindBool:    "Bool",
	KindInt16:   "Int16",
	KindInt32:   "Int32",
	KindInt64:   "Int64",
	KindFloat32: "Float32",
	KindFloat64: "Float64",
	KindString:  "String",
	KindBytes:   "Bytes",
	KindTime:    "Time",
	KindUUID:    "UUID",
	KindJSON:    "JSON",
	KindDecimal: "Decimal",
	KindArray:   "Array",
	KindEnum:    "Enum",
}

// String returns the kind name.
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Value is a dynamically typed scalar. The zero Value is Null.
type Value struct {
	kind Kind
	v    any
}

// Null returns the null Value.
func Null() Value { return Value{} }

// Bool returns a Bool Value.
func Bool(b bool) Value { return Value{KindBool, b} }

// Int16 returns an Int16 Value.
func Int16(i int16) Value { return Value{KindInt16, i} }

// Int32 returns an Int32 Value.
func Int32(i int32) Value { return Value{KindInt32, i} }

// Int64 returns an Int64 Value.
func Int64(i int64) Value { return Value{KindInt64, i} }

// Float32 returns a Float32 Value.
func Float32(f float32) Value { return Value{KindFloat32, f} }

// Float64 returns a Float64 Value.
func Float64(f float64) Value { return Value{KindFloat64, f} }

// String returns a String Value.
func String(s string) Value { return Value{KindString, s} }

// Bytes returns a Bytes Value. The slice is not copied.
func Bytes(b []byte) Value { return Value{KindBytes, b} }

// Time returns a Time Value normalized to UTC.
func Time(t time.Time) Value { return Value{KindTime, t.UTC()} }

// UUID returns a UUID Value.
func UUID(u uuid.UUID) Value { return Value{KindUUID, u} }

// JSON returns a JSON Value holding an already decoded document
// (map[string]any, []any, or a JSON scalar).
func JSON(doc any) Value { return Value{KindJSON, doc} }

// Decimal returns a Decimal Value.
func Decimal(d decimal.Decimal) Value { return Value{KindDecimal, d} }

// Array returns an Array Value over the given elements.
func Array(vs ...Value) Value { return Value{KindArray, vs} }

// Enum returns an Enum Value. Enums carry text but keep their own kind
// so user-defined database types stay distinguishable from plain text.
func Enum(s string) Value { return Value{KindEnum, s} }

// NullableBool maps nil to Null.
func NullableBool(b *bool) Value {
	if b == nil {
		return Null()
	}
	return Bool(*b)
}

// NullableInt16 maps nil to Null.
func NullableInt16(i *int16) Value {
	if i == nil {
		return Null()
	}
	return Int16(*i)
}

// NullableInt32 maps nil to Null.
func NullableInt32(i *int32) Value {
	if i == nil {
		return Null()
	}
	return Int32(*i)
}

// NullableInt64 maps nil to Null.
func NullableInt64(i *int64) Value {
	if i == nil {
		return Null()
	}
	return Int64(*i)
}

// NullableFloat64 maps nil to Null.
func NullableFloat64(f *float64) Value {
	if f == nil {
		return Null()
	}
	return Float64(*f)
}

// NullableString maps nil to Null.
func NullableString(s *string) Value {
	if s == nil {
		return Null()
	}
	return String(*s)
}

// NullableTime maps nil to Null.
func NullableTime(t *time.Time) Value {
	if t == nil {
		return Null()
	}
	return Time(*t)
}

// NullableUUID maps nil to Null.
func NullableUUID(u *uuid.UUID) Value {
	if u == nil {
		return Null()
	}
	return UUID(*u)
}

// Kind reports the stored variant.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the Value is Null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Native returns the stored Go representation without conversion: nil
// for Null, bool, int16, int32, int64, float32, float64, string,
// []byte, time.Time, uuid.UUID, the decoded document for JSON,
// decimal.Decimal, []Value for arrays, and string for enums.
func (v Value) Native() any { return v.v }

// AsBool extracts a bool. Integer variants coerce: zero is false, any
// nonzero integer is true.
func (v Value) AsBool() (bool, bool) {
	switch v.kind {
	case KindBool:
		return v.v.(bool), true
	case KindInt16:
		return v.v.(int16) != 0, true
	case KindInt32:
		return v.v.(int32) != 0, true
	case KindInt64:
		return v.v.(int64) != 0, true
	}
	return false, false
}

// AsInt16 extracts an int16. Wider stored integers succeed only when
// the value fits; out-of-range values report ok=false, never wrap.
func (v Value) AsInt16() (int16, bool) {
	switch v.kind {
	case KindInt16:
		return v.v.(int16), true
	case KindInt32:
		i := v.v.(int32)
		if i >= -32768 && i <= 32767 {
			return int16(i), true
		}
	case KindInt64:
		i := v.v.(int64)
		if i >= -32768 && i <= 32767 {
			return int16(i), true
		}
	}
	return 0, false
}

// AsInt32 extracts an int32, widening Int16 and range-checking Int64.
func (v Value) AsInt32() (int32, bool) {
	switch v.kind {
	case KindInt16:
		return int32(v.v.(int16)), true
	case KindInt32:
		return v.v.(int32), true
	case KindInt64:
		i := v.v.(int64)
		if i >= -2147483648 && i <= 2147483647 {
			return int32(i), true
		}
	}
	return 0, false
}

// AsInt64 extracts an int64, widening narrower integer variants.
func (v Value) AsInt64() (int64, bool) {
	switch v.kind {
	case KindInt16:
		return int64(v.v.(int16)), true
	case KindInt32:
		return int64(v.v.(int32)), true
	case KindInt64:
		return v.v.(int64), true
	}
	return 0, false
}

// AsFloat32 extracts a float32. Float64 converts without a range check;
// precision loss is accepted.
func (v Value) AsFloat32() (float32, bool) {
	switch v.kind {
	case KindFloat32:
		return v.v.(float32), true
	case KindFloat64:
		return float32(v.v.(float64)), true
	}
	return 0, false
}

// AsFloat64 extracts a float64 from either float width, any integer
// width, or a Decimal.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindFloat32:
		return float64(v.v.(float32)), true
	case KindFloat64:
		return v.v.(float64), true
	case KindInt16:
		return float64(v.v.(int16)), true
	case KindInt32:
		return float64(v.v.(int32)), true
	case KindInt64:
		return float64(v.v.(int64)), true
	case KindDecimal:
		return v.v.(decimal.Decimal).InexactFloat64(), true
	}
	return 0, false
}

// AsString extracts text from String and Enum variants.
func (v Value) AsString() (string, bool) {
	switch v.kind {
	case KindString, KindEnum:
		return v.v.(string), true
	}
	return "", false
}

// AsBytes extracts a byte slice.
func (v Value) AsBytes() ([]byte, bool) {
	if v.kind == KindBytes {
		return v.v.([]byte), true
	}
	return nil, false
}

// AsTime extracts a UTC instant.
func (v Value) AsTime() (time.Time, bool) {
	if v.kind == KindTime {
		return v.v.(time.Time), true
	}
	return time.Time{}, false
}

// AsUUID extracts a UUID.
func (v Value) AsUUID() (uuid.UUID, bool) {
	if v.kind == KindUUID {
		return v.v.(uuid.UUID), true
	}
	return uuid.Nil, false
}

// AsJSON extracts a decoded JSON document.
func (v Value) AsJSON() (any, bool) {
	if v.kind == KindJSON {
		return v.v, true
	}
	return nil, false
}

// AsDecimal extracts a Decimal.
func (v Value) AsDecimal() (decimal.Decimal, bool) {
	if v.kind == KindDecimal {
		return v.v.(decimal.Decimal), true
	}
	return decimal.Decimal{}, false
}

// AsArray extracts the element slice of an Array.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind == KindArray {
		return v.v.([]Value), true
	}
	return nil, false
}

// Equal reports whether two Values hold the same kind and payload.
func (v Value) Equal(w Value) bool {
	if v.kind != w.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindBytes:
		return bytes.Equal(v.v.([]byte), w.v.([]byte))
	case KindTime:
		return v.v.(time.Time).Equal(w.v.(time.Time))
	case KindDecimal:
		return v.v.(decimal.Decimal).Equal(w.v.(decimal.Decimal))
	case KindJSON:
		return reflect.DeepEqual(v.v, w.v)
	case KindArray:
		a, b := v.v.([]Value), w.v.([]Value)
		if len(a) != len(b) {
			return false
		}
		for i := range a {
			if !a[i].Equal(b[i]) {
				return false
			}
		}
		return true
	default:
		return v.v == w.v
	}
}

// String renders the Value for logs and error messages.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "NULL"
	case KindString, KindEnum:
		return fmt.Sprintf("%s(%q)", v.kind, v.v)
	case KindTime:
		return fmt.Sprintf("Time(%s)", v.v.(time.Time).Format(time.RFC3339Nano))
	case KindBytes:
		return fmt.Sprintf("Bytes(%d)", len(v.v.([]byte)))
	default:
		return fmt.Sprintf("%s(%v)", v.kind, v.v)
	}
}
