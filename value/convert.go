package value

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// timeFormats are tried in order when parsing timestamp text, RFC3339
// first, then the common SQL spellings with and without fractions.
var timeFormats = []string{
	time.RFC3339,
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ConvertError reports a failed extraction, naming the stored kind and
// the requested one.
type ConvertError struct {
	from Kind
	to   Kind
}

func (e *ConvertError) Error() string {
	return fmt.Sprintf("value: cannot convert %s to %s", e.from, e.to)
}

// From reports the kind held by the source Value.
func (e *ConvertError) From() Kind { return e.from }

// To reports the kind that was requested.
func (e *ConvertError) To() Kind { return e.to }

// ParseError reports text that could not be parsed into a structured
// kind.
type ParseError struct {
	Text   string
	Target Kind
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("value: cannot parse %q as %s: %v", e.Text, e.Target, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// From builds a Value from any supported native scalar. Construction is
// total: unrecognized types are rendered as text rather than rejected.
func From(x any) Value {
	switch t := x.(type) {
	case nil:
		return Null()
	case Value:
		return t
	case bool:
		return Bool(t)
	case int8:
		return Int16(int16(t))
	case uint8:
		return Int16(int16(t))
	case int16:
		return Int16(t)
	case uint16:
		return Int32(int32(t))
	case int32:
		return Int32(t)
	case uint32:
		return Int64(int64(t))
	case int:
		return Int64(int64(t))
	case int64:
		return Int64(t)
	case uint:
		if uint64(t) <= math.MaxInt64 {
			return Int64(int64(t))
		}
		return Decimal(decimal.NewFromBigInt(new(big.Int).SetUint64(uint64(t)), 0))
	case uint64:
		if t <= math.MaxInt64 {
			return Int64(int64(t))
		}
		return Decimal(decimal.NewFromBigInt(new(big.Int).SetUint64(t), 0))
	case float32:
		return Float32(t)
	case float64:
		return Float64(t)
	case string:
		return String(t)
	case []byte:
		return Bytes(t)
	case time.Time:
		return Time(t)
	case *time.Time:
		return NullableTime(t)
	case uuid.UUID:
		return UUID(t)
	case decimal.Decimal:
		return Decimal(t)
	case []Value:
		return Array(t...)
	case map[string]any:
		return JSON(t)
	case []any:
		return JSON(t)
	case json.RawMessage:
		if v, err := ParseJSON(string(t)); err == nil {
			return v
		}
		return String(string(t))
	case *bool:
		return NullableBool(t)
	case *int16:
		return NullableInt16(t)
	case *int32:
		return NullableInt32(t)
	case *int64:
		return NullableInt64(t)
	case *float64:
		return NullableFloat64(t)
	case *string:
		return NullableString(t)
	case *uuid.UUID:
		return NullableUUID(t)
	default:
		return String(fmt.Sprint(x))
	}
}

// Native is the set of Go types To can extract.
type Native interface {
	bool | int16 | int32 | int64 | float32 | float64 |
		string | []byte | time.Time | uuid.UUID | decimal.Decimal
}

// To extracts a native scalar, reporting the stored and requested kinds
// on failure. It applies the same coercions as the As accessors.
func To[T Native](v Value) (T, error) {
	var zero T
	var out any
	var ok bool
	var want Kind
	switch any(zero).(type) {
	case bool:
		want = KindBool
		out, ok = pair(v.AsBool())
	case int16:
		want = KindInt16
		out, ok = pair(v.AsInt16())
	case int32:
		want = KindInt32
		out, ok = pair(v.AsInt32())
	case int64:
		want = KindInt64
		out, ok = pair(v.AsInt64())
	case float32:
		want = KindFloat32
		out, ok = pair(v.AsFloat32())
	case float64:
		want = KindFloat64
		out, ok = pair(v.AsFloat64())
	case string:
		want = KindString
		out, ok = pair(v.AsString())
	case []byte:
		want = KindBytes
		out, ok = pair(v.AsBytes())
	case time.Time:
		want = KindTime
		out, ok = pair(v.AsTime())
	case uuid.UUID:
		want = KindUUID
		out, ok = pair(v.AsUUID())
	case decimal.Decimal:
		want = KindDecimal
		out, ok = pair(v.AsDecimal())
	}
	if !ok {
		return zero, &ConvertError{from: v.kind, to: want}
	}
	return out.(T), nil
}

func pair[T any](v T, ok bool) (any, bool) { return v, ok }

// ParseUUID parses canonical UUID text into a UUID Value.
func ParseUUID(s string) (Value, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return Null(), &ParseError{Text: s, Target: KindUUID, Err: err}
	}
	return UUID(u), nil
}

// ParseTime parses timestamp text into a Time Value, trying RFC3339
// first and then the fixed SQL format list. Formats without a zone are
// read as UTC.
func ParseTime(s string) (Value, error) {
	var firstErr error
	for _, layout := range timeFormats {
		t, err := time.Parse(layout, s)
		if err == nil {
			return Time(t), nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return Null(), &ParseError{Text: s, Target: KindTime, Err: firstErr}
}

// ParseJSON parses JSON text into a JSON Value holding the decoded
// document.
func ParseJSON(s string) (Value, error) {
	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return Null(), &ParseError{Text: s, Target: KindJSON, Err: err}
	}
	return JSON(doc), nil
}

// ParseDecimal parses decimal text into a Decimal Value.
func ParseDecimal(s string) (Value, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Null(), &ParseError{Text: s, Target: KindDecimal, Err: err}
	}
	return Decimal(d), nil
}
