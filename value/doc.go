// Package value defines the canonical dynamic value representation used
// across FluxORM.
//
// Every scalar that crosses the database boundary is carried as a Value,
// a closed tagged union over the kinds a relational backend can produce:
//
//   - Null
//   - Bool
//   - Int16, Int32, Int64
//   - Float32, Float64
//   - String
//   - Bytes
//   - Time (UTC-normalized instant)
//   - UUID
//   - JSON (decoded document)
//   - Decimal (arbitrary precision)
//   - Array (ordered sequence of Value)
//   - Enum (textual, distinct from String)
//
// # Construction
//
// Construction from a native scalar never fails:
//
//	v := value.Int64(42)
//	s := value.String("hello")
//	t := value.Time(time.Now()) // stored in UTC
//
// Pointer-shaped constructors map nil to Null:
//
//	var name *string
//	v := value.NullableString(name) // Null
//
// # Extraction
//
// Extraction is comma-ok and never panics. Integer narrowing is
// range-checked: a stored value that does not fit the requested width
// reports ok=false instead of wrapping.
//
//	n, ok := value.Int32(70000).AsInt16() // ok == false
//	w, ok := value.Int16(7).AsInt64()     // widening always succeeds
//
// The To function is the error-reporting counterpart, naming the stored
// and requested kinds on failure:
//
//	n, err := value.To[int16](value.Int64(1 << 20))
//	// err: value: cannot convert Int64 to Int16
//
// # Parsing
//
// Text parses on demand into structured kinds. Failures are reported as
// *ParseError, never as a silent default:
//
//	v, err := value.ParseUUID("0195b3a6-...")
//	v, err := value.ParseTime("2024-01-02 15:04:05")
//	v, err := value.ParseJSON(`{"a": 1}`)
package value
