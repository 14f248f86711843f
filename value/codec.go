package value

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vmihailenco/msgpack/v5"
)

// Values encode as a kind tag followed by a kind-specific payload.
// UUID, JSON, and Decimal payloads travel as text so snapshots stay
// readable by any msgpack consumer.

var (
	_ msgpack.CustomEncoder = (*Value)(nil)
	_ msgpack.CustomDecoder = (*Value)(nil)
)

// EncodeMsgpack implements msgpack.CustomEncoder.
func (v Value) EncodeMsgpack(enc *msgpack.Encoder) error {
	if err := enc.EncodeMulti(uint8(v.kind)); err != nil {
		return err
	}
	switch v.kind {
	case KindNull:
		return enc.EncodeNil()
	case KindBool:
		return enc.EncodeMulti(v.v.(bool))
	case KindInt16:
		return enc.EncodeMulti(v.v.(int16))
	case KindInt32:
		return enc.EncodeMulti(v.v.(int32))
	case KindInt64:
		return enc.EncodeMulti(v.v.(int64))
	case KindFloat32:
		return enc.EncodeMulti(v.v.(float32))
	case KindFloat64:
		return enc.EncodeMulti(v.v.(float64))
	case KindString, KindEnum:
		return enc.EncodeMulti(v.v.(string))
	case KindBytes:
		return enc.EncodeMulti(v.v.([]byte))
	case KindTime:
		return enc.EncodeMulti(v.v.(time.Time))
	case KindUUID:
		return enc.EncodeMulti(v.v.(uuid.UUID).String())
	case KindJSON:
		b, err := json.Marshal(v.v)
		if err != nil {
			return err
		}
		return enc.EncodeMulti(string(b))
	case KindDecimal:
		return enc.EncodeMulti(v.v.(decimal.Decimal).String())
	case KindArray:
		elems := v.v.([]Value)
		if err := enc.EncodeMulti(len(elems)); err != nil {
			return err
		}
		for _, e := range elems {
			if err := e.EncodeMsgpack(enc); err != nil {
				return err
			}
		}
		return nil
	}
	return fmt.Errorf("value: cannot encode kind %s", v.kind)
}

// DecodeMsgpack implements msgpack.CustomDecoder.
func (v *Value) DecodeMsgpack(dec *msgpack.Decoder) error {
	var k uint8
	if err := dec.DecodeMulti(&k); err != nil {
		return err
	}
	switch Kind(k) {
	case KindNull:
		var ignore any
		if err := dec.DecodeMulti(&ignore); err != nil {
			return err
		}
		*v = Null()
	case KindBool:
		var b bool
		if err := dec.DecodeMulti(&b); err != nil {
			return err
		}
		*v = Bool(b)
	case KindInt16:
		var i int16
		if err := dec.DecodeMulti(&i); err != nil {
			return err
		}
		*v = Int16(i)
	case KindInt32:
		var i int32
		if err := dec.DecodeMulti(&i); err != nil {
			return err
		}
		*v = Int32(i)
	case KindInt64:
		var i int64
		if err := dec.DecodeMulti(&i); err != nil {
			return err
		}
		*v = Int64(i)
	case KindFloat32:
		var f float32
		if err := dec.DecodeMulti(&f); err != nil {
			return err
		}
		*v = Float32(f)
	case KindFloat64:
		var f float64
		if err := dec.DecodeMulti(&f); err != nil {
			return err
		}
		*v = Float64(f)
	case KindString:
		var s string
		if err := dec.DecodeMulti(&s); err != nil {
			return err
		}
		*v = String(s)
	case KindEnum:
		var s string
		if err := dec.DecodeMulti(&s); err != nil {
			return err
		}
		*v = Enum(s)
	case KindBytes:
		var b []byte
		if err := dec.DecodeMulti(&b); err != nil {
			return err
		}
		*v = Bytes(b)
	case KindTime:
		var t time.Time
		if err := dec.DecodeMulti(&t); err != nil {
			return err
		}
		*v = Time(t)
	case KindUUID:
		var s string
		if err := dec.DecodeMulti(&s); err != nil {
			return err
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return err
		}
		*v = UUID(u)
	case KindJSON:
		var s string
		if err := dec.DecodeMulti(&s); err != nil {
			return err
		}
		parsed, err := ParseJSON(s)
		if err != nil {
			return err
		}
		*v = parsed
	case KindDecimal:
		var s string
		if err := dec.DecodeMulti(&s); err != nil {
			return err
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return err
		}
		*v = Decimal(d)
	case KindArray:
		var n int
		if err := dec.DecodeMulti(&n); err != nil {
			return err
		}
		elems := make([]Value, n)
		for i := range elems {
			if err := elems[i].DecodeMsgpack(dec); err != nil {
				return err
			}
		}
		*v = Array(elems...)
	default:
		return fmt.Errorf("value: unknown kind tag %d", k)
	}
	return nil
}
