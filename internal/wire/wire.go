// Package wire holds the protobuf wire helpers shared by the counter and
// curve encodings.
package wire

import (
	"errors"
	"fmt"
	"math"

	"google.golang.org/protobuf/encoding/protowire"
)

// ErrCorrupt indicates bytes that do not decode as the expected message.
var ErrCorrupt = errors.New("wire: corrupt message")

// AppendDouble appends a fixed64 double field.
func AppendDouble(b []byte, num protowire.Number, v float64) []byte {
	b = protowire.AppendTag(b, num, protowire.Fixed64Type)
	return protowire.AppendFixed64(b, math.Float64bits(v))
}

// AppendVarint appends a varint field.
func AppendVarint(b []byte, num protowire.Number, v uint64) []byte {
	b = protowire.AppendTag(b, num, protowire.VarintType)
	return protowire.AppendVarint(b, v)
}

// AppendDoubles appends vals as a packed repeated double field.
func AppendDoubles(b []byte, num protowire.Number, vals []float64) []byte {
	packed := make([]byte, 0, 8*len(vals))
	for _, v := range vals {
		packed = protowire.AppendFixed64(packed, math.Float64bits(v))
	}
	b = protowire.AppendTag(b, num, protowire.BytesType)
	return protowire.AppendBytes(b, packed)
}

// Field is one decoded top-level field.
type Field struct {
	Num   protowire.Number
	Type  protowire.Type
	Value []byte // raw value bytes for BytesType
	Bits  uint64 // varint or fixed64 payload
}

// Fields decodes a flat message into its fields in wire order. Groups and
// fixed32 values are skipped.
func Fields(data []byte) ([]Field, error) {
	var out []Field
	for len(data) > 0 {
		num, typ, n := protowire.ConsumeTag(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
		}
		data = data[n:]

		f := Field{Num: num, Type: typ}
		switch typ {
		case protowire.VarintType:
			f.Bits, n = protowire.ConsumeVarint(data)
		case protowire.Fixed64Type:
			f.Bits, n = protowire.ConsumeFixed64(data)
		case protowire.BytesType:
			f.Value, n = protowire.ConsumeBytes(data)
		default:
			n = protowire.ConsumeFieldValue(num, typ, data)
		}
		if n < 0 {
			return nil, fmt.Errorf("%w: field %d: %w", ErrCorrupt, num, protowire.ParseError(n))
		}
		data = data[n:]
		out = append(out, f)
	}
	return out, nil
}

// Double interprets a fixed64 field as a float64.
func (f Field) Double() float64 {
	return math.Float64frombits(f.Bits)
}

// Doubles unpacks a packed repeated double field.
func (f Field) Doubles() ([]float64, error) {
	if len(f.Value)%8 != 0 {
		return nil, fmt.Errorf("%w: field %d has %d packed bytes", ErrCorrupt, f.Num, len(f.Value))
	}
	data := f.Value
	out := make([]float64, 0, len(data)/8)
	for len(data) > 0 {
		v, n := protowire.ConsumeFixed64(data)
		if n < 0 {
			return nil, fmt.Errorf("%w: %w", ErrCorrupt, protowire.ParseError(n))
		}
		out = append(out, math.Float64frombits(v))
		data = data[n:]
	}
	return out, nil
}
