package counter

import (
	"fmt"

	"github.com/jamesainslie/go-eer/internal/wire"
	"github.com/jamesainslie/go-eer/label"
)

// Wire field numbers of the persisted counter message:
//
//	message Counter {
//	  uint64 resolution = 1;
//	  double minval = 2;
//	  double maxval = 3;
//	  repeated double bonafide = 4 [packed = true];
//	  repeated double spoof = 5 [packed = true];
//	}
const (
	fieldResolution = 1
	fieldMinval     = 2
	fieldMaxval     = 3
	fieldBonafide   = 4
	fieldSpoof      = 5
)

// MarshalBinary encodes the counter in protobuf wire format. Rows are stored
// bit-exact so a decoded counter merges and reproduces EER identically.
func (c *Counter) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, 16*(c.resolution+1)+32)
	b = wire.AppendVarint(b, fieldResolution, uint64(c.resolution))
	b = wire.AppendDouble(b, fieldMinval, c.minval)
	b = wire.AppendDouble(b, fieldMaxval, c.maxval)
	b = wire.AppendDoubles(b, fieldBonafide, c.rows[label.Bonafide])
	b = wire.AppendDoubles(b, fieldSpoof, c.rows[label.Spoof])
	return b, nil
}

// Decode parses a counter written by MarshalBinary.
func Decode(data []byte, opts ...Option) (*Counter, error) {
	fields, err := wire.Fields(data)
	if err != nil {
		return nil, fmt.Errorf("decoding counter: %w", err)
	}

	var (
		resolution     int
		minval, maxval float64
		bonafide       []float64
		spoof          []float64
	)
	for _, f := range fields {
		switch f.Num {
		case fieldResolution:
			resolution = int(f.Bits)
		case fieldMinval:
			minval = f.Double()
		case fieldMaxval:
			maxval = f.Double()
		case fieldBonafide:
			if bonafide, err = f.Doubles(); err != nil {
				return nil, fmt.Errorf("decoding bonafide row: %w", err)
			}
		case fieldSpoof:
			if spoof, err = f.Doubles(); err != nil {
				return nil, fmt.Errorf("decoding spoof row: %w", err)
			}
		}
	}

	if len(bonafide) != resolution+1 || len(spoof) != resolution+1 {
		return nil, fmt.Errorf("%w: resolution %d with rows of %d and %d buckets",
			ErrShapeMismatch, resolution, len(bonafide), len(spoof))
	}
	return FromRows(bonafide, spoof, minval, maxval, opts...)
}
