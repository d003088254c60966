package format

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
)

// TruncatedBlobError reports a parameter blob shorter than the sum of the
// declared parameter widths.
type TruncatedBlobError struct {
	Expected int
	Actual   int
}

func (e *TruncatedBlobError) Error() string {
	return fmt.Sprintf("truncated parameter blob: expected %d bytes, have %d", e.Expected, e.Actual)
}

// TrailingBytesError reports a parameter blob longer than the sum of the
// declared parameter widths. The blob must match exactly; padding usually
// means a firmware/schema version mismatch.
type TrailingBytesError struct {
	Expected int
	Actual   int
}

func (e *TrailingBytesError) Error() string {
	return fmt.Sprintf("%d trailing bytes after parameters: expected %d bytes, have %d",
		e.Actual-e.Expected, e.Expected, e.Actual)
}

// UnsupportedParamError reports a descriptor the decoder cannot interpret.
type UnsupportedParamError struct {
	Kind  ParamKind
	Width int
}

func (e *UnsupportedParamError) Error() string {
	return fmt.Sprintf("unsupported parameter: kind %s width %d", e.Kind, e.Width)
}

// DecodeParams extracts one typed value per descriptor from blob, in order,
// advancing a cursor by each descriptor's width. The blob length must equal
// the exact sum of widths.
func DecodeParams(blob []byte, infos []ParamInfo) ([]Value, error) {
	total := 0
	for _, info := range infos {
		total += info.Width
	}
	if len(blob) < total {
		return nil, &TruncatedBlobError{Expected: total, Actual: len(blob)}
	}
	if len(blob) > total {
		return nil, &TrailingBytesError{Expected: total, Actual: len(blob)}
	}

	values := make([]Value, 0, len(infos))
	cursor := 0
	for _, info := range infos {
		v, err := decodeOne(info, blob[cursor:cursor+info.Width])
		if err != nil {
			return nil, err
		}
		values = append(values, v)
		cursor += info.Width
	}
	return values, nil
}

// decodeOne interprets exactly len(b) == info.Width bytes, little-endian.
func decodeOne(info ParamInfo, b []byte) (Value, error) {
	switch info.Kind {
	case KindUint:
		u, ok := readUint(b)
		if !ok {
			return Value{}, &UnsupportedParamError{Kind: info.Kind, Width: info.Width}
		}
		return Value{Kind: KindUint, Uint: u}, nil

	case KindInt:
		u, ok := readUint(b)
		if !ok {
			return Value{}, &UnsupportedParamError{Kind: info.Kind, Width: info.Width}
		}
		return Value{Kind: KindInt, Int: signExtend(u, len(b))}, nil

	case KindFloat:
		switch len(b) {
		case 4:
			f := math.Float32frombits(binary.LittleEndian.Uint32(b))
			return Value{Kind: KindFloat, Float: float64(f)}, nil
		case 8:
			f := math.Float64frombits(binary.LittleEndian.Uint64(b))
			return Value{Kind: KindFloat, Float: f}, nil
		default:
			return Value{}, &UnsupportedParamError{Kind: info.Kind, Width: info.Width}
		}

	case KindString:
		return Value{Kind: KindString, Str: string(bytes.TrimRight(b, "\x00"))}, nil

	default:
		return Value{}, &UnsupportedParamError{Kind: info.Kind, Width: info.Width}
	}
}

func readUint(b []byte) (uint64, bool) {
	switch len(b) {
	case 1:
		return uint64(b[0]), true
	case 2:
		return uint64(binary.LittleEndian.Uint16(b)), true
	case 4:
		return uint64(binary.LittleEndian.Uint32(b)), true
	case 8:
		return binary.LittleEndian.Uint64(b), true
	default:
		return 0, false
	}
}

func signExtend(u uint64, width int) int64 {
	shift := uint(64 - 8*width)
	return int64(u<<shift) >> shift
}
