package format

import (
	"fmt"
	"strconv"
)

// ParamKind says how a parameter's bytes are interpreted.
type ParamKind uint8

const (
	KindUint ParamKind = iota
	KindInt
	KindFloat
	KindString
)

// String returns a short name for the kind.
func (k ParamKind) String() string {
	switch k {
	case KindUint:
		return "uint"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// ParamInfo describes one positional parameter of a frame's blob: its byte
// width and how those bytes are read.
type ParamInfo struct {
	Kind  ParamKind
	Width int
}

// DefaultParamWidth is assumed per argument when a frame carries no type
// table (legacy firmware encodes every argument as a 4-byte unsigned value).
const DefaultParamWidth = 4

// DefaultParams returns n default parameter descriptors.
func DefaultParams(n int) []ParamInfo {
	infos := make([]ParamInfo, n)
	for i := range infos {
		infos[i] = ParamInfo{Kind: KindUint, Width: DefaultParamWidth}
	}
	return infos
}

// Value is one decoded parameter.
type Value struct {
	Kind  ParamKind
	Uint  uint64
	Int   int64
	Float float64
	Str   string
}

// Format renders the value the way an expression placeholder shows it:
// decimal for integers, shortest round-trip notation for floats, verbatim
// for strings.
func (v Value) Format() string {
	switch v.Kind {
	case KindUint:
		return strconv.FormatUint(v.Uint, 10)
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindFloat:
		return strconv.FormatFloat(v.Float, 'g', -1, 64)
	case KindString:
		return v.Str
	default:
		return ""
	}
}

// Hex renders the value for a {i:x} placeholder.
func (v Value) Hex() string {
	switch v.Kind {
	case KindInt:
		if v.Int < 0 {
			return "-" + strconv.FormatUint(uint64(-v.Int), 16)
		}
		return strconv.FormatUint(uint64(v.Int), 16)
	case KindUint:
		return strconv.FormatUint(v.Uint, 16)
	default:
		return v.Format()
	}
}

// Key returns the value as an enum key.
func (v Value) Key() int {
	switch v.Kind {
	case KindInt:
		return int(v.Int)
	default:
		return int(v.Uint)
	}
}
