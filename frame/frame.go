// Package frame decodes raw firmware log frames into their header fields,
// parameter type table and parameter blob. Two wire layouts exist: the
// extended format used by current firmware, which carries typed parameters,
// and the fixed legacy format, which always carries three 4-byte unsigned
// arguments. All multi-byte fields are little-endian.
package frame

import (
	"encoding/binary"
	"fmt"

	"github.com/coffersTech/camlog/format"
	"github.com/coffersTech/camlog/schema"
)

// Frame magic bytes.
const (
	MagicExtended = 0xA5
	MagicLegacy   = 0x5A
)

// Extended layout:
//
//	0      magic (0xA5)
//	1      severity
//	2      source id
//	3      parameter count
//	4-5    file id
//	6-7    module id
//	8-9    thread id
//	10-11  event id
//	12-15  sequence
//	16-23  timestamp
//	24..   parameter table, 2 bytes per parameter (kind, width)
//	rest   parameter blob
const extendedHeaderSize = 24

// Legacy layout:
//
//	0      magic (0x5A)
//	1      severity
//	2-3    file id
//	4-5    thread id
//	6-7    event id
//	8-11   sequence
//	12-15  timestamp
//	16-27  three 4-byte unsigned parameters
const legacyFrameSize = 28

// Wire parameter kinds of the extended format.
const (
	wireKindUint   = 0
	wireKindInt    = 1
	wireKindFloat  = 2
	wireKindString = 3
)

// Frame is one wire-decoded log frame.
type Frame struct {
	SourceID  int
	Severity  schema.Severity
	FileID    int
	ModuleID  int
	ThreadID  int
	EventID   int
	Sequence  uint32
	Timestamp uint64

	// Params is the frame's parameter type table. Nil for legacy frames,
	// which imply default descriptors per the event's declared count.
	Params []format.ParamInfo
	Blob   []byte
}

// TruncatedFrameError reports a raw frame shorter than its layout requires.
type TruncatedFrameError struct {
	Expected int
	Actual   int
}

func (e *TruncatedFrameError) Error() string {
	return fmt.Sprintf("truncated frame: need %d bytes, have %d", e.Expected, e.Actual)
}

// UnknownMagicError reports a frame that starts with neither magic byte.
type UnknownMagicError struct {
	Magic byte
}

func (e *UnknownMagicError) Error() string {
	return fmt.Sprintf("unknown frame magic 0x%02x", e.Magic)
}

// InvalidParamKindError reports an extended frame declaring an unknown
// parameter kind byte.
type InvalidParamKindError struct {
	Wire byte
}

func (e *InvalidParamKindError) Error() string {
	return fmt.Sprintf("invalid parameter kind byte 0x%02x", e.Wire)
}

// Decode parses one raw frame. The returned Frame's Blob aliases raw.
func Decode(raw []byte) (*Frame, error) {
	if len(raw) == 0 {
		return nil, &TruncatedFrameError{Expected: 1, Actual: 0}
	}
	switch raw[0] {
	case MagicExtended:
		return decodeExtended(raw)
	case MagicLegacy:
		return decodeLegacy(raw)
	default:
		return nil, &UnknownMagicError{Magic: raw[0]}
	}
}

func decodeExtended(raw []byte) (*Frame, error) {
	if len(raw) < extendedHeaderSize {
		return nil, &TruncatedFrameError{Expected: extendedHeaderSize, Actual: len(raw)}
	}

	paramCount := int(raw[3])
	tableEnd := extendedHeaderSize + 2*paramCount
	if len(raw) < tableEnd {
		return nil, &TruncatedFrameError{Expected: tableEnd, Actual: len(raw)}
	}

	f := &Frame{
		Severity:  schema.Severity(raw[1]),
		SourceID:  int(raw[2]),
		FileID:    int(binary.LittleEndian.Uint16(raw[4:6])),
		ModuleID:  int(binary.LittleEndian.Uint16(raw[6:8])),
		ThreadID:  int(binary.LittleEndian.Uint16(raw[8:10])),
		EventID:   int(binary.LittleEndian.Uint16(raw[10:12])),
		Sequence:  binary.LittleEndian.Uint32(raw[12:16]),
		Timestamp: binary.LittleEndian.Uint64(raw[16:24]),
		Blob:      raw[tableEnd:],
	}

	f.Params = make([]format.ParamInfo, paramCount)
	for i := 0; i < paramCount; i++ {
		kindByte := raw[extendedHeaderSize+2*i]
		width := int(raw[extendedHeaderSize+2*i+1])

		var kind format.ParamKind
		switch kindByte {
		case wireKindUint:
			kind = format.KindUint
		case wireKindInt:
			kind = format.KindInt
		case wireKindFloat:
			kind = format.KindFloat
		case wireKindString:
			kind = format.KindString
		default:
			return nil, &InvalidParamKindError{Wire: kindByte}
		}
		f.Params[i] = format.ParamInfo{Kind: kind, Width: width}
	}
	return f, nil
}

func decodeLegacy(raw []byte) (*Frame, error) {
	if len(raw) != legacyFrameSize {
		return nil, &TruncatedFrameError{Expected: legacyFrameSize, Actual: len(raw)}
	}

	return &Frame{
		Severity:  schema.Severity(raw[1]),
		SourceID:  0, // legacy firmware has a single source
		FileID:    int(binary.LittleEndian.Uint16(raw[2:4])),
		ThreadID:  int(binary.LittleEndian.Uint16(raw[4:6])),
		EventID:   int(binary.LittleEndian.Uint16(raw[6:8])),
		Sequence:  binary.LittleEndian.Uint32(raw[8:12]),
		Timestamp: uint64(binary.LittleEndian.Uint32(raw[12:16])),
		Blob:      raw[16:legacyFrameSize],
	}, nil
}
