package format

import (
	"fmt"
	"strings"

	"github.com/coffersTech/camlog/registry"
)

// ArgumentCountMismatchError reports a template whose placeholder count does
// not match the event's declared argument count, or a frame whose type table
// length does not match it.
type ArgumentCountMismatchError struct {
	Declared int
	Parsed   int
}

func (e *ArgumentCountMismatchError) Error() string {
	return fmt.Sprintf("argument count mismatch: declared %d, parsed %d", e.Declared, e.Parsed)
}

// UnknownEnumValueError reports an enum table with no pair for a decoded key.
type UnknownEnumValueError struct {
	Enum string
	Key  int
}

func (e *UnknownEnumValueError) Error() string {
	return fmt.Sprintf("enum %q has no value for key %d", e.Enum, e.Key)
}

// Formatter renders decoded frames into text against an immutable Registry.
// It keeps no state between calls and is safe for concurrent use.
type Formatter struct {
	reg *registry.Registry
}

// NewFormatter returns a Formatter reading the given registry.
func NewFormatter(reg *registry.Registry) *Formatter {
	return &Formatter{reg: reg}
}

// GenerateMessage resolves the event template for (sourceID, eventID),
// decodes blob per the frame's parameter descriptors and substitutes every
// placeholder. A nil infos means the frame carried no type table; one
// default 4-byte unsigned parameter is assumed per declared argument.
func (f *Formatter) GenerateMessage(sourceID, eventID int, infos []ParamInfo, blob []byte) (string, error) {
	ev, err := f.reg.Event(sourceID, eventID)
	if err != nil {
		return "", err
	}

	tmpl := ParseTemplate(ev.Format)
	if tmpl.ArgCount() != ev.NumArgs || tmpl.MaxIndex() >= ev.NumArgs {
		return "", &ArgumentCountMismatchError{Declared: ev.NumArgs, Parsed: tmpl.ArgCount()}
	}

	if infos == nil {
		infos = DefaultParams(ev.NumArgs)
	} else if len(infos) != ev.NumArgs {
		return "", &ArgumentCountMismatchError{Declared: ev.NumArgs, Parsed: len(infos)}
	}

	values, err := DecodeParams(blob, infos)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, seg := range tmpl.segments {
		if seg.ph == nil {
			b.WriteString(seg.text)
			continue
		}

		v := values[seg.ph.Index]
		switch {
		case seg.ph.Enum != "":
			def, err := f.reg.Enum(sourceID, seg.ph.Enum)
			if err != nil {
				return "", err
			}
			literal, ok := def.Lookup(v.Key())
			if !ok {
				return "", &UnknownEnumValueError{Enum: seg.ph.Enum, Key: v.Key()}
			}
			b.WriteString(literal)
		case seg.ph.Hex:
			b.WriteString(v.Hex())
		default:
			b.WriteString(v.Format())
		}
	}
	return b.String(), nil
}
