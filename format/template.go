// Package format turns a log event's template and parameter blob into the
// final message text.
//
// Templates reference positional arguments with brace placeholders:
//
//	{0}            decimal expression
//	{0:x}          lower-case hex expression
//	{1,PowerEnum}  enum lookup (original spelling)
//	{1:PowerEnum}  enum lookup (alternate spelling)
//
// The same index may be referenced more than once. Brace sequences that do
// not parse as a placeholder are emitted as literal text.
package format

import "strings"

// Placeholder is one positional reference parsed from a template.
type Placeholder struct {
	Index int
	Hex   bool
	Enum  string // enum table name, empty for expression placeholders
}

type segment struct {
	text string
	ph   *Placeholder // nil for literal segments
}

// Template is a format string parsed into literal and placeholder segments.
type Template struct {
	raw      string
	segments []segment
	argCount int // number of distinct indices referenced
	maxIndex int // highest index referenced, -1 when none
}

// Raw returns the original template text.
func (t Template) Raw() string { return t.raw }

// ArgCount returns the number of distinct argument indices the template
// references.
func (t Template) ArgCount() int { return t.argCount }

// MaxIndex returns the highest argument index referenced, or -1.
func (t Template) MaxIndex() int { return t.maxIndex }

// Placeholders returns every placeholder in template order, repeats included.
func (t Template) Placeholders() []Placeholder {
	var phs []Placeholder
	for _, seg := range t.segments {
		if seg.ph != nil {
			phs = append(phs, *seg.ph)
		}
	}
	return phs
}

// ParseTemplate scans a format string into segments. Scanning never fails;
// anything that is not a well-formed placeholder stays literal.
func ParseTemplate(s string) Template {
	t := Template{raw: s, maxIndex: -1}
	seen := make(map[int]bool)

	var literal strings.Builder
	pos := 0
	for pos < len(s) {
		if s[pos] != '{' {
			literal.WriteByte(s[pos])
			pos++
			continue
		}

		ph, next, ok := scanPlaceholder(s, pos)
		if !ok {
			literal.WriteByte(s[pos])
			pos++
			continue
		}

		if literal.Len() > 0 {
			t.segments = append(t.segments, segment{text: literal.String()})
			literal.Reset()
		}
		t.segments = append(t.segments, segment{ph: &ph})
		if !seen[ph.Index] {
			seen[ph.Index] = true
			t.argCount++
		}
		if ph.Index > t.maxIndex {
			t.maxIndex = ph.Index
		}
		pos = next
	}
	if literal.Len() > 0 {
		t.segments = append(t.segments, segment{text: literal.String()})
	}
	return t
}

// scanPlaceholder tries to read a placeholder starting at the '{' at pos.
// Returns the placeholder, the position after the closing brace, and whether
// the scan succeeded.
func scanPlaceholder(s string, pos int) (Placeholder, int, bool) {
	i := pos + 1

	start := i
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == start {
		return Placeholder{}, 0, false
	}
	index := 0
	for _, c := range s[start:i] {
		index = index*10 + int(c-'0')
	}

	ph := Placeholder{Index: index}
	if i < len(s) && (s[i] == ':' || s[i] == ',') {
		sep := s[i]
		i++
		nameStart := i
		for i < len(s) && isEnumNameChar(s[i]) {
			i++
		}
		name := s[nameStart:i]
		if name == "" {
			return Placeholder{}, 0, false
		}
		if sep == ':' && name == "x" {
			ph.Hex = true
		} else {
			ph.Enum = name
		}
	}

	if i >= len(s) || s[i] != '}' {
		return Placeholder{}, 0, false
	}
	return ph, i + 1, true
}

func isEnumNameChar(c byte) bool {
	return c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_'
}
