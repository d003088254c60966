package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTemplate(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		want     []Placeholder
		argCount int
	}{
		{
			name:     "no placeholders",
			input:    "Event50",
			want:     nil,
			argCount: 0,
		},
		{
			name:     "plain expressions",
			input:    "Arg1:{0}, Arg2:{1}, Arg3:{2}",
			want:     []Placeholder{{Index: 0}, {Index: 1}, {Index: 2}},
			argCount: 3,
		},
		{
			name:     "hex spec",
			input:    "Arg1:0x{0:x}",
			want:     []Placeholder{{Index: 0, Hex: true}},
			argCount: 1,
		},
		{
			name:     "enum comma spelling",
			input:    "state {1,ETSystemSubStates}",
			want:     []Placeholder{{Index: 1, Enum: "ETSystemSubStates"}},
			argCount: 1,
		},
		{
			name:     "enum colon spelling",
			input:    "state={1:PowerEnum}",
			want:     []Placeholder{{Index: 1, Enum: "PowerEnum"}},
			argCount: 1,
		},
		{
			name:     "repeated index counts once",
			input:    "{0} and again {0:x}",
			want:     []Placeholder{{Index: 0}, {Index: 0, Hex: true}},
			argCount: 1,
		},
		{
			name:     "multi digit index",
			input:    "{10}",
			want:     []Placeholder{{Index: 10}},
			argCount: 1,
		},
		{
			name:     "malformed stays literal",
			input:    "set {x} {0 {} {0:} done",
			want:     nil,
			argCount: 0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl := ParseTemplate(tt.input)
			assert.Equal(t, tt.want, tmpl.Placeholders())
			assert.Equal(t, tt.argCount, tmpl.ArgCount())
		})
	}
}

func TestParseTemplateLiteralReassembly(t *testing.T) {
	// Literal text around and between placeholders survives untouched.
	tmpl := ParseTemplate("a {0} b {1,E} c {bad} d")
	var got string
	for _, seg := range tmpl.segments {
		if seg.ph != nil {
			got += "#"
		} else {
			got += seg.text
		}
	}
	assert.Equal(t, "a # b # c {bad} d", got)
}

func TestParseTemplateMaxIndex(t *testing.T) {
	require.Equal(t, -1, ParseTemplate("nothing").MaxIndex())
	require.Equal(t, 2, ParseTemplate("{2} {0}").MaxIndex())
}
