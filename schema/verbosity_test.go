package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerbosity(t *testing.T) {
	tests := []struct {
		input string
		want  Verbosity
	}{
		{"0", 0},
		{"55", 55},
		{"63", VerbosityAll},
		{"NONE", 0},
		{"FATAL", Verbosity(SeverityFatal)},
		{"DEBUG|INFO|ERROR", Verbosity(SeverityDebug | SeverityInfo | SeverityError)},
		{"VERBOSE|FATAL", Verbosity(SeverityVerbose | SeverityFatal)},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseVerbosity(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseVerbosityBadNumber(t *testing.T) {
	_, err := ParseVerbosity("0A")
	var bad *BadVerbosityError
	require.ErrorAs(t, err, &bad)
	assert.Equal(t, "bad verbosity level 0A", err.Error())
}

func TestParseVerbosityIllegalKeyword(t *testing.T) {
	for _, input := range []string{"TEST", "DEBUG|WHATEVER", ""} {
		_, err := ParseVerbosity(input)
		var illegal *IllegalVerbosityError
		require.ErrorAs(t, err, &illegal, "input %q", input)
	}
}

func TestVerbosityAllows(t *testing.T) {
	v := Verbosity(SeverityDebug | SeverityError)
	assert.True(t, v.Allows(SeverityDebug))
	assert.True(t, v.Allows(SeverityError))
	assert.False(t, v.Allows(SeverityInfo))
	assert.False(t, Verbosity(0).Allows(SeverityFatal))
	assert.True(t, VerbosityAll.Allows(SeverityVerbose))
}

func TestSeverityString(t *testing.T) {
	assert.Equal(t, "WARNING", SeverityWarning.String())
	assert.Equal(t, "NONE", SeverityNone.String())
	assert.Equal(t, "SEVERITY(3)", Severity(3).String())
}
