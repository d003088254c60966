package schema

import (
	"fmt"
	"strconv"
	"strings"
)

// Severity identifies one firmware log level. Values are single bits so a
// module's verbosity can be expressed as a mask of enabled levels.
type Severity uint8

const (
	SeverityNone    Severity = 0
	SeverityVerbose Severity = 1
	SeverityDebug   Severity = 2
	SeverityInfo    Severity = 4
	SeverityWarning Severity = 8
	SeverityError   Severity = 16
	SeverityFatal   Severity = 32
)

// String returns the keyword form of a severity.
func (s Severity) String() string {
	switch s {
	case SeverityNone:
		return "NONE"
	case SeverityVerbose:
		return "VERBOSE"
	case SeverityDebug:
		return "DEBUG"
	case SeverityInfo:
		return "INFO"
	case SeverityWarning:
		return "WARNING"
	case SeverityError:
		return "ERROR"
	case SeverityFatal:
		return "FATAL"
	default:
		return fmt.Sprintf("SEVERITY(%d)", uint8(s))
	}
}

// Verbosity is a bitmask of enabled severities for one module. 63 enables
// every level.
type Verbosity uint32

// VerbosityAll enables every severity.
const VerbosityAll Verbosity = 63

// Allows reports whether messages of the given severity are active.
func (v Verbosity) Allows(s Severity) bool {
	return uint32(v)&uint32(s) != 0
}

// BadVerbosityError reports a verbosity value that starts like a number but
// is not one.
type BadVerbosityError struct {
	Value string
}

func (e *BadVerbosityError) Error() string {
	return fmt.Sprintf("bad verbosity level %s", e.Value)
}

// IllegalVerbosityError reports an unknown verbosity keyword.
type IllegalVerbosityError struct {
	Value string
}

func (e *IllegalVerbosityError) Error() string {
	return fmt.Sprintf("illegal verbosity %s: expecting NONE, VERBOSE, DEBUG, INFO, WARNING, ERROR or FATAL", e.Value)
}

// ParseVerbosity parses a module verbosity attribute. The value is either a
// non-negative decimal bitmask ("63") or keywords combined with '|'
// ("DEBUG|INFO|ERROR").
func ParseVerbosity(s string) (Verbosity, error) {
	if s == "" {
		return 0, &IllegalVerbosityError{Value: s}
	}

	if c := s[0]; c >= '0' && c <= '9' {
		n, err := strconv.ParseUint(s, 10, 32)
		if err != nil {
			return 0, &BadVerbosityError{Value: s}
		}
		return Verbosity(n), nil
	}

	var v Verbosity
	for _, word := range strings.Split(s, "|") {
		switch strings.TrimSpace(word) {
		case "NONE":
			// contributes no bits
		case "VERBOSE":
			v |= Verbosity(SeverityVerbose)
		case "DEBUG":
			v |= Verbosity(SeverityDebug)
		case "INFO":
			v |= Verbosity(SeverityInfo)
		case "WARNING":
			v |= Verbosity(SeverityWarning)
		case "ERROR":
			v |= Verbosity(SeverityError)
		case "FATAL":
			v |= Verbosity(SeverityFatal)
		default:
			return 0, &IllegalVerbosityError{Value: strings.TrimSpace(word)}
		}
	}
	return v, nil
}
