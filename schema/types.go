// Package schema extracts flat lookup tables from parsed schema documents.
//
// Two document shapes exist: the definitions document maps log sources to
// their modules and to a parser-contents file, and the parser-contents
// document carries the event templates, enum tables and id-to-name tables for
// one source. Every extraction is a pure function over an xmldoc.Document and
// fails fast: a malformed document yields an error and no partial table.
package schema

// EventDef describes one log-statement template.
type EventDef struct {
	NumArgs int    // declared positional argument count
	Format  string // template with {i}, {i:x} and {i,EnumName} placeholders
}

// EnumValue is one (numeric key, literal) pair of an enum table.
type EnumValue struct {
	Key     int
	Literal string
}

// EnumDef is an ordered enum table. Keys need not be contiguous or unique.
type EnumDef []EnumValue

// Lookup returns the literal of the first pair defined with the given key.
func (e EnumDef) Lookup(key int) (string, bool) {
	for _, v := range e {
		if v.Key == key {
			return v.Literal, true
		}
	}
	return "", false
}

// Module is one module entry nested under a Source node.
type Module struct {
	ID        int
	Name      string    // optional
	Verbosity Verbosity // enabled-severity bitmask
	Path      string    // optional per-module events file override
}
