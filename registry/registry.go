// Package registry owns the merged schema tables of one firmware session.
//
// A Registry is built once from a definitions document plus the
// parser-contents documents it references, and is immutable afterwards, so
// any number of decoder goroutines may read it without locking.
package registry

import (
	"fmt"
	"sort"

	"github.com/coffersTech/camlog/schema"
)

// SourceSchema is everything the pipeline knows about one log source.
type SourceSchema struct {
	ID             int
	Name           string
	ParserFilePath string
	Version        string // version declared by the parser-contents document

	ModuleVerbosity map[int]schema.Verbosity
	Events          map[int]schema.EventDef
	Files           map[int]string
	Modules         map[int]string
	Threads         map[int]string
	Enums           map[string]schema.EnumDef

	Digest [32]byte // BLAKE2b-256 of the parser-contents document bytes
}

// Registry maps source ids to their schemas. Read-only after Build.
type Registry struct {
	sources map[int]*SourceSchema
	digest  [32]byte // BLAKE2b-256 of the definitions document bytes
}

// UnknownSourceError reports a lookup for a source the registry has no schema for.
type UnknownSourceError struct {
	ID int
}

func (e *UnknownSourceError) Error() string {
	return fmt.Sprintf("unknown source id %d", e.ID)
}

// UnknownEventError reports an event id missing from a source's event table.
type UnknownEventError struct {
	SourceID int
	EventID  int
}

func (e *UnknownEventError) Error() string {
	return fmt.Sprintf("unknown event id %d for source %d", e.EventID, e.SourceID)
}

// UnknownEnumError reports an enum name missing from a source's enum tables.
type UnknownEnumError struct {
	SourceID int
	Name     string
}

func (e *UnknownEnumError) Error() string {
	return fmt.Sprintf("unknown enum %q for source %d", e.Name, e.SourceID)
}

// Schema returns the schema of one source.
func (r *Registry) Schema(sourceID int) (*SourceSchema, error) {
	s, ok := r.sources[sourceID]
	if !ok {
		return nil, &UnknownSourceError{ID: sourceID}
	}
	return s, nil
}

// Event returns one event definition.
func (r *Registry) Event(sourceID, eventID int) (schema.EventDef, error) {
	s, err := r.Schema(sourceID)
	if err != nil {
		return schema.EventDef{}, err
	}
	ev, ok := s.Events[eventID]
	if !ok {
		return schema.EventDef{}, &UnknownEventError{SourceID: sourceID, EventID: eventID}
	}
	return ev, nil
}

// Enum returns one enum table.
func (r *Registry) Enum(sourceID int, name string) (schema.EnumDef, error) {
	s, err := r.Schema(sourceID)
	if err != nil {
		return nil, err
	}
	def, ok := s.Enums[name]
	if !ok {
		return nil, &UnknownEnumError{SourceID: sourceID, Name: name}
	}
	return def, nil
}

// Sources returns the known source ids in ascending order.
func (r *Registry) Sources() []int {
	ids := make([]int, 0, len(r.sources))
	for id := range r.sources {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

// Digest returns the BLAKE2b-256 digest of the definitions document this
// registry was built from.
func (r *Registry) Digest() [32]byte { return r.digest }
