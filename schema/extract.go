package schema

import (
	"fmt"

	"github.com/coffersTech/camlog/xmldoc"
)

// Tags and attributes used by the schema documents.
const (
	tagSource    = "Source"
	tagFile      = "File"
	tagModule    = "Module"
	tagThread    = "Thread"
	tagEvent     = "Event"
	tagEnums     = "Enums"
	tagEnumValue = "EnumValue"
)

// MissingFileNodeError reports a Source node without a usable File reference.
type MissingFileNodeError struct {
	SourceID int
}

func (e *MissingFileNodeError) Error() string {
	return fmt.Sprintf("did not find 'File' attribute for source %d", e.SourceID)
}

// MissingEventAttributeError reports an Event node lacking a required attribute.
type MissingEventAttributeError struct {
	Attr string
}

func (e *MissingEventAttributeError) Error() string {
	return fmt.Sprintf("can't find event attribute %q", e.Attr)
}

// MissingEnumValueAttributeError reports an EnumValue node lacking Key or Value.
type MissingEnumValueAttributeError struct {
	Enum string
	Attr string
}

func (e *MissingEnumValueAttributeError) Error() string {
	return fmt.Sprintf("can't find EnumValue attribute %q for enum %s", e.Attr, e.Enum)
}

// sourceNode locates the Source node with the given id among the top-level
// nodes of a definitions document.
func sourceNode(doc *xmldoc.Document, sourceID int) (xmldoc.NodeID, error) {
	top, err := doc.TopLevel()
	if err != nil {
		return 0, err
	}
	return doc.FindChild(top, tagSource, "id", sourceID)
}

// SourceIDs returns the ids of every Source node in a definitions document,
// in document order.
func SourceIDs(doc *xmldoc.Document) ([]int, error) {
	top, err := doc.TopLevel()
	if err != nil {
		return nil, err
	}

	var ids []int
	for _, n := range top {
		if doc.Tag(n) != tagSource {
			continue
		}
		id, err := doc.IntAttr(n, "id")
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// SourceName returns the Name attribute of the Source node with the given id.
func SourceName(doc *xmldoc.Document, sourceID int) (string, error) {
	src, err := sourceNode(doc, sourceID)
	if err != nil {
		return "", err
	}
	return doc.Attr(src, "Name")
}

// SourceParserFilePath returns the parser-contents file path referenced by
// the File child of the given source.
func SourceParserFilePath(doc *xmldoc.Document, sourceID int) (string, error) {
	src, err := sourceNode(doc, sourceID)
	if err != nil {
		return "", err
	}

	for _, n := range doc.Children(src) {
		if doc.Tag(n) != tagFile {
			continue
		}
		if path, ok := doc.OptionalAttr(n, "Path"); ok && path != "" {
			return path, nil
		}
	}
	return "", &MissingFileNodeError{SourceID: sourceID}
}

// SourceModules collects every Module child of the given source.
// Fails fast: a Module missing its id or verbosity attribute fails the whole
// call with no partial result.
func SourceModules(doc *xmldoc.Document, sourceID int) ([]Module, error) {
	src, err := sourceNode(doc, sourceID)
	if err != nil {
		return nil, err
	}

	var modules []Module
	for _, n := range doc.Children(src) {
		if doc.Tag(n) != tagModule {
			continue
		}

		id, err := doc.IntAttr(n, "id")
		if err != nil {
			return nil, err
		}
		raw, err := doc.Attr(n, "verbosity")
		if err != nil {
			return nil, err
		}
		verbosity, err := ParseVerbosity(raw)
		if err != nil {
			return nil, err
		}

		name, _ := doc.OptionalAttr(n, "Name")
		path, _ := doc.OptionalAttr(n, "Path")
		modules = append(modules, Module{ID: id, Name: name, Verbosity: verbosity, Path: path})
	}
	return modules, nil
}

// SourceModuleVerbosity returns the module-id to verbosity map of one source.
// The first definition wins when a module id repeats.
func SourceModuleVerbosity(doc *xmldoc.Document, sourceID int) (map[int]Verbosity, error) {
	modules, err := SourceModules(doc, sourceID)
	if err != nil {
		return nil, err
	}

	m := make(map[int]Verbosity, len(modules))
	for _, mod := range modules {
		if _, ok := m[mod.ID]; !ok {
			m[mod.ID] = mod.Verbosity
		}
	}
	return m, nil
}

// Events returns the event-id to definition map of a parser-contents document.
func Events(doc *xmldoc.Document) (map[int]EventDef, error) {
	top, err := doc.TopLevel()
	if err != nil {
		return nil, err
	}

	events := make(map[int]EventDef)
	for _, n := range top {
		if doc.Tag(n) != tagEvent {
			continue
		}

		id, err := doc.IntAttr(n, "id")
		if err != nil {
			return nil, err
		}
		if _, ok := doc.OptionalAttr(n, "numberOfArguments"); !ok {
			return nil, &MissingEventAttributeError{Attr: "numberOfArguments"}
		}
		numArgs, err := doc.IntAttr(n, "numberOfArguments")
		if err != nil {
			return nil, err
		}
		format, ok := doc.OptionalAttr(n, "format")
		if !ok {
			return nil, &MissingEventAttributeError{Attr: "format"}
		}

		if _, ok := events[id]; !ok {
			events[id] = EventDef{NumArgs: numArgs, Format: format}
		}
	}
	return events, nil
}

// Names returns the generic id to Name table for top-level nodes with the
// given tag. Used for File, Module and Thread tables alike.
func Names(doc *xmldoc.Document, tag string) (map[int]string, error) {
	top, err := doc.TopLevel()
	if err != nil {
		return nil, err
	}

	names := make(map[int]string)
	for _, n := range top {
		if doc.Tag(n) != tag {
			continue
		}

		id, err := doc.IntAttr(n, "id")
		if err != nil {
			return nil, err
		}
		name, err := doc.Attr(n, "Name")
		if err != nil {
			return nil, err
		}

		if _, ok := names[id]; !ok {
			names[id] = name
		}
	}
	return names, nil
}

// Files returns the file-id name table of a parser-contents document.
func Files(doc *xmldoc.Document) (map[int]string, error) { return Names(doc, tagFile) }

// Modules returns the module-id name table of a parser-contents document.
func Modules(doc *xmldoc.Document) (map[int]string, error) { return Names(doc, tagModule) }

// Threads returns the thread-id name table of a parser-contents document.
func Threads(doc *xmldoc.Document) (map[int]string, error) { return Names(doc, tagThread) }

// Enums returns the enum tables of a parser-contents document, keyed by enum
// name. A document without an Enums node yields an empty map.
func Enums(doc *xmldoc.Document) (map[string]EnumDef, error) {
	top, err := doc.TopLevel()
	if err != nil {
		return nil, err
	}

	enums := make(map[string]EnumDef)
	for _, n := range top {
		if doc.Tag(n) != tagEnums {
			continue
		}

		for _, group := range doc.Children(n) {
			name, err := doc.Attr(group, "Name")
			if err != nil {
				return nil, err
			}
			values, err := enumValues(doc, group, name)
			if err != nil {
				return nil, err
			}
			if _, ok := enums[name]; !ok {
				enums[name] = values
			}
		}
	}
	return enums, nil
}

func enumValues(doc *xmldoc.Document, group xmldoc.NodeID, enumName string) (EnumDef, error) {
	var values EnumDef
	for _, n := range doc.Children(group) {
		if doc.Tag(n) != tagEnumValue {
			continue
		}

		if _, ok := doc.OptionalAttr(n, "Key"); !ok {
			return nil, &MissingEnumValueAttributeError{Enum: enumName, Attr: "Key"}
		}
		key, err := doc.IntAttr(n, "Key")
		if err != nil {
			return nil, err
		}
		literal, ok := doc.OptionalAttr(n, "Value")
		if !ok {
			return nil, &MissingEnumValueAttributeError{Enum: enumName, Attr: "Value"}
		}

		values = append(values, EnumValue{Key: key, Literal: literal})
	}
	return values, nil
}

// FormatVersion returns the version attribute of the document root, or the
// empty string when the document declares none.
func FormatVersion(doc *xmldoc.Document) string {
	v, _ := doc.OptionalAttr(doc.Root(), "version")
	return v
}
