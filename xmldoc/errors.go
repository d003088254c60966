package xmldoc

import (
	"errors"
	"fmt"
)

// ErrEmptyInput is returned when a loader is handed an empty byte buffer.
var ErrEmptyInput = errors.New("empty XML content")

// MalformedDocumentError wraps a rejection from the underlying XML parser.
type MalformedDocumentError struct {
	Err error
}

func (e *MalformedDocumentError) Error() string {
	return fmt.Sprintf("malformed XML document: %v", e.Err)
}

func (e *MalformedDocumentError) Unwrap() error { return e.Err }

// UnexpectedRootError reports a document whose root tag is not RootTag.
type UnexpectedRootError struct {
	Got string
}

func (e *UnexpectedRootError) Error() string {
	return fmt.Sprintf("XML root should be %q, got %q", RootTag, e.Got)
}

// MissingAttributeError reports a node that lacks a required attribute.
type MissingAttributeError struct {
	Tag  string
	Attr string
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("can't find attribute %q in node %s", e.Attr, e.Tag)
}

// NotANumberError reports an attribute whose value does not parse as an integer.
type NotANumberError struct {
	Tag   string
	Attr  string
	Value string
}

func (e *NotANumberError) Error() string {
	return fmt.Sprintf("attribute %q of node %s is not a number: %q", e.Attr, e.Tag, e.Value)
}

// NotFoundError reports a failed child lookup by tag and id.
type NotFoundError struct {
	Tag string
	ID  int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("did not find %q node with id %d", e.Tag, e.ID)
}
