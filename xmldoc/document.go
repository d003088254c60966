// Package xmldoc provides read access to parsed schema documents.
//
// It consumes the xmlquery parser once per document and re-walks the result
// into an owned arena of nodes addressed by integer ids, so everything above
// this package works with plain indices and attribute maps instead of chasing
// sibling pointers.
package xmldoc

import (
	"bytes"
	"errors"
	"strconv"

	"github.com/antchfx/xmlquery"
)

// RootTag is the tag every schema document must declare on its root element.
const RootTag = "Format"

// NodeID addresses one element inside a Document's arena.
type NodeID int

type node struct {
	tag      string
	attrs    map[string]string
	children []NodeID
}

// Document is an immutable, indexable view of one parsed schema document.
type Document struct {
	nodes []node
	root  NodeID
}

// Parse parses raw document bytes into a Document.
// Empty input fails with ErrEmptyInput; parser rejections are wrapped in
// MalformedDocumentError.
func Parse(data []byte) (*Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	tree, err := xmlquery.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, &MalformedDocumentError{Err: err}
	}

	d := &Document{root: -1}
	for n := tree.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			d.root = d.addElement(n)
			break
		}
	}
	if d.root < 0 {
		return nil, &MalformedDocumentError{Err: errors.New("no root element")}
	}
	return d, nil
}

// addElement copies one element and its element children into the arena,
// returning the new node's id. First definition wins on duplicate attributes.
func (d *Document) addElement(n *xmlquery.Node) NodeID {
	attrs := make(map[string]string, len(n.Attr))
	for _, a := range n.Attr {
		if _, ok := attrs[a.Name.Local]; !ok {
			attrs[a.Name.Local] = a.Value
		}
	}

	id := NodeID(len(d.nodes))
	d.nodes = append(d.nodes, node{tag: n.Data, attrs: attrs})

	var children []NodeID
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == xmlquery.ElementNode {
			children = append(children, d.addElement(c))
		}
	}
	d.nodes[id].children = children
	return id
}

// Root returns the document's root element.
func (d *Document) Root() NodeID { return d.root }

// Tag returns the element name of a node.
func (d *Document) Tag(id NodeID) string { return d.nodes[id].tag }

// Children returns a node's child elements in document order.
func (d *Document) Children(id NodeID) []NodeID { return d.nodes[id].children }

// TopLevel validates that the root tag equals RootTag and returns the root's
// children, the usable top-level nodes of a schema document.
func (d *Document) TopLevel() ([]NodeID, error) {
	if d.nodes[d.root].tag != RootTag {
		return nil, &UnexpectedRootError{Got: d.nodes[d.root].tag}
	}
	return d.nodes[d.root].children, nil
}

// Attr returns a required string attribute.
func (d *Document) Attr(id NodeID, name string) (string, error) {
	v, ok := d.nodes[id].attrs[name]
	if !ok {
		return "", &MissingAttributeError{Tag: d.nodes[id].tag, Attr: name}
	}
	return v, nil
}

// OptionalAttr returns an attribute value and whether it was present.
func (d *Document) OptionalAttr(id NodeID, name string) (string, bool) {
	v, ok := d.nodes[id].attrs[name]
	return v, ok
}

// IntAttr returns a required integer attribute.
func (d *Document) IntAttr(id NodeID, name string) (int, error) {
	v, err := d.Attr(id, name)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &NotANumberError{Tag: d.nodes[id].tag, Attr: name, Value: v}
	}
	return n, nil
}

// FindChild scans ids in document order for the first node with the given tag
// whose integer attribute attr equals want. Document sizes are small, so a
// linear scan per lookup is fine; no index is built at this layer.
func (d *Document) FindChild(ids []NodeID, tag, attr string, want int) (NodeID, error) {
	for _, id := range ids {
		if d.nodes[id].tag != tag {
			continue
		}
		got, err := d.IntAttr(id, attr)
		if err != nil {
			return 0, err
		}
		if got == want {
			return id, nil
		}
	}
	return 0, &NotFoundError{Tag: tag, ID: want}
}
