package source

import (
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
)

// node is a namespace-free view of one XML element.
type node struct {
	name     string
	attrs    map[string]string
	text     strings.Builder
	children []*node
}

// readTree decodes data into a node tree rooted at the document element.
func readTree(data []byte) (*node, error) {
	dec := xml.NewDecoder(bytes.NewReader(data))

	var (
		root  *node
		stack []*node
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return nil, fmt.Errorf("decoding XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			n := &node{name: t.Name.Local, attrs: make(map[string]string, len(t.Attr))}
			for _, a := range t.Attr {
				n.attrs[a.Name.Local] = a.Value
			}

			if len(stack) == 0 {
				if root != nil {
					return nil, errors.New("decoding XML: multiple root elements")
				}

				root = n
			} else {
				parent := stack[len(stack)-1]
				parent.children = append(parent.children, n)
			}

			stack = append(stack, n)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}

	if root == nil {
		return nil, errors.New("decoding XML: document has no root element")
	}

	return root, nil
}

func (n *node) attr(name string) string {
	return n.attrs[name]
}

func (n *node) content() string {
	return strings.TrimSpace(n.text.String())
}

// child returns the first direct child with the given local name.
func (n *node) child(name string) *node {
	for _, c := range n.children {
		if c.name == name {
			return c
		}
	}

	return nil
}

// descendants returns all elements below n whose name satisfies match, in document order.
func (n *node) descendants(match func(string) bool) []*node {
	var out []*node

	var walk func(*node)
	walk = func(cur *node) {
		for _, c := range cur.children {
			if match(c.name) {
				out = append(out, c)
			}

			walk(c)
		}
	}
	walk(n)

	return out
}

func named(names ...string) func(string) bool {
	return func(s string) bool {
		for _, n := range names {
			if s == n {
				return true
			}
		}

		return false
	}
}

// refs collects refDataItem attribute values of elements below n, in document order.
func (n *node) refs(match func(string) bool) []string {
	var out []string

	for _, d := range n.descendants(match) {
		if ref := d.attr("refDataItem"); ref != "" {
			out = append(out, ref)
		}
	}

	return out
}
