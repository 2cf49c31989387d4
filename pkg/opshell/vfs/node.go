// Package vfs implements the in-memory filesystem owned by a container.
//
// A tree is built from two node kinds, *File and *Dir. Nodes never change after
// construction: every mutation helper returns a new tree that shares the
// untouched subtrees of the old one, so a snapshot handed out earlier stays
// valid for as long as anyone holds it.
package vfs

import (
	"sort"
	"strings"
)

// RootName is the conventional name of a container's root directory.
const RootName = "/"

// Kind identifies which variant a Node is
type Kind int

const (
	// KindFile is a regular file with text content
	KindFile Kind = iota
	// KindDir is a directory holding named children
	KindDir
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindFile:
		return "file"
	case KindDir:
		return "directory"
	default:
		return "unknown"
	}
}

// Node is a single entry in a container filesystem.
// *File and *Dir are the only implementations.
type Node interface {
	Name() string
	Kind() Kind
	node()
}

// File is a leaf node holding text content.
type File struct {
	name    string
	content string
}

// NewFile creates a file node.
func NewFile(name, content string) *File {
	return &File{name: name, content: content}
}

// Name returns the file name.
func (f *File) Name() string { return f.name }

// Kind returns KindFile.
func (f *File) Kind() Kind { return KindFile }

// Content returns the file content.
func (f *File) Content() string { return f.content }

// WithContent returns a copy of the file holding content.
func (f *File) WithContent(content string) *File {
	return &File{name: f.name, content: content}
}

func (f *File) node() {}

// Dir is a directory node. Children are keyed by their own name.
type Dir struct {
	name     string
	children map[string]Node
}

// NewDir creates a directory holding children. A later child replaces an
// earlier one with the same name; nil children are ignored.
func NewDir(name string, children ...Node) *Dir {
	d := &Dir{name: name, children: make(map[string]Node, len(children))}
	for _, child := range children {
		if child != nil {
			d.children[child.Name()] = child
		}
	}
	return d
}

// NewRoot creates a root directory holding children.
func NewRoot(children ...Node) *Dir {
	return NewDir(RootName, children...)
}

// Name returns the directory name.
func (d *Dir) Name() string { return d.name }

// Kind returns KindDir.
func (d *Dir) Kind() Kind { return KindDir }

func (d *Dir) node() {}

// Child returns the child called name.
func (d *Dir) Child(name string) (Node, bool) {
	n, ok := d.children[name]
	return n, ok
}

// Has reports whether a child called name exists.
func (d *Dir) Has(name string) bool {
	_, ok := d.children[name]
	return ok
}

// Len returns the number of children.
func (d *Dir) Len() int { return len(d.children) }

// Names returns the child names in lexical order.
func (d *Dir) Names() []string {
	names := make([]string, 0, len(d.children))
	for name := range d.children {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Children returns the children in lexical name order.
func (d *Dir) Children() []Node {
	names := d.Names()
	nodes := make([]Node, len(names))
	for i, name := range names {
		nodes[i] = d.children[name]
	}
	return nodes
}

// ChildMap returns a private copy of the children mapping.
func (d *Dir) ChildMap() map[string]Node {
	m := make(map[string]Node, len(d.children))
	for name, n := range d.children {
		m[name] = n
	}
	return m
}

// withChildren builds a sibling of d holding children. Keys are rebuilt from
// the node names so a caller cannot introduce aliases.
func (d *Dir) withChildren(children map[string]Node) *Dir {
	next := &Dir{name: d.name, children: make(map[string]Node, len(children))}
	for _, n := range children {
		if n != nil {
			next.children[n.Name()] = n
		}
	}
	return next
}

// ValidName reports whether name can be used for a new node: it must be
// non-empty and must not contain a path separator.
func ValidName(name string) bool {
	return name != "" && !strings.ContainsAny(name, `/\`)
}

// Equal reports whether a and b are structurally identical trees.
func Equal(a, b Node) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Name() != b.Name() {
		return false
	}
	switch x := a.(type) {
	case *File:
		y, ok := b.(*File)
		return ok && x.content == y.content
	case *Dir:
		y, ok := b.(*Dir)
		if !ok || len(x.children) != len(y.children) {
			return false
		}
		for name, child := range x.children {
			other, ok := y.children[name]
			if !ok || !Equal(child, other) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
