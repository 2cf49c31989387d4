package vfs

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrNotDirectory is returned when a decoded tree root is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// wireNode is the persisted shape of a node:
// {"name", "type": "file"|"directory", "content"?, "children"?}.
type wireNode struct {
	Name     string               `json:"name"`
	Type     string               `json:"type"`
	Content  *string              `json:"content,omitempty"`
	Children map[string]*wireNode `json:"children,omitempty"`
}

func toWire(n Node, withContent bool) *wireNode {
	switch n := n.(type) {
	case *File:
		w := &wireNode{Name: n.name, Type: KindFile.String()}
		if withContent {
			content := n.content
			w.Content = &content
		}
		return w
	case *Dir:
		w := &wireNode{Name: n.name, Type: KindDir.String(), Children: make(map[string]*wireNode, len(n.children))}
		for name, child := range n.children {
			w.Children[name] = toWire(child, withContent)
		}
		return w
	default:
		return nil
	}
}

func fromWire(w *wireNode, p string) (Node, error) {
	if w == nil {
		return nil, fmt.Errorf("decode %s: null node", p)
	}
	switch w.Type {
	case "file":
		if len(w.Children) > 0 {
			return nil, fmt.Errorf("decode %s: file with children", p)
		}
		var content string
		if w.Content != nil {
			content = *w.Content
		}
		return NewFile(w.Name, content), nil
	case "directory":
		d := &Dir{name: w.Name, children: make(map[string]Node, len(w.Children))}
		for key, cw := range w.Children {
			childPath := Join(p, key)
			if cw == nil || cw.Name != key {
				return nil, fmt.Errorf("decode %s: child key does not match node name", childPath)
			}
			if !ValidName(key) {
				return nil, fmt.Errorf("decode %s: invalid name %q", childPath, key)
			}
			child, err := fromWire(cw, childPath)
			if err != nil {
				return nil, err
			}
			d.children[key] = child
		}
		return d, nil
	default:
		return nil, fmt.Errorf("decode %s: unknown node type %q", p, w.Type)
	}
}

// MarshalJSON encodes the file in the persisted node shape.
func (f *File) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(f, true))
}

// MarshalJSON encodes the directory and its subtree in the persisted node
// shape.
func (d *Dir) MarshalJSON() ([]byte, error) {
	return json.Marshal(toWire(d, true))
}

// UnmarshalJSON decodes a directory tree, rejecting a file at the top and any
// child whose key differs from its name.
func (d *Dir) UnmarshalJSON(data []byte) error {
	decoded, err := DecodeDir(data)
	if err != nil {
		return err
	}
	*d = *decoded
	return nil
}

// Decode parses a node tree from its JSON encoding.
func Decode(data []byte) (Node, error) {
	var w wireNode
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to unmarshal node: %w", err)
	}
	return fromWire(&w, Separator)
}

// DecodeDir parses a tree whose top node must be a directory.
func DecodeDir(data []byte) (*Dir, error) {
	n, err := Decode(data)
	if err != nil {
		return nil, err
	}
	d, ok := n.(*Dir)
	if !ok {
		return nil, fmt.Errorf("decode %s: %w", Separator, ErrNotDirectory)
	}
	return d, nil
}

// Outline encodes root as indented JSON with file contents left out. It is
// the structure summary handed to the assistant.
func Outline(root Node) ([]byte, error) {
	return json.MarshalIndent(toWire(root, false), "", "  ")
}
