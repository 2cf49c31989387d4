package vfs

import (
	"sort"
	"strings"
)

// TreeLine is one row of the file tree view.
type TreeLine struct {
	Depth int
	Name  string
	Path  string
	Kind  Kind
}

// Tree flattens root into display rows: directories before files, then by
// name. The root row is labelled "root".
func Tree(root Node) []TreeLine {
	if root == nil {
		return nil
	}
	var lines []TreeLine
	var visit func(n Node, p string, depth int)
	visit = func(n Node, p string, depth int) {
		name := n.Name()
		if depth == 0 && name == RootName {
			name = "root"
		}
		lines = append(lines, TreeLine{Depth: depth, Name: name, Path: p, Kind: n.Kind()})
		if dir, ok := n.(*Dir); ok {
			for _, child := range SortedForTree(dir) {
				visit(child, Join(p, child.Name()), depth+1)
			}
		}
	}
	visit(root, Separator, 0)
	return lines
}

// SortedForTree returns the children of d, directories first, each group in
// lexical order.
func SortedForTree(d *Dir) []Node {
	nodes := d.Children()
	sort.SliceStable(nodes, func(i, j int) bool {
		di, dj := nodes[i].Kind() == KindDir, nodes[j].Kind() == KindDir
		if di != dj {
			return di
		}
		return nodes[i].Name() < nodes[j].Name()
	})
	return nodes
}

// RenderTree renders root as indented text, two spaces per level, with a
// trailing separator on directories.
func RenderTree(root Node) string {
	var b strings.Builder
	for _, line := range Tree(root) {
		b.WriteString(strings.Repeat("  ", line.Depth))
		b.WriteString(line.Name)
		if line.Kind == KindDir && line.Depth > 0 {
			b.WriteString(Separator)
		}
		b.WriteByte('\n')
	}
	return b.String()
}

// WalkFunc is called for every node visited by Walk with its absolute path.
type WalkFunc func(p string, n Node) error

// Walk visits root and its descendants depth-first in lexical order, parents
// before children. The first error returned by fn stops the walk.
func Walk(root Node, fn WalkFunc) error {
	if root == nil {
		return nil
	}
	return walk(Separator, root, fn)
}

func walk(p string, n Node, fn WalkFunc) error {
	if err := fn(p, n); err != nil {
		return err
	}
	dir, ok := n.(*Dir)
	if !ok {
		return nil
	}
	for _, child := range dir.Children() {
		if err := walk(Join(p, child.Name()), child, fn); err != nil {
			return err
		}
	}
	return nil
}

// Stats summarises a tree.
type Stats struct {
	Dirs  int
	Files int
	Bytes int
}

// Count returns the number of directories (root included), files and content
// bytes in root.
func Count(root Node) Stats {
	var s Stats
	_ = Walk(root, func(_ string, n Node) error {
		switch n := n.(type) {
		case *Dir:
			s.Dirs++
		case *File:
			s.Files++
			s.Bytes += len(n.content)
		}
		return nil
	})
	return s
}
