package vfs

// ChildrenFunc rewrites the children of one directory. It receives a private
// copy of the mapping and may modify and return it.
type ChildrenFunc func(children map[string]Node) map[string]Node

// WithModifiedChildren returns a tree in which the children of the directory
// at dirPath have been replaced by f(existing).
//
// Only the ancestors of the target are copied; every other subtree is shared
// with root, which is left untouched. When dirPath does not name a directory
// nothing is applied and a tree equal to root is returned, so callers that
// need to report such a case must check with Lookup first.
func WithModifiedChildren(root *Dir, dirPath string, f ChildrenFunc) *Dir {
	if root == nil {
		return nil
	}
	updated, ok := modify(root, Split(dirPath), f)
	if !ok {
		return root
	}
	return updated
}

func modify(dir *Dir, segments []string, f ChildrenFunc) (*Dir, bool) {
	if len(segments) == 0 {
		children := f(dir.ChildMap())
		return dir.withChildren(children), true
	}

	child, ok := dir.children[segments[0]]
	if !ok {
		return nil, false
	}
	sub, ok := child.(*Dir)
	if !ok {
		return nil, false
	}

	updated, ok := modify(sub, segments[1:], f)
	if !ok {
		return nil, false
	}

	children := dir.ChildMap()
	children[segments[0]] = updated
	return dir.withChildren(children), true
}

// AddChild returns a tree with n added to the directory at dirPath, replacing
// any existing child of the same name.
func AddChild(root *Dir, dirPath string, n Node) *Dir {
	return WithModifiedChildren(root, dirPath, func(children map[string]Node) map[string]Node {
		children[n.Name()] = n
		return children
	})
}

// MkdirAll returns a tree in which every directory along the absolute path p
// exists. A file in the way stops the walk; the part built so far is kept.
func MkdirAll(root *Dir, p string) *Dir {
	current := Separator
	for _, segment := range Split(p) {
		next := Join(current, segment)
		n, ok := Lookup(next, root)
		switch {
		case !ok:
			root = AddChild(root, current, NewDir(segment))
		case n.Kind() != KindDir:
			return root
		}
		current = next
	}
	return root
}

// WriteFile returns a tree with a file at the absolute path p holding
// content. Missing parents are created.
func WriteFile(root *Dir, p, content string) *Dir {
	parent := ParentDir(p)
	root = MkdirAll(root, parent)
	return AddChild(root, parent, NewFile(Base(p), content))
}
