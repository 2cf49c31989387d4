package vfs

// Lookup returns the node at the absolute path p below root.
//
// Every segment must name a child of a directory; a missing name and a file in
// the middle of the path both yield not-found. "/" returns root itself.
func Lookup(p string, root Node) (Node, bool) {
	if root == nil {
		return nil, false
	}
	current := root
	for _, segment := range Split(p) {
		dir, ok := current.(*Dir)
		if !ok {
			return nil, false
		}
		child, ok := dir.children[segment]
		if !ok {
			return nil, false
		}
		current = child
	}
	return current, true
}

// LookupDir returns the directory at p, if p names one.
func LookupDir(p string, root Node) (*Dir, bool) {
	n, ok := Lookup(p, root)
	if !ok {
		return nil, false
	}
	d, ok := n.(*Dir)
	return d, ok
}

// LookupFile returns the file at p, if p names one.
func LookupFile(p string, root Node) (*File, bool) {
	n, ok := Lookup(p, root)
	if !ok {
		return nil, false
	}
	f, ok := n.(*File)
	return f, ok
}
