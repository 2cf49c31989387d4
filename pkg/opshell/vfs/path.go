package vfs

import "strings"

// Separator is the path separator used inside a container.
const Separator = "/"

// ResolvePath resolves target against the absolute path cwd.
//
// Resolution is purely lexical: "." is skipped, ".." pops one segment (popping
// past the root is a no-op) and empty segments are dropped. The tree is never
// consulted, so a path that does not exist still resolves to a well-formed
// absolute path. An empty target yields cwd unchanged.
func ResolvePath(cwd, target string) string {
	if target == "" {
		return cwd
	}

	var stack []string
	if !strings.HasPrefix(target, Separator) {
		stack = Split(cwd)
	}

	for _, segment := range Split(target) {
		switch segment {
		case ".":
		case "..":
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		default:
			stack = append(stack, segment)
		}
	}

	return Separator + strings.Join(stack, Separator)
}

// Split returns the non-empty segments of path.
func Split(path string) []string {
	parts := strings.Split(path, Separator)
	segments := parts[:0]
	for _, p := range parts {
		if p != "" {
			segments = append(segments, p)
		}
	}
	return segments
}

// Join appends name to the absolute directory path dir.
func Join(dir, name string) string {
	if dir == Separator || dir == "" {
		return Separator + name
	}
	return strings.TrimSuffix(dir, Separator) + Separator + name
}

// ParentDir returns the parent of the absolute path p. The parent of the root is
// the root.
func ParentDir(p string) string {
	segments := Split(p)
	if len(segments) <= 1 {
		return Separator
	}
	return Separator + strings.Join(segments[:len(segments)-1], Separator)
}

// Base returns the last segment of p, or the root name for the root.
func Base(p string) string {
	segments := Split(p)
	if len(segments) == 0 {
		return RootName
	}
	return segments[len(segments)-1]
}
