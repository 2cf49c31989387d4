// Package export copies a container filesystem to and from a real directory.
package export

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// ErrNotEmpty is returned when the destination holds files and Overwrite is
// not set.
var ErrNotEmpty = errors.New("destination is not empty")

// ErrReservedName is returned for trees holding a node named "." or "..",
// which the shell accepts but a host path cannot represent.
var ErrReservedName = errors.New("reserved name cannot be exported")

// Options configures Export
type Options struct {
	// Overwrite allows writing into a non-empty destination. Existing files
	// with the same path are replaced; other files are left alone.
	Overwrite bool
	// DirMode and FileMode default to 0755 and 0644.
	DirMode  fs.FileMode
	FileMode fs.FileMode
}

// Export writes the tree under root into dir on fsys and returns what it
// wrote. The root directory itself maps to dir.
func Export(fsys afero.Fs, dir string, root *vfs.Dir, opts Options) (vfs.Stats, error) {
	if opts.DirMode == 0 {
		opts.DirMode = 0o755
	}
	if opts.FileMode == 0 {
		opts.FileMode = 0o644
	}

	if err := checkNames(root); err != nil {
		return vfs.Stats{}, err
	}

	if !opts.Overwrite {
		empty, err := isEmptyOrMissing(fsys, dir)
		if err != nil {
			return vfs.Stats{}, err
		}
		if !empty {
			return vfs.Stats{}, fmt.Errorf("export to %s: %w", dir, ErrNotEmpty)
		}
	}

	var stats vfs.Stats
	err := vfs.Walk(root, func(p string, n vfs.Node) error {
		target := filepath.Join(dir, filepath.FromSlash(p))
		switch node := n.(type) {
		case *vfs.Dir:
			if err := fsys.MkdirAll(target, opts.DirMode); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			stats.Dirs++
		case *vfs.File:
			if err := afero.WriteFile(fsys, target, []byte(node.Content()), opts.FileMode); err != nil {
				return fmt.Errorf("failed to write file %s: %w", target, err)
			}
			stats.Files++
			stats.Bytes += len(node.Content())
		}
		return nil
	})
	return stats, err
}

func checkNames(root *vfs.Dir) error {
	return vfs.Walk(root, func(p string, n vfs.Node) error {
		if p == vfs.Separator {
			return nil
		}
		if name := n.Name(); name == "." || name == ".." {
			return fmt.Errorf("export %s: %w", p, ErrReservedName)
		}
		return nil
	})
}

func isEmptyOrMissing(fsys afero.Fs, dir string) (bool, error) {
	info, err := fsys.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	if !info.IsDir() {
		return false, fmt.Errorf("export to %s: not a directory", dir)
	}
	return afero.IsEmpty(fsys, dir)
}

// Import reads dir on fsys into a new tree. Entries whose names cannot exist
// in a container are reported as errors.
func Import(fsys afero.Fs, dir string) (*vfs.Dir, error) {
	info, err := fsys.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("import %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("import %s: not a directory", dir)
	}

	root := vfs.NewRoot()
	err = afero.Walk(fsys, dir, func(p string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		target := vfs.Separator + filepath.ToSlash(rel)
		if !vfs.ValidName(info.Name()) {
			return fmt.Errorf("import %s: invalid name %q", dir, info.Name())
		}

		switch {
		case info.IsDir():
			root = vfs.MkdirAll(root, target)
		case info.Mode().IsRegular():
			content, err := afero.ReadFile(fsys, p)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", p, err)
			}
			root = vfs.WriteFile(root, target, string(content))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return root, nil
}
