package templates

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gammazero/toposort"
	"github.com/rs/zerolog"

	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

// Selection is the set of templates a container is built from.
type Selection struct {
	Base      string   `json:"base"`
	UI        []string `json:"ui"`
	Datastore []string `json:"datastore"`
}

// Overlays returns the UI then datastore names.
func (s Selection) Overlays() []string {
	out := make([]string, 0, len(s.UI)+len(s.Datastore))
	out = append(out, s.UI...)
	return append(out, s.Datastore...)
}

// String renders the selection as "BASE + A, B".
func (s Selection) String() string {
	overlays := s.Overlays()
	if len(overlays) == 0 {
		return s.Base
	}
	return s.Base + " + " + strings.Join(overlays, ", ")
}

// Normalize returns sel restricted to names the registry knows, each in its
// own category, without duplicates. An unknown or missing base becomes
// DefaultBase.
func (r *Registry) Normalize(sel Selection) Selection {
	out := Selection{Base: DefaultBase, UI: []string{}, Datastore: []string{}}
	if e, ok := r.byName[sel.Base]; ok && e.Category == CategoryTemplates {
		out.Base = sel.Base
	}
	out.UI = r.filter(sel.UI, CategoryUI)
	out.Datastore = r.filter(sel.Datastore, CategoryDatastore)
	return out
}

func (r *Registry) filter(names []string, cat Category) []string {
	out := []string{}
	seen := make(map[string]bool)
	for _, name := range names {
		e, ok := r.byName[name]
		if !ok || e.Category != cat || seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
	}
	return out
}

// Order sorts overlay names so every entry follows the entries named in its
// After list. Entries that take no part in any ordering keep their input
// order after the ordered ones. Dependencies outside names are ignored.
func (r *Registry) Order(names []string) ([]Entry, error) {
	selected := make(map[string]bool, len(names))
	for _, name := range names {
		if _, ok := r.byName[name]; !ok {
			return nil, fmt.Errorf("unknown template %s", name)
		}
		selected[name] = true
	}

	edges := make([]toposort.Edge, 0)
	for _, name := range names {
		for _, dep := range r.byName[name].After {
			if selected[dep] {
				edges = append(edges, toposort.Edge{dep, name})
			}
		}
	}

	sorted, err := toposort.Toposort(edges)
	if err != nil {
		return nil, fmt.Errorf("circular template ordering: %w", err)
	}

	ordered := make([]Entry, 0, len(names))
	added := make(map[string]bool, len(names))
	for _, v := range sorted {
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("unexpected type in topological sort result: %T", v)
		}
		if !added[name] {
			added[name] = true
			ordered = append(ordered, r.byName[name])
		}
	}
	for _, name := range names {
		if !added[name] {
			added[name] = true
			ordered = append(ordered, r.byName[name])
		}
	}
	return ordered, nil
}

// SeedOption configures Seed
type SeedOption func(*seedConfig)

type seedConfig struct {
	logger zerolog.Logger
}

// WithLogger sets the logger Seed reports skipped overlay files to
func WithLogger(logger zerolog.Logger) SeedOption {
	return func(c *seedConfig) {
		c.logger = logger
	}
}

// Seed builds the initial filesystem for sel. The selection is normalized
// first. Overlay files whose parent directory does not exist in the tree
// built so far are skipped.
func (r *Registry) Seed(sel Selection, opts ...SeedOption) (*vfs.Dir, error) {
	cfg := seedConfig{logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(&cfg)
	}

	sel = r.Normalize(sel)
	skeletonName, sk := r.SkeletonFor(sel.Base)

	root := vfs.NewRoot()
	for _, d := range sk.Dirs {
		root = vfs.MkdirAll(root, "/"+d)
	}
	for _, p := range sortedKeys(sk.Files) {
		root = vfs.WriteFile(root, "/"+p, sk.Files[p])
	}

	overlays, err := r.Order(sel.Overlays())
	if err != nil {
		return nil, err
	}
	for _, e := range overlays {
		for _, rel := range sortedKeys(e.Files) {
			p := "/" + rel
			if _, ok := vfs.LookupDir(vfs.ParentDir(p), root); !ok {
				cfg.logger.Debug().
					Str("template", e.Name).
					Str("path", p).
					Str("skeleton", skeletonName).
					Msg("skipping overlay file, parent directory missing")
				continue
			}
			root = vfs.AddChild(root, vfs.ParentDir(p), vfs.NewFile(vfs.Base(p), e.Files[rel]))
		}
	}
	return root, nil
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
