// Package templates holds the registry of project templates a container can
// be seeded from, and builds the initial filesystem for a selection.
//
// A selection names exactly one base template plus any number of UI and
// datastore overlays. The base decides the skeleton tree; overlays add files
// on top of it in dependency order.
package templates

import (
	_ "embed"
	"fmt"
	"path"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed registry.yaml
var registryYAML []byte

// Category is one of the three registry sections.
type Category string

const (
	// CategoryTemplates holds base templates
	CategoryTemplates Category = "TEMPLATES"
	// CategoryUI holds UI library overlays
	CategoryUI Category = "UI"
	// CategoryDatastore holds datastore overlays
	CategoryDatastore Category = "DATASTORE"
)

// Categories lists the registry sections in display order.
var Categories = []Category{CategoryTemplates, CategoryUI, CategoryDatastore}

// Skeleton names
const (
	SkeletonReact   = "react"
	SkeletonVanilla = "vanilla"
)

// DefaultBase is chosen when a prompt names no base template.
const DefaultBase = "REACT"

// Entry is one registry item.
type Entry struct {
	Name     string            `yaml:"name" json:"name"`
	Category Category          `yaml:"-" json:"category"`
	Path     string            `yaml:"path" json:"path"`
	Tags     []string          `yaml:"tags" json:"tags"`
	Files    map[string]string `yaml:"files,omitempty" json:"files,omitempty"`
	After    []string          `yaml:"after,omitempty" json:"after,omitempty"`
}

// Skeleton is the starting tree for a family of base templates. Paths are
// relative to the container root.
type Skeleton struct {
	Dirs  []string          `yaml:"dirs,omitempty"`
	Files map[string]string `yaml:"files"`
}

type registryFile struct {
	Skeletons map[string]Skeleton `yaml:"skeletons"`
	Templates []Entry             `yaml:"templates"`
	UI        []Entry             `yaml:"ui"`
	Datastore []Entry             `yaml:"datastore"`
}

// Registry is a validated, read-only set of templates.
type Registry struct {
	skeletons map[string]Skeleton
	entries   map[Category][]Entry
	byName    map[string]Entry
	order     map[string]int
}

// RegistryError reports an invalid registry document.
type RegistryError struct {
	Entry  string
	Reason string
	Err    error
}

func (e *RegistryError) Error() string {
	msg := "invalid template registry"
	if e.Entry != "" {
		msg += fmt.Sprintf(" entry %s", e.Entry)
	}
	msg += ": " + e.Reason
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *RegistryError) Unwrap() error {
	return e.Err
}

// Load parses and validates a registry document.
func Load(data []byte) (*Registry, error) {
	var doc registryFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &RegistryError{Reason: "cannot parse document", Err: err}
	}

	r := &Registry{
		skeletons: doc.Skeletons,
		entries:   make(map[Category][]Entry, len(Categories)),
		byName:    make(map[string]Entry),
		order:     make(map[string]int),
	}

	for _, name := range []string{SkeletonReact, SkeletonVanilla} {
		sk, ok := doc.Skeletons[name]
		if !ok {
			return nil, &RegistryError{Reason: fmt.Sprintf("missing skeleton %q", name)}
		}
		for p := range sk.Files {
			if err := checkRelPath(p); err != nil {
				return nil, &RegistryError{Entry: "skeleton " + name, Reason: err.Error()}
			}
		}
		for _, p := range sk.Dirs {
			if err := checkRelPath(p); err != nil {
				return nil, &RegistryError{Entry: "skeleton " + name, Reason: err.Error()}
			}
		}
	}

	sections := map[Category][]Entry{
		CategoryTemplates: doc.Templates,
		CategoryUI:        doc.UI,
		CategoryDatastore: doc.Datastore,
	}
	for _, cat := range Categories {
		for _, e := range sections[cat] {
			e.Category = cat
			if err := r.add(e); err != nil {
				return nil, err
			}
		}
	}
	if len(r.entries[CategoryTemplates]) == 0 {
		return nil, &RegistryError{Reason: "no base templates"}
	}
	if _, ok := r.byName[DefaultBase]; !ok {
		return nil, &RegistryError{Reason: fmt.Sprintf("default base %s is not registered", DefaultBase)}
	}

	for _, e := range r.byName {
		for _, dep := range e.After {
			other, ok := r.byName[dep]
			if !ok {
				return nil, &RegistryError{Entry: e.Name, Reason: fmt.Sprintf("after references unknown entry %s", dep)}
			}
			if other.Category == CategoryTemplates || e.Category == CategoryTemplates {
				return nil, &RegistryError{Entry: e.Name, Reason: "only overlays can be ordered"}
			}
		}
	}

	// every overlay at once, so a cycle is reported at load time
	if _, err := r.Order(append(r.Names(CategoryUI), r.Names(CategoryDatastore)...)); err != nil {
		return nil, &RegistryError{Reason: "overlay ordering", Err: err}
	}
	return r, nil
}

func (r *Registry) add(e Entry) error {
	if e.Name == "" {
		return &RegistryError{Reason: fmt.Sprintf("unnamed entry in %s", e.Category)}
	}
	if strings.TrimSpace(e.Path) == "" {
		return &RegistryError{Entry: e.Name, Reason: "missing path"}
	}
	if _, dup := r.byName[e.Name]; dup {
		return &RegistryError{Entry: e.Name, Reason: "duplicate name"}
	}
	if e.Category == CategoryTemplates && len(e.Files) > 0 {
		return &RegistryError{Entry: e.Name, Reason: "base templates cannot carry files"}
	}
	for p := range e.Files {
		if err := checkRelPath(p); err != nil {
			return &RegistryError{Entry: e.Name, Reason: err.Error()}
		}
	}
	r.order[e.Name] = len(r.byName)
	r.byName[e.Name] = e
	r.entries[e.Category] = append(r.entries[e.Category], e)
	return nil
}

func checkRelPath(p string) error {
	if p == "" || strings.HasPrefix(p, "/") || strings.Contains(p, `\`) {
		return fmt.Errorf("bad file path %q", p)
	}
	if path.Clean(p) != p || strings.HasPrefix(p, "..") {
		return fmt.Errorf("file path %q is not clean", p)
	}
	return nil
}

var defaultRegistry = sync.OnceValues(func() (*Registry, error) {
	return Load(registryYAML)
})

// Default returns the registry embedded in the binary.
func Default() (*Registry, error) {
	return defaultRegistry()
}

// Entries returns the entries of one category in registry order.
func (r *Registry) Entries(cat Category) []Entry {
	out := make([]Entry, len(r.entries[cat]))
	copy(out, r.entries[cat])
	return out
}

// Names returns the entry names of one category in registry order.
func (r *Registry) Names(cat Category) []string {
	names := make([]string, 0, len(r.entries[cat]))
	for _, e := range r.entries[cat] {
		names = append(names, e.Name)
	}
	return names
}

// Lookup returns the entry called name.
func (r *Registry) Lookup(name string) (Entry, bool) {
	e, ok := r.byName[name]
	return e, ok
}

// SkeletonFor returns the skeleton used for base. Any base whose name
// mentions REACT gets the react skeleton.
func (r *Registry) SkeletonFor(base string) (string, Skeleton) {
	name := SkeletonVanilla
	if strings.Contains(base, "REACT") {
		name = SkeletonReact
	}
	return name, r.skeletons[name]
}
