package templates

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arthur-debert/opshell/pkg/opshell/testutil"
	"github.com/arthur-debert/opshell/pkg/opshell/vfs"
)

func mustDefault(t *testing.T) *Registry {
	t.Helper()
	r, err := Default()
	require.NoError(t, err)
	return r
}

func TestDefaultRegistry(t *testing.T) {
	r := mustDefault(t)

	assert.Equal(t, []string{"REACT", "REACT_NATIVE", "VANILLA", "VUE"}, r.Names(CategoryTemplates))
	assert.Contains(t, r.Names(CategoryUI), "TAILWIND")
	assert.Contains(t, r.Names(CategoryDatastore), "IndexedDB")

	e, ok := r.Lookup("SHADCN")
	require.True(t, ok)
	assert.Equal(t, CategoryUI, e.Category)
	assert.Equal(t, []string{"TAILWIND"}, e.After)

	again, err := Default()
	require.NoError(t, err)
	assert.Same(t, r, again)
}

func TestSkeletonFor(t *testing.T) {
	r := mustDefault(t)
	tests := []struct {
		base string
		want string
	}{
		{"REACT", SkeletonReact},
		{"REACT_NATIVE", SkeletonReact},
		{"VANILLA", SkeletonVanilla},
		{"VUE", SkeletonVanilla},
		{"", SkeletonVanilla},
	}
	for _, tt := range tests {
		t.Run(tt.base, func(t *testing.T) {
			name, _ := r.SkeletonFor(tt.base)
			assert.Equal(t, tt.want, name)
		})
	}
}

func TestSeedReact(t *testing.T) {
	r := mustDefault(t)
	root, err := r.Seed(Selection{Base: "REACT"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		".gitignore", "index.html", "package.json", "public", "script.py",
		"src", "tsconfig.json", "vite.config.js", "webconsole.php",
	}, root.Names())

	src, ok := vfs.LookupDir("/src", root)
	require.True(t, ok)
	assert.Equal(t, []string{"App.css", "App.tsx", "components", "index.css", "main.tsx"}, src.Names())

	components, ok := vfs.LookupDir("/src/components", root)
	require.True(t, ok)
	assert.Equal(t, 0, components.Len())

	testutil.AssertFileContent(t, root, "/webconsole.php", `<?php echo "Webconsole active."; ?>`)
	testutil.AssertFileContent(t, root, "/script.py", `print("Python script executed.")`)
	testutil.AssertFileContent(t, root, "/.gitignore", "node_modules\ndist")
	testutil.AssertFileContent(t, root, "/src/App.tsx", "import React from \"react\";\n\nconst App = () => <div>Hello World</div>;\n\nexport default App;")
	testutil.AssertDirExists(t, root, "/public")
}

func TestSeedVanilla(t *testing.T) {
	r := mustDefault(t)
	root, err := r.Seed(Selection{Base: "VANILLA"})
	require.NoError(t, err)

	assert.Equal(t, []string{"index.html", "package.json", "src"}, root.Names())
	f, ok := vfs.LookupFile("/src/index.js", root)
	require.True(t, ok)
	assert.Equal(t, `console.log("Hello, World!");`, f.Content())

	pkg, ok := vfs.LookupFile("/package.json", root)
	require.True(t, ok)
	assert.Equal(t, "{\n  \"name\": \"vanilla-app\",\n  \"version\": \"1.0.0\"\n}", pkg.Content())
}

func TestSeedOverlays(t *testing.T) {
	r := mustDefault(t)

	root, err := r.Seed(Selection{Base: "REACT", UI: []string{"TAILWIND"}, Datastore: []string{"IndexedDB"}})
	require.NoError(t, err)

	tw, ok := vfs.LookupFile("/tailwind.config.js", root)
	require.True(t, ok)
	assert.Contains(t, tw.Content(), "tailwindcss")

	testutil.AssertFileContent(t, root, "/src/db.js", "// IndexedDB setup code")
}

func TestSeedSkipsFilesWithoutParent(t *testing.T) {
	data := []byte(`
skeletons:
  react:
    files:
      index.html: x
  vanilla:
    files:
      index.html: y
templates:
  - {name: REACT, path: t/react, tags: []}
datastore:
  - name: DB
    path: d/db
    tags: []
    files:
      src/db.js: '// db'
      db.txt: here
`)
	r, err := Load(data)
	require.NoError(t, err)

	root, err := r.Seed(Selection{Base: "REACT", Datastore: []string{"DB"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"db.txt", "index.html"}, root.Names())
	testutil.AssertNotExists(t, root, "/src")
}

func TestSeedIgnoresUnknownNames(t *testing.T) {
	r := mustDefault(t)
	root, err := r.Seed(Selection{Base: "COBOL", UI: []string{"NOPE", "IndexedDB"}})
	require.NoError(t, err)

	want, err := r.Seed(Selection{Base: "REACT"})
	require.NoError(t, err)
	testutil.AssertTreeEqual(t, want, root)
}

func TestNormalize(t *testing.T) {
	r := mustDefault(t)
	got := r.Normalize(Selection{
		Base:      "VUE",
		UI:        []string{"TAILWIND", "TAILWIND", "IndexedDB", "ANGULAR_MATERIAL"},
		Datastore: []string{"SUPABASE", "TAILWIND"},
	})
	assert.Equal(t, Selection{Base: "VUE", UI: []string{"TAILWIND"}, Datastore: []string{"SUPABASE"}}, got)

	got = r.Normalize(Selection{Base: "TAILWIND"})
	assert.Equal(t, DefaultBase, got.Base)
	assert.NotNil(t, got.UI)
	assert.NotNil(t, got.Datastore)
}

func TestOrder(t *testing.T) {
	r := mustDefault(t)

	names := func(entries []Entry) []string {
		out := make([]string, len(entries))
		for i, e := range entries {
			out[i] = e.Name
		}
		return out
	}

	ordered, err := r.Order([]string{"SHADCN", "BOOTSTRAP", "TAILWIND"})
	require.NoError(t, err)
	assert.Equal(t, []string{"TAILWIND", "SHADCN", "BOOTSTRAP"}, names(ordered))

	ordered, err = r.Order([]string{"SHADCN", "BOOTSTRAP"})
	require.NoError(t, err)
	assert.Equal(t, []string{"SHADCN", "BOOTSTRAP"}, names(ordered), "unselected dependency is ignored")

	ordered, err = r.Order(nil)
	require.NoError(t, err)
	assert.Empty(t, ordered)

	_, err = r.Order([]string{"MYSTERY"})
	assert.Error(t, err)
}

func TestLoadRejects(t *testing.T) {
	const skeletons = `
skeletons:
  react: {files: {a: b}}
  vanilla: {files: {a: b}}
`
	tests := []struct {
		name string
		doc  string
	}{
		{"not yaml", "skeletons: [unclosed"},
		{"missing skeleton", "skeletons:\n  react: {files: {a: b}}\ntemplates:\n  - {name: REACT, path: p}\n"},
		{"no templates", skeletons},
		{"default base missing", skeletons + "templates:\n  - {name: VUE, path: p}\n"},
		{"duplicate", skeletons + "templates:\n  - {name: REACT, path: p}\nui:\n  - {name: REACT, path: q}\n"},
		{"missing path", skeletons + "templates:\n  - {name: REACT}\n"},
		{"unnamed", skeletons + "templates:\n  - {name: REACT, path: p}\nui:\n  - {path: q}\n"},
		{"absolute file", skeletons + "templates:\n  - {name: REACT, path: p}\nui:\n  - {name: A, path: q, files: {/etc/x: y}}\n"},
		{"dotdot file", skeletons + "templates:\n  - {name: REACT, path: p}\nui:\n  - {name: A, path: q, files: {../x: y}}\n"},
		{"base with files", skeletons + "templates:\n  - {name: REACT, path: p, files: {x: y}}\n"},
		{"unknown after", skeletons + "templates:\n  - {name: REACT, path: p}\nui:\n  - {name: A, path: q, after: [B]}\n"},
		{"base in after", skeletons + "templates:\n  - {name: REACT, path: p}\nui:\n  - {name: A, path: q, after: [REACT]}\n"},
		{"cycle", skeletons + "templates:\n  - {name: REACT, path: p}\nui:\n  - {name: A, path: q, after: [B]}\n  - {name: B, path: r, after: [A]}\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.doc))
			require.Error(t, err)
			var regErr *RegistryError
			assert.True(t, errors.As(err, &regErr), "got %T: %v", err, err)
		})
	}
}

func TestMatch(t *testing.T) {
	r := mustDefault(t)
	tests := []struct {
		prompt string
		want   Selection
	}{
		{
			"Build a react app with tailwind and indexeddb",
			Selection{Base: "REACT", UI: []string{"TAILWIND"}, Datastore: []string{"IndexedDB"}},
		},
		{
			"a todo list",
			Selection{Base: "REACT", UI: []string{}, Datastore: []string{}},
		},
		{
			"vanilla site, then maybe vue later; bootstrap + Material UI, store in supabase",
			Selection{Base: "VANILLA", UI: []string{"BOOTSTRAP", "MATERIAL_UI"}, Datastore: []string{"SUPABASE"}},
		},
		{
			"REACT_NATIVE mobile app with firebase",
			Selection{Base: "REACT_NATIVE", UI: []string{}, Datastore: []string{"FIREBASE"}},
		},
		{
			"preact storefront",
			Selection{Base: "REACT", UI: []string{}, Datastore: []string{}},
		},
	}
	for _, tt := range tests {
		t.Run(tt.prompt, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Match(tt.prompt))
		})
	}
}

func TestSelectionString(t *testing.T) {
	assert.Equal(t, "REACT", Selection{Base: "REACT"}.String())
	assert.Equal(t, "REACT + TAILWIND, IndexedDB",
		Selection{Base: "REACT", UI: []string{"TAILWIND"}, Datastore: []string{"IndexedDB"}}.String())
}
