package templates

import (
	"sort"
	"strings"
	"unicode"
)

// Match picks templates named in a free-text prompt without calling a model.
// Names match case-insensitively as whole words, with underscores read as
// spaces, so "material ui" finds MATERIAL_UI. The base is the earliest
// mentioned base template, preferring the longer name on a tie, and
// DefaultBase when none is mentioned. Overlays come back in prompt order.
func (r *Registry) Match(prompt string) Selection {
	text := " " + normalizeWords(prompt) + " "

	type hit struct {
		name string
		pos  int
	}
	find := func(cat Category) []hit {
		var hits []hit
		for _, name := range r.Names(cat) {
			if pos := strings.Index(text, " "+normalizeWords(name)+" "); pos >= 0 {
				hits = append(hits, hit{name: name, pos: pos})
			}
		}
		sort.SliceStable(hits, func(i, j int) bool {
			if hits[i].pos != hits[j].pos {
				return hits[i].pos < hits[j].pos
			}
			return len(hits[i].name) > len(hits[j].name)
		})
		return hits
	}
	names := func(hits []hit) []string {
		out := make([]string, len(hits))
		for i, h := range hits {
			out[i] = h.name
		}
		return out
	}

	sel := Selection{Base: DefaultBase}
	if bases := find(CategoryTemplates); len(bases) > 0 {
		sel.Base = bases[0].name
	}
	sel.UI = names(find(CategoryUI))
	sel.Datastore = names(find(CategoryDatastore))
	return r.Normalize(sel)
}

// normalizeWords lowercases s and collapses every run of characters that are
// not letters or digits into one space.
func normalizeWords(s string) string {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	return strings.Join(fields, " ")
}
