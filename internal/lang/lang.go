// Package lang defines the construct-indexer contract every language
// backend satisfies, and the explicit registry that maps file extensions to
// indexers. The registry is built once at startup and injected into the
// detector; there is no global mutable plugin state.
//
// All tree-sitter node inspection lives inside the per-language
// subpackages. The detector and fingerprinting code only ever see the
// normalized construct schema.
package lang

import (
	"context"
	"path/filepath"
	"sort"
	"strings"

	"codepin/internal/construct"
	"codepin/internal/errors"
)

// Indexer extracts constructs from one file's source text. Implementations
// must be deterministic: identical input yields an identical ordered list.
type Indexer interface {
	// Language returns the language tag, e.g. "python"
	Language() string

	// Extensions returns the file extensions this indexer handles,
	// dot included, e.g. [".py"]
	Extensions() []string

	// IndexFile extracts every construct in order of appearance.
	// Recoverable syntax damage marks constructs with HasParseError
	// rather than failing the whole file.
	IndexFile(ctx context.Context, source []byte, path string) ([]construct.Construct, error)

	// ContainerKinds lists the kinds that may carry members in this language
	ContainerKinds() []construct.Kind
}

// Find locates a construct by qualname and optional kind in an
// already-extracted list. It returns nil when absent and an AmbiguousMatch
// error when more than one construct carries the same (qualname, kind) —
// the caller must supply a disambiguator, never guess.
//
// For overload-bearing languages a qualname without a parameter list
// matches any overload; two or more overloads without a disambiguating
// parameter list are ambiguous.
func Find(constructs []construct.Construct, qualname string, kind construct.Kind) (*construct.Construct, error) {
	var matches []*construct.Construct

	for i := range constructs {
		c := &constructs[i]
		if kind != "" && c.Kind != kind {
			continue
		}
		if c.Qualname == qualname || bareQualname(c.Qualname) == qualname {
			matches = append(matches, c)
		}
	}

	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		names := make([]string, 0, len(matches))
		for _, m := range matches {
			names = append(names, string(m.Kind)+" "+m.Qualname)
		}
		return nil, errors.Newf(errors.AmbiguousMatch,
			"%q matches %d constructs: %s", qualname, len(matches), strings.Join(names, ", ")).
			WithDetails(names)
	}
}

// DirectMembers returns the container's direct members from an extracted
// list: constructs one level below the container qualname. Nested
// containers count as members; their own internals do not.
func DirectMembers(constructs []construct.Construct, containerQualname string) []construct.Construct {
	prefix := containerQualname + "."
	var members []construct.Construct

	for _, c := range constructs {
		if c.Qualname == containerQualname || !strings.HasPrefix(c.Qualname, prefix) {
			continue
		}
		rel := c.Qualname[len(prefix):]
		if !strings.Contains(bareQualname(rel), ".") {
			members = append(members, c)
		}
	}
	return members
}

// SupportsMembers reports whether kind may carry members in the indexer's
// language. Container eligibility is language-specific: Python has no
// interfaces, Java enums carry members, and so on.
func SupportsMembers(ix Indexer, kind construct.Kind) bool {
	for _, k := range ix.ContainerKinds() {
		if k == kind {
			return true
		}
	}
	return false
}

// bareQualname strips a trailing parenthesized parameter-type list
func bareQualname(qualname string) string {
	if i := strings.IndexByte(qualname, '('); i >= 0 {
		return qualname[:i]
	}
	return qualname
}

// Registry resolves file paths and language tags to indexers
type Registry struct {
	byExt  map[string]Indexer
	byLang map[string]Indexer
}

// NewRegistry builds a registry from the given indexers
func NewRegistry(indexers ...Indexer) *Registry {
	r := &Registry{
		byExt:  make(map[string]Indexer),
		byLang: make(map[string]Indexer),
	}
	for _, ix := range indexers {
		r.byLang[ix.Language()] = ix
		for _, ext := range ix.Extensions() {
			r.byExt[strings.ToLower(ext)] = ix
		}
	}
	return r
}

// ForPath returns the indexer for a file path's extension
func (r *Registry) ForPath(path string) (Indexer, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ix, ok := r.byExt[ext]; ok {
		return ix, nil
	}
	return nil, errors.Newf(errors.UnsupportedLanguage, "no indexer registered for %q files", ext)
}

// ForLanguage returns the indexer for a language tag
func (r *Registry) ForLanguage(tag string) (Indexer, error) {
	if ix, ok := r.byLang[tag]; ok {
		return ix, nil
	}
	return nil, errors.Newf(errors.UnsupportedLanguage, "no indexer registered for language %q", tag)
}

// Languages lists the registered language tags, sorted by tag
func (r *Registry) Languages() []string {
	tags := make([]string, 0, len(r.byLang))
	for tag := range r.byLang {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
