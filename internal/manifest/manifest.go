// Package manifest reads and writes the committed pin manifest,
// .codepin/pins.toml. The manifest declares what to watch; baseline
// fingerprints are captured at sync time by indexing the declared
// constructs, never stored in the manifest itself.
package manifest

import (
	"os"
	"path/filepath"

	"github.com/pelletier/go-toml/v2"

	"codepin/internal/construct"
	"codepin/internal/errors"
	"codepin/internal/target"
)

// DefaultPath is the manifest location relative to the repo root
const DefaultPath = ".codepin/pins.toml"

// Manifest is the full pin declaration file
type Manifest struct {
	Version int   `toml:"version"`
	Pins    []Pin `toml:"pin"`
}

// Pin declares one subscription. Exactly one of Line and Semantic is set.
type Pin struct {
	ID       string       `toml:"id"`
	Note     string       `toml:"note,omitempty"`
	Line     *LinePin     `toml:"line,omitempty"`
	Semantic *SemanticPin `toml:"semantic,omitempty"`
}

// LinePin declares a line-range subscription
type LinePin struct {
	Path      string   `toml:"path"`
	StartLine int      `toml:"start_line"`
	EndLine   int      `toml:"end_line"`
	Anchors   []string `toml:"anchors,omitempty"`
}

// SemanticPin declares a construct subscription
type SemanticPin struct {
	Language        string `toml:"language,omitempty"`
	Path            string `toml:"path"`
	Kind            string `toml:"kind,omitempty"`
	Qualname        string `toml:"qualname"`
	IncludeMembers  bool   `toml:"include_members,omitempty"`
	IncludePrivate  bool   `toml:"include_private,omitempty"`
	TrackDecorators bool   `toml:"track_decorators,omitempty"`
}

// Load reads and validates a manifest file. A missing file yields an empty
// manifest so sync against a fresh repo is a no-op, not an error.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- manifest path comes from config
	if os.IsNotExist(err) {
		return &Manifest{Version: 1}, nil
	}
	if err != nil {
		return nil, errors.New(errors.StorageError, "reading manifest", err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, errors.New(errors.InvalidTarget, "parsing manifest", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Save writes the manifest, creating its directory when needed
func (m *Manifest) Save(path string) error {
	if err := m.Validate(); err != nil {
		return err
	}

	data, err := toml.Marshal(m)
	if err != nil {
		return errors.New(errors.StorageError, "encoding manifest", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return errors.New(errors.StorageError, "creating manifest directory", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.New(errors.StorageError, "writing manifest", err)
	}
	return nil
}

// Validate rejects manifests with duplicate ids or malformed pins
func (m *Manifest) Validate() error {
	if m.Version != 1 {
		return errors.Newf(errors.InvalidTarget, "unsupported manifest version %d", m.Version)
	}

	seen := make(map[string]bool, len(m.Pins))
	for i := range m.Pins {
		p := &m.Pins[i]
		if p.ID == "" {
			return errors.Newf(errors.InvalidTarget, "pin %d has no id", i)
		}
		if seen[p.ID] {
			return errors.Newf(errors.InvalidTarget, "duplicate pin id %q", p.ID)
		}
		seen[p.ID] = true

		switch {
		case p.Line != nil && p.Semantic == nil:
			lt := p.Line.Target()
			if err := target.ValidateLine(lt); err != nil {
				return err
			}
		case p.Semantic != nil && p.Line == nil:
			st := p.Semantic.Target()
			if err := target.ValidateSemantic(st); err != nil {
				return err
			}
		default:
			return errors.Newf(errors.InvalidTarget,
				"pin %q requires exactly one of line or semantic", p.ID)
		}
	}
	return nil
}

// Target converts the declaration into a line target
func (p *LinePin) Target() *target.LineTarget {
	return &target.LineTarget{
		Path:      p.Path,
		StartLine: p.StartLine,
		EndLine:   p.EndLine,
		Anchors:   p.Anchors,
	}
}

// Target converts the declaration into a semantic target. Baseline hashes
// and member fingerprints are left empty for the caller to capture.
func (p *SemanticPin) Target() *target.SemanticTarget {
	return &target.SemanticTarget{
		Language:        p.Language,
		Path:            p.Path,
		Kind:            construct.Kind(p.Kind),
		Qualname:        p.Qualname,
		IncludeMembers:  p.IncludeMembers,
		IncludePrivate:  p.IncludePrivate,
		TrackDecorators: p.TrackDecorators,
	}
}
