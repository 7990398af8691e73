package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"codepin/internal/errors"
)

func TestLoadMissingFileIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "pins.toml"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Version != 1 || len(m.Pins) != 0 {
		t.Errorf("empty manifest = %+v", m)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.toml")

	m := &Manifest{
		Version: 1,
		Pins: []Pin{
			{
				ID:   "billing-charge",
				Note: "payment entrypoint",
				Semantic: &SemanticPin{
					Language:        "python",
					Path:            "billing.py",
					Kind:            "function",
					Qualname:        "charge",
					TrackDecorators: true,
				},
			},
			{
				ID: "readme-quickstart",
				Line: &LinePin{
					Path:      "README.md",
					StartLine: 10,
					EndLine:   25,
					Anchors:   []string{"## Quickstart"},
				},
			},
		},
	}
	if err := m.Save(path); err != nil {
		t.Fatalf("Save: %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(got.Pins) != 2 {
		t.Fatalf("got %d pins, want 2", len(got.Pins))
	}
	if got.Pins[0].Semantic == nil || got.Pins[0].Semantic.Qualname != "charge" {
		t.Errorf("semantic pin = %+v", got.Pins[0].Semantic)
	}
	if got.Pins[1].Line == nil || got.Pins[1].Line.StartLine != 10 {
		t.Errorf("line pin = %+v", got.Pins[1].Line)
	}
}

func TestLoadParsesHandWrittenTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pins.toml")
	doc := `version = 1

[[pin]]
id = "order-total"

[pin.semantic]
language = "java"
path = "src/Order.java"
kind = "method"
qualname = "Order.total(int,String)"
`
	if err := os.WriteFile(path, []byte(doc), 0o600); err != nil {
		t.Fatal(err)
	}

	m, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(m.Pins) != 1 || m.Pins[0].Semantic.Qualname != "Order.total(int,String)" {
		t.Errorf("manifest = %+v", m)
	}
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		m    Manifest
	}{
		{
			"duplicate ids",
			Manifest{Version: 1, Pins: []Pin{
				{ID: "a", Line: &LinePin{Path: "x", StartLine: 1, EndLine: 1}},
				{ID: "a", Line: &LinePin{Path: "y", StartLine: 1, EndLine: 1}},
			}},
		},
		{
			"no target",
			Manifest{Version: 1, Pins: []Pin{{ID: "a"}}},
		},
		{
			"both targets",
			Manifest{Version: 1, Pins: []Pin{{
				ID:       "a",
				Line:     &LinePin{Path: "x", StartLine: 1, EndLine: 1},
				Semantic: &SemanticPin{Path: "x", Qualname: "f"},
			}}},
		},
		{
			"missing id",
			Manifest{Version: 1, Pins: []Pin{{Line: &LinePin{Path: "x", StartLine: 1, EndLine: 1}}}},
		},
		{
			"bad line range",
			Manifest{Version: 1, Pins: []Pin{{
				ID:   "a",
				Line: &LinePin{Path: "x", StartLine: 9, EndLine: 2},
			}}},
		},
		{
			"bad version",
			Manifest{Version: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.m.Validate()
			if !errors.Is(err, errors.InvalidTarget) {
				t.Errorf("Validate() = %v, want INVALID_TARGET", err)
			}
		})
	}
}
