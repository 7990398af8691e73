package lang

import (
	"context"
	"testing"

	"codepin/internal/construct"
	"codepin/internal/errors"
)

type fakeIndexer struct {
	lang string
	exts []string
}

func (f *fakeIndexer) Language() string     { return f.lang }
func (f *fakeIndexer) Extensions() []string { return f.exts }
func (f *fakeIndexer) IndexFile(ctx context.Context, source []byte, path string) ([]construct.Construct, error) {
	return nil, nil
}
func (f *fakeIndexer) ContainerKinds() []construct.Kind {
	return []construct.Kind{construct.KindClass}
}

func TestRegistryForPath(t *testing.T) {
	py := &fakeIndexer{lang: "python", exts: []string{".py"}}
	jv := &fakeIndexer{lang: "java", exts: []string{".java"}}
	reg := NewRegistry(py, jv)

	tests := []struct {
		path     string
		wantLang string
		wantErr  bool
	}{
		{"models.py", "python", false},
		{"src/Order.java", "java", false},
		{"UPPER.PY", "python", false},
		{"script.rb", "", true},
		{"Makefile", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			ix, err := reg.ForPath(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				if !errors.Is(err, errors.UnsupportedLanguage) {
					t.Errorf("code = %v, want UNSUPPORTED_LANGUAGE", errors.CodeOf(err))
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if ix.Language() != tt.wantLang {
				t.Errorf("language = %q, want %q", ix.Language(), tt.wantLang)
			}
		})
	}
}

func TestRegistryLanguages(t *testing.T) {
	reg := NewRegistry(
		&fakeIndexer{lang: "python", exts: []string{".py"}},
		&fakeIndexer{lang: "java", exts: []string{".java"}},
	)
	got := reg.Languages()
	if len(got) != 2 || got[0] != "java" || got[1] != "python" {
		t.Errorf("Languages() = %v", got)
	}
}

func TestFind(t *testing.T) {
	constructs := []construct.Construct{
		{Qualname: "User", Kind: construct.KindClass},
		{Qualname: "User.email", Kind: construct.KindField},
		{Qualname: "Order.total(int)", Kind: construct.KindMethod},
		{Qualname: "Order.total(int,String)", Kind: construct.KindMethod},
		{Qualname: "helper", Kind: construct.KindFunction},
		{Qualname: "helper", Kind: construct.KindVariable},
	}

	t.Run("unique match", func(t *testing.T) {
		c, err := Find(constructs, "User.email", "")
		if err != nil || c == nil || c.Kind != construct.KindField {
			t.Fatalf("Find = %v, %v", c, err)
		}
	})

	t.Run("not found", func(t *testing.T) {
		c, err := Find(constructs, "Missing", "")
		if err != nil || c != nil {
			t.Fatalf("Find = %v, %v, want nil, nil", c, err)
		}
	})

	t.Run("overload by full qualname", func(t *testing.T) {
		c, err := Find(constructs, "Order.total(int,String)", construct.KindMethod)
		if err != nil || c == nil {
			t.Fatalf("Find = %v, %v", c, err)
		}
	})

	t.Run("bare overload name is ambiguous", func(t *testing.T) {
		_, err := Find(constructs, "Order.total", construct.KindMethod)
		if !errors.Is(err, errors.AmbiguousMatch) {
			t.Fatalf("err = %v, want AMBIGUOUS_MATCH", err)
		}
	})

	t.Run("kind disambiguates", func(t *testing.T) {
		c, err := Find(constructs, "helper", construct.KindVariable)
		if err != nil || c == nil || c.Kind != construct.KindVariable {
			t.Fatalf("Find = %v, %v", c, err)
		}
	})

	t.Run("no kind over duplicates is ambiguous", func(t *testing.T) {
		_, err := Find(constructs, "helper", "")
		if !errors.Is(err, errors.AmbiguousMatch) {
			t.Fatalf("err = %v, want AMBIGUOUS_MATCH", err)
		}
	})
}

func TestDirectMembers(t *testing.T) {
	constructs := []construct.Construct{
		{Qualname: "User", Kind: construct.KindClass},
		{Qualname: "User.email", Kind: construct.KindField},
		{Qualname: "User.save", Kind: construct.KindMethod},
		{Qualname: "User.Meta", Kind: construct.KindClass},
		{Qualname: "User.Meta.table", Kind: construct.KindField},
		{Qualname: "Other", Kind: construct.KindClass},
	}

	members := DirectMembers(constructs, "User")
	if len(members) != 3 {
		t.Fatalf("len = %d, want 3 (email, save, Meta)", len(members))
	}
	for _, m := range members {
		if m.Qualname == "User.Meta.table" {
			t.Error("nested container internals must not be direct members")
		}
	}
}

func TestSupportsMembers(t *testing.T) {
	ix := &fakeIndexer{lang: "python", exts: []string{".py"}}

	if !SupportsMembers(ix, construct.KindClass) {
		t.Error("class must be container-eligible for an indexer listing it")
	}
	if SupportsMembers(ix, construct.KindEnum) {
		t.Error("enum is not in the fake indexer's container kinds")
	}
	if SupportsMembers(ix, construct.KindFunction) {
		t.Error("functions never carry members")
	}
}
