package fingerprint

import (
	"testing"

	"codepin/internal/construct"
)

func TestInterfaceHashDeterministic(t *testing.T) {
	a := InterfaceHash(construct.KindFunction, "(a, b=1) -> int")
	b := InterfaceHash(construct.KindFunction, "(a, b=1) -> int")
	if a != b {
		t.Error("identical input produced different hashes")
	}
}

func TestInterfaceHashWhitespaceInvariant(t *testing.T) {
	a := InterfaceHash(construct.KindFunction, "(a,  b = 1)   ->  int")
	b := InterfaceHash(construct.KindFunction, "(a, b = 1) -> int")
	if a != b {
		t.Error("whitespace-only signature difference changed the hash")
	}
}

func TestInterfaceHashSensitivity(t *testing.T) {
	base := InterfaceHash(construct.KindFunction, "(a) -> str")

	t.Run("kind changes hash", func(t *testing.T) {
		if got := InterfaceHash(construct.KindMethod, "(a) -> str"); got == base {
			t.Error("different kind produced same hash")
		}
	})

	t.Run("signature changes hash", func(t *testing.T) {
		if got := InterfaceHash(construct.KindFunction, "(a) -> str | None"); got == base {
			t.Error("different signature produced same hash")
		}
	})
}

func TestBodyHashFormattingInvariance(t *testing.T) {
	base := BodyHash("x = 1\nreturn x + 1\n")

	tests := []struct {
		name string
		body string
	}{
		{"extra blank lines", "x = 1\n\n\nreturn x + 1\n"},
		{"indentation shift", "    x = 1\n        return x + 1"},
		{"comment-only lines", "x = 1\n# bump\nreturn x + 1\n"},
		{"java comment lines", "x = 1\n// note\nreturn x + 1\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := BodyHash(tt.body); got != base {
				t.Errorf("cosmetic edit changed body hash")
			}
		})
	}
}

func TestBodyHashContentSensitivity(t *testing.T) {
	a := BodyHash("return x + 1")
	b := BodyHash("return x + 2")
	if a == b {
		t.Error("different bodies produced same hash")
	}
}
