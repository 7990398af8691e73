package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	cause := stderrors.New("underlying error")
	err := New(ParseError, "file is not parsable", cause)

	if err.Code != ParseError {
		t.Errorf("Code = %v, want %v", err.Code, ParseError)
	}
	if err.Message != "file is not parsable" {
		t.Errorf("Message = %q, want %q", err.Message, "file is not parsable")
	}
	if !stderrors.Is(err, cause) {
		t.Error("expected errors.Is to see through to the cause")
	}
}

func TestPinError_Error(t *testing.T) {
	tests := []struct {
		name      string
		err       *PinError
		wantParts []string
	}{
		{
			name:      "without cause",
			err:       Newf(UnsupportedLanguage, "no indexer for %q", ".rb"),
			wantParts: []string{"UNSUPPORTED_LANGUAGE", `no indexer for ".rb"`},
		},
		{
			name:      "with cause",
			err:       New(DiffUnavailable, "diff failed", stderrors.New("exit 128")),
			wantParts: []string{"DIFF_UNAVAILABLE", "diff failed", "exit 128"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, part := range tt.wantParts {
				if !strings.Contains(msg, part) {
					t.Errorf("Error() = %q, missing %q", msg, part)
				}
			}
		})
	}
}

func TestCodeOf(t *testing.T) {
	if got := CodeOf(Newf(AmbiguousMatch, "two candidates")); got != AmbiguousMatch {
		t.Errorf("CodeOf = %v, want %v", got, AmbiguousMatch)
	}

	wrapped := fmt.Errorf("scan: %w", Newf(InvalidTarget, "start after end"))
	if got := CodeOf(wrapped); got != InvalidTarget {
		t.Errorf("CodeOf(wrapped) = %v, want %v", got, InvalidTarget)
	}

	if got := CodeOf(stderrors.New("plain")); got != InternalError {
		t.Errorf("CodeOf(plain) = %v, want %v", got, InternalError)
	}
}

func TestIs(t *testing.T) {
	err := Newf(StorageError, "insert failed")
	if !Is(err, StorageError) {
		t.Error("Is(err, StorageError) = false, want true")
	}
	if Is(err, ParseError) {
		t.Error("Is(err, ParseError) = true, want false")
	}
}
