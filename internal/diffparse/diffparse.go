// Package diffparse turns unified-diff text into structured hunks with
// per-line tags. It is the only place diff syntax is interpreted; everything
// downstream works with FilePatch values.
package diffparse

import (
	"strings"

	godiff "github.com/sourcegraph/go-diff/diff"

	"codepin/internal/errors"
)

// LineTag classifies one line of a hunk body
type LineTag string

const (
	// TagContext marks an unchanged context line
	TagContext LineTag = "context"
	// TagAdded marks a line present only in the new file
	TagAdded LineTag = "added"
	// TagRemoved marks a line present only in the old file
	TagRemoved LineTag = "removed"
)

// Line is one tagged hunk-body line. OldLine/NewLine are 1-based and zero
// when the line does not exist on that side.
type Line struct {
	Tag     LineTag `json:"tag"`
	Text    string  `json:"text"`
	OldLine int     `json:"oldLine,omitempty"`
	NewLine int     `json:"newLine,omitempty"`
}

// Hunk is one contiguous change region from a unified diff
type Hunk struct {
	OldStart int    `json:"oldStart"`
	OldCount int    `json:"oldCount"`
	NewStart int    `json:"newStart"`
	NewCount int    `json:"newCount"`
	Lines    []Line `json:"lines"`
}

// FilePatch is the parsed diff for a single file
type FilePatch struct {
	OldPath  string `json:"oldPath,omitempty"`
	NewPath  string `json:"newPath,omitempty"`
	IsNew    bool   `json:"isNew,omitempty"`
	IsDelete bool   `json:"isDelete,omitempty"`
	IsRename bool   `json:"isRename,omitempty"`

	// IsBinary means the file changed but no line-level detail is available.
	// Consumers must degrade conservatively, never crash.
	IsBinary bool `json:"isBinary,omitempty"`

	Hunks []Hunk `json:"hunks,omitempty"`
}

// FileChange is one changed file as supplied by a diff provider: the current
// path, the old path when the file was renamed, and the raw unified diff.
type FileChange struct {
	Path        string
	OldPath     string // empty unless renamed
	UnifiedDiff string
	Deleted     bool
	Binary      bool
}

// Parse parses unified-diff text covering one file. Empty input yields an
// empty patch (file unchanged). Binary markers yield IsBinary with no hunks.
func Parse(diffText string) (*FilePatch, error) {
	if strings.TrimSpace(diffText) == "" {
		return &FilePatch{}, nil
	}

	if isBinaryDiff(diffText) {
		patch := &FilePatch{IsBinary: true}
		fillBinaryPaths(patch, diffText)
		return patch, nil
	}

	fds, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, errors.New(errors.ParseError, "failed to parse unified diff", err)
	}
	if len(fds) == 0 {
		return &FilePatch{}, nil
	}

	return fromFileDiff(fds[0]), nil
}

// ParseMulti parses a diff covering any number of files
func ParseMulti(diffText string) ([]*FilePatch, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}

	fds, err := godiff.ParseMultiFileDiff([]byte(diffText))
	if err != nil {
		return nil, errors.New(errors.ParseError, "failed to parse unified diff", err)
	}

	patches := make([]*FilePatch, 0, len(fds))
	for _, fd := range fds {
		patches = append(patches, fromFileDiff(fd))
	}
	return patches, nil
}

// fromFileDiff converts a go-diff FileDiff into a FilePatch
func fromFileDiff(fd *godiff.FileDiff) *FilePatch {
	patch := &FilePatch{
		OldPath: cleanPath(fd.OrigName),
		NewPath: cleanPath(fd.NewName),
	}

	if fd.OrigName == "/dev/null" || fd.OrigName == "" {
		patch.IsNew = true
		patch.OldPath = ""
	}
	if fd.NewName == "/dev/null" || fd.NewName == "" {
		patch.IsDelete = true
		patch.NewPath = ""
	}
	if patch.OldPath != "" && patch.NewPath != "" && patch.OldPath != patch.NewPath {
		patch.IsRename = true
	}

	patch.Hunks = make([]Hunk, 0, len(fd.Hunks))
	for _, h := range fd.Hunks {
		patch.Hunks = append(patch.Hunks, parseHunk(h))
	}

	return patch
}

// parseHunk tags every body line and assigns old/new line numbers
func parseHunk(hunk *godiff.Hunk) Hunk {
	h := Hunk{
		OldStart: int(hunk.OrigStartLine),
		OldCount: int(hunk.OrigLines),
		NewStart: int(hunk.NewStartLine),
		NewCount: int(hunk.NewLines),
	}

	oldLine := int(hunk.OrigStartLine)
	newLine := int(hunk.NewStartLine)

	body := strings.Split(strings.TrimSuffix(string(hunk.Body), "\n"), "\n")
	for _, raw := range body {
		if raw == "" {
			// Blank context line with the leading space stripped by git
			h.Lines = append(h.Lines, Line{Tag: TagContext, OldLine: oldLine, NewLine: newLine})
			oldLine++
			newLine++
			continue
		}

		switch raw[0] {
		case '+':
			h.Lines = append(h.Lines, Line{Tag: TagAdded, Text: raw[1:], NewLine: newLine})
			newLine++
		case '-':
			h.Lines = append(h.Lines, Line{Tag: TagRemoved, Text: raw[1:], OldLine: oldLine})
			oldLine++
		case '\\':
			// "\ No newline at end of file"
		default:
			text := raw
			if raw[0] == ' ' {
				text = raw[1:]
			}
			h.Lines = append(h.Lines, Line{Tag: TagContext, Text: text, OldLine: oldLine, NewLine: newLine})
			oldLine++
			newLine++
		}
	}

	return h
}

// RemovedOldLines returns the old line numbers deleted by this hunk
func (h *Hunk) RemovedOldLines() []int {
	var out []int
	for _, l := range h.Lines {
		if l.Tag == TagRemoved {
			out = append(out, l.OldLine)
		}
	}
	return out
}

// InsertionPoints returns, for each run of added lines, the old line number
// after which the run is inserted (0 means before the first line).
func (h *Hunk) InsertionPoints() []int {
	var out []int
	// For zero-count old ranges the unified format records the line before
	// the gap, not the first line of a range.
	prevOld := h.OldStart - 1
	if h.OldCount == 0 {
		prevOld = h.OldStart
	}
	inRun := false

	for _, l := range h.Lines {
		switch l.Tag {
		case TagAdded:
			if !inRun {
				out = append(out, prevOld)
				inRun = true
			}
		default:
			if l.OldLine > 0 {
				prevOld = l.OldLine
			}
			inRun = false
		}
	}
	return out
}

// IntersectsOldRange reports whether the hunk's changed lines touch the
// inclusive old-file range [start, end]. Context lines do not count; an
// insertion intersects only when it falls strictly inside the range.
func (h *Hunk) IntersectsOldRange(start, end int) bool {
	for _, r := range h.RemovedOldLines() {
		if r >= start && r <= end {
			return true
		}
	}
	for _, p := range h.InsertionPoints() {
		if p >= start && p < end {
			return true
		}
	}
	return false
}

// EntirelyBeforeOldLine reports whether every change in the hunk happens
// strictly before the given old line.
func (h *Hunk) EntirelyBeforeOldLine(line int) bool {
	changed := false
	for _, r := range h.RemovedOldLines() {
		changed = true
		if r >= line {
			return false
		}
	}
	for _, p := range h.InsertionPoints() {
		changed = true
		if p >= line {
			return false
		}
	}
	return changed
}

// NetDelta is the line-count change introduced by the hunk
func (h *Hunk) NetDelta() int {
	return h.NewCount - h.OldCount
}

// NetDeltaBefore sums the deltas of hunks lying entirely before the given
// old line, in order. Hunks touching or following the line contribute zero.
func (p *FilePatch) NetDeltaBefore(line int) int {
	delta := 0
	for i := range p.Hunks {
		if p.Hunks[i].EntirelyBeforeOldLine(line) {
			delta += p.Hunks[i].NetDelta()
		}
	}
	return delta
}

// isBinaryDiff detects git's binary change markers
func isBinaryDiff(diffText string) bool {
	return strings.Contains(diffText, "Binary files ") ||
		strings.Contains(diffText, "GIT binary patch")
}

// fillBinaryPaths best-effort extracts paths from the diff header of a
// binary change so rename/delete handling still works
func fillBinaryPaths(patch *FilePatch, diffText string) {
	for _, line := range strings.Split(diffText, "\n") {
		if strings.HasPrefix(line, "--- ") {
			patch.OldPath = cleanPath(strings.TrimPrefix(line, "--- "))
		} else if strings.HasPrefix(line, "+++ ") {
			patch.NewPath = cleanPath(strings.TrimPrefix(line, "+++ "))
		} else if strings.HasPrefix(line, "diff --git a/") {
			rest := strings.TrimPrefix(line, "diff --git a/")
			if i := strings.Index(rest, " b/"); i > 0 {
				patch.OldPath = rest[:i]
				patch.NewPath = rest[i+3:]
			}
		}
	}
	if patch.OldPath == "/dev/null" {
		patch.OldPath = ""
		patch.IsNew = true
	}
	if patch.NewPath == "/dev/null" {
		patch.NewPath = ""
		patch.IsDelete = true
	}
}

// cleanPath strips the a/ or b/ prefix from git diff paths
func cleanPath(path string) string {
	path = strings.TrimSpace(path)
	if path == "" || path == "/dev/null" {
		return path
	}
	if strings.HasPrefix(path, "a/") || strings.HasPrefix(path, "b/") {
		return path[2:]
	}
	return path
}
