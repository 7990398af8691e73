// Package lineshift classifies line-range subscriptions against parsed
// hunks. Pure arithmetic is never trusted on its own: a proposed shift must
// re-match the subscription's anchor lines in the current file content, or
// the result is downgraded to ambiguous.
package lineshift

import (
	"strings"

	"codepin/internal/diffparse"
	"codepin/internal/target"
)

// Outcome is the engine's classification of one line target
type Outcome string

const (
	// Unchanged means no hunk affected or moved the range
	Unchanged Outcome = "unchanged"
	// Triggered means a hunk's changed lines intersect the range
	Triggered Outcome = "triggered"
	// Shifted means the range moved by a net delta, confirmed by anchors
	Shifted Outcome = "shifted"
	// Ambiguous means arithmetic proposed a shift but anchors did not match
	Ambiguous Outcome = "ambiguous"
	// Missing means the file was deleted
	Missing Outcome = "missing"
)

// DefaultAnchorWindow is how many lines around the proposed range anchors
// may drift and still count as a match.
const DefaultAnchorWindow = 2

// Result carries the classification plus the proposed new range for shifts
type Result struct {
	Outcome  Outcome
	Delta    int
	NewStart int
	NewEnd   int
	Reason   string
}

// Engine classifies line targets
type Engine struct {
	anchorWindow int
}

// NewEngine creates an engine. window <= 0 selects DefaultAnchorWindow.
func NewEngine(window int) *Engine {
	if window <= 0 {
		window = DefaultAnchorWindow
	}
	return &Engine{anchorWindow: window}
}

// Classify evaluates a line target against the parsed patch for its file.
// current is the file content at the current revision, used only for anchor
// validation; it may be nil when the file no longer exists.
func (e *Engine) Classify(t *target.LineTarget, patch *diffparse.FilePatch, current []byte) Result {
	if patch == nil {
		return Result{Outcome: Unchanged}
	}
	if patch.IsDelete {
		return Result{Outcome: Missing, Reason: "file deleted"}
	}
	if patch.IsBinary {
		// File changed with no line-level detail: conservative trigger
		return Result{Outcome: Triggered, Reason: "binary change, no line detail"}
	}

	for i := range patch.Hunks {
		if patch.Hunks[i].IntersectsOldRange(t.StartLine, t.EndLine) {
			return Result{Outcome: Triggered}
		}
	}

	delta := patch.NetDeltaBefore(t.StartLine)
	if delta == 0 {
		return Result{Outcome: Unchanged}
	}

	newStart := t.StartLine + delta
	newEnd := t.EndLine + delta
	if newStart < 1 {
		return Result{Outcome: Ambiguous, Delta: delta, Reason: "shift proposes a range before line 1"}
	}

	if len(t.Anchors) > 0 {
		if current == nil {
			return Result{Outcome: Ambiguous, Delta: delta, NewStart: newStart, NewEnd: newEnd,
				Reason: "current content unavailable for anchor validation"}
		}
		if !e.anchorsMatch(t.Anchors, current, newStart, newEnd) {
			return Result{Outcome: Ambiguous, Delta: delta, NewStart: newStart, NewEnd: newEnd,
				Reason: "anchor text not found near proposed range"}
		}
	}

	return Result{Outcome: Shifted, Delta: delta, NewStart: newStart, NewEnd: newEnd}
}

// anchorsMatch searches for the anchor lines, in order, inside the window
// around the proposed range in the current content. Comparison is on
// trimmed text so an incidental reindent does not defeat the check.
func (e *Engine) anchorsMatch(anchors []string, current []byte, newStart, newEnd int) bool {
	lines := strings.Split(string(current), "\n")

	lo := newStart - e.anchorWindow
	if lo < 1 {
		lo = 1
	}
	hi := newEnd + e.anchorWindow
	if hi > len(lines) {
		hi = len(lines)
	}
	if lo > len(lines) {
		return false
	}

	idx := lo
	for _, anchor := range anchors {
		want := strings.TrimSpace(anchor)
		found := false
		for ; idx <= hi; idx++ {
			if strings.TrimSpace(lines[idx-1]) == want {
				found = true
				idx++
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}
