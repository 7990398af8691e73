// Package target defines the two subscription target flavors and their
// validation. A line target watches an inclusive 1-based range; a semantic
// target watches a named construct, optionally with its container members.
// Baseline fingerprints are captured at subscription time and travel with
// the target record.
package target

import (
	"codepin/internal/construct"
	"codepin/internal/errors"
)

// LineTarget subscribes to an inclusive 1-based line range. Anchors hold
// the range's lines verbatim as captured at pin time; the line-shift
// engine re-matches them before trusting an arithmetic shift proposal.
type LineTarget struct {
	Path      string   `json:"path"`
	StartLine int      `json:"start_line"`
	EndLine   int      `json:"end_line"`
	Anchors   []string `json:"anchors,omitempty"`
}

// SemanticTarget subscribes to a named construct. The baseline hashes are
// the identity the detector searches for across revisions; for container
// subscriptions the member fingerprint map rides along too.
type SemanticTarget struct {
	Language string         `json:"language,omitempty"`
	Path     string         `json:"path"`
	Kind     construct.Kind `json:"kind,omitempty"`
	Qualname string         `json:"qualname"`

	InterfaceHash string `json:"interface_hash,omitempty"`
	BodyHash      string `json:"body_hash,omitempty"`

	// Container configuration. BaselineMembers is keyed by ids relative to
	// BaselineContainerQualname, so a container rename does not orphan the
	// whole map.
	IncludeMembers            bool                                   `json:"include_members,omitempty"`
	IncludePrivate            bool                                   `json:"include_private,omitempty"`
	TrackDecorators           bool                                   `json:"track_decorators,omitempty"`
	BaselineMembers           map[string]construct.MemberFingerprint `json:"baseline_members,omitempty"`
	BaselineContainerQualname string                                 `json:"baseline_container_qualname,omitempty"`
}

// ValidateLine rejects malformed line targets. Validation runs at
// subscription creation and on every load, never during a scan.
func ValidateLine(t *LineTarget) error {
	if t == nil {
		return errors.Newf(errors.InvalidTarget, "line target is missing")
	}
	if t.Path == "" {
		return errors.Newf(errors.InvalidTarget, "line target has no path")
	}
	if t.StartLine < 1 {
		return errors.Newf(errors.InvalidTarget, "start line %d is before line 1", t.StartLine)
	}
	if t.EndLine < t.StartLine {
		return errors.Newf(errors.InvalidTarget,
			"end line %d is before start line %d", t.EndLine, t.StartLine)
	}
	return nil
}

// ValidateSemantic rejects malformed semantic targets. Kind is optional (a
// bare qualname works while it is unambiguous) and the baseline hashes may
// be empty before capture, so neither is required here.
func ValidateSemantic(t *SemanticTarget) error {
	if t == nil {
		return errors.Newf(errors.InvalidTarget, "semantic target is missing")
	}
	if t.Path == "" {
		return errors.Newf(errors.InvalidTarget, "semantic target has no path")
	}
	if t.Qualname == "" {
		return errors.Newf(errors.InvalidTarget, "semantic target has no qualname")
	}
	if t.Kind != "" && !construct.IsValidKind(string(t.Kind)) {
		return errors.Newf(errors.InvalidTarget, "unknown construct kind %q", t.Kind)
	}
	if t.IncludeMembers && t.Kind != "" && !containerEligible(t.Kind) {
		return errors.Newf(errors.InvalidTarget,
			"%s %q cannot track members; only classes, interfaces, and enums have members",
			t.Kind, t.Qualname)
	}
	return nil
}

// containerEligible reports whether kind may carry members in any language.
// This is the cross-language superset; each indexer narrows it further via
// ContainerKinds at baseline capture.
func containerEligible(kind construct.Kind) bool {
	switch kind {
	case construct.KindClass, construct.KindInterface, construct.KindEnum:
		return true
	}
	return false
}
