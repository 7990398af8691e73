package detect

import (
	"context"
	stderrors "errors"

	"codepin/internal/diffparse"
	"codepin/internal/target"
)

// Classification is the outcome category of one subscription's detection
type Classification string

const (
	// ClassUnchanged means nothing relevant changed
	ClassUnchanged Classification = "unchanged"
	// ClassTriggered means a line range was directly edited
	ClassTriggered Classification = "triggered"
	// ClassLineShift means a line range moved without being edited
	ClassLineShift Classification = "line_shift"
	// ClassStructural means the construct's interface hash changed
	ClassStructural Classification = "structural"
	// ClassContent means only the construct's body hash changed
	ClassContent Classification = "content"
	// ClassMissing means the construct or file could not be found anywhere
	ClassMissing Classification = "missing"
	// ClassRenamed means an identical construct exists in the same file
	// under a new name
	ClassRenamed Classification = "renamed"
	// ClassMoved means an identical construct exists in a different file
	ClassMoved Classification = "moved"
	// ClassAggregate means a container subscription saw container- or
	// member-level changes
	ClassAggregate Classification = "aggregate"
	// ClassAmbiguous means detection found competing candidates and
	// refused to guess
	ClassAmbiguous Classification = "ambiguous"
	// ClassError means detection failed for this subscription only
	ClassError Classification = "error"
)

// Proposal is a suggested updated location for a subscription.
// Field names are part of the stable wire shape.
type Proposal struct {
	Path      string `json:"path"`
	StartLine int    `json:"start_line"`
	EndLine   int    `json:"end_line"`
	Qualname  string `json:"qualname,omitempty"`
}

// Trigger is the detection outcome for one subscription.
// The classification/details/proposal field names are consumed verbatim by
// external reports and persisted scan history; do not rename them.
type Trigger struct {
	SubscriptionID string                 `json:"subscription_id,omitempty"`
	Classification Classification         `json:"classification"`
	Details        map[string]interface{} `json:"details,omitempty"`
	Proposal       *Proposal              `json:"proposal,omitempty"`
}

// MemberChange records one container member's delta inside an aggregate
// trigger's details
type MemberChange struct {
	ID               string `json:"id"`
	Kind             string `json:"kind"`
	Change           string `json:"change"` // missing, added, structural, content
	InterfaceChanged bool   `json:"interface_changed,omitempty"`
	BodyChanged      bool   `json:"body_changed,omitempty"`
}

// Subscription pairs an ID with exactly one target flavor
type Subscription struct {
	ID       string
	Line     *target.LineTarget
	Semantic *target.SemanticTarget
}

// ScanRequest describes one detection run between two revisions
type ScanRequest struct {
	BaseRef       string
	TargetRef     string
	Subscriptions []Subscription
}

// ScanResult carries one trigger per subscription, in request order
type ScanResult struct {
	BaseRef   string    `json:"base_ref"`
	TargetRef string    `json:"target_ref"`
	Triggers  []Trigger `json:"triggers"`
}

// ErrNotFound is returned by a RevisionSource when a path does not exist
// at the requested revision
var ErrNotFound = stderrors.New("file not found at revision")

// RevisionSource reads file content at a specific revision
type RevisionSource interface {
	ReadFile(ctx context.Context, path, rev string) ([]byte, error)
}

// DiffProvider lists the changed files between two revisions, with rename
// pairs and unified-diff text per file
type DiffProvider interface {
	Changes(ctx context.Context, baseRef, targetRef string) ([]diffparse.FileChange, error)
}
