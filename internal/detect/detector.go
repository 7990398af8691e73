// Package detect is the change-detection engine. A scan compares two
// revisions once, then evaluates every subscription against the shared
// changed-file set: line targets through hunk arithmetic and anchor
// validation, semantic targets through the staged identity search
// (direct lookup, same-file rename, cross-file move), and container
// targets through member aggregation.
//
// One failing subscription never aborts a scan; it yields an error
// trigger. Only collaborator failures (diff provider, revision source at
// scan granularity) abort the whole run.
package detect

import (
	"context"
	stderrors "errors"
	"fmt"
	"sort"

	"codepin/internal/construct"
	"codepin/internal/diffparse"
	"codepin/internal/errors"
	"codepin/internal/lang"
	"codepin/internal/lineshift"
	"codepin/internal/logging"
)

// Detector evaluates subscriptions between two revisions
type Detector struct {
	registry *lang.Registry
	source   RevisionSource
	diffs    DiffProvider
	shifts   *lineshift.Engine
	logger   *logging.Logger
}

// Option configures a Detector
type Option func(*Detector)

// WithAnchorWindow sets the line-shift anchor search window
func WithAnchorWindow(window int) Option {
	return func(d *Detector) { d.shifts = lineshift.NewEngine(window) }
}

// WithLogger sets the detector's logger
func WithLogger(l *logging.Logger) Option {
	return func(d *Detector) { d.logger = l }
}

// New creates a detector over the given language registry and repository
// collaborators
func New(registry *lang.Registry, source RevisionSource, diffs DiffProvider, opts ...Option) *Detector {
	d := &Detector{
		registry: registry,
		source:   source,
		diffs:    diffs,
		shifts:   lineshift.NewEngine(0),
		logger:   logging.Discard(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Scan evaluates every subscription in the request between BaseRef and
// TargetRef. The changed-file set is fetched once and every file is parsed
// at most once per revision for the whole run. Triggers come back in
// request order, one per subscription.
func (d *Detector) Scan(ctx context.Context, req ScanRequest) (*ScanResult, error) {
	changes, err := d.diffs.Changes(ctx, req.BaseRef, req.TargetRef)
	if err != nil {
		return nil, errors.New(errors.DiffUnavailable,
			fmt.Sprintf("listing changes %s..%s", req.BaseRef, req.TargetRef), err)
	}

	st := newScanState(d, req.BaseRef, req.TargetRef, changes)

	result := &ScanResult{
		BaseRef:   req.BaseRef,
		TargetRef: req.TargetRef,
		Triggers:  make([]Trigger, 0, len(req.Subscriptions)),
	}
	for i := range req.Subscriptions {
		if err := ctx.Err(); err != nil {
			return nil, errors.New(errors.ScanFailed, "scan canceled", err)
		}
		result.Triggers = append(result.Triggers, st.evaluate(ctx, &req.Subscriptions[i]))
	}

	d.logger.Info("scan complete", map[string]interface{}{
		"base":          req.BaseRef,
		"target":        req.TargetRef,
		"changed_files": len(changes),
		"subscriptions": len(req.Subscriptions),
	})
	return result, nil
}

// scanState is the per-run working set: the changed-file index plus parse
// and read caches keyed by (path, revision). It lives for exactly one Scan.
type scanState struct {
	d         *Detector
	baseRef   string
	targetRef string

	changes   []diffparse.FileChange
	byPath    map[string]*diffparse.FileChange
	byOldPath map[string]*diffparse.FileChange
	paths     []string // sorted, fixes the cross-file search order

	patches map[string]*diffparse.FilePatch
	files   map[string]fileEntry
	indexes map[string]indexEntry
}

type fileEntry struct {
	content []byte
	err     error
}

type indexEntry struct {
	constructs []construct.Construct
	err        error
}

func newScanState(d *Detector, baseRef, targetRef string, changes []diffparse.FileChange) *scanState {
	st := &scanState{
		d:         d,
		baseRef:   baseRef,
		targetRef: targetRef,
		changes:   changes,
		byPath:    make(map[string]*diffparse.FileChange, len(changes)),
		byOldPath: make(map[string]*diffparse.FileChange),
		patches:   make(map[string]*diffparse.FilePatch),
		files:     make(map[string]fileEntry),
		indexes:   make(map[string]indexEntry),
	}
	for i := range st.changes {
		ch := &st.changes[i]
		st.byPath[ch.Path] = ch
		if ch.OldPath != "" && ch.OldPath != ch.Path {
			st.byOldPath[ch.OldPath] = ch
		}
		st.paths = append(st.paths, ch.Path)
	}
	sort.Strings(st.paths)
	return st
}

// evaluate classifies one subscription. A panic inside a single
// subscription's evaluation is contained here and reported as an error
// trigger so the remaining subscriptions still run.
func (st *scanState) evaluate(ctx context.Context, sub *Subscription) (trig Trigger) {
	defer func() {
		if r := recover(); r != nil {
			st.d.logger.Error("subscription evaluation panicked", map[string]interface{}{
				"subscription": sub.ID,
				"panic":        fmt.Sprint(r),
			})
			trig = Trigger{
				SubscriptionID: sub.ID,
				Classification: ClassError,
				Details: map[string]interface{}{
					"error": fmt.Sprintf("internal failure: %v", r),
					"code":  string(errors.InternalError),
				},
			}
		}
	}()

	switch {
	case sub.Line != nil:
		trig = st.evaluateLine(ctx, sub.Line)
	case sub.Semantic != nil:
		trig = st.evaluateSemantic(ctx, sub.Semantic)
	default:
		trig = errorTrigger(errors.Newf(errors.InvalidTarget, "subscription %q carries no target", sub.ID))
	}
	trig.SubscriptionID = sub.ID
	return trig
}

// renamedTo resolves a pre-rename path to its current path
func (st *scanState) renamedTo(path string) (string, bool) {
	if ch, ok := st.byOldPath[path]; ok && !ch.Deleted {
		return ch.Path, true
	}
	return "", false
}

// patchFor parses a changed file's unified diff once per scan
func (st *scanState) patchFor(ch *diffparse.FileChange) (*diffparse.FilePatch, error) {
	if p, ok := st.patches[ch.Path]; ok {
		return p, nil
	}
	p, err := diffparse.Parse(ch.UnifiedDiff)
	if err != nil {
		return nil, err
	}
	st.patches[ch.Path] = p
	return p, nil
}

// readFile reads file content at a revision, caching hits and misses alike
func (st *scanState) readFile(ctx context.Context, path, rev string) ([]byte, error) {
	key := path + "@" + rev
	if e, ok := st.files[key]; ok {
		return e.content, e.err
	}
	content, err := st.d.source.ReadFile(ctx, path, rev)
	st.files[key] = fileEntry{content: content, err: err}
	return content, err
}

// constructsFor indexes a file at a revision, at most once per scan
func (st *scanState) constructsFor(ctx context.Context, path, rev string) ([]construct.Construct, error) {
	key := path + "@" + rev
	if e, ok := st.indexes[key]; ok {
		return e.constructs, e.err
	}

	var e indexEntry
	ix, err := st.d.registry.ForPath(path)
	if err != nil {
		e.err = err
	} else if content, rerr := st.readFile(ctx, path, rev); rerr != nil {
		e.err = rerr
	} else {
		e.constructs, e.err = ix.IndexFile(ctx, content, path)
		if e.err != nil {
			e.err = errors.New(errors.ParseError, "indexing "+path, e.err)
		}
	}

	st.indexes[key] = e
	return e.constructs, e.err
}

// errorTrigger wraps a per-subscription failure into an error trigger
func errorTrigger(err error) Trigger {
	return Trigger{
		Classification: ClassError,
		Details: map[string]interface{}{
			"error": err.Error(),
			"code":  string(errors.CodeOf(err)),
		},
	}
}

// ambiguousTrigger reports competing candidates without guessing
func ambiguousTrigger(err error) Trigger {
	details := map[string]interface{}{"reason": err.Error()}
	var pe *errors.PinError
	if stderrors.As(err, &pe) && pe.Details != nil {
		details["candidates"] = pe.Details
	}
	return Trigger{Classification: ClassAmbiguous, Details: details}
}
