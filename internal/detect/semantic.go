package detect

import (
	"context"
	stderrors "errors"

	"codepin/internal/construct"
	"codepin/internal/lang"
	"codepin/internal/target"
)

// evaluateSemantic classifies one construct subscription through the staged
// identity search:
//
//	Stage 1 — direct (qualname, kind) lookup in the target file
//	Stage 2 — same-file candidate with both baseline hashes intact (rename)
//	Stage 3 — cross-file candidate over the changed-file set (move)
//
// Competing candidates at any stage stop the search as ambiguous; the
// detector never guesses between equals.
func (st *scanState) evaluateSemantic(ctx context.Context, sem *target.SemanticTarget) Trigger {
	if sem.IncludeMembers {
		return st.evaluateContainer(ctx, sem)
	}

	path := sem.Path
	fileRenamed := false
	if to, ok := st.renamedTo(sem.Path); ok {
		path = to
		fileRenamed = true
	}

	cs, err := st.constructsFor(ctx, path, st.targetRef)
	switch {
	case err == nil:
		found, ferr := lang.Find(cs, sem.Qualname, sem.Kind)
		if ferr != nil {
			return ambiguousTrigger(ferr)
		}
		if found != nil {
			return st.classifyFound(ctx, sem, found, path, fileRenamed)
		}
		if trig, ok := st.matchRenamed(ctx, sem, cs, path, fileRenamed); ok {
			return trig
		}
	case stderrors.Is(err, ErrNotFound):
		// File gone at the target revision; only the cross-file search
		// can still find the construct.
	default:
		return errorTrigger(err)
	}

	return st.matchMoved(ctx, sem, path)
}

// classifyFound compares a directly located construct against the
// subscription's baseline fingerprints. Decorators live outside the
// interface hash, so subscriptions that track them get a separate
// comparison against the baseline parse.
func (st *scanState) classifyFound(ctx context.Context, sem *target.SemanticTarget, c *construct.Construct, path string, fileRenamed bool) Trigger {
	interfaceChanged := c.InterfaceHash != sem.InterfaceHash
	bodyChanged := c.BodyHash != sem.BodyHash
	decoratorsChanged := st.decoratorDrift(ctx, sem, c)

	details := map[string]interface{}{}
	if c.HasParseError {
		details["has_parse_error"] = true
	}
	if fileRenamed {
		details["file_renamed"] = true
		details["old_path"] = sem.Path
	}

	if interfaceChanged || bodyChanged || decoratorsChanged {
		details["new_path"] = path
		details["new_qualname"] = c.Qualname
		details["new_start_line"] = c.StartLine
		details["new_end_line"] = c.EndLine
	}

	switch {
	case interfaceChanged || decoratorsChanged:
		details["interface_changed"] = interfaceChanged
		details["body_changed"] = bodyChanged
		if decoratorsChanged {
			details["decorators_changed"] = true
		}
		return Trigger{Classification: ClassStructural, Details: details}

	case bodyChanged:
		details["body_changed"] = true
		return Trigger{Classification: ClassContent, Details: details}

	case fileRenamed:
		// Same qualname, same hashes, different file
		details["new_path"] = path
		details["new_qualname"] = c.Qualname
		details["new_start_line"] = c.StartLine
		details["new_end_line"] = c.EndLine
		return Trigger{Classification: ClassMoved, Details: details}

	default:
		if len(details) == 0 {
			details = nil
		}
		return Trigger{Classification: ClassUnchanged, Details: details}
	}
}

// matchRenamed is Stage 2: a same-file, same-kind construct whose interface
// and body hashes both equal the baseline is the same construct under a new
// name. More than one such candidate is ambiguous, none falls through. A
// single candidate is accepted only when the baseline parse shows the
// subscribed construct had no hash-identical twin there; otherwise the
// survivor could be either copy.
func (st *scanState) matchRenamed(ctx context.Context, sem *target.SemanticTarget, cs []construct.Construct, path string, fileRenamed bool) (Trigger, bool) {
	cands := bothHashCandidates(cs, sem)

	switch len(cands) {
	case 0:
		return Trigger{}, false

	case 1:
		c := cands[0]
		if st.relocationContradicted(ctx, sem, path, c) {
			return Trigger{Classification: ClassAmbiguous, Details: map[string]interface{}{
				"reason":     "hash-identical twin existed at the baseline revision",
				"candidates": []string{c.Qualname},
			}}, true
		}
		details := map[string]interface{}{
			"old_qualname":   sem.Qualname,
			"new_qualname":   c.Qualname,
			"new_path":       path,
			"new_start_line": c.StartLine,
			"new_end_line":   c.EndLine,
		}
		if fileRenamed {
			details["file_renamed"] = true
			details["old_path"] = sem.Path
		}
		return Trigger{Classification: ClassRenamed, Details: details}, true

	default:
		names := make([]string, 0, len(cands))
		for _, c := range cands {
			names = append(names, c.Qualname)
		}
		return Trigger{Classification: ClassAmbiguous, Details: map[string]interface{}{
			"reason":     "multiple hash-identical rename candidates",
			"candidates": names,
		}}, true
	}
}

// matchMoved is Stage 3: search every other changed file for a same-kind
// construct with both baseline hashes intact. The sorted path order makes
// the search deterministic. Exactly one hit is a move; several are
// ambiguous; none is missing.
func (st *scanState) matchMoved(ctx context.Context, sem *target.SemanticTarget, origin string) Trigger {
	type hit struct {
		path string
		c    *construct.Construct
	}
	var hits []hit

	for _, p := range st.paths {
		if p == origin {
			continue
		}
		ch := st.byPath[p]
		if ch.Deleted || ch.Binary {
			continue
		}

		cs, err := st.constructsFor(ctx, p, st.targetRef)
		if err != nil {
			// Unsupported, unreadable, or unparseable files cannot hide
			// the construct we are looking for; skip them.
			st.d.logger.Debug("skipping changed file in move search", map[string]interface{}{
				"path":  p,
				"error": err.Error(),
			})
			continue
		}
		for _, c := range bothHashCandidates(cs, sem) {
			hits = append(hits, hit{path: p, c: c})
		}
	}

	switch len(hits) {
	case 0:
		return Trigger{Classification: ClassMissing, Details: map[string]interface{}{
			"reason": "no hash-identical candidate in the changed-file set",
		}}

	case 1:
		h := hits[0]
		if st.relocationContradicted(ctx, sem, h.path, h.c) {
			return Trigger{Classification: ClassAmbiguous, Details: map[string]interface{}{
				"reason":     "hash-identical twin existed at the baseline revision",
				"candidates": []string{h.path + ":" + h.c.Qualname},
			}}
		}
		details := map[string]interface{}{
			"old_path":       sem.Path,
			"new_path":       h.path,
			"new_qualname":   h.c.Qualname,
			"new_start_line": h.c.StartLine,
			"new_end_line":   h.c.EndLine,
		}
		if h.c.Qualname != sem.Qualname {
			details["old_qualname"] = sem.Qualname
		}
		return Trigger{Classification: ClassMoved, Details: details}

	default:
		names := make([]string, 0, len(hits))
		for _, h := range hits {
			names = append(names, h.path+":"+h.c.Qualname)
		}
		return Trigger{Classification: ClassAmbiguous, Details: map[string]interface{}{
			"reason":     "multiple hash-identical move candidates",
			"candidates": names,
		}}
	}
}

// relocationContradicted reports whether the baseline parse rules out a
// unique relocation of the subscribed construct to c at newPath: the
// baseline file held more than one construct with the baseline hash pair,
// or c already existed at baseline at its current location with unchanged
// hashes. Either way the single survivor cannot be attributed; the caller
// must report ambiguous rather than guess. An unreadable baseline does not
// block the match.
func (st *scanState) relocationContradicted(ctx context.Context, sem *target.SemanticTarget, newPath string, c *construct.Construct) bool {
	if base, err := st.constructsFor(ctx, sem.Path, st.baseRef); err == nil {
		twins := bothHashCandidates(base, sem)
		if len(twins) > 1 {
			return true
		}
		for _, t := range twins {
			if t.Qualname != sem.Qualname {
				return true
			}
		}
	}

	if newPath != sem.Path {
		prior, err := st.constructsFor(ctx, newPath, st.baseRef)
		if err != nil {
			return false
		}
		for _, t := range bothHashCandidates(prior, sem) {
			if t.Qualname == c.Qualname {
				return true
			}
		}
	}
	return false
}

// decoratorDrift compares the construct's decorators against the baseline
// parse, only for subscriptions that asked for decorator tracking.
// Attribution is best effort: an unreadable or unparseable baseline leaves
// the flag unset.
func (st *scanState) decoratorDrift(ctx context.Context, sem *target.SemanticTarget, c *construct.Construct) bool {
	if !sem.TrackDecorators {
		return false
	}

	base, err := st.constructsFor(ctx, sem.Path, st.baseRef)
	if err != nil {
		st.d.logger.Debug("baseline unavailable for decorator comparison", map[string]interface{}{
			"path":  sem.Path,
			"error": err.Error(),
		})
		return false
	}
	b, ferr := lang.Find(base, sem.Qualname, sem.Kind)
	if ferr != nil || b == nil {
		return false
	}
	return !equalStrings(b.Decorators, c.Decorators)
}

// bothHashCandidates returns the constructs whose interface and body hashes
// both equal the subscription's baseline, kind-filtered when the
// subscription names a kind
func bothHashCandidates(cs []construct.Construct, sem *target.SemanticTarget) []*construct.Construct {
	var cands []*construct.Construct
	for i := range cs {
		c := &cs[i]
		if sem.Kind != "" && c.Kind != sem.Kind {
			continue
		}
		if c.InterfaceHash == sem.InterfaceHash && c.BodyHash == sem.BodyHash {
			cands = append(cands, c)
		}
	}
	return cands
}
