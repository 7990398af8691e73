package detect

import (
	"context"
	stderrors "errors"
	"sort"

	"codepin/internal/construct"
	"codepin/internal/errors"
	"codepin/internal/lang"
	"codepin/internal/target"
)

// evaluateContainer classifies a container subscription: locate the
// container through the full staged search, then diff its direct members
// against the baseline fingerprints by container-relative id. Member ids
// are relative so a container rename does not make every member look
// removed and re-added.
func (st *scanState) evaluateContainer(ctx context.Context, sem *target.SemanticTarget) Trigger {
	c, path, terminal := st.locateContainer(ctx, sem)
	if terminal != nil {
		return *terminal
	}

	cs, err := st.constructsFor(ctx, path, st.targetRef)
	if err != nil {
		return errorTrigger(err)
	}

	current := make(map[string]construct.MemberFingerprint)
	for _, m := range lang.DirectMembers(cs, c.Qualname) {
		if !sem.IncludePrivate && m.Private {
			continue
		}
		fp := construct.FingerprintOf(m, c.Qualname)
		current[fp.Qualname] = fp
	}

	// Baseline ids were captured under the same private-member policy at
	// subscription time, so no symmetric filter is needed here.
	changes := diffMembers(sem.BaselineMembers, current)

	renamed := c.Qualname != sem.BaselineContainerQualname
	moved := path != sem.Path
	interfaceChanged := c.InterfaceHash != sem.InterfaceHash
	bodyChanged := c.BodyHash != sem.BodyHash

	decoratorsChanged, inheritanceChanged := st.attributeContainerChange(ctx, sem, c, interfaceChanged)

	if !renamed && !moved && !interfaceChanged && !bodyChanged &&
		!decoratorsChanged && !inheritanceChanged && len(changes) == 0 {
		return Trigger{Classification: ClassUnchanged}
	}

	details := map[string]interface{}{
		"renamed":             renamed,
		"moved":               moved,
		"decorators_changed":  decoratorsChanged,
		"inheritance_changed": inheritanceChanged,
		"member_changes":      changes,
		"new_path":            path,
		"new_qualname":        c.Qualname,
		"new_start_line":      c.StartLine,
		"new_end_line":        c.EndLine,
	}
	if renamed {
		details["old_qualname"] = sem.BaselineContainerQualname
	}
	if moved {
		details["old_path"] = sem.Path
	}
	if interfaceChanged {
		details["interface_changed"] = true
	}
	if bodyChanged {
		details["body_changed"] = true
	}
	return Trigger{Classification: ClassAggregate, Details: details}
}

// locateContainer runs the full Stage 1-3 search for the container itself.
// A non-nil trigger is terminal (ambiguous, missing, or error); otherwise
// the container and the file it currently lives in are returned.
func (st *scanState) locateContainer(ctx context.Context, sem *target.SemanticTarget) (*construct.Construct, string, *Trigger) {
	path := sem.Path
	if to, ok := st.renamedTo(sem.Path); ok {
		path = to
	}

	cs, err := st.constructsFor(ctx, path, st.targetRef)
	switch {
	case err == nil:
		found, ferr := lang.Find(cs, sem.Qualname, sem.Kind)
		if ferr != nil {
			t := ambiguousTrigger(ferr)
			return nil, "", &t
		}
		if found != nil {
			return found, path, nil
		}

		cands := bothHashCandidates(cs, sem)
		if len(cands) == 1 {
			if st.relocationContradicted(ctx, sem, path, cands[0]) {
				t := Trigger{Classification: ClassAmbiguous, Details: map[string]interface{}{
					"reason":     "hash-identical twin existed at the baseline revision",
					"candidates": []string{cands[0].Qualname},
				}}
				return nil, "", &t
			}
			return cands[0], path, nil
		}
		if len(cands) > 1 {
			names := make([]string, 0, len(cands))
			for _, cand := range cands {
				names = append(names, cand.Qualname)
			}
			t := Trigger{Classification: ClassAmbiguous, Details: map[string]interface{}{
				"reason":     "multiple hash-identical rename candidates",
				"candidates": names,
			}}
			return nil, "", &t
		}

	case stderrors.Is(err, ErrNotFound):
		// Fall through to the cross-file search

	default:
		t := errorTrigger(err)
		return nil, "", &t
	}

	trig := st.matchMoved(ctx, sem, path)
	if trig.Classification != ClassMoved {
		return nil, "", &trig
	}

	newPath, _ := trig.Details["new_path"].(string)
	newQualname, _ := trig.Details["new_qualname"].(string)
	if newPath == "" || newQualname == "" {
		t := errorTrigger(errors.Newf(errors.InternalError,
			"container relocation details incomplete for %q", sem.Qualname))
		return nil, "", &t
	}
	moved, err := st.constructsFor(ctx, newPath, st.targetRef)
	if err != nil {
		t := errorTrigger(err)
		return nil, "", &t
	}
	found, ferr := lang.Find(moved, newQualname, sem.Kind)
	if ferr != nil || found == nil {
		t := Trigger{Classification: ClassMissing, Details: map[string]interface{}{
			"reason": "container lost during cross-file relocation",
		}}
		return nil, "", &t
	}
	return found, newPath, nil
}

// diffMembers compares baseline and current member fingerprints by relative
// id and returns the sorted change list. An empty (non-nil) list means the
// container itself changed while every member survived intact.
func diffMembers(baseline, current map[string]construct.MemberFingerprint) []MemberChange {
	changes := make([]MemberChange, 0)

	for id, base := range baseline {
		cur, ok := current[id]
		if !ok {
			changes = append(changes, MemberChange{
				ID:     id,
				Kind:   string(base.Kind),
				Change: "missing",
			})
			continue
		}
		interfaceChanged := cur.InterfaceHash != base.InterfaceHash
		bodyChanged := cur.BodyHash != base.BodyHash
		switch {
		case interfaceChanged:
			changes = append(changes, MemberChange{
				ID:               id,
				Kind:             string(cur.Kind),
				Change:           "structural",
				InterfaceChanged: true,
				BodyChanged:      bodyChanged,
			})
		case bodyChanged:
			changes = append(changes, MemberChange{
				ID:          id,
				Kind:        string(cur.Kind),
				Change:      "content",
				BodyChanged: true,
			})
		}
	}

	for id, cur := range current {
		if _, ok := baseline[id]; !ok {
			changes = append(changes, MemberChange{
				ID:     id,
				Kind:   string(cur.Kind),
				Change: "added",
			})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].ID < changes[j].ID })
	return changes
}

// attributeContainerChange compares the container's decorators and
// inheritance clause against the baseline parse of the original file.
// Decorators live outside the interface hash, so the decorator comparison
// runs whenever the subscription tracks them; the inheritance clause is
// hashed, so its comparison only attributes an already-detected hash
// change. Attribution is best effort: when the baseline cannot be read or
// parsed both flags stay false and the hash-level flags still report the
// change.
func (st *scanState) attributeContainerChange(ctx context.Context, sem *target.SemanticTarget, c *construct.Construct, interfaceChanged bool) (decorators, inheritance bool) {
	if !sem.TrackDecorators && !interfaceChanged {
		return false, false
	}

	cs, err := st.constructsFor(ctx, sem.Path, st.baseRef)
	if err != nil {
		st.d.logger.Debug("baseline unavailable for container attribution", map[string]interface{}{
			"path":  sem.Path,
			"error": err.Error(),
		})
		return false, false
	}
	base, ferr := lang.Find(cs, sem.BaselineContainerQualname, sem.Kind)
	if ferr != nil || base == nil {
		return false, false
	}

	if sem.TrackDecorators {
		decorators = !equalStrings(base.Decorators, c.Decorators)
	}
	if interfaceChanged {
		inheritance = !equalStrings(base.Bases, c.Bases)
	}
	return decorators, inheritance
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
