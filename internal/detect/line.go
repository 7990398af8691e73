package detect

import (
	"context"

	"codepin/internal/errors"
	"codepin/internal/lineshift"
	"codepin/internal/target"
)

// evaluateLine classifies one line-range subscription. The target path is
// looked up in the changed-file set under both its current and pre-rename
// name; an untouched file short-circuits to unchanged without any reads.
func (st *scanState) evaluateLine(ctx context.Context, lt *target.LineTarget) Trigger {
	change, ok := st.byPath[lt.Path]
	if !ok {
		change, ok = st.byOldPath[lt.Path]
	}
	if !ok {
		return Trigger{Classification: ClassUnchanged}
	}

	if change.Binary {
		return Trigger{Classification: ClassTriggered, Details: map[string]interface{}{
			"reason": "binary change, no line detail",
		}}
	}

	patch, err := st.patchFor(change)
	if err != nil {
		return errorTrigger(errors.New(errors.DiffUnavailable, "parsing diff for "+change.Path, err))
	}

	// Current content is only needed for anchor validation; a read failure
	// degrades to ambiguous inside the engine rather than erroring here.
	var current []byte
	if !change.Deleted {
		if content, rerr := st.readFile(ctx, change.Path, st.targetRef); rerr == nil {
			current = content
		}
	}

	res := st.d.shifts.Classify(lt, patch, current)
	renamed := change.OldPath != "" && change.OldPath != change.Path

	switch res.Outcome {
	case lineshift.Missing:
		return Trigger{Classification: ClassMissing, Details: map[string]interface{}{
			"reason": res.Reason,
		}}

	case lineshift.Triggered:
		var details map[string]interface{}
		if res.Reason != "" {
			details = map[string]interface{}{"reason": res.Reason}
		}
		return Trigger{Classification: ClassTriggered, Details: details}

	case lineshift.Ambiguous:
		return Trigger{Classification: ClassAmbiguous, Details: map[string]interface{}{
			"reason": res.Reason,
			"delta":  res.Delta,
		}}

	case lineshift.Shifted:
		details := map[string]interface{}{
			"delta":          res.Delta,
			"new_path":       change.Path,
			"new_start_line": res.NewStart,
			"new_end_line":   res.NewEnd,
		}
		if renamed {
			details["file_renamed"] = true
			details["old_path"] = lt.Path
		}
		return Trigger{Classification: ClassLineShift, Details: details}

	default:
		if renamed {
			// Range untouched but the file itself moved
			return Trigger{Classification: ClassRenamed, Details: map[string]interface{}{
				"old_path":       lt.Path,
				"new_path":       change.Path,
				"new_start_line": lt.StartLine,
				"new_end_line":   lt.EndLine,
			}}
		}
		return Trigger{Classification: ClassUnchanged}
	}
}
