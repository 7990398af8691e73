// Package proposal derives update proposals from detection triggers. The
// detector reports raw relocation facts in trigger details; this package
// turns them into at most one concrete proposal per trigger, for
// relocations only. In-place changes (structural, content, triggered) get
// no proposal: the subscription still points at the right place.
package proposal

import "codepin/internal/detect"

// Build derives zero or one proposal from a trigger. Aggregate triggers
// yield a proposal only when the container itself relocated.
func Build(trig *detect.Trigger) *detect.Proposal {
	switch trig.Classification {
	case detect.ClassLineShift, detect.ClassRenamed, detect.ClassMoved:
		return fromDetails(trig.Details)

	case detect.ClassAggregate:
		if boolDetail(trig.Details, "renamed") || boolDetail(trig.Details, "moved") {
			return fromDetails(trig.Details)
		}
		return nil

	default:
		return nil
	}
}

// Attach builds and attaches proposals for every trigger in place
func Attach(triggers []detect.Trigger) {
	for i := range triggers {
		triggers[i].Proposal = Build(&triggers[i])
	}
}

// fromDetails assembles a proposal from relocation detail keys. Incomplete
// details yield no proposal rather than a partial one.
func fromDetails(details map[string]interface{}) *detect.Proposal {
	path := stringDetail(details, "new_path")
	start := intDetail(details, "new_start_line")
	end := intDetail(details, "new_end_line")
	if path == "" || start < 1 || end < start {
		return nil
	}

	return &detect.Proposal{
		Path:      path,
		StartLine: start,
		EndLine:   end,
		Qualname:  stringDetail(details, "new_qualname"),
	}
}

func stringDetail(details map[string]interface{}, key string) string {
	if s, ok := details[key].(string); ok {
		return s
	}
	return ""
}

func boolDetail(details map[string]interface{}, key string) bool {
	b, ok := details[key].(bool)
	return ok && b
}

// intDetail reads a numeric detail. Values arriving through a JSON
// round-trip decode as float64, in-process values stay int; both count.
func intDetail(details map[string]interface{}, key string) int {
	switch v := details[key].(type) {
	case int:
		return v
	case float64:
		return int(v)
	}
	return 0
}
