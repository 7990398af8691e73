package export

import (
	"encoding/json"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"codepin/internal/detect"
	"codepin/internal/errors"
)

// Report is a scan result shaped for CI consumption. Field names are part
// of the stable wire shape in both JSON and YAML renderings.
type Report struct {
	GeneratedAt time.Time      `json:"generated_at" yaml:"generated_at"`
	BaseRef     string         `json:"base_ref" yaml:"base_ref"`
	TargetRef   string         `json:"target_ref" yaml:"target_ref"`
	Summary     []SummaryEntry `json:"summary" yaml:"summary"`
	Triggers    []ReportEntry  `json:"triggers" yaml:"triggers"`
}

// SummaryEntry is one classification's trigger count
type SummaryEntry struct {
	Classification string `json:"classification" yaml:"classification"`
	Count          int    `json:"count" yaml:"count"`
}

// ReportEntry mirrors one trigger
type ReportEntry struct {
	SubscriptionID string                 `json:"subscription_id,omitempty" yaml:"subscription_id,omitempty"`
	Classification string                 `json:"classification" yaml:"classification"`
	Details        map[string]interface{} `json:"details,omitempty" yaml:"details,omitempty"`
	Proposal       *ProposalEntry         `json:"proposal,omitempty" yaml:"proposal,omitempty"`
}

// ProposalEntry mirrors a trigger's proposal
type ProposalEntry struct {
	Path      string `json:"path" yaml:"path"`
	StartLine int    `json:"start_line" yaml:"start_line"`
	EndLine   int    `json:"end_line" yaml:"end_line"`
	Qualname  string `json:"qualname,omitempty" yaml:"qualname,omitempty"`
}

// BuildReport converts a scan result into a report, with a per-class
// summary sorted by classification name
func BuildReport(result *detect.ScanResult, now time.Time) *Report {
	rep := &Report{
		GeneratedAt: now.UTC(),
		BaseRef:     result.BaseRef,
		TargetRef:   result.TargetRef,
		Triggers:    make([]ReportEntry, 0, len(result.Triggers)),
	}

	counts := make(map[string]int)
	for i := range result.Triggers {
		trig := &result.Triggers[i]
		counts[string(trig.Classification)]++

		entry := ReportEntry{
			SubscriptionID: trig.SubscriptionID,
			Classification: string(trig.Classification),
			Details:        trig.Details,
		}
		if trig.Proposal != nil {
			entry.Proposal = &ProposalEntry{
				Path:      trig.Proposal.Path,
				StartLine: trig.Proposal.StartLine,
				EndLine:   trig.Proposal.EndLine,
				Qualname:  trig.Proposal.Qualname,
			}
		}
		rep.Triggers = append(rep.Triggers, entry)
	}

	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		rep.Summary = append(rep.Summary, SummaryEntry{Classification: class, Count: counts[class]})
	}
	return rep
}

// ActionRequired reports whether any trigger needs attention. Unchanged
// scans exit quietly in CI; everything else does not.
func (r *Report) ActionRequired() bool {
	for _, entry := range r.Triggers {
		if entry.Classification != string(detect.ClassUnchanged) {
			return true
		}
	}
	return false
}

// WriteReport renders the report as "json" or "yaml"
func WriteReport(w io.Writer, rep *Report, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(rep); err != nil {
			return errors.New(errors.InternalError, "encoding JSON report", err)
		}
	case "yaml":
		enc := yaml.NewEncoder(w)
		defer enc.Close()
		if err := enc.Encode(rep); err != nil {
			return errors.New(errors.InternalError, "encoding YAML report", err)
		}
	default:
		return errors.Newf(errors.InvalidTarget, "unknown report format %q", format)
	}
	return nil
}
