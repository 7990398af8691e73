package proposal

import (
	"testing"

	"codepin/internal/detect"
)

func TestBuild(t *testing.T) {
	tests := []struct {
		name string
		trig detect.Trigger
		want *detect.Proposal
	}{
		{
			name: "renamed construct",
			trig: detect.Trigger{
				Classification: detect.ClassRenamed,
				Details: map[string]interface{}{
					"old_qualname":   "helper",
					"new_qualname":   "assist",
					"new_path":       "lib.py",
					"new_start_line": 10,
					"new_end_line":   14,
				},
			},
			want: &detect.Proposal{Path: "lib.py", StartLine: 10, EndLine: 14, Qualname: "assist"},
		},
		{
			name: "line shift",
			trig: detect.Trigger{
				Classification: detect.ClassLineShift,
				Details: map[string]interface{}{
					"delta":          2,
					"new_path":       "notes.txt",
					"new_start_line": 5,
					"new_end_line":   6,
				},
			},
			want: &detect.Proposal{Path: "notes.txt", StartLine: 5, EndLine: 6},
		},
		{
			name: "json round-tripped numbers",
			trig: detect.Trigger{
				Classification: detect.ClassMoved,
				Details: map[string]interface{}{
					"new_path":       "b.py",
					"new_qualname":   "helper",
					"new_start_line": float64(3),
					"new_end_line":   float64(7),
				},
			},
			want: &detect.Proposal{Path: "b.py", StartLine: 3, EndLine: 7, Qualname: "helper"},
		},
		{
			name: "aggregate with container move",
			trig: detect.Trigger{
				Classification: detect.ClassAggregate,
				Details: map[string]interface{}{
					"moved":          true,
					"renamed":        false,
					"new_path":       "models/user.py",
					"new_qualname":   "User",
					"new_start_line": 1,
					"new_end_line":   40,
				},
			},
			want: &detect.Proposal{Path: "models/user.py", StartLine: 1, EndLine: 40, Qualname: "User"},
		},
		{
			name: "aggregate without relocation",
			trig: detect.Trigger{
				Classification: detect.ClassAggregate,
				Details: map[string]interface{}{
					"moved":          false,
					"renamed":        false,
					"new_path":       "models.py",
					"new_start_line": 1,
					"new_end_line":   40,
				},
			},
			want: nil,
		},
		{
			name: "in-place structural change",
			trig: detect.Trigger{
				Classification: detect.ClassStructural,
				Details: map[string]interface{}{
					"interface_changed": true,
					"new_path":          "lib.py",
					"new_start_line":    10,
					"new_end_line":      14,
				},
			},
			want: nil,
		},
		{
			name: "incomplete relocation details",
			trig: detect.Trigger{
				Classification: detect.ClassMoved,
				Details:        map[string]interface{}{"new_path": "b.py"},
			},
			want: nil,
		},
		{
			name: "unchanged",
			trig: detect.Trigger{Classification: detect.ClassUnchanged},
			want: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Build(&tt.trig)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("Build() = %v, want %v", got, tt.want)
			}
			if got == nil {
				return
			}
			if *got != *tt.want {
				t.Errorf("Build() = %+v, want %+v", *got, *tt.want)
			}
		})
	}
}

func TestAttach(t *testing.T) {
	triggers := []detect.Trigger{
		{Classification: detect.ClassUnchanged},
		{
			Classification: detect.ClassRenamed,
			Details: map[string]interface{}{
				"new_qualname":   "assist",
				"new_path":       "lib.py",
				"new_start_line": 1,
				"new_end_line":   3,
			},
		},
	}

	Attach(triggers)

	if triggers[0].Proposal != nil {
		t.Error("unchanged trigger received a proposal")
	}
	if triggers[1].Proposal == nil || triggers[1].Proposal.Qualname != "assist" {
		t.Errorf("renamed trigger proposal = %+v", triggers[1].Proposal)
	}
}
