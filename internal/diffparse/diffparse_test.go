package diffparse

import (
	"testing"
)

const simpleDiff = `diff --git a/config.py b/config.py
--- a/config.py
+++ b/config.py
@@ -1,3 +1,6 @@
 import os
+A = 1
+B = 2
+C = 3
 DEBUG = False
 TIMEOUT = 30
`

const renameDiff = `diff --git a/order.py b/pricing.py
--- a/order.py
+++ b/pricing.py
@@ -1,2 +1,2 @@
 import math
-RATE = 1
+RATE = 2
`

const deleteDiff = `diff --git a/old.py b/old.py
--- a/old.py
+++ /dev/null
@@ -1,2 +0,0 @@
-import os
-x = 1
`

const binaryDiff = `diff --git a/logo.png b/logo.png
Binary files a/logo.png and b/logo.png differ
`

func TestParseEmpty(t *testing.T) {
	patch, err := Parse("")
	if err != nil {
		t.Fatalf("Parse(\"\") error: %v", err)
	}
	if len(patch.Hunks) != 0 || patch.IsBinary || patch.IsDelete {
		t.Errorf("empty diff should yield empty patch, got %+v", patch)
	}
}

func TestParseSimple(t *testing.T) {
	patch, err := Parse(simpleDiff)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if patch.NewPath != "config.py" {
		t.Errorf("NewPath = %q, want config.py", patch.NewPath)
	}
	if len(patch.Hunks) != 1 {
		t.Fatalf("len(Hunks) = %d, want 1", len(patch.Hunks))
	}

	h := patch.Hunks[0]
	if h.OldStart != 1 || h.OldCount != 3 || h.NewStart != 1 || h.NewCount != 6 {
		t.Errorf("hunk header = %d,%d,%d,%d", h.OldStart, h.OldCount, h.NewStart, h.NewCount)
	}

	added := 0
	for _, l := range h.Lines {
		if l.Tag == TagAdded {
			added++
		}
	}
	if added != 3 {
		t.Errorf("added lines = %d, want 3", added)
	}
	if h.NetDelta() != 3 {
		t.Errorf("NetDelta = %d, want 3", h.NetDelta())
	}
}

func TestParseRename(t *testing.T) {
	patch, err := Parse(renameDiff)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !patch.IsRename {
		t.Error("IsRename = false, want true")
	}
	if patch.OldPath != "order.py" || patch.NewPath != "pricing.py" {
		t.Errorf("paths = %q -> %q", patch.OldPath, patch.NewPath)
	}
}

func TestParseDelete(t *testing.T) {
	patch, err := Parse(deleteDiff)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if !patch.IsDelete {
		t.Error("IsDelete = false, want true")
	}
}

func TestParseBinary(t *testing.T) {
	patch, err := Parse(binaryDiff)
	if err != nil {
		t.Fatalf("binary diff must not error: %v", err)
	}
	if !patch.IsBinary {
		t.Error("IsBinary = false, want true")
	}
	if len(patch.Hunks) != 0 {
		t.Errorf("binary patch should carry no hunks, got %d", len(patch.Hunks))
	}
}

func TestInsertionPoints(t *testing.T) {
	// Pure insertion after old line 1
	diff := `--- a/config.py
+++ b/config.py
@@ -1,0 +2,3 @@
+A = 1
+B = 2
+C = 3
`
	patch, err := Parse(diff)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	h := patch.Hunks[0]

	points := h.InsertionPoints()
	if len(points) != 1 || points[0] != 1 {
		t.Errorf("InsertionPoints = %v, want [1]", points)
	}
}

func TestIntersectsOldRange(t *testing.T) {
	patch, err := Parse(simpleDiff)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	h := patch.Hunks[0]

	tests := []struct {
		name       string
		start, end int
		want       bool
	}{
		{"insertion inside range", 1, 3, true},
		{"range after insertion", 2, 3, false},
		{"range far below", 10, 15, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := h.IntersectsOldRange(tt.start, tt.end); got != tt.want {
				t.Errorf("IntersectsOldRange(%d, %d) = %v, want %v", tt.start, tt.end, got, tt.want)
			}
		})
	}
}

func TestNetDeltaBefore(t *testing.T) {
	diff := `--- a/config.py
+++ b/config.py
@@ -1,0 +2,3 @@
+A = 1
+B = 2
+C = 3
@@ -20,1 +23,0 @@
-REMOVED = True
`
	patch, err := Parse(diff)
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}

	if got := patch.NetDeltaBefore(10); got != 3 {
		t.Errorf("NetDeltaBefore(10) = %d, want 3", got)
	}
	if got := patch.NetDeltaBefore(30); got != 2 {
		t.Errorf("NetDeltaBefore(30) = %d, want 2", got)
	}
	if got := patch.NetDeltaBefore(1); got != 0 {
		t.Errorf("NetDeltaBefore(1) = %d, want 0", got)
	}
}

func TestParseMulti(t *testing.T) {
	patches, err := ParseMulti(simpleDiff + renameDiff)
	if err != nil {
		t.Fatalf("ParseMulti error: %v", err)
	}
	if len(patches) != 2 {
		t.Fatalf("len = %d, want 2", len(patches))
	}
	if patches[1].NewPath != "pricing.py" {
		t.Errorf("second patch NewPath = %q", patches[1].NewPath)
	}
}
