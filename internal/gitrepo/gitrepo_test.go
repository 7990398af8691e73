package gitrepo

import (
	"context"
	stderrors "errors"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"codepin/internal/detect"
)

func TestParseNameStatus(t *testing.T) {
	out := []byte("M\x00lib.py\x00A\x00new.py\x00D\x00gone.py\x00R100\x00old.py\x00renamed.py\x00")

	changes := parseNameStatus(out)
	if len(changes) != 4 {
		t.Fatalf("got %d changes, want 4", len(changes))
	}

	if changes[0].Path != "lib.py" || changes[0].Deleted {
		t.Errorf("modified entry = %+v", changes[0])
	}
	if changes[2].Path != "gone.py" || !changes[2].Deleted {
		t.Errorf("deleted entry = %+v", changes[2])
	}
	if changes[3].Path != "renamed.py" || changes[3].OldPath != "old.py" {
		t.Errorf("rename entry = %+v", changes[3])
	}
}

func TestParseNameStatusPathsWithSpaces(t *testing.T) {
	out := []byte("M\x00my docs/read me.py\x00")

	changes := parseNameStatus(out)
	if len(changes) != 1 || changes[0].Path != "my docs/read me.py" {
		t.Fatalf("changes = %+v", changes)
	}
}

func TestSplitPatch(t *testing.T) {
	patch := `diff --git a/one.py b/one.py
--- a/one.py
+++ b/one.py
@@ -1,1 +1,1 @@
-x = 1
+x = 2
diff --git a/two.py b/two.py
--- a/two.py
+++ b/two.py
@@ -1,1 +1,1 @@
-y = 1
+y = 2
`
	sections := splitPatch(patch)
	if len(sections) != 2 {
		t.Fatalf("got %d sections, want 2", len(sections))
	}
	if patchNewPath(sections[0]) != "one.py" || patchNewPath(sections[1]) != "two.py" {
		t.Errorf("section paths = %q, %q", patchNewPath(sections[0]), patchNewPath(sections[1]))
	}
}

func TestPatchNewPathDeletion(t *testing.T) {
	section := `diff --git a/gone.py b/gone.py
--- a/gone.py
+++ /dev/null
@@ -1,1 +0,0 @@
-x = 1
`
	if got := patchNewPath(section); got != "gone.py" {
		t.Errorf("patchNewPath = %q, want gone.py", got)
	}
}

// newTestRepo builds a throwaway git repository with one commit
func newTestRepo(t *testing.T, files map[string]string) (string, string) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	dir := t.TempDir()
	run := func(args ...string) {
		t.Helper()
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		cmd.Env = append(os.Environ(),
			"GIT_AUTHOR_NAME=test", "GIT_AUTHOR_EMAIL=test@example.com",
			"GIT_COMMITTER_NAME=test", "GIT_COMMITTER_EMAIL=test@example.com",
		)
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init", "-q")
	for path, content := range files {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o750); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	run("add", "-A")
	run("commit", "-q", "-m", "initial")

	repo, err := Open(dir, nil)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	head, err := repo.Head(context.Background())
	if err != nil {
		t.Fatalf("Head: %v", err)
	}
	return dir, head
}

func TestReadFileAtRevisionAndWorktree(t *testing.T) {
	dir, head := newTestRepo(t, map[string]string{"lib.py": "x = 1\n"})
	repo, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if err := os.WriteFile(filepath.Join(dir, "lib.py"), []byte("x = 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	committed, err := repo.ReadFile(ctx, "lib.py", head)
	if err != nil {
		t.Fatalf("ReadFile at %s: %v", head, err)
	}
	if string(committed) != "x = 1\n" {
		t.Errorf("committed content = %q", committed)
	}

	worktree, err := repo.ReadFile(ctx, "lib.py", WorktreeRef)
	if err != nil {
		t.Fatalf("ReadFile worktree: %v", err)
	}
	if string(worktree) != "x = 2\n" {
		t.Errorf("worktree content = %q", worktree)
	}

	if _, err := repo.ReadFile(ctx, "absent.py", head); !stderrors.Is(err, detect.ErrNotFound) {
		t.Errorf("missing path error = %v, want ErrNotFound", err)
	}
	if _, err := repo.ReadFile(ctx, "absent.py", WorktreeRef); !stderrors.Is(err, detect.ErrNotFound) {
		t.Errorf("missing worktree path error = %v, want ErrNotFound", err)
	}
}

func TestChangesAgainstWorktree(t *testing.T) {
	dir, head := newTestRepo(t, map[string]string{
		"lib.py":  "x = 1\n",
		"keep.py": "k = 1\n",
	})
	repo, err := Open(dir, nil)
	if err != nil {
		t.Fatal(err)
	}

	if err := os.WriteFile(filepath.Join(dir, "lib.py"), []byte("x = 2\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	changes, err := repo.Changes(context.Background(), head, WorktreeRef)
	if err != nil {
		t.Fatalf("Changes: %v", err)
	}
	if len(changes) != 1 {
		t.Fatalf("changes = %+v, want exactly lib.py", changes)
	}
	if changes[0].Path != "lib.py" || changes[0].UnifiedDiff == "" {
		t.Errorf("change = %+v, want lib.py with a patch attached", changes[0])
	}
}
