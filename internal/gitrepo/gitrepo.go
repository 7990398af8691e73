// Package gitrepo implements the detector's repository collaborators on
// top of the git CLI: file content at a revision via git show, changed-file
// sets via git diff. Rename detection is delegated to git (-M); paths with
// spaces survive through NUL-separated output.
package gitrepo

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"codepin/internal/detect"
	"codepin/internal/diffparse"
	"codepin/internal/errors"
	"codepin/internal/logging"
)

// WorktreeRef addresses the working tree instead of a committed revision
const WorktreeRef = "WORKTREE"

// Repo is a git repository rooted at a local directory
type Repo struct {
	root   string
	logger *logging.Logger
}

// Open verifies root is inside a git repository and returns a Repo
func Open(root string, logger *logging.Logger) (*Repo, error) {
	if logger == nil {
		logger = logging.Discard()
	}
	cmd := exec.Command("git", "rev-parse", "--git-dir")
	cmd.Dir = root
	if err := cmd.Run(); err != nil {
		return nil, errors.New(errors.RevisionUnavailable, root+" is not a git repository", err)
	}
	return &Repo{root: root, logger: logger}, nil
}

// Root returns the repository root directory
func (r *Repo) Root() string { return r.root }

// Head returns the current HEAD commit hash
func (r *Repo) Head(ctx context.Context) (string, error) {
	out, err := r.git(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", errors.New(errors.RevisionUnavailable, "resolving HEAD", err)
	}
	return strings.TrimSpace(string(out)), nil
}

// ReadFile returns a file's content at a revision. WorktreeRef (or the
// empty revision) reads from disk. A missing path maps to detect.ErrNotFound.
func (r *Repo) ReadFile(ctx context.Context, path, rev string) ([]byte, error) {
	if rev == "" || rev == WorktreeRef {
		content, err := os.ReadFile(filepath.Join(r.root, path)) // #nosec G304 -- path is repo-relative by contract
		if os.IsNotExist(err) {
			return nil, detect.ErrNotFound
		}
		if err != nil {
			return nil, errors.New(errors.RevisionUnavailable, "reading "+path, err)
		}
		return content, nil
	}

	out, err := r.git(ctx, "show", rev+":"+path)
	if err != nil {
		if isMissingPath(err) {
			return nil, detect.ErrNotFound
		}
		return nil, errors.New(errors.RevisionUnavailable, "reading "+path+" at "+rev, err)
	}
	return out, nil
}

// Changes lists the files changed between two refs, with rename pairs and
// per-file unified diffs. An empty or WorktreeRef target diffs against the
// working tree.
func (r *Repo) Changes(ctx context.Context, baseRef, targetRef string) ([]diffparse.FileChange, error) {
	statusArgs := []string{"diff", "--name-status", "-z", "-M", baseRef}
	patchArgs := []string{"diff", "-M", "--unified=3", baseRef}
	if targetRef != "" && targetRef != WorktreeRef {
		statusArgs = append(statusArgs, targetRef)
		patchArgs = append(patchArgs, targetRef)
	}

	statusOut, err := r.git(ctx, statusArgs...)
	if err != nil {
		return nil, errors.New(errors.DiffUnavailable, "git diff --name-status failed", err)
	}
	patchOut, err := r.git(ctx, patchArgs...)
	if err != nil {
		return nil, errors.New(errors.DiffUnavailable, "git diff failed", err)
	}

	changes := parseNameStatus(statusOut)
	attachPatches(changes, string(patchOut))

	r.logger.Debug("changed-file set computed", map[string]interface{}{
		"base":   baseRef,
		"target": targetRef,
		"files":  len(changes),
	})
	return changes, nil
}

func (r *Repo) git(ctx context.Context, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", args...) // #nosec G204 -- fixed binary, caller-controlled refs
	cmd.Dir = r.root
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return nil, &gitError{args: args, stderr: stderr.String(), cause: err}
	}
	return out, nil
}

type gitError struct {
	args   []string
	stderr string
	cause  error
}

func (e *gitError) Error() string {
	msg := "git " + strings.Join(e.args, " ") + ": " + e.cause.Error()
	if e.stderr != "" {
		msg += ": " + strings.TrimSpace(e.stderr)
	}
	return msg
}

func (e *gitError) Unwrap() error { return e.cause }

// isMissingPath recognizes git show failures caused by the path not
// existing at the revision, as opposed to the revision itself being bad
func isMissingPath(err error) bool {
	ge, ok := err.(*gitError)
	if !ok {
		return false
	}
	return strings.Contains(ge.stderr, "does not exist") ||
		strings.Contains(ge.stderr, "exists on disk, but not in")
}

// parseNameStatus parses git diff --name-status -z output.
// Format: STATUS\0PATH\0, or STATUS\0OLDPATH\0NEWPATH\0 for renames and
// copies. Both paths must be read before deciding anything about the entry.
func parseNameStatus(output []byte) []diffparse.FileChange {
	var changes []diffparse.FileChange
	parts := bytes.Split(output, []byte{0})

	for i := 0; i < len(parts); {
		if len(parts[i]) == 0 {
			i++
			continue
		}
		status := string(parts[i])
		if i+1 >= len(parts) {
			break
		}

		switch {
		case strings.HasPrefix(status, "R"):
			if i+2 >= len(parts) {
				return changes
			}
			changes = append(changes, diffparse.FileChange{
				Path:    string(parts[i+2]),
				OldPath: string(parts[i+1]),
			})
			i += 3

		case strings.HasPrefix(status, "C"):
			// A copy leaves the old file untouched; only the new path is a change
			if i+2 >= len(parts) {
				return changes
			}
			changes = append(changes, diffparse.FileChange{Path: string(parts[i+2])})
			i += 3

		case status == "D":
			changes = append(changes, diffparse.FileChange{
				Path:    string(parts[i+1]),
				Deleted: true,
			})
			i += 2

		default: // A, M, T, and anything unrecognized
			changes = append(changes, diffparse.FileChange{Path: string(parts[i+1])})
			i += 2
		}
	}
	return changes
}

// attachPatches splits one multi-file patch on its per-file headers and
// assigns each section to the matching change entry
func attachPatches(changes []diffparse.FileChange, patch string) {
	byPath := make(map[string]int, len(changes))
	for i, ch := range changes {
		byPath[ch.Path] = i
	}

	for _, section := range splitPatch(patch) {
		path := patchNewPath(section)
		if path == "" {
			continue
		}
		idx, ok := byPath[path]
		if !ok {
			continue
		}
		changes[idx].UnifiedDiff = section
		if strings.Contains(section, "Binary files ") || strings.Contains(section, "GIT binary patch") {
			changes[idx].Binary = true
		}
	}
}

// splitPatch cuts a git patch into per-file sections at "diff --git" lines
func splitPatch(patch string) []string {
	var sections []string
	var current []string

	flush := func() {
		if len(current) > 0 {
			sections = append(sections, strings.Join(current, "\n")+"\n")
			current = nil
		}
	}

	for _, line := range strings.Split(strings.TrimSuffix(patch, "\n"), "\n") {
		if strings.HasPrefix(line, "diff --git ") {
			flush()
		}
		if line != "" || len(current) > 0 {
			current = append(current, line)
		}
	}
	flush()
	return sections
}

// patchNewPath extracts the post-change path from one patch section. The
// +++ header wins; deletions fall back to the --- header so the section
// still pairs with its name-status entry.
func patchNewPath(section string) string {
	old := ""
	for _, line := range strings.Split(section, "\n") {
		switch {
		case strings.HasPrefix(line, "+++ b/"):
			return strings.TrimPrefix(line, "+++ b/")
		case strings.HasPrefix(line, "--- a/"):
			old = strings.TrimPrefix(line, "--- a/")
		case strings.HasPrefix(line, "Binary files "):
			// "Binary files a/x and b/y differ"
			rest := strings.TrimPrefix(line, "Binary files ")
			if i := strings.Index(rest, " and b/"); i >= 0 {
				return strings.TrimSuffix(rest[i+len(" and b/"):], " differ")
			}
		}
	}
	return old
}
