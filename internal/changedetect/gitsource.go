package changedetect

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/symgraph/engine/internal/errs"
)

// gitSource wraps the subset of git plumbing the change detector needs
// to diff a prior revision against the working tree.
type gitSource struct {
	repoRoot string
}

// openGitSource returns a gitSource if root is inside a git
// repository, or ok=false (not an error) if it is not; absence of a
// VCS is the expected trigger for the hash-diff fallback.
func openGitSource(root string) (src *gitSource, ok bool) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, false
	}
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = absRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, false
	}
	return &gitSource{repoRoot: strings.TrimSpace(string(out))}, true
}

func (g *gitSource) currentRevision(ctx context.Context) (string, error) {
	cmd := exec.CommandContext(ctx, "git", "rev-parse", "HEAD")
	cmd.Dir = g.repoRoot
	out, err := cmd.Output()
	if err != nil {
		// No commits yet: working tree status alone still makes sense.
		return "", nil
	}
	return strings.TrimSpace(string(out)), nil
}

// changesSince returns the union of:
//   - the diff between priorRevision and HEAD (committed changes), and
//   - the working tree status versus HEAD (uncommitted changes).
//
// Both sets are deduplicated by path with the more specific status
// winning.
func (g *gitSource) changesSince(ctx context.Context, priorRevision string) ([]FileChange, error) {
	byPath := make(map[string]FileChange)

	if priorRevision != "" {
		committed, err := g.diffNameStatus(ctx, priorRevision, "HEAD")
		if err != nil {
			return nil, err
		}
		for _, c := range committed {
			mergeChange(byPath, c)
		}
	}

	working, err := g.workingTreeStatus(ctx)
	if err != nil {
		return nil, err
	}
	for _, c := range working {
		mergeChange(byPath, c)
	}

	out := make([]FileChange, 0, len(byPath))
	for _, c := range byPath {
		out = append(out, c)
	}
	return out, nil
}

func mergeChange(byPath map[string]FileChange, c FileChange) {
	existing, ok := byPath[c.Path]
	if !ok || c.Status.rank() < existing.Status.rank() {
		byPath[c.Path] = c
	}
}

func (g *gitSource) diffNameStatus(ctx context.Context, from, to string) ([]FileChange, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "--name-status", "--no-renames", from, to)
	cmd.Dir = g.repoRoot
	out, err := cmd.Output()
	if err != nil {
		return nil, errs.ChangeDetect("git diff", err)
	}
	return parseNameStatus(out)
}

func (g *gitSource) workingTreeStatus(ctx context.Context) ([]FileChange, error) {
	cmd := exec.CommandContext(ctx, "git", "diff", "HEAD", "--name-status", "--no-renames")
	cmd.Dir = g.repoRoot
	out, err := cmd.Output()
	if err != nil {
		// No HEAD yet (brand new repo): treat every tracked/staged file as added.
		cmd := exec.CommandContext(ctx, "git", "diff", "--cached", "--name-status", "--no-renames")
		cmd.Dir = g.repoRoot
		out, err = cmd.Output()
		if err != nil {
			return nil, errs.ChangeDetect("git diff (no HEAD)", err)
		}
	}
	return parseNameStatus(out)
}

func parseNameStatus(out []byte) ([]FileChange, error) {
	var changes []FileChange
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Fields(line)
		if len(parts) < 2 {
			continue
		}
		status := parts[0]
		path := parts[len(parts)-1]
		change := FileChange{Path: path, Status: statusFromGitCode(status)}
		if len(status) > 0 && (status[0] == 'R' || status[0] == 'C') && len(parts) >= 3 {
			change.Status = Renamed
			change.RenamedFrom = parts[1]
		}
		changes = append(changes, change)
	}
	return changes, scanner.Err()
}

func statusFromGitCode(code string) Status {
	if len(code) == 0 {
		return Modified
	}
	switch code[0] {
	case 'A':
		return Added
	case 'D':
		return Deleted
	case 'M':
		return Modified
	case 'R', 'C':
		return Renamed
	default:
		return Modified
	}
}
