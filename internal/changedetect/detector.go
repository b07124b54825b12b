package changedetect

import (
	"context"
	"sort"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Detector computes file changes since a revision marker for a
// project rooted at Root.
type Detector struct {
	Root         string
	ExcludeDirs  []string
	ExcludeGlobs []string // doublestar patterns, matched against the project-relative path
	Extensions   []string
	forceNoGit   bool // test hook: force the hash-diff path
}

// NewDetector returns a Detector with the default exclusions and
// extension allowlist.
func NewDetector(root string) *Detector {
	return &Detector{
		Root:        root,
		ExcludeDirs: append([]string(nil), DefaultExcludeDirs...),
		Extensions:  append([]string(nil), DefaultExtensions...),
	}
}

// Detect returns the changes since priorRevision plus a new opaque
// revision marker to persist for the next call, along with the
// current content-hash map (for the caller to persist as the new
// cache). When a VCS is present the VCS path is used exclusively for
// this invocation; otherwise, or if the VCS path itself errors, the
// hash-diff path runs instead. The two paths never both run for a
// single Detect call.
func (d *Detector) Detect(ctx context.Context, priorRevision string, cachedHashes map[string]string) (changes []FileChange, newRevision string, newHashes map[string]string, err error) {
	if !d.forceNoGit {
		if src, ok := openGitSource(d.Root); ok {
			vcsChanges, vcsErr := src.changesSince(ctx, priorRevision)
			if vcsErr == nil {
				rev, _ := src.currentRevision(ctx)
				return vcsChanges, rev, cachedHashes, nil
			}
			// VCS call itself failed: fall through to hash-diff for this
			// invocation.
		}
	}

	current, walkErr := walkAndHash(d.Root, d.ExcludeDirs, d.ExcludeGlobs, d.Extensions)
	if walkErr != nil {
		return nil, "", nil, walkErr
	}

	diff := diffAgainstCache(current, cachedHashes)
	return diff, syntheticRevision(current), current, nil
}

// FullScan hashes every eligible file under the project root,
// ignoring any prior cache. Used by the orchestrator's full-reindex
// path.
func (d *Detector) FullScan() (map[string]string, error) {
	return walkAndHash(d.Root, d.ExcludeDirs, d.ExcludeGlobs, d.Extensions)
}

// syntheticRevision derives a stable opaque tag from the current hash
// map, used as the revision marker when no VCS is available.
func syntheticRevision(hashes map[string]string) string {
	keys := make([]string, 0, len(hashes))
	for k := range hashes {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := xxhash.New()
	for _, k := range keys {
		d.WriteString(k)
		d.WriteString("\x00")
		d.WriteString(hashes[k])
		d.WriteString("\x00")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}
