package changedetect

import (
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/cespare/xxhash/v2"

	"github.com/symgraph/engine/internal/errs"
)

// HashFile returns a deterministic, non-cryptographic 64-bit content
// hash, hex-encoded. xxhash is resistant to accidental collision, not
// adversarial collision, which is all change detection needs.
func HashFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", errs.StorageIo("hash_file", err)
	}
	return strconv.FormatUint(xxhash.Sum64(data), 16), nil
}

// walkAndHash walks root, excluding well-known build/metadata
// directories, any project-relative path matching one of
// excludeGlobs (doublestar patterns, e.g. "**/dist/**"), and any file
// whose extension is not in extensions (when extensions is
// non-empty), hashing every remaining file. Symlinks are never
// followed.
func walkAndHash(root string, excludeDirs, excludeGlobs, extensions []string) (map[string]string, error) {
	excluded := make(map[string]bool, len(excludeDirs))
	for _, d := range excludeDirs {
		excluded[d] = true
	}
	allowed := make(map[string]bool, len(extensions))
	for _, e := range extensions {
		allowed[strings.ToLower(e)] = true
	}

	hashes := make(map[string]string)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && excluded[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type()&fs.ModeSymlink != 0 {
			return nil
		}
		if len(allowed) > 0 && !allowed[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if globExcluded(excludeGlobs, rel) {
			return nil
		}

		hash, err := HashFile(path)
		if err != nil {
			return nil // unreadable file (e.g. permission/race): skip, don't abort the walk
		}
		hashes[rel] = hash
		return nil
	})
	if err != nil {
		return nil, errs.ChangeDetect("walk", err)
	}
	return hashes, nil
}

// globExcluded reports whether rel matches any of the doublestar
// exclude patterns. A malformed pattern never excludes (fails open).
func globExcluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if matched, err := doublestar.Match(pattern, rel); err == nil && matched {
			return true
		}
	}
	return false
}

// diffAgainstCache compares a fresh walk's hashes to a cached map and
// returns the minimal change set.
func diffAgainstCache(current, cached map[string]string) []FileChange {
	var changes []FileChange
	for path, hash := range current {
		old, existed := cached[path]
		switch {
		case !existed:
			changes = append(changes, FileChange{Path: path, Status: Added, ContentHash: hash})
		case old != hash:
			changes = append(changes, FileChange{Path: path, Status: Modified, ContentHash: hash})
		}
	}
	for path := range cached {
		if _, stillPresent := current[path]; !stillPresent {
			changes = append(changes, FileChange{Path: path, Status: Deleted})
		}
	}
	return changes
}
