// Package storage implements the durable key/value backing for
// snapshot and metadata persistence: typed namespaces, batched
// writes, and point reads, realized as a single namespaced file with
// a magic tag and schema version.
package storage

import (
	"bytes"
	"encoding/gob"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"github.com/symgraph/engine/internal/errs"
)

const (
	magic         = "SGE1"
	formatVersion = 1
	snapshotFile  = "store.bin"
)

// KV is a single namespace entry, returned by Scan.
type KV struct {
	Key   string
	Value []byte
}

// onDisk is the gob-serialized payload written to snapshotFile.
type onDisk struct {
	Magic     string
	Version   int
	Namespace map[string]map[string][]byte
}

// Store is a durable, namespaced key/value store. Readers may proceed
// concurrently; writers serialize with respect to each other. It is
// not safe for use by multiple OS processes.
type Store struct {
	dir  string
	mu   sync.RWMutex
	data map[string]map[string][]byte
}

// Open opens or creates a store rooted at path. path is a directory;
// it is created if absent. Fails with KindStorageIo on filesystem
// errors, KindStorageCorrupt if an existing file's signature or
// version is unrecognized.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, errs.StorageIo("open", err)
	}

	s := &Store{dir: path, data: make(map[string]map[string][]byte)}

	full := filepath.Join(path, snapshotFile)
	raw, err := os.ReadFile(full)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, errs.StorageIo("open", err)
	}
	if len(raw) == 0 {
		return s, nil
	}

	var payload onDisk
	dec := gob.NewDecoder(bytes.NewReader(raw))
	if err := dec.Decode(&payload); err != nil {
		return nil, errs.StorageCorrupt("open", "undecodable store file: "+err.Error())
	}
	if payload.Magic != magic {
		return nil, errs.StorageCorrupt("open", "bad magic tag")
	}
	if payload.Version != formatVersion {
		return nil, errs.StorageCorrupt("open", "unsupported store format version")
	}
	if payload.Namespace != nil {
		s.data = payload.Namespace
	}
	return s, nil
}

func (s *Store) flushLocked() error {
	payload := onDisk{Magic: magic, Version: formatVersion, Namespace: s.data}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(payload); err != nil {
		return errs.StorageIo("flush", err)
	}

	full := filepath.Join(s.dir, snapshotFile)
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return errs.StorageIo("flush", err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return errs.StorageIo("flush", err)
	}
	return nil
}

// Save writes a single entry, overwriting any prior value, and is
// durable on successful return.
func (s *Store) Save(namespace, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.data[namespace]
	if ns == nil {
		ns = make(map[string][]byte)
		s.data[namespace] = ns
	}
	prev, hadPrev := ns[key]
	ns[key] = value

	if err := s.flushLocked(); err != nil {
		if hadPrev {
			ns[key] = prev
		} else {
			delete(ns, key)
		}
		return err
	}
	return nil
}

// Entry is one key/value pair for a SaveMany call.
type Entry struct {
	Key   string
	Value []byte
}

// SaveMany writes a batch of entries to namespace with all-or-nothing
// semantics: either every entry is durably written, or none are.
func (s *Store) SaveMany(namespace string, entries []Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns := s.data[namespace]
	if ns == nil {
		ns = make(map[string][]byte)
		s.data[namespace] = ns
	}

	type undo struct {
		key      string
		had      bool
		previous []byte
	}
	undos := make([]undo, 0, len(entries))
	for _, e := range entries {
		prev, had := ns[e.Key]
		undos = append(undos, undo{key: e.Key, had: had, previous: prev})
		ns[e.Key] = e.Value
	}

	if err := s.flushLocked(); err != nil {
		for _, u := range undos {
			if u.had {
				ns[u.key] = u.previous
			} else {
				delete(ns, u.key)
			}
		}
		return err
	}
	return nil
}

// NamespacedEntry is one key/value write targeting a specific
// namespace, used by SaveBatch to span several namespaces in a single
// durable flush.
type NamespacedEntry struct {
	Namespace string
	Key       string
	Value     []byte
}

// SaveBatch writes entries across one or more namespaces as a single
// durable flush: either every entry lands, or none do.
func (s *Store) SaveBatch(entries []NamespacedEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	type undo struct {
		namespace string
		key       string
		had       bool
		previous  []byte
	}
	undos := make([]undo, 0, len(entries))

	for _, e := range entries {
		ns := s.data[e.Namespace]
		if ns == nil {
			ns = make(map[string][]byte)
			s.data[e.Namespace] = ns
		}
		prev, had := ns[e.Key]
		undos = append(undos, undo{namespace: e.Namespace, key: e.Key, had: had, previous: prev})
		ns[e.Key] = e.Value
	}

	if err := s.flushLocked(); err != nil {
		for _, u := range undos {
			ns := s.data[u.namespace]
			if u.had {
				ns[u.key] = u.previous
			} else {
				delete(ns, u.key)
			}
		}
		return err
	}
	return nil
}

// Load returns the value for key in namespace, or ok=false if absent.
func (s *Store) Load(namespace, key string) (value []byte, ok bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ns, exists := s.data[namespace]
	if !exists {
		return nil, false
	}
	v, ok := ns[key]
	return v, ok
}

// Delete removes a key from namespace, flushing durably.
func (s *Store) Delete(namespace, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ns, exists := s.data[namespace]
	if !exists {
		return nil
	}
	prev, had := ns[key]
	if !had {
		return nil
	}
	delete(ns, key)

	if err := s.flushLocked(); err != nil {
		ns[key] = prev
		return err
	}
	return nil
}

// Scan returns every (key, value) pair in namespace, sorted by key for
// deterministic iteration.
func (s *Store) Scan(namespace string) []KV {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ns := s.data[namespace]
	out := make([]KV, 0, len(ns))
	for k, v := range ns {
		out = append(out, KV{Key: k, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Namespace names used by the engine.
const (
	NamespaceGraph       = "graph"
	NamespaceFileSymbols = "file_symbols"
	NamespaceFileHash    = "file_hash"
	NamespaceMeta        = "meta"
)

// Well-known keys within NamespaceMeta.
const (
	MetaKeyVersion  = "version"
	MetaKeyRevision = "revision"
)

// GraphSnapshotKey is the single key holding the serialized graph
// within NamespaceGraph.
const GraphSnapshotKey = "snapshot"
