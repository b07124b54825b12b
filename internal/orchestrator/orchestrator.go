package orchestrator

import (
	"bytes"
	"context"
	"encoding/gob"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"

	"github.com/symgraph/engine/internal/changedetect"
	"github.com/symgraph/engine/internal/errs"
	"github.com/symgraph/engine/internal/graphstore"
	"github.com/symgraph/engine/internal/incremental"
	"github.com/symgraph/engine/internal/storage"
)

// schemaVersion is the engine-level meta/version value; a store
// opened with a different value forces a full reindex rather than a
// hard failure.
const schemaVersion = "1"

// LanguageHintFunc maps a file path to the language hint passed to the
// extractor (e.g. by extension). A nil func passes an empty hint.
type LanguageHintFunc func(path string) string

// Orchestrator wires the persistent store, change detector, extractor,
// and incremental index into the end-to-end re-index pipeline.
type Orchestrator struct {
	Store        *storage.Store
	Detector     *changedetect.Detector
	Extractor    Extractor
	Concurrency  int
	FileTimeout  time.Duration
	LanguageHint LanguageHintFunc
	EntryPoints  incremental.EntryPointRule
	Logger       *log.Logger

	idxMu sync.RWMutex
	idx   *incremental.Index
}

// New returns an Orchestrator with conventional defaults: bounded
// concurrency of 4, a 10s per-file extractor timeout, and a standard
// logger writing to the process's default log output.
func New(store *storage.Store, detector *changedetect.Detector, extractor Extractor) *Orchestrator {
	return &Orchestrator{
		Store:       store,
		Detector:    detector,
		Extractor:   extractor,
		Concurrency: 4,
		FileTimeout: 10 * time.Second,
		EntryPoints: incremental.DefaultEntryPointRule(),
		Logger:      log.Default(),
	}
}

// Result summarizes one Run call.
type Result struct {
	Update      incremental.UpdateResult
	NewRevision string
}

// Run executes one incremental (or full, if fullReindex is true)
// re-index cycle.
func (o *Orchestrator) Run(ctx context.Context, fullReindex bool) (Result, error) {
	idx, priorRevision, cachedHashes, hadSnapshot, err := o.loadIndex()
	if err != nil {
		return Result{}, err
	}

	forceFullReindex := fullReindex || !hadSnapshot

	var changes []changedetect.FileChange
	var newRevision string
	var newHashes map[string]string

	if forceFullReindex {
		idx = incremental.New()
		hashes, err := o.Detector.FullScan()
		if err != nil {
			return Result{}, err
		}
		for path, hash := range hashes {
			changes = append(changes, changedetect.FileChange{Path: path, Status: changedetect.Added, ContentHash: hash})
		}
		newHashes = hashes
	} else {
		c, rev, hashes, err := o.Detector.Detect(ctx, priorRevision, cachedHashes)
		if err != nil {
			// Change-detector failure on the VCS path falls back to the
			// hash-diff path internally; a surviving error here means
			// both paths failed, which aborts the run.
			return Result{}, err
		}
		changes = c
		newRevision = rev
		newHashes = hashes
	}

	entries, skipped, err := o.extractBatch(ctx, idx, changes)
	if err != nil {
		return Result{}, err
	}

	update := idx.BatchUpdate(entries)
	update.SkippedFiles = skipped
	idx.DetectDeadCodeInto(o.EntryPoints, &update)

	if newRevision == "" {
		newRevision = priorRevision
	}

	if err := o.persist(idx, newRevision, newHashes); err != nil {
		return Result{}, err
	}

	o.idxMu.Lock()
	o.idx = idx
	o.idxMu.Unlock()

	return Result{Update: update, NewRevision: newRevision}, nil
}

// Index returns the incremental index built by the most recent Run
// call, or nil if Run has never completed successfully. The façade
// (internal/facade) uses this to serve read queries and direct
// update_file/batch_update calls between reindex cycles without
// reloading the snapshot from the store.
func (o *Orchestrator) Index() *incremental.Index {
	o.idxMu.RLock()
	defer o.idxMu.RUnlock()
	return o.idx
}

func (o *Orchestrator) loadIndex() (idx *incremental.Index, priorRevision string, cachedHashes map[string]string, hadSnapshot bool, err error) {
	if versionBytes, ok := o.Store.Load(storage.NamespaceMeta, storage.MetaKeyVersion); ok {
		if string(versionBytes) != schemaVersion {
			return incremental.New(), "", nil, false, nil
		}
	}

	snapshotBytes, ok := o.Store.Load(storage.NamespaceGraph, storage.GraphSnapshotKey)
	if !ok {
		return incremental.New(), "", nil, false, nil
	}

	g, err := graphstore.LoadSnapshot(snapshotBytes)
	if err != nil {
		return nil, "", nil, false, err
	}

	hashes := make(map[string]string)
	for _, kv := range o.Store.Scan(storage.NamespaceFileHash) {
		hashes[kv.Key] = string(kv.Value)
	}

	revisionBytes, _ := o.Store.Load(storage.NamespaceMeta, storage.MetaKeyRevision)

	return incremental.FromGraph(g, hashes), string(revisionBytes), hashes, true, nil
}

// extractBatch invokes the extractor for each changed file under
// bounded concurrency, skipping (and logging) files whose extraction
// fails or times out.
func (o *Orchestrator) extractBatch(ctx context.Context, idx *incremental.Index, changes []changedetect.FileChange) ([]incremental.BatchEntry, []string, error) {
	concurrency := o.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	sem := semaphore.NewWeighted(int64(concurrency))
	g, gctx := errgroup.WithContext(ctx)

	entries := make([]incremental.BatchEntry, len(changes))
	var mu sync.Mutex
	var skipped []string

	for i, change := range changes {
		i, change := i, change

		select {
		case <-ctx.Done():
			return nil, nil, errs.Cancelled("orchestrator.run")
		default:
		}

		if change.Status == changedetect.Deleted {
			entries[i] = incremental.BatchEntry{FilePath: change.Path, Deleted: true}
			continue
		}

		g.Go(func() error {
			if err := sem.Acquire(gctx, 1); err != nil {
				return err
			}
			defer sem.Release(1)

			hint := ""
			if o.LanguageHint != nil {
				hint = o.LanguageHint(change.Path)
			}

			fctx := gctx
			var cancel context.CancelFunc
			if o.FileTimeout > 0 {
				fctx, cancel = context.WithTimeout(gctx, o.FileTimeout)
				defer cancel()
			}

			symbols, edges, err := o.Extractor.Extract(fctx, change.Path, hint)
			if err != nil {
				o.logf("extract failed for %s: %v", change.Path, err)
				mu.Lock()
				skipped = append(skipped, change.Path)
				mu.Unlock()
				entries[i] = incremental.BatchEntry{} // zero-value entry is dropped by the compaction below
				return nil
			}

			edgeSpecs := make([]incremental.EdgeSpec, len(edges))
			for j, e := range edges {
				edgeSpecs[j] = incremental.EdgeSpec{FromID: e.FromID, ToID: e.ToID, Kind: e.Kind}
			}

			entries[i] = incremental.BatchEntry{
				FilePath: change.Path,
				Update: &incremental.FileUpdate{
					FilePath: change.Path,
					Symbols:  symbols,
					Edges:    edgeSpecs,
					Hash:     change.ContentHash,
				},
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	compact := make([]incremental.BatchEntry, 0, len(entries))
	for _, e := range entries {
		if e.FilePath == "" {
			continue
		}
		compact = append(compact, e)
	}
	return compact, skipped, nil
}

func (o *Orchestrator) persist(idx *incremental.Index, revision string, hashes map[string]string) error {
	snapshot, err := idx.Graph().Snapshot()
	if err != nil {
		return err
	}

	writes := []storage.NamespacedEntry{
		{Namespace: storage.NamespaceGraph, Key: storage.GraphSnapshotKey, Value: snapshot},
		{Namespace: storage.NamespaceMeta, Key: storage.MetaKeyRevision, Value: []byte(revision)},
		{Namespace: storage.NamespaceMeta, Key: storage.MetaKeyVersion, Value: []byte(schemaVersion)},
	}

	for _, path := range idx.FilesOwned() {
		syms := idx.SymbolsInFile(path)
		ids := make([]string, len(syms))
		for i, s := range syms {
			ids[i] = s.ID
		}
		encoded, err := encodeStringSlice(ids)
		if err != nil {
			return err
		}
		writes = append(writes, storage.NamespacedEntry{Namespace: storage.NamespaceFileSymbols, Key: path, Value: encoded})
	}

	for path, hash := range hashes {
		writes = append(writes, storage.NamespacedEntry{Namespace: storage.NamespaceFileHash, Key: path, Value: []byte(hash)})
	}

	return o.Store.SaveBatch(writes)
}

func (o *Orchestrator) logf(format string, args ...any) {
	if o.Logger != nil {
		o.Logger.Printf(format, args...)
	}
}

func encodeStringSlice(ids []string) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(ids); err != nil {
		return nil, errs.StorageIo("encode_file_symbols", err)
	}
	return buf.Bytes(), nil
}
