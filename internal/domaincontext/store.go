// File: internal/domaincontext/store.go
package domaincontext

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Record is the persisted knowledge for one domain. Summary is a rolling
// cumulative description, bounded by the configured maximum length; it is
// recomputed from its own previous value on every refresh rather than
// appended to.
type Record struct {
	Domain      string    `json:"domain"`
	Summary     string    `json:"summary"`
	VisitCount  int       `json:"visit_count"`
	LastUpdated time.Time `json:"last_updated"`
}

// Store owns the durable domain -> Record mapping. The whole mapping is
// persisted as one JSON document; every mutation is a locked
// read-modify-write of that document so a writer never acts on a stale
// snapshot.
type Store struct {
	path   string
	logger *zap.Logger

	// mu serializes the full read-modify-write cycle, not just the file
	// write. Scoped to the store because saves replace the whole document.
	mu    sync.Mutex
	cache *recordCache
}

// NewStore creates a store persisting to path. The file is created lazily on
// the first save; a missing file reads as an empty mapping.
func NewStore(path string, cacheTTL time.Duration, logger *zap.Logger) *Store {
	return &Store{
		path:   path,
		logger: logger.Named("context_store"),
		cache:  newRecordCache(cacheTTL),
	}
}

// Load reads the persisted document. A missing file is a valid empty start; a
// file that exists but does not decode is a CorruptStateError.
func (s *Store) Load() (map[string]Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() (map[string]Record, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return map[string]Record{}, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: s.path, Err: err}
	}
	if len(data) == 0 {
		// Zero bytes means an interrupted first save, not valid JSON.
		return nil, &CorruptStateError{Path: s.path, Err: fmt.Errorf("file is empty")}
	}

	var records map[string]Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, &CorruptStateError{Path: s.path, Err: err}
	}
	if records == nil {
		records = map[string]Record{}
	}
	return records, nil
}

// Save persists the full mapping atomically: the document is written to a
// temp file in the same directory and renamed over the target, so concurrent
// readers only ever see a fully-committed state.
func (s *Store) Save(records map[string]Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(records)
}

func (s *Store) saveLocked(records map[string]Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: s.path, Err: err}
	}

	s.cache.purge()
	return nil
}

// Get returns the record for domain and whether it exists. Absence is not an
// error. Recently-read records are served from a short-lived cache that is
// purged on every save.
func (s *Store) Get(domain string) (Record, bool, error) {
	if rec, ok := s.cache.get(domain); ok {
		return rec, true, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return Record{}, false, err
	}
	rec, ok := records[domain]
	if ok {
		s.cache.put(domain, rec)
	}
	return rec, ok, nil
}

// Put inserts or replaces one record and persists the full mapping. The load,
// mutate, and save all happen under the store lock so concurrent puts for
// different domains cannot lose each other's updates.
func (s *Store) Put(domain string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadLocked()
	if err != nil {
		return err
	}
	records[domain] = rec
	if err := s.saveLocked(records); err != nil {
		return err
	}

	s.cache.put(domain, rec)
	s.logger.Debug("Persisted domain context record.",
		zap.String("domain", domain),
		zap.Int("visit_count", rec.VisitCount),
		zap.Int("summary_len", len(rec.Summary)))
	return nil
}
