package debugger

import (
	"fmt"
	"sync"
)

// Record is the registry entry for one spawned debugger process.
type Record struct {
	// Key is the opaque session identifier, generated at creation and
	// never reused.
	Key string `json:"key"`

	// Program is the path to the compiled debug target.
	Program string `json:"program"`

	// PID is the operating-system process id of the dlv child.
	PID int `json:"pid"`

	// Host and Port are the TCP endpoint the debugger listens on.
	Host string `json:"host"`
	Port int    `json:"port"`

	// Addr is the derived "host:port" form, kept consistent with Host
	// and Port at construction.
	Addr string `json:"addr"`

	// Desc is a human-readable label, e.g. the test function being
	// debugged.
	Desc string `json:"desc"`
}

// String returns a short form for logging.
func (r Record) String() string {
	return fmt.Sprintf("%s (%s pid=%d addr=%s)", r.Key, r.Desc, r.PID, r.Addr)
}

// Store is the session registry. Keys are opaque strings; no ordering is
// implied. The registry holds a record exactly while its process was
// spawned and has not been stopped.
type Store interface {
	// Put inserts or replaces the record under key.
	Put(key string, rec Record)

	// Get returns the record for key, and whether it exists.
	Get(key string) (Record, bool)

	// Remove deletes the record for key. Removing an absent key is a
	// no-op.
	Remove(key string)

	// List returns a snapshot of all records keyed by session key.
	List() map[string]Record
}

// MemoryStore is the process-scoped Store implementation. It is safe for
// concurrent use.
type MemoryStore struct {
	mu   sync.RWMutex
	recs map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{recs: make(map[string]Record)}
}

// Put inserts or replaces the record under key.
func (s *MemoryStore) Put(key string, rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[key] = rec
}

// Get returns the record for key, and whether it exists.
func (s *MemoryStore) Get(key string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.recs[key]
	return rec, ok
}

// Remove deletes the record for key.
func (s *MemoryStore) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.recs, key)
}

// List returns a snapshot of all records.
func (s *MemoryStore) List() map[string]Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]Record, len(s.recs))
	for k, v := range s.recs {
		out[k] = v
	}
	return out
}
