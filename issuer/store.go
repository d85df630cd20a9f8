package issuer

import (
	"maps"
	"slices"
	"sync"
	"time"
)

// store holds key material per issuer URL.
type store struct {
	mu      sync.RWMutex
	kind    Kind
	entries map[string]*storeEntry
	now     func() time.Time
}

type storeEntry struct {
	updated time.Time // zero until the first key is stored
	ids     []string
	keys    map[string][]byte
}

func newStore(kind Kind, now func() time.Time) *store {
	return &store{kind: kind, entries: make(map[string]*storeEntry), now: now}
}

// ensure creates an empty entry for issuerURL if none exists.
func (s *store) ensure(issuerURL string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureLocked(issuerURL)
}

func (s *store) ensureLocked(issuerURL string) *storeEntry {
	e, ok := s.entries[issuerURL]
	if !ok {
		e = &storeEntry{keys: make(map[string][]byte)}
		s.entries[issuerURL] = e
	}
	return e
}

func (s *store) put(issuerURL, keyID string, material []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.ensureLocked(issuerURL)
	e.set(keyID, material)
	e.updated = s.now()
}

// putAll stores every key in keys for issuerURL, keeping keys that are not
// mentioned.
func (s *store) putAll(issuerURL string, keys map[string][]byte, order []string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := s.ensureLocked(issuerURL)
	for _, kid := range order {
		e.set(kid, keys[kid])
	}
	e.updated = s.now()
}

func (e *storeEntry) set(keyID string, material []byte) {
	if _, ok := e.keys[keyID]; !ok {
		e.ids = append(e.ids, keyID)
	}
	e.keys[keyID] = slices.Clone(material)
}

func (s *store) get(issuerURL, keyID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[issuerURL]
	if !ok {
		return nil, false
	}
	material, ok := e.keys[keyID]
	return material, ok
}

func (s *store) keyIDs(issuerURL string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[issuerURL]
	if !ok {
		return []string{}
	}
	out := make([]string, len(e.ids))
	copy(out, e.ids)
	return out
}

func (s *store) export(withKeys bool) Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Snapshot, len(s.entries))
	for url, e := range s.entries {
		keys := make(map[string][]byte)
		if withKeys {
			keys = maps.Clone(e.keys)
		}
		var ts int64
		if !e.updated.IsZero() {
			ts = e.updated.UnixMilli()
		}
		out[url] = SnapshotEntry{TS: ts, Type: s.kind, Keys: keys}
	}
	return out
}

// load replaces the entry for issuerURL with a snapshot entry. Keys without
// material are dropped.
func (s *store) load(issuerURL string, entry SnapshotEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := &storeEntry{keys: make(map[string][]byte, len(entry.Keys))}
	if entry.TS != 0 {
		e.updated = entry.Updated()
	}
	for _, kid := range slices.Sorted(maps.Keys(entry.Keys)) {
		// null and "" decode to empty material; such kids stay unknown.
		if len(entry.Keys[kid]) == 0 {
			continue
		}
		e.set(kid, entry.Keys[kid])
	}
	s.entries[issuerURL] = e
}

func (s *store) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		n += len(e.keys)
	}
	return n
}
