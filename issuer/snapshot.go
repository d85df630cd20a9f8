package issuer

import (
	"encoding/json"
	"maps"
	"time"
)

// Snapshot is the persisted form of the keys held by one or more sources,
// keyed by issuer URL.
//
//	{"https://issuer/": {"_ts": 1700000000000, "type": "asymmetric", "keys": {"01": "<base64>"}}}
type Snapshot map[string]SnapshotEntry

// SnapshotEntry is the snapshot of a single issuer.
type SnapshotEntry struct {
	// TS is the last update time in milliseconds since the Unix epoch.
	TS   int64             `json:"_ts"`
	Type Kind              `json:"type"`
	Keys map[string][]byte `json:"keys"`
}

// Updated returns TS as a time.
func (e SnapshotEntry) Updated() time.Time {
	return time.UnixMilli(e.TS)
}

// UnmarshalJSON decodes a snapshot, treating null as empty.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var raw map[string]SnapshotEntry
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		raw = make(map[string]SnapshotEntry)
	}
	*s = raw
	return nil
}

// merge copies src into dst. Later entries for the same issuer replace
// earlier ones.
func (s Snapshot) merge(src Snapshot) {
	maps.Copy(s, src)
}
