package ledger

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/araddon/dateparse"
)

// SchemaVersion is written into every snapshot.
//
//	0: {"blacklist": [...], "posted": ["Company - Title", ...]}
//	1: adds "posted_with_timestamps" {key: naive ISO timestamp}; some writers
//	   stored "posted" as that same map and kept markers in
//	   "last_job_per_source" {url: {"job_link": id}}
//	2: schema_version, blacklist, notified, resume_markers
const SchemaVersion = 2

type document struct {
	SchemaVersion int               `json:"schema_version"`
	Blacklist     []string          `json:"blacklist"`
	Notified      map[string]string `json:"notified"`
	ResumeMarkers map[string]string `json:"resume_markers"`
}

// anyDocument is the union of every layout ever written.
type anyDocument struct {
	document

	Posted               json.RawMessage              `json:"posted"`
	PostedWithTimestamps map[string]string            `json:"posted_with_timestamps"`
	LastJobPerSource     map[string]legacySourceEntry `json:"last_job_per_source"`
}

type legacySourceEntry struct {
	JobLink string `json:"job_link"`
}

var errNotObject = errors.New("snapshot is not a JSON object")

// Decode reads a snapshot of any known schema. Entries that carry no usable
// timestamp are stamped with now, so migrated history is kept for a full
// retention period instead of being pruned on first sight.
func Decode(data []byte, now time.Time) (State, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return State{}, errNotObject
	}

	var doc anyDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return State{}, fmt.Errorf("decode snapshot: %w", err)
	}
	if doc.SchemaVersion > SchemaVersion {
		return State{}, fmt.Errorf("unsupported schema version %d", doc.SchemaVersion)
	}

	st := Empty()
	st.AddBlacklisted(doc.Blacklist...)

	// Lowest precedence first; later layers overwrite.
	if err := decodePosted(doc.Posted, now, &st); err != nil {
		return State{}, err
	}
	for id, ts := range doc.PostedWithTimestamps {
		st.Record(id, parseTimestamp(ts, now))
	}
	for id, ts := range doc.Notified {
		st.Record(id, parseTimestamp(ts, now))
	}

	for key, e := range doc.LastJobPerSource {
		if e.JobLink != "" {
			st.SetMarker(key, e.JobLink)
		}
	}
	for key, id := range doc.ResumeMarkers {
		if id != "" {
			st.SetMarker(key, id)
		}
	}

	return st, nil
}

func decodePosted(raw json.RawMessage, now time.Time, st *State) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}

	switch raw[0] {
	case '[':
		var ids []string
		if err := json.Unmarshal(raw, &ids); err != nil {
			return fmt.Errorf("decode posted list: %w", err)
		}
		for _, id := range ids {
			if id != "" {
				st.Record(id, now)
			}
		}
	case '{':
		var stamped map[string]string
		if err := json.Unmarshal(raw, &stamped); err != nil {
			return fmt.Errorf("decode posted map: %w", err)
		}
		for id, ts := range stamped {
			st.Record(id, parseTimestamp(ts, now))
		}
	default:
		return fmt.Errorf("unexpected posted value %q", raw[:1])
	}
	return nil
}

func parseTimestamp(s string, fallback time.Time) time.Time {
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t
	}
	// Older writers used naive local timestamps.
	if t, err := dateparse.ParseLocal(s); err == nil {
		return t
	}
	return fallback
}

// Encode renders a state as a current-schema snapshot.
func Encode(s State) ([]byte, error) {
	doc := document{
		SchemaVersion: SchemaVersion,
		Blacklist:     s.Blacklist,
		Notified:      make(map[string]string, len(s.Notified)),
		ResumeMarkers: s.Markers,
	}
	if doc.Blacklist == nil {
		doc.Blacklist = []string{}
	}
	if doc.ResumeMarkers == nil {
		doc.ResumeMarkers = map[string]string{}
	}
	for id, at := range s.Notified {
		doc.Notified[id] = at.UTC().Format(time.RFC3339Nano)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return append(data, '\n'), nil
}
