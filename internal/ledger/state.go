// Package ledger keeps the durable memory of the pipeline: which postings
// were already notified (and when), where each resumable source stopped,
// and which companies are blacklisted.
package ledger

import (
	"slices"
	"strings"
	"time"
)

// State is a full in-memory snapshot of the ledger. Functions in this
// package that take a State by value never mutate it; the pointer methods
// do, and are meant for a copy obtained with Clone.
type State struct {
	Blacklist []string
	Notified  map[string]time.Time
	Markers   map[string]string
}

// Empty returns a ready-to-use state with no history.
func Empty() State {
	return State{
		Blacklist: []string{},
		Notified:  map[string]time.Time{},
		Markers:   map[string]string{},
	}
}

// Clone returns a deep copy.
func (s State) Clone() State {
	c := State{
		Blacklist: slices.Clone(s.Blacklist),
		Notified:  make(map[string]time.Time, len(s.Notified)),
		Markers:   make(map[string]string, len(s.Markers)),
	}
	if c.Blacklist == nil {
		c.Blacklist = []string{}
	}
	for k, v := range s.Notified {
		c.Notified[k] = v
	}
	for k, v := range s.Markers {
		c.Markers[k] = v
	}
	return c
}

func (s State) IsNotified(id string) bool {
	_, ok := s.Notified[id]
	return ok
}

// LegacyKey is the "Company - Title" key used by schema 0 and 1 snapshots.
func LegacyKey(company, title string) string {
	return strings.TrimSpace(company) + " - " + strings.TrimSpace(title)
}

// NotifiedAt reports when a posting was notified. The identity is tried
// first, then the company and title key that migrated entries still carry.
func (s State) NotifiedAt(id, company, title string) (time.Time, bool) {
	if at, ok := s.Notified[id]; ok {
		return at, true
	}
	if strings.TrimSpace(company) == "" && strings.TrimSpace(title) == "" {
		return time.Time{}, false
	}
	at, ok := s.Notified[LegacyKey(company, title)]
	return at, ok
}

// Marker returns the resume marker stored for a source key.
func (s State) Marker(key string) (string, bool) {
	m, ok := s.Markers[key]
	if !ok || m == "" {
		return "", false
	}
	return m, true
}

// Record stores id as notified at the given time, replacing any earlier entry.
func (s *State) Record(id string, at time.Time) {
	if s.Notified == nil {
		s.Notified = map[string]time.Time{}
	}
	s.Notified[id] = at
}

// SetMarker overwrites the resume marker for key.
func (s *State) SetMarker(key, id string) {
	if s.Markers == nil {
		s.Markers = map[string]string{}
	}
	s.Markers[key] = id
}

// WithNotified is the copy-on-write form of Record.
func WithNotified(s State, id string, at time.Time) State {
	c := s.Clone()
	c.Record(id, at)
	return c
}

// WithMarker is the copy-on-write form of SetMarker.
func WithMarker(s State, key, id string) State {
	c := s.Clone()
	c.SetMarker(key, id)
	return c
}

// Prune drops every entry whose age has reached retention. An entry
// exactly retention old is removed. Returns the new state and how many
// entries went away.
func Prune(s State, retention time.Duration, now time.Time) (State, int) {
	c := s.Clone()
	removed := 0
	for id, at := range c.Notified {
		if now.Sub(at) >= retention {
			delete(c.Notified, id)
			removed++
		}
	}
	return c, removed
}

// AddBlacklisted appends companies not already present. It returns the
// names actually added, in input order.
func (s *State) AddBlacklisted(companies ...string) []string {
	var added []string
	for _, c := range companies {
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(s.Blacklist, c) {
			continue
		}
		s.Blacklist = append(s.Blacklist, c)
		added = append(added, c)
	}
	return added
}

// RemoveBlacklisted removes companies that are present and returns those
// that were.
func (s *State) RemoveBlacklisted(companies ...string) []string {
	var removed []string
	for _, c := range companies {
		c = strings.TrimSpace(c)
		if i := slices.Index(s.Blacklist, c); i >= 0 {
			s.Blacklist = slices.Delete(s.Blacklist, i, i+1)
			removed = append(removed, c)
		}
	}
	return removed
}
