package domain

import (
	"net/url"
	"strings"
)

// Source kinds understood by the sources registry.
const (
	KindFeed  = "feed"
	KindBoard = "board"
)

// SourceConfig describes one listing to poll.
type SourceConfig struct {
	// Key identifies the source in the ledger's resume markers.
	// Defaults to URL.
	Key  string `yaml:"key"`
	URL  string `yaml:"url"`
	Note string `yaml:"note"`
	Kind string `yaml:"kind"`

	// Filtered sources run through the keyword filter.
	Filtered bool `yaml:"-"`

	// Resumable sources are newest-first and stable, so the previous
	// cycle's first identity can be used as a stop marker.
	Resumable bool `yaml:"resumable"`

	Selectors  Selectors  `yaml:"selectors"`
	Pagination Pagination `yaml:"pagination"`
}

// Selectors are CSS selectors for HTML board sources.
type Selectors struct {
	Card        string `yaml:"card"`
	Title       string `yaml:"title"`
	Company     string `yaml:"company"`
	Link        string `yaml:"link"`
	Posted      string `yaml:"posted"`
	Thumbnail   string `yaml:"thumbnail"`
	Description string `yaml:"description"`
}

type Pagination struct {
	Param    string `yaml:"param"`
	PageSize int    `yaml:"page_size"`
	MaxPages int    `yaml:"max_pages"`
}

// MarkerKey returns the key under which the source's resume marker is stored.
func (s SourceConfig) MarkerKey() string {
	if s.Key != "" {
		return s.Key
	}
	return s.URL
}

// Name is the display label used in notifications and metrics: the note
// when set, the URL's host otherwise.
func (s SourceConfig) Name() string {
	if n := strings.TrimSpace(s.Note); n != "" {
		return n
	}
	if u, err := url.Parse(s.URL); err == nil && u.Host != "" {
		return strings.TrimPrefix(u.Host, "www.")
	}
	return s.MarkerKey()
}

// Batch is what a source returns for a single fetch.
type Batch struct {
	Postings []Posting
	// FirstSeen is the identity of the first posting scanned, before any
	// filtering. Empty when the source had nothing.
	FirstSeen string
	// StoppedEarly is set when the scan hit the resume marker.
	StoppedEarly bool
	// Skipped counts items the source could not parse.
	Skipped int
}
