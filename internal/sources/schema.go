package sources

import "github.com/MrSnakeDoc/jobwatch/internal/domain"

// File is the layout of the sources YAML file. Unfiltered listings are
// polled first, then keyword-filtered ones, each in file order.
//
//	defaults:
//	  kind: board
//	  resumable: true
//	unfiltered:
//	  - url: https://example.com/jobs?q=golang
//	    note: Go roles
//	filtered:
//	  - url: https://example.com/feed.xml
//	    kind: feed
type File struct {
	Defaults   Defaults              `yaml:"defaults"`
	Unfiltered []domain.SourceConfig `yaml:"unfiltered"`
	Filtered   []domain.SourceConfig `yaml:"filtered"`
}

// Defaults fill fields left empty on individual entries.
type Defaults struct {
	Kind       string            `yaml:"kind"`
	Resumable  *bool             `yaml:"resumable"`
	Selectors  domain.Selectors  `yaml:"selectors"`
	Pagination domain.Pagination `yaml:"pagination"`
}
