// Package filter decides which postings are worth forwarding: keyword
// include/exclude matching and the company blacklist.
package filter

import (
	"strings"

	"github.com/cloudflare/ahocorasick"
)

// EmptyIncludeMode controls what an empty include list means.
type EmptyIncludeMode int

const (
	// EmptyIncludeAccept lets every non-excluded text through.
	EmptyIncludeAccept EmptyIncludeMode = iota
	// EmptyIncludeReject drops everything when no include term is configured.
	EmptyIncludeReject
)

// ParseEmptyIncludeMode maps "accept"/"reject" to a mode. Anything else is accept.
func ParseEmptyIncludeMode(s string) EmptyIncludeMode {
	if strings.EqualFold(strings.TrimSpace(s), "reject") {
		return EmptyIncludeReject
	}
	return EmptyIncludeAccept
}

// Matcher is a compiled include/exclude keyword filter. Matching is
// case-insensitive substring containment, so "net" hits "internet".
// A Matcher is immutable and safe for concurrent use.
type Matcher struct {
	include    *ahocorasick.Matcher
	exclude    *ahocorasick.Matcher
	hasInclude bool
	mode       EmptyIncludeMode
}

func NewMatcher(include, exclude []string, mode EmptyIncludeMode) *Matcher {
	inc := normalizeTerms(include)
	exc := normalizeTerms(exclude)

	m := &Matcher{mode: mode, hasInclude: len(inc) > 0}
	if len(inc) > 0 {
		m.include = ahocorasick.NewStringMatcher(inc)
	}
	if len(exc) > 0 {
		m.exclude = ahocorasick.NewStringMatcher(exc)
	}
	return m
}

// Matches reports whether text passes the filter. Exclude terms win over
// include terms.
func (m *Matcher) Matches(text string) bool {
	if m == nil {
		return true
	}
	lower := []byte(strings.ToLower(text))

	if m.exclude != nil && len(m.exclude.Match(lower)) > 0 {
		return false
	}
	if !m.hasInclude {
		return m.mode == EmptyIncludeAccept
	}
	return len(m.include.Match(lower)) > 0
}

// Matches is the one-shot form of Matcher.Matches with the default
// (permissive) empty-include behaviour.
func Matches(text string, include, exclude []string) bool {
	return NewMatcher(include, exclude, EmptyIncludeAccept).Matches(text)
}

func normalizeTerms(terms []string) []string {
	out := make([]string, 0, len(terms))
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}
