package filter

import (
	"sort"
	"strings"

	mapset "github.com/deckarep/golang-set/v2"
	"golang.org/x/text/cases"
)

// Blacklist is a set of company names whose postings are never forwarded.
type Blacklist struct {
	names mapset.Set[string]
	fold  bool
}

// NewBlacklist builds a blacklist. With fold set, names compare
// case-insensitively; otherwise the match is exact.
func NewBlacklist(companies []string, fold bool) *Blacklist {
	b := &Blacklist{
		names: mapset.NewThreadUnsafeSet[string](),
		fold:  fold,
	}
	for _, c := range companies {
		if c == "" {
			continue
		}
		b.names.Add(b.key(c))
	}
	return b
}

func (b *Blacklist) key(company string) string {
	if b.fold {
		return cases.Fold().String(strings.TrimSpace(company))
	}
	return company
}

// Contains reports whether company is blacklisted.
func (b *Blacklist) Contains(company string) bool {
	if b == nil || b.names.Cardinality() == 0 {
		return false
	}
	return b.names.Contains(b.key(company))
}

func (b *Blacklist) Len() int {
	if b == nil {
		return 0
	}
	return b.names.Cardinality()
}

// Names returns the stored keys, sorted.
func (b *Blacklist) Names() []string {
	if b == nil {
		return nil
	}
	out := b.names.ToSlice()
	sort.Strings(out)
	return out
}
