package domain

// Classification is the outcome for a posting within a cycle.
type Classification int

const (
	ClassNew Classification = iota
	ClassDuplicate
	ClassBlacklisted
	ClassFiltered
)

func (c Classification) String() string {
	switch c {
	case ClassNew:
		return "new"
	case ClassDuplicate:
		return "duplicate"
	case ClassBlacklisted:
		return "blacklisted"
	case ClassFiltered:
		return "filtered"
	default:
		return "unknown"
	}
}
