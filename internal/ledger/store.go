package ledger

import "context"

// Store persists State snapshots.
//
// Load returns Empty() when nothing was ever saved and a *CorruptStateError
// when a snapshot exists but is unreadable. Save replaces the snapshot
// atomically: a reader sees either the old or the new document, never a mix.
// Update runs fn on a freshly loaded state and saves the result while
// holding whatever exclusion the backend offers.
type Store interface {
	Load(ctx context.Context) (State, error)
	Save(ctx context.Context, s State) error
	Update(ctx context.Context, fn func(*State) error) (State, error)
}
