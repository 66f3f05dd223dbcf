package ledger

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

const lockRetryDelay = 50 * time.Millisecond

// FileStore keeps the ledger as a single JSON file. Writes go to a temp
// file in the same directory which is then renamed over the target.
type FileStore struct {
	path string
	lock *flock.Flock
	now  func() time.Time

	// beforeRename lets tests simulate a crash between write and rename.
	beforeRename func(tmp string) error
}

func NewFileStore(path string) *FileStore {
	return &FileStore{
		path: path,
		lock: flock.New(path + ".lock"),
		now:  time.Now,
	}
}

func (f *FileStore) Path() string { return f.path }

func (f *FileStore) Load(ctx context.Context) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}

	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Empty(), nil
		}
		return State{}, fmt.Errorf("failed to read ledger: %w", err)
	}

	st, err := Decode(data, f.now())
	if err != nil {
		return State{}, &CorruptStateError{Location: f.path, Err: err}
	}
	return st, nil
}

func (f *FileStore) Save(ctx context.Context, s State) error {
	if err := f.acquire(ctx); err != nil {
		return err
	}
	defer func() { _ = f.lock.Unlock() }()

	return f.write(s)
}

func (f *FileStore) Update(ctx context.Context, fn func(*State) error) (State, error) {
	if err := f.acquire(ctx); err != nil {
		return State{}, err
	}
	defer func() { _ = f.lock.Unlock() }()

	st, err := f.Load(ctx)
	if err != nil {
		return State{}, err
	}
	if err := fn(&st); err != nil {
		return State{}, err
	}
	if err := f.write(st); err != nil {
		return State{}, err
	}
	return st, nil
}

func (f *FileStore) acquire(ctx context.Context) error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create ledger directory: %w", err)
	}
	ok, err := f.lock.TryLockContext(ctx, lockRetryDelay)
	if err != nil {
		return fmt.Errorf("failed to lock ledger: %w", err)
	}
	if !ok {
		return fmt.Errorf("failed to lock ledger: %s busy", f.lock.Path())
	}
	return nil
}

func (f *FileStore) write(s State) (err error) {
	data, err := Encode(s)
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpName)
		}
	}()

	if _, err = tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}

	if f.beforeRename != nil {
		if err = f.beforeRename(tmpName); err != nil {
			return err
		}
	}

	if err = os.Rename(tmpName, f.path); err != nil {
		return fmt.Errorf("failed to replace ledger: %w", err)
	}

	syncDir(dir)
	return nil
}

// syncDir flushes the rename to disk. Not every platform allows fsync on a
// directory, so failures are ignored.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}
