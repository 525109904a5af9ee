package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"poster-shop/internal/util"
)

// Store owns a directory of named JSON documents, each a mapping from string
// keys to records. Saves are atomic (temp file + rename), so a concurrent
// reader never observes a partially written document. Every document has its
// own lock; operations on different documents never block each other.
type Store struct {
	dir string

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a document store rooted at dir, creating it if needed
func NewStore(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	return &Store{
		dir:   dir,
		locks: make(map[string]*sync.Mutex),
	}, nil
}

// Dir returns the directory the store writes to
func (s *Store) Dir() string {
	return s.dir
}

// lockFor returns the lock owning document name, creating it on first use
func (s *Store) lockFor(name string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[name]
	if !ok {
		l = &sync.Mutex{}
		s.locks[name] = l
	}
	return l
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

// readRaw returns the document bytes, or nil if it has never been written
func (s *Store) readRaw(name string) ([]byte, error) {
	data, err := os.ReadFile(s.path(name))
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read document %s: %w", name, err)
	}
	return data, nil
}

// writeRaw replaces the document contents. The bytes land in a temp file in
// the same directory first and are moved into place as the final step, so
// the rename is atomic on the filesystem level.
func (s *Store) writeRaw(name string, data []byte) error {
	start := time.Now()
	defer func() {
		util.DocumentSaveLatency.WithLabelValues(name).Observe(time.Since(start).Seconds())
	}()

	tmp, err := os.CreateTemp(s.dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file for %s: %w", name, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to write document %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("failed to sync document %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to close temp file for %s: %w", name, err)
	}

	if err := os.Rename(tmpName, s.path(name)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("failed to replace document %s: %w", name, err)
	}
	return nil
}

// Collection is a typed view over one document in a Store. All mutation goes
// through Update, which holds the document lock for the whole
// read-modify-write so concurrent updates cannot lose each other's writes.
type Collection[T any] struct {
	store *Store
	name  string
}

// NewCollection binds a typed collection to document name within store
func NewCollection[T any](store *Store, name string) *Collection[T] {
	return &Collection[T]{store: store, name: name}
}

// Name returns the underlying document name
func (c *Collection[T]) Name() string {
	return c.name
}

// Load returns the persisted mapping, or an empty one if the document has
// never been written
func (c *Collection[T]) Load(ctx context.Context) (map[string]T, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	lock := c.store.lockFor(c.name)
	lock.Lock()
	defer lock.Unlock()

	return c.load()
}

// Save persists the full mapping, replacing prior contents
func (c *Collection[T]) Save(ctx context.Context, m map[string]T) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := c.store.lockFor(c.name)
	lock.Lock()
	defer lock.Unlock()

	return c.save(m)
}

// Update runs fn inside the document lock with the current mapping and
// persists whatever fn leaves behind. If fn returns an error, nothing is
// written. The lock is held for the whole load-mutate-save unit; fn must not
// make external calls.
func (c *Collection[T]) Update(ctx context.Context, fn func(m map[string]T) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	lock := c.store.lockFor(c.name)
	lock.Lock()
	defer lock.Unlock()

	m, err := c.load()
	if err != nil {
		return err
	}
	if err := fn(m); err != nil {
		return err
	}
	return c.save(m)
}

// load and save assume the caller holds the document lock.

func (c *Collection[T]) load() (map[string]T, error) {
	data, err := c.store.readRaw(c.name)
	if err != nil {
		return nil, err
	}
	if data == nil {
		return make(map[string]T), nil
	}

	var m map[string]T
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to decode document %s: %w", c.name, err)
	}
	if m == nil {
		m = make(map[string]T)
	}
	return m, nil
}

func (c *Collection[T]) save(m map[string]T) error {
	// Two-space indent, no trailing newline: the exact layout of the
	// documents written by earlier versions of the shop, which existing
	// tooling reads directly.
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode document %s: %w", c.name, err)
	}
	return c.store.writeRaw(c.name, data)
}
