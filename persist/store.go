package persist

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/gekko3d/voxelverse/world"
)

// Store is the persistence collaborator. Load returns the decoded world and
// how many records were skipped; on ErrMalformed the world is empty.
type Store interface {
	Load(ctx context.Context) (world.World, int, error)
	Save(ctx context.Context, w world.World) error
	Close() error
}

const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
	DriverMemory = "memory"
)

// Open constructs a store for driver. path is ignored by the memory driver.
func Open(driver, path string) (Store, error) {
	switch driver {
	case "", DriverSQLite:
		return OpenSQLite(path)
	case DriverFile:
		return NewFileStore(path), nil
	case DriverMemory:
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown persistence driver %q", driver)
	}
}

// FileStore keeps the world in a single JSON file, replaced atomically on
// every save.
type FileStore struct {
	mu   sync.Mutex
	path string
}

func NewFileStore(path string) *FileStore {
	if path == "" {
		path = "voxelverse.json"
	}
	return &FileStore{path: path}
}

func (s *FileStore) Load(ctx context.Context) (world.World, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return world.World{}, 0, nil
	}
	if err != nil {
		return world.World{}, 0, fmt.Errorf("read %s: %w", s.path, err)
	}
	return Decode(data)
}

func (s *FileStore) Save(ctx context.Context, w world.World) error {
	data, err := Encode(w)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create dirs: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".voxelverse-*.json")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

func (s *FileStore) Close() error { return nil }

// MemoryStore holds the encoded world in memory.
type MemoryStore struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Load(ctx context.Context) (world.World, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Decode(s.data)
}

func (s *MemoryStore) Save(ctx context.Context, w world.World) error {
	data, err := Encode(w)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.saves++
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

// Raw returns the last saved bytes.
func (s *MemoryStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// SetRaw replaces the stored bytes, as if written by another process.
func (s *MemoryStore) SetRaw(data []byte) {
	s.mu.Lock()
	s.data = append([]byte(nil), data...)
	s.mu.Unlock()
}

// Saves counts successful Save calls.
func (s *MemoryStore) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}
