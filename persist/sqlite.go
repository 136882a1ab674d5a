package persist

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gekko3d/voxelverse/world"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

// slotKey names the single row holding the world.
const slotKey = "voxel-verse-data"

// SQLiteStore keeps the world as one JSON blob row, overwritten on every
// save.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

func OpenSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "voxelverse.db"
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS world_state (
		slot TEXT PRIMARY KEY,
		payload BLOB NOT NULL,
		updated_at TEXT NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create world_state table: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) Load(ctx context.Context) (world.World, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var payload []byte
	err := s.db.QueryRowContext(ctx, `SELECT payload FROM world_state WHERE slot = ?`, slotKey).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return world.World{}, 0, nil
	}
	if err != nil {
		return world.World{}, 0, fmt.Errorf("select world: %w", err)
	}
	return Decode(payload)
}

func (s *SQLiteStore) Save(ctx context.Context, w world.World) error {
	data, err := Encode(w)
	if err != nil {
		return fmt.Errorf("encode world: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO world_state(slot, payload, updated_at) VALUES(?,?,?)
		ON CONFLICT(slot) DO UPDATE SET payload=excluded.payload, updated_at=excluded.updated_at`,
		slotKey, data, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("upsert world: %w", err)
	}
	return nil
}
