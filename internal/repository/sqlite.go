package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"worldforge/internal/domain"
	"worldforge/shared/models"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS worlds (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		data TEXT NOT NULL,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`
	sqliteGetWorld    = `SELECT data FROM worlds WHERE id = ?`
	sqliteListWorlds  = `SELECT id, data FROM worlds`
	sqliteDeleteWorld = `DELETE FROM worlds WHERE id = ?`
	sqliteUpsertWorld = `INSERT INTO worlds (id, name, data, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			data = excluded.data,
			updated_at = excluded.updated_at`
)

var _ WorldRepository = (*SQLiteWorldRepository)(nil)

// SQLiteWorldRepository stores worlds in a single-file database.
type SQLiteWorldRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLiteWorldRepository opens (creating if needed) the database at path.
// ":memory:" gives a private in-memory database.
func OpenSQLiteWorldRepository(path string, logger *zap.Logger) (*SQLiteWorldRepository, error) {
	if path == "" {
		return nil, fmt.Errorf("empty sqlite path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create sqlite directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	// One connection: writes are serialized and ":memory:" stays one database.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", p, err)
		}
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create sqlite schema: %w", err)
	}

	logger = logger.Named("SQLiteWorldRepo")
	logger.Info("SQLite world store opened", zap.String("path", path))
	return &SQLiteWorldRepository{db: db, logger: logger}, nil
}

// Close closes the database.
func (r *SQLiteWorldRepository) Close() error {
	return r.db.Close()
}

func (r *SQLiteWorldRepository) Get(ctx context.Context, id domain.WorldID) (*domain.World, error) {
	var data string
	err := r.db.QueryRowContext(ctx, sqliteGetWorld, string(id)).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("world %s: %w", id, models.ErrNotFound)
		}
		r.logger.Error("Error getting world", zap.String("worldID", id.String()), zap.Error(err))
		return nil, fmt.Errorf("failed to get world %s: %w", id, err)
	}
	return decodeWorld([]byte(data))
}

func (r *SQLiteWorldRepository) Save(ctx context.Context, world *domain.World) error {
	data, err := encodeWorld(world)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx, sqliteUpsertWorld,
		string(world.ID),
		world.Name,
		string(data),
		world.CreatedAt.UTC().Format(time.RFC3339Nano),
		world.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		r.logger.Error("Error saving world", zap.String("worldID", world.ID.String()), zap.Error(err))
		return fmt.Errorf("failed to save world %s: %w", world.ID, err)
	}
	return nil
}

func (r *SQLiteWorldRepository) Delete(ctx context.Context, id domain.WorldID) error {
	res, err := r.db.ExecContext(ctx, sqliteDeleteWorld, string(id))
	if err != nil {
		return fmt.Errorf("failed to delete world %s: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete world %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("world %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *SQLiteWorldRepository) List(ctx context.Context) ([]*domain.World, error) {
	rows, err := r.db.QueryContext(ctx, sqliteListWorlds)
	if err != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	defer rows.Close()

	worlds := []*domain.World{}
	for rows.Next() {
		var id, data string
		if err := rows.Scan(&id, &data); err != nil {
			return nil, fmt.Errorf("failed to scan world: %w", err)
		}
		w, err := decodeWorld([]byte(data))
		if err != nil {
			return nil, fmt.Errorf("world %s: %w", id, err)
		}
		worlds = append(worlds, w)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	sortWorlds(worlds)
	return worlds, nil
}
