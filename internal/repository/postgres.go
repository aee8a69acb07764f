package repository

import (
	"context"
	"errors"
	"fmt"

	"worldforge/internal/domain"
	"worldforge/shared/models"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

const (
	getWorldQuery    = `SELECT id, data FROM worlds WHERE id = $1`
	listWorldsQuery  = `SELECT id, data FROM worlds ORDER BY updated_at DESC, id`
	deleteWorldQuery = `DELETE FROM worlds WHERE id = $1`
	upsertWorldQuery = `
        INSERT INTO worlds (id, name, data, created_at, updated_at)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (id) DO UPDATE SET
            name = EXCLUDED.name,
            data = EXCLUDED.data,
            updated_at = EXCLUDED.updated_at
    `
)

// DBTX is satisfied by *pgxpool.Pool, *pgx.Conn and pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...interface{}) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
}

type worldRow struct {
	ID   string `db:"id"`
	Data []byte `db:"data"`
}

var _ WorldRepository = (*pgWorldRepository)(nil)

type pgWorldRepository struct {
	db     DBTX
	logger *zap.Logger
}

// NewPgWorldRepository stores worlds as JSONB rows of the worlds table.
func NewPgWorldRepository(db DBTX, logger *zap.Logger) WorldRepository {
	return &pgWorldRepository{
		db:     db,
		logger: logger.Named("PgWorldRepo"),
	}
}

func (r *pgWorldRepository) Get(ctx context.Context, id domain.WorldID) (*domain.World, error) {
	log := r.logger.With(zap.String("worldID", id.String()))

	var row worldRow
	if err := pgxscan.Get(ctx, r.db, &row, getWorldQuery, string(id)); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Debug("World not found")
			return nil, fmt.Errorf("world %s: %w", id, models.ErrNotFound)
		}
		log.Error("Error getting world", zap.Error(err))
		return nil, fmt.Errorf("failed to get world %s: %w", id, err)
	}
	return decodeWorld(row.Data)
}

func (r *pgWorldRepository) Save(ctx context.Context, world *domain.World) error {
	log := r.logger.With(zap.String("worldID", world.ID.String()))

	data, err := encodeWorld(world)
	if err != nil {
		return err
	}
	if _, err := r.db.Exec(ctx, upsertWorldQuery,
		string(world.ID),
		world.Name,
		data,
		world.CreatedAt,
		world.UpdatedAt,
	); err != nil {
		log.Error("Error saving world", zap.Error(err))
		return fmt.Errorf("failed to save world %s: %w", world.ID, err)
	}
	log.Debug("World saved", zap.Int("bytes", len(data)))
	return nil
}

func (r *pgWorldRepository) Delete(ctx context.Context, id domain.WorldID) error {
	commandTag, err := r.db.Exec(ctx, deleteWorldQuery, string(id))
	if err != nil {
		r.logger.Error("Error deleting world", zap.String("worldID", id.String()), zap.Error(err))
		return fmt.Errorf("failed to delete world %s: %w", id, err)
	}
	if commandTag.RowsAffected() == 0 {
		return fmt.Errorf("world %s: %w", id, models.ErrNotFound)
	}
	return nil
}

func (r *pgWorldRepository) List(ctx context.Context) ([]*domain.World, error) {
	var rows []worldRow
	if err := pgxscan.Select(ctx, r.db, &rows, listWorldsQuery); err != nil {
		r.logger.Error("Error listing worlds", zap.Error(err))
		return nil, fmt.Errorf("failed to list worlds: %w", err)
	}
	worlds := make([]*domain.World, 0, len(rows))
	for _, row := range rows {
		w, err := decodeWorld(row.Data)
		if err != nil {
			return nil, fmt.Errorf("world %s: %w", row.ID, err)
		}
		worlds = append(worlds, w)
	}
	sortWorlds(worlds)
	return worlds, nil
}
