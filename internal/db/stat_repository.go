package db

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/udisondev/statengine/internal/stat"
)

// StatRepository persists base scalars per owner in stat_scalars.
// Rows are keyed by the kind's schema name (stat.Kind.String), so the
// column stays readable and survives reordering of the Go enumeration.
// Modifiers are never stored: they are re-applied by gameplay on load.
type StatRepository struct {
	db *pgxpool.Pool
}

// NewStatRepository creates a new StatRepository.
func NewStatRepository(db *pgxpool.Pool) *StatRepository {
	return &StatRepository{db: db}
}

// Load returns the persisted base scalars of an owner.
// Rows whose kind is no longer known are skipped with a warning.
func (r *StatRepository) Load(ctx context.Context, ownerID int64) (map[stat.Kind]float64, error) {
	query := `
		SELECT kind, scalar
		FROM stat_scalars
		WHERE owner_id = $1
		ORDER BY kind
	`

	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying stat scalars for owner %d: %w", ownerID, err)
	}
	defer rows.Close()

	scalars := make(map[stat.Kind]float64)
	for rows.Next() {
		var (
			name   string
			scalar float64
		)
		if err := rows.Scan(&name, &scalar); err != nil {
			return nil, fmt.Errorf("scanning stat scalar row: %w", err)
		}
		kind, err := stat.ParseKind(name)
		if err != nil {
			slog.Warn("skipping unknown stat kind", "ownerID", ownerID, "kind", name)
			continue
		}
		scalars[kind] = scalar
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating stat scalar rows: %w", err)
	}

	return scalars, nil
}

// SaveTx replaces every scalar of the owner within an existing transaction.
func (r *StatRepository) SaveTx(ctx context.Context, tx pgx.Tx, ownerID int64, snapshots []stat.Snapshot) error {
	if _, err := tx.Exec(ctx, `DELETE FROM stat_scalars WHERE owner_id = $1`, ownerID); err != nil {
		return fmt.Errorf("deleting existing stat scalars: %w", err)
	}

	batch := &pgx.Batch{}
	for _, s := range snapshots {
		batch.Queue(
			`INSERT INTO stat_scalars (owner_id, kind, scalar) VALUES ($1, $2, $3)`,
			ownerID, s.Kind.String(), s.Scalar,
		)
	}
	if batch.Len() == 0 {
		return nil
	}

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("inserting stat scalars: %w", err)
	}
	return nil
}

// Save replaces every scalar of the owner using a standalone transaction.
func (r *StatRepository) Save(ctx context.Context, ownerID int64, snapshots []stat.Snapshot) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			slog.Error("stat scalar rollback failed", "ownerID", ownerID, "error", err)
		}
	}()

	if err := r.SaveTx(ctx, tx, ownerID, snapshots); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing stat scalars for owner %d: %w", ownerID, err)
	}

	slog.Debug("stat scalars saved", "ownerID", ownerID, "count", len(snapshots))
	return nil
}

// SaveRegistry persists the scalars of every stat the registry owns.
func (r *StatRepository) SaveRegistry(ctx context.Context, ownerID int64, reg *stat.Registry) error {
	return r.Save(ctx, ownerID, reg.Snapshot())
}

// ApplyTo loads the owner's scalars and sets them on reg.
// Returns the number of scalars applied.
func (r *StatRepository) ApplyTo(ctx context.Context, ownerID int64, reg *stat.Registry) (int, error) {
	scalars, err := r.Load(ctx, ownerID)
	if err != nil {
		return 0, err
	}
	for _, kind := range stat.Kinds() {
		if v, ok := scalars[kind]; ok {
			reg.SetBaseScalar(kind, v)
		}
	}
	return len(scalars), nil
}
