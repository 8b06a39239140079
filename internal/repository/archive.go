package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
	"github.com/rocketscienceinc/thud-backend/internal/entity"
)

// ArchiveRepository stores ended sessions.
type ArchiveRepository interface {
	Create(ctx context.Context, record entity.GameRecord) error
	GetByID(ctx context.Context, id string) (entity.GameRecord, error)
	ListByPlayer(ctx context.Context, name string) ([]entity.GameRecord, error)
}

type dbArchive struct {
	db *sql.DB
}

func NewArchiveRepository(db *sql.DB) ArchiveRepository {
	return &dbArchive{
		db: db,
	}
}

const archiveColumns = `id, dwarf_player, troll_player, status, winner, dwarf_score, troll_score, moves, ended_at`

func (that *dbArchive) Create(ctx context.Context, record entity.GameRecord) error {
	query := `INSERT INTO games (` + archiveColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := that.db.ExecContext(ctx, query,
		record.ID,
		record.DwarfPlayer,
		record.TrollPlayer,
		record.Status,
		record.Winner,
		record.DwarfScore,
		record.TrollScore,
		record.Moves,
		record.EndedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert game record: %w", err)
	}

	return nil
}

// GetByID returns the latest record archived under id.
func (that *dbArchive) GetByID(ctx context.Context, id string) (entity.GameRecord, error) {
	query := `SELECT ` + archiveColumns + ` FROM games WHERE id = ? ORDER BY seq DESC LIMIT 1`

	record, err := scanRecord(that.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return entity.GameRecord{}, apperror.ErrNotFound
	}

	if err != nil {
		return entity.GameRecord{}, fmt.Errorf("failed to get game record: %w", err)
	}

	return record, nil
}

// ListByPlayer returns the player's games, newest first.
func (that *dbArchive) ListByPlayer(ctx context.Context, name string) ([]entity.GameRecord, error) {
	query := `SELECT ` + archiveColumns + ` FROM games WHERE dwarf_player = ? OR troll_player = ? ORDER BY seq DESC`

	rows, err := that.db.QueryContext(ctx, query, name, name)
	if err != nil {
		return nil, fmt.Errorf("failed to list game records: %w", err)
	}
	defer rows.Close()

	var records []entity.GameRecord
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game record: %w", err)
		}

		records = append(records, record)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game records: %w", err)
	}

	return records, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (entity.GameRecord, error) {
	var (
		record  entity.GameRecord
		endedAt int64
	)

	err := row.Scan(
		&record.ID,
		&record.DwarfPlayer,
		&record.TrollPlayer,
		&record.Status,
		&record.Winner,
		&record.DwarfScore,
		&record.TrollScore,
		&record.Moves,
		&endedAt,
	)
	if err != nil {
		return entity.GameRecord{}, err //nolint: wrapcheck // wrapped by callers
	}

	record.EndedAt = time.UnixMilli(endedAt).UTC()

	return record, nil
}
