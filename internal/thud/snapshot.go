package thud

import (
	"fmt"
	"slices"
	"time"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
	"github.com/rocketscienceinc/thud-backend/internal/entity"
)

// PieceRecord is the persisted form of a piece.
type PieceRecord struct {
	Kind   entity.Kind       `json:"kind"`
	Moves  []entity.Position `json:"move_history"`
	Status entity.Status     `json:"status"`
	X      int               `json:"x"`
	Y      int               `json:"y"`
}

// Snapshot is everything needed to rebuild a session.
type Snapshot struct {
	ID           string                `json:"id"`
	Players      [2]entity.Player      `json:"players"`
	LastAccessed time.Time             `json:"last_accessed"`
	Moves        []Move                `json:"moves"`
	Pieces       map[int]PieceRecord   `json:"pieces"`
	Board        []entity.SquareReport `json:"board"`
}

func (that *Game) Snapshot() Snapshot {
	that.mu.RLock()
	defer that.mu.RUnlock()

	pieces := make(map[int]PieceRecord, len(that.board.Units()))
	for _, piece := range that.board.Units() {
		pieces[piece.ID] = PieceRecord{
			Kind:   piece.Kind,
			Moves:  append([]entity.Position(nil), piece.Moves...),
			Status: piece.Status,
			X:      piece.Position.X,
			Y:      piece.Position.Y,
		}
	}

	return Snapshot{
		ID:           that.id,
		Players:      that.players,
		LastAccessed: that.LastAccessed().UTC(),
		Moves:        append([]Move(nil), that.moves...),
		Pieces:       pieces,
		Board:        that.board.Report(),
	}
}

// Restore rebuilds a session from a snapshot. The saved board report, when
// present, must match the board rebuilt from the pieces.
func Restore(snapshot Snapshot, opts ...Option) (*Game, error) {
	if snapshot.ID == "" {
		return nil, fmt.Errorf("%w: empty id", apperror.ErrCorruptSnapshot)
	}

	if snapshot.Players[0].Faction != entity.KindDwarf || snapshot.Players[1].Faction != entity.KindTroll {
		return nil, fmt.Errorf("%w: unexpected player factions", apperror.ErrCorruptSnapshot)
	}

	pieces := make([]entity.Piece, 0, len(snapshot.Pieces))
	for id, record := range snapshot.Pieces {
		if record.Kind != entity.KindDwarf && record.Kind != entity.KindTroll {
			return nil, fmt.Errorf("%w: piece %d has kind %q", apperror.ErrCorruptSnapshot, id, record.Kind)
		}

		pieces = append(pieces, entity.Piece{
			ID:       id,
			Kind:     record.Kind,
			Position: entity.NewPosition(record.X, record.Y),
			Status:   record.Status,
			Moves:    record.Moves,
		})
	}

	board := entity.NewEmptyBoard()
	if err := board.RestorePieces(pieces); err != nil {
		return nil, fmt.Errorf("%w: %w", apperror.ErrCorruptSnapshot, err)
	}

	if len(snapshot.Board) > 0 && !slices.Equal(snapshot.Board, board.Report()) {
		return nil, fmt.Errorf("%w: board report does not match pieces", apperror.ErrCorruptSnapshot)
	}

	game := newGame(snapshot.ID, board, snapshot.Players, append([]Move(nil), snapshot.Moves...), opts...)
	if !snapshot.LastAccessed.IsZero() {
		game.lastAccessed.Store(snapshot.LastAccessed.UnixNano())
	}

	return game, nil
}
