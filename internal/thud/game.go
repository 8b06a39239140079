package thud

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/thud-backend/internal/entity"
)

const (
	DwarfValue = 1
	TrollValue = 4
)

// Move is one committed half-turn.
type Move struct {
	Start       entity.Position `json:"start"`
	Destination entity.Position `json:"destination"`
}

// Result is what a move submission returns. On the wire it is false, true or
// the list of captured positions.
type Result struct {
	OK       bool
	Captures []entity.Position
}

func (that Result) MarshalJSON() ([]byte, error) {
	if !that.OK {
		return []byte("false"), nil
	}

	if len(that.Captures) == 0 {
		return []byte("true"), nil
	}

	return json.Marshal(that.Captures)
}

func (that *Result) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch string(data) {
	case "false", "null":
		*that = Result{}
		return nil
	case "true":
		*that = Result{OK: true}
		return nil
	}

	var captures []entity.Position
	if err := json.Unmarshal(data, &captures); err != nil {
		return fmt.Errorf("failed to decode move result: %w", err)
	}

	*that = Result{OK: true, Captures: captures}

	return nil
}

// Option configures a Game.
type Option func(*Game)

// WithClock replaces time.Now as the source of access timestamps.
func WithClock(now func() time.Time) Option {
	return func(game *Game) {
		game.now = now
	}
}

// Game is one session: a board, the two players and the move history.
// Test-mode moves take the read lock, committing moves the write lock.
type Game struct {
	mu           sync.RWMutex
	id           string
	board        *entity.Board
	players      [2]entity.Player
	moves        []Move
	lastAccessed atomic.Int64
	now          func() time.Time

	// set once the registry drops the game; guarded by mu
	retired bool
}

// NewGame creates a session on a fresh board. Dwarves move first.
func NewGame(id string, dwarf, troll entity.Player, opts ...Option) *Game {
	dwarf.Faction = entity.KindDwarf
	troll.Faction = entity.KindTroll

	return newGame(id, entity.NewBoard(), [2]entity.Player{dwarf, troll}, nil, opts...)
}

func newGame(id string, board *entity.Board, players [2]entity.Player, moves []Move, opts ...Option) *Game {
	game := &Game{
		id:      id,
		board:   board,
		players: players,
		moves:   moves,
		now:     time.Now,
	}

	for _, opt := range opts {
		opt(game)
	}

	game.RecordAccess()

	return game
}

func (that *Game) ID() string {
	return that.id
}

func (that *Game) Players() [2]entity.Player {
	return that.players
}

// Player returns the player controlling faction.
func (that *Game) Player(faction entity.Kind) entity.Player {
	if faction == entity.KindTroll {
		return that.players[1]
	}

	return that.players[0]
}

// Turn is derived from the number of committed moves.
func (that *Game) Turn() entity.Kind {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.turn()
}

func (that *Game) turn() entity.Kind {
	if len(that.moves)%2 == 0 {
		return entity.KindDwarf
	}

	return entity.KindTroll
}

// ValidatePlayer reports whether token belongs to the player on turn and
// piece belongs to that player's faction.
func (that *Game) ValidatePlayer(token string, piece *entity.Piece) bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.validatePlayer(token, piece)
}

func (that *Game) validatePlayer(token string, piece *entity.Piece) bool {
	player := that.Player(that.turn())

	return player.Authenticate(token) && player.Controls(piece)
}

// ExecuteMove authenticates and validates a move, then applies it unless
// testMode is set. A failed move never changes state.
func (that *Game) ExecuteMove(token string, start, dest entity.Position, testMode bool) Result {
	if testMode {
		that.mu.RLock()
		defer that.mu.RUnlock()
	} else {
		that.mu.Lock()
		defer that.mu.Unlock()
	}

	if that.retired {
		return Result{}
	}

	that.RecordAccess()

	if that.isOver() {
		return Result{}
	}

	piece, ok := that.board.GetPiece(start)
	if !ok || !that.validatePlayer(token, piece) {
		return Result{}
	}

	outcome := ValidateMove(that.board, start, dest)
	if !outcome.Legal {
		return Result{}
	}

	if testMode {
		return Result{OK: true, Captures: outcome.Captures}
	}

	for _, pos := range outcome.Captures {
		if captured, found := that.board.GetPiece(pos); found {
			that.board.CapturePiece(captured)
		}
	}

	that.board.MovePieceOnBoard(piece, dest)
	that.StoreMove(start, dest)

	return Result{OK: true, Captures: outcome.Captures}
}

// Retire stops the game from accepting moves. It is called once the game has
// left the registry so a move racing the removal cannot be committed and lost.
func (that *Game) Retire() {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.retired = true
}

// RetireIfIdle retires the game when it has not been touched since cutoff.
func (that *Game) RetireIfIdle(cutoff time.Time) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if !that.LastAccessed().Before(cutoff) {
		return false
	}

	that.retired = true

	return true
}

func (that *Game) IsRetired() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.retired
}

// StoreMove appends to the history. Callers hold the write lock.
func (that *Game) StoreMove(start, dest entity.Position) {
	that.moves = append(that.moves, Move{Start: start, Destination: dest})
}

func (that *Game) RecordAccess() {
	that.lastAccessed.Store(that.now().UnixNano())
}

func (that *Game) LastAccessed() time.Time {
	return time.Unix(0, that.lastAccessed.Load())
}

func (that *Game) Moves() []Move {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return append([]Move(nil), that.moves...)
}

// IsOver reports whether one side has no live pieces left.
func (that *Game) IsOver() bool {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.isOver()
}

func (that *Game) isOver() bool {
	return that.board.LiveUnits(entity.KindDwarf) == 0 || that.board.LiveUnits(entity.KindTroll) == 0
}

// Winner returns the faction still on the board once the game is over.
func (that *Game) Winner() (entity.Kind, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	if !that.isOver() {
		return "", false
	}

	if that.board.LiveUnits(entity.KindDwarf) > 0 {
		return entity.KindDwarf, true
	}

	return entity.KindTroll, true
}

// Score counts the live pieces of each side by their standard values.
func (that *Game) Score() (int, int) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.board.LiveUnits(entity.KindDwarf) * DwarfValue, that.board.LiveUnits(entity.KindTroll) * TrollValue
}

func (that *Game) Report() []entity.SquareReport {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return that.board.Report()
}

// Record summarizes the session for the archive.
func (that *Game) Record() entity.GameRecord {
	dwarfScore, trollScore := that.Score()

	record := entity.GameRecord{
		ID:          that.id,
		DwarfPlayer: that.players[0].Name,
		TrollPlayer: that.players[1].Name,
		Status:      entity.StatusOngoing,
		Winner:      entity.WinnerNone,
		DwarfScore:  dwarfScore,
		TrollScore:  trollScore,
		Moves:       len(that.Moves()),
		EndedAt:     that.now().UTC(),
	}

	if winner, over := that.Winner(); over {
		record.Status = entity.StatusFinished
		record.Winner = string(winner)
	}

	return record
}
