package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
	"github.com/rocketscienceinc/thud-backend/internal/entity"
	"github.com/rocketscienceinc/thud-backend/internal/pkg"
	"github.com/rocketscienceinc/thud-backend/internal/thud"
)

type gameRepo interface {
	CreateOrUpdate(ctx context.Context, snapshot thud.Snapshot) error
	GetByID(ctx context.Context, id string) (thud.Snapshot, error)
	DeleteByID(ctx context.Context, id string) error
}

type archiveRepo interface {
	Create(ctx context.Context, record entity.GameRecord) error
}

// SessionStart is handed to both players when a session begins.
type SessionStart struct {
	GameID    string                `json:"game"`
	PlayerOne string                `json:"player_one"`
	PlayerTwo string                `json:"player_two"`
	Board     []entity.SquareReport `json:"board"`
}

// GameManager keeps the live sessions. Each game guards its own state, the
// manager only guards the map.
type GameManager struct {
	logger      *slog.Logger
	gameRepo    gameRepo
	archiveRepo archiveRepo

	mu      sync.RWMutex
	games   map[string]*thud.Game
	issued  map[string]struct{}
	counter atomic.Int64
	now     func() time.Time
}

func NewGameManager(logger *slog.Logger, gameRepo gameRepo, archiveRepo archiveRepo) *GameManager {
	return &GameManager{
		logger: logger,

		gameRepo:    gameRepo,
		archiveRepo: archiveRepo,

		games:  make(map[string]*thud.Game),
		issued: make(map[string]struct{}),
		now:    time.Now,
	}
}

// StartSession creates a game where playerOne plays the dwarves. Ids are never
// reused: an id issued earlier or held by a saved snapshot gets a suffix.
func (that *GameManager) StartSession(ctx context.Context, playerOne, playerTwo string) (SessionStart, error) {
	log := that.logger.With("method", "StartSession")

	if playerOne == "" || playerTwo == "" {
		return SessionStart{}, fmt.Errorf("%w: both player names are required", apperror.ErrMalformedRequest)
	}

	if playerOne == playerTwo {
		return SessionStart{}, fmt.Errorf("%w: players must differ", apperror.ErrMalformedRequest)
	}

	dwarf := entity.NewPlayer(playerOne, pkg.GenerateToken(), entity.KindDwarf)
	troll := entity.NewPlayer(playerTwo, pkg.GenerateToken(), entity.KindTroll)

	that.mu.Lock()
	defer that.mu.Unlock()

	id := pkg.GenerateSessionID(playerOne, playerTwo, 0)
	for {
		taken, err := that.idTaken(ctx, id)
		if err != nil {
			return SessionStart{}, err
		}

		if !taken {
			break
		}

		id = pkg.GenerateSessionID(playerOne, playerTwo, that.counter.Add(1))
	}

	game := thud.NewGame(id, dwarf, troll, thud.WithClock(that.now))
	that.games[id] = game
	that.issued[id] = struct{}{}

	log.Info("session started", "game", id, "dwarf", playerOne, "troll", playerTwo)

	return SessionStart{
		GameID:    id,
		PlayerOne: dwarf.Token,
		PlayerTwo: troll.Token,
		Board:     game.Report(),
	}, nil
}

// idTaken reports whether id is live, was issued before, or has a saved
// snapshot. Callers hold the write lock.
func (that *GameManager) idTaken(ctx context.Context, id string) (bool, error) {
	if _, ok := that.issued[id]; ok {
		return true, nil
	}

	if _, ok := that.games[id]; ok {
		return true, nil
	}

	_, err := that.gameRepo.GetByID(ctx, id)
	switch {
	case err == nil, errors.Is(err, apperror.ErrCorruptSnapshot):
		return true, nil
	case errors.Is(err, apperror.ErrGameNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("failed to check game id: %w", err)
	}
}

// SubmitMove forwards a move to the session. An unknown session is an
// ordinary illegal move.
func (that *GameManager) SubmitMove(
	ctx context.Context, id, token string, start, dest entity.Position, testMode bool,
) (thud.Result, error) {
	if err := ctx.Err(); err != nil {
		return thud.Result{}, fmt.Errorf("failed to submit move: %w", err)
	}

	game, ok := that.getGame(id)
	if !ok {
		return thud.Result{}, nil
	}

	result := game.ExecuteMove(token, start, dest, testMode)

	if !result.OK && game.IsOver() {
		that.logger.Debug("move rejected", "method", "SubmitMove", "game", id, "error", apperror.ErrGameFinished)
	}

	if result.OK && !testMode {
		that.logger.Info("move committed",
			"method", "SubmitMove",
			"game", id,
			"start", start.String(),
			"destination", dest.String(),
			"captures", len(result.Captures),
		)
	}

	return result, nil
}

// EndSession archives and forgets a session. Both players must present their tokens.
func (that *GameManager) EndSession(ctx context.Context, id, tokenOne, tokenTwo string) bool {
	log := that.logger.With("method", "EndSession")

	game, ok := that.getGame(id)
	if !ok {
		return false
	}

	players := game.Players()
	if !authenticatedPair(players, tokenOne, tokenTwo) {
		return false
	}

	that.mu.Lock()
	if that.games[id] != game {
		that.mu.Unlock()
		return false
	}
	delete(that.games, id)
	that.mu.Unlock()

	game.Retire()

	if err := that.archiveRepo.Create(ctx, game.Record()); err != nil {
		log.Error("failed to archive game", "game", id, "error", err)
	}

	if err := that.gameRepo.DeleteByID(ctx, id); err != nil && !errors.Is(err, apperror.ErrGameNotFound) {
		log.Error("failed to delete snapshot", "game", id, "error", err)
	}

	log.Info("session ended", "game", id)

	return true
}

func authenticatedPair(players [2]entity.Player, tokenOne, tokenTwo string) bool {
	if players[0].Authenticate(tokenOne) && players[1].Authenticate(tokenTwo) {
		return true
	}

	return players[0].Authenticate(tokenTwo) && players[1].Authenticate(tokenOne)
}

func (that *GameManager) ReportState(_ context.Context, id string) ([]entity.SquareReport, error) {
	game, ok := that.getGame(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	return game.Report(), nil
}

// SaveSession stores a snapshot of a live session.
func (that *GameManager) SaveSession(ctx context.Context, id string) error {
	game, ok := that.getGame(id)
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrGameNotFound, id)
	}

	if err := that.gameRepo.CreateOrUpdate(ctx, game.Snapshot()); err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	return nil
}

// LoadSession restores a session from its snapshot, replacing any live copy of
// the same match. A live game of other players under that id is left alone.
func (that *GameManager) LoadSession(ctx context.Context, id string) error {
	log := that.logger.With("method", "LoadSession")

	snapshot, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get game: %w", err)
	}

	game, err := thud.Restore(snapshot, thud.WithClock(that.now))
	if err != nil {
		return fmt.Errorf("failed to restore game: %w", err)
	}

	that.mu.Lock()
	if live, ok := that.games[id]; ok {
		if !samePlayers(live.Players(), snapshot.Players) {
			that.mu.Unlock()
			return fmt.Errorf("%w: %s is held by other players", apperror.ErrGameAlreadyExists, id)
		}

		live.Retire()
	}

	that.games[id] = game
	that.issued[id] = struct{}{}
	that.mu.Unlock()

	log.Info("session loaded", "game", id, "moves", len(snapshot.Moves))

	return nil
}

func samePlayers(a, b [2]entity.Player) bool {
	return a[0].Name == b[0].Name && a[0].Token == b[0].Token &&
		a[1].Name == b[1].Name && a[1].Token == b[1].Token
}

// Sweep saves and evicts sessions idle for longer than idle. It returns the
// evicted ids.
func (that *GameManager) Sweep(ctx context.Context, idle time.Duration) []string {
	log := that.logger.With("method", "Sweep")

	now := that.now()

	that.mu.RLock()
	var stale []*thud.Game
	for _, game := range that.games {
		if now.Sub(game.LastAccessed()) > idle {
			stale = append(stale, game)
		}
	}
	that.mu.RUnlock()

	var evicted []string
	for _, game := range stale {
		if err := that.gameRepo.CreateOrUpdate(ctx, game.Snapshot()); err != nil {
			log.Error("failed to save idle game", "game", game.ID(), "error", err)
			continue
		}

		that.mu.Lock()
		// a move that landed after the snapshot keeps the game live
		if that.games[game.ID()] == game && game.RetireIfIdle(now.Add(-idle)) {
			delete(that.games, game.ID())
			evicted = append(evicted, game.ID())
		}
		that.mu.Unlock()
	}

	if len(evicted) > 0 {
		log.Info("idle sessions evicted", "count", len(evicted))
	}

	return evicted
}

// RunSweeper calls Sweep every interval until ctx is done.
func (that *GameManager) RunSweeper(ctx context.Context, interval, idle time.Duration) {
	if interval <= 0 || idle <= 0 {
		that.logger.Warn("session sweeper disabled", "interval", interval, "idle", idle)
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			that.Sweep(ctx, idle)
		}
	}
}

// Sessions returns the number of live sessions.
func (that *GameManager) Sessions() int {
	that.mu.RLock()
	defer that.mu.RUnlock()

	return len(that.games)
}

func (that *GameManager) getGame(id string) (*thud.Game, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	game, ok := that.games[id]

	return game, ok
}
