package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
)

type sessionStarter interface {
	StartSession(ctx context.Context, playerOne, playerTwo string) (SessionStart, error)
}

// Lobby holds players waiting for an opponent.
type Lobby struct {
	logger  *slog.Logger
	starter sessionStarter

	mu      sync.Mutex
	waiting map[string]struct{}
}

func NewLobby(logger *slog.Logger, starter sessionStarter) *Lobby {
	return &Lobby{
		logger:  logger,
		starter: starter,
		waiting: make(map[string]struct{}),
	}
}

// Join adds name to the lobby and returns the other waiting players.
func (that *Lobby) Join(name string) ([]string, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: empty player name", apperror.ErrMalformedRequest)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.waiting[name]; ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrDuplicatePlayer, name)
	}

	others := that.names()
	that.waiting[name] = struct{}{}

	that.logger.Debug("player joined lobby", "method", "Join", "player", name)

	return others, nil
}

func (that *Lobby) Leave(name string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	delete(that.waiting, name)
}

// Waiting lists the waiting players in name order.
func (that *Lobby) Waiting() []string {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.names()
}

// Pair takes both players out of the lobby and starts a session where name
// plays the dwarves.
func (that *Lobby) Pair(ctx context.Context, name, opponent string) (SessionStart, error) {
	log := that.logger.With("method", "Pair")

	if name == opponent {
		return SessionStart{}, fmt.Errorf("%w: cannot challenge yourself", apperror.ErrMalformedRequest)
	}

	that.mu.Lock()
	for _, player := range []string{name, opponent} {
		if _, ok := that.waiting[player]; !ok {
			that.mu.Unlock()
			return SessionStart{}, fmt.Errorf("%w: %s", apperror.ErrPlayerNotWaiting, player)
		}
	}

	delete(that.waiting, name)
	delete(that.waiting, opponent)
	that.mu.Unlock()

	start, err := that.starter.StartSession(ctx, name, opponent)
	if err != nil {
		that.mu.Lock()
		that.waiting[name] = struct{}{}
		that.waiting[opponent] = struct{}{}
		that.mu.Unlock()

		return SessionStart{}, fmt.Errorf("failed to start session: %w", err)
	}

	log.Info("players paired", "game", start.GameID)

	return start, nil
}

func (that *Lobby) names() []string {
	names := make([]string, 0, len(that.waiting))
	for name := range that.waiting {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
