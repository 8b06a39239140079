package websocket

import (
	"context"
	"fmt"
	"slices"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
	"github.com/rocketscienceinc/thud-backend/internal/usecase"
)

// handleChallenge pairs the sender with a waiting opponent. Each player
// receives the start event with only their own token filled in.
func (that *Server) handleChallenge(ctx context.Context, sender *client, message *Message) error {
	log := that.logger.With("method", "handleChallenge", "player", sender.name)

	if message.Opponent == "" {
		return fmt.Errorf("%w: opponent is required", apperror.ErrMalformedRequest)
	}

	start, err := that.lobby.Pair(ctx, sender.name, message.Opponent)
	if err != nil {
		return fmt.Errorf("failed to pair players: %w", err)
	}

	that.connectionsMutex.Lock()
	that.matches[start.GameID] = [2]string{sender.name, message.Opponent}
	that.connectionsMutex.Unlock()

	log.Info("match started", "game", start.GameID, "opponent", message.Opponent)

	dwarfView := start
	dwarfView.PlayerTwo = ""

	trollView := start
	trollView.PlayerOne = ""

	views := map[string]usecase.SessionStart{
		sender.name:      dwarfView,
		message.Opponent: trollView,
	}

	for name, view := range views {
		conn, ok := that.connection(name)
		if !ok {
			log.Warn("player left before the match started", "game", start.GameID, "missing", name)
			continue
		}

		if err = conn.send(eventStart, view); err != nil {
			log.Error("failed to send start event", "to", name, "error", err)
		}
	}

	that.broadcastLobby("")

	return nil
}

// handleMove submits a move. Committed legal moves from one of the matched
// players are pushed to both of them together with the new board; everything
// else only answers the sender.
func (that *Server) handleMove(ctx context.Context, sender *client, message *Message) error {
	switch {
	case message.Game == "":
		return fmt.Errorf("%w: game is required", apperror.ErrMalformedRequest)
	case message.Player == "":
		return fmt.Errorf("%w: player is required", apperror.ErrMalformedRequest)
	case message.Start == nil || message.Destination == nil:
		return fmt.Errorf("%w: start and destination are required", apperror.ErrMalformedRequest)
	}

	result, err := that.games.SubmitMove(ctx, message.Game, message.Player, *message.Start, *message.Destination, message.Test)
	if err != nil {
		return fmt.Errorf("failed to submit move: %w", err)
	}

	that.connectionsMutex.RLock()
	players, matched := that.matches[message.Game]
	that.connectionsMutex.RUnlock()

	if !result.OK || message.Test || !matched || !slices.Contains(players[:], sender.name) {
		return sender.send(eventMove, result)
	}

	report, err := that.games.ReportState(ctx, message.Game)
	if err != nil {
		return fmt.Errorf("failed to report state: %w", err)
	}

	for _, name := range players {
		conn, ok := that.connection(name)
		if !ok {
			continue
		}

		if err = conn.send(eventMove, result); err != nil {
			that.logger.Error("failed to send move event", "to", name, "error", err)
			continue
		}

		if err = conn.send(eventState, report); err != nil {
			that.logger.Error("failed to send state event", "to", name, "error", err)
		}
	}

	return nil
}
