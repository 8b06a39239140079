package websocket

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
	"github.com/rocketscienceinc/thud-backend/internal/entity"
	"github.com/rocketscienceinc/thud-backend/internal/thud"
	"github.com/rocketscienceinc/thud-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type lobby interface {
	Join(name string) ([]string, error)
	Leave(name string)
	Waiting() []string
	Pair(ctx context.Context, name, opponent string) (usecase.SessionStart, error)
}

type gameManager interface {
	SubmitMove(ctx context.Context, id, token string, start, dest entity.Position, testMode bool) (thud.Result, error)
	ReportState(ctx context.Context, id string) ([]entity.SquareReport, error)
}

type handlerFunc func(ctx context.Context, sender *client, message *Message) error

type Server struct {
	logger   *slog.Logger
	lobby    lobby
	games    gameManager
	upgrader websocket.Upgrader

	connectionsMutex sync.RWMutex
	connections      map[string]*client
	matches          map[string][2]string

	handlers map[string]handlerFunc
}

func New(logger *slog.Logger, lobby lobby, games gameManager) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		lobby:  lobby,
		games:  games,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},

		connections: make(map[string]*client),
		matches:     make(map[string][2]string),
	}

	server.handlers = map[string]handlerFunc{
		actionChallenge: server.handleChallenge,
		actionMove:      server.handleMove,
	}

	return server
}

func (that *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Get("/match/{name}", that.MatchHandler)

	return r
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           that.Router(),
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down WebSocket server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// MatchHandler joins the player to the lobby and upgrades the connection.
func (that *Server) MatchHandler(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	log := that.logger.With("method", "MatchHandler", "player", name)

	others, err := that.lobby.Join(name)
	switch {
	case errors.Is(err, apperror.ErrDuplicatePlayer):
		http.Error(w, err.Error(), http.StatusConflict)
		return
	case err != nil:
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	conn, err := that.upgrader.Upgrade(w, r, nil)
	if err != nil {
		that.lobby.Leave(name)
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	sender := newClient(name, conn)

	that.connectionsMutex.Lock()
	that.connections[name] = sender
	that.connectionsMutex.Unlock()

	defer that.disconnect(sender)

	log.Info("WebSocket connection established")

	if err = sender.send(eventList, others); err != nil {
		log.Error("failed to send lobby list", "error", err)
		return
	}

	that.broadcastLobby(name)

	that.handleMessages(r.Context(), sender)
}

// handleMessages - processes messages from the client until it disconnects.
func (that *Server) handleMessages(ctx context.Context, sender *client) {
	log := that.logger.With("method", "handleMessages", "player", sender.name)

	for {
		var message Message
		if err := sender.conn.ReadJSON(&message); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Error("error reading message", "error", err)
			}

			return
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.sendError(sender, fmt.Errorf("%w: unknown action %q", apperror.ErrMalformedRequest, message.Action))
			continue
		}

		if err := handler(ctx, sender, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
			that.sendError(sender, err)
		}
	}
}

func (that *Server) disconnect(sender *client) {
	that.lobby.Leave(sender.name)

	that.connectionsMutex.Lock()
	if that.connections[sender.name] == sender {
		delete(that.connections, sender.name)
	}
	that.pruneMatches(sender.name)
	that.connectionsMutex.Unlock()

	if err := sender.conn.Close(); err != nil {
		that.logger.Debug("failed to close connection", "player", sender.name, "error", err)
	}

	that.broadcastLobby(sender.name)
}

// broadcastLobby sends the current list to every waiting player except skip.
func (that *Server) broadcastLobby(skip string) {
	waiting := that.lobby.Waiting()

	for _, name := range waiting {
		if name == skip {
			continue
		}

		others := make([]string, 0, len(waiting))
		for _, other := range waiting {
			if other != name {
				others = append(others, other)
			}
		}

		if conn, ok := that.connection(name); ok {
			if err := conn.send(eventList, others); err != nil {
				that.logger.Error("failed to send lobby list", "player", name, "error", err)
			}
		}
	}
}

// pruneMatches forgets the matches of name once neither player is connected.
// Callers hold connectionsMutex.
func (that *Server) pruneMatches(name string) {
	for id, players := range that.matches {
		if players[0] != name && players[1] != name {
			continue
		}

		_, first := that.connections[players[0]]
		_, second := that.connections[players[1]]

		if !first && !second {
			delete(that.matches, id)
		}
	}
}

func (that *Server) connection(name string) (*client, bool) {
	that.connectionsMutex.RLock()
	defer that.connectionsMutex.RUnlock()

	conn, ok := that.connections[name]

	return conn, ok
}

func (that *Server) sendError(sender *client, err error) {
	if sendErr := sender.send(eventError, err.Error()); sendErr != nil {
		that.logger.Error("failed to send error", "player", sender.name, "error", sendErr)
	}
}
