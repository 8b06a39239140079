package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rocketscienceinc/thud-backend/internal/entity"
	"github.com/rocketscienceinc/thud-backend/internal/thud"
	"github.com/rocketscienceinc/thud-backend/internal/usecase"
)

const shutdownTimeout = 5 * time.Second

type gameManager interface {
	StartSession(ctx context.Context, playerOne, playerTwo string) (usecase.SessionStart, error)
	SubmitMove(ctx context.Context, id, token string, start, dest entity.Position, testMode bool) (thud.Result, error)
	EndSession(ctx context.Context, id, tokenOne, tokenTwo string) bool
	ReportState(ctx context.Context, id string) ([]entity.SquareReport, error)
	SaveSession(ctx context.Context, id string) error
	LoadSession(ctx context.Context, id string) error
}

type archiveRepo interface {
	ListByPlayer(ctx context.Context, name string) ([]entity.GameRecord, error)
}

type Server struct {
	logger  *slog.Logger
	games   gameManager
	archive archiveRepo
}

func New(logger *slog.Logger, games gameManager, archive archiveRepo) *Server {
	return &Server{
		logger:  logger.With("component", "rest"),
		games:   games,
		archive: archive,
	}
}

// Router builds the HTTP routes.
func (that *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&requestLogFormatter{logger: that.logger}))
	r.Use(middleware.Recoverer)

	r.Get("/ping", that.PingHandler)
	r.Get("/version", that.VersionHandler)

	r.Post("/start", that.StartHandler)
	r.Post("/move", that.MoveHandler)
	r.Post("/move/validate", that.ValidateMoveHandler)
	r.Post("/game", that.StateHandler)
	r.Post("/save", that.SaveHandler)
	r.Post("/load", that.LoadHandler)
	r.Post("/end", that.EndHandler)
	r.Get("/history/{player}", that.HistoryHandler)

	return r
}

// Start serves HTTP on port until ctx is done.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Router(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shut down HTTP server", "error", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}
