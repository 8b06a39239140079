package rest

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/thud-backend/internal/apperror"
	"github.com/rocketscienceinc/thud-backend/internal/entity"
)

// startRequest also accepts the "game" key older clients send with the
// value "start"; it carries no information.
type startRequest struct {
	Game      string `json:"game"`
	PlayerOne string `json:"player_one"`
	PlayerTwo string `json:"player_two"`
}

type moveRequest struct {
	Game        string           `json:"game"`
	Player      string           `json:"player"`
	Start       *entity.Position `json:"start"`
	Destination *entity.Position `json:"destination"`
	Test        bool             `json:"test"`
}

func (that moveRequest) validate() error {
	switch {
	case that.Game == "":
		return fmt.Errorf("%w: game is required", apperror.ErrMalformedRequest)
	case that.Player == "":
		return fmt.Errorf("%w: player is required", apperror.ErrMalformedRequest)
	case that.Start == nil || that.Destination == nil:
		return fmt.Errorf("%w: start and destination are required", apperror.ErrMalformedRequest)
	default:
		return nil
	}
}

type gameRequest struct {
	Game string `json:"game"`
}

type endRequest struct {
	Game      string `json:"game"`
	PlayerOne string `json:"player_one"`
	PlayerTwo string `json:"player_two"`
}

func (that *Server) StartHandler(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	start, err := that.games.StartSession(r.Context(), req.PlayerOne, req.PlayerTwo)
	if err != nil {
		that.writeFailure(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, start)
}

func (that *Server) MoveHandler(w http.ResponseWriter, r *http.Request) {
	that.handleMove(w, r, false)
}

func (that *Server) ValidateMoveHandler(w http.ResponseWriter, r *http.Request) {
	that.handleMove(w, r, true)
}

func (that *Server) handleMove(w http.ResponseWriter, r *http.Request, forceTest bool) {
	var req moveRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := req.validate(); err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	result, err := that.games.SubmitMove(r.Context(), req.Game, req.Player, *req.Start, *req.Destination, forceTest || req.Test)
	if err != nil {
		that.writeFailure(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, result)
}

func (that *Server) StateHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := that.decodeGameID(w, r)
	if !ok {
		return
	}

	report, err := that.games.ReportState(r.Context(), id)
	if err != nil {
		that.writeFailure(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, report)
}

func (that *Server) SaveHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := that.decodeGameID(w, r)
	if !ok {
		return
	}

	if err := that.games.SaveSession(r.Context(), id); err != nil {
		that.writeFailure(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, true)
}

func (that *Server) LoadHandler(w http.ResponseWriter, r *http.Request) {
	id, ok := that.decodeGameID(w, r)
	if !ok {
		return
	}

	if err := that.games.LoadSession(r.Context(), id); err != nil {
		that.writeFailure(w, err)
		return
	}

	that.writeJSON(w, http.StatusOK, true)
}

func (that *Server) EndHandler(w http.ResponseWriter, r *http.Request) {
	var req endRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return
	}

	if req.Game == "" {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: game is required", apperror.ErrMalformedRequest))
		return
	}

	that.writeJSON(w, http.StatusOK, that.games.EndSession(r.Context(), req.Game, req.PlayerOne, req.PlayerTwo))
}

func (that *Server) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	records, err := that.archive.ListByPlayer(r.Context(), chi.URLParam(r, "player"))
	if err != nil {
		that.writeFailure(w, err)
		return
	}

	if records == nil {
		records = []entity.GameRecord{}
	}

	that.writeJSON(w, http.StatusOK, records)
}

func (that *Server) decodeGameID(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req gameRequest
	if err := decodeJSONRequest(r, &req); err != nil {
		that.writeError(w, http.StatusBadRequest, err)
		return "", false
	}

	if req.Game == "" {
		that.writeError(w, http.StatusBadRequest, fmt.Errorf("%w: game is required", apperror.ErrMalformedRequest))
		return "", false
	}

	return req.Game, true
}

// writeFailure maps domain errors to HTTP statuses.
func (that *Server) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, apperror.ErrMalformedRequest):
		that.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, apperror.ErrGameNotFound), errors.Is(err, apperror.ErrNotFound):
		that.writeError(w, http.StatusNotFound, err)
	case errors.Is(err, apperror.ErrCorruptSnapshot):
		that.writeError(w, http.StatusUnprocessableEntity, err)
	case errors.Is(err, apperror.ErrGameAlreadyExists):
		that.writeError(w, http.StatusConflict, err)
	default:
		that.logger.Error("request failed", "error", err)
		that.writeError(w, http.StatusInternalServerError, errors.New("internal server error"))
	}
}
