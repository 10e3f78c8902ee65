package rest

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

type createGameRequest struct {
	Width      int `json:"width" validate:"gte=0,lte=64"`
	Height     int `json:"height" validate:"gte=0,lte=64"`
	LineTarget int `json:"line_target" validate:"gte=0,lte=64"`
}

type moveRequest struct {
	Row  *int   `json:"row" validate:"required,gte=0"`
	Side string `json:"side" validate:"required,oneof=left right"`
}

func handlePing(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

func (that *Server) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !that.decode(w, r, &req) {
		return
	}

	game, err := that.games.CreateGame(r.Context(), identity(r), req.Width, req.Height, req.LineTarget)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, game)
}

func (that *Server) handleListGames(w http.ResponseWriter, r *http.Request) {
	games, err := that.games.ListGames(r.Context(), identity(r))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	if games == nil {
		games = []*entity.Game{}
	}

	writeJSON(w, http.StatusOK, games)
}

func (that *Server) handleGetGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	game, err := that.games.GetGame(r.Context(), gameID)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleJoinGame(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	game, err := that.games.JoinGame(r.Context(), gameID, identity(r))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *Server) handlePlayAgainstBot(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	game, err := that.games.PlayAgainstBot(r.Context(), gameID, identity(r))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, game)
}

func (that *Server) handleMakeMove(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	var req moveRequest
	if !that.decode(w, r, &req) {
		return
	}

	move := entity.Move{Row: *req.Row, Side: entity.Side(req.Side)}

	view, err := that.games.MakeMove(r.Context(), gameID, identity(r), move)
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

func (that *Server) handleMapMove(w http.ResponseWriter, r *http.Request) {
	gameID, ok := gameIDParam(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()

	row, err := strconv.Atoi(query.Get("row"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: fmt.Sprintf("invalid row %q", query.Get("row"))})
		return
	}

	side, err := entity.ParseSide(query.Get("side"))
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	mapping, err := that.games.MapMove(r.Context(), gameID, entity.Move{Row: row, Side: side})
	if err != nil {
		that.writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, mapping)
}

// decode reads a JSON body into req and validates it. It writes the failure itself.
func (that *Server) decode(w http.ResponseWriter, r *http.Request, req any) bool {
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "invalid request body"})
		return false
	}

	if err := that.validate.Struct(req); err != nil {
		that.writeError(w, r, err)
		return false
	}

	return true
}

func gameIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "gameID")

	gameID, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: fmt.Sprintf("invalid game id %q", raw)})
		return 0, false
	}

	return gameID, true
}
