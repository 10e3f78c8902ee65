package rest

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

type errorResponse struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func (that *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, response := errorStatus(err)

	log := that.logger.With("method", r.Method, "path", r.URL.Path, "status", status)
	if status == http.StatusInternalServerError {
		log.Error("request failed", "error", err)
	} else {
		log.Info("request rejected", "error", err)
	}

	writeJSON(w, status, response)
}

func errorStatus(err error) (int, errorResponse) {
	var (
		moveErr    *apperror.MoveError
		gameErr    *apperror.GameError
		validation validator.ValidationErrors
	)

	switch {
	case errors.Is(err, apperror.ErrGameNotFound):
		return http.StatusNotFound, errorResponse{Message: apperror.ErrGameNotFound.Error(), Details: gameDetails(err, gameErr)}
	case errors.Is(err, apperror.ErrGameFull):
		return http.StatusConflict, errorResponse{Message: apperror.ErrGameFull.Error(), Details: gameDetails(err, gameErr)}
	case errors.As(err, &moveErr):
		return http.StatusBadRequest, errorResponse{Message: moveErr.Err.Error(), Details: moveErr}
	case errors.Is(err, apperror.ErrMoveIntegrity),
		errors.Is(err, entity.ErrInvalidDimensions),
		errors.Is(err, entity.ErrInvalidSide):
		return http.StatusBadRequest, errorResponse{Message: err.Error()}
	case errors.As(err, &validation):
		fields := make(map[string]string, len(validation))
		for _, field := range validation {
			fields[field.Field()] = field.Tag()
		}
		return http.StatusBadRequest, errorResponse{Message: "invalid request", Details: fields}
	default:
		return http.StatusInternalServerError, errorResponse{Message: "internal server error"}
	}
}

func gameDetails(err error, gameErr *apperror.GameError) any {
	if errors.As(err, &gameErr) {
		return map[string]int64{"game_id": gameErr.GameID}
	}

	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
