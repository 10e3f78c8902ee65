package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

const (
	actionMove = "game:move"

	eventError = "error"

	maxMessageSize = 4096
)

var errUnknownAction = errors.New("unknown action")

// Message is an inbound client message.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

// handleMove plays a move for the connected identity. The resulting view
// reaches this client through the game broadcast.
func (that *Server) handleMove(ctx context.Context, current *client, message *Message) error {
	var move entity.Move
	if err := json.Unmarshal(message.Payload, &move); err != nil {
		return fmt.Errorf("failed to unmarshal move: %w", err)
	}

	side, err := entity.ParseSide(string(move.Side))
	if err != nil {
		return err
	}
	move.Side = side

	if _, err = that.games.MakeMove(ctx, current.gameID, current.identity, move); err != nil {
		return err
	}

	return nil
}

func (that *Server) replyError(current *client, err error) {
	payload := errorPayload{Message: err.Error()}

	var moveErr *apperror.MoveError
	if errors.As(err, &moveErr) {
		payload = errorPayload{Message: moveErr.Err.Error(), Details: moveErr}
	}

	raw, err := json.Marshal(entity.Event{Type: eventError, Payload: payload})
	if err != nil {
		that.logger.Error("failed to marshal error reply", "error", err)
		return
	}

	if err = current.listener.Send(raw); err != nil {
		that.logger.Debug("failed to send error reply", "connID", current.listener.id, "error", err)
	}
}
