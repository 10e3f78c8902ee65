package apperror

import (
	"errors"
	"fmt"
)

var (
	ErrGameNotFound      = errors.New("game not found")
	ErrGameFull          = errors.New("game is already full")
	ErrMoveIntegrity     = errors.New("move broke game integrity rules")
	ErrInternalInvariant = errors.New("internal invariant violation")
)

// Specific move failures, all of them are ErrMoveIntegrity.
var (
	ErrNotYourTurn  = fmt.Errorf("%w: it's not your turn", ErrMoveIntegrity)
	ErrCellOccupied = fmt.Errorf("%w: cell is already occupied", ErrMoveIntegrity)
	ErrNoOpenCell   = fmt.Errorf("%w: no open cell in row", ErrMoveIntegrity)
	ErrGameFinished = fmt.Errorf("%w: game is already finished", ErrMoveIntegrity)
)

// MoveError describes a rejected move with enough detail for a client message.
type MoveError struct {
	GameID int64  `json:"game_id"`
	Player string `json:"player"`
	Row    int    `json:"row"`
	Side   string `json:"side"`
	X      *int   `json:"x,omitempty"`
	Y      *int   `json:"y,omitempty"`

	Err error `json:"-"`
}

func (that *MoveError) Error() string {
	return fmt.Sprintf("game %d: move row=%d side=%s by %s: %v", that.GameID, that.Row, that.Side, that.Player, that.Err)
}

func (that *MoveError) Unwrap() error {
	return that.Err
}

// GameError binds a game-level failure to the game id it refers to.
type GameError struct {
	GameID int64
	Err    error
}

func (that *GameError) Error() string {
	return fmt.Sprintf("game %d: %v", that.GameID, that.Err)
}

func (that *GameError) Unwrap() error {
	return that.Err
}

func GameNotFound(gameID int64) error {
	return &GameError{GameID: gameID, Err: ErrGameNotFound}
}

func GameFull(gameID int64) error {
	return &GameError{GameID: gameID, Err: ErrGameFull}
}
