package entity

import (
	"fmt"
	"strings"
)

const (
	EventGame     = "game"
	EventOpponent = "opponent"
)

const botPrefix = "bot:"

// GameView is what every viewer of a game sees after a move.
type GameView struct {
	Board  [][]*string `json:"board"`
	Winner *string     `json:"winner"`
	Turn   *string     `json:"turn"`
}

func NewGameView(board Board, winner, turn *string) *GameView {
	return &GameView{
		Board:  board.Cells(),
		Winner: winner,
		Turn:   turn,
	}
}

// Event is the envelope pushed to live connections.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type OpponentPayload struct {
	Username string `json:"username"`
}

func NewGameEvent(view *GameView) Event {
	return Event{Type: EventGame, Payload: view}
}

func NewOpponentEvent(username string) Event {
	return Event{Type: EventOpponent, Payload: OpponentPayload{Username: username}}
}

// BotIdentity is the synthetic identity of the automated opponent of a game.
func BotIdentity(gameID int64) string {
	return fmt.Sprintf("%s%d", botPrefix, gameID)
}

func IsBot(identity string) bool {
	return strings.HasPrefix(identity, botPrefix)
}
