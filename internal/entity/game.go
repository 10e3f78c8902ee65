package entity

import (
	"errors"
	"fmt"
)

const (
	DefaultWidth      = 7
	DefaultHeight     = 7
	DefaultLineTarget = 4
)

var ErrInvalidDimensions = errors.New("invalid game dimensions")

type Game struct {
	ID         int64   `json:"game_id"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	LineTarget int     `json:"line_target"`
	Host       string  `json:"host"`
	Enemy      *string `json:"enemy"`
	Winner     *string `json:"winner"`
}

func NewGame(host string, width, height, lineTarget int) *Game {
	if width == 0 {
		width = DefaultWidth
	}
	if height == 0 {
		height = DefaultHeight
	}
	if lineTarget == 0 {
		lineTarget = DefaultLineTarget
	}

	return &Game{
		Host:       host,
		Width:      width,
		Height:     height,
		LineTarget: lineTarget,
	}
}

// Validate checks the record constraints: positive sizes and line_target <= min(width, height).
func (that *Game) Validate() error {
	if that.Width <= 0 || that.Height <= 0 || that.LineTarget <= 0 {
		return fmt.Errorf("%w: %dx%d target %d", ErrInvalidDimensions, that.Width, that.Height, that.LineTarget)
	}

	if that.LineTarget > that.Width || that.LineTarget > that.Height {
		return fmt.Errorf("%w: line target %d exceeds %dx%d", ErrInvalidDimensions, that.LineTarget, that.Width, that.Height)
	}

	return nil
}

func (that *Game) HasEnemy() bool {
	return that.Enemy != nil
}

func (that *Game) IsFinished() bool {
	return that.Winner != nil
}

func (that *Game) IsParticipant(identity string) bool {
	return that.Host == identity || (that.Enemy != nil && *that.Enemy == identity)
}

func (that *Game) InBounds(x, y int) bool {
	return x >= 0 && x < that.Width && y >= 0 && y < that.Height
}

type Tile struct {
	GameID int64  `json:"game_id"`
	X      int    `json:"x"`
	Y      int    `json:"y"`
	Value  string `json:"value"`
}
