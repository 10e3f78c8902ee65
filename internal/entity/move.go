package entity

import (
	"errors"
	"fmt"
	"strings"
)

type Side string

const (
	SideLeft  Side = "left"
	SideRight Side = "right"
)

var ErrInvalidSide = errors.New("invalid side")

func ParseSide(raw string) (Side, error) {
	switch side := Side(strings.ToLower(strings.TrimSpace(raw))); side {
	case SideLeft, SideRight:
		return side, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrInvalidSide, raw)
	}
}

// Move is a lane+direction move: the token enters row Row from Side.
type Move struct {
	Row  int  `json:"row"`
	Side Side `json:"side"`
}

type Cell struct {
	X int `json:"x"`
	Y int `json:"y"`
}

type Dimensions struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// MoveMapping is the resolved landing cell of a move on a game.
type MoveMapping struct {
	Game       Dimensions `json:"game"`
	MappedMove Cell       `json:"mapped_move"`
}
