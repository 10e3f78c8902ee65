package service

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinrow-backend/internal/gravity"
)

type gameReader interface {
	GetByID(ctx context.Context, id int64) (*entity.Game, error)
	Tiles(ctx context.Context, id int64) ([]entity.Tile, error)
}

// MoveMapper resolves a row and side move into the cell the token lands on.
type MoveMapper struct {
	games gameReader
}

func NewMoveMapper(games gameReader) *MoveMapper {
	return &MoveMapper{
		games: games,
	}
}

// Board loads the game together with its current board.
func (that *MoveMapper) Board(ctx context.Context, gameID int64) (*entity.Game, entity.Board, error) {
	game, err := that.games.GetByID(ctx, gameID)
	if err != nil {
		return nil, nil, err
	}

	tiles, err := that.games.Tiles(ctx, gameID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get tiles: %w", err)
	}

	return game, entity.BoardFromTiles(game.Width, game.Height, tiles), nil
}

// MapMove fails with GameNotFound for an unknown game and with ErrNoOpenCell when
// the row has no free cell on that side.
func (that *MoveMapper) MapMove(ctx context.Context, gameID int64, move entity.Move) (*entity.MoveMapping, error) {
	game, board, err := that.Board(ctx, gameID)
	if err != nil {
		return nil, err
	}

	cell, ok := gravity.LandingCell(board, move.Row, move.Side)
	if !ok {
		return nil, apperror.ErrNoOpenCell
	}

	return &entity.MoveMapping{
		Game:       entity.Dimensions{Width: game.Width, Height: game.Height},
		MappedMove: cell,
	}, nil
}
