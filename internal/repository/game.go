package repository

import (
	"context"

	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

// GameRepository is the durable record store for games and tiles.
type GameRepository interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id int64) (*entity.Game, error)
	// List returns games without an enemy plus every game identity takes part in.
	List(ctx context.Context, identity string) ([]*entity.Game, error)
	// SetEnemy assigns the enemy only if the game has none yet.
	SetEnemy(ctx context.Context, id int64, enemy string) (*entity.Game, error)
	Tiles(ctx context.Context, id int64) ([]entity.Tile, error)
	// PlaceTile inserts the tile if its cell is free, asks judge for a winner on the
	// resulting board and persists both as one unit.
	PlaceTile(ctx context.Context, tile entity.Tile, judge Judge) (*Placement, error)
}

// Judge decides the winner of a game on the board that includes the new tile.
type Judge func(game *entity.Game, board entity.Board) (winner string, won bool)

type Placement struct {
	Game  *entity.Game
	Board entity.Board
}
