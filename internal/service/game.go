package service

import (
	"context"
	"fmt"

	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

type GameService interface {
	CreateGame(ctx context.Context, host string, width, height, lineTarget int) (*entity.Game, error)
	SetEnemy(ctx context.Context, gameID int64, enemy string) (*entity.Game, error)

	GetGameByID(ctx context.Context, id int64) (*entity.Game, error)
	ListGames(ctx context.Context, identity string) ([]*entity.Game, error)
}

type gameRepo interface {
	Create(ctx context.Context, game *entity.Game) error
	GetByID(ctx context.Context, id int64) (*entity.Game, error)
	List(ctx context.Context, identity string) ([]*entity.Game, error)
	SetEnemy(ctx context.Context, id int64, enemy string) (*entity.Game, error)
}

type gameService struct {
	gameRepo gameRepo
}

func NewGameService(gameRepo gameRepo) GameService {
	return &gameService{
		gameRepo: gameRepo,
	}
}

func (that *gameService) CreateGame(ctx context.Context, host string, width, height, lineTarget int) (*entity.Game, error) {
	game := entity.NewGame(host, width, height, lineTarget)

	if err := that.gameRepo.Create(ctx, game); err != nil {
		return nil, fmt.Errorf("failed to create game in storage: %w", err)
	}

	return game, nil
}

func (that *gameService) SetEnemy(ctx context.Context, gameID int64, enemy string) (*entity.Game, error) {
	game, err := that.gameRepo.SetEnemy(ctx, gameID, enemy)
	if err != nil {
		return nil, fmt.Errorf("failed to set enemy in storage: %w", err)
	}

	return game, nil
}

func (that *gameService) GetGameByID(ctx context.Context, id int64) (*entity.Game, error) {
	game, err := that.gameRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve game from storage: %w", err)
	}

	return game, nil
}

func (that *gameService) ListGames(ctx context.Context, identity string) ([]*entity.Game, error) {
	games, err := that.gameRepo.List(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("failed to list games from storage: %w", err)
	}

	return games, nil
}
