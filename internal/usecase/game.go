package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinrow-backend/internal/service"
)

type GameUseCase interface {
	CreateGame(ctx context.Context, host string, width, height, lineTarget int) (*entity.Game, error)
	ListGames(ctx context.Context, identity string) ([]*entity.Game, error)
	GetGame(ctx context.Context, gameID int64) (*entity.Game, error)

	JoinGame(ctx context.Context, gameID int64, identity string) (*entity.Game, error)
	PlayAgainstBot(ctx context.Context, gameID int64, identity string) (*entity.Game, error)

	MakeMove(ctx context.Context, gameID int64, identity string, move entity.Move) (*entity.GameView, error)
	// MapMove returns nil when the move has no landing cell or the game is unknown.
	MapMove(ctx context.Context, gameID int64, move entity.Move) (*entity.MoveMapping, error)

	Connect(ctx context.Context, gameID int64, identity string, listener service.Listener) bool
	Disconnect(gameID int64, identity string, listener service.Listener)
}

type gameService interface {
	CreateGame(ctx context.Context, host string, width, height, lineTarget int) (*entity.Game, error)
	SetEnemy(ctx context.Context, gameID int64, enemy string) (*entity.Game, error)
	GetGameByID(ctx context.Context, id int64) (*entity.Game, error)
	ListGames(ctx context.Context, identity string) ([]*entity.Game, error)
}

type gamePlayService interface {
	EnsureSession(ctx context.Context, game *entity.Game) error
	MakeMove(ctx context.Context, gameID int64, player string, move entity.Move) (*entity.GameView, error)
	CurrentView(ctx context.Context, gameID int64) (*entity.GameView, error)
}

type coordinator interface {
	RegisterGame(gameID int64, host string)
	AddEnemyToGame(player string, gameID int64) error
	AddAiAgentToGame(identity string, gameID int64) error
	RemoveEnemyFromGame(player string, gameID int64)
	Connect(player string, gameID int64, listener service.Listener) bool
	Disconnect(player string, gameID int64, listener service.Listener)
	BroadcastGameUpdate(event entity.Event, gameID int64) int
}

type moveMapper interface {
	MapMove(ctx context.Context, gameID int64, move entity.Move) (*entity.MoveMapping, error)
}

type gameUseCase struct {
	logger *slog.Logger

	gameService     gameService
	gamePlayService gamePlayService
	coordinator     coordinator
	mapper          moveMapper
}

func NewGameUseCase(logger *slog.Logger, gameService gameService, gamePlayService gamePlayService, coordinator coordinator, mapper moveMapper) GameUseCase {
	return &gameUseCase{
		logger:          logger.With("component", "usecase"),
		gameService:     gameService,
		gamePlayService: gamePlayService,
		coordinator:     coordinator,
		mapper:          mapper,
	}
}

func (that *gameUseCase) CreateGame(ctx context.Context, host string, width, height, lineTarget int) (*entity.Game, error) {
	game, err := that.gameService.CreateGame(ctx, host, width, height, lineTarget)
	if err != nil {
		return nil, fmt.Errorf("could not create game: %w", err)
	}

	that.coordinator.RegisterGame(game.ID, game.Host)

	return game, nil
}

func (that *gameUseCase) ListGames(ctx context.Context, identity string) ([]*entity.Game, error) {
	games, err := that.gameService.ListGames(ctx, identity)
	if err != nil {
		return nil, fmt.Errorf("could not list games: %w", err)
	}

	return games, nil
}

func (that *gameUseCase) GetGame(ctx context.Context, gameID int64) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("could not get game: %w", err)
	}

	return game, nil
}

func (that *gameUseCase) JoinGame(ctx context.Context, gameID int64, identity string) (*entity.Game, error) {
	game, err := that.liveGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.Enemy != nil && *game.Enemy == identity {
		return game, nil
	}

	return that.seatEnemy(ctx, gameID, identity, that.coordinator.AddEnemyToGame)
}

func (that *gameUseCase) PlayAgainstBot(ctx context.Context, gameID int64, identity string) (*entity.Game, error) {
	game, err := that.liveGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.Host != identity {
		return nil, apperror.GameFull(gameID)
	}

	return that.seatEnemy(ctx, gameID, entity.BotIdentity(gameID), that.coordinator.AddAiAgentToGame)
}

func (that *gameUseCase) MakeMove(ctx context.Context, gameID int64, identity string, move entity.Move) (*entity.GameView, error) {
	if _, err := that.liveGame(ctx, gameID); err != nil {
		return nil, err
	}

	view, err := that.gamePlayService.MakeMove(ctx, gameID, identity, move)
	if err != nil {
		return nil, fmt.Errorf("could not make move: %w", err)
	}

	return view, nil
}

func (that *gameUseCase) MapMove(ctx context.Context, gameID int64, move entity.Move) (*entity.MoveMapping, error) {
	mapping, err := that.mapper.MapMove(ctx, gameID, move)
	if errors.Is(err, apperror.ErrNoOpenCell) || errors.Is(err, apperror.ErrGameNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not map move: %w", err)
	}

	return mapping, nil
}

func (that *gameUseCase) Connect(ctx context.Context, gameID int64, identity string, listener service.Listener) bool {
	log := that.logger.With("method", "Connect", "gameID", gameID, "playerID", identity)

	if _, err := that.liveGame(ctx, gameID); err != nil {
		log.Info("refused connection", "error", err)
		return false
	}

	if !that.coordinator.Connect(identity, gameID, listener) {
		return false
	}

	view, err := that.gamePlayService.CurrentView(ctx, gameID)
	if err != nil {
		log.Error("failed to load current view", "error", err)
		return true
	}

	if err = sendEvent(listener, entity.NewGameEvent(view)); err != nil {
		log.Warn("failed to send current view", "error", err)
	}

	return true
}

func (that *gameUseCase) Disconnect(gameID int64, identity string, listener service.Listener) {
	that.coordinator.Disconnect(identity, gameID, listener)
}

// liveGame loads the durable game and makes sure it has a live session.
func (that *gameUseCase) liveGame(ctx context.Context, gameID int64) (*entity.Game, error) {
	game, err := that.gameService.GetGameByID(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("could not get game: %w", err)
	}

	if err = that.gamePlayService.EnsureSession(ctx, game); err != nil {
		return nil, fmt.Errorf("could not open game session: %w", err)
	}

	return game, nil
}

// seatEnemy takes the seat in the coordinator first and then in storage, giving
// the seat back if storage refuses.
func (that *gameUseCase) seatEnemy(ctx context.Context, gameID int64, enemy string, seat func(string, int64) error) (*entity.Game, error) {
	if err := seat(enemy, gameID); err != nil {
		return nil, err
	}

	game, err := that.gameService.SetEnemy(ctx, gameID, enemy)
	if err != nil {
		that.coordinator.RemoveEnemyFromGame(enemy, gameID)
		return nil, fmt.Errorf("could not join game: %w", err)
	}

	that.coordinator.BroadcastGameUpdate(entity.NewOpponentEvent(enemy), gameID)

	return game, nil
}

func sendEvent(listener service.Listener, event entity.Event) error {
	message, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return listener.Send(message)
}
