package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinrow-backend/internal/gravity"
	"github.com/rocketscienceinc/fourinrow-backend/internal/repository"
)

type GamePlayService interface {
	// EnsureSession registers a durable game with the coordinator if it is not live yet.
	EnsureSession(ctx context.Context, game *entity.Game) error
	// MakeMove runs the full move pipeline for player and broadcasts the result.
	MakeMove(ctx context.Context, gameID int64, player string, move entity.Move) (*entity.GameView, error)
	CurrentView(ctx context.Context, gameID int64) (*entity.GameView, error)
}

type tilePlacer interface {
	gameReader
	PlaceTile(ctx context.Context, tile entity.Tile, judge repository.Judge) (*repository.Placement, error)
}

type gamePlayService struct {
	logger *slog.Logger

	games       tilePlacer
	coordinator *Coordinator
	mapper      *MoveMapper
	bot         *BotDriver
}

func NewGamePlayService(logger *slog.Logger, games tilePlacer, coordinator *Coordinator, mapper *MoveMapper, bot *BotDriver) GamePlayService {
	return &gamePlayService{
		logger:      logger.With("component", "gameplay"),
		games:       games,
		coordinator: coordinator,
		mapper:      mapper,
		bot:         bot,
	}
}

func (that *gamePlayService) EnsureSession(ctx context.Context, game *entity.Game) error {
	if that.coordinator.IsRegistered(game.ID) {
		return nil
	}

	if game.Enemy == nil {
		that.coordinator.RegisterGame(game.ID, game.Host)
		return nil
	}

	tiles, err := that.games.Tiles(ctx, game.ID)
	if err != nil {
		return fmt.Errorf("failed to get tiles: %w", err)
	}

	enemy := *game.Enemy

	// the host opens, so the enemy is to move whenever the host is one tile ahead
	var hostTiles, enemyTiles int
	for _, tile := range tiles {
		switch tile.Value {
		case game.Host:
			hostTiles++
		case enemy:
			enemyTiles++
		}
	}

	turn := game.Host
	if hostTiles > enemyTiles {
		turn = enemy
	}

	if that.coordinator.RestoreGame(game.ID, game.Host, enemy, turn, entity.IsBot(enemy)) {
		that.logger.Info("game session restored", "gameID", game.ID, "turn", turn)
	}

	return nil
}

func (that *gamePlayService) MakeMove(ctx context.Context, gameID int64, player string, move entity.Move) (*entity.GameView, error) {
	log := that.logger.With("method", "MakeMove", "gameID", gameID, "playerID", player)

	unlock, ok := that.coordinator.LockMoves(gameID)
	if !ok {
		return nil, moveError(gameID, player, move, nil, apperror.ErrNotYourTurn)
	}
	defer unlock()

	if err := that.resumeAI(ctx, gameID); err != nil {
		log.Error("bot failed to catch up", "error", err)
		return nil, err
	}

	placement, err := that.play(ctx, gameID, player, move)
	if err != nil {
		return nil, err
	}

	winner := placement.Game.Winner

	if winner == nil && !that.coordinator.IsAiAgent(gameID, player) {
		botPlacement, err := that.moveAI(ctx, gameID)
		switch {
		case errors.Is(err, apperror.ErrInternalInvariant):
			log.Error("bot asked to move out of turn", "error", err)
			return nil, err
		case err != nil:
			// the human tile is committed, the bot moves again on the next request
			log.Error("bot failed to move", "error", err)
		case botPlacement != nil:
			placement = botPlacement
			winner = botPlacement.Game.Winner
		}
	}

	view := entity.NewGameView(placement.Board, winner, that.turn(gameID, winner, placement.Board))

	delivered := that.coordinator.BroadcastGameUpdate(entity.NewGameEvent(view), gameID)
	log.Debug("move broadcast", "listeners", delivered)

	return view, nil
}

func (that *gamePlayService) CurrentView(ctx context.Context, gameID int64) (*entity.GameView, error) {
	game, board, err := that.mapper.Board(ctx, gameID)
	if err != nil {
		return nil, err
	}

	return entity.NewGameView(board, game.Winner, that.turn(gameID, game.Winner, board)), nil
}

// play checks the turn, resolves the landing cell and stores the tile together
// with a possible winner. The turn passes on only after the store committed.
func (that *gamePlayService) play(ctx context.Context, gameID int64, player string, move entity.Move) (*repository.Placement, error) {
	if !that.coordinator.CanMove(player, gameID) {
		return nil, moveError(gameID, player, move, nil, apperror.ErrNotYourTurn)
	}

	mapping, err := that.mapper.MapMove(ctx, gameID, move)
	if errors.Is(err, apperror.ErrGameNotFound) {
		return nil, err
	}
	if err != nil {
		return nil, moveError(gameID, player, move, nil, err)
	}

	cell := mapping.MappedMove
	tile := entity.Tile{GameID: gameID, X: cell.X, Y: cell.Y, Value: player}

	placement, err := that.games.PlaceTile(ctx, tile, func(game *entity.Game, board entity.Board) (string, bool) {
		won, _ := gravity.Evaluate(board, game.LineTarget, player, cell.X, cell.Y)
		return player, won
	})
	if errors.Is(err, apperror.ErrMoveIntegrity) {
		return nil, moveError(gameID, player, move, &cell, err)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to place tile: %w", err)
	}

	if placement.Game.Winner == nil && !placement.Board.IsFull() {
		that.coordinator.SetTurn(gameID)
	}

	return placement, nil
}

// resumeAI plays the move a bot still owes, e.g. after its last attempt failed
// or the session was restored on the bot's turn, and broadcasts it.
func (that *gamePlayService) resumeAI(ctx context.Context, gameID int64) error {
	identity, ok := that.coordinator.AiAgent(gameID)
	if !ok {
		return nil
	}

	if turn, ok := that.coordinator.GetTurn(gameID); !ok || turn != identity {
		return nil
	}

	placement, err := that.moveAI(ctx, gameID)
	if err != nil {
		return err
	}

	if placement == nil {
		return nil
	}

	winner := placement.Game.Winner
	view := entity.NewGameView(placement.Board, winner, that.turn(gameID, winner, placement.Board))
	that.coordinator.BroadcastGameUpdate(entity.NewGameEvent(view), gameID)

	return nil
}

// moveAI plays one move for the bot of the game, if it has one and the game
// is still open.
func (that *gamePlayService) moveAI(ctx context.Context, gameID int64) (*repository.Placement, error) {
	identity, ok := that.coordinator.AiAgent(gameID)
	if !ok {
		return nil, nil
	}

	game, board, err := that.mapper.Board(ctx, gameID)
	if err != nil {
		return nil, fmt.Errorf("failed to load board: %w", err)
	}

	if game.IsFinished() {
		return nil, nil
	}

	move, ok := that.bot.ChooseMove(board)
	if !ok {
		return nil, nil
	}

	if !that.coordinator.CanMove(identity, gameID) {
		return nil, fmt.Errorf("%w: bot %s asked to move out of turn in game %d", apperror.ErrInternalInvariant, identity, gameID)
	}

	placement, err := that.play(ctx, gameID, identity, move)
	if err != nil {
		return nil, fmt.Errorf("bot failed to make move: %w", err)
	}

	return placement, nil
}

func (that *gamePlayService) turn(gameID int64, winner *string, board entity.Board) *string {
	if winner != nil || board.IsFull() {
		return nil
	}

	turn, ok := that.coordinator.GetTurn(gameID)
	if !ok {
		return nil
	}

	return &turn
}

func moveError(gameID int64, player string, move entity.Move, cell *entity.Cell, err error) error {
	moveErr := &apperror.MoveError{
		GameID: gameID,
		Player: player,
		Row:    move.Row,
		Side:   string(move.Side),
		Err:    err,
	}

	if cell != nil {
		moveErr.X, moveErr.Y = &cell.X, &cell.Y
	}

	return moveErr
}
