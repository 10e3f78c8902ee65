package repository

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

const (
	gameSequenceKey = "game:seq"
	gameIndexKey    = "games"

	maxTxRetries = 16
)

var errTxRetriesExhausted = errors.New("too many concurrent writers")

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

type redisGameRepository struct {
	client *redis.Client
}

func NewRedisGameRepository(client *redis.Client) GameRepository {
	return &redisGameRepository{
		client: client,
	}
}

func gameKey(id int64) string {
	return "game:" + strconv.FormatInt(id, 10)
}

func tilesKey(id int64) string {
	return gameKey(id) + ":tiles"
}

func tileField(x, y int) string {
	return strconv.Itoa(x) + ":" + strconv.Itoa(y)
}

func (that *redisGameRepository) Create(ctx context.Context, game *entity.Game) error {
	if err := game.Validate(); err != nil {
		return err
	}

	id, err := that.client.Incr(ctx, gameSequenceKey).Result()
	if err != nil {
		return fmt.Errorf("failed to allocate game id: %w", err)
	}

	game.ID = id
	game.Enemy = nil
	game.Winner = nil

	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, gameKey(id), map[string]any{
			"width":       game.Width,
			"height":      game.Height,
			"line_target": game.LineTarget,
			"host":        game.Host,
		})
		pipe.ZAdd(ctx, gameIndexKey, redis.Z{Score: float64(id), Member: id})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create game: %w", err)
	}

	return nil
}

func (that *redisGameRepository) GetByID(ctx context.Context, id int64) (*entity.Game, error) {
	return loadGame(ctx, that.client, id)
}

func (that *redisGameRepository) List(ctx context.Context, identity string) ([]*entity.Game, error) {
	ids, err := that.client.ZRange(ctx, gameIndexKey, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list games: %w", err)
	}

	games := make([]*entity.Game, 0, len(ids))
	for _, raw := range ids {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("malformed game id %q: %w", raw, err)
		}

		game, err := loadGame(ctx, that.client, id)
		if errors.Is(err, apperror.ErrGameNotFound) {
			continue
		}
		if err != nil {
			return nil, err
		}

		if !game.HasEnemy() || game.IsParticipant(identity) {
			games = append(games, game)
		}
	}

	return games, nil
}

func (that *redisGameRepository) SetEnemy(ctx context.Context, id int64, enemy string) (*entity.Game, error) {
	var joined *entity.Game

	err := that.watch(ctx, func(tx *redis.Tx) error {
		game, err := loadGame(ctx, tx, id)
		if err != nil {
			return err
		}

		if game.HasEnemy() {
			return apperror.GameFull(id)
		}

		if _, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, gameKey(id), "enemy", enemy)
			return nil
		}); err != nil {
			return err
		}

		game.Enemy = &enemy
		joined = game

		return nil
	}, gameKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to set enemy: %w", err)
	}

	return joined, nil
}

func (that *redisGameRepository) Tiles(ctx context.Context, id int64) ([]entity.Tile, error) {
	return loadTiles(ctx, that.client, id)
}

func (that *redisGameRepository) PlaceTile(ctx context.Context, tile entity.Tile, judge Judge) (*Placement, error) {
	var placement *Placement

	err := that.watch(ctx, func(tx *redis.Tx) error {
		game, err := loadGame(ctx, tx, tile.GameID)
		if err != nil {
			return err
		}

		if game.IsFinished() {
			return apperror.ErrGameFinished
		}

		if !game.InBounds(tile.X, tile.Y) {
			return fmt.Errorf("%w: cell %d:%d outside of %dx%d", apperror.ErrMoveIntegrity, tile.X, tile.Y, game.Width, game.Height)
		}

		tiles, err := loadTiles(ctx, tx, tile.GameID)
		if err != nil {
			return err
		}

		board := entity.BoardFromTiles(game.Width, game.Height, tiles)
		if !board.IsEmpty(tile.X, tile.Y) {
			return apperror.ErrCellOccupied
		}
		board[tile.X][tile.Y] = tile.Value

		winner, won := judge(game, board)

		if _, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, tilesKey(tile.GameID), tileField(tile.X, tile.Y), tile.Value)
			if won {
				pipe.HSet(ctx, gameKey(tile.GameID), "winner", winner)
			}
			return nil
		}); err != nil {
			return err
		}

		if won {
			game.Winner = &winner
		}
		placement = &Placement{Game: game, Board: board}

		return nil
	}, gameKey(tile.GameID), tilesKey(tile.GameID))
	if err != nil {
		return nil, fmt.Errorf("failed to place tile: %w", err)
	}

	return placement, nil
}

// watch runs fn as an optimistic transaction over keys, rerunning it while
// another writer commits to the same keys in between.
func (that *redisGameRepository) watch(ctx context.Context, fn func(tx *redis.Tx) error, keys ...string) error {
	for range maxTxRetries {
		err := that.client.Watch(ctx, fn, keys...)
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
	}

	return errTxRetriesExhausted
}

func loadGame(ctx context.Context, client hashReader, id int64) (*entity.Game, error) {
	fields, err := client.HGetAll(ctx, gameKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get game by id: %w", err)
	}

	if len(fields) == 0 {
		return nil, apperror.GameNotFound(id)
	}

	game := &entity.Game{ID: id, Host: fields["host"]}

	for name, target := range map[string]*int{"width": &game.Width, "height": &game.Height, "line_target": &game.LineTarget} {
		if *target, err = strconv.Atoi(fields[name]); err != nil {
			return nil, fmt.Errorf("malformed %s of game %d: %w", name, id, err)
		}
	}

	if enemy, ok := fields["enemy"]; ok && enemy != "" {
		game.Enemy = &enemy
	}

	if winner, ok := fields["winner"]; ok && winner != "" {
		game.Winner = &winner
	}

	return game, nil
}

func loadTiles(ctx context.Context, client hashReader, id int64) ([]entity.Tile, error) {
	fields, err := client.HGetAll(ctx, tilesKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get tiles: %w", err)
	}

	tiles := make([]entity.Tile, 0, len(fields))
	for field, value := range fields {
		var x, y int
		if _, err = fmt.Sscanf(field, "%d:%d", &x, &y); err != nil {
			return nil, fmt.Errorf("malformed tile %q of game %d: %w", field, id, err)
		}

		tiles = append(tiles, entity.Tile{GameID: id, X: x, Y: y, Value: value})
	}

	return tiles, nil
}
