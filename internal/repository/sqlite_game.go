package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

const gameColumns = `game_id, width, height, line_target, host, enemy, winner`

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type sqliteGameRepository struct {
	conn *sql.DB
}

func NewSQLiteGameRepository(conn *sql.DB) GameRepository {
	return &sqliteGameRepository{
		conn: conn,
	}
}

func (that *sqliteGameRepository) Create(ctx context.Context, game *entity.Game) error {
	if err := game.Validate(); err != nil {
		return err
	}

	query := `INSERT INTO game (width, height, line_target, host) VALUES (?, ?, ?, ?)`

	result, err := that.conn.ExecContext(ctx, query, game.Width, game.Height, game.LineTarget, game.Host)
	if err != nil {
		return fmt.Errorf("can't create game: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("can't read game id: %w", err)
	}

	game.ID = id
	game.Enemy = nil
	game.Winner = nil

	return nil
}

func (that *sqliteGameRepository) GetByID(ctx context.Context, id int64) (*entity.Game, error) {
	return findGame(ctx, that.conn, id)
}

func (that *sqliteGameRepository) List(ctx context.Context, identity string) ([]*entity.Game, error) {
	query := `SELECT ` + gameColumns + ` FROM game WHERE enemy IS NULL OR host = ? OR enemy = ? ORDER BY game_id`

	rows, err := that.conn.QueryContext(ctx, query, identity, identity)
	if err != nil {
		return nil, fmt.Errorf("can't list games: %w", err)
	}
	defer rows.Close()

	var games []*entity.Game
	for rows.Next() {
		game, err := scanGame(rows)
		if err != nil {
			return nil, err
		}
		games = append(games, game)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't list games: %w", err)
	}

	return games, nil
}

func (that *sqliteGameRepository) SetEnemy(ctx context.Context, id int64, enemy string) (*entity.Game, error) {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("can't begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	game, err := findGame(ctx, tx, id)
	if err != nil {
		return nil, err
	}

	if game.HasEnemy() {
		return nil, apperror.GameFull(id)
	}

	if _, err = tx.ExecContext(ctx, `UPDATE game SET enemy = ? WHERE game_id = ? AND enemy IS NULL`, enemy, id); err != nil {
		return nil, fmt.Errorf("can't set enemy: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("can't commit enemy: %w", err)
	}

	game.Enemy = &enemy

	return game, nil
}

func (that *sqliteGameRepository) Tiles(ctx context.Context, id int64) ([]entity.Tile, error) {
	return findTiles(ctx, that.conn, id)
}

func (that *sqliteGameRepository) PlaceTile(ctx context.Context, tile entity.Tile, judge Judge) (*Placement, error) {
	tx, err := that.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("can't begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint: errcheck // no-op after commit

	game, err := findGame(ctx, tx, tile.GameID)
	if err != nil {
		return nil, err
	}

	if game.IsFinished() {
		return nil, apperror.ErrGameFinished
	}

	if !game.InBounds(tile.X, tile.Y) {
		return nil, fmt.Errorf("%w: cell %d:%d outside of %dx%d", apperror.ErrMoveIntegrity, tile.X, tile.Y, game.Width, game.Height)
	}

	query := `INSERT INTO game_tile (game_id, x, y, value) VALUES (?, ?, ?, ?) ON CONFLICT DO NOTHING`

	result, err := tx.ExecContext(ctx, query, tile.GameID, tile.X, tile.Y, tile.Value)
	if err != nil {
		return nil, fmt.Errorf("can't insert tile: %w", err)
	}

	inserted, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("can't insert tile: %w", err)
	}

	if inserted == 0 {
		return nil, apperror.ErrCellOccupied
	}

	tiles, err := findTiles(ctx, tx, tile.GameID)
	if err != nil {
		return nil, err
	}

	board := entity.BoardFromTiles(game.Width, game.Height, tiles)

	if winner, won := judge(game, board); won {
		if _, err = tx.ExecContext(ctx, `UPDATE game SET winner = ? WHERE game_id = ?`, winner, game.ID); err != nil {
			return nil, fmt.Errorf("can't set winner: %w", err)
		}
		game.Winner = &winner
	}

	if err = tx.Commit(); err != nil {
		return nil, fmt.Errorf("can't commit move: %w", err)
	}

	return &Placement{Game: game, Board: board}, nil
}

func findGame(ctx context.Context, conn queryer, id int64) (*entity.Game, error) {
	row := conn.QueryRowContext(ctx, `SELECT `+gameColumns+` FROM game WHERE game_id = ?`, id)

	game, err := scanGame(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperror.GameNotFound(id)
	}
	if err != nil {
		return nil, err
	}

	return game, nil
}

func findTiles(ctx context.Context, conn queryer, id int64) ([]entity.Tile, error) {
	rows, err := conn.QueryContext(ctx, `SELECT game_id, x, y, value FROM game_tile WHERE game_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("can't get tiles: %w", err)
	}
	defer rows.Close()

	var tiles []entity.Tile
	for rows.Next() {
		var tile entity.Tile
		if err = rows.Scan(&tile.GameID, &tile.X, &tile.Y, &tile.Value); err != nil {
			return nil, fmt.Errorf("can't scan tile: %w", err)
		}
		tiles = append(tiles, tile)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("can't get tiles: %w", err)
	}

	return tiles, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanGame(row scanner) (*entity.Game, error) {
	var (
		game          entity.Game
		enemy, winner sql.NullString
	)

	err := row.Scan(&game.ID, &game.Width, &game.Height, &game.LineTarget, &game.Host, &enemy, &winner)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("can't scan game: %w", err)
	}

	if enemy.Valid {
		game.Enemy = &enemy.String
	}

	if winner.Valid {
		game.Winner = &winner.String
	}

	return &game, nil
}
