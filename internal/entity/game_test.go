package entity

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGame(t *testing.T) {
	t.Run("Applies defaults for omitted dimensions", func(t *testing.T) {
		// When: a game is created without dimensions
		game := NewGame("alice", 0, 0, 0)

		// Then: the defaults are used
		assert.Equal(t, DefaultWidth, game.Width)
		assert.Equal(t, DefaultHeight, game.Height)
		assert.Equal(t, DefaultLineTarget, game.LineTarget)
		assert.Equal(t, "alice", game.Host)
		assert.False(t, game.HasEnemy())
		assert.False(t, game.IsFinished())
	})

	t.Run("Keeps explicit dimensions", func(t *testing.T) {
		game := NewGame("alice", 4, 1, 1)

		assert.Equal(t, 4, game.Width)
		assert.Equal(t, 1, game.Height)
		assert.Equal(t, 1, game.LineTarget)
	})
}

func TestGame_Validate(t *testing.T) {
	t.Run("Accepts line target equal to the smaller side", func(t *testing.T) {
		game := NewGame("alice", 7, 6, 6)

		assert.NoError(t, game.Validate())
	})

	t.Run("Rejects line target longer than the height", func(t *testing.T) {
		// Given: a 4x1 board with target 4
		game := NewGame("alice", 4, 1, 4)

		// When: validating
		err := game.Validate()

		// Then: the constraint line_target <= height fails
		require.ErrorIs(t, err, ErrInvalidDimensions)
	})

	t.Run("Rejects negative sizes", func(t *testing.T) {
		game := &Game{Width: -1, Height: 3, LineTarget: 1}

		assert.ErrorIs(t, game.Validate(), ErrInvalidDimensions)
	})
}

func TestGame_IsParticipant(t *testing.T) {
	enemy := "bob"
	game := &Game{Host: "alice", Enemy: &enemy}

	assert.True(t, game.IsParticipant("alice"))
	assert.True(t, game.IsParticipant("bob"))
	assert.False(t, game.IsParticipant("carol"))
}

func TestBoard(t *testing.T) {
	t.Run("BoardFromTiles places tiles by x and y", func(t *testing.T) {
		// Given: two tiles and one outside the grid
		tiles := []Tile{
			{GameID: 1, X: 0, Y: 0, Value: "alice"},
			{GameID: 1, X: 6, Y: 5, Value: "bob"},
			{GameID: 1, X: 7, Y: 0, Value: "ghost"},
		}

		// When: building a 7x6 board
		board := BoardFromTiles(7, 6, tiles)

		// Then: tiles land where they belong and the stray tile is dropped
		assert.Equal(t, 7, board.Width())
		assert.Equal(t, 6, board.Height())
		assert.Equal(t, "alice", board[0][0])
		assert.Equal(t, "bob", board[6][5])
		assert.True(t, board.IsEmpty(3, 3))
		assert.False(t, board.IsEmpty(0, 0))
		assert.False(t, board.IsEmpty(7, 0))
		assert.False(t, board.IsFull())
	})

	t.Run("Cells renders empty cells as null", func(t *testing.T) {
		board := BoardFromTiles(2, 1, []Tile{{X: 1, Y: 0, Value: "bob"}})

		raw, err := json.Marshal(board.Cells())
		require.NoError(t, err)

		assert.JSONEq(t, `[[null],["bob"]]`, string(raw))
	})

	t.Run("IsFull on a filled board", func(t *testing.T) {
		board := BoardFromTiles(1, 2, []Tile{{X: 0, Y: 0, Value: "a"}, {X: 0, Y: 1, Value: "b"}})

		assert.True(t, board.IsFull())
	})
}

func TestParseSide(t *testing.T) {
	side, err := ParseSide(" Left ")
	require.NoError(t, err)
	assert.Equal(t, SideLeft, side)

	side, err = ParseSide("right")
	require.NoError(t, err)
	assert.Equal(t, SideRight, side)

	_, err = ParseSide("up")
	assert.ErrorIs(t, err, ErrInvalidSide)
}

func TestEvents(t *testing.T) {
	t.Run("Game event envelope", func(t *testing.T) {
		turn := "bob"
		event := NewGameEvent(NewGameView(BoardFromTiles(1, 1, nil), nil, &turn))

		raw, err := json.Marshal(event)
		require.NoError(t, err)

		assert.JSONEq(t, `{"type":"game","payload":{"board":[[null]],"winner":null,"turn":"bob"}}`, string(raw))
	})

	t.Run("Opponent event envelope", func(t *testing.T) {
		raw, err := json.Marshal(NewOpponentEvent("bob"))
		require.NoError(t, err)

		assert.JSONEq(t, `{"type":"opponent","payload":{"username":"bob"}}`, string(raw))
	})

	t.Run("Bot identity", func(t *testing.T) {
		assert.Equal(t, "bot:12", BotIdentity(12))
		assert.True(t, IsBot(BotIdentity(12)))
		assert.False(t, IsBot("alice"))
	})
}
