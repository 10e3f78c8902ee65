package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinrow-backend/internal/repository"
	"github.com/rocketscienceinc/fourinrow-backend/internal/service"
	"github.com/rocketscienceinc/fourinrow-backend/testing/suite"
)

var errRedisDown = errors.New("redis down")

type recordingListener struct {
	mu       sync.Mutex
	messages [][]byte
}

func (that *recordingListener) Accept() error {
	return nil
}

func (that *recordingListener) Send(message []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.messages = append(that.messages, message)
	return nil
}

func (that *recordingListener) types(t *testing.T) []string {
	t.Helper()

	that.mu.Lock()
	defer that.mu.Unlock()

	types := make([]string, 0, len(that.messages))
	for _, message := range that.messages {
		var event entity.Event
		require.NoError(t, json.Unmarshal(message, &event))
		types = append(types, event.Type)
	}
	return types
}

// eagerListener runs react once, from inside Send, when the opponent event arrives.
type eagerListener struct {
	recordingListener

	once  sync.Once
	react func()
}

func (that *eagerListener) Send(message []byte) error {
	if err := that.recordingListener.Send(message); err != nil {
		return err
	}

	var event entity.Event
	if err := json.Unmarshal(message, &event); err == nil && event.Type == entity.EventOpponent {
		that.once.Do(that.react)
	}

	return nil
}

func countTiles(view *entity.GameView) int {
	tiles := 0
	for _, column := range view.Board {
		for _, cell := range column {
			if cell != nil {
				tiles++
			}
		}
	}
	return tiles
}

type mockGameService struct {
	mock.Mock
}

func (that *mockGameService) CreateGame(ctx context.Context, host string, width, height, lineTarget int) (*entity.Game, error) {
	args := that.Called(ctx, host, width, height, lineTarget)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) SetEnemy(ctx context.Context, gameID int64, enemy string) (*entity.Game, error) {
	args := that.Called(ctx, gameID, enemy)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) GetGameByID(ctx context.Context, id int64) (*entity.Game, error) {
	args := that.Called(ctx, id)
	game, _ := args.Get(0).(*entity.Game)
	return game, args.Error(1)
}

func (that *mockGameService) ListGames(ctx context.Context, identity string) ([]*entity.Game, error) {
	args := that.Called(ctx, identity)
	games, _ := args.Get(0).([]*entity.Game)
	return games, args.Error(1)
}

type useCaseFixture struct {
	ctx         context.Context
	coordinator *service.Coordinator
	useCase     GameUseCase
}

func newUseCase(t *testing.T) *useCaseFixture {
	t.Helper()

	ctx, st := suite.NewSQLite(t)

	games := repository.NewSQLiteGameRepository(st.Database)
	coordinator := service.NewCoordinator(st.Logger)
	mapper := service.NewMoveMapper(games)
	gameplay := service.NewGamePlayService(st.Logger, games, coordinator, mapper, service.NewBotDriver(1))

	return &useCaseFixture{
		ctx:         ctx,
		coordinator: coordinator,
		useCase:     NewGameUseCase(st.Logger, service.NewGameService(games), gameplay, coordinator, mapper),
	}
}

func TestGameUseCase_Scenario(t *testing.T) {
	// Given: alice creates a 7x6 game and bob joins it
	fx := newUseCase(t)

	game, err := fx.useCase.CreateGame(fx.ctx, "alice", 7, 6, 4)
	require.NoError(t, err)

	aliceConn := &recordingListener{}
	require.True(t, fx.useCase.Connect(fx.ctx, game.ID, "alice", aliceConn))

	joined, err := fx.useCase.JoinGame(fx.ctx, game.ID, "bob")
	require.NoError(t, err)
	require.NotNil(t, joined.Enemy)
	assert.Equal(t, "bob", *joined.Enemy)

	// When: alice plays row 0 from the left
	view, err := fx.useCase.MakeMove(fx.ctx, game.ID, "alice", entity.Move{Row: 0, Side: entity.SideLeft})

	// Then: the tile sits at 0:0, nobody won and it is bob's turn
	require.NoError(t, err)
	require.NotNil(t, view.Board[0][0])
	assert.Equal(t, "alice", *view.Board[0][0])
	assert.Nil(t, view.Winner)
	require.NotNil(t, view.Turn)
	assert.Equal(t, "bob", *view.Turn)

	// And: alice saw the initial view, the opponent and the move
	assert.Equal(t, []string{entity.EventGame, entity.EventOpponent, entity.EventGame}, aliceConn.types(t))
}

func TestGameUseCase_JoinGame(t *testing.T) {
	t.Run("Third player is rejected", func(t *testing.T) {
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)

		_, err = fx.useCase.JoinGame(fx.ctx, game.ID, "bob")
		require.NoError(t, err)

		_, err = fx.useCase.JoinGame(fx.ctx, game.ID, "carol")
		require.ErrorIs(t, err, apperror.ErrGameFull)
	})

	t.Run("Host cannot join own game", func(t *testing.T) {
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)

		_, err = fx.useCase.JoinGame(fx.ctx, game.ID, "alice")

		require.ErrorIs(t, err, apperror.ErrGameFull)
	})

	t.Run("Joining again as the enemy is a no-op", func(t *testing.T) {
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)

		_, err = fx.useCase.JoinGame(fx.ctx, game.ID, "bob")
		require.NoError(t, err)

		again, err := fx.useCase.JoinGame(fx.ctx, game.ID, "bob")

		require.NoError(t, err)
		assert.Equal(t, "bob", *again.Enemy)
	})

	t.Run("Unknown game", func(t *testing.T) {
		fx := newUseCase(t)

		_, err := fx.useCase.JoinGame(fx.ctx, 404, "bob")

		require.ErrorIs(t, err, apperror.ErrGameNotFound)
	})

	t.Run("Storage failure gives the seat back", func(t *testing.T) {
		// Given: a game service whose join write fails
		game := &entity.Game{ID: 1, Width: 7, Height: 7, LineTarget: 4, Host: "alice"}

		games := &mockGameService{}
		games.On("GetGameByID", mock.Anything, int64(1)).Return(game, nil)
		games.On("SetEnemy", mock.Anything, int64(1), "bob").Return(nil, errRedisDown).Once()
		games.On("SetEnemy", mock.Anything, int64(1), "carol").Return(&entity.Game{ID: 1, Host: "alice"}, nil).Once()

		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		coordinator := service.NewCoordinator(logger)
		gameplay := service.NewGamePlayService(logger, nil, coordinator, nil, nil)
		useCase := NewGameUseCase(logger, games, gameplay, coordinator, nil)

		// When: bob fails to join and carol tries next
		_, err := useCase.JoinGame(context.Background(), 1, "bob")
		require.ErrorIs(t, err, errRedisDown)

		_, err = useCase.JoinGame(context.Background(), 1, "carol")

		// Then: carol gets the seat bob could not keep
		require.NoError(t, err)
		assert.False(t, coordinator.CanMove("bob", 1))
		games.AssertExpectations(t)
	})
}

func TestGameUseCase_PlayAgainstBot(t *testing.T) {
	t.Run("Bot takes the seat and answers moves", func(t *testing.T) {
		// Given: alice converts her game to single player
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)

		joined, err := fx.useCase.PlayAgainstBot(fx.ctx, game.ID, "alice")
		require.NoError(t, err)
		require.NotNil(t, joined.Enemy)
		assert.Equal(t, entity.BotIdentity(game.ID), *joined.Enemy)

		// When: alice moves
		view, err := fx.useCase.MakeMove(fx.ctx, game.ID, "alice", entity.Move{Row: 3, Side: entity.SideRight})

		// Then: the bot answered and it is alice's turn again
		require.NoError(t, err)
		require.NotNil(t, view.Turn)
		assert.Equal(t, "alice", *view.Turn)

		assert.Equal(t, 2, countTiles(view))
	})

	t.Run("Move made on the opponent event is answered by the bot", func(t *testing.T) {
		// Given: alice's client moves the moment it learns about its opponent
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)

		var (
			moved   *entity.GameView
			moveErr error
		)
		listener := &eagerListener{}
		listener.react = func() {
			moved, moveErr = fx.useCase.MakeMove(fx.ctx, game.ID, "alice", entity.Move{Row: 0, Side: entity.SideLeft})
		}
		require.True(t, fx.useCase.Connect(fx.ctx, game.ID, "alice", listener))

		// When: alice calls in the bot
		_, err = fx.useCase.PlayAgainstBot(fx.ctx, game.ID, "alice")
		require.NoError(t, err)

		// Then: the early move was answered by the bot
		require.NoError(t, moveErr)
		require.NotNil(t, moved)
		assert.Equal(t, 2, countTiles(moved))
		require.NotNil(t, moved.Turn)
		assert.Equal(t, "alice", *moved.Turn)

		// And: the game goes on
		view, err := fx.useCase.MakeMove(fx.ctx, game.ID, "alice", entity.Move{Row: 1, Side: entity.SideLeft})
		require.NoError(t, err)
		assert.Equal(t, 4, countTiles(view))
	})

	t.Run("Storage failure drops the bot", func(t *testing.T) {
		game := &entity.Game{ID: 1, Width: 7, Height: 7, LineTarget: 4, Host: "alice"}
		bot := entity.BotIdentity(1)

		games := &mockGameService{}
		games.On("GetGameByID", mock.Anything, int64(1)).Return(game, nil)
		games.On("SetEnemy", mock.Anything, int64(1), bot).Return(nil, errRedisDown).Once()

		logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
		coordinator := service.NewCoordinator(logger)
		gameplay := service.NewGamePlayService(logger, nil, coordinator, nil, nil)
		useCase := NewGameUseCase(logger, games, gameplay, coordinator, nil)

		_, err := useCase.PlayAgainstBot(context.Background(), 1, "alice")

		require.ErrorIs(t, err, errRedisDown)
		_, ok := coordinator.AiAgent(1)
		assert.False(t, ok)
		assert.False(t, coordinator.CanMove("alice", 1))
		games.AssertExpectations(t)
	})

	t.Run("Only the host may call in the bot", func(t *testing.T) {
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)

		_, err = fx.useCase.PlayAgainstBot(fx.ctx, game.ID, "mallory")

		require.ErrorIs(t, err, apperror.ErrGameFull)
	})

	t.Run("Game with an enemy cannot get a bot", func(t *testing.T) {
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)
		_, err = fx.useCase.JoinGame(fx.ctx, game.ID, "bob")
		require.NoError(t, err)

		_, err = fx.useCase.PlayAgainstBot(fx.ctx, game.ID, "alice")

		require.ErrorIs(t, err, apperror.ErrGameFull)
	})
}

func TestGameUseCase_MapMove(t *testing.T) {
	fx := newUseCase(t)
	game, err := fx.useCase.CreateGame(fx.ctx, "alice", 3, 3, 3)
	require.NoError(t, err)

	t.Run("Resolves the landing cell", func(t *testing.T) {
		mapping, err := fx.useCase.MapMove(fx.ctx, game.ID, entity.Move{Row: 1, Side: entity.SideRight})

		require.NoError(t, err)
		assert.Equal(t, entity.Cell{X: 2, Y: 1}, mapping.MappedMove)
		assert.Equal(t, entity.Dimensions{Width: 3, Height: 3}, mapping.Game)
	})

	t.Run("Empty result for unknown game or row", func(t *testing.T) {
		mapping, err := fx.useCase.MapMove(fx.ctx, 404, entity.Move{Row: 0, Side: entity.SideLeft})
		require.NoError(t, err)
		assert.Nil(t, mapping)

		mapping, err = fx.useCase.MapMove(fx.ctx, game.ID, entity.Move{Row: 5, Side: entity.SideLeft})
		require.NoError(t, err)
		assert.Nil(t, mapping)
	})
}

func TestGameUseCase_ListGames(t *testing.T) {
	fx := newUseCase(t)

	open, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
	require.NoError(t, err)
	full, err := fx.useCase.CreateGame(fx.ctx, "carol", 0, 0, 0)
	require.NoError(t, err)
	_, err = fx.useCase.JoinGame(fx.ctx, full.ID, "dave")
	require.NoError(t, err)

	games, err := fx.useCase.ListGames(fx.ctx, "bob")

	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.Equal(t, open.ID, games[0].ID)
}

func TestGameUseCase_Connect(t *testing.T) {
	t.Run("Strangers and unknown games are refused", func(t *testing.T) {
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)

		assert.False(t, fx.useCase.Connect(fx.ctx, game.ID, "mallory", &recordingListener{}))
		assert.False(t, fx.useCase.Connect(fx.ctx, 404, "alice", &recordingListener{}))
	})

	t.Run("Disconnected listener receives nothing more", func(t *testing.T) {
		fx := newUseCase(t)
		game, err := fx.useCase.CreateGame(fx.ctx, "alice", 0, 0, 0)
		require.NoError(t, err)

		listener := &recordingListener{}
		require.True(t, fx.useCase.Connect(fx.ctx, game.ID, "alice", listener))
		fx.useCase.Disconnect(game.ID, "alice", listener)

		_, err = fx.useCase.JoinGame(fx.ctx, game.ID, "bob")
		require.NoError(t, err)

		assert.Equal(t, []string{entity.EventGame}, listener.types(t))
	})
}
