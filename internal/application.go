package application

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/rocketscienceinc/fourinrow-backend/internal/config"
	"github.com/rocketscienceinc/fourinrow-backend/internal/repository"
	"github.com/rocketscienceinc/fourinrow-backend/internal/repository/storage"
	"github.com/rocketscienceinc/fourinrow-backend/internal/service"
	"github.com/rocketscienceinc/fourinrow-backend/internal/usecase"
	"github.com/rocketscienceinc/fourinrow-backend/transport/rest"
	"github.com/rocketscienceinc/fourinrow-backend/transport/websocket"
)

var ErrAddrNotFound = errors.New("redis address string is empty")

// RunApp - runs the application.
func RunApp(logger *slog.Logger, conf *config.Config) error {
	log := logger.With("component", "app")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		log.Info("Received signal, shutting down", "signal", sig)
		cancel()
	}()

	gameRepo, closer, err := openGameRepository(ctx, conf)
	if err != nil {
		return err
	}

	defer func() {
		if err = closer.Close(); err != nil {
			log.Error("could not close storage", "error", err)
		}
	}()

	coordinator := service.NewCoordinator(logger)
	mapper := service.NewMoveMapper(gameRepo)
	gamePlayService := service.NewGamePlayService(logger, gameRepo, coordinator, mapper, service.NewBotDriver(conf.Bot.Seed))
	gameUseCase := usecase.NewGameUseCase(logger, service.NewGameService(gameRepo), gamePlayService, coordinator, mapper)

	// run HTTP server
	httpErrCh := make(chan error, 1)
	go func() {
		if httpErr := rest.New(logger, gameUseCase).Start(ctx, conf.HTTPPort); httpErr != nil {
			log.Error("HTTP server error", "error", httpErr)
			httpErrCh <- httpErr
		}
	}()

	// run Websocket server
	wsErrCh := make(chan error, 1)
	go func() {
		if wsErr := websocket.New(logger, gameUseCase).Start(ctx, conf.SocketPort); wsErr != nil {
			log.Error("WebSocket server error", "error", wsErr)
			wsErrCh <- wsErr
		}
	}()

	select {
	case err = <-httpErrCh:
		return fmt.Errorf("HTTP server error: %w", err)
	case err = <-wsErrCh:
		return fmt.Errorf("WebSocket server error: %w", err)
	case <-ctx.Done():
		log.Info("Application context canceled, shutting down")
		return nil
	}
}

// openGameRepository connects the configured durable store.
func openGameRepository(ctx context.Context, conf *config.Config) (repository.GameRepository, io.Closer, error) {
	switch conf.Storage.Driver {
	case config.DriverSQLite:
		sqliteStorage, err := storage.NewSQLiteStorage(conf.SQLite.Path)
		if err != nil {
			return nil, nil, fmt.Errorf("could not open sqlite storage: %w", err)
		}

		if err = sqliteStorage.Init(ctx); err != nil {
			_ = sqliteStorage.Close()
			return nil, nil, fmt.Errorf("could not init sqlite storage: %w", err)
		}

		return repository.NewSQLiteGameRepository(sqliteStorage.Connection), sqliteStorage, nil
	default:
		redisAddrString := conf.Redis.GetRedisAddr()
		if conf.Redis.Host == "" {
			return nil, nil, ErrAddrNotFound
		}

		redisStorage, err := storage.NewRedisStorage(ctx, redisAddrString, conf.Redis.Password, conf.Redis.DB)
		if err != nil {
			return nil, nil, fmt.Errorf("could not connect to redis storage: %w", err)
		}

		return repository.NewRedisGameRepository(redisStorage.Connection), redisStorage, nil
	}
}
