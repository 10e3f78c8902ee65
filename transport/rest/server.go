package rest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

const shutdownTimeout = 5 * time.Second

type gameUseCase interface {
	CreateGame(ctx context.Context, host string, width, height, lineTarget int) (*entity.Game, error)
	ListGames(ctx context.Context, identity string) ([]*entity.Game, error)
	GetGame(ctx context.Context, gameID int64) (*entity.Game, error)

	JoinGame(ctx context.Context, gameID int64, identity string) (*entity.Game, error)
	PlayAgainstBot(ctx context.Context, gameID int64, identity string) (*entity.Game, error)

	MakeMove(ctx context.Context, gameID int64, identity string, move entity.Move) (*entity.GameView, error)
	MapMove(ctx context.Context, gameID int64, move entity.Move) (*entity.MoveMapping, error)
}

type Server struct {
	logger   *slog.Logger
	router   *chi.Mux
	games    gameUseCase
	validate *validator.Validate
}

func New(logger *slog.Logger, games gameUseCase) *Server {
	server := &Server{
		logger:   logger.With("component", "rest"),
		router:   chi.NewRouter(),
		games:    games,
		validate: newValidator(),
	}

	server.router.Use(chimw.RequestID)
	server.router.Use(chimw.RealIP)
	server.router.Use(chimw.Recoverer)
	server.router.Use(jsonContentType)

	server.router.Get("/ping", handlePing)

	server.router.Route("/games", func(r chi.Router) {
		r.Use(requireToken)

		r.Post("/", server.handleCreateGame)
		r.Get("/", server.handleListGames)

		r.Route("/{gameID}", func(r chi.Router) {
			r.Get("/", server.handleGetGame)
			r.Post("/membership", server.handleJoinGame)
			r.Post("/bot", server.handlePlayAgainstBot)
			r.Post("/moves", server.handleMakeMove)
			r.Get("/mapping", server.handleMapMove)
		})
	})

	return server
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start serves until ctx is done and then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	that.logger.Info("REST server started", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		next.ServeHTTP(w, r)
	})
}
