package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinrow-backend/internal/service"
)

const shutdownTimeout = 5 * time.Second

type gameUseCase interface {
	Connect(ctx context.Context, gameID int64, identity string, listener service.Listener) bool
	Disconnect(gameID int64, identity string, listener service.Listener)

	MakeMove(ctx context.Context, gameID int64, identity string, move entity.Move) (*entity.GameView, error)
}

// client is the accepted connection of identity to a game.
type client struct {
	gameID   int64
	identity string
	listener *listener
}

type Server struct {
	logger   *slog.Logger
	router   *chi.Mux
	upgrader *websocket.Upgrader
	games    gameUseCase

	handlers map[string]func(ctx context.Context, client *client, message *Message) error
}

func New(logger *slog.Logger, games gameUseCase) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		router: chi.NewRouter(),
		upgrader: &websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
		games: games,

		handlers: make(map[string]func(context.Context, *client, *Message) error),
	}

	server.handlers[actionMove] = server.handleMove

	server.router.Use(chimw.RequestID)
	server.router.Use(chimw.Recoverer)
	server.router.Get("/ws/{gameID}", server.handleConnect)

	return server
}

func (that *Server) Handler() http.Handler {
	return that.router
}

// Start serves until ctx is done and then shuts down gracefully.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:        ":" + port,
		Handler:     that.router,
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 30 * time.Second,
	}

	go func() {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			that.logger.Error("failed to shutdown server", "error", err)
		}
	}()

	that.logger.Info("WebSocket server started", "port", port)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// handleConnect upgrades the request and keeps the connection registered with
// the game until the client goes away.
func (that *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	gameID, err := strconv.ParseInt(chi.URLParam(r, "gameID"), 10, 64)
	if err != nil {
		http.Error(w, "invalid game id", http.StatusBadRequest)
		return
	}

	identity := r.URL.Query().Get("token")
	conn := newListener(that.upgrader, w, r)

	log := that.logger.With("method", "handleConnect", "gameID", gameID, "playerID", identity, "connID", conn.id)

	if identity == "" || entity.IsBot(identity) || !that.games.Connect(r.Context(), gameID, identity, conn) {
		if err = conn.reject(websocket.ClosePolicyViolation, "not a participant of this game"); err != nil {
			log.Warn("failed to reject connection", "error", err)
		}
		log.Info("connection rejected")
		return
	}

	log.Info("WebSocket connection established")

	current := &client{gameID: gameID, identity: identity, listener: conn}

	defer func() {
		that.games.Disconnect(gameID, identity, conn)
		if err := conn.close(); err != nil {
			log.Debug("failed to close connection", "error", err)
		}
		log.Info("WebSocket connection closed")
	}()

	done := make(chan struct{})
	defer close(done)

	go that.keepAlive(conn, done, log)

	that.handleMessages(r.Context(), current, log)
}

// handleMessages reads client messages until the connection fails.
func (that *Server) handleMessages(ctx context.Context, current *client, log *slog.Logger) {
	conn := current.listener.conn

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("unexpected close", "error", err)
			}
			return
		}

		var message Message
		if err = json.Unmarshal(raw, &message); err != nil {
			log.Info("failed to unmarshal message", "error", err)
			that.replyError(current, err)
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			that.replyError(current, fmt.Errorf("%w: %q", errUnknownAction, message.Action))
			continue
		}

		if err = handler(ctx, current, &message); err != nil {
			log.Info("failed to process message", "action", message.Action, "error", err)
			that.replyError(current, err)
		}
	}
}

func (that *Server) keepAlive(conn *listener, done <-chan struct{}, log *slog.Logger) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if err := conn.ping(); err != nil {
				log.Debug("failed to ping", "error", err)
				return
			}
		}
	}
}
