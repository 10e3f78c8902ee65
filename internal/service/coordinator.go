package service

import (
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/fourinrow-backend/internal/apperror"
	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
)

// Coordinator is the registry of live game sessions. Each game is guarded by its
// own lock so a slow connection handshake never stalls other games.
type Coordinator struct {
	logger *slog.Logger

	mu       sync.RWMutex
	sessions map[int64]*sessionContext
	bots     map[int64]string
}

func NewCoordinator(logger *slog.Logger) *Coordinator {
	return &Coordinator{
		logger:   logger.With("component", "coordinator"),
		sessions: make(map[int64]*sessionContext),
		bots:     make(map[int64]string),
	}
}

func (that *Coordinator) session(gameID int64) (*sessionContext, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	session, ok := that.sessions[gameID]
	return session, ok
}

// RegisterGame opens a session with the host to move first. Registering an
// already known game keeps its state.
func (that *Coordinator) RegisterGame(gameID int64, host string) {
	that.RestoreGame(gameID, host, "", host, false)
}

// RestoreGame opens a session for a game that already has participants and a
// turn, e.g. a durable game seen for the first time since start. With bot set
// the enemy is registered as the game's bot in the same step.
func (that *Coordinator) RestoreGame(gameID int64, host, enemy, turn string, bot bool) bool {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.sessions[gameID]; ok {
		return false
	}

	that.sessions[gameID] = newSessionContext(host, enemy, turn)
	if bot && enemy != "" {
		if _, ok := that.bots[gameID]; !ok {
			that.bots[gameID] = enemy
		}
	}
	that.logger.Debug("game registered", "gameID", gameID, "host", host, "enemy", enemy)

	return true
}

func (that *Coordinator) IsRegistered(gameID int64) bool {
	_, ok := that.session(gameID)
	return ok
}

// Connect attaches a listener of player to the game. It accepts the listener only
// for the host or the enemy of a registered game and reports false otherwise,
// in which case the caller must close the connection.
func (that *Coordinator) Connect(player string, gameID int64, listener Listener) bool {
	log := that.logger.With("method", "Connect", "gameID", gameID, "playerID", player)

	session, ok := that.session(gameID)
	if !ok {
		log.Info("connect to unknown game")
		return false
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if !session.isParticipant(player) {
		log.Info("connect by non participant")
		return false
	}

	if err := listener.Accept(); err != nil {
		log.Error("failed to accept listener", "error", err)
		return false
	}

	session.connections = append(session.connections, connection{player: player, listener: listener})

	return true
}

// Disconnect detaches the listener. Unknown pairs are ignored.
func (that *Coordinator) Disconnect(player string, gameID int64, listener Listener) {
	session, ok := that.session(gameID)
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.removeConnection(player, listener) {
		that.logger.Debug("listener disconnected", "gameID", gameID, "playerID", player)
	}
}

// AddEnemyToGame seats player as the second participant.
func (that *Coordinator) AddEnemyToGame(player string, gameID int64) error {
	session, ok := that.session(gameID)
	if !ok {
		return apperror.GameFull(gameID)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.hasEnemy() || player == "" || player == session.host {
		return apperror.GameFull(gameID)
	}

	session.enemy = player

	return nil
}

// AddAiAgentToGame seats identity as the enemy and registers it as the game's
// bot in one step under the session lock.
func (that *Coordinator) AddAiAgentToGame(identity string, gameID int64) error {
	session, ok := that.session(gameID)
	if !ok {
		return apperror.GameFull(gameID)
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.hasEnemy() || identity == "" || identity == session.host {
		return apperror.GameFull(gameID)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	if registered, ok := that.bots[gameID]; ok && registered != identity {
		return apperror.GameFull(gameID)
	}

	session.enemy = identity
	that.bots[gameID] = identity

	return nil
}

// RemoveEnemyFromGame undoes AddEnemyToGame or AddAiAgentToGame when the
// durable join fails.
func (that *Coordinator) RemoveEnemyFromGame(player string, gameID int64) {
	session, ok := that.session(gameID)
	if !ok {
		return
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.enemy != player {
		return
	}

	session.enemy = ""
	session.turn = session.host

	that.mu.Lock()
	if that.bots[gameID] == player {
		delete(that.bots, gameID)
	}
	that.mu.Unlock()
}

// CanMove reports whether both seats are taken and it is exactly player's turn.
func (that *Coordinator) CanMove(player string, gameID int64) bool {
	session, ok := that.session(gameID)
	if !ok {
		return false
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return session.hasEnemy() && player != "" && session.turn == player
}

// SetTurn passes the turn to the other participant and returns it.
func (that *Coordinator) SetTurn(gameID int64) (string, bool) {
	session, ok := that.session(gameID)
	if !ok {
		return "", false
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	next, ok := session.nextTurn()
	if !ok {
		return "", false
	}

	session.turn = next

	return next, true
}

func (that *Coordinator) GetTurn(gameID int64) (string, bool) {
	session, ok := that.session(gameID)
	if !ok {
		return "", false
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	return session.turn, true
}

// LockMoves serializes move pipelines of one game. The returned func releases it.
func (that *Coordinator) LockMoves(gameID int64) (func(), bool) {
	session, ok := that.session(gameID)
	if !ok {
		return nil, false
	}

	session.moves.Lock()

	return session.moves.Unlock, true
}

// BroadcastGameUpdate pushes event to every live listener of the game and
// returns how many received it.
func (that *Coordinator) BroadcastGameUpdate(event entity.Event, gameID int64) int {
	log := that.logger.With("method", "BroadcastGameUpdate", "gameID", gameID, "type", event.Type)

	session, ok := that.session(gameID)
	if !ok {
		return 0
	}

	message, err := json.Marshal(event)
	if err != nil {
		log.Error("failed to marshal event", "error", err)
		return 0
	}

	session.mu.Lock()
	listeners := session.listeners()
	session.mu.Unlock()

	delivered := 0
	for _, conn := range listeners {
		if err = conn.listener.Send(message); err != nil {
			log.Warn("failed to send event", "playerID", conn.player, "error", err)
			continue
		}
		delivered++
	}

	return delivered
}

// RegisterNewAiAgent binds a bot identity to the game. A game keeps its first bot.
func (that *Coordinator) RegisterNewAiAgent(gameID int64, identity string) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.bots[gameID]; ok {
		return
	}

	that.bots[gameID] = identity
}

func (that *Coordinator) AiAgent(gameID int64) (string, bool) {
	that.mu.RLock()
	defer that.mu.RUnlock()

	identity, ok := that.bots[gameID]
	return identity, ok
}

// IsAiAgent reports whether identity is the registered bot of the game.
func (that *Coordinator) IsAiAgent(gameID int64, identity string) bool {
	registered, ok := that.AiAgent(gameID)
	return ok && registered == identity
}
