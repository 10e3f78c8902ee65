package service

import "sync"

// Listener is one live push connection of a viewer.
type Listener interface {
	// Accept completes the transport handshake before any message is sent.
	Accept() error
	Send(message []byte) error
}

type connection struct {
	player   string
	listener Listener
}

// sessionContext is the in-memory state of one active game.
type sessionContext struct {
	mu sync.Mutex

	host        string
	enemy       string
	turn        string
	connections []connection

	// moves serializes whole move pipelines of the game.
	moves sync.Mutex
}

func newSessionContext(host, enemy, turn string) *sessionContext {
	if turn == "" {
		turn = host
	}

	return &sessionContext{
		host:  host,
		enemy: enemy,
		turn:  turn,
	}
}

func (that *sessionContext) hasEnemy() bool {
	return that.enemy != ""
}

func (that *sessionContext) isParticipant(player string) bool {
	return player != "" && (player == that.host || player == that.enemy)
}

// nextTurn returns the participant that moves after the current one.
// There is none while the host waits alone.
func (that *sessionContext) nextTurn() (string, bool) {
	if !that.hasEnemy() {
		return "", false
	}

	if that.turn == that.host {
		return that.enemy, true
	}

	return that.host, true
}

func (that *sessionContext) removeConnection(player string, listener Listener) bool {
	for i, conn := range that.connections {
		if conn.player == player && conn.listener == listener {
			that.connections = append(that.connections[:i], that.connections[i+1:]...)
			return true
		}
	}

	return false
}

func (that *sessionContext) listeners() []connection {
	snapshot := make([]connection, len(that.connections))
	copy(snapshot, that.connections)

	return snapshot
}
