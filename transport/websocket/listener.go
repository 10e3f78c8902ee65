package websocket

import (
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var errNotAccepted = errors.New("listener is not accepted")

// listener is one browser connection. It is upgraded lazily so the coordinator
// decides whether the handshake happens at all.
type listener struct {
	id string

	upgrader *websocket.Upgrader
	writer   http.ResponseWriter
	request  *http.Request

	mu   sync.Mutex
	conn *websocket.Conn
}

func newListener(upgrader *websocket.Upgrader, writer http.ResponseWriter, request *http.Request) *listener {
	return &listener{
		id:       uuid.NewString(),
		upgrader: upgrader,
		writer:   writer,
		request:  request,
	}
}

func (that *listener) Accept() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.upgrade()
}

func (that *listener) upgrade() error {
	if that.conn != nil {
		return nil
	}

	conn, err := that.upgrader.Upgrade(that.writer, that.request, nil)
	if err != nil {
		return fmt.Errorf("failed to upgrade connection: %w", err)
	}

	that.conn = conn

	return nil
}

func (that *listener) Send(message []byte) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn == nil {
		return errNotAccepted
	}

	if err := that.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return fmt.Errorf("failed to set write deadline: %w", err)
	}

	if err := that.conn.WriteMessage(websocket.TextMessage, message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *listener) ping() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn == nil {
		return errNotAccepted
	}

	return that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
}

// reject completes the handshake if needed and closes with code, so the client
// sees an explicit close instead of a failed upgrade.
func (that *listener) reject(code int, reason string) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if err := that.upgrade(); err != nil {
		return err
	}

	message := websocket.FormatCloseMessage(code, reason)
	if err := that.conn.WriteControl(websocket.CloseMessage, message, time.Now().Add(writeWait)); err != nil {
		_ = that.conn.Close()
		return fmt.Errorf("failed to write close message: %w", err)
	}

	return that.conn.Close()
}

func (that *listener) close() error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.conn == nil {
		return nil
	}

	return that.conn.Close()
}
