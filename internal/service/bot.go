package service

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rocketscienceinc/fourinrow-backend/internal/entity"
	"github.com/rocketscienceinc/fourinrow-backend/internal/gravity"
)

// BotDriver picks moves for automated opponents.
type BotDriver struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewBotDriver seeds the driver. A zero seed uses the current time.
func NewBotDriver(seed int64) *BotDriver {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &BotDriver{
		rnd: rand.New(rand.NewSource(seed)), //nolint: gosec // it's ok
	}
}

// ChooseMove picks uniformly among the row ends that are still empty. When every
// row end is taken it falls back to any row that still has room.
func (that *BotDriver) ChooseMove(board entity.Board) (entity.Move, bool) {
	moves := gravity.EdgeMoves(board)
	if len(moves) == 0 {
		moves = gravity.OpenMoves(board)
	}

	if len(moves) == 0 {
		return entity.Move{}, false
	}

	that.mu.Lock()
	chosen := moves[that.rnd.Intn(len(moves))]
	that.mu.Unlock()

	return chosen, true
}
