package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/w-h-a/helpdesk/history"
)

type memoryHistory struct {
	options history.Options
	turns   map[string][]history.Turn
	mtx     sync.RWMutex
}

// List returns a user's turns in insertion order.
func (h *memoryHistory) List(ctx context.Context, userId string) ([]history.Turn, error) {
	h.mtx.RLock()
	defer h.mtx.RUnlock()

	return append([]history.Turn{}, h.turns[userId]...), nil
}

func (h *memoryHistory) Append(ctx context.Context, turn history.Turn) error {
	h.mtx.Lock()
	defer h.mtx.Unlock()

	turn.Id = uuid.New().String()

	h.turns[turn.UserId] = append(h.turns[turn.UserId], turn)

	return nil
}

func NewHistory(opts ...history.Option) history.History {
	options := history.NewOptions(opts...)

	h := &memoryHistory{
		options: options,
		turns:   map[string][]history.Turn{},
		mtx:     sync.RWMutex{},
	}

	return h
}
