package memory

import (
	"context"
	"sync"

	"github.com/w-h-a/helpdesk/alerter"
)

type MemoryAlerter struct {
	options  alerter.Options
	messages []string
	err      error
	mtx      sync.RWMutex
}

func (a *MemoryAlerter) Publish(ctx context.Context, message string) error {
	a.mtx.Lock()
	defer a.mtx.Unlock()

	if a.err != nil {
		return a.err
	}

	a.messages = append(a.messages, message)

	return nil
}

func (a *MemoryAlerter) Messages() []string {
	a.mtx.RLock()
	defer a.mtx.RUnlock()

	cpy := make([]string, len(a.messages))
	copy(cpy, a.messages)

	return cpy
}

// FailWith makes every following Publish return err. Pass nil to recover.
func (a *MemoryAlerter) FailWith(err error) {
	a.mtx.Lock()
	defer a.mtx.Unlock()
	a.err = err
}

func NewAlerter(opts ...alerter.Option) *MemoryAlerter {
	options := alerter.NewOptions(opts...)

	return &MemoryAlerter{
		options: options,
		mtx:     sync.RWMutex{},
	}
}
