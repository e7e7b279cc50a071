package history

import (
	"sync"
	"time"
)

// TimestampLayout is fixed width so timestamps sort lexically.
const TimestampLayout = "2006-01-02T15:04:05.000000Z"

// Clock hands out UTC timestamps that strictly increase within a process,
// so a store keyed on (user_id, timestamp) never overwrites a turn written
// by the same process. Writers in other processes may still collide.
type Clock struct {
	now  func() time.Time
	last time.Time
	mtx  sync.Mutex
}

func (c *Clock) Timestamp() string {
	c.mtx.Lock()
	defer c.mtx.Unlock()

	t := c.now().UTC().Truncate(time.Microsecond)
	if !t.After(c.last) {
		t = c.last.Add(time.Microsecond)
	}
	c.last = t

	return t.Format(TimestampLayout)
}

func NewClock(now func() time.Time) *Clock {
	if now == nil {
		now = time.Now
	}
	return &Clock{
		now: now,
		mtx: sync.Mutex{},
	}
}
