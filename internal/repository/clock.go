package repository

import (
	"sync"
	"time"
)

// creationClock hands out strictly increasing UTC timestamps at microsecond
// precision so creation order survives storage round trips.
type creationClock struct {
	mu   sync.Mutex
	last time.Time
}

var clock creationClock

func (c *creationClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Microsecond)
	if !now.After(c.last) {
		now = c.last.Add(time.Microsecond)
	}
	c.last = now
	return now
}
