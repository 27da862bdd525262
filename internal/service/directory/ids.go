package directory

import (
	"strconv"
	"sync"
	"time"
)

const customIDPrefix = "custom-"

// idGenerator issues custom-<unix-millis> ids that never repeat within a
// process, even when two creates land in the same millisecond.
type idGenerator struct {
	mu   sync.Mutex
	last int64
}

func (g *idGenerator) next(now time.Time) string {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := now.UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return customIDPrefix + strconv.FormatInt(ms, 10)
}
