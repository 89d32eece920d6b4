package scheduler

import (
	"fmt"

	"github.com/petermattis/goid"
)

// threadChecker pins a Loop to one goroutine. The first checked call binds
// it; later calls from any other goroutine panic.
type threadChecker struct {
	enabled bool
	bound   bool
	owner   int64
}

func (c *threadChecker) check(op string) {
	if !c.enabled {
		return
	}
	id := goid.Get()
	if !c.bound {
		c.owner, c.bound = id, true
		return
	}
	if id != c.owner {
		panic(fmt.Sprintf("scheduler: %s called on goroutine %d, loop belongs to goroutine %d", op, id, c.owner))
	}
}

func (c *threadChecker) unbind() {
	c.bound = false
	c.owner = 0
}
