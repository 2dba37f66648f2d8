package testfixtures

import (
	"strconv"
	"sync/atomic"
)

// IDGenerator yields "prefix-1", "prefix-2", ... in call order, matching how
// tests refer to reservations ("res-1") and recurrence groups ("grp-1").
type IDGenerator struct {
	prefix  string
	counter atomic.Uint64
}

// NewIDGenerator uses "id" when prefix is empty.
func NewIDGenerator(prefix string) *IDGenerator {
	if prefix == "" {
		prefix = "id"
	}
	return &IDGenerator{prefix: prefix}
}

func (g *IDGenerator) Next() string {
	return g.prefix + "-" + strconv.FormatUint(g.counter.Add(1), 10)
}

// NextFunc returns a generator of empty ids for a nil receiver.
func (g *IDGenerator) NextFunc() func() string {
	if g == nil {
		return func() string { return "" }
	}
	return g.Next
}

// Issued reports how many ids have been handed out.
func (g *IDGenerator) Issued() int {
	return int(g.counter.Load())
}
