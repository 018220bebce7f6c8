// Package idgen supplies unique ids for synthesized names.
package idgen

import (
	"strconv"
	"sync/atomic"
)

// Supplier hands out "0", "1", "2", ... and never repeats. It is safe for
// concurrent use.
type Supplier struct {
	next atomic.Uint64
}

// New creates a supplier starting at zero.
func New() *Supplier {
	return &Supplier{}
}

// Next returns the next unused id.
func (s *Supplier) Next() string {
	return strconv.FormatUint(s.next.Add(1)-1, 10)
}
