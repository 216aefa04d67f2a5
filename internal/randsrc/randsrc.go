// Package randsrc isolates the random demand generator behind a small
// interface so runs can be seeded and tests can script exact sequences.
package randsrc

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Source yields integers uniformly in [0, n).
type Source interface {
	IntN(n int) int
}

// New returns a deterministic PCG-backed source for seed.
func New(seed uint64) Source {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// TimeSeed returns a seed derived from the wall clock.
func TimeSeed() uint64 {
	return uint64(time.Now().UnixNano())
}

// Between returns a value in the half-open range [lo, hi).
func Between(src Source, lo, hi int) int {
	return lo + src.IntN(hi-lo)
}

// Inclusive returns a value in the closed range [lo, hi].
func Inclusive(src Source, lo, hi int) int {
	return lo + src.IntN(hi-lo+1)
}

// Scripted replays fixed values. Each call to IntN consumes one value,
// which must lie in [0, n). Once exhausted it keeps returning 0.
type Scripted struct {
	values []int
	pos    int
}

// NewScripted creates a source that replays values in order.
func NewScripted(values ...int) *Scripted {
	return &Scripted{values: values}
}

// IntN returns the next scripted value.
func (s *Scripted) IntN(n int) int {
	if s.pos >= len(s.values) {
		return 0
	}
	v := s.values[s.pos]
	s.pos++
	if v < 0 || v >= n {
		panic(fmt.Sprintf("randsrc: scripted value %d out of range [0,%d)", v, n))
	}
	return v
}

// Remaining reports how many scripted values have not been consumed.
func (s *Scripted) Remaining() int {
	return len(s.values) - s.pos
}
