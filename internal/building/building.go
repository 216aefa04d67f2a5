// Package building generates the floor topology and the waiting passenger
// population for one simulation run.
package building

import (
	"errors"
	"fmt"
	"sync"

	"github.com/liftsim/liftsim/internal/randsrc"
)

// ErrInvalidConfig is returned when a configuration could never produce a
// valid passenger destination.
var ErrInvalidConfig = errors.New("invalid building configuration")

// Config bounds the random demand generation.
// Floor counts are sampled in [MinFloors, MaxFloors); a building with
// floor count n has floors numbered 1..n-1.
type Config struct {
	MinFloors     int
	MaxFloors     int
	MinPassengers int
	MaxPassengers int
}

// DefaultConfig returns floor count in [5,20) and 0..9 passengers per floor.
func DefaultConfig() Config {
	return Config{
		MinFloors:     5,
		MaxFloors:     20,
		MinPassengers: 0,
		MaxPassengers: 9,
	}
}

// Validate reports whether c can generate a building.
func (c Config) Validate() error {
	if c.MinFloors < 3 {
		return fmt.Errorf("%w: minFloors %d leaves fewer than 2 floors", ErrInvalidConfig, c.MinFloors)
	}
	if c.MaxFloors <= c.MinFloors {
		return fmt.Errorf("%w: maxFloors %d must exceed minFloors %d", ErrInvalidConfig, c.MaxFloors, c.MinFloors)
	}
	if c.MinPassengers < 0 {
		return fmt.Errorf("%w: minPassengers %d is negative", ErrInvalidConfig, c.MinPassengers)
	}
	if c.MaxPassengers < c.MinPassengers {
		return fmt.Errorf("%w: maxPassengers %d below minPassengers %d", ErrInvalidConfig, c.MaxPassengers, c.MinPassengers)
	}
	return nil
}

// IDCounter hands out passenger ids. It is owned by a Building and passed
// explicitly to each Floor it constructs.
type IDCounter struct {
	mu   sync.Mutex
	next int
}

// NewIDCounter creates a counter whose first id is start.
func NewIDCounter(start int) *IDCounter {
	return &IDCounter{next: start}
}

// Next returns the next id and advances the counter.
func (c *IDCounter) Next() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.next
	c.next++
	return id
}

// Peek returns the id the next call to Next will hand out.
func (c *IDCounter) Peek() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

// Building produces the floors for one run.
type Building struct {
	cfg        Config
	src        randsrc.Source
	ids        *IDCounter
	floorCount int
}

// New validates cfg and returns a Building drawing from src.
func New(cfg Config, src randsrc.Source) (*Building, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Building{
		cfg: cfg,
		src: src,
		ids: NewIDCounter(1),
	}, nil
}

// GenerateFloors samples the floor count and builds floors 1..count-1 in
// ascending order. Passenger ids are unique across the whole building.
func (b *Building) GenerateFloors() []*Floor {
	b.floorCount = randsrc.Between(b.src, b.cfg.MinFloors, b.cfg.MaxFloors)

	floors := make([]*Floor, 0, b.floorCount-1)
	for n := 1; n < b.floorCount; n++ {
		floors = append(floors, newFloor(n, b.floorCount, b.ids, b.src, b.cfg))
	}
	return floors
}

// FloorCount returns the sampled floor count, or 0 before GenerateFloors.
func (b *Building) FloorCount() int {
	return b.floorCount
}

// IDs returns the building's passenger id counter.
func (b *Building) IDs() *IDCounter {
	return b.ids
}
