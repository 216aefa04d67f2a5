package building

import (
	"fmt"

	"github.com/liftsim/liftsim/internal/queue"
	"github.com/liftsim/liftsim/internal/randsrc"
	"github.com/liftsim/liftsim/pkg/core"
)

// Floor is a building level and its queue of waiting passengers.
// Every waiting passenger has Origin == Number.
type Floor struct {
	Number  int
	waiting *queue.Queue[core.Passenger]
}

// NewFloor creates floor number in a building of floorCount and populates
// it with a random number of passengers in the configured range.
func NewFloor(number, floorCount int, ids *IDCounter, src randsrc.Source, cfg Config) (*Floor, error) {
	if floorCount-1 < 2 {
		return nil, fmt.Errorf("%w: floor count %d leaves no valid destination", ErrInvalidConfig, floorCount)
	}
	if number < 1 || number >= floorCount {
		return nil, fmt.Errorf("%w: floor %d outside 1..%d", ErrInvalidConfig, number, floorCount-1)
	}
	if cfg.MinPassengers < 0 || cfg.MaxPassengers < cfg.MinPassengers {
		return nil, fmt.Errorf("%w: passenger range [%d,%d]", ErrInvalidConfig, cfg.MinPassengers, cfg.MaxPassengers)
	}
	return newFloor(number, floorCount, ids, src, cfg), nil
}

func newFloor(number, floorCount int, ids *IDCounter, src randsrc.Source, cfg Config) *Floor {
	f := &Floor{
		Number:  number,
		waiting: queue.New[core.Passenger](),
	}

	n := randsrc.Inclusive(src, cfg.MinPassengers, cfg.MaxPassengers)
	for i := 0; i < n; i++ {
		f.waiting.Push(core.NewPassenger(ids.Next(), number, destination(number, floorCount, src)))
	}
	return f
}

// destination draws uniformly from 1..floorCount-1, resampling while the
// draw equals origin.
func destination(origin, floorCount int, src randsrc.Source) int {
	d := randsrc.Inclusive(src, 1, floorCount-1)
	for d == origin {
		d = randsrc.Inclusive(src, 1, floorCount-1)
	}
	return d
}

// NewFloorWith builds a floor holding exactly the given passengers.
// Passengers whose origin differs from number are rejected.
func NewFloorWith(number int, passengers ...core.Passenger) (*Floor, error) {
	for _, p := range passengers {
		if p.Origin != number {
			return nil, fmt.Errorf("passenger %d has origin %d, not floor %d", p.ID, p.Origin, number)
		}
		if p.Destination == p.Origin {
			return nil, fmt.Errorf("passenger %d has destination equal to origin %d", p.ID, p.Origin)
		}
	}
	f := &Floor{
		Number:  number,
		waiting: queue.New[core.Passenger](),
	}
	f.waiting.Push(passengers...)
	return f, nil
}

// Count returns the number of waiting passengers.
func (f *Floor) Count() int {
	return f.waiting.Len()
}

// Waiting returns a copy of the waiting queue in order.
func (f *Floor) Waiting() []core.Passenger {
	return f.waiting.Items()
}

// TakeEligible removes up to limit passengers matching pred, in queue order.
func (f *Floor) TakeEligible(pred func(core.Passenger) bool, limit int) []core.Passenger {
	return f.waiting.TakeIf(pred, limit)
}

// View returns a read-only copy of the floor.
func (f *Floor) View() core.FloorView {
	return core.FloorView{
		Number:  f.Number,
		Waiting: f.Waiting(),
	}
}

func (f *Floor) String() string {
	return fmt.Sprintf("F%d", f.Number)
}

// Views copies every floor in floors.
func Views(floors []*Floor) []core.FloorView {
	views := make([]core.FloorView, len(floors))
	for i, f := range floors {
		views[i] = f.View()
	}
	return views
}
