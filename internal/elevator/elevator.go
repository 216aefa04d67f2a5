// Package elevator implements the single-car full-sweep scheduler.
//
// The car alternates between an upward and a downward sweep over every
// floor of the building. At each floor it first boards the waiting
// passengers heading the same way (up to capacity), then lets out everyone
// whose destination is that floor. Before each sweep it checks whether
// anybody is still waiting anywhere; if not, the run is over. A sweep that
// has started always runs to the last floor.
package elevator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/liftsim/liftsim/internal/building"
	"github.com/liftsim/liftsim/internal/logging"
	"github.com/liftsim/liftsim/pkg/core"
)

// DefaultCapacity is the number of passengers the car holds.
const DefaultCapacity = 5

// ErrInvalidCapacity is returned for a car that could never board anyone.
var ErrInvalidCapacity = errors.New("elevator capacity must be at least 1")

// Option configures an Elevator.
type Option func(*Elevator)

// WithCapacity sets the car capacity.
func WithCapacity(n int) Option {
	return func(e *Elevator) {
		e.capacity = n
	}
}

// WithLogger sets the logger used for scheduling debug output.
func WithLogger(l *slog.Logger) Option {
	return func(e *Elevator) {
		if l != nil {
			e.log = l
		}
	}
}

// State is a copy of the car's current state.
type State struct {
	CurrentFloor int
	Direction    core.Direction
	Onboard      []core.Passenger
}

// Result summarizes a finished run.
type Result struct {
	Sweeps    int
	Boarded   int
	Delivered int
	Visits    int
	Snapshots int
	PeakLoad  int
	// Path lists every visited floor number in visit order.
	Path []int
}

// Elevator is the scheduling core. It is not safe for concurrent use; all
// mutation of the car and of the floor queues happens inside Run/Sweep.
type Elevator struct {
	floors   []*building.Floor // ascending by number
	sink     Sink
	log      *slog.Logger
	capacity int

	currentFloor int
	direction    core.Direction
	onboard      []core.Passenger

	result Result
	sweep  core.SweepSummary
	logCtx context.Context // tags debug records with the sweep in progress
}

// New creates a car at rest below the lowest floor, heading up.
func New(floors []*building.Floor, sink Sink, opts ...Option) (*Elevator, error) {
	if sink == nil {
		sink = NopSink{}
	}

	sorted := slices.Clone(floors)
	slices.SortFunc(sorted, func(a, b *building.Floor) int {
		return a.Number - b.Number
	})

	e := &Elevator{
		floors:    sorted,
		sink:      sink,
		log:       slog.New(slog.DiscardHandler),
		capacity:  DefaultCapacity,
		direction: core.Up,
		logCtx:    context.Background(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, e.capacity)
	}
	return e, nil
}

// ExistsWaiting reports whether any floor still has a waiting passenger.
func ExistsWaiting(floors []*building.Floor) bool {
	for _, f := range floors {
		if f.Count() > 0 {
			return true
		}
	}
	return false
}

// Run announces the building population and sweeps until nobody waits.
// The waiting check happens only between sweeps.
func (e *Elevator) Run() Result {
	e.sink.BuildingSummary(building.Views(e.floors))

	for ExistsWaiting(e.floors) {
		e.Sweep()
	}

	e.log.Info("Run complete",
		"sweeps", e.result.Sweeps,
		"boarded", e.result.Boarded,
		"delivered", e.result.Delivered,
		"visits", e.result.Visits)
	return e.Result()
}

// Sweep visits every floor once in the current direction, then reverses.
func (e *Elevator) Sweep() {
	e.result.Sweeps++
	e.sweep = core.SweepSummary{
		Number:    e.result.Sweeps,
		Direction: e.direction,
	}

	e.logCtx = logging.ContextWith(context.Background(),
		slog.Int("sweep", e.sweep.Number),
		slog.String("direction", e.direction.String()))
	e.log.DebugContext(e.logCtx, "Sweep started")
	e.sink.SweepStart(e.direction)

	order := e.sweepOrder()
	for i := range order {
		e.visit(order, i)
	}

	for _, f := range e.floors {
		e.sweep.Waiting += f.Count()
	}
	if se, ok := e.sink.(SweepEnder); ok {
		se.SweepEnd(e.sweep)
	}

	e.direction = e.direction.Reverse()
}

func (e *Elevator) sweepOrder() []*building.Floor {
	if e.direction == core.Up {
		return e.floors
	}
	order := slices.Clone(e.floors)
	slices.Reverse(order)
	return order
}

func (e *Elevator) visit(order []*building.Floor, i int) {
	floor := order[i]
	e.currentFloor = floor.Number
	e.result.Visits++
	e.result.Path = append(e.result.Path, floor.Number)

	e.board(floor)
	e.dropOff()

	if len(e.onboard) == 0 {
		return
	}

	snap := core.FloorSnapshot{
		Sweep:     e.sweep.Number,
		Floor:     floor.View(),
		Onboard:   slices.Clone(e.onboard),
		Direction: e.direction,
	}
	if i > 0 {
		prev := order[i-1].View()
		snap.Previous = &prev
	}
	// Floor 1 is the bottom; moving down there has nowhere further to go.
	if i < len(order)-1 && !(floor.Number == 1 && e.direction == core.Down) {
		next := order[i+1].View()
		snap.Next = &next
	}

	e.result.Snapshots++
	e.sink.FloorSnapshot(snap)
}

// eligible reports whether p may board at the current floor in the current
// direction. A passenger never boards for a zero-length trip.
func (e *Elevator) eligible(p core.Passenger) bool {
	if e.direction == core.Up {
		return p.Destination > e.currentFloor
	}
	return p.Destination < e.currentFloor
}

func (e *Elevator) board(floor *building.Floor) {
	free := e.capacity - len(e.onboard)
	if free <= 0 {
		return
	}

	entered := floor.TakeEligible(e.eligible, free)
	for _, p := range entered {
		e.onboard = append(e.onboard, p)
		e.result.Boarded++
		e.sweep.Boarded++
		e.log.DebugContext(e.logCtx, "Passenger entered", "passenger", p.ID, "floor", floor.Number, "destination", p.Destination)
		e.sink.PassengerEvent(p, true, floor.Number)
	}

	if len(e.onboard) > e.result.PeakLoad {
		e.result.PeakLoad = len(e.onboard)
	}
	if len(e.onboard) > e.sweep.PeakLoad {
		e.sweep.PeakLoad = len(e.onboard)
	}
}

// dropOff runs after board for the same visit.
func (e *Elevator) dropOff() {
	kept := e.onboard[:0]
	var left []core.Passenger
	for _, p := range e.onboard {
		if p.Destination == e.currentFloor {
			left = append(left, p)
			continue
		}
		kept = append(kept, p)
	}
	e.onboard = kept

	for _, p := range left {
		e.result.Delivered++
		e.sweep.Delivered++
		e.log.DebugContext(e.logCtx, "Passenger arrived", "passenger", p.ID, "floor", e.currentFloor)
		e.sink.PassengerEvent(p, false, e.currentFloor)
	}
}

// State returns a copy of the car's state.
func (e *Elevator) State() State {
	return State{
		CurrentFloor: e.currentFloor,
		Direction:    e.direction,
		Onboard:      slices.Clone(e.onboard),
	}
}

// Result returns a copy of the running totals.
func (e *Elevator) Result() Result {
	r := e.result
	r.Path = slices.Clone(e.result.Path)
	return r
}

// Capacity returns the configured car capacity.
func (e *Elevator) Capacity() int {
	return e.capacity
}
