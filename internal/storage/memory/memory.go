// Package memory keeps the run trace in memory and exports it to a JSON file
// when the run ends.
package memory

import (
	"errors"
	"sync"

	"github.com/liftsim/liftsim/internal/config"
	"github.com/liftsim/liftsim/pkg/core"
)

// Backend stores run data in memory and exports to JSON
type Backend struct {
	cfg config.MemoryConfig

	run             *core.Run
	passengers      []core.Passenger
	visits          []core.Visit
	passengerEvents []core.PassengerEvent
	sweeps          []core.Sweep

	exportedPath string
	idCounter    uint
	mu           sync.RWMutex
}

// New creates a new memory backend
func New(cfg config.MemoryConfig) *Backend {
	return &Backend{cfg: cfg}
}

// Init initializes the backend
func (b *Backend) Init() error {
	return nil
}

// Close cleans up resources
func (b *Backend) Close() error {
	return nil
}

// StartRun begins recording a new run. Anything recorded for a previous
// run is discarded.
func (b *Backend) StartRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.idCounter++
	run.ID = b.idCounter

	r := *run
	b.run = &r
	b.passengers = nil
	b.visits = nil
	b.passengerEvents = nil
	b.sweeps = nil
	b.exportedPath = ""
	return nil
}

// EndRun stores the final run totals and writes the export file.
func (b *Backend) EndRun(run *core.Run) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.run == nil {
		return errors.New("no run started")
	}
	r := *run
	b.run = &r

	return b.exportJSON()
}

// RecordPassengers stores the generated population.
func (b *Backend) RecordPassengers(ps []core.Passenger) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passengers = append(b.passengers, ps...)
	return nil
}

// RecordVisit stores a floor visit. Onboard ids are copied.
func (b *Backend) RecordVisit(v *core.Visit) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	visit := *v
	visit.Onboard = append([]int(nil), v.Onboard...)
	b.visits = append(b.visits, visit)
	return nil
}

// RecordPassengerEvent stores a passenger event.
func (b *Backend) RecordPassengerEvent(e *core.PassengerEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.passengerEvents = append(b.passengerEvents, *e)
	return nil
}

// RecordSweep stores a sweep summary.
func (b *Backend) RecordSweep(s *core.Sweep) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.sweeps = append(b.sweeps, *s)
	return nil
}

// ExportedFilePath returns the path of the last export, empty before EndRun.
func (b *Backend) ExportedFilePath() string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.exportedPath
}
