// Package recorder turns elevator notifications into trace records and
// hands them to a storage backend.
package recorder

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/liftsim/liftsim/internal/elevator"
	"github.com/liftsim/liftsim/internal/storage"
	"github.com/liftsim/liftsim/internal/trajectory"
	"github.com/liftsim/liftsim/pkg/core"
)

// ErrNoRun is returned by Finish when StartRun was never called.
var ErrNoRun = errors.New("no run started")

// Recorder is an elevator.Sink that persists what it is told.
// Storage errors are logged and counted; they never reach the elevator.
type Recorder struct {
	backend storage.Backend
	log     *slog.Logger
	now     func() time.Time

	mu       sync.Mutex
	run      *core.Run
	sweep    int
	seq      int
	failures int
}

var (
	_ elevator.Sink       = (*Recorder)(nil)
	_ elevator.SweepEnder = (*Recorder)(nil)
)

// New returns a Recorder writing to backend.
func New(backend storage.Backend, log *slog.Logger) *Recorder {
	if log == nil {
		log = slog.Default()
	}
	return &Recorder{
		backend: backend,
		log:     log.With("component", "recorder"),
		now:     time.Now,
	}
}

// StartRun registers run with the backend and returns it with its ID set.
func (r *Recorder) StartRun(run core.Run) (core.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if run.StartTime.IsZero() {
		run.StartTime = r.now()
	}
	if err := r.backend.StartRun(&run); err != nil {
		return run, fmt.Errorf("start run: %w", err)
	}

	r.run = &run
	r.sweep = 0
	r.seq = 0
	r.failures = 0
	r.log.Debug("Run started", "run_id", run.ID, "seed", run.Seed)
	return run, nil
}

// Finish fills in the run totals and the car trajectory from res and closes
// the run in the backend.
func (r *Recorder) Finish(res elevator.Result) (core.Run, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.run == nil {
		return core.Run{}, ErrNoRun
	}

	run := *r.run
	run.EndTime = r.now()
	run.Sweeps = res.Sweeps
	run.Delivered = res.Delivered
	wkt, travelled, err := trajectory.Summary(res.Path)
	if err != nil {
		return core.Run{}, fmt.Errorf("summarise path: %w", err)
	}
	run.Trajectory, run.FloorsTravelled = wkt, travelled

	if err := r.backend.EndRun(&run); err != nil {
		return run, fmt.Errorf("end run: %w", err)
	}
	r.run = &run

	if r.failures > 0 {
		r.log.Warn("Run finished with storage failures", "run_id", run.ID, "failures", r.failures)
	}
	return run, nil
}

// Failures returns how many records could not be stored in the current run.
func (r *Recorder) Failures() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.failures
}

func (r *Recorder) runID() uint {
	if r.run == nil {
		return 0
	}
	return r.run.ID
}

func (r *Recorder) check(what string, err error) {
	if err == nil {
		return
	}
	r.failures++
	r.log.Error("Failed to record", "record", what, "error", err)
}

// SweepStart advances the sweep counter.
func (r *Recorder) SweepStart(core.Direction) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweep++
}

// BuildingSummary records the generated population.
func (r *Recorder) BuildingSummary(floors []core.FloorView) {
	var ps []core.Passenger
	for _, f := range floors {
		ps = append(ps, f.Waiting...)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.check("passengers", r.backend.RecordPassengers(ps))
}

// FloorSnapshot records a visit.
func (r *Recorder) FloorSnapshot(s core.FloorSnapshot) {
	onboard := make([]int, 0, len(s.Onboard))
	for _, p := range s.Onboard {
		onboard = append(onboard, p.ID)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	sweep := s.Sweep
	if sweep == 0 {
		sweep = r.sweep
	}
	r.check("visit", r.backend.RecordVisit(&core.Visit{
		RunID:     r.runID(),
		Seq:       r.seq,
		Sweep:     sweep,
		Floor:     s.Floor.Number,
		Direction: s.Direction,
		Onboard:   onboard,
		Waiting:   len(s.Floor.Waiting),
		Time:      r.now(),
	}))
}

// PassengerEvent records a passenger entering or leaving the car.
func (r *Recorder) PassengerEvent(p core.Passenger, entered bool, floor int) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++
	r.check("passenger event", r.backend.RecordPassengerEvent(&core.PassengerEvent{
		RunID:       r.runID(),
		Seq:         r.seq,
		Sweep:       r.sweep,
		PassengerID: p.ID,
		Floor:       floor,
		Entered:     entered,
		Time:        r.now(),
	}))
}

// SweepEnd records the sweep totals.
func (r *Recorder) SweepEnd(sum core.SweepSummary) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.check("sweep", r.backend.RecordSweep(&core.Sweep{
		RunID:        r.runID(),
		SweepSummary: sum,
		Time:         r.now(),
	}))
}
