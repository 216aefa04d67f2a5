package recorder

import (
	"errors"
	"testing"
	"time"

	"github.com/liftsim/liftsim/internal/building"
	"github.com/liftsim/liftsim/internal/config"
	"github.com/liftsim/liftsim/internal/elevator"
	"github.com/liftsim/liftsim/internal/storage/memory"
	"github.com/liftsim/liftsim/internal/trajectory"
	"github.com/liftsim/liftsim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixed = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newRecorder(t *testing.T) (*Recorder, *memory.Backend) {
	t.Helper()
	backend := memory.New(config.MemoryConfig{OutputDir: t.TempDir()})
	r := New(backend, nil)
	r.now = func() time.Time { return fixed }
	return r, backend
}

func TestFinishWithoutStart(t *testing.T) {
	r, _ := newRecorder(t)
	_, err := r.Finish(elevator.Result{})
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestStartRun_SetsIDAndStartTime(t *testing.T) {
	r, _ := newRecorder(t)
	run, err := r.StartRun(core.Run{Seed: 4})
	require.NoError(t, err)
	assert.Equal(t, uint(1), run.ID)
	assert.Equal(t, fixed, run.StartTime)
}

func TestSinglePassengerRun(t *testing.T) {
	r, backend := newRecorder(t)

	floor1, err := building.NewFloorWith(1, core.NewPassenger(1, 1, 3))
	require.NoError(t, err)
	floors := []*building.Floor{floor1}
	for n := 2; n <= 4; n++ {
		f, err := building.NewFloorWith(n)
		require.NoError(t, err)
		floors = append(floors, f)
	}

	run, err := r.StartRun(core.Run{Seed: 1, FloorCount: 5, Capacity: 5, Passengers: 1})
	require.NoError(t, err)

	e, err := elevator.New(floors, r)
	require.NoError(t, err)
	res := e.Run()

	finished, err := r.Finish(res)
	require.NoError(t, err)
	assert.Equal(t, run.ID, finished.ID)
	assert.Equal(t, 1, finished.Sweeps)
	assert.Equal(t, 1, finished.Delivered)
	assert.Equal(t, fixed, finished.EndTime)

	wkt, travelled, err := trajectory.Summary(res.Path)
	require.NoError(t, err)
	assert.Equal(t, wkt, finished.Trajectory)
	assert.Equal(t, travelled, finished.FloorsTravelled)

	export := backend.Export()
	require.Len(t, export.Passengers, 1)
	// the car is non-empty only after boarding at 1 and passing 2
	require.Len(t, export.Visits, 2)
	assert.Equal(t, 1, export.Visits[0].Floor)
	assert.Equal(t, []int{1}, export.Visits[0].Onboard)
	assert.Equal(t, 2, export.Visits[1].Floor)

	require.Len(t, export.PassengerEvents, 2)
	assert.True(t, export.PassengerEvents[0].Entered)
	assert.Equal(t, 1, export.PassengerEvents[0].Floor)
	assert.False(t, export.PassengerEvents[1].Entered)
	assert.Equal(t, 3, export.PassengerEvents[1].Floor)

	require.Len(t, export.Sweeps, 1)
	assert.Equal(t, 1, export.Sweeps[0].Delivered)

	// sequence numbers are strictly increasing over visits and events
	seqs := map[int]bool{}
	for _, v := range export.Visits {
		seqs[v.Seq] = true
		assert.Equal(t, run.ID, v.RunID)
	}
	for _, ev := range export.PassengerEvents {
		seqs[ev.Seq] = true
	}
	assert.Len(t, seqs, 4)

	assert.NotEmpty(t, backend.ExportedFilePath())
	assert.Zero(t, r.Failures())
}

type failingBackend struct {
	*memory.Backend
}

var errBoom = errors.New("boom")

func (failingBackend) RecordVisit(*core.Visit) error                   { return errBoom }
func (failingBackend) RecordPassengerEvent(*core.PassengerEvent) error { return errBoom }

func TestStorageFailuresAreCounted(t *testing.T) {
	backend := failingBackend{memory.New(config.MemoryConfig{OutputDir: t.TempDir()})}
	r := New(backend, nil)

	_, err := r.StartRun(core.Run{})
	require.NoError(t, err)

	r.PassengerEvent(core.NewPassenger(1, 1, 2), true, 1)
	r.FloorSnapshot(core.FloorSnapshot{Floor: core.FloorView{Number: 1}})
	r.SweepEnd(core.SweepSummary{Number: 1})

	assert.Equal(t, 2, r.Failures())

	_, err = r.Finish(elevator.Result{})
	require.NoError(t, err)
}

type startFails struct {
	*memory.Backend
}

func (startFails) StartRun(*core.Run) error { return errBoom }

func TestStartRunError(t *testing.T) {
	r := New(startFails{memory.New(config.MemoryConfig{})}, nil)
	_, err := r.StartRun(core.Run{})
	assert.ErrorIs(t, err, errBoom)

	_, err = r.Finish(elevator.Result{})
	assert.ErrorIs(t, err, ErrNoRun)
}

func TestSweepCounterFallback(t *testing.T) {
	r, backend := newRecorder(t)
	_, err := r.StartRun(core.Run{})
	require.NoError(t, err)

	r.SweepStart(core.Up)
	r.SweepStart(core.Down)
	r.FloorSnapshot(core.FloorSnapshot{Floor: core.FloorView{Number: 2}, Direction: core.Down})

	export := backend.Export()
	require.Len(t, export.Visits, 1)
	assert.Equal(t, 2, export.Visits[0].Sweep)
	assert.Equal(t, core.Down, export.Visits[0].Direction)
}
