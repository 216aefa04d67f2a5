package elevator

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/liftsim/liftsim/internal/building"
	"github.com/liftsim/liftsim/internal/logging"
	"github.com/liftsim/liftsim/internal/randsrc"
	"github.com/liftsim/liftsim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type passengerEvent struct {
	Passenger core.Passenger
	Entered   bool
	Floor     int
}

// recordingSink keeps every notification and checks scheduling invariants
// against the live car while the run is in progress.
type recordingSink struct {
	t        *testing.T
	elevator *Elevator
	floors   []*building.Floor
	counts   map[int]int

	sweeps    []core.Direction
	summaries [][]core.FloorView
	snapshots []core.FloorSnapshot
	events    []passengerEvent
	ended     []core.SweepSummary
}

func newRecordingSink(t *testing.T, floors []*building.Floor) *recordingSink {
	counts := make(map[int]int, len(floors))
	for _, f := range floors {
		counts[f.Number] = f.Count()
	}
	return &recordingSink{t: t, floors: floors, counts: counts}
}

func (s *recordingSink) SweepStart(dir core.Direction) {
	s.sweeps = append(s.sweeps, dir)
}

func (s *recordingSink) FloorSnapshot(snap core.FloorSnapshot) {
	s.snapshots = append(s.snapshots, snap)
	assert.NotEmpty(s.t, snap.Onboard, "snapshot emitted for an empty car")
	for _, p := range snap.Onboard {
		assert.NotEqual(s.t, snap.Floor.Number, p.Destination,
			"passenger %d still onboard at its destination", p.ID)
	}
	s.checkInvariants()
}

func (s *recordingSink) BuildingSummary(floors []core.FloorView) {
	s.summaries = append(s.summaries, floors)
}

func (s *recordingSink) PassengerEvent(p core.Passenger, entered bool, floor int) {
	s.events = append(s.events, passengerEvent{p, entered, floor})

	if s.elevator != nil {
		st := s.elevator.State()
		assert.Equal(s.t, floor, st.CurrentFloor)
		if entered {
			if st.Direction == core.Up {
				assert.Greater(s.t, p.Destination, floor, "boarded against direction")
			} else {
				assert.Less(s.t, p.Destination, floor, "boarded against direction")
			}
		} else {
			assert.Equal(s.t, p.Destination, floor, "left away from destination")
		}
	}
	s.checkInvariants()
}

func (s *recordingSink) SweepEnd(sum core.SweepSummary) {
	s.ended = append(s.ended, sum)
}

func (s *recordingSink) checkInvariants() {
	if s.elevator != nil {
		assert.LessOrEqual(s.t, len(s.elevator.State().Onboard), s.elevator.Capacity())
	}
	for _, f := range s.floors {
		n := f.Count()
		assert.LessOrEqual(s.t, n, s.counts[f.Number], "queue at floor %d grew", f.Number)
		s.counts[f.Number] = n
	}
}

func mustFloor(t *testing.T, number int, ps ...core.Passenger) *building.Floor {
	t.Helper()
	f, err := building.NewFloorWith(number, ps...)
	require.NoError(t, err)
	return f
}

func emptyFloors(t *testing.T, from, to int) []*building.Floor {
	var floors []*building.Floor
	for n := from; n <= to; n++ {
		floors = append(floors, mustFloor(t, n))
	}
	return floors
}

func newTestElevator(t *testing.T, floors []*building.Floor, opts ...Option) (*Elevator, *recordingSink) {
	t.Helper()
	sink := newRecordingSink(t, floors)
	e, err := New(floors, sink, opts...)
	require.NoError(t, err)
	sink.elevator = e
	return e, sink
}

func TestNew_RejectsZeroCapacity(t *testing.T) {
	e, err := New(emptyFloors(t, 1, 4), nil, WithCapacity(0))
	assert.Nil(t, e)
	assert.ErrorIs(t, err, ErrInvalidCapacity)
}

func TestNew_Defaults(t *testing.T) {
	e, err := New(emptyFloors(t, 1, 4), nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultCapacity, e.Capacity())
	assert.Equal(t, core.Up, e.State().Direction)
	assert.Empty(t, e.State().Onboard)
}

func TestExistsWaiting(t *testing.T) {
	floors := emptyFloors(t, 1, 3)
	assert.False(t, ExistsWaiting(floors))
	assert.False(t, ExistsWaiting(nil))

	floors = append(floors, mustFloor(t, 4, core.NewPassenger(1, 4, 1)))
	assert.True(t, ExistsWaiting(floors))
}

func TestRun_NobodyWaiting(t *testing.T) {
	e, sink := newTestElevator(t, emptyFloors(t, 1, 4))

	res := e.Run()

	assert.Equal(t, 0, res.Sweeps)
	assert.Empty(t, sink.sweeps)
	require.Len(t, sink.summaries, 1)
	assert.Len(t, sink.summaries[0], 4)
}

func TestRun_SinglePassengerScenario(t *testing.T) {
	p := core.NewPassenger(1, 1, 3)
	floors := append([]*building.Floor{mustFloor(t, 1, p)}, emptyFloors(t, 2, 4)...)
	e, sink := newTestElevator(t, floors)

	res := e.Run()

	assert.Equal(t, 1, res.Sweeps)
	assert.Equal(t, []core.Direction{core.Up}, sink.sweeps)
	assert.Equal(t, []int{1, 2, 3, 4}, res.Path)
	assert.Equal(t, 1, res.Boarded)
	assert.Equal(t, 1, res.Delivered)
	assert.False(t, ExistsWaiting(floors))

	assert.Equal(t, []passengerEvent{
		{Passenger: p, Entered: true, Floor: 1},
		{Passenger: p, Entered: false, Floor: 3},
	}, sink.events)

	// floor 1 and floor 2 carry the passenger; floor 3 empties the car
	require.Len(t, sink.snapshots, 2)
	first := sink.snapshots[0]
	assert.Equal(t, 1, first.Floor.Number)
	assert.Equal(t, []core.Passenger{p}, first.Onboard)
	assert.Nil(t, first.Previous)
	require.NotNil(t, first.Next)
	assert.Equal(t, 2, first.Next.Number)
	assert.Equal(t, core.Up, first.Direction)
	assert.Equal(t, 1, first.Sweep)

	second := sink.snapshots[1]
	assert.Equal(t, 2, second.Floor.Number)
	require.NotNil(t, second.Previous)
	assert.Equal(t, 1, second.Previous.Number)
	require.NotNil(t, second.Next)
	assert.Equal(t, 3, second.Next.Number)

	require.Len(t, sink.ended, 1)
	assert.Equal(t, core.SweepSummary{
		Number:    1,
		Direction: core.Up,
		Boarded:   1,
		Delivered: 1,
		Waiting:   0,
		PeakLoad:  1,
	}, sink.ended[0])
	assert.Equal(t, core.Down, e.State().Direction)
}

func TestRun_CapacityScenario(t *testing.T) {
	var ps []core.Passenger
	for id := 1; id <= 6; id++ {
		ps = append(ps, core.NewPassenger(id, 1, 4))
	}
	f1 := mustFloor(t, 1, ps...)
	floors := append([]*building.Floor{f1}, emptyFloors(t, 2, 4)...)
	e, sink := newTestElevator(t, floors)

	// first upward sweep boards exactly five
	e.Sweep()
	assert.Equal(t, []core.Passenger{ps[5]}, f1.Waiting())
	require.GreaterOrEqual(t, len(sink.snapshots), 1)
	assert.Len(t, sink.snapshots[0].Onboard, 5)
	assert.Empty(t, e.State().Onboard)

	// downward sweep cannot take an upward passenger
	e.Sweep()
	assert.Equal(t, 1, f1.Count())

	// the next upward sweep takes the sixth
	e.Sweep()
	assert.Equal(t, 0, f1.Count())
	assert.False(t, ExistsWaiting(floors))

	res := e.Result()
	assert.Equal(t, 3, res.Sweeps)
	assert.Equal(t, 6, res.Delivered)
	assert.Equal(t, 5, res.PeakLoad)
	assert.Equal(t, []core.Direction{core.Up, core.Down, core.Up}, sink.sweeps)
}

func TestRun_CapacityScenarioTerminates(t *testing.T) {
	var ps []core.Passenger
	for id := 1; id <= 6; id++ {
		ps = append(ps, core.NewPassenger(id, 1, 4))
	}
	floors := append([]*building.Floor{mustFloor(t, 1, ps...)}, emptyFloors(t, 2, 4)...)
	e, _ := newTestElevator(t, floors)

	res := e.Run()

	assert.Equal(t, 3, res.Sweeps)
	assert.Equal(t, 6, res.Boarded)
	assert.Equal(t, 6, res.Delivered)
}

func TestRun_DownwardPassengerWaitsForDownSweep(t *testing.T) {
	p := core.NewPassenger(1, 3, 1)
	floors := []*building.Floor{
		mustFloor(t, 1),
		mustFloor(t, 2),
		mustFloor(t, 3, p),
		mustFloor(t, 4),
	}
	e, sink := newTestElevator(t, floors)

	res := e.Run()

	assert.Equal(t, 2, res.Sweeps)
	assert.Equal(t, []int{1, 2, 3, 4, 4, 3, 2, 1}, res.Path)
	assert.Equal(t, []passengerEvent{
		{Passenger: p, Entered: true, Floor: 3},
		{Passenger: p, Entered: false, Floor: 1},
	}, sink.events)

	// snapshots at 3 and 2 going down; next floor follows sweep order
	require.Len(t, sink.snapshots, 2)
	assert.Equal(t, 3, sink.snapshots[0].Floor.Number)
	require.NotNil(t, sink.snapshots[0].Previous)
	assert.Equal(t, 4, sink.snapshots[0].Previous.Number)
	require.NotNil(t, sink.snapshots[0].Next)
	assert.Equal(t, 2, sink.snapshots[0].Next.Number)
	assert.Equal(t, core.Down, sink.snapshots[0].Direction)
}

func TestRun_BoardingKeepsQueueOrder(t *testing.T) {
	ps := []core.Passenger{
		core.NewPassenger(1, 2, 4),
		core.NewPassenger(2, 2, 1),
		core.NewPassenger(3, 2, 3),
	}
	f2 := mustFloor(t, 2, ps...)
	floors := []*building.Floor{mustFloor(t, 1), f2, mustFloor(t, 3), mustFloor(t, 4)}
	e, sink := newTestElevator(t, floors)

	e.Sweep()

	assert.Equal(t, []core.Passenger{ps[1]}, f2.Waiting())
	require.NotEmpty(t, sink.snapshots)
	assert.Equal(t, []int{1, 3}, core.PassengerIDs(sink.snapshots[0].Onboard))
}

func TestRun_SnapshotsAreCopies(t *testing.T) {
	p := core.NewPassenger(1, 1, 3)
	floors := append([]*building.Floor{mustFloor(t, 1, p)}, emptyFloors(t, 2, 4)...)

	mutating := &mutatingSink{}
	e, err := New(floors, mutating)
	require.NoError(t, err)

	res := e.Run()
	assert.Equal(t, 1, res.Delivered)
}

// mutatingSink scribbles over everything it is handed.
type mutatingSink struct{ NopSink }

func (mutatingSink) FloorSnapshot(s core.FloorSnapshot) {
	for i := range s.Onboard {
		s.Onboard[i].Destination = 99
	}
}

func TestRun_RandomBuildingsTerminate(t *testing.T) {
	for seed := uint64(1); seed <= 200; seed++ {
		b, err := building.New(building.DefaultConfig(), randsrc.New(seed))
		require.NoError(t, err)
		floors := b.GenerateFloors()

		total := 0
		for _, f := range floors {
			total += f.Count()
		}

		e, sink := newTestElevator(t, floors)
		res := e.Run()

		assert.False(t, ExistsWaiting(floors), "seed %d left passengers waiting", seed)
		assert.Equal(t, total, res.Boarded, "seed %d", seed)
		assert.Equal(t, total, res.Delivered, "seed %d", seed)
		assert.Empty(t, e.State().Onboard, "seed %d", seed)
		assert.Len(t, sink.ended, res.Sweeps)
		assert.LessOrEqual(t, res.PeakLoad, DefaultCapacity)

		// every full sweep visits each floor exactly once
		assert.Len(t, res.Path, res.Sweeps*len(floors))
	}
}

func TestRun_SmallCapacity(t *testing.T) {
	b, err := building.New(building.DefaultConfig(), randsrc.New(11))
	require.NoError(t, err)
	floors := b.GenerateFloors()

	e, _ := newTestElevator(t, floors, WithCapacity(1))
	res := e.Run()

	assert.False(t, ExistsWaiting(floors))
	assert.LessOrEqual(t, res.PeakLoad, 1)
	assert.Equal(t, res.Boarded, res.Delivered)
}

func TestSinks_FanOut(t *testing.T) {
	a := newRecordingSink(t, nil)
	b := newRecordingSink(t, nil)
	sinks := Sinks{a, b, NopSink{}}

	sinks.SweepStart(core.Up)
	sinks.PassengerEvent(core.NewPassenger(1, 1, 2), true, 1)
	sinks.SweepEnd(core.SweepSummary{Number: 1})

	for _, s := range []*recordingSink{a, b} {
		assert.Equal(t, []core.Direction{core.Up}, s.sweeps)
		assert.Len(t, s.events, 1)
		assert.Len(t, s.ended, 1)
	}
}

func TestRun_DownSweepReachesBottomEmpty(t *testing.T) {
	floors := append(emptyFloors(t, 1, 3), mustFloor(t, 4,
		core.NewPassenger(1, 4, 1),
		core.NewPassenger(2, 4, 2),
	))
	e, sink := newTestElevator(t, floors, WithCapacity(1))

	res := e.Run()

	assert.Equal(t, 4, res.Sweeps)
	assert.Equal(t, 2, res.Delivered)

	var toBottom *core.FloorSnapshot
	for i, snap := range sink.snapshots {
		assert.False(t, snap.Floor.Number == 1 && snap.Direction == core.Down,
			"snapshot at floor 1 moving down")
		if snap.Sweep == 2 && snap.Floor.Number == 2 {
			toBottom = &sink.snapshots[i]
		}
	}

	require.NotNil(t, toBottom)
	assert.Equal(t, []core.Passenger{core.NewPassenger(1, 4, 1)}, toBottom.Onboard)
	require.NotNil(t, toBottom.Next)
	assert.Equal(t, 1, toBottom.Next.Number)
	require.NotNil(t, toBottom.Previous)
	assert.Equal(t, 3, toBottom.Previous.Number)
}

func TestRun_DebugLogsCarrySweep(t *testing.T) {
	var buf bytes.Buffer
	handler := logging.NewContextHandler(
		slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}), nil)

	p := core.NewPassenger(1, 3, 1)
	floors := append(emptyFloors(t, 1, 2), mustFloor(t, 3, p))
	e, _ := newTestElevator(t, floors, WithLogger(slog.New(handler)))
	e.Run()

	entered := 0
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		var rec map[string]any
		require.NoError(t, json.Unmarshal(line, &rec))
		if rec["msg"] != "Passenger entered" {
			continue
		}
		entered++
		assert.Equal(t, float64(2), rec["sweep"])
		assert.Equal(t, "down", rec["direction"])
	}
	assert.Equal(t, 1, entered)
}
