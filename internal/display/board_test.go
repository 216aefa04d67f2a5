package display

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/liftsim/liftsim/internal/elevator"
	"github.com/liftsim/liftsim/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ elevator.Sink       = (*Board)(nil)
	_ elevator.SweepEnder = (*Board)(nil)
)

func TestFloorSnapshot(t *testing.T) {
	var buf bytes.Buffer
	b := NewBoard(&buf)

	b.FloorSnapshot(core.FloorSnapshot{
		Floor:     core.FloorView{Number: 3},
		Onboard:   []core.Passenger{core.NewPassenger(17, 1, 5)},
		Previous:  &core.FloorView{Number: 2, Waiting: []core.Passenger{core.NewPassenger(11, 2, 4)}},
		Next:      &core.FloorView{Number: 4, Waiting: []core.Passenger{core.NewPassenger(22, 4, 2)}},
		Direction: core.Up,
	})
	require.NoError(t, b.Err())

	want := strings.Join([]string{
		"",
		"...",
		"Direction: ↑  Floor: 3",
		"+--+-------------+",
		"|F2|             | 11 -> 4 ▲",
		"+--+-------------+",
		"|F3| P17 -> 5 <- |",
		"+--+-------------+",
		"|F4|             | 22 -> 2 ▼",
		"+--+-------------+",
		"...",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func TestFloorSnapshot_NoNeighbours(t *testing.T) {
	var buf bytes.Buffer
	b := NewBoard(&buf)

	b.FloorSnapshot(core.FloorSnapshot{
		Floor: core.FloorView{Number: 10, Waiting: []core.Passenger{
			core.NewPassenger(3, 10, 12),
			core.NewPassenger(4, 10, 1),
		}},
		Onboard:   []core.Passenger{core.NewPassenger(1, 12, 2), core.NewPassenger(2, 11, 9)},
		Direction: core.Down,
	})

	out := buf.String()
	assert.Contains(t, out, "Direction: ↓  Floor: 10\n")
	assert.Contains(t, out, "|F10| P1 -> 2  P2 -> 9 <- | 3 -> 12 ▲  4 -> 1 ▼\n")
	assert.Equal(t, 2, strings.Count(out, "+---+"))
}

func TestFloorSnapshot_LabelWidthFollowsWidestFloor(t *testing.T) {
	var buf bytes.Buffer
	b := NewBoard(&buf)

	b.FloorSnapshot(core.FloorSnapshot{
		Floor:     core.FloorView{Number: 9},
		Onboard:   []core.Passenger{core.NewPassenger(1, 8, 12)},
		Previous:  &core.FloorView{Number: 8},
		Next:      &core.FloorView{Number: 10},
		Direction: core.Up,
	})

	out := buf.String()
	assert.Contains(t, out, "|F8 |")
	assert.Contains(t, out, "|F9 | P1 -> 12 <- |")
	assert.Contains(t, out, "|F10|")
}

func TestWaitingCell(t *testing.T) {
	tests := []struct {
		name    string
		current int
		ps      []core.Passenger
		want    string
	}{
		{"empty", 3, nil, ""},
		{"up", 3, []core.Passenger{core.NewPassenger(1, 2, 5)}, "1 -> 5 ▲"},
		{"down", 3, []core.Passenger{core.NewPassenger(1, 4, 1)}, "1 -> 1 ▼"},
		{"to current floor", 3, []core.Passenger{core.NewPassenger(1, 4, 3)}, "1 -> 3"},
		{"mixed", 3, []core.Passenger{core.NewPassenger(1, 2, 5), core.NewPassenger(2, 2, 1)}, "1 -> 5 ▲  2 -> 1 ▼"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, waitingCell(tt.current, tt.ps))
		})
	}
}

func TestSweepStart(t *testing.T) {
	var buf bytes.Buffer
	b := NewBoard(&buf)

	b.SweepStart(core.Up)
	b.SweepStart(core.Down)

	rule := strings.Repeat("*", 30)
	want := "\n" + rule + "\nElevator is moving Up\n" + rule + "\n\n" +
		"\n" + rule + "\nElevator is moving Down\n" + rule + "\n\n"
	assert.Equal(t, want, buf.String())
}

func TestBuildingSummary(t *testing.T) {
	var buf bytes.Buffer
	b := NewBoard(&buf)

	b.BuildingSummary([]core.FloorView{
		{Number: 1, Waiting: []core.Passenger{core.NewPassenger(1, 1, 3), core.NewPassenger(2, 1, 10)}},
		{Number: 2},
		{Number: 10, Waiting: []core.Passenger{core.NewPassenger(3, 10, 1)}},
	})

	out := buf.String()
	assert.Contains(t, out, "PASSENGERS IN EACH FLOOR")
	assert.Contains(t, out, "F1  : P1 -> 3 | P2 -> 10\n")
	assert.Contains(t, out, "F2  : -\n")
	assert.Contains(t, out, "F10 : P3 -> 1\n")
}

func TestPassengerEvent(t *testing.T) {
	var buf bytes.Buffer
	b := NewBoard(&buf)

	p := core.NewPassenger(4, 1, 3)
	b.PassengerEvent(p, true, 1)
	b.PassengerEvent(p, false, 3)

	assert.Equal(t,
		"Passenger 4 has entered the elevator at floor 1\n"+
			"Passenger 4 has left the elevator at floor 3\n",
		buf.String())
}

func TestSweepEnd(t *testing.T) {
	var buf bytes.Buffer
	b := NewBoard(&buf)

	b.SweepEnd(core.SweepSummary{Number: 2, Direction: core.Down, Boarded: 3, Delivered: 4, Waiting: 1})
	assert.Equal(t, "Sweep 2 (down): boarded 3, delivered 4, still waiting 1\n", buf.String())
}

type failingWriter struct{ calls int }

func (w *failingWriter) Write([]byte) (int, error) {
	w.calls++
	return 0, errors.New("closed")
}

func TestWriteErrorIsSticky(t *testing.T) {
	w := &failingWriter{}
	b := NewBoard(w)

	b.SweepStart(core.Up)
	b.PassengerEvent(core.NewPassenger(1, 1, 2), true, 1)

	assert.EqualError(t, b.Err(), "closed")
	assert.Equal(t, 1, w.calls)
}
