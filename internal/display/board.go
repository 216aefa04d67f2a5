// Package display renders the simulation as text for a terminal.
package display

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/liftsim/liftsim/pkg/core"
)

const (
	carPointer = "<-"
	upMark     = "▲"
	downMark   = "▼"
	bannerRule = 30
)

// Board writes snapshots, banners and passenger notices to w.
// The first write error is kept and every later call becomes a no-op.
type Board struct {
	mu  sync.Mutex
	w   io.Writer
	err error
}

// NewBoard returns a Board writing to w.
func NewBoard(w io.Writer) *Board {
	return &Board{w: w}
}

// Err returns the first write error, if any.
func (b *Board) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.err
}

func (b *Board) printf(format string, args ...any) {
	if b.err != nil {
		return
	}
	_, b.err = fmt.Fprintf(b.w, format, args...)
}

func (b *Board) banner(text string) {
	rule := strings.Repeat("*", bannerRule)
	b.printf("\n%s\n%s\n%s\n\n", rule, text, rule)
}

// SweepStart prints the sweep banner.
func (b *Board) SweepStart(dir core.Direction) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if dir == core.Up {
		b.banner("Elevator is moving Up")
	} else {
		b.banner("Elevator is moving Down")
	}
}

// BuildingSummary lists the waiting passengers of every floor.
func (b *Board) BuildingSummary(floors []core.FloorView) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.banner("PASSENGERS IN EACH FLOOR")
	width := labelWidth(floors...)
	for _, f := range floors {
		cells := make([]string, 0, len(f.Waiting))
		for _, p := range f.Waiting {
			cells = append(cells, p.String())
		}
		list := "-"
		if len(cells) > 0 {
			list = strings.Join(cells, " | ")
		}
		b.printf("%s : %s\n", pad(floorLabel(f.Number), width), list)
	}
}

// PassengerEvent prints an entering or leaving notice.
func (b *Board) PassengerEvent(p core.Passenger, entered bool, floor int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if entered {
		b.printf("Passenger %d has entered the elevator at floor %d\n", p.ID, floor)
	} else {
		b.printf("Passenger %d has left the elevator at floor %d\n", p.ID, floor)
	}
}

// SweepEnd prints the sweep totals.
func (b *Board) SweepEnd(sum core.SweepSummary) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.printf("Sweep %d (%s): boarded %d, delivered %d, still waiting %d\n",
		sum.Number, sum.Direction, sum.Boarded, sum.Delivered, sum.Waiting)
}

// FloorSnapshot draws the car at its floor between the neighbouring floors
// in sweep order:
//
//	Direction: ↑  Floor: 3
//	+--+-------------+
//	|F2|             | 11 -> 4 ▲
//	+--+-------------+
//	|F3| P17 -> 5 <- |
//	+--+-------------+
//	|F4|             | 22 -> 2 ▼
//	+--+-------------+
func (b *Board) FloorSnapshot(s core.FloorSnapshot) {
	b.mu.Lock()
	defer b.mu.Unlock()

	current := s.Floor.Number
	car := onboardCell(s.Onboard) + " " + carPointer

	views := make([]core.FloorView, 0, 3)
	if s.Previous != nil {
		views = append(views, *s.Previous)
	}
	views = append(views, s.Floor)
	if s.Next != nil {
		views = append(views, *s.Next)
	}

	lw := labelWidth(views...)
	cw := utf8.RuneCountInString(car) + 2
	rule := "+" + strings.Repeat("-", lw) + "+" + strings.Repeat("-", cw) + "+"

	b.printf("\n...\nDirection: %s  Floor: %d\n", arrow(s.Direction), current)
	for _, v := range views {
		cell := ""
		if v.Number == current {
			cell = car
		}
		waiting := waitingCell(current, v.Waiting)
		if waiting != "" {
			waiting = " " + waiting
		}
		b.printf("%s\n|%s|%s|%s\n", rule, pad(floorLabel(v.Number), lw), pad(" "+cell, cw), waiting)
	}
	b.printf("%s\n...\n", rule)
}

func arrow(d core.Direction) string {
	if d == core.Down {
		return "↓"
	}
	return "↑"
}

func floorLabel(n int) string {
	return fmt.Sprintf("F%d", n)
}

func labelWidth(views ...core.FloorView) int {
	w := 0
	for _, v := range views {
		w = max(w, utf8.RuneCountInString(floorLabel(v.Number)))
	}
	return w
}

// pad right-pads s with spaces to n runes.
func pad(s string, n int) string {
	if d := n - utf8.RuneCountInString(s); d > 0 {
		return s + strings.Repeat(" ", d)
	}
	return s
}

func onboardCell(ps []core.Passenger) string {
	cells := make([]string, 0, len(ps))
	for _, p := range ps {
		cells = append(cells, p.String())
	}
	return strings.Join(cells, "  ")
}

// waitingCell marks each waiting passenger with the way it wants to go as
// seen from the car's floor.
func waitingCell(current int, ps []core.Passenger) string {
	cells := make([]string, 0, len(ps))
	for _, p := range ps {
		cell := fmt.Sprintf("%d -> %d", p.ID, p.Destination)
		switch {
		case p.Destination > current:
			cell += " " + upMark
		case p.Destination < current:
			cell += " " + downMark
		}
		cells = append(cells, cell)
	}
	return strings.Join(cells, "  ")
}
