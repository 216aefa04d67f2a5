// Package trajectory turns the car's visit path into a line string: X is
// the visit step, Y the floor number.
package trajectory

import (
	"fmt"
	"math"

	geom "github.com/peterstace/simplefeatures/geom"
)

// Build converts visited floor numbers into a line string. Fewer than two
// visits yield an empty line string.
func Build(path []int) (geom.LineString, error) {
	if len(path) < 2 {
		return geom.LineString{}, nil
	}

	flat := make([]float64, 0, len(path)*2)
	for i, floor := range path {
		flat = append(flat, float64(i), float64(floor))
	}
	ls, err := geom.NewLineString(geom.NewSequence(flat, geom.DimXY))
	if err != nil {
		return geom.LineString{}, fmt.Errorf("failed to build trajectory: %w", err)
	}
	return ls, nil
}

// FloorsTravelled sums the vertical distance covered along ls. A repeated
// floor at a turnaround adds nothing.
func FloorsTravelled(ls geom.LineString) int {
	seq := ls.Coordinates()
	total := 0.0
	for i := 1; i < seq.Length(); i++ {
		total += math.Abs(seq.GetXY(i).Y - seq.GetXY(i-1).Y)
	}
	return int(total)
}

// Summary returns the WKT of the path and the floors travelled.
func Summary(path []int) (wkt string, travelled int, err error) {
	ls, err := Build(path)
	if err != nil {
		return "", 0, err
	}
	return ls.AsText(), FloorsTravelled(ls), nil
}

// Parse reads a WKT line string produced by Summary back into floor numbers.
func Parse(wkt string) ([]int, error) {
	g, err := geom.UnmarshalWKT(wkt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse trajectory WKT: %w", err)
	}

	ls, ok := g.AsLineString()
	if !ok {
		return nil, fmt.Errorf("trajectory is a %s, not a line string", g.Type())
	}

	seq := ls.Coordinates()
	floors := make([]int, seq.Length())
	for i := range floors {
		floors[i] = int(seq.GetXY(i).Y)
	}
	return floors, nil
}
