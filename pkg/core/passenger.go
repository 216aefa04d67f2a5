// pkg/core/passenger.go
package core

import "fmt"

// Direction is the travel direction of the car or of a passenger's trip.
type Direction int

const (
	Up Direction = iota
	Down
)

func (d Direction) String() string {
	if d == Down {
		return "down"
	}
	return "up"
}

// Reverse returns the opposite direction.
func (d Direction) Reverse() Direction {
	if d == Up {
		return Down
	}
	return Up
}

// MarshalText renders the direction as "up" or "down".
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "up":
		*d = Up
	case "down":
		*d = Down
	default:
		return fmt.Errorf("unknown direction %q", b)
	}
	return nil
}

// Passenger is a single travel request. Destination never equals Origin.
type Passenger struct {
	ID          int `json:"id"`
	Origin      int `json:"origin"`
	Destination int `json:"destination"`
}

// NewPassenger creates a passenger waiting at origin for destination.
func NewPassenger(id, origin, destination int) Passenger {
	return Passenger{
		ID:          id,
		Origin:      origin,
		Destination: destination,
	}
}

// WithID returns a copy of p carrying the given id.
// Only meant for use while a floor is being populated.
func (p Passenger) WithID(id int) Passenger {
	p.ID = id
	return p
}

// Direction reports which way the passenger wants to travel.
func (p Passenger) Direction() Direction {
	if p.Destination < p.Origin {
		return Down
	}
	return Up
}

func (p Passenger) String() string {
	return fmt.Sprintf("P%d -> %d", p.ID, p.Destination)
}

// PassengerIDs returns the ids of ps in order.
func PassengerIDs(ps []Passenger) []int {
	ids := make([]int, len(ps))
	for i, p := range ps {
		ids[i] = p.ID
	}
	return ids
}
