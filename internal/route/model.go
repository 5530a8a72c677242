package route

import (
	"errors"
	"fmt"
)

// ErrStopNotFound is returned when a queried stop is not on the route.
var ErrStopNotFound = errors.New("stop not found in route")

// Stop is one element of a built route. Segment is the distance travelled
// from the previous element; it is 0 for the first stop.
type Stop struct {
	Name    string  `json:"stop"`
	Segment float64 `json:"segment"`
}

// Model is the ordered stop sequence of a route: start, intermediate stops in
// registration order, end.
type Model struct {
	Key   Key    `json:"key"`
	Stops []Stop `json:"stops"`
}

// Build assembles the route model for a table.
func Build(t Table) Model {
	stops := make([]Stop, 0, len(t.IntermediateStops)+2)
	stops = append(stops, Stop{Name: Normalize(t.Start)})
	for _, s := range t.IntermediateStops {
		stops = append(stops, Stop{Name: Normalize(s.Stop), Segment: s.Distance})
	}
	stops = append(stops, Stop{Name: Normalize(t.End), Segment: t.LastSegmentDistance})

	return Model{Key: t.Key(), Stops: stops}
}

// Index returns the position of the first stop matching name, or -1.
// Repeated stop names are not disambiguated.
func (m Model) Index(name string) int {
	normalized := Normalize(name)
	for i, stop := range m.Stops {
		if stop.Name == normalized {
			return i
		}
	}
	return -1
}

// Resolve returns the distance travelled between two stops. Travel may go in
// either direction along the route; both directions cover the same segments.
func (m Model) Resolve(from, to string) (float64, error) {
	if Normalize(from) == Normalize(to) {
		return 0, nil
	}

	fromIdx := m.Index(from)
	if fromIdx == -1 {
		return 0, fmt.Errorf("%w: %q on %s", ErrStopNotFound, from, m.Key)
	}
	toIdx := m.Index(to)
	if toIdx == -1 {
		return 0, fmt.Errorf("%w: %q on %s", ErrStopNotFound, to, m.Key)
	}

	lo, hi := fromIdx, toIdx
	if lo > hi {
		lo, hi = hi, lo
	}

	// Each segment belongs to the stop it leads into, so (lo, hi] covers
	// exactly the segments between the two stops.
	var total float64
	for _, stop := range m.Stops[lo+1 : hi+1] {
		total += stop.Segment
	}
	return total, nil
}

// Fare is the adult fare for a distance at a per-kilometre rate. The product
// is not rounded.
func Fare(distance, perKmAdult float64) float64 {
	return distance * perKmAdult
}
