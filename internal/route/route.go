// Package route builds ordered stop sequences from stored distance tables and
// resolves the travelled distance (and fare) between two stops on them.
package route

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidTable is returned by Table.Validate for malformed distance tables.
var ErrInvalidTable = errors.New("invalid distance table")

// Normalize returns the comparison form of a stop name.
func Normalize(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

// Key addresses a distance table by the two endpoints of its route.
type Key struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// NewKey returns a Key with both endpoints normalized.
func NewKey(start, end string) Key {
	return Key{Start: Normalize(start), End: Normalize(end)}
}

func (k Key) String() string {
	return fmt.Sprintf("%s -> %s", k.Start, k.End)
}

// IsZero reports whether either endpoint is missing.
func (k Key) IsZero() bool {
	return k.Start == "" || k.End == ""
}

// IntermediateStop is a stop between the route endpoints. Distance is the
// segment length from the previous stop.
type IntermediateStop struct {
	Stop     string  `json:"stop" validate:"required"`
	Distance float64 `json:"distance" validate:"gte=0"`
}

// Table is the stored distance table for one linear route.
type Table struct {
	Start               string             `json:"start" validate:"required"`
	End                 string             `json:"end" validate:"required"`
	IntermediateStops   []IntermediateStop `json:"intermediateStops" validate:"required,min=1,dive"`
	LastSegmentDistance float64            `json:"lastSegmentDistance" validate:"gte=0"`
	Polyline            string             `json:"polyline,omitempty"`
	UpdatedAt           string             `json:"updatedAt,omitempty"`
}

// Key returns the normalized key the table is stored under.
func (t Table) Key() Key {
	return NewKey(t.Start, t.End)
}

// TotalDistance is the length of the whole route, start to end.
func (t Table) TotalDistance() float64 {
	total := t.LastSegmentDistance
	for _, stop := range t.IntermediateStops {
		total += stop.Distance
	}
	return total
}

// Validate checks the invariants a table must hold before it is stored.
func (t Table) Validate() error {
	if strings.TrimSpace(t.Start) == "" || strings.TrimSpace(t.End) == "" {
		return fmt.Errorf("%w: start and end are required", ErrInvalidTable)
	}
	if len(t.IntermediateStops) == 0 {
		return fmt.Errorf("%w: at least one intermediate stop is required", ErrInvalidTable)
	}
	for i, stop := range t.IntermediateStops {
		if strings.TrimSpace(stop.Stop) == "" {
			return fmt.Errorf("%w: intermediate stop %d has no name", ErrInvalidTable, i)
		}
		if stop.Distance < 0 {
			return fmt.Errorf("%w: intermediate stop %q has a negative distance", ErrInvalidTable, stop.Stop)
		}
	}
	if t.LastSegmentDistance < 0 {
		return fmt.Errorf("%w: last segment distance is negative", ErrInvalidTable)
	}
	return nil
}
