// Package search filters registered buses for the traveler-facing search forms.
package search

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"busroot.app/internal/models"
	"busroot.app/internal/route"
)

// ClockLayout is the time-of-day format used by timings and search windows.
const ClockLayout = "15:04"

var ErrInvalidTime = errors.New("invalid time of day, use HH:MM")

// ParseClock parses a time of day onto the same reference date, so parsed
// values compare by time of day only.
func ParseClock(value string) (time.Time, error) {
	t, err := time.Parse(ClockLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTime, value)
	}
	return t, nil
}

// ByName returns the buses whose English, Bengali or Hindi name contains the
// query, case-insensitively. An empty query matches every bus.
func ByName(buses []models.Bus, query string) []models.Bus {
	needle := strings.ToLower(query)
	results := []models.Bus{}
	for _, bus := range buses {
		for _, name := range bus.BusName.Names() {
			if strings.Contains(strings.ToLower(name), needle) {
				results = append(results, bus)
				break
			}
		}
	}
	return results
}

// RouteQuery selects timings by their exact endpoints and, when both bounds are
// set, an inclusive time-of-day window.
type RouteQuery struct {
	Start     string
	End       string
	StartTime string
	EndTime   string
}

func (q RouteQuery) hasWindow() bool {
	return q.StartTime != "" && q.EndTime != ""
}

// ByRoute returns the buses with at least one matching timing. Each returned
// bus carries only its matching timings, with fares derived from the stored
// distances at the adult rate.
func ByRoute(buses []models.Bus, q RouteQuery) ([]models.Bus, error) {
	var windowStart, windowEnd time.Time
	if q.hasWindow() {
		var err error
		if windowStart, err = ParseClock(q.StartTime); err != nil {
			return nil, err
		}
		if windowEnd, err = ParseClock(q.EndTime); err != nil {
			return nil, err
		}
	}

	start := strings.ToLower(strings.TrimSpace(q.Start))
	end := strings.ToLower(strings.TrimSpace(q.End))

	results := []models.Bus{}
	for _, bus := range buses {
		var matching []models.Timing
		for _, timing := range bus.Timings {
			if strings.ToLower(strings.TrimSpace(timing.Start)) != start ||
				strings.ToLower(strings.TrimSpace(timing.End)) != end {
				continue
			}

			if q.hasWindow() {
				departs, err := ParseClock(timing.Time)
				if err != nil {
					continue
				}
				if departs.Before(windowStart) || departs.After(windowEnd) {
					continue
				}
			}

			if timing.Distance != nil {
				timing.Fare = models.Float64(route.Fare(*timing.Distance, bus.PriceDetails.PerKmAdult))
			} else {
				timing.Fare = nil
			}
			matching = append(matching, timing)
		}

		if len(matching) > 0 {
			bus.Timings = matching
			results = append(results, bus)
		}
	}
	return results, nil
}

// Locations returns every distinct stop name known from bus routes,
// lower-cased and sorted.
func Locations(buses []models.Bus) []string {
	seen := make(map[string]bool)
	for _, bus := range buses {
		for _, stop := range bus.Route.Stops() {
			name := strings.ToLower(strings.TrimSpace(stop))
			if name != "" {
				seen[name] = true
			}
		}
	}

	locations := make([]string, 0, len(seen))
	for name := range seen {
		locations = append(locations, name)
	}
	sort.Strings(locations)
	return locations
}

// Suggest returns the locations starting with the typed prefix. An empty
// prefix yields no suggestions.
func Suggest(locations []string, prefix string) []string {
	prefix = strings.ToLower(strings.TrimSpace(prefix))
	suggestions := []string{}
	if prefix == "" {
		return suggestions
	}
	for _, location := range locations {
		if strings.HasPrefix(location, prefix) {
			suggestions = append(suggestions, location)
		}
	}
	return suggestions
}
