package fleet

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/jamespfennell/gtfs"
	"github.com/twpayne/go-polyline"

	"busroot.app/internal/logging"
	"busroot.app/internal/route"
	"busroot.app/internal/utils"
)

// minImportStops is the shortest trip that still has an intermediate stop.
const minImportStops = 3

// ImportResult holds the distance tables written by an import and the GTFS
// routes that could not produce one.
type ImportResult struct {
	Imported []route.Key    `json:"imported"`
	Skipped  []SkippedRoute `json:"skipped"`
	Warnings int            `json:"warnings"`
	Duration time.Duration  `json:"-"`
	Tables   []route.Table  `json:"tables"`
}

type SkippedRoute struct {
	RouteID string `json:"routeId"`
	Reason  string `json:"reason"`
}

type geoStop struct {
	name     string
	lat, lon float64
}

// ImportGTFS builds one distance table per route of a static GTFS feed from
// the route's longest trip. Segment distances are great-circle kilometres
// between consecutive stops, rounded to metres.
func (m *Manager) ImportGTFS(ctx context.Context, data []byte) (ImportResult, error) {
	startTime := time.Now()

	staticData, err := gtfs.ParseStatic(data, gtfs.ParseStaticOptions{})
	if err != nil {
		return ImportResult{}, fmt.Errorf("parse GTFS feed: %w", err)
	}

	result := ImportResult{
		Imported: []route.Key{},
		Skipped:  []SkippedRoute{},
		Tables:   []route.Table{},
		Warnings: len(staticData.Warnings),
	}

	longest := make(map[string]*gtfs.ScheduledTrip)
	for i := range staticData.Trips {
		trip := &staticData.Trips[i]
		if trip.Route == nil {
			continue
		}
		current, ok := longest[trip.Route.Id]
		if !ok || len(trip.StopTimes) > len(current.StopTimes) {
			longest[trip.Route.Id] = trip
		}
	}

	routeIDs := make([]string, 0, len(staticData.Routes))
	for _, r := range staticData.Routes {
		routeIDs = append(routeIDs, r.Id)
	}
	sort.Strings(routeIDs)

	for _, routeID := range routeIDs {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		trip, ok := longest[routeID]
		if !ok {
			result.Skipped = append(result.Skipped, SkippedRoute{RouteID: routeID, Reason: "route has no trips"})
			continue
		}

		stops := tripStops(trip)
		if len(stops) < minImportStops {
			result.Skipped = append(result.Skipped, SkippedRoute{
				RouteID: routeID,
				Reason:  fmt.Sprintf("longest trip has %d located stops, need %d", len(stops), minImportStops),
			})
			continue
		}

		table, err := m.SaveDistanceTable(ctx, tableFromStops(stops))
		if err != nil {
			result.Skipped = append(result.Skipped, SkippedRoute{RouteID: routeID, Reason: err.Error()})
			continue
		}
		result.Imported = append(result.Imported, table.Key())
		result.Tables = append(result.Tables, table)
	}

	result.Duration = time.Since(startTime)
	logging.LogOperation(m.logger, "gtfs_import_complete",
		slog.Int("imported", len(result.Imported)),
		slog.Int("skipped", len(result.Skipped)),
		slog.Int("warnings", result.Warnings),
		slog.Duration("duration", result.Duration))

	return result, nil
}

// tripStops returns the stops of a trip in stop_sequence order, dropping
// stops without coordinates.
func tripStops(trip *gtfs.ScheduledTrip) []geoStop {
	stopTimes := make([]gtfs.ScheduledStopTime, len(trip.StopTimes))
	copy(stopTimes, trip.StopTimes)
	sort.SliceStable(stopTimes, func(i, j int) bool {
		return stopTimes[i].StopSequence < stopTimes[j].StopSequence
	})

	stops := make([]geoStop, 0, len(stopTimes))
	for _, st := range stopTimes {
		if st.Stop == nil || st.Stop.Latitude == nil || st.Stop.Longitude == nil {
			continue
		}
		name := st.Stop.Name
		if name == "" {
			name = st.Stop.Id
		}
		stops = append(stops, geoStop{name: name, lat: *st.Stop.Latitude, lon: *st.Stop.Longitude})
	}
	return stops
}

func tableFromStops(stops []geoStop) route.Table {
	coords := make([][]float64, 0, len(stops))
	for _, s := range stops {
		coords = append(coords, []float64{s.lat, s.lon})
	}

	segment := func(i int) float64 {
		prev, cur := stops[i-1], stops[i]
		return utils.RoundTo(utils.HaversineKM(prev.lat, prev.lon, cur.lat, cur.lon), 3)
	}

	last := len(stops) - 1
	table := route.Table{
		Start:               stops[0].name,
		End:                 stops[last].name,
		IntermediateStops:   make([]route.IntermediateStop, 0, last-1),
		LastSegmentDistance: segment(last),
		Polyline:            string(polyline.EncodeCoords(coords)),
	}
	for i := 1; i < last; i++ {
		table.IntermediateStops = append(table.IntermediateStops, route.IntermediateStop{
			Stop:     stops[i].name,
			Distance: segment(i),
		})
	}
	return table
}
