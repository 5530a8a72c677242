package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"busroot.app/docstore"
	"busroot.app/internal/logging"
	"busroot.app/internal/models"
	"busroot.app/internal/route"
)

// RecalculationResult reports what recalculating one bus did.
type RecalculationResult struct {
	BusID      string `json:"busId"`
	Route      string `json:"route"`
	Resolved   int    `json:"resolved"`
	Unresolved int    `json:"unresolved"`
	Error      string `json:"error,omitempty"`
}

// RecalculateBus resolves every timing of a bus against the distance table of
// the bus route and overwrites the stored timings. Timings whose stops are not
// on the route lose their distance and fare. When the route has no table the
// bus is left untouched and ErrRouteNotFound is returned.
func (m *Manager) RecalculateBus(ctx context.Context, id string) (RecalculationResult, error) {
	bus, err := m.GetBus(ctx, id)
	if err != nil {
		return RecalculationResult{BusID: id}, err
	}

	key := route.NewKey(bus.Route.StartLocation, bus.Route.DepartureLocation)
	result := RecalculationResult{BusID: id, Route: key.String()}

	table, err := m.GetDistanceTable(ctx, key)
	if err != nil {
		logging.LogError(m.logger, "recalculation skipped", err,
			slog.String("bus_id", id),
			slog.String("route", key.String()))
		return result, err
	}

	timings := resolveTimings(route.Build(table), bus, &result)
	for i, timing := range timings {
		if timing.Distance == nil {
			m.logger.Warn("timing distance unresolved",
				slog.String("bus_id", id),
				slog.Int("timing", i),
				slog.String("from", timing.Start),
				slog.String("to", timing.End),
				slog.String("route", key.String()))
		}
	}

	if err := m.store.Update(ctx, busesCollection, docstore.Key{ID: id}, map[string]any{"timings": timings}); err != nil {
		return result, fmt.Errorf("store timings for %s: %w", id, err)
	}

	logging.LogOperation(m.logger, "bus_recalculated",
		slog.String("bus_id", id),
		slog.String("route", key.String()),
		slog.Int("resolved", result.Resolved),
		slog.Int("unresolved", result.Unresolved))

	return result, nil
}

func resolveTimings(model route.Model, bus models.Bus, result *RecalculationResult) []models.Timing {
	timings := make([]models.Timing, len(bus.Timings))
	for i, timing := range bus.Timings {
		distance, err := model.Resolve(timing.Start, timing.End)
		if err != nil {
			timing.Distance = nil
			timing.Fare = nil
			result.Unresolved++
		} else {
			timing.Distance = models.Float64(distance)
			timing.Fare = models.Float64(route.Fare(distance, bus.PriceDetails.PerKmAdult))
			result.Resolved++
		}
		timings[i] = timing
	}
	return timings
}

// RecalculateAll recalculates every bus. A failure on one bus is recorded in
// its result and does not stop the others.
func (m *Manager) RecalculateAll(ctx context.Context) ([]RecalculationResult, error) {
	buses, err := m.ListBuses(ctx)
	if err != nil {
		return nil, err
	}

	results := make([]RecalculationResult, 0, len(buses))
	for _, bus := range buses {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		result, err := m.RecalculateBus(ctx, bus.ID)
		if err != nil {
			result.Error = err.Error()
		}
		results = append(results, result)
	}
	return results, nil
}

// SetTimingDistance stores a manually entered distance on one timing, then
// recalculates the bus. A distance table for the route takes precedence; with
// no table the manual value stays.
func (m *Manager) SetTimingDistance(ctx context.Context, id string, index int, distance float64) (models.Bus, error) {
	if distance < 0 {
		verr := &ValidationError{}
		verr.add("distance", "must be at least 0")
		return models.Bus{}, verr
	}

	bus, err := m.GetBus(ctx, id)
	if err != nil {
		return models.Bus{}, err
	}
	if index < 0 || index >= len(bus.Timings) {
		return models.Bus{}, fmt.Errorf("%w: index %d on bus %s", ErrTimingNotFound, index, id)
	}

	bus.Timings[index].Distance = models.Float64(distance)
	bus.Timings[index].Fare = models.Float64(route.Fare(distance, bus.PriceDetails.PerKmAdult))
	if err := m.store.Update(ctx, busesCollection, docstore.Key{ID: id}, map[string]any{"timings": bus.Timings}); err != nil {
		return models.Bus{}, fmt.Errorf("store timings for %s: %w", id, err)
	}

	if _, err := m.RecalculateBus(ctx, id); err != nil && !errors.Is(err, ErrRouteNotFound) {
		return models.Bus{}, err
	}
	return m.GetBus(ctx, id)
}
