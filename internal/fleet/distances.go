package fleet

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"busroot.app/docstore"
	"busroot.app/internal/logging"
	"busroot.app/internal/route"
)

func tableKey(key route.Key) docstore.Key {
	return docstore.Key{ID: key.Start, Sub: key.End}
}

// SaveDistanceTable validates a table and stores it under its normalized
// route key, replacing any previous version.
func (m *Manager) SaveDistanceTable(ctx context.Context, table route.Table) (route.Table, error) {
	table.Start = strings.TrimSpace(table.Start)
	table.End = strings.TrimSpace(table.End)
	for i := range table.IntermediateStops {
		table.IntermediateStops[i].Stop = strings.TrimSpace(table.IntermediateStops[i].Stop)
	}

	if err := table.Validate(); err != nil {
		return route.Table{}, err
	}
	table.UpdatedAt = m.now().UTC().Format(time.RFC3339)

	key := table.Key()
	if err := m.store.Set(ctx, distancesCollection, tableKey(key), table); err != nil {
		return route.Table{}, fmt.Errorf("store distance table %s: %w", key, err)
	}

	logging.LogOperation(m.logger, "distance_table_saved",
		slog.String("route", key.String()),
		slog.Int("intermediate_stops", len(table.IntermediateStops)),
		slog.Float64("total_km", table.TotalDistance()))

	return table, nil
}

func (m *Manager) GetDistanceTable(ctx context.Context, key route.Key) (route.Table, error) {
	key = route.NewKey(key.Start, key.End)
	if key.IsZero() {
		return route.Table{}, fmt.Errorf("%w: %s", ErrRouteNotFound, key)
	}

	var table route.Table
	err := m.store.Get(ctx, distancesCollection, tableKey(key), &table)
	if errors.Is(err, docstore.ErrNotFound) {
		return route.Table{}, fmt.Errorf("%w: %s", ErrRouteNotFound, key)
	}
	if err != nil {
		return route.Table{}, err
	}
	return table, nil
}

func (m *Manager) ListDistanceTables(ctx context.Context) ([]route.Table, error) {
	docs, err := m.store.List(ctx, distancesCollection)
	if err != nil {
		return nil, fmt.Errorf("list distance tables: %w", err)
	}

	tables := make([]route.Table, 0, len(docs))
	for _, doc := range docs {
		var table route.Table
		if err := doc.Decode(&table); err != nil {
			logging.LogError(m.logger, "skipping undecodable distance table", err,
				slog.String("route", doc.Key.String()))
			continue
		}
		tables = append(tables, table)
	}
	return tables, nil
}

func (m *Manager) DeleteDistanceTable(ctx context.Context, key route.Key) error {
	key = route.NewKey(key.Start, key.End)
	if key.IsZero() {
		return fmt.Errorf("%w: %s", ErrRouteNotFound, key)
	}

	err := m.store.Delete(ctx, distancesCollection, tableKey(key))
	if errors.Is(err, docstore.ErrNotFound) {
		return fmt.Errorf("%w: %s", ErrRouteNotFound, key)
	}
	if err != nil {
		return err
	}

	logging.LogOperation(m.logger, "distance_table_deleted", slog.String("route", key.String()))
	return nil
}

// CalculateDistance resolves the distance between two stops on the route
// stored under key.
func (m *Manager) CalculateDistance(ctx context.Context, key route.Key, from, to string) (float64, error) {
	table, err := m.GetDistanceTable(ctx, key)
	if err != nil {
		return 0, err
	}
	return route.Build(table).Resolve(from, to)
}
