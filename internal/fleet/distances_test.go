package fleet

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"busroot.app/internal/route"
)

// abcdTable is the route A(0) - B(3) - C(5) - D(2).
func abcdTable() route.Table {
	return route.Table{
		Start: "A",
		End:   "D",
		IntermediateStops: []route.IntermediateStop{
			{Stop: "B", Distance: 3},
			{Stop: "C", Distance: 5},
		},
		LastSegmentDistance: 2,
	}
}

func TestSaveAndGetDistanceTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	table := abcdTable()
	table.Start = "  A "
	saved, err := env.manager.SaveDistanceTable(ctx, table)
	require.NoError(t, err)
	assert.Equal(t, "A", saved.Start)
	assert.NotEmpty(t, saved.UpdatedAt)

	got, err := env.manager.GetDistanceTable(ctx, route.Key{Start: "a", End: " d"})
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestSaveDistanceTableReplaces(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.manager.SaveDistanceTable(ctx, abcdTable())
	require.NoError(t, err)

	corrected := abcdTable()
	corrected.LastSegmentDistance = 4
	_, err = env.manager.SaveDistanceTable(ctx, corrected)
	require.NoError(t, err)

	tables, err := env.manager.ListDistanceTables(ctx)
	require.NoError(t, err)
	require.Len(t, tables, 1)
	assert.Equal(t, 4.0, tables[0].LastSegmentDistance)
}

func TestSaveDistanceTableRejectsInvalid(t *testing.T) {
	env := newTestEnv(t)

	table := abcdTable()
	table.IntermediateStops = nil
	_, err := env.manager.SaveDistanceTable(context.Background(), table)
	assert.ErrorIs(t, err, route.ErrInvalidTable)
}

func TestDistanceTableKeysAreComposite(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	// Names containing the old "start_end" delimiter no longer collide.
	first := abcdTable()
	first.Start, first.End = "X_Y", "Z"
	second := abcdTable()
	second.Start, second.End = "X", "Y_Z"

	_, err := env.manager.SaveDistanceTable(ctx, first)
	require.NoError(t, err)
	_, err = env.manager.SaveDistanceTable(ctx, second)
	require.NoError(t, err)

	tables, err := env.manager.ListDistanceTables(ctx)
	require.NoError(t, err)
	assert.Len(t, tables, 2)
}

func TestDeleteDistanceTable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.manager.SaveDistanceTable(ctx, abcdTable())
	require.NoError(t, err)

	require.NoError(t, env.manager.DeleteDistanceTable(ctx, route.Key{Start: "a", End: "d"}))
	assert.ErrorIs(t, env.manager.DeleteDistanceTable(ctx, route.Key{Start: "a", End: "d"}), ErrRouteNotFound)

	_, err = env.manager.GetDistanceTable(ctx, route.Key{Start: "A", End: "D"})
	assert.ErrorIs(t, err, ErrRouteNotFound)
}

func TestCalculateDistance(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	_, err := env.manager.SaveDistanceTable(ctx, abcdTable())
	require.NoError(t, err)

	key := route.Key{Start: "A", End: "D"}
	tests := []struct {
		from, to string
		want     float64
	}{
		{"A", "D", 10},
		{"D", "A", 10},
		{"B", "C", 5},
		{"c", "b", 5},
		{"A", "A", 0},
	}
	for _, tt := range tests {
		t.Run(tt.from+"-"+tt.to, func(t *testing.T) {
			got, err := env.manager.CalculateDistance(ctx, key, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = env.manager.CalculateDistance(ctx, key, "A", "Z")
	assert.ErrorIs(t, err, route.ErrStopNotFound)

	_, err = env.manager.CalculateDistance(ctx, route.Key{Start: "P", End: "Q"}, "P", "Q")
	assert.ErrorIs(t, err, ErrRouteNotFound)
}
