package batch

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/mr1hm/go-quake-impact/internal/catalog"
	"github.com/mr1hm/go-quake-impact/internal/damage"
	"github.com/mr1hm/go-quake-impact/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestRun_CartesianOrder(t *testing.T) {
	buildings := catalog.Buildings()
	quakes := catalog.DefaultScenarios()

	results := Run(buildings, quakes)
	require.Len(t, results, len(buildings)*len(quakes))

	for i, r := range results {
		qi := i / len(buildings)
		bi := i % len(buildings)
		assert.Equal(t, qi, r.EarthquakeIndex)
		assert.Equal(t, quakes[qi].Magnitude, r.Magnitude)
		assert.Equal(t, quakes[qi].FaultName, r.FaultName)
		assert.Equal(t, buildings[bi].ID, r.Building.ID)
		assert.Equal(t, damage.Assess(buildings[bi], quakes[qi]), r.Assessment)
		assert.GreaterOrEqual(t, r.EarthquakeIndex, 0)
		assert.Less(t, r.EarthquakeIndex, len(quakes))
	}
}

func TestRun_Empty(t *testing.T) {
	assert.Empty(t, Run(nil, catalog.DefaultScenarios()))
	assert.Empty(t, Run(catalog.Buildings(), nil))
}

func TestRunConcurrent_MatchesRun(t *testing.T) {
	buildings := catalog.Buildings()
	quakes := append(catalog.DefaultScenarios(), models.Earthquake{
		Magnitude: 8, EpicenterLat: 37.6688, EpicenterLon: -122.0808, DepthKm: 5, FaultName: "Hayward Fault",
	})
	want := Run(buildings, quakes)

	for _, workers := range []int{0, 1, 3, 16, 1000} {
		got, err := RunConcurrent(context.Background(), buildings, quakes, workers)
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, want, got, "workers=%d", workers)
	}
}

func TestRunConcurrent_Empty(t *testing.T) {
	got, err := RunConcurrent(context.Background(), nil, catalog.DefaultScenarios(), 4)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRunConcurrent_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got, err := RunConcurrent(ctx, catalog.Buildings(), catalog.DefaultScenarios(), 2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Nil(t, got)
}
