package forecast

import (
	"database/sql"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

func setupSnapshotRepo(t *testing.T) *Repository {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	repo, err := NewRepository(db, zerolog.Nop())
	require.NoError(t, err)
	return repo
}

func sampleResult(requestID string, generatedAt time.Time) *ForecastResult {
	return &ForecastResult{
		RequestID:    requestID,
		InitialValue: 10000,
		Horizon:      Horizon1Month,
		HorizonDays:  30,
		Simulations:  5000,
		Percentiles: PercentileSeries{
			Dates:        []string{"2026-09-01", "2026-09-02"},
			Percentile5:  []float64{10000, 9900},
			Percentile25: []float64{10000, 9950},
			Percentile50: []float64{10000, 10010},
			Percentile75: []float64{10000, 10060},
			Percentile95: []float64{10000, 10120},
		},
		Statistics: RiskStatistics{
			MeanFinalValue:      10500,
			MeanReturn:          0.05,
			SharpeRatio:         0.9,
			VaR95:               9200,
			ProbabilityPositive: 0.7,
		},
		Insights: []string{"High probability of positive returns: 70.0% chance of gains"},
		Metadata: ResultMetadata{
			Engine:      EngineProfessional,
			Version:     "2.0",
			GeneratedAt: generatedAt,
			Warnings:    []string{},
		},
	}
}

func TestRepositorySaveAndGet(t *testing.T) {
	repo := setupSnapshotRepo(t)
	now := time.Now().UTC().Truncate(time.Second)

	original := sampleResult("req-1", now)
	require.NoError(t, repo.Save(original, "cachekey1"))

	loaded, err := repo.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, original.RequestID, loaded.RequestID)
	assert.Equal(t, original.InitialValue, loaded.InitialValue)
	assert.Equal(t, original.Percentiles, loaded.Percentiles)
	assert.Equal(t, original.Statistics, loaded.Statistics)
	assert.Equal(t, original.Insights, loaded.Insights)
	assert.Equal(t, original.Metadata.Engine, loaded.Metadata.Engine)
}

func TestRepositoryGetMissing(t *testing.T) {
	repo := setupSnapshotRepo(t)

	_, err := repo.Get("nope")
	require.ErrorIs(t, err, ErrSnapshotNotFound)
}

func TestRepositorySaveReplaces(t *testing.T) {
	repo := setupSnapshotRepo(t)
	now := time.Now().UTC()

	first := sampleResult("req-1", now)
	require.NoError(t, repo.Save(first, "k"))

	second := sampleResult("req-1", now)
	second.InitialValue = 20000
	require.NoError(t, repo.Save(second, "k"))

	loaded, err := repo.Get("req-1")
	require.NoError(t, err)
	assert.Equal(t, 20000.0, loaded.InitialValue)

	count, err := repo.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRepositoryListNewestFirst(t *testing.T) {
	repo := setupSnapshotRepo(t)
	base := time.Now().UTC().Truncate(time.Second)

	require.NoError(t, repo.Save(sampleResult("old", base.Add(-2*time.Hour)), "k1"))
	require.NoError(t, repo.Save(sampleResult("mid", base.Add(-time.Hour)), "k2"))
	require.NoError(t, repo.Save(sampleResult("new", base), "k3"))

	list, err := repo.List(10)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "new", list[0].RequestID)
	assert.Equal(t, "mid", list[1].RequestID)
	assert.Equal(t, "old", list[2].RequestID)
	assert.Equal(t, Horizon1Month, list[0].Horizon)

	limited, err := repo.List(2)
	require.NoError(t, err)
	assert.Len(t, limited, 2)
}

func TestRepositoryPrune(t *testing.T) {
	repo := setupSnapshotRepo(t)
	now := time.Now().UTC()

	require.NoError(t, repo.Save(sampleResult("stale", now.Add(-10*24*time.Hour)), "k1"))
	require.NoError(t, repo.Save(sampleResult("fresh", now), "k2"))

	removed, err := repo.Prune(7 * 24 * time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	_, err = repo.Get("stale")
	require.ErrorIs(t, err, ErrSnapshotNotFound)
	_, err = repo.Get("fresh")
	require.NoError(t, err)
}
