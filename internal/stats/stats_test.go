package stats

import (
	"context"
	"testing"

	"github.com/alexivanou/forecast-widget/internal/config"
	"github.com/alexivanou/forecast-widget/internal/database"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSessions struct {
	live, online int
}

func (f fakeSessions) Len() int    { return f.live }
func (f fakeSessions) Online() int { return f.online }

func setupTestDB(t *testing.T) (*sqlx.DB, config.DBConfig) {
	cfg := config.DBConfig{Type: config.DBTypeMemory, Name: "stats_" + uuid.NewString()}
	db, err := database.Connect(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, database.Migrate(db, cfg, "../../migrations"))
	return db, cfg
}

func TestCollector_Collect(t *testing.T) {
	db, cfg := setupTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx, "INSERT INTO countries (code, name) VALUES ('XX', 'Test Country')")
	require.NoError(t, err)
	_, err = db.ExecContext(ctx, "INSERT INTO places (id, country_code, name, population, lat, lon) VALUES (1, 'XX', 'Test City', 1000, 10.0, 10.0)")
	require.NoError(t, err)

	collector := NewCollector(db, cfg)

	stats, err := collector.Collect(ctx)
	require.NoError(t, err)

	assert.Equal(t, "memory", stats.Database.Type)
	assert.Equal(t, int64(2), stats.Database.TotalRecords)

	var placesCount int64
	for _, ts := range stats.Database.TableStats {
		if ts.Name == "places" {
			placesCount = ts.RowCount
		}
	}
	assert.Equal(t, int64(1), placesCount)

	assert.Greater(t, stats.Memory.Alloc, uint64(0))
	assert.GreaterOrEqual(t, stats.Runtime.NumGoroutines, 1)
	assert.Nil(t, stats.Widget)

	stats2, err := collector.Collect(ctx)
	require.NoError(t, err)
	assert.Equal(t, stats.Memory.Alloc, stats2.Memory.Alloc, "memory stats are cached")
}

func TestCollector_EmptyDB(t *testing.T) {
	db, cfg := setupTestDB(t)

	stats, err := NewCollector(db, cfg).Collect(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(0), stats.Database.TotalRecords)
	assert.Len(t, stats.Database.TableStats, 2)
}

func TestCollector_WithWidget(t *testing.T) {
	db, cfg := setupTestDB(t)

	collector := NewCollector(db, cfg).WithWidget(fakeSessions{live: 3, online: 2})

	stats, err := collector.Collect(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stats.Widget)
	assert.Equal(t, 3, stats.Widget.Sessions)
	assert.Equal(t, 2, stats.Widget.OnlineSessions)
}
