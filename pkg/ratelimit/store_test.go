package ratelimit

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"otomata/pkg/logger"
)

func newTestStore(t *testing.T) *store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rate_limits.json")
	s, err := newStore(path, logger.GetLogger())
	require.NoError(t, err)
	return s
}

func TestNewStoreCreatesEmptyDocument(t *testing.T) {
	s := newTestStore(t)

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(data))
	assert.Empty(t, s.load())
}

func TestStoreMissingFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.Remove(s.path))
	assert.Empty(t, s.load())
}

func TestStoreCorruptFileIsEmpty(t *testing.T) {
	s := newTestStore(t)
	require.NoError(t, os.WriteFile(s.path, []byte("][ garbage"), 0644))
	assert.Empty(t, s.load())
}

func TestStoreUpdateCreatesNestedStructure(t *testing.T) {
	s := newTestStore(t)
	k := key{service: "linkedin", identity: "main", action: "profile_visit"}

	rec := Record{DailyCount: 3, HourlyTimestamps: []string{}}
	require.NoError(t, s.updateRecord(k, "2025-03-10", rec, testNow))

	got := s.record(k, "2025-03-10")
	assert.Equal(t, 3, got.DailyCount)

	// Absent keys read as zero records
	assert.Equal(t, 0, s.record(key{service: "other"}, "2025-03-10").DailyCount)
}

func TestStoreUpdatePrunesOldDates(t *testing.T) {
	s := newTestStore(t)
	k := key{service: "test", identity: "default", action: "default"}

	old := testNow.AddDate(0, 0, -8).Format(dateLayout)
	recent := testNow.AddDate(0, 0, -3).Format(dateLayout)
	require.NoError(t, s.updateRecord(k, old, Record{DailyCount: 1}, testNow.AddDate(0, 0, -8)))
	require.NoError(t, s.updateRecord(k, recent, Record{DailyCount: 2}, testNow.AddDate(0, 0, -3)))

	today := testNow.Format(dateLayout)
	require.NoError(t, s.updateRecord(k, today, Record{DailyCount: 3}, testNow))

	doc := s.load()
	records := doc["test"]["default"]["default"]
	assert.NotContains(t, records, old, "records beyond the retention window are purged")
	assert.Contains(t, records, recent)
	assert.Contains(t, records, today)
}

func TestStoreDeleteRecord(t *testing.T) {
	s := newTestStore(t)
	k := key{service: "test", identity: "default", action: "default"}

	require.NoError(t, s.updateRecord(k, "2025-03-10", Record{DailyCount: 1}, testNow))
	require.NoError(t, s.deleteRecord(k, "2025-03-10"))
	assert.Equal(t, 0, s.record(k, "2025-03-10").DailyCount)

	// Deleting an absent record is a no-op
	require.NoError(t, s.deleteRecord(k, "2025-03-10"))
	require.NoError(t, s.deleteRecord(key{service: "missing"}, "2025-03-10"))
}

func TestStoreWireFormat(t *testing.T) {
	s := newTestStore(t)
	k := key{service: "linkedin", identity: "main", action: "profile_visit"}

	last := formatTimestamp(testNow)
	rec := Record{
		DailyCount:       2,
		HourlyTimestamps: []string{formatTimestamp(testNow.Add(-time.Minute)), last},
		LastRequest:      &last,
	}
	require.NoError(t, s.updateRecord(k, "2025-03-10", rec, testNow))

	data, err := os.ReadFile(s.path)
	require.NoError(t, err)

	var raw map[string]map[string]map[string]map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))

	day := raw["linkedin"]["main"]["profile_visit"]["2025-03-10"]
	assert.Equal(t, float64(2), day["daily_count"])
	assert.Len(t, day["hourly_timestamps"], 2)
	assert.Equal(t, last, day["last_request"])
}
