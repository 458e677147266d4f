package analyzer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/penwyp/go-colony-monitor/internal/config"
	"github.com/penwyp/go-colony-monitor/internal/core/model"
	"github.com/penwyp/go-colony-monitor/internal/data/store"
	"github.com/penwyp/go-colony-monitor/internal/presentation/formatter"
)

const fixtureActivities = `day,start,end,activity,cam
1,06:30:00,06:33:00,resting,cam_inf
1,06:33:00,07:03:00,column,cam_inf
1,07:03:00,07:13:00,foraging,cam_inf
1,07:13:00,07:23:00,foraging,cam_inf
1,07:23:00,07:43:00,resting,cam_inf
1,18:00:00,19:00:00,transport,cam_sup
`

const fixturePredators = `day,start,end,predator,cam,attack1,attack2
1,06:30:00,07:43:00,video,cam_inf,,
1,06:40:00,06:50:00,Opiliones,cam_inf,06:41:00,06:45:00
1,07:30:00,07:35:00,Reduviidae,cam_inf,,
`

func writeSource(t *testing.T, dir, name, activities, predators string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name+"_Activity.csv"), []byte(activities), 0644))
	if predators != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name+"_Predator.csv"), []byte(predators), 0644))
	}
}

func testConfig(t *testing.T, dir string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.DataDir = dir
	cfg.StatsDir = filepath.Join(dir, "stats")
	cfg.Concurrency = 2
	cfg.Statistics.BootstrapRepeats = 2000
	cfg.Statistics.Seed = 7
	cfg.Statistics.Workers = 2
	return cfg
}

func newFixtureAnalyzer(t *testing.T) (*Analyzer, *config.Config, *bytes.Buffer) {
	t.Helper()
	dir := t.TempDir()
	writeSource(t, dir, "N1_video1", fixtureActivities, fixturePredators)
	cfg := testConfig(t, dir)
	var buf bytes.Buffer
	a, err := New(cfg, &buf)
	require.NoError(t, err)
	return a, cfg, &buf
}

// cells returns the row of table whose first two columns are k1, k2.
func cells(t *testing.T, table formatter.Table, k1, k2 string) map[string]string {
	t.Helper()
	for _, r := range table.Rows {
		if r[0] == k1 && (k2 == "" || r[1] == k2) {
			out := make(map[string]string, len(r))
			for i, h := range table.Headers {
				out[h] = r[i]
			}
			return out
		}
	}
	t.Fatalf("table %s has no row %s/%s", table.Name, k1, k2)
	return nil
}

func buildTables(t *testing.T) map[string]formatter.Table {
	t.Helper()
	a, _, _ := newFixtureAnalyzer(t)
	ds, report, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, report.Issues)

	tables, err := a.Tables(context.Background(), ds)
	require.NoError(t, err)
	byName := make(map[string]formatter.Table, len(tables))
	for _, table := range tables {
		byName[table.Name] = table
	}
	return byName
}

func TestLoad(t *testing.T) {
	a, _, _ := newFixtureAnalyzer(t)
	ds, _, err := a.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"N1_video1"}, ds.Sources)
	assert.Len(t, ds.Activities, 6)
	assert.Len(t, ds.Predators, 2)
	// The 3 minute resting at the start of cam_inf is truncated and short.
	assert.Len(t, ds.Complete, 5)
	// The two touching foraging intervals merge.
	assert.Len(t, ds.Merged, 4)
}

func TestTableOrder(t *testing.T) {
	a, _, _ := newFixtureAnalyzer(t)
	ds, _, err := a.Load(context.Background())
	require.NoError(t, err)
	tables, err := a.Tables(context.Background(), ds)
	require.NoError(t, err)

	var names []string
	for _, table := range tables {
		names = append(names, table.Name)
	}
	assert.Equal(t, []string{
		TableVideoDurations, TableActivitiesSplit, TableActivitiesGrouped, TableActiveStatus,
		TablePredatorPresence, TablePredatorCounts, TablePredatorDurations,
		TableSplitDurations, TableGroupedDurations, TableDurationStandardErrors,
		TablePredatorsColonyActivity,
	}, names)
}

func TestVideoDurations(t *testing.T) {
	table := buildTables(t)[TableVideoDurations]
	require.Len(t, table.Rows, 6)

	all := cells(t, table, model.All, model.All)
	assert.Equal(t, "133", all["duration_minutes"])
	assert.Equal(t, "2h+13m", all["duration_hours"])

	sup := cells(t, table, "N1_video1", "cam_sup")
	assert.Equal(t, "60", sup["duration_minutes"])
	assert.Equal(t, "1h+0m", sup["duration_hours"])
}

func TestTimeByActiveStatus(t *testing.T) {
	table := buildTables(t)[TableActiveStatus]
	// Nests 2 and 3 have no records.
	require.Len(t, table.Rows, 6)

	all := cells(t, table, model.All, model.All)
	assert.Equal(t, "110", all["active_minutes"])
	assert.Equal(t, "0.8271", all["active_ratio"])
	assert.Equal(t, "23", all["inactive_minutes"])
	assert.Equal(t, "0.1729", all["inactive_ratio"])
	assert.Equal(t, "133", all["total_minutes"])
	assert.Equal(t, "103", all["total_day_minutes"])
	assert.Equal(t, "30", all["total_night_minutes"])
	assert.Equal(t, "1.0000", all["active_night_ratio"])
}

func TestTimeByActivities(t *testing.T) {
	tables := buildTables(t)

	split := cells(t, tables[TableActivitiesSplit], "1", "cam_inf")
	assert.Equal(t, "20", split["foraging_minutes"])
	assert.Equal(t, "0", split["transport+construction_minutes"])
	assert.Equal(t, "0.0000", split["transport+construction_ratio"])
	assert.Equal(t, "NaN", split["foraging_night_ratio"])

	grouped := cells(t, tables[TableActivitiesGrouped], model.All, model.All)
	assert.Equal(t, "60", grouped["transport/construction_minutes"])
	assert.Equal(t, "0.4511", grouped["transport/construction_ratio"])
	assert.Equal(t, "30", grouped["transport/construction_night_minutes"])
}

func TestPredatorTables(t *testing.T) {
	tables := buildTables(t)

	presence := cells(t, tables[TablePredatorPresence], model.All, "cam_inf")
	assert.Equal(t, "10", presence["Opiliones_minutes"])
	assert.Equal(t, "0.1370", presence["Opiliones_ratio"])
	assert.Equal(t, "73", presence["total_minutes"])

	counts := tables[TablePredatorCounts]
	inf := cells(t, counts, model.All, "cam_inf")
	assert.Equal(t, "1", inf["Opiliones_n_presences"])
	assert.Equal(t, "2", inf["Opiliones_n_attacks"])
	assert.Equal(t, "2.0000", inf["Opiliones_n_attacks_by_presence"])
	assert.Equal(t, "0.0000", inf["Reduviidae_n_attacks_by_presence"])
	sup := cells(t, counts, model.All, "cam_sup")
	assert.Equal(t, "0", sup["Opiliones_n_presences"])
	assert.Equal(t, "NaN", sup["Opiliones_n_attacks_by_presence"])

	durations := tables[TablePredatorDurations]
	assert.Len(t, durations.Rows, 4)
	all := cells(t, durations, model.All, model.All)
	assert.Equal(t, "10.0000", all["Opiliones_average_duration_minutes"])
	assert.Equal(t, "5.0000", all["Reduviidae_median_duration_minutes"])
}

func TestActivityDurationTables(t *testing.T) {
	tables := buildTables(t)

	split := cells(t, tables[TableSplitDurations], model.All, model.All)
	assert.Equal(t, "1", split["resting_n"])
	assert.Equal(t, "20.0000", split["resting_average_duration_minutes"])
	assert.Equal(t, "2", split["foraging_n"])
	assert.Equal(t, "10.0000", split["foraging_average_duration_minutes"])

	grouped := cells(t, tables[TableGroupedDurations], model.All, model.All)
	assert.Equal(t, "1", grouped["foraging_n"])
	assert.Equal(t, "20.0000", grouped["foraging_average_duration_minutes"])
	assert.Equal(t, "60.0000", grouped["transport/construction_median_duration_minutes"])
}

func TestStandardErrors(t *testing.T) {
	table := buildTables(t)[TableDurationStandardErrors]
	require.Len(t, table.Rows, 4)

	resting := cells(t, table, model.CategoryResting, "")
	assert.Equal(t, "1", resting["n_observations"])
	assert.Equal(t, "20.0000", resting["duration_mean"])
	assert.Equal(t, "NaN", resting["duration_standard_deviation"])
	assert.Equal(t, "NaN:NaN", resting["confidence_interval_95_on_mean"])
	assert.Equal(t, "0.0000", resting["standard_error_on_mean_bootstrap"])
	assert.Equal(t, "20.00:20.00", resting["confidence_interval_95_on_median_bootstrap"])
}

func TestPredatorsColonyActivity(t *testing.T) {
	table := buildTables(t)[TablePredatorsColonyActivity]
	assert.Len(t, table.Rows, 4)
	assert.Equal(t, "active_minutes", table.Headers[2])
	assert.Equal(t, "total_minutes", table.Headers[len(table.Headers)-1])

	inf := cells(t, table, model.All, "cam_inf")
	assert.Equal(t, "50", inf["active_minutes"])
	assert.Equal(t, "23", inf["inactive_minutes"])
	assert.Equal(t, "10", inf["Opiliones_active_minutes"])
	assert.Equal(t, "0.2000", inf["Opiliones_active_ratio"])
	assert.Equal(t, "0", inf["Opiliones_inactive_minutes"])
	assert.Equal(t, "5", inf["Reduviidae_inactive_minutes"])
	assert.Equal(t, "0.2174", inf["Reduviidae_inactive_ratio"])
	assert.Equal(t, "73", inf["total_minutes"])
}

func TestLoadFailsOnActivityOrder(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "N2_video3", `day,start,end,activity,cam
1,07:00:00,07:30:00,resting,cam_inf
1,06:30:00,07:00:00,column,cam_inf
`, "")
	a, err := New(testConfig(t, dir), &bytes.Buffer{})
	require.NoError(t, err)

	_, report, err := a.Load(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, model.ErrOutOfOrderRecord)
	assert.True(t, report.HasFailures())
	assert.Contains(t, err.Error(), "N2_video3")
}

func TestLoadWarnsOnPredatorOrder(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "N2_video3", fixtureActivities, `day,start,end,predator,cam
1,07:30:00,07:35:00,Reduviidae,cam_inf
1,06:40:00,06:50:00,Opiliones,cam_inf
`)
	a, err := New(testConfig(t, dir), &bytes.Buffer{})
	require.NoError(t, err)

	ds, report, err := a.Load(context.Background())
	require.NoError(t, err)
	assert.Len(t, ds.Predators, 2)
	require.Len(t, report.Warnings(), 1)
	assert.ErrorIs(t, report.Warnings()[0].Err, model.ErrOutOfOrderRecord)
}

func TestLoadNoSources(t *testing.T) {
	a, err := New(testConfig(t, t.TempDir()), &bytes.Buffer{})
	require.NoError(t, err)

	_, _, err = a.Load(context.Background())
	assert.ErrorIs(t, err, ErrNoSources)
}

func TestNewRejectsBadSeverity(t *testing.T) {
	cfg := testConfig(t, t.TempDir())
	cfg.Validation.Activity = "ignore"
	_, err := New(cfg, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRunJSONAndSQLite(t *testing.T) {
	a, cfg, buf := newFixtureAnalyzer(t)
	cfg.Output = formatter.OutputJSON
	cfg.SQLitePath = filepath.Join(t.TempDir(), "runs.db")

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, report.RunID)

	var decoded struct {
		RunID  string `json:"run_id"`
		Tables []struct {
			Name string `json:"name"`
		} `json:"tables"`
	}
	require.NoError(t, sonic.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, report.RunID, decoded.RunID)
	assert.Len(t, decoded.Tables, 11)

	db, err := store.Open(cfg.SQLitePath)
	require.NoError(t, err)
	defer db.Close()
	stored, err := db.LoadReport(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Tables, stored.Tables)
}

func TestRunSurfacesPredatorWarnings(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "N2_video3", fixtureActivities, `day,start,end,predator,cam
1,07:30:00,07:35:00,Reduviidae,cam_inf
1,06:40:00,06:50:00,Opiliones,cam_inf
`)
	cfg := testConfig(t, dir)
	cfg.SQLitePath = filepath.Join(t.TempDir(), "runs.db")
	var buf bytes.Buffer
	a, err := New(cfg, &buf)
	require.NoError(t, err)

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], model.ErrOutOfOrderRecord.Error())
	assert.Contains(t, report.Warnings[0], "Opiliones")
	assert.Contains(t, buf.String(), report.Warnings[0])

	db, err := store.Open(cfg.SQLitePath)
	require.NoError(t, err)
	defer db.Close()
	stored, err := db.LoadReport(context.Background(), report.RunID)
	require.NoError(t, err)
	assert.Equal(t, report.Warnings, stored.Warnings)
}

func TestRunMalformedPredatorAddsNoMinutes(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "N1_video1", fixtureActivities, `day,start,end,predator,cam
1,06:50:00,06:40:00,Opiliones,cam_inf
`)
	a, err := New(testConfig(t, dir), &bytes.Buffer{})
	require.NoError(t, err)

	report, err := a.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Warnings, 1)
	assert.Contains(t, report.Warnings[0], model.ErrMalformedInterval.Error())

	presence, ok := report.Table(TablePredatorPresence)
	require.True(t, ok)
	r := cells(t, presence, model.All, model.All)
	assert.Equal(t, "0", r["Opiliones_minutes"])
	assert.Equal(t, "0.0000", r["Opiliones_ratio"])

	durations, ok := report.Table(TablePredatorDurations)
	require.True(t, ok)
	r = cells(t, durations, model.All, model.All)
	assert.Equal(t, "1", r["Opiliones_n_presences"])
	assert.Equal(t, "0.0000", r["Opiliones_average_duration_minutes"])
}

func TestRunCSVFiles(t *testing.T) {
	a, cfg, _ := newFixtureAnalyzer(t)
	cfg.Output = formatter.OutputCSV

	_, err := a.Run(context.Background())
	require.NoError(t, err)

	for _, name := range []string{TableVideoDurations, TableDurationStandardErrors, TablePredatorsColonyActivity} {
		assert.FileExists(t, filepath.Join(cfg.StatsDir, name+".csv"))
	}
}

func TestWatchStopsWithContext(t *testing.T) {
	a, _, _ := newFixtureAnalyzer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Watch(ctx, 50*time.Millisecond) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Watch did not return after the context ended")
	}
}
