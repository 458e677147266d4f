package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/penwyp/go-colony-monitor/internal/config"
	"github.com/penwyp/go-colony-monitor/internal/data/store"
)

const testActivities = `day,start,end,activity,cam
1,06:30:00,06:33:00,resting,cam_inf
1,06:33:00,07:03:00,column,cam_inf
1,07:03:00,07:23:00,foraging,cam_inf
1,18:00:00,19:00:00,transport,cam_sup
`

const testPredators = `day,start,end,predator,cam,attack1
1,06:40:00,06:50:00,Opiliones,cam_inf,06:41:00
`

// resetFlags puts every flag of cmd and its children back to its default
// so that consecutive executions do not leak state.
func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
	for _, child := range cmd.Commands() {
		resetFlags(child)
	}
}

// execute runs the command tree with args and an isolated home directory.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("HOME", t.TempDir())
	resetFlags(rootCmd)
	t.Cleanup(func() { resetFlags(rootCmd) })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeData(t *testing.T, activities, predators string) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "N1_video1_Activity.csv"), []byte(activities), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "N1_video1_Predator.csv"), []byte(predators), 0644))
	return dir
}

func TestExpandPath(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected func(string) string
	}{
		{
			name:  "home directory expansion",
			input: "~/test/path",
			expected: func(home string) string {
				return filepath.Join(home, "test/path")
			},
		},
		{
			name:  "absolute path unchanged",
			input: "/absolute/path",
			expected: func(home string) string {
				return "/absolute/path"
			},
		},
		{
			name:  "relative path converted to absolute",
			input: "relative/path",
			expected: func(home string) string {
				abs, _ := filepath.Abs("relative/path")
				return abs
			},
		},
	}

	home, err := os.UserHomeDir()
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected(home), expandPath(tt.input))
		})
	}
}

func TestEnsureDir(t *testing.T) {
	testDir := filepath.Join(t.TempDir(), "test", "nested", "dir")

	require.NoError(t, ensureDir(testDir))
	info, err := os.Stat(testDir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	// Idempotent
	assert.NoError(t, ensureDir(testDir))
}

func TestStatisticsFlagUsage(t *testing.T) {
	tests := []struct {
		flag     string
		contains []string
	}{
		{"repeats", []string{"must be positive", "default from config"}},
		{"threshold", []string{"minutes or less are dropped", "default from config"}},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := rootCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag)
			for _, want := range tt.contains {
				assert.Contains(t, flag.Usage, want)
			}
			assert.NotContains(t, flag.Usage, "0 =")
			assert.NotContains(t, flag.Usage, "above which")
		})
	}
}

func TestRootCommandFlags(t *testing.T) {
	tests := []struct {
		flag         string
		defaultValue string
		shorthand    string
	}{
		{"dir", config.DefaultDataDir, ""},
		{"config", "", ""},
		{"source", "[]", ""},
		{"concurrency", "0", ""},
		{"debug", "false", ""},
		{"output", "table", "o"},
		{"stats-dir", config.DefaultStatsDir, ""},
		{"sqlite", "", ""},
		{"repeats", "0", ""},
		{"seed", "0", ""},
		{"threshold", "0", ""},
		{"watch", "false", "w"},
	}

	for _, tt := range tests {
		t.Run(tt.flag, func(t *testing.T) {
			flag := rootCmd.Flags().Lookup(tt.flag)
			require.NotNil(t, flag)
			assert.Equal(t, tt.defaultValue, flag.DefValue)
			if tt.shorthand != "" {
				assert.Equal(t, tt.shorthand, flag.Shorthand)
			}
		})
	}
}

func TestSubcommands(t *testing.T) {
	names := make(map[string]bool)
	for _, c := range rootCmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"timeline", "check", "config", "runs"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.Equal(t, "go-colony-monitor [flags]", rootCmd.Use)
	assert.Contains(t, rootCmd.Long, "Examples:")
}

func TestRunAnalyzeJSON(t *testing.T) {
	dir := writeData(t, testActivities, testPredators)
	db := filepath.Join(t.TempDir(), "runs.db")

	out, err := execute(t, "--dir", dir, "--output", "json", "--seed", "3", "--repeats", "200", "--sqlite", db)
	require.NoError(t, err)

	var decoded struct {
		RunID   string   `json:"run_id"`
		Sources []string `json:"sources"`
		Tables  []struct {
			Name string `json:"name"`
		} `json:"tables"`
	}
	require.NoError(t, sonic.UnmarshalString(out, &decoded))
	assert.Equal(t, []string{"N1_video1"}, decoded.Sources)
	assert.Len(t, decoded.Tables, 11)

	s, err := store.Open(db)
	require.NoError(t, err)
	defer s.Close()
	runs, err := s.Runs(t.Context(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, decoded.RunID, runs[0].ID)
}

func TestRunAnalyzeMissingDirectory(t *testing.T) {
	_, err := execute(t, "--dir", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCheckCommand(t *testing.T) {
	t.Run("valid files", func(t *testing.T) {
		dir := writeData(t, testActivities, testPredators)
		out, err := execute(t, "check", "--dir", dir)
		require.NoError(t, err)
		assert.Contains(t, out, "Valid sources: 1")
		assert.Contains(t, out, "All sources valid")
	})

	t.Run("activity out of order", func(t *testing.T) {
		bad := "day,start,end,activity,cam\n1,08:00:00,09:00:00,resting,cam_inf\n1,07:00:00,08:00:00,column,cam_inf\n"
		dir := writeData(t, bad, testPredators)
		out, err := execute(t, "check", "--dir", dir)
		assert.ErrorIs(t, err, errCheckFailed)
		assert.Contains(t, out, "Failures: 1")
	})
}

func TestConfigCommand(t *testing.T) {
	dir := t.TempDir()
	out, err := execute(t, "config", "--dir", dir, "--source", "N1_video1,N2_video3")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, dir, cfg.DataDir)
	assert.Equal(t, []string{"N1_video1", "N2_video3"}, cfg.Sources)
	assert.Equal(t, "table", cfg.Output)
}

func TestTimelineCommand(t *testing.T) {
	dir := writeData(t, testActivities, testPredators)

	t.Run("figures", func(t *testing.T) {
		figs := filepath.Join(t.TempDir(), "fig")
		out, err := execute(t, "timeline", "--dir", dir, "--fig-dir", figs)
		require.NoError(t, err)
		assert.Contains(t, out, "Wrote 2 figures")
		for _, name := range []string{"N1_video1_cam_inf.png", "N1_video1_cam_sup.png"} {
			_, err := os.Stat(filepath.Join(figs, name))
			assert.NoError(t, err, name)
		}
	})

	t.Run("dump", func(t *testing.T) {
		out, err := execute(t, "timeline", "--dir", dir, "--dump")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(strings.TrimSpace(out), "["))
		assert.Contains(t, out, `"category": "Opiliones"`)
	})
}

func TestRunsCommand(t *testing.T) {
	dir := writeData(t, testActivities, testPredators)
	db := filepath.Join(t.TempDir(), "runs.db")

	_, err := execute(t, "--dir", dir, "--output", "summary", "--repeats", "100", "--sqlite", db)
	require.NoError(t, err)

	out, err := execute(t, "runs", "--sqlite", db)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 1)
	runID := strings.Fields(lines[0])[0]

	out, err = execute(t, "runs", "--sqlite", db, "--show", runID, "--output", "summary")
	require.NoError(t, err)
	assert.Contains(t, out, runID)

	out, err = execute(t, "runs", "--sqlite", db, "--delete", runID)
	require.NoError(t, err)
	assert.Contains(t, out, "Deleted run")

	out, err = execute(t, "runs", "--sqlite", db)
	require.NoError(t, err)
	assert.Contains(t, out, "No stored runs")

	_, err = execute(t, "runs")
	assert.Error(t, err)
}
