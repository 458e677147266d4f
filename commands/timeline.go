package commands

import (
	"fmt"

	"github.com/penwyp/go-colony-monitor/internal/analyzer"
	"github.com/penwyp/go-colony-monitor/internal/config"
	"github.com/penwyp/go-colony-monitor/internal/presentation/render"
	"github.com/penwyp/go-colony-monitor/internal/util"
	"github.com/spf13/cobra"
)

var (
	figDir   string
	dumpOnly bool
)

var timelineCmd = &cobra.Command{
	Use:   "timeline",
	Short: "Draw the activity and predator timeline of each source",
	Long: `Draws one figure per source and camera. Each row of a figure covers one
timeline row; activities fill the row band and each predator taxon gets its own lane below it.

Examples:
  go-colony-monitor timeline                      # Write PNG figures to ./fig
  go-colony-monitor timeline --fig-dir ./figures  # Write PNG figures to ./figures
  go-colony-monitor timeline --dump               # Print the row segments as JSON`,
	RunE: runTimeline,
}

func init() {
	rootCmd.AddCommand(timelineCmd)

	timelineCmd.Flags().StringVar(&figDir, "fig-dir", config.DefaultFigDir,
		"Directory for timeline figures")
	timelineCmd.Flags().BoolVar(&dumpOnly, "dump", false,
		"Print the row segments as JSON instead of drawing")
}

func runTimeline(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer util.CloseLogger()

	a, err := analyzer.New(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	ds, _, err := a.Load(ctx)
	if err != nil {
		return err
	}

	if dumpOnly {
		return render.Dump(cmd.OutOrStdout(), a.Mapper(), ds.Activities, ds.Predators)
	}

	r := render.NewRenderer(a.Mapper(), cfg.Taxonomy.Predators)
	total := 0
	for _, source := range ds.Sources {
		paths, err := r.Save(cfg.FigDir, source, cfg.Cameras(), ds.Activities, ds.Predators)
		if err != nil {
			return fmt.Errorf("source %s: %w", source, err)
		}
		total += len(paths)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %d figures to %s\n", total, cfg.FigDir)
	return nil
}
