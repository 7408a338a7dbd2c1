package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/mr1hm/go-quake-impact/internal/catalog"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "quake-sim",
		Short:        "Earthquake building damage and recovery estimates for San Francisco and San Mateo",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(runCmd())
	rootCmd.AddCommand(assessCmd())
	rootCmd.AddCommand(timelineCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runCmd() *cobra.Command {
	var (
		out     string
		workers int
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the stock M5.5, M6.5 and M7.0 scenarios and export every row to CSV",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runScenarios(cmd.Context(), cmd.OutOrStdout(), out, workers)
		},
	}

	cmd.Flags().StringVarP(&out, "out", "o", "earthquake_results.csv", "CSV output path")
	cmd.Flags().IntVarP(&workers, "workers", "w", 0, "assessment goroutines (0 uses GOMAXPROCS)")
	return cmd
}

// quakeFlags are shared by the single-event commands.
type quakeFlags struct {
	magnitude float64
	lat       float64
	lon       float64
	depth     float64
	preset    string
}

func (f *quakeFlags) bind(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&f.magnitude, "magnitude", "m", 7.0, "moment magnitude (4.0-8.0)")
	cmd.Flags().Float64Var(&f.lat, "lat", 0, "epicenter latitude (overrides --preset)")
	cmd.Flags().Float64Var(&f.lon, "lon", 0, "epicenter longitude (overrides --preset)")
	cmd.Flags().Float64VarP(&f.depth, "depth", "d", catalog.DefaultDepthKm, "hypocenter depth in km (1-30)")
	cmd.Flags().StringVarP(&f.preset, "preset", "p", catalog.Presets()[0].Name, "named epicenter")
}

func assessCmd() *cobra.Command {
	var flags quakeFlags

	cmd := &cobra.Command{
		Use:   "assess",
		Short: "Assess every catalogue building against one earthquake",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.earthquake(cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon"))
			if err != nil {
				return err
			}
			return runAssess(cmd.OutOrStdout(), e)
		},
	}

	flags.bind(cmd)
	return cmd
}

func timelineCmd() *cobra.Command {
	var (
		flags quakeFlags
		step  float64
	)

	cmd := &cobra.Command{
		Use:   "timeline",
		Short: "Step through wave arrival and shaking, one frame per line",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			e, err := flags.earthquake(cmd.Flags().Changed("lat"), cmd.Flags().Changed("lon"))
			if err != nil {
				return err
			}
			return runTimeline(cmd.OutOrStdout(), e, step)
		},
	}

	flags.bind(cmd)
	cmd.Flags().Float64VarP(&step, "step", "s", 1, "seconds between frames")
	return cmd
}
