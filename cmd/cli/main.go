package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"goreplicate/adapters/data"
	"goreplicate/adapters/rng"
	"goreplicate/app"
	"goreplicate/internal"
	"goreplicate/internal/config"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	// .env is optional; real environment variables win
	_ = godotenv.Load()

	rootCmd := &cobra.Command{
		Use:           "goreplicate",
		Short:         "Reproduce published structural behavioral-economics estimates",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		newEstimateCmd(),
		newCompareCmd(),
		newVersionCmd(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// runFlags are shared by estimate and compare
type runFlags struct {
	configPath string
	dataPath   string
	exclude    string
	outDir     string
	seed       int64
	starts     int
	formats    []string
}

func (f *runFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.configPath, "config", "", "YAML model file (defaults are built in)")
	cmd.Flags().StringVar(&f.dataPath, "data", "", "Data file (.csv, .xlsx or .dta)")
	cmd.Flags().StringVar(&f.exclude, "exclude", "", "File of subject ids to exclude")
	cmd.Flags().StringVar(&f.outDir, "out", "", "Output directory")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Seed for random starting points")
	cmd.Flags().IntVar(&f.starts, "starts", -1, "Number of random starting points in addition to the fixed start")
	cmd.Flags().StringSliceVar(&f.formats, "format", nil, "Output formats: csv, xlsx, md, html, json")
}

// load reads the configuration and applies the flags the user set
func (f *runFlags) load(cmd *cobra.Command, model string) (*config.Config, error) {
	cfg, err := config.Load(f.configPath, model)
	if err != nil {
		return nil, err
	}
	if f.dataPath != "" {
		cfg.Data.Path = f.dataPath
	}
	if cmd.Flags().Changed("exclude") {
		cfg.Data.Exclusions = f.exclude
	}
	if f.outDir != "" {
		cfg.Output.Dir = f.outDir
	}
	if cmd.Flags().Changed("seed") {
		cfg.Optimizer.Seed = f.seed
	}
	if f.starts >= 0 {
		cfg.Optimizer.Starts = f.starts
	}
	if len(f.formats) > 0 {
		cfg.Output.Formats = f.formats
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newService(cfg *config.Config) *app.EstimationService {
	logger := internal.NewLogger(internal.ParseLogLevel(cfg.LogLevel)).With("model", cfg.Model)
	reader := data.NewDataReader(logger)
	return app.NewEstimationService(reader, reader, rng.New(), logger, version)
}

func newEstimateCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "estimate [social|effort]",
		Short: "Fit a model and write the results table",
		Long: `Fit the discrete-choice social preference model or the Tobit effort model,
compute cluster-robust standard errors and write the configured outputs.

Example: goreplicate estimate social --data data/social_preferences.csv --exclude data/social_exclusions.csv`,
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{config.ModelSocial, config.ModelEffort},
		RunE: func(cmd *cobra.Command, args []string) error {
			model := ""
			if len(args) == 1 {
				model = args[0]
			}
			if model == "" && flags.configPath == "" {
				return fmt.Errorf("name a model (social or effort) or pass --config")
			}
			cfg, err := flags.load(cmd, model)
			if err != nil {
				return err
			}
			_, err = newService(cfg).Run(cmd.Context(), app.EstimationRequest{
				Config:  cfg,
				Console: cmd.OutOrStdout(),
			})
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newCompareCmd() *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "compare [social|effort]",
		Short: "Fit two samples and test parameter equality across them",
		Long: `Fit the two configured samples separately, run the two-sample z test for
every parameter and the likelihood-ratio test against one pooled fit.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			model := config.ModelSocial
			if len(args) == 1 {
				model = args[0]
			} else if flags.configPath != "" {
				model = ""
			}
			cfg, err := flags.load(cmd, model)
			if err != nil {
				return err
			}
			_, err = newService(cfg).Compare(cmd.Context(), app.EstimationRequest{
				Config:  cfg,
				Console: cmd.OutOrStdout(),
			})
			return err
		},
	}
	flags.register(cmd)
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), "goreplicate", version)
		},
	}
}
