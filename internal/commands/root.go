package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/cobra"

	"retail-analytics/internal/charts"
	"retail-analytics/internal/config"
	"retail-analytics/internal/observability"
	"retail-analytics/internal/report"
	"retail-analytics/internal/services"
)

const Version = "1.0.0"

// options holds the persistent flags. Empty values fall back to the
// configuration loaded from CONFIG_FILE and the environment.
type options struct {
	data     string
	output   string
	currency string
	asJSON   bool
}

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	rootCmd := &cobra.Command{
		Use:     "retail-report",
		Short:   "Sales reports and charts from an online retail spreadsheet",
		Version: Version,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&opts.data, "data", "", "transaction spreadsheet, .xlsx or .csv (default from DATA_FILE)")
	flags.StringVar(&opts.output, "output", "", "chart output directory (default from OUTPUT_DIR)")
	flags.StringVar(&opts.currency, "currency", "", "ISO currency code for amounts (default from REPORT_CURRENCY)")
	flags.BoolVar(&opts.asJSON, "json", false, "print the report documents as JSON instead of tables")

	rootCmd.AddCommand(
		newCustomersCommand(opts),
		newProductsCommand(opts),
		newHourlyCommand(opts),
		newAllCommand(opts),
		newChartsCommand(opts),
	)

	return rootCmd
}

type env struct {
	cfg     *config.Config
	reports *services.Reports
	out     io.Writer
	asJSON  bool
}

func (o *options) env(cmd *cobra.Command) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if o.data != "" {
		cfg.Data.File = o.data
	}
	if o.output != "" {
		cfg.Report.OutputDir = o.output
	}
	if o.currency != "" {
		cfg.Report.Currency = o.currency
	}

	out := cmd.OutOrStdout()
	var console io.Writer
	if !o.asJSON {
		console = out
	}

	logger := observability.NewLoggerTo(cmd.ErrOrStderr(), cfg.Logger)
	renderer := charts.NewRenderer(cfg.Report.OutputDir,
		charts.WithSize(cfg.Report.ChartWidth, cfg.Report.ChartHeight),
	)

	return &env{
		cfg:     cfg,
		reports: services.NewReports(cfg.Data.File, renderer, report.NewConsole(console, cfg.Report.Currency), logger),
		out:     out,
		asJSON:  o.asJSON,
	}, nil
}

// topN returns the --top flag when given, otherwise the configured default.
func (e *env) topN(cmd *cobra.Command, top int) int {
	if cmd.Flags().Changed("top") {
		return top
	}
	return e.cfg.Report.DefaultTopN
}

// emit prints doc as JSON in --json mode, otherwise the chart locations. The
// table itself has already been printed by the report console.
func (e *env) emit(doc any, graphURLs ...string) error {
	if e.asJSON {
		enc := json.NewEncoder(e.out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	for _, url := range graphURLs {
		fmt.Fprintf(e.out, "Chart: %s\n", e.chartPath(url))
	}
	return nil
}

func (e *env) chartPath(graphURL string) string {
	return filepath.Join(e.cfg.Report.OutputDir, filepath.Base(graphURL))
}
