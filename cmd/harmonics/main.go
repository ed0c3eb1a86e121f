package main

import (
	"fmt"
	"io"
	"os"
	"time"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/unbound-force/harmonics/internal/chart"
	"github.com/unbound-force/harmonics/internal/config"
	"github.com/unbound-force/harmonics/internal/export"
	"github.com/unbound-force/harmonics/internal/extract"
	"github.com/unbound-force/harmonics/internal/harmonic"
	"github.com/unbound-force/harmonics/internal/model"
	"github.com/unbound-force/harmonics/internal/report"
	"github.com/unbound-force/harmonics/internal/scaffold"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var verbose bool

	root := &cobra.Command{
		Use:   "harmonics",
		Short: "Harmonics: voltage harmonic distortion reports",
		Long: `Harmonics reads the HTML export of a harmonic load-flow
simulation, computes total and individual harmonic distortion for
each three-phase bus, and writes bar charts and a CSV pivot of the
node voltages.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if verbose {
				logger.SetLevel(charmlog.DebugLevel)
			}
		},
	}
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"enable debug logging")

	root.AddCommand(newReportCmd())
	root.AddCommand(newStatsCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())
	return root
}

// configParams holds the flags shared by commands that read a report.
type configParams struct {
	path     string
	explicit bool
	buses    []string
}

// loadConfig builds the effective configuration: defaults, then the
// YAML file, then HARMONICS_* variables, then command-line flags.
func loadConfig(p configParams, override func(*config.Config)) (*config.Config, error) {
	cfg, err := config.LoadOptional(p.path, p.explicit)
	if err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if len(p.buses) > 0 {
		cfg.BusNames = p.buses
	}
	if override != nil {
		override(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func extractOptions(c config.ExtractConfig) extract.Options {
	return extract.Options{
		TableID:       c.TableID,
		NodeColumn:    c.NodeColumn,
		VoltageColumn: c.VoltageColumn,
		HeaderRow:     c.HeaderRow,
		Logger:        logger,
	}
}

func checkFormat(format string) error {
	if format != "text" && format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", format)
	}
	return nil
}

// analyzeInput extracts the report at input and computes the
// distortion of every configured node.
func analyzeInput(input string, cfg *config.Config) (*model.FrequencyTable, map[model.NodeName]model.HarmonicStats, error) {
	logger.Info("reading report", "input", input, "buses", cfg.BusNames)
	ft, err := extract.ExtractFile(input, cfg.BusNames, extractOptions(cfg.Extract))
	if err != nil {
		return nil, nil, err
	}
	logger.Debug("frequencies found", "frequencies", ft.Frequencies())

	stats, err := harmonic.Compute(ft, cfg.Fundamental)
	if err != nil {
		return nil, nil, fmt.Errorf("computing distortion: %w", err)
	}
	if len(stats) == 0 {
		logger.Warn("no harmonic readings for the configured buses")
	}
	return ft, stats, nil
}

func writeSummary(w io.Writer, format string, s *report.Summary, limit float64) error {
	switch format {
	case "json":
		return report.WriteJSON(w, s)
	default:
		return report.WriteText(w, s, report.TextOptions{THDLimit: limit})
	}
}

// reportParams holds the parsed flags for the report command.
type reportParams struct {
	input    string
	config   configParams
	outDir   string
	csvDir   string
	xlsx     bool
	format   string
	noCharts bool
	stdout   io.Writer
	stderr   io.Writer
}

// runReport is the extracted, testable body of the report command.
// Extraction, computation and pivoting all finish before the first
// file is written, so a malformed report leaves no output behind.
func runReport(p reportParams) error {
	if err := checkFormat(p.format); err != nil {
		return err
	}
	start := time.Now()

	cfg, err := loadConfig(p.config, func(c *config.Config) {
		if p.outDir != "" {
			c.Chart.OutputDir = p.outDir
		}
		if p.csvDir != "" {
			c.Export.CSVDir = p.csvDir
		}
		if p.xlsx {
			c.Export.XLSX = true
		}
	})
	if err != nil {
		return err
	}

	ft, stats, err := analyzeInput(p.input, cfg)
	if err != nil {
		return err
	}
	pivot, err := export.BuildPivot(ft)
	if err != nil {
		return fmt.Errorf("building voltage table: %w", err)
	}

	if !p.noCharts {
		paths, err := chart.New(cfg.Chart, logger).RenderAll(stats, cfg.Chart.OutputDir)
		if err != nil {
			return fmt.Errorf("rendering charts: %w", err)
		}
		logger.Info("charts complete", "count", len(paths), "dir", cfg.Chart.OutputDir)
	}

	csvPath, err := export.WriteCSV(pivot, cfg.Export.CSVDir, p.input, cfg.Export.NodeHeader)
	if err != nil {
		return err
	}
	logger.Info("wrote csv", "path", csvPath, "nodes", len(pivot.Nodes))

	if cfg.Export.XLSX {
		xlsxPath, err := export.WriteWorkbook(pivot, stats, cfg.Export.CSVDir, p.input)
		if err != nil {
			return err
		}
		logger.Info("wrote workbook", "path", xlsxPath)
	}

	summary := report.Build(p.input, cfg.Fundamental, ft.Frequencies(), stats)
	if err := writeSummary(p.stdout, p.format, summary, cfg.Report.THDLimit); err != nil {
		return err
	}
	printLimitSummary(p.stderr, summary, cfg.Report.THDLimit)

	logger.Info("report complete", "elapsed", time.Since(start).Round(time.Millisecond))
	return nil
}

// printLimitSummary prints a one-line THD limit check to w.
func printLimitSummary(w io.Writer, s *report.Summary, limit float64) {
	status := "PASS"
	flagged := s.Flagged(limit)
	if flagged > 0 {
		status = "WARN"
	}
	fmt.Fprintf(w, "THD limit %.1f%%: %d/%d node(s) at or above (%s)\n",
		limit, flagged, len(s.Nodes), status)
}

func newReportCmd() *cobra.Command {
	var (
		configPath string
		buses      []string
		outDir     string
		csvDir     string
		xlsx       bool
		format     string
		noCharts   bool
	)

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Generate distortion charts and a voltage CSV",
		Long: `Extract the node voltage tables from a harmonic simulation
report, draw one THD/IHD bar chart per bus and write the voltages
of every node at every frequency as a CSV pivot.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(reportParams{
				input: args[0],
				config: configParams{
					path:     configPath,
					explicit: cmd.Flags().Changed("config"),
					buses:    buses,
				},
				outDir:   outDir,
				csvDir:   csvDir,
				xlsx:     xlsx,
				format:   format,
				noCharts: noCharts,
				stdout:   cmd.OutOrStdout(),
				stderr:   cmd.ErrOrStderr(),
			})
		},
	}

	addConfigFlags(cmd, &configPath, &buses)
	cmd.Flags().StringVar(&outDir, "out", "",
		"chart output directory (default from config: histograms)")
	cmd.Flags().StringVar(&csvDir, "csv-out", "",
		"CSV output directory (default from config: voltage_csv_output)")
	cmd.Flags().BoolVar(&xlsx, "xlsx", false,
		"also write an Excel workbook next to the CSV")
	cmd.Flags().StringVar(&format, "format", "text",
		"summary format: text or json")
	cmd.Flags().BoolVar(&noCharts, "no-charts", false,
		"skip chart rendering")

	return cmd
}

func addConfigFlags(cmd *cobra.Command, configPath *string, buses *[]string) {
	cmd.Flags().StringVar(configPath, "config", config.DefaultFile,
		"path to the YAML config file")
	cmd.Flags().StringSliceVar(buses, "bus", nil,
		"bus name to report (repeatable; overrides config)")
}

// statsParams holds the parsed flags for the stats command.
type statsParams struct {
	input       string
	config      configParams
	format      string
	interactive bool
	stdout      io.Writer
}

// runStats is the extracted, testable body of the stats command.
func runStats(p statsParams) error {
	if err := checkFormat(p.format); err != nil {
		return err
	}
	cfg, err := loadConfig(p.config, nil)
	if err != nil {
		return err
	}

	ft, stats, err := analyzeInput(p.input, cfg)
	if err != nil {
		return err
	}
	summary := report.Build(p.input, cfg.Fundamental, ft.Frequencies(), stats)

	if p.interactive {
		return runInteractiveStats(summary, cfg.Report.THDLimit)
	}
	return writeSummary(p.stdout, p.format, summary, cfg.Report.THDLimit)
}

func newStatsCmd() *cobra.Command {
	var (
		configPath  string
		buses       []string
		format      string
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "stats [file]",
		Short: "Print THD and IHD per node without writing files",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats(statsParams{
				input: args[0],
				config: configParams{
					path:     configPath,
					explicit: cmd.Flags().Changed("config"),
					buses:    buses,
				},
				format:      format,
				interactive: interactive,
				stdout:      cmd.OutOrStdout(),
			})
		},
	}

	addConfigFlags(cmd, &configPath, &buses)
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for the distortion summary",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of harmonics report/stats --format=json output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

// initParams holds the parsed flags for the init command.
type initParams struct {
	targetDir string
	force     bool
	stdout    io.Writer
}

// runInit is the extracted, testable body of the init command.
func runInit(p initParams) error {
	_, err := scaffold.Run(scaffold.Options{
		TargetDir: p.targetDir,
		Force:     p.force,
		Version:   version,
		Stdout:    p.stdout,
	})
	return err
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default " + config.DefaultFile,
		Long: `Write a default configuration file with every setting at its
built-in value. An existing file is left alone unless --force is set.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p := initParams{force: force, stdout: cmd.OutOrStdout()}
			if len(args) == 1 {
				p.targetDir = args[0]
			}
			return runInit(p)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false,
		"overwrite an existing config file")

	return cmd
}
