package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gotidy/adapters/excel"
	"gotidy/adapters/postgres"
	"gotidy/app"
	"gotidy/domain/core"
	"gotidy/domain/datareadiness/dates"
	"gotidy/domain/datareadiness/profiling"
	"gotidy/internal/config"
	"gotidy/internal/logging"
	"gotidy/internal/report"
	"gotidy/internal/scaling"
	"gotidy/internal/testkit"
	"gotidy/ports"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	rootCmd := &cobra.Command{
		Use:          "tidy",
		Short:        "Clean tabular data: missing values, scaling, normalization and dates",
		SilenceUsage: true,
	}

	rootCmd.AddCommand(
		newReportCmd(),
		newCleanCmd(),
		newScaleCmd(),
		newNormalizeCmd(),
		newDatesCmd(),
		newDemoCmd(),
		newRunsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runtime bundles what every command needs
type runtime struct {
	cfg     *config.Config
	logger  *zap.SugaredLogger
	reader  *excel.DataReader
	runs    ports.RunRepository
	db      *sqlx.DB
	service *app.CleaningService
}

// setup loads configuration and builds the service. The run store is opened
// only when store is true and DATABASE_URL is set.
func setup(ctx context.Context, store bool) (*runtime, error) {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		return nil, err
	}

	rt := &runtime{
		cfg:    cfg,
		logger: logger,
		reader: excel.NewDataReader(excel.DefaultExcelConfig(), logger),
	}
	if store && cfg.Database.Enabled() {
		db, err := postgres.Open(ctx, cfg.Database.Driver, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		rt.db = db
		rt.runs = postgres.NewRunRepository(db)
	}
	rt.service = app.NewCleaningService(rt.reader, rt.runs, logger)
	return rt, nil
}

func (rt *runtime) Close() {
	if rt.db != nil {
		rt.db.Close()
	}
	_ = rt.logger.Sync()
}

// pipelineFlags are the per-run overrides shared by the stage commands
type pipelineFlags struct {
	policy  string
	fill    string
	formats string
	mode    string
	seed    int64
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.policy, "policy", "", "Missing-value policy: drop_rows|drop_columns|fill_constant|backfill|backfill_then_fill (default from TIDY_POLICY)")
	cmd.Flags().StringVar(&f.fill, "fill", "", "Fill constant (default from TIDY_FILL_VALUE)")
	cmd.Flags().StringVar(&f.formats, "formats", "", "Comma-separated strftime date formats, tried in order")
	cmd.Flags().StringVar(&f.mode, "mode", "", "Date mode: mixed|inferred")
	cmd.Flags().Int64Var(&f.seed, "seed", 0, "Random seed recorded in the run fingerprint (default from TIDY_SEED)")
}

// request fills a CleaningRequest from flags, falling back to configuration
func (f *pipelineFlags) request(cfg *config.Config, source string) (app.CleaningRequest, error) {
	req := app.CleaningRequest{
		Source:      source,
		Policy:      firstNonEmpty(f.policy, cfg.Pipeline.Policy),
		FillValue:   firstNonEmpty(f.fill, cfg.Pipeline.FillValue),
		DateFormats: cfg.Pipeline.DateFormats,
		DateMode:    cfg.Pipeline.DateMode,
		Seed:        cfg.Pipeline.Seed,
	}
	if f.formats != "" {
		req.DateFormats = splitList(f.formats)
	}
	if f.mode != "" {
		mode, err := dates.ParseMode(f.mode)
		if err != nil {
			return req, err
		}
		req.DateMode = mode
	}
	if f.seed != 0 {
		req.Seed = f.seed
	}
	return req, nil
}

func newReportCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "report [file]",
		Short: "Count missing values per column",
		Long: `Load a CSV or XLSX file (optionally gzipped) and report missing values
per column with the total and the percentage of missing cells.

Example: tidy report employees.csv`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rt, err := setup(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer rt.Close()

			t, err := rt.reader.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r := profiling.Report(t)
			if asJSON {
				return printJSON(r)
			}
			fmt.Print(report.New("Missing values: " + args[0]).Missing("Columns", r).Markdown())
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the report as JSON")
	return cmd
}

func newCleanCmd() *cobra.Command {
	var flags pipelineFlags
	var scaleColumn, normalizeColumn, dateColumn string
	var outDir, outFormat string
	var html, asJSON bool
	var workers int

	cmd := &cobra.Command{
		Use:   "clean [files...]",
		Short: "Run the full cleaning pipeline over one or more files",
		Long: `Run all four stages over each file: report missing values, resolve them
with the chosen policy, scale and normalize the named numeric columns, and parse
the named date column. Files are processed concurrently.

When DATABASE_URL is set every run is stored and can be listed with "tidy runs".

Example:
  tidy clean employees.csv --scale salary --normalize salary --date-column hire_date --out-dir cleaned`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, true)
			if err != nil {
				return err
			}
			defer rt.Close()

			reqs := make([]app.CleaningRequest, 0, len(args))
			for _, path := range args {
				req, err := flags.request(rt.cfg, path)
				if err != nil {
					return err
				}
				req.ScaleColumn = scaleColumn
				req.NormalizeColumn = normalizeColumn
				req.DateColumn = dateColumn
				reqs = append(reqs, req)
			}
			if workers <= 0 {
				workers = rt.cfg.Pipeline.Workers
			}

			failed := 0
			for _, br := range rt.service.RunBatch(ctx, reqs, workers) {
				if br.Err != nil {
					failed++
					fmt.Fprintf(os.Stderr, "%s: %v\n", br.Source, br.Err)
					continue
				}
				if err := emitResult(br.Result, outDir, outFormat, html, asJSON); err != nil {
					return err
				}
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d files failed", failed, len(args))
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().StringVar(&scaleColumn, "scale", "", "Numeric column to min-max scale")
	cmd.Flags().StringVar(&normalizeColumn, "normalize", "", "Positive numeric column to Box-Cox normalize")
	cmd.Flags().StringVar(&dateColumn, "date-column", "", "Text column to parse as dates")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for cleaned tables and reports")
	cmd.Flags().StringVar(&outFormat, "out-format", "xlsx", "Cleaned table format: xlsx|csv")
	cmd.Flags().BoolVar(&html, "html", false, "Also write an HTML report next to the cleaned table")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print results as JSON instead of markdown")
	cmd.Flags().IntVar(&workers, "workers", 0, "Files cleaned concurrently (default from TIDY_WORKERS)")
	return cmd
}

// emitResult prints a result and, with an output directory, writes the cleaned
// table and reports under it.
func emitResult(res *app.CleaningResult, outDir, outFormat string, html, asJSON bool) error {
	if asJSON {
		if err := printJSON(res); err != nil {
			return err
		}
	} else {
		fmt.Print(res.Report().Markdown())
	}
	if outDir == "" {
		return nil
	}

	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}
	base := filepath.Join(outDir, stem(res.Source))

	switch outFormat {
	case "csv":
		if err := writeFile(base+".csv", func(f *os.File) error { return excel.WriteCSV(f, res.Cleaned) }); err != nil {
			return err
		}
	case "xlsx":
		if err := writeFile(base+".xlsx", func(f *os.File) error { return excel.WriteExcel(f, res.Cleaned) }); err != nil {
			return err
		}
	default:
		return core.NewInvalidInputError("unknown output format %q", outFormat)
	}

	if html {
		return os.WriteFile(base+".html", res.Report().HTML(), 0o644)
	}
	return nil
}

func newScaleCmd() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "scale [file] [column]",
		Short: "Min-max scale a numeric column into [0, 1]",
		Long: `Resolve missing values, then rescale one numeric column into [0, 1].
A column whose values are all equal scales to zeros and is reported as degenerate.

Example: tidy scale employees.csv salary --policy drop_rows`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runStage(cmd.Context(), &flags, args[0], func(req *app.CleaningRequest) {
				req.ScaleColumn = args[1]
			})
			if err != nil {
				return err
			}
			s := res.Scaled
			fmt.Printf("column %s: min %g, max %g\n", s.Column, s.Sample.Min, s.Sample.Max)
			if s.Sample.Degenerate() {
				fmt.Printf("warning: %v\n", s.Sample.Warning)
			}
			printShape(s.Before, s.After)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newNormalizeCmd() *cobra.Command {
	var flags pipelineFlags

	cmd := &cobra.Command{
		Use:   "normalize [file] [column]",
		Short: "Box-Cox normalize a strictly positive numeric column",
		Long: `Resolve missing values, then fit a Box-Cox power transform to one column
and print the fitted lambda.

Example: tidy normalize employees.csv salary --policy drop_rows`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runStage(cmd.Context(), &flags, args[0], func(req *app.CleaningRequest) {
				req.NormalizeColumn = args[1]
			})
			if err != nil {
				return err
			}
			n := res.Normalized
			fmt.Printf("column %s: lambda %.6f (log-likelihood %.4f)\n", n.Column, n.Sample.Lambda, n.Sample.LogLikelihood)
			printShape(n.Before, n.After)
			return nil
		},
	}

	flags.register(cmd)
	return cmd
}

func newDatesCmd() *cobra.Command {
	var flags pipelineFlags
	var showFailures bool

	cmd := &cobra.Command{
		Use:   "dates [file] [column]",
		Short: "Parse a text column into calendar dates",
		Long: `Resolve missing values, then parse one text column with the given strftime
formats. The first format that matches a cell wins; cells matching no format are
reported individually.

Example: tidy dates employees.csv hire_date --formats "%Y/%m/%d,%Y-%m-%d" --policy backfill`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := runStage(cmd.Context(), &flags, args[0], func(req *app.CleaningRequest) {
				req.DateColumn = args[1]
			})
			if err != nil {
				return err
			}
			counts := res.Dates.Counts()
			fmt.Printf("column %s: %d parsed, %d absent, %d failed (mode %s)\n",
				res.Dates.Name, counts[dates.StatusParsed], counts[dates.StatusAbsent], counts[dates.StatusFailed], res.Dates.Mode)
			if res.Dates.LockedFormat != "" {
				fmt.Printf("  locked format: %s\n", res.Dates.LockedFormat)
			}
			if showFailures {
				for _, f := range res.Dates.Failures() {
					fmt.Printf("  row %d: %q\n", f.Row, f.Input)
				}
			}
			return nil
		},
	}

	flags.register(cmd)
	cmd.Flags().BoolVar(&showFailures, "failures", true, "List cells that matched no format")
	return cmd
}

// runStage runs the pipeline with a single stage selected, without storing it
func runStage(ctx context.Context, flags *pipelineFlags, path string, pick func(*app.CleaningRequest)) (*app.CleaningResult, error) {
	rt, err := setup(ctx, false)
	if err != nil {
		return nil, err
	}
	defer rt.Close()

	req, err := flags.request(rt.cfg, path)
	if err != nil {
		return nil, err
	}
	pick(&req)
	res, err := rt.service.Run(ctx, req)
	if err != nil {
		return nil, err
	}
	for _, w := range res.Warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
	return res, nil
}

func newDemoCmd() *cobra.Command {
	var seed int64
	var rows, size int
	var rate float64

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Run the pipeline over generated data",
		Long: `Generate an exponential sample and a dirty employee table from a seed, then
show min-max scaling (shape kept), Box-Cox normalization (skew removed) and the
full cleaning pipeline. The same seed always prints the same output.

Example: tidy demo --seed 12345`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := setup(ctx, false)
			if err != nil {
				return err
			}
			defer rt.Close()

			var rng ports.RNGPort = testkit.NewRNGAdapter()
			sampleRNG, err := rng.SeededStream(ctx, "demo.exponential", seed)
			if err != nil {
				return err
			}
			sample := testkit.ExponentialSample(sampleRNG, size, rate)

			scaled, err := scaling.MinMaxScale(sample)
			if err != nil {
				return err
			}
			normalized, err := scaling.Normalize(sample)
			if err != nil {
				return err
			}
			original, err := scaling.Describe(sample)
			if err != nil {
				return err
			}
			afterScale, err := scaling.Describe(scaled.Values)
			if err != nil {
				return err
			}
			afterNormalize, err := scaling.Describe(normalized.Values)
			if err != nil {
				return err
			}
			fmt.Print(report.New(fmt.Sprintf("Exponential sample (n=%d, rate=%g, seed=%d)", size, rate, seed)).
				Scaled("sample", scaled, original, afterScale).
				Normalized("sample", normalized, original, afterNormalize).
				Markdown())

			tableRNG, err := rng.SeededStream(ctx, "demo.table", seed)
			if err != nil {
				return err
			}
			dirtyCfg := testkit.DefaultDirtyTableConfig()
			dirtyCfg.Rows = rows
			res, err := rt.service.Run(ctx, app.CleaningRequest{
				Source:          "demo",
				Table:           testkit.DirtyTable(tableRNG, dirtyCfg),
				Policy:          rt.cfg.Pipeline.Policy,
				FillValue:       rt.cfg.Pipeline.FillValue,
				ScaleColumn:     "salary",
				NormalizeColumn: "salary",
				DateColumn:      "hire_date",
				DateFormats:     append(append([]string{}, rt.cfg.Pipeline.DateFormats...), "%m/%d/%Y"),
				DateMode:        dates.ModeMixed,
				Seed:            seed,
			})
			if err != nil {
				return err
			}
			fmt.Print(res.Report().Markdown())
			return nil
		},
	}

	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic operations")
	cmd.Flags().IntVar(&size, "size", 1000, "Exponential sample size")
	cmd.Flags().Float64Var(&rate, "rate", 1, "Exponential rate")
	cmd.Flags().IntVar(&rows, "rows", 100, "Rows in the dirty table")
	return cmd
}

func newRunsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect stored cleaning runs (needs DATABASE_URL)",
	}

	var limit, offset int
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withRuns(cmd.Context(), func(runs ports.RunRepository) error {
				records, err := runs.List(cmd.Context(), limit, offset)
				if err != nil {
					return err
				}
				for _, r := range records {
					fmt.Printf("%s  %s  %-20s %6d rows  %5.1f%% missing  %s\n",
						r.ID, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Source, r.Rows, r.PercentMissing, r.Policy)
				}
				return nil
			})
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "Maximum runs to list")
	list.Flags().IntVar(&offset, "offset", 0, "Runs to skip")

	show := &cobra.Command{
		Use:   "show [run-id]",
		Short: "Print one run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			return withRuns(cmd.Context(), func(runs ports.RunRepository) error {
				rec, err := runs.GetByID(cmd.Context(), id)
				if err != nil {
					return err
				}
				return printJSON(rec)
			})
		},
	}

	del := &cobra.Command{
		Use:   "delete [run-id]",
		Short: "Delete one run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := core.ParseRunID(args[0])
			if err != nil {
				return err
			}
			return withRuns(cmd.Context(), func(runs ports.RunRepository) error {
				return runs.Delete(cmd.Context(), id)
			})
		},
	}

	cmd.AddCommand(list, show, del)
	return cmd
}

func withRuns(ctx context.Context, fn func(ports.RunRepository) error) error {
	rt, err := setup(ctx, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if rt.runs == nil {
		return fmt.Errorf("no run store configured: set DATABASE_URL")
	}
	return fn(rt.runs)
}

func printShape(before, after scaling.Summary) {
	fmt.Printf("  before: mean %.4f, std %.4f, skew %.4f\n", before.Mean, before.StdDev, before.Skewness)
	fmt.Printf("  after:  mean %.4f, std %.4f, skew %.4f\n", after.Mean, after.StdDev, after.Skewness)
}

func printJSON(v interface{}) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}

// stem strips directories and every extension: data/a.csv.gz -> a
func stem(path string) string {
	base := filepath.Base(path)
	if i := strings.Index(base, "."); i > 0 {
		return base[:i]
	}
	return base
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
