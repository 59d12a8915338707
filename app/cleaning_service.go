package app

import (
	"context"
	"fmt"
	"time"

	"gotidy/domain/core"
	"gotidy/domain/datareadiness/dates"
	"gotidy/domain/datareadiness/profiling"
	"gotidy/domain/datareadiness/resolution"
	"gotidy/domain/run"
	"gotidy/domain/table"
	"gotidy/internal/logging"
	"gotidy/internal/report"
	"gotidy/internal/scaling"
	"gotidy/ports"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// CodeVersion is recorded in every run fingerprint
const CodeVersion = "1.0.0"

// CleaningService runs the four cleaning stages over one table: missing-value
// report, resolution, scaling/normalization, and date parsing.
type CleaningService struct {
	loader ports.TableLoader
	runs   ports.RunRepository
	logger *zap.SugaredLogger
}

// CleaningRequest defines the inputs of one run. Table wins over Source when
// both are set; Source is then only a label. Empty column names skip a stage.
type CleaningRequest struct {
	Source string
	Table  *table.Table

	Policy    string
	FillValue string

	ScaleColumn     string
	NormalizeColumn string

	DateColumn  string
	DateFormats []string
	DateMode    dates.Mode

	Seed int64
}

// ScaledColumn is the stage-3 min-max output for one column
type ScaledColumn struct {
	Column string               `json:"column"`
	Sample scaling.ScaledSample `json:"sample"`
	Before scaling.Summary      `json:"before"`
	After  scaling.Summary      `json:"after"`
}

// NormalizedColumn is the stage-3 Box-Cox output for one column
type NormalizedColumn struct {
	Column string                   `json:"column"`
	Sample scaling.NormalizedSample `json:"sample"`
	Before scaling.Summary          `json:"before"`
	After  scaling.Summary          `json:"after"`
}

// CleaningResult contains the output of every stage that ran
type CleaningResult struct {
	RunID         core.RunID              `json:"run_id"`
	Source        string                  `json:"source"`
	Fingerprint   run.Fingerprint         `json:"fingerprint"`
	Policy        string                  `json:"policy"`
	Missing       profiling.MissingReport `json:"missing"`
	Cleaned       *table.Table            `json:"-"`
	CleanedReport profiling.MissingReport `json:"cleaned_missing"`
	Scaled        *ScaledColumn           `json:"scaled,omitempty"`
	Normalized    *NormalizedColumn       `json:"normalized,omitempty"`
	Dates         *dates.ParsedDateColumn `json:"dates,omitempty"`
	Warnings      []string                `json:"warnings"`
	CreatedAt     time.Time               `json:"created_at"`
	RuntimeMs     int64                   `json:"runtime_ms"`
}

// NewCleaningService creates a cleaning service. loader is needed only for
// requests that name a Source without a Table; runs may be nil to skip
// persistence.
func NewCleaningService(loader ports.TableLoader, runs ports.RunRepository, logger *zap.SugaredLogger) *CleaningService {
	return &CleaningService{
		loader: loader,
		runs:   runs,
		logger: logging.OrNop(logger),
	}
}

// Run executes the pipeline. Degenerate scaling input and unparseable date
// cells are recorded as warnings; every other stage error aborts the run.
func (s *CleaningService) Run(ctx context.Context, req CleaningRequest) (*CleaningResult, error) {
	start := time.Now()

	tbl, err := s.input(ctx, req)
	if err != nil {
		return nil, err
	}

	policy, err := resolution.ParsePolicy(req.Policy, resolution.ConstantFromString(req.FillValue))
	if err != nil {
		return nil, err
	}

	res := &CleaningResult{
		RunID:     core.NewRunID(),
		Source:    req.Source,
		Policy:    policy.Name(),
		CreatedAt: start.UTC(),
		Warnings:  []string{},
	}
	res.Fingerprint = run.NewFingerprint(req.Source, policy.Name(), req.FillValue, req.DateFormats, string(req.DateMode), req.Seed, CodeVersion)
	log := s.logger.With("run_id", res.RunID.String(), "source", req.Source)

	// Stage 1
	res.Missing = profiling.Report(tbl)
	log.Infow("missing values reported",
		"rows", res.Missing.Rows,
		"total_missing", res.Missing.TotalMissing,
		"percent_missing", res.Missing.PercentMissing,
	)

	// Stage 2
	res.Cleaned, err = resolution.Resolve(tbl, policy)
	if err != nil {
		return nil, fmt.Errorf("resolve missing values: %w", err)
	}
	res.CleanedReport = profiling.Report(res.Cleaned)
	log.Infow("missing values resolved", "policy", policy.Name(), "remaining_missing", res.CleanedReport.TotalMissing)

	// Stage 3
	if req.ScaleColumn != "" {
		if err := s.scale(res, req.ScaleColumn); err != nil {
			return nil, err
		}
		if res.Scaled.Sample.Degenerate() {
			warning := res.Scaled.Sample.Warning.Error()
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %s", req.ScaleColumn, warning))
			log.Warnw("degenerate scaling input", "column", req.ScaleColumn, "value", res.Scaled.Sample.Warning.Value)
		}
	}
	if req.NormalizeColumn != "" {
		if err := s.normalize(res, req.NormalizeColumn); err != nil {
			return nil, err
		}
		log.Infow("box-cox fitted", "column", req.NormalizeColumn, "lambda", res.Normalized.Sample.Lambda)
	}

	// Stage 4
	if req.DateColumn != "" {
		if err := s.parseDates(res, req); err != nil {
			return nil, err
		}
		if failures := res.Dates.Failures(); len(failures) > 0 {
			res.Warnings = append(res.Warnings, fmt.Sprintf("%s: %d cells matched no date format", req.DateColumn, len(failures)))
			for _, f := range failures {
				log.Warnw("date parse failure", "column", req.DateColumn, "row", f.Row, "input", f.Input)
			}
		}
	}

	res.RuntimeMs = time.Since(start).Milliseconds()

	if s.runs != nil {
		if err := s.runs.Create(ctx, res.Record()); err != nil {
			return nil, fmt.Errorf("store run: %w", err)
		}
	}

	log.Infow("run complete", "runtime_ms", res.RuntimeMs, "warnings", len(res.Warnings))
	return res, nil
}

func (s *CleaningService) input(ctx context.Context, req CleaningRequest) (*table.Table, error) {
	if req.Table != nil {
		return req.Table, nil
	}
	if req.Source == "" {
		return nil, core.NewInvalidInputError("request names no table and no source")
	}
	if s.loader == nil {
		return nil, core.NewInvalidInputError("no loader configured for source %q", req.Source)
	}
	return s.loader.Load(ctx, req.Source)
}

func (s *CleaningService) scale(res *CleaningResult, column string) error {
	sample, err := numericSample(res.Cleaned, column)
	if err != nil {
		return err
	}
	scaled, err := scaling.MinMaxScale(sample)
	if err != nil {
		return fmt.Errorf("scale %q: %w", column, err)
	}
	before, after, err := describePair(sample, scaled.Values)
	if err != nil {
		return err
	}
	res.Scaled = &ScaledColumn{Column: column, Sample: scaled, Before: before, After: after}
	return nil
}

func (s *CleaningService) normalize(res *CleaningResult, column string) error {
	sample, err := numericSample(res.Cleaned, column)
	if err != nil {
		return err
	}
	normalized, err := scaling.Normalize(sample)
	if err != nil {
		return fmt.Errorf("normalize %q: %w", column, err)
	}
	before, after, err := describePair(sample, normalized.Values)
	if err != nil {
		return err
	}
	res.Normalized = &NormalizedColumn{Column: column, Sample: normalized, Before: before, After: after}
	return nil
}

func (s *CleaningService) parseDates(res *CleaningResult, req CleaningRequest) error {
	formats := req.DateFormats
	if len(formats) == 0 {
		formats = dates.DefaultFormats
	}
	parser, err := dates.NewParser(formats, req.DateMode)
	if err != nil {
		return err
	}
	col, err := res.Cleaned.Column(req.DateColumn)
	if err != nil {
		return err
	}
	parsed, err := parser.ParseColumn(col)
	if err != nil {
		return err
	}
	res.Dates = &parsed
	return nil
}

func numericSample(t *table.Table, column string) ([]float64, error) {
	col, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	return col.Floats()
}

func describePair(before, after []float64) (scaling.Summary, scaling.Summary, error) {
	b, err := scaling.Describe(before)
	if err != nil {
		return scaling.Summary{}, scaling.Summary{}, err
	}
	a, err := scaling.Describe(after)
	if err != nil {
		return scaling.Summary{}, scaling.Summary{}, err
	}
	return b, a, nil
}

// Record summarises the result for the run store
func (r *CleaningResult) Record() *run.Record {
	rec := &run.Record{
		ID:             r.RunID,
		Source:         r.Source,
		CreatedAt:      r.CreatedAt,
		Rows:           r.Missing.Rows,
		Columns:        len(r.Missing.Columns),
		TotalCells:     r.Missing.TotalCells,
		TotalMissing:   r.Missing.TotalMissing,
		PercentMissing: r.Missing.PercentMissing,
		Policy:         r.Policy,
		Fingerprint:    r.Fingerprint.Hash,
		FailureRows:    []int{},
	}
	if r.Scaled != nil {
		column, min, max := r.Scaled.Column, r.Scaled.Sample.Min, r.Scaled.Sample.Max
		rec.ScaledColumn, rec.ScaledMin, rec.ScaledMax = &column, &min, &max
		rec.Degenerate = r.Scaled.Sample.Degenerate()
	}
	if r.Normalized != nil {
		lambda := r.Normalized.Sample.Lambda
		rec.Lambda = &lambda
	}
	if r.Dates != nil {
		column := r.Dates.Name
		rec.DateColumn = &column
		for _, f := range r.Dates.Failures() {
			rec.FailureRows = append(rec.FailureRows, f.Row)
		}
	}
	return rec
}

// Report renders the result as a markdown/HTML report
func (r *CleaningResult) Report() *report.Builder {
	b := report.New("Cleaning report: " + r.Source).
		Missing("Missing values", r.Missing).
		Missing("After "+r.Policy, r.CleanedReport)
	if r.Scaled != nil {
		b.Scaled(r.Scaled.Column, r.Scaled.Sample, r.Scaled.Before, r.Scaled.After)
	}
	if r.Normalized != nil {
		b.Normalized(r.Normalized.Column, r.Normalized.Sample, r.Normalized.Before, r.Normalized.After)
	}
	if r.Dates != nil {
		b.Dates(*r.Dates)
	}
	return b.Warnings(r.Warnings).Footer(r.RunID.String(), r.CreatedAt)
}

// BatchResult pairs a source with its result or error
type BatchResult struct {
	Source string
	Result *CleaningResult
	Err    error
}

// RunBatch cleans several sources concurrently with at most workers runs in
// flight. Each request keeps its own outcome; one failing source does not stop
// the others. Results come back in request order.
func (s *CleaningService) RunBatch(ctx context.Context, reqs []CleaningRequest, workers int) []BatchResult {
	if workers < 1 {
		workers = 1
	}
	out := make([]BatchResult, len(reqs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, req := range reqs {
		g.Go(func() error {
			res, err := s.Run(gctx, req)
			out[i] = BatchResult{Source: req.Source, Result: res, Err: err}
			return nil
		})
	}
	_ = g.Wait()
	return out
}
