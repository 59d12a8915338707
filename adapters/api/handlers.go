package api

import (
	"net/http"
	"strconv"
	"strings"

	"gotidy/app"
	"gotidy/domain/core"
	"gotidy/domain/datareadiness/dates"
	"gotidy/domain/datareadiness/profiling"
	"gotidy/domain/datareadiness/resolution"
	"gotidy/domain/run"
	"gotidy/internal/errors"
	"gotidy/internal/scaling"

	"github.com/go-chi/chi/v5"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleMissingReport(w http.ResponseWriter, r *http.Request) {
	var req TableRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, profiling.Report(t))
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	var req ResolveRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}

	name := req.Policy
	if name == "" {
		name = s.defaults.Policy
	}
	policy, err := resolution.ParsePolicy(name, req.FillValue)
	if err != nil {
		s.writeError(w, err)
		return
	}
	cleaned, err := resolution.Resolve(t, policy)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.writeJSON(w, http.StatusOK, ResolveResponse{
		Policy: policy.Name(),
		Table:  FromTable(cleaned),
		Before: profiling.Report(t),
		After:  profiling.Report(cleaned),
	})
}

func (s *Server) handleScale(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	scaled, err := scaling.MinMaxScale(req.Values)
	if err != nil {
		s.writeError(w, err)
		return
	}
	before, _ := scaling.Describe(req.Values)
	after, _ := scaling.Describe(scaled.Values)
	if scaled.Degenerate() {
		s.logger.Warnw("degenerate scaling input", "value", scaled.Warning.Value, "count", scaled.Warning.Count)
	}
	s.writeJSON(w, http.StatusOK, ScaleResponse{
		ScaledSample: scaled,
		Degenerate:   scaled.Degenerate(),
		Before:       before,
		After:        after,
	})
}

func (s *Server) handleNormalize(w http.ResponseWriter, r *http.Request) {
	var req SampleRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	var (
		normalized scaling.NormalizedSample
		err        error
	)
	if req.Lambda != nil {
		var p *scaling.PowerTransformer
		p, err = scaling.NewFittedPowerTransformer(*req.Lambda)
		if err == nil {
			normalized.Lambda = *req.Lambda
			normalized.Values, err = p.Transform(req.Values)
		}
	} else {
		normalized, err = scaling.Normalize(req.Values)
	}
	if err != nil {
		s.writeError(w, err)
		return
	}

	before, _ := scaling.Describe(req.Values)
	after, _ := scaling.Describe(normalized.Values)
	s.writeJSON(w, http.StatusOK, NormalizeResponse{NormalizedSample: normalized, Before: before, After: after})
}

func (s *Server) handleDates(w http.ResponseWriter, r *http.Request) {
	var req DatesRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	formats := req.Formats
	if len(formats) == 0 {
		formats = s.defaultFormats()
	}
	mode, err := dates.ParseMode(firstNonEmpty(req.Mode, s.defaults.DateMode))
	if err != nil {
		s.writeError(w, err)
		return
	}
	parser, err := dates.NewParser(formats, mode)
	if err != nil {
		s.writeError(w, err)
		return
	}

	values := make([]string, len(req.Values))
	present := make([]bool, len(req.Values))
	for i, v := range req.Values {
		if v != nil {
			values[i], present[i] = *v, true
		}
	}
	parsed := parser.ParseStrings(values, present)
	parsed.Name = req.Name

	resp := DatesResponse{ParsedDateColumn: parsed, Failures: []FailureDTO{}}
	for _, f := range parsed.Failures() {
		resp.Failures = append(resp.Failures, FailureDTO{Row: f.Row, Input: f.Input})
	}
	s.writeJSON(w, http.StatusOK, resp)
}

// handleClean runs every stage; ?format=html returns the rendered report
func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	var req CleanRequest
	if err := s.decode(w, r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	t, err := req.Table.ToTable()
	if err != nil {
		s.writeError(w, err)
		return
	}
	mode, err := dates.ParseMode(firstNonEmpty(req.Mode, s.defaults.DateMode))
	if err != nil {
		s.writeError(w, err)
		return
	}

	formats := req.Formats
	if len(formats) == 0 {
		formats = s.defaultFormats()
	}
	seed := req.Seed
	if seed == 0 {
		seed = s.defaults.Seed
	}

	res, err := s.cleaning.Run(r.Context(), app.CleaningRequest{
		Source:          firstNonEmpty(req.Source, "request"),
		Table:           t,
		Policy:          firstNonEmpty(req.Policy, s.defaults.Policy),
		FillValue:       firstNonEmpty(req.FillValue, s.defaults.FillValue),
		ScaleColumn:     req.ScaleColumn,
		NormalizeColumn: req.NormalizeColumn,
		DateColumn:      req.DateColumn,
		DateFormats:     formats,
		DateMode:        mode,
		Seed:            seed,
	})
	if err != nil {
		s.writeError(w, err)
		return
	}

	if strings.EqualFold(r.URL.Query().Get("format"), "html") {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		w.Write(res.Report().HTML())
		return
	}
	s.writeJSON(w, http.StatusOK, CleanResponse{CleaningResult: res, Table: FromTable(res.Cleaned)})
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, errors.NotFound("run store"))
		return
	}
	limit, err := queryInt(r, "limit", 50)
	if err != nil {
		s.writeError(w, err)
		return
	}
	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		s.writeError(w, err)
		return
	}

	records, err := s.runs.List(r.Context(), limit, offset)
	if err != nil {
		s.writeError(w, errors.DatabaseError("failed to list runs", err))
		return
	}
	if records == nil {
		records = []*run.Record{}
	}
	s.writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, errors.NotFound("run store"))
		return
	}
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	rec, err := s.runs.GetByID(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

func (s *Server) handleDeleteRun(w http.ResponseWriter, r *http.Request) {
	if s.runs == nil {
		s.writeError(w, errors.NotFound("run store"))
		return
	}
	id, err := core.ParseRunID(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.runs.Delete(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) defaultFormats() []string {
	if len(s.defaults.DateFormats) > 0 {
		return s.defaults.DateFormats
	}
	return dates.DefaultFormats
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.InvalidInput(key + " must be a non-negative integer")
	}
	return n, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
