package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"neo-velocity-lab/internal/catalog"
	"neo-velocity-lab/internal/domain"
	"neo-velocity-lab/internal/normalization"
	"neo-velocity-lab/internal/observability"
	"neo-velocity-lab/internal/orbit"
	"neo-velocity-lab/internal/pipeline"
	"neo-velocity-lab/internal/reporting"
	"neo-velocity-lab/internal/storage"
)

// compute runs one element set through the calculator and maps failures to
// an HTTP status.
func (s *Server) compute(in normalization.ElementsInput) (VelocityResponse, int, error) {
	res, sol, err := s.adapter.ConvertElements(in.Elements())
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, orbit.ErrDomain) || errors.Is(err, orbit.ErrNoConvergence) {
			status = http.StatusUnprocessableEntity
		}
		return VelocityResponse{}, status, err
	}
	observability.RecordProcessed(sol.Iterations)
	return toVelocityResponse(res, sol), http.StatusOK, nil
}

func (s *Server) handleVelocity(w http.ResponseWriter, r *http.Request) {
	var in normalization.ElementsInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		observability.RecordAPIRequest("velocity", statusClass(http.StatusBadRequest))
		respondError(w, http.StatusBadRequest, "invalid request body", err)
		return
	}

	resp, status, err := s.compute(in)
	observability.RecordAPIRequest("velocity", statusClass(status))
	if err != nil {
		observability.RecordError(normalization.Classify(err))
		respondError(w, status, "computation failed", err)
		return
	}
	respondJSON(w, http.StatusOK, resp)
}

// handleCatalog runs a CSV catalog from the request body and answers with the
// velocity CSV. Query parameters: filter (CEL expression), skip_unparseable
// (bool). Without skip_unparseable the first unparseable row fails the upload.
func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	runner := s.newRunner()

	if expr := r.URL.Query().Get("filter"); expr != "" {
		f, err := catalog.NewExprFilter(expr)
		if err != nil {
			observability.RecordAPIRequest("catalog", statusClass(http.StatusBadRequest))
			respondError(w, http.StatusBadRequest, "invalid filter expression", err)
			return
		}
		runner.WithExprFilter(f)
	}
	if v := r.URL.Query().Get("skip_unparseable"); v != "" {
		skip, err := strconv.ParseBool(v)
		if err != nil {
			observability.RecordAPIRequest("catalog", statusClass(http.StatusBadRequest))
			respondError(w, http.StatusBadRequest, "invalid skip_unparseable flag", err)
			return
		}
		runner.WithSkipUnparseable(skip)
	}

	var buf bytes.Buffer
	body := http.MaxBytesReader(w, r.Body, s.maxCatalogBytes)
	out, err := runner.Run(r.Context(), body, pipeline.RunMeta{
		InputPath: "upload",
		WriteOutput: func(results []domain.VelocityResult) error {
			return reporting.WriteCSV(&buf, results)
		},
	})
	if err != nil {
		var tooLarge *http.MaxBytesError
		status := http.StatusInternalServerError
		switch {
		case errors.As(err, &tooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, catalog.ErrParse):
			status = http.StatusUnprocessableEntity
		case errors.Is(err, catalog.ErrRead):
			status = http.StatusBadRequest
		}
		observability.RecordAPIRequest("catalog", statusClass(status))
		respondError(w, status, "catalog run failed", err)
		return
	}

	observability.RecordAPIRequest("catalog", statusClass(http.StatusOK))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("X-Run-ID", out.Summary.RunID)
	w.Header().Set("X-Run-Summary", out.Summary.String())
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (s *Server) handleListRuns(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondError(w, http.StatusBadRequest, "invalid limit", err)
			return
		}
		limit = n
	}

	runs, err := s.stores.Runs.List(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to list runs", err)
		return
	}

	out := make([]RunJSON, 0, len(runs))
	for _, run := range runs {
		out = append(out, toRunJSON(run))
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.stores.Runs.GetByID(r.Context(), chi.URLParam(r, "runID"))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "run not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get run", err)
		return
	}
	respondJSON(w, http.StatusOK, toRunJSON(run))
}

func (s *Server) handleRunResults(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "runID")
	if _, err := s.stores.Runs.GetByID(r.Context(), runID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respondError(w, http.StatusNotFound, "run not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, "failed to get run", err)
		return
	}

	results, err := s.stores.Results.GetByRunID(r.Context(), runID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to get results", err)
		return
	}

	out := make([]ResultJSON, 0, len(results))
	for _, res := range results {
		out = append(out, toResultJSON(res))
	}
	respondJSON(w, http.StatusOK, out)
}
