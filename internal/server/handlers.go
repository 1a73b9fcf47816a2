package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/parkatlas/parkatlas/internal/extract"
	"github.com/parkatlas/parkatlas/internal/model"
	"github.com/parkatlas/parkatlas/internal/store"
)

// ExtractRequest is the body for POST /api/parks/extract.
type ExtractRequest struct {
	Name    string `json:"name" validate:"required"`
	Country string `json:"country"`
	WikiURL string `json:"wikiUrl" validate:"required,url"`
}

// ExtractResponse carries the persisted park id plus the full run breakdown.
type ExtractResponse struct {
	ID string `json:"id"`
	*extract.RunResult
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.WikiURL = strings.TrimSpace(req.WikiURL)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	existing, err := s.store.FindPark(r.Context(), req.Name, req.WikiURL)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if existing != nil {
		writeError(w, http.StatusConflict, "park already exists")
		return
	}

	resp, err := s.runAndPersist(r, req)
	if err != nil {
		s.writeExtractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// runAndPersist executes the pipeline and writes the park through the store.
func (s *Server) runAndPersist(r *http.Request, req ExtractRequest) (*ExtractResponse, error) {
	result, err := s.pipeline.Run(r.Context(), req.Name, req.WikiURL)
	if err != nil {
		return nil, err
	}

	park := &model.Park{
		Name:            req.Name,
		Country:         req.Country,
		WikiText:        result.Text,
		WikiURL:         req.WikiURL,
		WikiDurationSec: result.DurationSec,
		Fields:          result.Record,
	}
	if result.Usage != nil {
		park.WikiInputTokens = result.Usage.InputTokens
		park.WikiOutputTokens = result.Usage.OutputTokens
		park.WikiURLTokens = result.Usage.URLTokens
	}

	saved, err := s.store.UpsertPark(r.Context(), park)
	if err != nil {
		return nil, err
	}

	return &ExtractResponse{ID: saved.ID, RunResult: result}, nil
}

// BatchExtractRequest is the body for POST /api/parks/extract/batch.
type BatchExtractRequest struct {
	Parks []ExtractRequest `json:"parks" validate:"required,min=1,dive"`
}

// BatchItemResult reports one park's outcome; failures do not abort the batch.
type BatchItemResult struct {
	Name  string `json:"name"`
	ID    string `json:"id,omitempty"`
	Error string `json:"error,omitempty"`
}

func (s *Server) handleExtractBatch(w http.ResponseWriter, r *http.Request) {
	var req BatchExtractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	results := make([]BatchItemResult, len(req.Parks))

	// Each park runs as an independent pipeline instance; concurrency is
	// bounded and one park's failure never aborts the others.
	g, ctx := errgroup.WithContext(r.Context())
	g.SetLimit(s.cfg.Batch.MaxConcurrentParks)
	for i, item := range req.Parks {
		g.Go(func() error {
			results[i] = BatchItemResult{Name: item.Name}

			result, err := s.pipeline.Run(ctx, item.Name, item.WikiURL)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}

			park := &model.Park{
				Name:            item.Name,
				Country:         item.Country,
				WikiText:        result.Text,
				WikiURL:         item.WikiURL,
				WikiDurationSec: result.DurationSec,
				Fields:          result.Record,
			}
			if result.Usage != nil {
				park.WikiInputTokens = result.Usage.InputTokens
				park.WikiOutputTokens = result.Usage.OutputTokens
				park.WikiURLTokens = result.Usage.URLTokens
			}

			saved, err := s.store.UpsertPark(ctx, park)
			if err != nil {
				results[i].Error = err.Error()
				return nil
			}
			results[i].ID = saved.ID
			return nil
		})
	}
	_ = g.Wait()

	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// BackfillRequest is the body for POST /api/parks/backfill.
type BackfillRequest struct {
	Name  string `json:"name" validate:"required"`
	Field string `json:"field" validate:"required"`
}

func (s *Server) handleBackfill(w http.ResponseWriter, r *http.Request) {
	var req BackfillRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	req.Field = strings.TrimSpace(req.Field)
	if err := s.validate.Struct(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := s.pipeline.BackfillField(r.Context(), req.Name, req.Field)
	if err != nil {
		s.writeExtractError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleListParks(w http.ResponseWriter, r *http.Request) {
	filter := store.ListFilter{
		Country: r.URL.Query().Get("country"),
		Limit:   queryInt(r, "limit", 50),
		Offset:  queryInt(r, "offset", 0),
	}

	parks, err := s.store.ListParks(r.Context(), filter)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if parks == nil {
		parks = []model.Park{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"parks": parks})
}

func (s *Server) handleCountParks(w http.ResponseWriter, r *http.Request) {
	count, err := s.store.CountParks(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"count": count})
}

func (s *Server) handleGetPark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	park, err := s.store.GetPark(r.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || strings.Contains(err.Error(), "no rows") {
			writeError(w, http.StatusNotFound, "park not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, park)
}

func (s *Server) handleDeletePark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.store.DeletePark(r.Context(), id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) || strings.Contains(err.Error(), "no rows") {
			writeError(w, http.StatusNotFound, "park not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// writeExtractError maps pipeline failures onto HTTP statuses: caller errors
// are 400, everything upstream is 502.
func (s *Server) writeExtractError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, extract.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, extract.ErrMissingModelOutput),
		errors.Is(err, extract.ErrSchemaValidation):
		writeError(w, http.StatusBadGateway, err.Error())
	default:
		zap.L().Error("extract request failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, err.Error())
	}
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
