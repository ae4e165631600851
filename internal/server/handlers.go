package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/jonathan/lead-scraper/internal/db"
	"github.com/jonathan/lead-scraper/internal/pipeline"
	"github.com/jonathan/lead-scraper/internal/types"
)

// SearchResponse is the body of a successful POST /search.
type SearchResponse struct {
	RunID string `json:"run_id"`
	*types.SearchResponse
}

// RunLeadsResponse is the body of GET /runs/{id}/leads.
type RunLeadsResponse struct {
	RunID  string       `json:"run_id"`
	Status string       `json:"status"`
	Query  string       `json:"query"`
	Leads  []types.Lead `json:"leads"`
}

// handleSearch runs a search and returns every lead at once
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	ctx := r.Context()
	runID, persisted := s.startRun(ctx, req)

	resp, err := s.engine.Stream(ctx, req, pipeline.Observer{})
	if err != nil {
		s.failRun(ctx, runID, persisted)
		log.Printf("[SERVER] search %s failed: %v", runID, err)
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.finishRun(ctx, runID, persisted, resp.Leads)
	if s.verbose {
		log.Printf("[SERVER] search %s returned %d leads (%d backend errors)", runID, len(resp.Leads), len(resp.Errors))
	}
	s.jsonResponse(w, http.StatusOK, SearchResponse{RunID: runID.String(), SearchResponse: resp})
}

// handleSearchStream runs a search and streams leads as they are accepted
func (s *Server) handleSearchStream(w http.ResponseWriter, r *http.Request) {
	req, err := decodeSearchRequest(r)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err.Error())
		return
	}

	ctx := r.Context()
	runID, persisted := s.startRun(ctx, req)
	id := runID.String()

	resp, err := s.engine.Stream(ctx, req, pipeline.Observer{
		OnLead: func(lead types.Lead) {
			sse.WriteEvent("lead", lead) //nolint:errcheck
		},
		OnProgress: func(event pipeline.ProgressEvent) {
			event.RunID = id
			sse.WriteEvent("progress", event) //nolint:errcheck
		},
	})
	if err != nil {
		s.failRun(ctx, runID, persisted)
		sse.WriteError(err.Error())
		return
	}

	s.finishRun(ctx, runID, persisted, resp.Leads)
	sse.WriteComplete(id, resp)
}

// handleRunLeads returns the leads persisted for a run
func (s *Server) handleRunLeads(w http.ResponseWriter, r *http.Request) {
	if s.store == nil {
		err := &ErrStoreUnavailable{}
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	runID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, "Invalid run ID")
		return
	}

	ctx := r.Context()
	run, err := s.store.GetRun(ctx, runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load run")
		return
	}
	if run == nil {
		notFound := &ErrRunNotFound{RunID: runID}
		s.errorResponse(w, HTTPStatus(notFound), notFound.Error())
		return
	}

	leads, err := s.store.ListLeads(ctx, runID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "Failed to load leads")
		return
	}
	if leads == nil {
		leads = []types.Lead{}
	}

	s.jsonResponse(w, http.StatusOK, RunLeadsResponse{
		RunID:  runID.String(),
		Status: run.Status,
		Query:  run.Query,
		Leads:  leads,
	})
}

// startRun records the run when a store is configured. The returned ID is
// always usable; persisted reports whether the store knows it.
func (s *Server) startRun(ctx context.Context, req types.SearchRequest) (uuid.UUID, bool) {
	if s.store == nil {
		return uuid.New(), false
	}
	runID, err := s.store.CreateSearchRun(ctx, req)
	if err != nil {
		log.Printf("[SERVER] failed to record search run: %v", err)
		return uuid.New(), false
	}
	return runID, true
}

func (s *Server) finishRun(ctx context.Context, runID uuid.UUID, persisted bool, leads []types.Lead) {
	if !persisted {
		return
	}
	if err := s.store.SaveLeads(ctx, runID, leads); err != nil {
		log.Printf("[SERVER] failed to save leads for run %s: %v", runID, err)
		s.failRun(ctx, runID, persisted)
		return
	}
	if err := s.store.CompleteRun(ctx, runID, db.RunStatusCompleted, len(leads)); err != nil {
		log.Printf("[SERVER] failed to complete run %s: %v", runID, err)
	}
}

func (s *Server) failRun(ctx context.Context, runID uuid.UUID, persisted bool) {
	if !persisted {
		return
	}
	// The request context may already be cancelled
	if err := s.store.CompleteRun(context.WithoutCancel(ctx), runID, db.RunStatusFailed, 0); err != nil {
		log.Printf("[SERVER] failed to mark run %s failed: %v", runID, err)
	}
}

// decodeSearchRequest parses, trims, defaults and validates a search body.
func decodeSearchRequest(r *http.Request) (types.SearchRequest, error) {
	var req types.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return req, &ErrValidation{Message: "Invalid request body: " + err.Error()}
	}

	req.Query = strings.TrimSpace(req.Query)
	req.Location = strings.TrimSpace(req.Location)
	req.Normalize()

	if err := req.Validate(); err != nil {
		return req, validationError(err)
	}
	return req, nil
}

func validationError(err error) error {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return &ErrValidation{Message: err.Error()}
	}

	fe := fieldErrs[0]
	field := lowerFirst(fe.Field())
	switch {
	case fe.Tag() == "required" && (field == "query" || field == "location"):
		return &ErrValidation{Field: field, Message: "Missing query or location."}
	case fe.Tag() == "oneof":
		return &ErrValidation{Field: field, Message: fmt.Sprintf("must be one of: %s", strings.ReplaceAll(fe.Param(), " ", ", "))}
	case fe.Tag() == "min":
		return &ErrValidation{Field: field, Message: fmt.Sprintf("must be at least %s", fe.Param())}
	}
	return &ErrValidation{Field: field, Message: fmt.Sprintf("failed %q check", fe.Tag())}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToLower(r[0])
	return string(r)
}
