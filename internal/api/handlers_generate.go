package api

import (
	"net/http"

	"github.com/dgallion1/condlookup/internal/lookup"
	"github.com/dgallion1/condlookup/internal/sections"
)

type diseaseRequest struct {
	Disease string `json:"disease"`
}

type sectionsRequest struct {
	Text *string `json:"text"`
}

// handleSummary serves the short AI summary for a disease.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	disease, ok := s.readDisease(w, r)
	if !ok {
		return
	}
	summary, err := s.generator.Summary(r.Context(), disease)
	if err != nil {
		s.log.Error("summary generation failed", "disease", disease, "error", err)
		jsonError(w, "could not generate a summary", http.StatusBadGateway)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

// handleDetails serves the detailed AI breakdown, plus its sections.
func (s *Server) handleDetails(w http.ResponseWriter, r *http.Request) {
	disease, ok := s.readDisease(w, r)
	if !ok {
		return
	}
	details, err := s.generator.Details(r.Context(), disease)
	if err != nil {
		s.log.Error("details generation failed", "disease", disease, "error", err)
		jsonError(w, "could not generate detailed information", http.StatusBadGateway)
		return
	}
	m := sections.Extract(details)
	writeJSON(w, http.StatusOK, map[string]any{
		"details":      details,
		"sections":     m,
		"section_list": m.Sections(),
	})
}

// handleSections runs the section extractor on caller-supplied text.
// A null or missing text yields no sections.
func (s *Server) handleSections(w http.ResponseWriter, r *http.Request) {
	var req sectionsRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	m := sections.ExtractOptional(req.Text)
	writeJSON(w, http.StatusOK, map[string]any{
		"sections":     m,
		"section_list": m.Sections(),
	})
}

func (s *Server) readDisease(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req diseaseRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	disease, err := lookup.ValidateDisease(req.Disease)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return "", false
	}
	return disease, true
}
