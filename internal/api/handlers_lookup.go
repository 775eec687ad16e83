package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/dgallion1/condlookup/internal/lookup"
	"github.com/dgallion1/condlookup/internal/render"
	"github.com/dgallion1/condlookup/internal/sections"
	"github.com/go-chi/chi/v5"
)

// lookupResponse adds the sections as an ordered array for clients whose
// JSON objects do not keep key order.
type lookupResponse struct {
	*lookup.Result
	SectionList []sections.Section `json:"section_list"`
}

func newLookupResponse(r *lookup.Result) lookupResponse {
	return lookupResponse{Result: r, SectionList: r.SectionList()}
}

func (s *Server) handleLookup(w http.ResponseWriter, r *http.Request) {
	var req lookup.Request
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := s.lookups.Lookup(r.Context(), req)
	if err != nil {
		s.writeLookupError(w, err)
		return
	}

	code := http.StatusOK
	if res.Status == lookup.StatusFailed {
		code = http.StatusBadGateway
	}
	writeJSON(w, code, newLookupResponse(res))
}

// writeLookupError maps Service.Lookup errors to HTTP responses.
func (s *Server) writeLookupError(w http.ResponseWriter, err error) {
	var denied *lookup.AccessDeniedError
	switch {
	case errors.Is(err, lookup.ErrInvalidDisease),
		errors.Is(err, lookup.ErrDiseaseTooLong),
		errors.Is(err, lookup.ErrMissingUser):
		jsonError(w, err.Error(), http.StatusBadRequest)
	case errors.As(err, &denied):
		writeJSON(w, http.StatusForbidden, map[string]any{
			"error":  err.Error(),
			"access": denied.Decision,
		})
	default:
		s.log.Error("lookup failed", "error", err)
		jsonError(w, "feature access check unavailable", http.StatusServiceUnavailable)
	}
}

func (s *Server) handleGetLookup(w http.ResponseWriter, r *http.Request) {
	res := s.lookups.Get(chi.URLParam(r, "lookupID"))
	if res == nil {
		jsonError(w, "lookup not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, newLookupResponse(res))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res := s.lookups.Get(chi.URLParam(r, "lookupID"))
	if res == nil {
		jsonError(w, "lookup not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.wordprocessingml.document")
	w.Header().Set("Content-Disposition", `attachment; filename="`+exportFilename(res.Disease)+`"`)
	if err := render.WriteDOCX(w, res); err != nil {
		s.log.Error("export failed", "lookup_id", res.ID, "error", err)
	}
}

// exportFilename builds a safe attachment name from a disease name.
func exportFilename(disease string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			return r
		case r >= 'A' && r <= 'Z':
			return r + ('a' - 'A')
		case r == ' ' || r == '_':
			return '-'
		}
		return -1
	}, strings.TrimSpace(disease))
	name = strings.Trim(name, "-")
	if name == "" {
		name = "condition"
	}
	return name + ".docx"
}
