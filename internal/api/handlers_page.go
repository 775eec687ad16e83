package api

import (
	"bytes"
	"errors"
	"net/http"

	"github.com/dgallion1/condlookup/internal/lookup"
	"github.com/dgallion1/condlookup/internal/render"
)

// handlePage serves the lookup form, and runs a lookup when ?disease= is set.
// Lookups run as the session user; the page never takes a user ID from the
// request itself.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	user := sessionUser(r)
	data := render.PageData{
		Disease:  q.Get("disease"),
		SignedIn: user != "",
	}
	code := http.StatusOK

	_, wantsLookup := q["disease"]
	switch token := q.Get("token"); {
	case token != "":
		if s.startSession(w, r, token) {
			return
		}
		data.Error = "This sign-in link is invalid or has expired."
		code = http.StatusUnauthorized
	case wantsLookup && user == "":
		data.Error = "Sign in to look up a condition."
		code = http.StatusUnauthorized
	case wantsLookup:
		res, err := s.lookups.Lookup(r.Context(), lookup.Request{UserID: user, Disease: data.Disease})
		var denied *lookup.AccessDeniedError
		switch {
		case errors.As(err, &denied):
			data.Denied = &denied.Decision
			code = http.StatusForbidden
		case errors.Is(err, lookup.ErrInvalidDisease),
			errors.Is(err, lookup.ErrDiseaseTooLong),
			errors.Is(err, lookup.ErrMissingUser):
			data.Error = err.Error()
			code = http.StatusBadRequest
		case err != nil:
			s.log.Error("page lookup failed", "error", err)
			data.Error = "Something went wrong. Please try again."
			code = http.StatusServiceUnavailable
		default:
			data.Result = res
			panels, err := render.Panels(res)
			if err != nil {
				s.log.Error("render panels failed", "lookup_id", res.ID, "error", err)
				data.Error = "Could not display the detailed information."
			}
			data.Panels = panels
		}
	}

	var buf bytes.Buffer
	if err := render.Page(&buf, data); err != nil {
		s.log.Error("render page failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(code)
	w.Write(buf.Bytes())
}
