package api

import (
	"errors"
	"net/http"
	"net/url"
	"time"

	"github.com/dgallion1/condlookup/internal/lookup"
)

type sessionRequest struct {
	UserID string `json:"user_id"`
}

// handleSession issues a page sign-in link for a user. The calling
// application authenticates its users and hands them the link.
func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	var req sessionRequest
	if err := decodeJSON(r, &req); err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	token, expires, err := s.sessions.Issue(req.UserID)
	if err != nil {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"token":      token,
		"expires_at": expires.UTC().Format(time.RFC3339),
		"page_url":   "/?" + url.Values{"token": {token}}.Encode(),
	})
}

// handleAccess reports a user's remaining lookups without consuming one.
func (s *Server) handleAccess(w http.ResponseWriter, r *http.Request) {
	d, err := s.lookups.Access(r.Context(), r.URL.Query().Get("user_id"))
	if errors.Is(err, lookup.ErrMissingUser) {
		jsonError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.log.Error("access check failed", "error", err)
		jsonError(w, "feature access check unavailable", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// startSession trades a sign-in token from the query string for a session
// cookie and redirects to the same page without the token.
func (s *Server) startSession(w http.ResponseWriter, r *http.Request, token string) bool {
	if _, err := s.sessions.Verify(token); err != nil {
		s.log.Warn("rejected session token", "remote", r.RemoteAddr, "error", err)
		return false
	}
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(s.sessions.TTL().Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})

	q := r.URL.Query()
	q.Del("token")
	target := "/"
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
	return true
}
