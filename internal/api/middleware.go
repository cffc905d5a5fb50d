package api

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/auth"
)

// handlerFunc is a request handler that has already passed
// authentication. The resolved actor rides alongside instead of hiding
// in the context.
type handlerFunc func(w http.ResponseWriter, r *http.Request, a *auth.Actor)

// authed wraps a handler with bearer-token authentication.
func (s *Server) authed(h handlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			s.error(w, r, fmt.Errorf("missing bearer token: %w", apperr.ErrUnauthorized))
			return
		}
		actor, err := s.svc.Auth.Authenticate(r.Context(), token)
		if err != nil {
			s.error(w, r, err)
			return
		}
		h(w, r, actor)
	}
}

// perm additionally requires a permission code.
func (s *Server) perm(code string, h handlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
		if err := s.svc.Auth.Require(a, code); err != nil {
			s.error(w, r, err)
			return
		}
		h(w, r, a)
	})
}

// level additionally requires the actor's role level to be at or above
// max (levels count down: 1 outranks 4).
func (s *Server) level(max int, h handlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
		if a.Role.Level > max {
			s.error(w, r, fmt.Errorf("requires a higher role: %w", apperr.ErrForbidden))
			return
		}
		h(w, r, a)
	})
}

// overUser requires a permission code enforced against the user in the
// {userID} wildcard. Codes flagged with a priority check also demand
// that the actor outrank the target.
func (s *Server) overUser(code string, h handlerFunc) http.HandlerFunc {
	return s.authed(func(w http.ResponseWriter, r *http.Request, a *auth.Actor) {
		targetID, err := pathUUID(r, "userID")
		if err != nil {
			s.error(w, r, err)
			return
		}
		if err := s.svc.Auth.RequireOverUser(r.Context(), a, code, targetID); err != nil {
			s.error(w, r, err)
			return
		}
		h(w, r, a)
	})
}

// statusRecorder captures the response code for the request log.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

// withRequestLog logs one line per request after it completes.
func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.WithFields(map[string]any{
			"method":   r.Method,
			"path":     r.URL.Path,
			"status":   rec.status,
			"duration": time.Since(start).Round(time.Millisecond).String(),
		}).Info("request")
	})
}

// withCORS answers preflights and stamps allowed origins. An empty
// origin list disables cross-origin access entirely.
func (s *Server) withCORS(next http.Handler) http.Handler {
	allowed := make(map[string]bool, len(s.cfg.CORSOrigins))
	allowAll := false
	for _, o := range s.cfg.CORSOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = true
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin != "" && (allowAll || allowed[origin]) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")
			w.Header().Set("Vary", "Origin")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
