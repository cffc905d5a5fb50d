package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/shiftcrew/shiftcrew/internal/apperr"
	"github.com/shiftcrew/shiftcrew/internal/storage"
)

// maxBodyBytes caps request bodies. Payloads here are forms and item
// lists, never uploads.
const maxBodyBytes = 1 << 20

// page is the list envelope: items plus enough metadata to page through.
type page struct {
	Items   any `json:"items"`
	Total   int `json:"total"`
	Page    int `json:"page"`
	PerPage int `json:"per_page"`
}

func pageOf(items any, total int, p storage.Page) page {
	n := p.Normalize()
	return page{Items: items, Total: total, Page: n.Number, PerPage: n.PerPage}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// error maps a service error's kind to a status and writes the envelope.
// Unclassified errors are logged and reported without internals.
func (s *Server) error(w http.ResponseWriter, r *http.Request, err error) {
	status := apperr.HTTPStatus(err)
	detail := err.Error()
	if status == http.StatusInternalServerError {
		s.log.WithError(err).WithFields(map[string]any{
			"method": r.Method,
			"path":   r.URL.Path,
		}).Error("request failed")
		detail = "internal server error"
	}
	writeJSON(w, status, map[string]string{"detail": detail})
}

// decode reads a JSON body into v. Empty bodies and malformed JSON both
// read as bad requests.
func decode(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", apperr.ErrBadRequest)
	}
	if len(body) == 0 {
		return fmt.Errorf("request body is required: %w", apperr.ErrBadRequest)
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %v: %w", err, apperr.ErrBadRequest)
	}
	return nil
}

// decodeIfPresent reads a JSON body into v when one was sent. An empty
// body leaves v at its zero value.
func decodeIfPresent(r *http.Request, v any) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("failed to read request body: %w", apperr.ErrBadRequest)
	}
	if len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("invalid JSON body: %v: %w", err, apperr.ErrBadRequest)
	}
	return nil
}

// pathUUID parses a route wildcard as a UUID.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s: %w", name, apperr.ErrBadRequest)
	}
	return id, nil
}

// pathInt parses a route wildcard as a non-negative integer.
func pathInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.PathValue(name))
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, apperr.ErrBadRequest)
	}
	return n, nil
}

// queryInt parses a query parameter as a positive integer.
func queryInt(r *http.Request, name string) (int, error) {
	n, err := strconv.Atoi(r.URL.Query().Get(name))
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid %s: %w", name, apperr.ErrBadRequest)
	}
	return n, nil
}

// queryUUID parses an optional query parameter as a UUID.
func queryUUID(r *http.Request, name string) (*uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, apperr.ErrBadRequest)
	}
	return &id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseDate(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", name, apperr.ErrBadRequest)
	}
	return &t, nil
}

// parseDate reads a YYYY-MM-DD string as a UTC midnight instant.
func parseDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("expected YYYY-MM-DD, got %q: %w", raw, apperr.ErrBadRequest)
	}
	return t, nil
}

// pageFromQuery reads page/per_page. Out-of-range values are clamped by
// Normalize rather than rejected.
func pageFromQuery(r *http.Request) storage.Page {
	q := r.URL.Query()
	number, _ := strconv.Atoi(q.Get("page"))
	perPage, _ := strconv.Atoi(q.Get("per_page"))
	return storage.Page{Number: number, PerPage: perPage}.Normalize()
}

// requireField rejects empty body strings with a field-specific message.
func requireField(value, name string) error {
	if value == "" {
		return fmt.Errorf("%s is required: %w", name, apperr.ErrBadRequest)
	}
	return nil
}
