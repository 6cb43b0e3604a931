package httpapi

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/dmitrijs2005/portfolio/internal/server/models"
	"github.com/dmitrijs2005/portfolio/internal/server/services"
)

// Meta describes the page a list response carries.
type Meta struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int64 `json:"totalPages"`
}

// Envelope is the body of every API response.
type Envelope struct {
	Success   bool      `json:"success"`
	Message   string    `json:"message"`
	Data      any       `json:"data,omitempty"`
	Errors    []string  `json:"errors,omitempty"`
	Meta      *Meta     `json:"meta,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// now is replaced in tests.
var now = func() time.Time { return time.Now().UTC() }

func newMeta(p models.Page, total int64) *Meta {
	return &Meta{Page: p.Page, Limit: p.Limit, Total: total, TotalPages: p.TotalPages(total)}
}

func writeJSON(w http.ResponseWriter, status int, body Envelope) {
	body.Timestamp = now()
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeSuccess(w http.ResponseWriter, status int, message string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: message, Data: data})
}

func writePage[T any](w http.ResponseWriter, message string, res *services.PageResult[T]) {
	writeJSON(w, http.StatusOK, Envelope{
		Success: true,
		Message: message,
		Data:    res.Items,
		Meta:    newMeta(res.Page, res.Total),
	})
}

func writeFailure(w http.ResponseWriter, status int, message string, errs []string) {
	writeJSON(w, status, Envelope{Success: false, Message: message, Errors: errs})
}
