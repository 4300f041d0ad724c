package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
)

const maxBodyBytes = 1 << 20

// Problem is an RFC 7807 body. Errors lists per-field messages for
// validation failures.
type Problem struct {
	Type     string   `json:"type"`
	Title    string   `json:"title"`
	Status   int      `json:"status"`
	Detail   string   `json:"detail,omitempty"`
	Instance string   `json:"instance,omitempty"`
	Errors   []string `json:"errors,omitempty"`
}

// fieldErrors is returned by request validation.
type fieldErrors []string

func (f fieldErrors) Error() string { return strings.Join(f, "; ") }

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeProblem(w http.ResponseWriter, status int, title, detail, instance string) {
	writeProblemBody(w, Problem{Title: title, Status: status, Detail: detail, Instance: instance})
}

func writeProblemBody(w http.ResponseWriter, p Problem) {
	if p.Type == "" {
		p.Type = "about:blank"
	}
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(p.Status)
	_ = json.NewEncoder(w).Encode(p)
}

// readBody decodes a bounded JSON body into v and validates it, writing
// the problem response itself on failure.
func readBody(w http.ResponseWriter, r *http.Request, v interface{ validate() error }) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		var tooBig *http.MaxBytesError
		switch {
		case errors.As(err, &tooBig):
			writeProblem(w, http.StatusRequestEntityTooLarge, "Request body too large", err.Error(), r.URL.Path)
		case errors.Is(err, io.EOF):
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", "request body is empty", r.URL.Path)
		default:
			writeProblem(w, http.StatusBadRequest, "Invalid JSON", err.Error(), r.URL.Path)
		}
		return false
	}
	if err := v.validate(); err != nil {
		p := Problem{Title: "Invalid itinerary", Status: http.StatusBadRequest, Detail: err.Error(), Instance: r.URL.Path}
		var fe fieldErrors
		if errors.As(err, &fe) {
			p.Errors = fe
		}
		writeProblemBody(w, p)
		return false
	}
	return true
}
