package httpx

import (
	"encoding/json"
	"net/http"
	"path"
)

// JSON writes v as JSON with the given status code. Content-Type and
// X-Content-Type-Options headers are set automatically. Encoding errors are
// silently discarded, so use this for handler responses, not for streaming.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// JSONError writes a standard {"error": message} JSON response.
func JSONError(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// Created writes a 201 with Location set to collection/id and v as the body.
func Created(w http.ResponseWriter, collection, id string, v any) {
	w.Header().Set("Location", path.Join(collection, id))
	JSON(w, http.StatusCreated, v)
}

// List maps items through toResponse and writes them as a 200 JSON array.
// An empty collection is written as [] rather than null.
func List[T, R any](w http.ResponseWriter, items []T, toResponse func(*T) R) {
	out := make([]R, 0, len(items))
	for i := range items {
		out = append(out, toResponse(&items[i]))
	}
	JSON(w, http.StatusOK, out)
}
