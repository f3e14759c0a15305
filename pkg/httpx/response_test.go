package httpx_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ghuser/orderflow/pkg/httpx"
)

func TestJSON_setsHeaders(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("unexpected Content-Type: %q", ct)
	}
	if xct := w.Header().Get("X-Content-Type-Options"); xct != "nosniff" {
		t.Errorf("expected nosniff, got %q", xct)
	}
}

func TestJSON_encodesBody(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.JSON(w, http.StatusCreated, map[string]string{"id": "abc"})

	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["id"] != "abc" {
		t.Errorf("unexpected body: %v", body)
	}
	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}

func TestJSONError(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.JSONError(w, http.StatusBadRequest, "something went wrong")

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if body["error"] != "something went wrong" {
		t.Errorf("unexpected error message: %q", body["error"])
	}
}

func TestCreated_setsLocation(t *testing.T) {
	tests := []struct {
		collection string
		id         string
		want       string
	}{
		{"/products", "abc", "/products/abc"},
		{"/orders/", "42", "/orders/42"},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			w := httptest.NewRecorder()
			httpx.Created(w, tt.collection, tt.id, map[string]string{"id": tt.id})

			if w.Code != http.StatusCreated {
				t.Errorf("expected 201, got %d", w.Code)
			}
			if got := w.Header().Get("Location"); got != tt.want {
				t.Errorf("Location: got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestList_emptyIsArray(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.List(w, []int(nil), func(n *int) int { return *n })

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("expected [], got %s", got)
	}
}

func TestList_mapsInOrder(t *testing.T) {
	w := httptest.NewRecorder()
	httpx.List(w, []int{3, 1, 2}, func(n *int) int { return *n * 10 })

	var got []int
	if err := json.NewDecoder(w.Body).Decode(&got); err != nil {
		t.Fatalf("decode error: %v", err)
	}
	if len(got) != 3 || got[0] != 30 || got[1] != 10 || got[2] != 20 {
		t.Errorf("unexpected body: %v", got)
	}
}
