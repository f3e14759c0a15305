package validator_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	pkgvalidator "github.com/ghuser/orderflow/pkg/validator"
)

type sampleStruct struct {
	ProductID string `validate:"required,uuid"`
	Name      string `validate:"required,min=1,max=10"`
	Topic     string `validate:"omitempty,alphanum"`
}

func TestValidate_valid(t *testing.T) {
	s := sampleStruct{
		ProductID: "550e8400-e29b-41d4-a716-446655440000",
		Name:      "hello",
	}
	if err := pkgvalidator.Validate(&s); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestValidate_missingRequired(t *testing.T) {
	s := sampleStruct{}
	if err := pkgvalidator.Validate(&s); err == nil {
		t.Fatal("expected validation error for empty struct")
	}
}

func TestFormatValidationErrors_required(t *testing.T) {
	s := sampleStruct{}
	err := pkgvalidator.Validate(&s)
	m := pkgvalidator.FormatValidationErrors(err)
	if m["ProductID"] != "This field is required" {
		t.Errorf("unexpected ProductID message: %q", m["ProductID"])
	}
	if m["Name"] != "This field is required" {
		t.Errorf("unexpected Name message: %q", m["Name"])
	}
}

func TestFormatValidationErrors_uuid(t *testing.T) {
	s := sampleStruct{ProductID: "not-a-uuid", Name: "ok"}
	err := pkgvalidator.Validate(&s)
	m := pkgvalidator.FormatValidationErrors(err)
	if m["ProductID"] != "Must be a valid UUID" {
		t.Errorf("unexpected ProductID message: %q", m["ProductID"])
	}
}

func TestFormatValidationErrors_min(t *testing.T) {
	s := sampleStruct{ProductID: "550e8400-e29b-41d4-a716-446655440000", Name: ""}
	err := pkgvalidator.Validate(&s)
	m := pkgvalidator.FormatValidationErrors(err)
	// empty string fails "required" before "min"
	if _, ok := m["Name"]; !ok {
		t.Error("expected Name validation error")
	}
}

func TestFormatValidationErrors_max(t *testing.T) {
	s := sampleStruct{ProductID: "550e8400-e29b-41d4-a716-446655440000", Name: "12345678901"} // 11 chars > max=10
	err := pkgvalidator.Validate(&s)
	m := pkgvalidator.FormatValidationErrors(err)
	if m["Name"] != "Maximum length is 10" {
		t.Errorf("unexpected Name message: %q", m["Name"])
	}
}

func TestFormatValidationErrors_nonValidationError(t *testing.T) {
	m := pkgvalidator.FormatValidationErrors(http.ErrNoCookie)
	if len(m) != 0 {
		t.Errorf("expected empty map for non-validation error, got %v", m)
	}
}

// --- ValidateRequest ---

type productReq struct {
	Name  string           `json:"name"  validate:"required"`
	Price *decimal.Decimal `json:"price" validate:"required"`
}

type orderReq struct {
	ProductID uuid.UUID `json:"productId" validate:"required"`
}

func post(body string) *http.Request {
	r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}

func TestValidateRequest_valid(t *testing.T) {
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[productReq](w, post(`{"name":"Widget","price":9.99}`))
	if !ok {
		t.Fatalf("expected ok=true, got false. Response: %s", w.Body.String())
	}
	if req.Name != "Widget" || req.Price.String() != "9.99" {
		t.Errorf("unexpected request: %+v", req)
	}
}

func TestValidateRequest_invalidJSON(t *testing.T) {
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[productReq](w, post("{bad json"))
	if ok {
		t.Fatal("expected ok=false for malformed JSON")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Invalid JSON") {
		t.Errorf("expected 'Invalid JSON' in body, got: %s", w.Body.String())
	}
}

func TestValidateRequest_missingFields(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing price", `{"name":"Widget"}`, "price"},
		{"null price", `{"name":"Widget","price":null}`, "price"},
		{"missing name", `{"price":1}`, "name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			_, ok := pkgvalidator.ValidateRequest[productReq](w, post(tt.body))
			if ok {
				t.Fatal("expected ok=false")
			}
			if w.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", w.Code)
			}
			var resp struct {
				Error  string            `json:"error"`
				Fields map[string]string `json:"fields"`
			}
			if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
				t.Fatalf("decode: %v", err)
			}
			if resp.Fields[tt.field] != "This field is required" {
				t.Errorf("fields: got %v, want %s required", resp.Fields, tt.field)
			}
		})
	}
}

func TestValidateRequest_wrongTypeIsBadRequest(t *testing.T) {
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[orderReq](w, post(`{"productId":"not-uuid"}`))
	if ok {
		t.Fatal("expected ok=false for invalid UUID")
	}
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestValidateRequest_zeroUUIDIsMissing(t *testing.T) {
	w := httptest.NewRecorder()

	_, ok := pkgvalidator.ValidateRequest[orderReq](w, post(`{"productId":"00000000-0000-0000-0000-000000000000"}`))
	if ok {
		t.Fatal("expected ok=false for nil UUID")
	}
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422, got %d", w.Code)
	}
}

func TestValidateRequest_bodyTooLarge(t *testing.T) {
	w := httptest.NewRecorder()
	r := post(`{"name":"a very long product name","price":1}`)
	r.Body = http.MaxBytesReader(w, r.Body, 10)

	_, ok := pkgvalidator.ValidateRequest[productReq](w, r)
	if ok {
		t.Fatal("expected ok=false")
	}
	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("expected 413, got %d", w.Code)
	}
}

func TestValidateRequest_zeroPriceIsPresent(t *testing.T) {
	w := httptest.NewRecorder()

	req, ok := pkgvalidator.ValidateRequest[productReq](w, post(`{"name":"Freebie","price":0}`))
	if !ok {
		t.Fatalf("expected ok=true, got %d: %s", w.Code, w.Body.String())
	}
	if !req.Price.IsZero() {
		t.Errorf("expected zero price, got %s", req.Price)
	}
}

type directOrderReq struct {
	ProductID *uuid.UUID `json:"productId" validate:"required"`
}

func TestValidateRequest_presentNilUUIDPointer(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		wantOK bool
	}{
		{"nil uuid", `{"productId":"00000000-0000-0000-0000-000000000000"}`, true},
		{"random uuid", `{"productId":"` + uuid.NewString() + `"}`, true},
		{"missing", `{}`, false},
		{"null", `{"productId":null}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			req, ok := pkgvalidator.ValidateRequest[directOrderReq](w, post(tt.body))
			if ok != tt.wantOK {
				t.Fatalf("expected ok=%v, got %v: %d %s", tt.wantOK, ok, w.Code, w.Body.String())
			}
			if !ok && w.Code != http.StatusUnprocessableEntity {
				t.Errorf("expected 422, got %d", w.Code)
			}
			if ok && req.ProductID == nil {
				t.Error("expected productId to be set")
			}
		})
	}
}
