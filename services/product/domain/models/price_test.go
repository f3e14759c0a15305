package models

import (
	"encoding/json"
	"testing"
)

func TestPrice_MarshalJSONIsNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"9.99", "9.99"},
		{"0", "0"},
		{"-1.5", "-1.5"},
		{"100", "100"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			b, err := json.Marshal(MustPrice(tt.in))
			if err != nil {
				t.Fatalf("marshal: %v", err)
			}
			if string(b) != tt.want {
				t.Errorf("got %s, want %s", b, tt.want)
			}
		})
	}
}

func TestPrice_UnmarshalNumberOrString(t *testing.T) {
	for _, raw := range []string{`9.99`, `"9.99"`, `9.990`} {
		var p Price
		if err := json.Unmarshal([]byte(raw), &p); err != nil {
			t.Fatalf("%s: unmarshal: %v", raw, err)
		}
		if !p.Equal(MustPrice("9.99")) {
			t.Errorf("%s: got %s", raw, p)
		}
	}
}

func TestPrice_UnmarshalRejectsGarbage(t *testing.T) {
	var p Price
	if err := json.Unmarshal([]byte(`"cheap"`), &p); err == nil {
		t.Fatal("expected error for non-numeric price")
	}
}

func TestNewPrice_Invalid(t *testing.T) {
	if _, err := NewPrice("nine"); err == nil {
		t.Fatal("expected error")
	}
}

func TestNewProduct(t *testing.T) {
	p := NewProduct("Widget", MustPrice("9.99"))
	if p.ID.String() == "00000000-0000-0000-0000-000000000000" || p.CreatedAt.IsZero() {
		t.Errorf("product not fully populated: %+v", p)
	}
	if p.CreatedAt.Location().String() != "UTC" {
		t.Errorf("expected UTC timestamp, got %s", p.CreatedAt.Location())
	}
	if blank := NewProduct(" ", MustPrice("1")); blank.Name != " " {
		t.Errorf("expected name stored as given, got %q", blank.Name)
	}
}
