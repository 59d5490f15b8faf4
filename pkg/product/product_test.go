package product

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestSubtotal(t *testing.T) {
	p := Product{Price: 12.5, Quantity: 3}
	if got := p.Subtotal(); got != 37.5 {
		t.Errorf("Subtotal() = %v, want 37.5", got)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name      string
		p         Product
		wantField string
	}{
		{name: "valid", p: Product{ID: 1, Price: 10, Quantity: 1}},
		{name: "zero quantity is allowed", p: Product{ID: 1}},
		{name: "zero id", p: Product{ID: 0}, wantField: "id"},
		{name: "negative price", p: Product{ID: 1, Price: -1}, wantField: "price"},
		{name: "negative quantity", p: Product{ID: 1, Quantity: -2}, wantField: "quantity"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.p)
			if tt.wantField == "" {
				if err != nil {
					t.Fatalf("Validate() = %v, want nil", err)
				}
				return
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("Validate() = %v, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestDecodeCookiePayload(t *testing.T) {
	payload := `{"imgUrl":"/img/clifton.png","id":7,"price":145,"name":"Clifton 9","description":"Road shoe","category":"road","seller":"HOKA","availability":"in stock","recommendedSeller":true,"rating":4.7,"quantity":2}`

	var p Product
	if err := json.Unmarshal([]byte(payload), &p); err != nil {
		t.Fatal(err)
	}
	if p.ID != 7 || p.Quantity != 2 || !p.RecommendedSeller || p.ImgURL != "/img/clifton.png" {
		t.Errorf("decoded product = %+v", p)
	}
}
