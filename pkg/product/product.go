// Package product declares the storefront's sellable item.
package product

import "fmt"

// Product is a sellable item as it appears in listings and in the cart.
//
// JSON keys match the payload stored in the "cart" cookie, so carts written by
// earlier storefront builds decode unchanged.
type Product struct {
	ID                int     `json:"id"`
	Price             float64 `json:"price"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Category          string  `json:"category"`
	Seller            string  `json:"seller"`
	Availability      string  `json:"availability"`
	RecommendedSeller bool    `json:"recommendedSeller"`
	Rating            float64 `json:"rating"`
	Quantity          int     `json:"quantity"`
	ImgURL            string  `json:"imgUrl"`
}

// Subtotal returns Price multiplied by Quantity.
func (p Product) Subtotal() float64 {
	return p.Price * float64(p.Quantity)
}

// ValidationError describes a rejected product field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("product: invalid %s: %s", e.Field, e.Reason)
}

// Validate checks a product arriving from outside the process (HTTP body, CLI flags).
// Stores never call it; they accept whatever they are given.
func Validate(p Product) error {
	if p.ID <= 0 {
		return &ValidationError{Field: "id", Reason: "must be positive"}
	}
	if p.Price < 0 {
		return &ValidationError{Field: "price", Reason: "must not be negative"}
	}
	if p.Quantity < 0 {
		return &ValidationError{Field: "quantity", Reason: "must not be negative"}
	}
	return nil
}
