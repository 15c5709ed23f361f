package types

import (
	"fmt"
	"strings"
)

// Address is the shipping address captured at checkout.
type Address struct {
	FullName     string  `json:"fullName" validate:"required"`
	Phone        string  `json:"phone" validate:"required"`
	Email        string  `json:"email,omitempty" validate:"omitempty,email"`
	AddressLine1 string  `json:"addressLine1" validate:"required"`
	AddressLine2 *string `json:"addressLine2,omitempty"`
	City         string  `json:"city" validate:"required"`
	Area         string  `json:"area,omitempty"`
	PostalCode   string  `json:"postalCode,omitempty"`
	Country      string  `json:"country"`
}

// Normalize trims every field and defaults the country.
func (a Address) Normalize() Address {
	out := Address{
		FullName:     strings.TrimSpace(a.FullName),
		Phone:        strings.TrimSpace(a.Phone),
		Email:        strings.TrimSpace(a.Email),
		AddressLine1: strings.TrimSpace(a.AddressLine1),
		City:         strings.TrimSpace(a.City),
		Area:         strings.TrimSpace(a.Area),
		PostalCode:   strings.TrimSpace(a.PostalCode),
		Country:      strings.TrimSpace(a.Country),
	}
	if a.AddressLine2 != nil {
		if line2 := strings.TrimSpace(*a.AddressLine2); line2 != "" {
			out.AddressLine2 = &line2
		}
	}
	if out.Country == "" {
		out.Country = DefaultCountry
	}
	return out
}

// Validate reports the first missing mandatory field.
func (a Address) Validate() error {
	if strings.TrimSpace(a.FullName) == "" {
		return fmt.Errorf("address: missing fullName")
	}
	if strings.TrimSpace(a.Phone) == "" {
		return fmt.Errorf("address: missing phone")
	}
	if strings.TrimSpace(a.AddressLine1) == "" {
		return fmt.Errorf("address: missing addressLine1")
	}
	if strings.TrimSpace(a.City) == "" {
		return fmt.Errorf("address: missing city")
	}
	return nil
}

// DefaultCountry is applied when an address omits its country.
const DefaultCountry = "BD"
