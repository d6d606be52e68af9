package models

import (
	"errors"
	"regexp"
	"strings"
)

type AddressFields struct {
	Street        string `json:"street"`
	HouseNumber   string `json:"houseNumber"`
	HouseAddition string `json:"houseAddition,omitempty"`
	City          string `json:"city"`
	PostalCode    string `json:"postalCode"`
	Country       string `json:"country"`
}

// Line concatène rue + numéro + ajout en une seule ligne d'adresse
func (a AddressFields) Line() string {
	line := strings.TrimSpace(a.Street + " " + a.HouseNumber)
	if a.HouseAddition != "" {
		line += " " + a.HouseAddition
	}
	return line
}

type Customer struct {
	FirstName          string        `json:"firstName"`
	LastName           string        `json:"lastName"`
	Email              string        `json:"email"`
	Phone              string        `json:"phone"`
	CompanyName        string        `json:"companyName,omitempty"`
	VATNumber          string        `json:"vatNumber,omitempty"`
	IsBusinessOrder    bool          `json:"isBusinessOrder"`
	BillingAddress     AddressFields `json:"billingAddress"`
	UseShippingAddress bool          `json:"useShippingAddress"`
	ShippingAddress    AddressFields `json:"shippingAddress,omitempty"`
}

var emailRe = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)

var ErrEmailRequired = errors.New("e-mailadres ontbreekt of is ongeldig")

// Validate vérifie les champs obligatoires du client
func (c Customer) Validate() error {
	if c.Email == "" || !emailRe.MatchString(c.Email) {
		return ErrEmailRequired
	}
	return nil
}

// EffectiveShipping : adresse de livraison = facturation sauf si le client
// a explicitement renseigné une adresse de livraison distincte
func (c Customer) EffectiveShipping() AddressFields {
	if c.UseShippingAddress {
		return c.ShippingAddress
	}
	return c.BillingAddress
}
