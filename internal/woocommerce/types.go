package woocommerce

import "fmt"

// Types du schéma de commande WooCommerce (REST v3).
// Les montants y sont des décimales sérialisées en string.

type MetaData struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type Address struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Company   string `json:"company,omitempty"`
	Address1  string `json:"address_1"`
	Address2  string `json:"address_2,omitempty"`
	City      string `json:"city"`
	Postcode  string `json:"postcode"`
	Country   string `json:"country"`
	Email     string `json:"email,omitempty"`
	Phone     string `json:"phone,omitempty"`
}

type OrderLineItem struct {
	ProductID int `json:"product_id"`
	Quantity  int `json:"quantity"`
}

type CouponLine struct {
	Code string `json:"code"`
}

type FeeLine struct {
	Name      string `json:"name"`
	Total     string `json:"total"`
	TaxStatus string `json:"tax_status,omitempty"`
}

type ShippingLine struct {
	MethodID    string `json:"method_id"`
	MethodTitle string `json:"method_title"`
	Total       string `json:"total"`
}

type OrderPayload struct {
	PaymentMethod      string          `json:"payment_method"`
	PaymentMethodTitle string          `json:"payment_method_title"`
	SetPaid            bool            `json:"set_paid"`
	Billing            Address         `json:"billing"`
	Shipping           Address         `json:"shipping"`
	LineItems          []OrderLineItem `json:"line_items"`
	CouponLines        []CouponLine    `json:"coupon_lines,omitempty"`
	FeeLines           []FeeLine       `json:"fee_lines,omitempty"`
	ShippingLines      []ShippingLine  `json:"shipping_lines"`
	MetaData           []MetaData      `json:"meta_data"`
}

type Order struct {
	ID       int64      `json:"id"`
	Number   string     `json:"number"`
	Status   string     `json:"status"`
	Total    string     `json:"total"`
	MetaData []MetaData `json:"meta_data,omitempty"`
}

type CouponPayload struct {
	Code              string   `json:"code"`
	DiscountType      string   `json:"discount_type"`
	Amount            string   `json:"amount"`
	UsageLimit        int      `json:"usage_limit"`
	EmailRestrictions []string `json:"email_restrictions,omitempty"`
	IndividualUse     bool     `json:"individual_use"`
}

type Coupon struct {
	ID     int64  `json:"id"`
	Code   string `json:"code"`
	Amount string `json:"amount"`
}

// UpstreamError : réponse non-2xx du système de commandes, statut et corps
// conservés tels quels pour le diagnostic
type UpstreamError struct {
	Status int
	Body   string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("woocommerce: statut %d: %s", e.Status, e.Body)
}
