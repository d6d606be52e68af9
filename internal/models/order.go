package models

// AppliedDiscount : au plus un code promo actif dans ce flux
type AppliedDiscount struct {
	CouponCode     string  `json:"couponCode"`
	DiscountType   string  `json:"discountType"`
	DiscountAmount float64 `json:"discountAmount"`
}

// OrderTotals — montants en euros (devise de base de la boutique).
// Invariant : FinalTotal = Subtotal - DiscountAmount - VolumeDiscount
// - BundleDiscount + ShippingCost
type OrderTotals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	VolumeDiscount float64 `json:"volumeDiscount"`
	BundleDiscount float64 `json:"bundleDiscount,omitempty"`
	ShippingCost   float64 `json:"shippingCost"`
	FinalTotal     float64 `json:"finalTotal"`
}
