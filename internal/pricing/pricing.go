package pricing

import (
	"math"

	"wasgeurtje_backend/internal/models"
)

// Policy : seuils et tarifs de la politique de prix. Une seule fonction de
// calcul, paramétrée une fois, appelée par create-intent ET update-intent —
// les deux chemins de code ne peuvent plus diverger.
type Policy struct {
	VolumeThreshold       float64 // sous-total à partir duquel la remise volume s'applique
	VolumeRate            float64 // fraction du sous-total (0.10 = 10%)
	FreeShippingThreshold float64
	ShippingFee           float64
}

// Default : la politique en vigueur sur la boutique
func Default() Policy {
	return Policy{
		VolumeThreshold:       75,
		VolumeRate:            0.10,
		FreeShippingThreshold: 40,
		ShippingFee:           4.95,
	}
}

// LegacyUpdate : l'ancienne branche de secours d'update-intent (livraison
// gratuite dès 29€, frais 1.95€). Conservée uniquement pour documenter la
// divergence historique dans les tests — plus jamais câblée en production.
func LegacyUpdate() Policy {
	return Policy{
		VolumeThreshold:       75,
		VolumeRate:            0.10,
		FreeShippingThreshold: 29,
		ShippingFee:           1.95,
	}
}

// Subtotal calcule le sous-total d'un panier résolu (prix unitaire × quantité)
func Subtotal(prices map[string]float64, items []models.CartLineItem, remap map[string]string) float64 {
	var subtotal float64
	for _, item := range items {
		ref := models.ResolveProductRef(remap, item.ProductReference)
		subtotal += prices[ref] * float64(item.Quantity)
	}
	return round2(subtotal)
}

// Totals applique la politique : remise volume avant livraison,
// FinalTotal = subtotal - remise - volume - bundle + livraison
func (p Policy) Totals(subtotal, discountAmount, bundleDiscount float64) models.OrderTotals {
	var volume float64
	if subtotal >= p.VolumeThreshold {
		volume = round2(subtotal * p.VolumeRate)
	}

	shipping := p.ShippingFee
	if subtotal >= p.FreeShippingThreshold {
		shipping = 0
	}

	final := round2(subtotal - discountAmount - volume - bundleDiscount + shipping)
	if final < 0 {
		final = 0
	}

	return models.OrderTotals{
		Subtotal:       round2(subtotal),
		DiscountAmount: round2(discountAmount),
		VolumeDiscount: volume,
		BundleDiscount: round2(bundleDiscount),
		ShippingCost:   shipping,
		FinalTotal:     final,
	}
}

// MinorUnits convertit un montant en euros vers les centimes Stripe
func MinorUnits(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func round2(f float64) float64 {
	return math.Round(f*100) / 100
}
