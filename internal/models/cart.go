package models

import (
	"errors"
	"fmt"
)

// ErrInvalidQuantity : quantité nulle ou négative dans une ligne de panier
var ErrInvalidQuantity = errors.New("ongeldige hoeveelheid")

// CartLineItem est une ligne de panier telle qu'envoyée par le front.
// Créée côté client, sérialisée dans les métadonnées du PaymentIntent,
// relue au règlement — jamais modifiée entre les deux.
type CartLineItem struct {
	ProductReference string `json:"productReference"`
	Quantity         int    `json:"quantity"`
}

// ValidateItems vérifie que chaque ligne a une quantité strictement
// positive. Les quantités viennent du front telles quelles : zéro ou
// négatif fausserait le sous-total et le payload WooCommerce.
func ValidateItems(items []CartLineItem) error {
	for _, item := range items {
		if item.Quantity <= 0 {
			return fmt.Errorf("%w voor product %s", ErrInvalidQuantity, item.ProductReference)
		}
	}
	return nil
}

// ResolveProductRef applique la table de remap marketing → catalogue.
// Un id absent de la table passe tel quel.
func ResolveProductRef(remap map[string]string, ref string) string {
	if mapped, ok := remap[ref]; ok {
		return mapped
	}
	return ref
}
