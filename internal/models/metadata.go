package models

import (
	"encoding/json"
	"errors"
	"strconv"
)

// Clés du sac de métadonnées du PaymentIntent. Le sac porte les données de
// reconstruction de la commande (panier, client, remise, totaux) ; la
// garantie d'unicité, elle, vit dans le registre local.
const (
	MetaCart           = "cart"
	MetaCustomer       = "customer"
	MetaDiscount       = "applied_discount"
	MetaOrderReference = "order_reference"
	MetaSubtotal       = "subtotal"
	MetaDiscountAmount = "discount_amount"
	MetaVolumeDiscount = "volume_discount"
	MetaBundleDiscount = "bundle_discount"
	MetaShippingCost   = "shipping_cost"
	MetaFinalTotal     = "final_total"
)

var ErrMetadataIncomplete = errors.New("metadata ontbreekt of is onvolledig")

// IntentMetadata : la vue désérialisée du sac de métadonnées
type IntentMetadata struct {
	Items          []CartLineItem
	Customer       Customer
	Discount       *AppliedDiscount
	Totals         OrderTotals
	OrderReference string
}

func fmtDec(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// EncodeIntentMetadata sérialise panier/client/remise/totaux en paires
// string/string pour Stripe
func EncodeIntentMetadata(m IntentMetadata) (map[string]string, error) {
	cartJSON, err := json.Marshal(m.Items)
	if err != nil {
		return nil, err
	}
	customerJSON, err := json.Marshal(m.Customer)
	if err != nil {
		return nil, err
	}

	meta := map[string]string{
		MetaCart:           string(cartJSON),
		MetaCustomer:       string(customerJSON),
		MetaOrderReference: m.OrderReference,
		MetaSubtotal:       fmtDec(m.Totals.Subtotal),
		MetaDiscountAmount: fmtDec(m.Totals.DiscountAmount),
		MetaVolumeDiscount: fmtDec(m.Totals.VolumeDiscount),
		MetaBundleDiscount: fmtDec(m.Totals.BundleDiscount),
		MetaShippingCost:   fmtDec(m.Totals.ShippingCost),
		MetaFinalTotal:     fmtDec(m.Totals.FinalTotal),
	}

	if m.Discount != nil {
		discountJSON, err := json.Marshal(m.Discount)
		if err != nil {
			return nil, err
		}
		meta[MetaDiscount] = string(discountJSON)
	}

	return meta, nil
}

// DecodeIntentMetadata relit le sac. Panier ou client absent/illisible est
// fatal : sans eux il n'y a rien à matérialiser.
func DecodeIntentMetadata(meta map[string]string) (IntentMetadata, error) {
	var m IntentMetadata

	cartJSON := meta[MetaCart]
	customerJSON := meta[MetaCustomer]
	if cartJSON == "" || customerJSON == "" {
		return m, ErrMetadataIncomplete
	}
	if err := json.Unmarshal([]byte(cartJSON), &m.Items); err != nil {
		return m, ErrMetadataIncomplete
	}
	if err := json.Unmarshal([]byte(customerJSON), &m.Customer); err != nil {
		return m, ErrMetadataIncomplete
	}
	if len(m.Items) == 0 {
		return m, ErrMetadataIncomplete
	}

	if discountJSON := meta[MetaDiscount]; discountJSON != "" {
		var d AppliedDiscount
		if err := json.Unmarshal([]byte(discountJSON), &d); err == nil {
			m.Discount = &d
		}
	}

	m.OrderReference = meta[MetaOrderReference]
	m.Totals = OrderTotals{
		Subtotal:       parseDec(meta[MetaSubtotal]),
		DiscountAmount: parseDec(meta[MetaDiscountAmount]),
		VolumeDiscount: parseDec(meta[MetaVolumeDiscount]),
		BundleDiscount: parseDec(meta[MetaBundleDiscount]),
		ShippingCost:   parseDec(meta[MetaShippingCost]),
		FinalTotal:     parseDec(meta[MetaFinalTotal]),
	}

	return m, nil
}

func parseDec(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}
