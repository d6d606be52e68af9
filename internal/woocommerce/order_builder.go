package woocommerce

import (
	"fmt"
	"strconv"

	"wasgeurtje_backend/internal/models"
)

// IdempotencyKey dérive la clé d'idempotence de création de commande
// du PaymentIntent : un intent, une clé, une commande
func IdempotencyKey(paymentIntentID string) string {
	return "wc-order-" + paymentIntentID
}

func fmtAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// BuildOrder traduit panier + client + remise + totaux vers le schéma de
// commande WooCommerce. Pure : aucun appel réseau, tout est testable.
func BuildOrder(
	paymentIntentID string,
	items []models.CartLineItem,
	remap map[string]string,
	customer models.Customer,
	discount *models.AppliedDiscount,
	totals models.OrderTotals,
	source string,
) (OrderPayload, error) {
	lineItems := make([]OrderLineItem, 0, len(items))
	for _, item := range items {
		ref := models.ResolveProductRef(remap, item.ProductReference)
		productID, err := strconv.Atoi(ref)
		if err != nil {
			return OrderPayload{}, fmt.Errorf("referentie %q is geen geldig productnummer", item.ProductReference)
		}
		lineItems = append(lineItems, OrderLineItem{ProductID: productID, Quantity: item.Quantity})
	}

	billing := Address{
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Company:   customer.CompanyName,
		Address1:  customer.BillingAddress.Line(),
		City:      customer.BillingAddress.City,
		Postcode:  customer.BillingAddress.PostalCode,
		Country:   customer.BillingAddress.Country,
		Email:     customer.Email,
		Phone:     customer.Phone,
	}

	// Livraison = facturation sauf adresse distincte explicite
	shippingAddr := customer.EffectiveShipping()
	shipping := Address{
		FirstName: customer.FirstName,
		LastName:  customer.LastName,
		Company:   customer.CompanyName,
		Address1:  shippingAddr.Line(),
		City:      shippingAddr.City,
		Postcode:  shippingAddr.PostalCode,
		Country:   shippingAddr.Country,
	}

	// Au plus une ligne coupon
	var couponLines []CouponLine
	if discount != nil && discount.CouponCode != "" {
		couponLines = []CouponLine{{Code: discount.CouponCode}}
	}

	// Remises volume/bundle : lignes de frais négatives nommées
	var feeLines []FeeLine
	if totals.VolumeDiscount > 0 {
		feeLines = append(feeLines, FeeLine{
			Name:  "Volumekorting",
			Total: "-" + fmtAmount(totals.VolumeDiscount),
		})
	}
	if totals.BundleDiscount > 0 {
		feeLines = append(feeLines, FeeLine{
			Name:  "Bundelkorting",
			Total: "-" + fmtAmount(totals.BundleDiscount),
		})
	}

	// Une seule ligne de livraison : forfaitaire ou gratuite
	shippingLine := ShippingLine{
		MethodID:    "flat_rate",
		MethodTitle: "Verzendkosten",
		Total:       fmtAmount(totals.ShippingCost),
	}
	if totals.ShippingCost == 0 {
		shippingLine = ShippingLine{
			MethodID:    "free_shipping",
			MethodTitle: "Gratis verzending",
			Total:       "0.00",
		}
	}

	metaData := []MetaData{
		{Key: MetaKeyPaymentIntent, Value: paymentIntentID},
		{Key: "_created_via_backend", Value: source},
		{Key: "_business_order", Value: strconv.FormatBool(customer.IsBusinessOrder)},
	}
	if customer.VATNumber != "" {
		metaData = append(metaData, MetaData{Key: "_vat_number", Value: customer.VATNumber})
	}

	return OrderPayload{
		PaymentMethod:      "stripe",
		PaymentMethodTitle: "Stripe (iDEAL / kaart / Bancontact)",
		SetPaid:            true,
		Billing:            billing,
		Shipping:           shipping,
		LineItems:          lineItems,
		CouponLines:        couponLines,
		FeeLines:           feeLines,
		ShippingLines:      []ShippingLine{shippingLine},
		MetaData:           metaData,
	}, nil
}
