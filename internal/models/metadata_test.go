package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataRoundTripKeepsOrderData(t *testing.T) {
	in := IntentMetadata{
		Items: []CartLineItem{{ProductReference: "full-moon", Quantity: 2}},
		Customer: Customer{
			FirstName: "Jan", LastName: "de Vries", Email: "jan@example.nl",
			BillingAddress: AddressFields{Street: "Dorpsstraat", HouseNumber: "12", City: "Amsterdam", PostalCode: "1012 AB", Country: "NL"},
		},
		Discount:       &AppliedDiscount{CouponCode: "WELKOM5", DiscountType: "fixed_cart", DiscountAmount: 5},
		Totals:         OrderTotals{Subtotal: 31.90, DiscountAmount: 5, ShippingCost: 4.95, FinalTotal: 31.85},
		OrderReference: "ref-123",
	}

	meta, err := EncodeIntentMetadata(in)
	require.NoError(t, err)
	assert.Equal(t, "31.90", meta[MetaSubtotal])
	assert.Equal(t, "ref-123", meta[MetaOrderReference])

	out, err := DecodeIntentMetadata(meta)
	require.NoError(t, err)
	assert.Equal(t, in.Items, out.Items)
	assert.Equal(t, in.Customer.Email, out.Customer.Email)
	require.NotNil(t, out.Discount)
	assert.Equal(t, "WELKOM5", out.Discount.CouponCode)
	assert.Equal(t, in.Totals, out.Totals)
}

func TestDecodeMetadataMissingCartIsFatal(t *testing.T) {
	_, err := DecodeIntentMetadata(map[string]string{MetaCustomer: "{}"})
	assert.ErrorIs(t, err, ErrMetadataIncomplete)

	_, err = DecodeIntentMetadata(map[string]string{MetaCart: "[]", MetaCustomer: "{}"})
	assert.ErrorIs(t, err, ErrMetadataIncomplete)

	_, err = DecodeIntentMetadata(map[string]string{MetaCart: "niet-json", MetaCustomer: "{}"})
	assert.ErrorIs(t, err, ErrMetadataIncomplete)
}

func TestDecodeMetadataWithoutDiscount(t *testing.T) {
	meta := map[string]string{
		MetaCart:     `[{"productReference":"1410","quantity":1}]`,
		MetaCustomer: `{"email":"jan@example.nl"}`,
	}
	out, err := DecodeIntentMetadata(meta)
	require.NoError(t, err)
	assert.Nil(t, out.Discount)
}
