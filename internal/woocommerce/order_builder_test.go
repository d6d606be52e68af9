package woocommerce

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wasgeurtje_backend/internal/models"
)

func testCustomer() models.Customer {
	return models.Customer{
		FirstName: "Jan",
		LastName:  "de Vries",
		Email:     "jan@example.nl",
		Phone:     "0612345678",
		BillingAddress: models.AddressFields{
			Street:        "Dorpsstraat",
			HouseNumber:   "12",
			HouseAddition: "B",
			City:          "Amsterdam",
			PostalCode:    "1012 AB",
			Country:       "NL",
		},
	}
}

func TestBuildOrderShippingEqualsBillingByDefault(t *testing.T) {
	customer := testCustomer()
	customer.UseShippingAddress = false
	customer.ShippingAddress = models.AddressFields{Street: "Andere straat", HouseNumber: "99"}

	payload, err := BuildOrder("pi_123", nil, nil, customer, nil, models.OrderTotals{}, "webhook")
	require.NoError(t, err)

	assert.Equal(t, "Dorpsstraat 12 B", payload.Billing.Address1)
	assert.Equal(t, payload.Billing.Address1, payload.Shipping.Address1)
	assert.Equal(t, payload.Billing.City, payload.Shipping.City)
	assert.Equal(t, payload.Billing.Postcode, payload.Shipping.Postcode)
	assert.Equal(t, payload.Billing.Country, payload.Shipping.Country)
}

func TestBuildOrderSeparateShippingAddress(t *testing.T) {
	customer := testCustomer()
	customer.UseShippingAddress = true
	customer.ShippingAddress = models.AddressFields{
		Street: "Havenkade", HouseNumber: "3", City: "Rotterdam",
		PostalCode: "3011 XX", Country: "NL",
	}

	payload, err := BuildOrder("pi_123", nil, nil, customer, nil, models.OrderTotals{}, "webhook")
	require.NoError(t, err)

	assert.Equal(t, "Havenkade 3", payload.Shipping.Address1)
	assert.NotEqual(t, payload.Billing.Address1, payload.Shipping.Address1)
}

func TestBuildOrderCouponLines(t *testing.T) {
	customer := testCustomer()

	// Avec remise : exactement une ligne coupon avec le code donné
	discount := &models.AppliedDiscount{CouponCode: "WELKOM5", DiscountType: "fixed_cart", DiscountAmount: 5}
	payload, err := BuildOrder("pi_123", nil, nil, customer, discount, models.OrderTotals{}, "webhook")
	require.NoError(t, err)
	require.Len(t, payload.CouponLines, 1)
	assert.Equal(t, "WELKOM5", payload.CouponLines[0].Code)

	// Sans remise : aucune ligne coupon
	payload, err = BuildOrder("pi_123", nil, nil, customer, nil, models.OrderTotals{}, "webhook")
	require.NoError(t, err)
	assert.Empty(t, payload.CouponLines)
}

func TestBuildOrderFeeAndShippingLines(t *testing.T) {
	totals := models.OrderTotals{
		Subtotal:       80,
		VolumeDiscount: 8,
		BundleDiscount: 2.50,
		ShippingCost:   0,
		FinalTotal:     69.50,
	}

	payload, err := BuildOrder("pi_123", nil, nil, testCustomer(), nil, totals, "webhook")
	require.NoError(t, err)

	require.Len(t, payload.FeeLines, 2)
	assert.Equal(t, "Volumekorting", payload.FeeLines[0].Name)
	assert.Equal(t, "-8.00", payload.FeeLines[0].Total)
	assert.Equal(t, "Bundelkorting", payload.FeeLines[1].Name)
	assert.Equal(t, "-2.50", payload.FeeLines[1].Total)

	require.Len(t, payload.ShippingLines, 1)
	assert.Equal(t, "free_shipping", payload.ShippingLines[0].MethodID)
	assert.Equal(t, "0.00", payload.ShippingLines[0].Total)
}

func TestBuildOrderFlatRateShipping(t *testing.T) {
	totals := models.OrderTotals{Subtotal: 31.90, ShippingCost: 4.95, FinalTotal: 36.85}

	payload, err := BuildOrder("pi_123", nil, nil, testCustomer(), nil, totals, "webhook")
	require.NoError(t, err)

	require.Len(t, payload.ShippingLines, 1)
	assert.Equal(t, "flat_rate", payload.ShippingLines[0].MethodID)
	assert.Equal(t, "4.95", payload.ShippingLines[0].Total)
	assert.Empty(t, payload.FeeLines)
}

func TestBuildOrderRemapsAndResolvesProducts(t *testing.T) {
	remap := map[string]string{"full-moon": "1410"}
	items := []models.CartLineItem{
		{ProductReference: "full-moon", Quantity: 2},
		{ProductReference: "2047", Quantity: 1},
	}

	payload, err := BuildOrder("pi_123", items, remap, testCustomer(), nil, models.OrderTotals{}, "direct")
	require.NoError(t, err)

	require.Len(t, payload.LineItems, 2)
	assert.Equal(t, 1410, payload.LineItems[0].ProductID)
	assert.Equal(t, 2, payload.LineItems[0].Quantity)
	assert.Equal(t, 2047, payload.LineItems[1].ProductID)
}

func TestBuildOrderRejectsUnresolvableReference(t *testing.T) {
	items := []models.CartLineItem{{ProductReference: "niet-bestaand", Quantity: 1}}

	_, err := BuildOrder("pi_123", items, nil, testCustomer(), nil, models.OrderTotals{}, "direct")
	assert.Error(t, err)
}

func TestBuildOrderMetadataBindsPaymentIntent(t *testing.T) {
	customer := testCustomer()
	customer.IsBusinessOrder = true
	customer.VATNumber = "NL123456789B01"

	payload, err := BuildOrder("pi_abc", nil, nil, customer, nil, models.OrderTotals{}, "webhook")
	require.NoError(t, err)

	meta := map[string]string{}
	for _, m := range payload.MetaData {
		meta[m.Key] = m.Value
	}
	assert.Equal(t, "pi_abc", meta[MetaKeyPaymentIntent])
	assert.Equal(t, "webhook", meta["_created_via_backend"])
	assert.Equal(t, "true", meta["_business_order"])
	assert.Equal(t, "NL123456789B01", meta["_vat_number"])

	assert.Equal(t, "wc-order-pi_abc", IdempotencyKey("pi_abc"))
}
