package orders

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"wasgeurtje_backend/internal/config"
	"wasgeurtje_backend/internal/models"
	"wasgeurtje_backend/internal/reconcile"
	"wasgeurtje_backend/internal/woocommerce"
)

// Handler : création directe de commande par le client. Ce chemin peut
// courir contre le webhook Stripe pour le même PaymentIntent — les deux
// convergent sur le même Settler, donc sur le même CAS.
type Handler struct {
	Cfg     *config.Config
	Settler *reconcile.Settler
}

type createRequest struct {
	LineItems       []models.CartLineItem   `json:"lineItems"`
	Customer        models.Customer         `json:"customer"`
	AppliedDiscount *models.AppliedDiscount `json:"appliedDiscount"`
	Totals          models.OrderTotals      `json:"totals"`
	PaymentIntentID string                  `json:"paymentIntentId"`
}

// Create matérialise la commande WooCommerce pour un paiement déjà réussi
func (h *Handler) Create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ongeldige aanvraag"})
		return
	}

	if req.PaymentIntentID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Betalingskenmerk (paymentIntentId) ontbreekt"})
		return
	}
	if len(req.LineItems) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Winkelwagen is leeg"})
		return
	}
	if err := models.ValidateItems(req.LineItems); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ongeldige hoeveelheid in winkelwagen"})
		return
	}
	if err := req.Customer.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Een geldig e-mailadres is verplicht"})
		return
	}

	outcome, err := h.Settler.Settle(c.Request.Context(), reconcile.SettleInput{
		PaymentIntentID: req.PaymentIntentID,
		Items:           req.LineItems,
		Customer:        req.Customer,
		Discount:        req.AppliedDiscount,
		Totals:          req.Totals,
		Source:          "direct",
	})
	if err != nil {
		log.Printf("❌ Création directe échouée pour %s: %v", req.PaymentIntentID, err)
		body := gin.H{"error": "Bestelling kon niet worden aangemaakt"}
		if upstream, ok := err.(*woocommerce.UpstreamError); ok {
			body["status"] = upstream.Status
			if h.Cfg.Debug {
				body["debug"] = upstream.Body
			}
		} else if h.Cfg.Debug {
			body["debug"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	resp := gin.H{
		"success":         true,
		"paymentIntentId": req.PaymentIntentID,
	}
	if outcome.Order != nil {
		resp["orderId"] = outcome.Order.ID
		resp["orderNumber"] = outcome.Order.Number
		resp["order"] = outcome.Order
	}
	if outcome.Duplicate {
		resp["duplicate"] = true
	}
	c.JSON(http.StatusOK, resp)
}
