package admin

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"wasgeurtje_backend/internal/config"
	"wasgeurtje_backend/internal/models"
	"wasgeurtje_backend/internal/reconcile"
)

// Handler : réconciliation des checkouts bloqués. Le webhook répond 200
// même quand la création échoue (pour couper les retries Stripe), donc les
// lignes settled/failed s'accumulent ici jusqu'à relance.
type Handler struct {
	Cfg     *config.Config
	Ledger  reconcile.Ledger
	Settler *reconcile.Settler
}

// ListStuck : GET /api/admin/reconcile — les checkouts sans commande
func (h *Handler) ListStuck(c *gin.Context) {
	stuck, err := h.Ledger.ListStuck(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Register kon niet worden gelezen"})
		return
	}

	items := make([]gin.H, 0, len(stuck))
	for _, rec := range stuck {
		items = append(items, gin.H{
			"paymentIntentId": rec.PaymentIntentID,
			"state":           string(rec.State),
			"amountCents":     rec.AmountCents,
			"email":           rec.Email,
			"lastError":       rec.LastError,
			"updatedAt":       rec.UpdatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"stuck": items, "total": len(items)})
}

// Replay : POST /api/admin/reconcile/:paymentIntentId — relit l'intent chez
// Stripe et rejoue le règlement. Le CAS du registre protège toujours :
// rejouer un checkout déjà abouti rend simplement la commande existante.
func (h *Handler) Replay(c *gin.Context) {
	id := c.Param("paymentIntentId")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Betalingskenmerk ontbreekt"})
		return
	}

	pi, err := paymentintent.Get(id, nil)
	if err != nil {
		log.Printf("❌ Replay: intent %s introuvable chez Stripe: %v", id, err)
		c.JSON(http.StatusNotFound, gin.H{"error": "Betaling niet gevonden"})
		return
	}
	if pi.Status != "succeeded" {
		c.JSON(http.StatusConflict, gin.H{"error": "Betaling is niet afgerond", "status": string(pi.Status)})
		return
	}

	meta, err := models.DecodeIntentMetadata(pi.Metadata)
	if err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Metadata ontbreekt of is onvolledig"})
		return
	}

	outcome, err := h.Settler.Settle(c.Request.Context(), reconcile.SettleInput{
		PaymentIntentID: pi.ID,
		Items:           meta.Items,
		Customer:        meta.Customer,
		Discount:        meta.Discount,
		Totals:          meta.Totals,
		OrderReference:  meta.OrderReference,
		Source:          "admin-replay",
	})
	if err != nil {
		body := gin.H{"success": false, "error": "Bestelling kon niet worden aangemaakt"}
		if h.Cfg.Debug {
			body["debug"] = err.Error()
		}
		c.JSON(http.StatusInternalServerError, body)
		return
	}

	resp := gin.H{
		"success":         true,
		"paymentIntentId": pi.ID,
		"duplicate":       outcome.Duplicate,
	}
	if outcome.Order != nil {
		resp["orderId"] = outcome.Order.ID
	}
	log.Printf("🔧 Replay admin pour %s (duplicate=%v)", pi.ID, outcome.Duplicate)
	c.JSON(http.StatusOK, resp)
}
