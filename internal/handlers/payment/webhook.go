package payment

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/webhook"

	"wasgeurtje_backend/internal/models"
	"wasgeurtje_backend/internal/reconcile"
)

const maxWebhookBody = int64(65536)

// simulationHeader : en-tête des variantes de test. Il n'a d'effet que si
// le déploiement a explicitement activé WEBHOOK_ALLOW_SIMULATION — la
// requête seule ne peut jamais contourner la vérification de signature.
const simulationHeader = "X-Webhook-Simulation"

// Webhook : endpoint signé. La signature Stripe est toujours vérifiée.
func (h *Handler) Webhook(c *gin.Context) {
	h.handleWebhook(c, false)
}

// WebhookHandler / WebhookSimple : variantes historiques du même endpoint,
// utilisées par les tests internes avec simulation
func (h *Handler) WebhookHandler(c *gin.Context) {
	h.handleWebhook(c, true)
}

func (h *Handler) WebhookSimple(c *gin.Context) {
	h.handleWebhook(c, true)
}

func (h *Handler) handleWebhook(c *gin.Context, simulationCapable bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody)

	payload, err := c.GetRawData()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Verzoek kon niet worden gelezen"})
		return
	}

	simulated := simulationCapable &&
		h.Cfg.AllowSimulatedWebhooks &&
		c.GetHeader(simulationHeader) == "true"

	var event stripe.Event
	if simulated {
		log.Println("⚠️  Webhook en mode simulation (vérification de signature ignorée)")
		if err := json.Unmarshal(payload, &event); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ongeldige JSON"})
			return
		}
	} else {
		if h.Cfg.StripeWebhookSecret == "" {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error":          "Webhook is niet geconfigureerd",
				"setup_required": true,
			})
			return
		}
		event, err = webhook.ConstructEvent(payload, c.GetHeader("Stripe-Signature"), h.Cfg.StripeWebhookSecret)
		if err != nil {
			log.Printf("❌ Signature Stripe invalide: %v", err)
			c.JSON(http.StatusBadRequest, gin.H{"error": "Ongeldige handtekening"})
			return
		}
	}

	h.processEvent(c, event)
}

// processEvent : seul payment_intent.succeeded déclenche la création de
// commande, tout le reste est accusé réception et ignoré
func (h *Handler) processEvent(c *gin.Context, event stripe.Event) {
	log.Printf("📥 Événement Stripe reçu : %s", event.Type)

	if event.Type != "payment_intent.succeeded" {
		c.JSON(http.StatusOK, gin.H{"received": true})
		return
	}

	// Déduplication par event.id avant tout traitement. Fail-open : si le
	// guard est injoignable on continue, le registre tranchera.
	if h.Events != nil && event.ID != "" {
		first, err := h.Events.FirstDelivery(c.Request.Context(), event.ID)
		if err != nil {
			log.Printf("⚠️  Guard event-id indisponible pour %s: %v", event.ID, err)
		} else if !first {
			log.Printf("🔁 Événement %s déjà traité, ignoré", event.ID)
			c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": true})
			return
		}
	}

	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ongeldig payment_intent object"})
		return
	}

	meta, err := models.DecodeIntentMetadata(pi.Metadata)
	if err != nil {
		log.Printf("❌ Métadonnées inexploitables pour %s: %v", pi.ID, err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Metadata ontbreekt of is onvolledig"})
		return
	}

	outcome, err := h.Settler.Settle(c.Request.Context(), reconcile.SettleInput{
		PaymentIntentID: pi.ID,
		Items:           meta.Items,
		Customer:        meta.Customer,
		Discount:        meta.Discount,
		Totals:          meta.Totals,
		OrderReference:  meta.OrderReference,
		Source:          "webhook",
	})
	if err != nil {
		// 200 volontaire : les métadonnées sont consommées, un retry Stripe
		// infini n'arrangerait rien. La relance passe par la réconciliation.
		log.Printf("❌ Règlement échoué pour %s: %v", pi.ID, err)
		c.JSON(http.StatusOK, gin.H{
			"success":         false,
			"error":           "Bestelling kon niet worden aangemaakt",
			"paymentIntentId": pi.ID,
		})
		return
	}

	resp := gin.H{
		"success":         true,
		"paymentIntentId": pi.ID,
	}
	if outcome.Order != nil {
		resp["orderId"] = outcome.Order.ID
		resp["orderNumber"] = outcome.Order.Number
	}
	if outcome.Duplicate {
		resp["duplicate"] = true
	}
	c.JSON(http.StatusOK, resp)
}
