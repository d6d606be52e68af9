package payment

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stripe/stripe-go/v83"
	"github.com/stripe/stripe-go/v83/paymentintent"

	"wasgeurtje_backend/internal/config"
	"wasgeurtje_backend/internal/models"
	"wasgeurtje_backend/internal/pricing"
	"wasgeurtje_backend/internal/reconcile"
)

// Catalog : résolution des prix unitaires auprès du catalogue
type Catalog interface {
	ProductPrice(ctx context.Context, productID string) (float64, error)
}

// Handler regroupe les routes Stripe (intents + webhooks)
type Handler struct {
	Cfg     *config.Config
	Policy  pricing.Policy
	Catalog Catalog
	Ledger  reconcile.Ledger
	Settler *reconcile.Settler
	// Events court-circuite les relivraisons webhook déjà traitées.
	// Peut être nil.
	Events EventGuard
}

// Moyens de paiement acceptés par la boutique
var paymentMethodTypes = []string{"ideal", "card", "bancontact"}

// resolveSubtotal remappe chaque référence, récupère le prix catalogue et
// additionne. Un seul échec fait échouer tout le calcul : jamais de montant
// sur un panier partiel.
func (h *Handler) resolveSubtotal(ctx context.Context, items []models.CartLineItem) (float64, error) {
	prices := map[string]float64{}
	for _, item := range items {
		ref := models.ResolveProductRef(h.Cfg.ProductRemap, item.ProductReference)
		if _, ok := prices[ref]; ok {
			continue
		}
		price, err := h.Catalog.ProductPrice(ctx, ref)
		if err != nil {
			log.Printf("❌ Prix introuvable pour %s (ref %s): %v", item.ProductReference, ref, err)
			return 0, err
		}
		prices[ref] = price
	}
	return pricing.Subtotal(prices, items, h.Cfg.ProductRemap), nil
}

type intentRequest struct {
	PaymentIntentID string                  `json:"paymentIntentId"`
	LineItems       []models.CartLineItem   `json:"lineItems"`
	Customer        models.Customer         `json:"customer"`
	AppliedDiscount *models.AppliedDiscount `json:"appliedDiscount"`
	Totals          *models.OrderTotals     `json:"totals"`
}

func (h *Handler) intentResponse(c *gin.Context, clientSecret, intentID string, amountCents int64) {
	c.JSON(http.StatusOK, gin.H{
		"clientSecret":    clientSecret,
		"paymentIntentId": intentID,
		"amount":          amountCents,
		"currency":        "eur",
	})
}

func (h *Handler) upstreamError(c *gin.Context, msg string, err error) {
	body := gin.H{"error": msg}
	if h.Cfg.Debug {
		body["debug"] = err.Error()
	}
	c.JSON(http.StatusInternalServerError, body)
}

// CreateIntent calcule le total côté serveur et crée le PaymentIntent,
// panier/client/remise/totaux sérialisés dans ses métadonnées
func (h *Handler) CreateIntent(c *gin.Context) {
	var req intentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Ongeldige aanvraag"})
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
	if h.Cfg.StripeSecretKey == "" {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":          "Betaalprovider is niet geconfigureerd",
			"setup_required": true,
		})
		return
	}

	subtotal, err := h.resolveSubtotal(c.Request.Context(), req.LineItems)
	if err != nil {
		h.upstreamError(c, "Productprijzen konden niet worden opgehaald", err)
		return
	}

	var discountAmount float64
	if req.AppliedDiscount != nil {
		discountAmount = req.AppliedDiscount.DiscountAmount
	}
	totals := h.Policy.Totals(subtotal, discountAmount, 0)
	amountCents := pricing.MinorUnits(totals.FinalTotal)

	orderRef := uuid.NewString()
	metadata, err := models.EncodeIntentMetadata(models.IntentMetadata{
		Items:          req.LineItems,
		Customer:       req.Customer,
		Discount:       req.AppliedDiscount,
		Totals:         totals,
		OrderReference: orderRef,
	})
	if err != nil {
		h.upstreamError(c, "Bestelling kon niet worden verwerkt", err)
		return
	}

	params := &stripe.PaymentIntentParams{
		Amount:             stripe.Int64(amountCents),
		Currency:           stripe.String(string(stripe.CurrencyEUR)),
		PaymentMethodTypes: stripe.StringSlice(paymentMethodTypes),
		Metadata:           metadata,
	}

	intent, err := paymentintent.New(params)
	if err != nil {
		log.Printf("❌ Erreur Stripe create-intent: %v", err)
		h.upstreamError(c, "Betaling kon niet worden aangemaakt", err)
		return
	}

	if err := h.Ledger.Init(c.Request.Context(), reconcile.Record{
		PaymentIntentID: intent.ID,
		OrderReference:  orderRef,
		State:           reconcile.StateInitialized,
		AmountCents:     amountCents,
		Email:           req.Customer.Email,
	}); err != nil {
		log.Printf("⚠️  Registre non initialisé pour %s: %v", intent.ID, err)
	}

	log.Printf("💳 PaymentIntent créé : %s (%.2f€) pour %s", intent.ID, totals.FinalTotal, req.Customer.Email)
	h.intentResponse(c, intent.ClientSecret, intent.ID, amountCents)
}

// UpdateIntent met à jour montant et métadonnées d'un intent existant.
// Deux chemins : totaux fournis par le client (confiance, pas de re-fetch)
// ou recalcul catalogue — les deux via la même politique de prix.
// La order_reference existante est relue et préservée.
func (h *Handler) UpdateIntent(c *gin.Context) {
	var req intentRequest
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

	var totals models.OrderTotals
	if req.Totals != nil {
		totals = *req.Totals
	} else {
		if err := req.Customer.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Een geldig e-mailadres is verplicht"})
			return
		}
		subtotal, err := h.resolveSubtotal(c.Request.Context(), req.LineItems)
		if err != nil {
			h.upstreamError(c, "Productprijzen konden niet worden opgehaald", err)
			return
		}
		var discountAmount float64
		if req.AppliedDiscount != nil {
			discountAmount = req.AppliedDiscount.DiscountAmount
		}
		totals = h.Policy.Totals(subtotal, discountAmount, 0)
	}
	amountCents := pricing.MinorUnits(totals.FinalTotal)

	// Relire la référence déjà attribuée avant d'écrire
	existing, err := paymentintent.Get(req.PaymentIntentID, nil)
	if err != nil {
		log.Printf("❌ PaymentIntent %s introuvable: %v", req.PaymentIntentID, err)
		h.upstreamError(c, "Betaling kon niet worden bijgewerkt", err)
		return
	}
	orderRef := existing.Metadata[models.MetaOrderReference]
	if orderRef == "" {
		orderRef = uuid.NewString()
	}

	metadata, err := models.EncodeIntentMetadata(models.IntentMetadata{
		Items:          req.LineItems,
		Customer:       req.Customer,
		Discount:       req.AppliedDiscount,
		Totals:         totals,
		OrderReference: orderRef,
	})
	if err != nil {
		h.upstreamError(c, "Bestelling kon niet worden verwerkt", err)
		return
	}

	updated, err := paymentintent.Update(req.PaymentIntentID, &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Metadata: metadata,
	})
	if err != nil {
		log.Printf("❌ Erreur Stripe update-intent: %v", err)
		h.upstreamError(c, "Betaling kon niet worden bijgewerkt", err)
		return
	}

	if err := h.Ledger.MarkUpdated(c.Request.Context(), updated.ID, orderRef, amountCents); err != nil {
		log.Printf("⚠️  Registre non mis à jour pour %s: %v", updated.ID, err)
	}

	log.Printf("🔄 PaymentIntent mis à jour : %s (%.2f€)", updated.ID, totals.FinalTotal)
	h.intentResponse(c, updated.ClientSecret, updated.ID, amountCents)
}
