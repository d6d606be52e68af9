package loyalty

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wasgeurtje_backend/internal/config"
	"wasgeurtje_backend/internal/woocommerce"
)

// CouponCreator : création du code promo côté WooCommerce
type CouponCreator interface {
	CreateCoupon(ctx context.Context, payload woocommerce.CouponPayload) (*woocommerce.Coupon, error)
}

// Handler : échange de points fidélité contre un coupon à usage unique.
// Points déduits d'abord, coupon ensuite ; si le coupon échoue
// définitivement, les points sont restitués (best effort).
type Handler struct {
	Cfg     *config.Config
	Points  PointsStore
	Coupons CouponCreator
	// RetryBase : pause initiale entre tentatives coupon (réduite en test)
	RetryBase time.Duration
}

// GetBalance : GET /api/loyalty/redeem?email=
func (h *Handler) GetBalance(c *gin.Context) {
	email := c.Query("email")
	if email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "E-mailadres is verplicht"})
		return
	}

	balance, err := h.Points.Balance(c.Request.Context(), email)
	if err != nil {
		log.Printf("❌ Solde fidélité illisible pour %s: %v", email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Saldo kon niet worden opgehaald"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"email":      email,
		"points":     balance,
		"euroValue":  float64(balance) / float64(h.Cfg.LoyaltyPointsPerEuro),
		"minRedeem":  h.Cfg.LoyaltyMinRedeemPoints,
		"redeemable": balance >= h.Cfg.LoyaltyMinRedeemPoints,
	})
}

type redeemRequest struct {
	Email  string `json:"email"`
	Points int    `json:"points"`
}

// Redeem : POST /api/loyalty/redeem
func (h *Handler) Redeem(c *gin.Context) {
	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Email == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "E-mailadres is verplicht"})
		return
	}
	if req.Points < h.Cfg.LoyaltyMinRedeemPoints {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("Minimaal %d punten nodig om in te wisselen", h.Cfg.LoyaltyMinRedeemPoints),
		})
		return
	}

	ctx := c.Request.Context()

	ok, err := h.Points.Deduct(ctx, req.Email, req.Points)
	if err != nil {
		log.Printf("❌ Déduction points échouée pour %s: %v", req.Email, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Punten konden niet worden afgeschreven"})
		return
	}
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Onvoldoende punten"})
		return
	}

	amount := float64(req.Points) / float64(h.Cfg.LoyaltyPointsPerEuro)
	code := "PUNTEN-" + strings.ToUpper(uuid.NewString()[:8])

	coupon, err := h.createCouponWithRetry(ctx, woocommerce.CouponPayload{
		Code:              code,
		DiscountType:      "fixed_cart",
		Amount:            fmt.Sprintf("%.2f", amount),
		UsageLimit:        1,
		EmailRestrictions: []string{req.Email},
		IndividualUse:     true,
	})
	if err != nil {
		// Rollback : les points retournent au client. Pas atomique — si le
		// refund échoue aussi, seule la réconciliation manuelle reste.
		log.Printf("❌ Coupon définitivement échoué pour %s, rollback des points: %v", req.Email, err)
		if refundErr := h.Points.Refund(ctx, req.Email, req.Points); refundErr != nil {
			log.Printf("🚨 Rollback points échoué pour %s (%d punten): %v", req.Email, req.Points, refundErr)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Kortingscode kon niet worden aangemaakt"})
		return
	}

	remaining, _ := h.Points.Balance(ctx, req.Email)
	log.Printf("🎁 %d punten ingewisseld door %s → coupon %s (%.2f€)", req.Points, req.Email, coupon.Code, amount)

	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"couponCode":      coupon.Code,
		"amount":          amount,
		"remainingPoints": remaining,
	})
}

// createCouponWithRetry réessaie sur les erreurs réseau avec un court
// backoff exponentiel. Une réponse non-2xx de WooCommerce est terminale :
// réessayer ne changerait rien.
func (h *Handler) createCouponWithRetry(ctx context.Context, payload woocommerce.CouponPayload) (*woocommerce.Coupon, error) {
	base := h.RetryBase
	if base == 0 {
		base = 200 * time.Millisecond
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(base << (attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		coupon, err := h.Coupons.CreateCoupon(ctx, payload)
		if err == nil {
			return coupon, nil
		}
		if _, terminal := err.(*woocommerce.UpstreamError); terminal {
			return nil, err
		}
		log.Printf("⚠️  Tentative coupon %d/3 échouée: %v", attempt+1, err)
		lastErr = err
	}
	return nil, lastErr
}
