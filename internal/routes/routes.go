package routes

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"wasgeurtje_backend/internal/config"
	"wasgeurtje_backend/internal/handlers/admin"
	"wasgeurtje_backend/internal/handlers/loyalty"
	"wasgeurtje_backend/internal/handlers/orders"
	"wasgeurtje_backend/internal/handlers/payment"
	"wasgeurtje_backend/internal/middleware"
)

// Register câble toutes les routes de l'API checkout
func Register(
	r *gin.Engine,
	cfg *config.Config,
	rdb *redis.Client,
	paymentH *payment.Handler,
	ordersH *orders.Handler,
	loyaltyH *loyalty.Handler,
	adminH *admin.Handler,
) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{cfg.SiteURL},
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")

	stripeGroup := api.Group("/stripe")
	stripeGroup.POST("/create-intent", paymentH.CreateIntent)
	stripeGroup.POST("/update-intent", paymentH.UpdateIntent)
	stripeGroup.POST("/webhook", paymentH.Webhook)
	stripeGroup.POST("/webhook-handler", paymentH.WebhookHandler)
	stripeGroup.POST("/webhook-simple", paymentH.WebhookSimple)

	api.POST("/woocommerce/orders/create", ordersH.Create)

	loyaltyGroup := api.Group("/loyalty")
	loyaltyGroup.Use(middleware.LoyaltyRateLimit(rdb))
	loyaltyGroup.GET("/redeem", loyaltyH.GetBalance)
	loyaltyGroup.POST("/redeem", loyaltyH.Redeem)

	adminGroup := api.Group("/admin")
	adminGroup.Use(middleware.AdminRequired(cfg.JWTSecret))
	adminGroup.GET("/reconcile", adminH.ListStuck)
	adminGroup.POST("/reconcile/:paymentIntentId", adminH.Replay)
}
