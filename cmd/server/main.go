package main

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v83"

	"wasgeurtje_backend/internal/config"
	"wasgeurtje_backend/internal/database"
	"wasgeurtje_backend/internal/handlers/admin"
	"wasgeurtje_backend/internal/handlers/loyalty"
	"wasgeurtje_backend/internal/handlers/orders"
	"wasgeurtje_backend/internal/handlers/payment"
	"wasgeurtje_backend/internal/pricing"
	"wasgeurtje_backend/internal/reconcile"
	"wasgeurtje_backend/internal/routes"
	"wasgeurtje_backend/internal/utils"
	"wasgeurtje_backend/internal/woocommerce"
)

func main() {
	cfg := config.Load()

	stripe.Key = cfg.StripeSecretKey
	if stripe.Key == "" {
		log.Println("⚠️  STRIPE_SECRET_KEY manquant — les endpoints de paiement répondront setup_required")
	} else {
		log.Println("✅ Stripe initialisé")
	}

	database.ConnectDatabases()

	wooClient := woocommerce.NewClient(cfg, database.Redis)
	ledger := reconcile.NewScyllaLedger(database.Scylla)

	settler := &reconcile.Settler{
		Orders: wooClient,
		Ledger: ledger,
		Remap:  cfg.ProductRemap,
		Notify: func(order *woocommerce.Order, in reconcile.SettleInput) {
			notifyCustomer(cfg, order, in)
		},
	}

	paymentH := &payment.Handler{
		Cfg:     cfg,
		Policy:  pricing.Default(),
		Catalog: wooClient,
		Ledger:  ledger,
		Settler: settler,
		Events:  payment.NewRedisEventGuard(database.Redis),
	}
	ordersH := &orders.Handler{Cfg: cfg, Settler: settler}
	loyaltyH := &loyalty.Handler{
		Cfg:     cfg,
		Points:  loyalty.NewScyllaPoints(database.Scylla),
		Coupons: wooClient,
	}
	adminH := &admin.Handler{Cfg: cfg, Ledger: ledger, Settler: settler}

	r := gin.Default()
	routes.Register(r, cfg, database.Redis, paymentH, ordersH, loyaltyH, adminH)

	log.Println("🚀 Serveur checkout lancé sur le port", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Serveur arrêté: %v", err)
	}
}

// notifyCustomer : rendu facture + e-mail de confirmation, en arrière-plan.
// Les échecs sont loggés, jamais remontés au flux de commande.
func notifyCustomer(cfg *config.Config, order *woocommerce.Order, in reconcile.SettleInput) {
	if cfg.SMTPHost == "" {
		return
	}

	html := utils.BuildOrderConfirmationHTML(order, in.Customer, in.Totals)

	pdf, err := utils.RenderInvoicePDF(cfg.SiteURL, order.Number)
	if err != nil {
		log.Printf("❌ Génération facture PDF échouée pour #%s: %v", order.Number, err)
		pdf = nil
	}

	subject := "Bevestiging van je bestelling #" + order.Number
	if err := utils.SendOrderConfirmation(cfg, in.Customer.Email, subject, html, pdf); err != nil {
		log.Printf("❌ E-mail de confirmation échoué pour %s: %v", in.Customer.Email, err)
	} else {
		log.Println("📧 E-mail de confirmation envoyé à", in.Customer.Email)
	}
}
