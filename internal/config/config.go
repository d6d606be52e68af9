package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config regroupe toute la configuration du service.
// Objet immuable construit une seule fois au démarrage — plus de constantes
// globales modifiables pour les seuils de prix ou la table de remap.
type Config struct {
	Port    string
	SiteURL string

	// Stripe
	StripeSecretKey     string
	StripeWebhookSecret string
	// Autorise l'en-tête X-Webhook-Simulation (uniquement hors production,
	// positionné au déploiement — jamais décidé par la requête elle-même)
	AllowSimulatedWebhooks bool

	// WooCommerce (système de commandes)
	WooBaseURL        string
	WooConsumerKey    string
	WooConsumerSecret string

	// Table de remap : ids "marketing" → ids catalogue WooCommerce.
	// Les ids absents de la table passent tels quels.
	ProductRemap map[string]string

	// Fidélité
	LoyaltyMinRedeemPoints int
	LoyaltyPointsPerEuro   int

	// SMTP
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	MailFrom     string

	// Admin
	JWTSecret string

	// Debug : détails d'erreur (type/message upstream) dans les réponses.
	// Jamais en production.
	Debug bool

	HTTPTimeout time.Duration
}

// Load charge le .env puis construit la configuration depuis l'environnement
func Load() *Config {
	if err := godotenv.Load(".env"); err != nil {
		log.Println("⚠️  Aucun fichier .env trouvé — on continue avec les variables d'environnement du système")
	} else {
		log.Println("✅ Fichier .env chargé avec succès")
	}

	cfg := &Config{
		Port:                   envOr("PORT", "8080"),
		SiteURL:                envOr("SITE_URL", "http://localhost:3000"),
		StripeSecretKey:        os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret:    os.Getenv("STRIPE_WEBHOOK_SECRET"),
		AllowSimulatedWebhooks: os.Getenv("WEBHOOK_ALLOW_SIMULATION") == "true",
		WooBaseURL:             os.Getenv("WOOCOMMERCE_URL"),
		WooConsumerKey:         os.Getenv("WOOCOMMERCE_KEY"),
		WooConsumerSecret:      os.Getenv("WOOCOMMERCE_SECRET"),
		ProductRemap:           defaultProductRemap(),
		LoyaltyMinRedeemPoints: envIntOr("LOYALTY_MIN_REDEEM_POINTS", 60),
		LoyaltyPointsPerEuro:   envIntOr("LOYALTY_POINTS_PER_EURO", 20),
		SMTPHost:               os.Getenv("SMTP_HOST"),
		SMTPPort:               envIntOr("SMTP_PORT", 587),
		SMTPUsername:           os.Getenv("SMTP_USERNAME"),
		SMTPPassword:           os.Getenv("SMTP_PASSWORD"),
		MailFrom:               envOr("MAIL_FROM", "noreply@wasgeurtje.nl"),
		JWTSecret:              os.Getenv("JWT_SECRET"),
		Debug:                  os.Getenv("APP_ENV") != "production",
		HTTPTimeout:            15 * time.Second,
	}

	if cfg.AllowSimulatedWebhooks {
		log.Println("⚠️  Mode simulation webhook ACTIVÉ — ne jamais déployer ainsi en production")
	}

	return cfg
}

// defaultProductRemap : les ids marketing historiques du front.
// Tout id inconnu passe tel quel (c'est déjà un id catalogue).
func defaultProductRemap() map[string]string {
	return map[string]string{
		"full-moon":       "1410",
		"blossom-drip":    "1411",
		"morning-vapor":   "1412",
		"sundance":        "1413",
		"proefpakket":     "1893",
		"cadeau-set-2024": "2047",
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		log.Printf("⚠️  %s invalide (%q), valeur par défaut %d utilisée", key, v, fallback)
	}
	return fallback
}
