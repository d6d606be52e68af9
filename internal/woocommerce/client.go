package woocommerce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"wasgeurtje_backend/internal/config"
)

// MetaKeyPaymentIntent : clé de métadonnée qui lie une commande WooCommerce
// au PaymentIntent Stripe dont elle est issue
const MetaKeyPaymentIntent = "_stripe_payment_intent_id"

const priceCacheTTL = 5 * time.Minute

// Client parle à l'API REST WooCommerce (wp-json/wc/v3) en basic auth.
// Le cache Redis est optionnel (nil = pas de cache).
type Client struct {
	baseURL string
	key     string
	secret  string
	http    *http.Client
	cache   *redis.Client
}

func NewClient(cfg *config.Config, cache *redis.Client) *Client {
	return &Client{
		baseURL: cfg.WooBaseURL,
		key:     cfg.WooConsumerKey,
		secret:  cfg.WooConsumerSecret,
		http:    &http.Client{Timeout: cfg.HTTPTimeout},
		cache:   cache,
	}
}

func (c *Client) endpoint(path string) string {
	return c.baseURL + "/wp-json/wc/v3" + path
}

func (c *Client) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reader)
	if err != nil {
		return err
	}
	req.SetBasicAuth(c.key, c.secret)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("woocommerce: appel %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &UpstreamError{Status: resp.StatusCode, Body: string(raw)}
	}

	if out != nil {
		return json.Unmarshal(raw, out)
	}
	return nil
}

// ProductPrice récupère le prix unitaire d'un produit, avec cache Redis.
// Une erreur ici doit faire échouer toute la requête appelante : un montant
// ne se calcule jamais sur un panier partiel.
func (c *Client) ProductPrice(ctx context.Context, productID string) (float64, error) {
	cacheKey := "wc:price:" + productID

	if c.cache != nil {
		if cached, err := c.cache.Get(ctx, cacheKey).Float64(); err == nil {
			return cached, nil
		}
	}

	var product struct {
		ID    int64  `json:"id"`
		Price string `json:"price"`
	}
	if err := c.do(ctx, http.MethodGet, "/products/"+url.PathEscape(productID), nil, nil, &product); err != nil {
		return 0, err
	}

	price, err := strconv.ParseFloat(product.Price, 64)
	if err != nil {
		return 0, fmt.Errorf("woocommerce: prix illisible pour le produit %s: %q", productID, product.Price)
	}

	if c.cache != nil {
		if err := c.cache.Set(ctx, cacheKey, price, priceCacheTTL).Err(); err != nil {
			log.Printf("⚠️  Cache prix Redis indisponible: %v", err)
		}
	}

	return price, nil
}

// FindOrderByPaymentIntent cherche une commande déjà liée à ce PaymentIntent.
// Contrôle consultatif : aucune garantie read-your-writes côté WooCommerce,
// la garantie réelle vient du registre local.
func (c *Client) FindOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*Order, error) {
	q := url.Values{}
	q.Set("meta_key", MetaKeyPaymentIntent)
	q.Set("meta_value", paymentIntentID)
	q.Set("per_page", "1")

	var orders []Order
	if err := c.do(ctx, http.MethodGet, "/orders?"+q.Encode(), nil, nil, &orders); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return nil, nil
	}
	return &orders[0], nil
}

// CreateOrder soumet la commande en un seul appel, avec une clé
// d'idempotence dérivée du PaymentIntent
func (c *Client) CreateOrder(ctx context.Context, payload OrderPayload, idempotencyKey string) (*Order, error) {
	headers := map[string]string{"Idempotency-Key": idempotencyKey}

	var order Order
	if err := c.do(ctx, http.MethodPost, "/orders", payload, headers, &order); err != nil {
		return nil, err
	}

	log.Printf("✅ Commande WooCommerce créée: #%s (id %d)", order.Number, order.ID)
	return &order, nil
}

// CreateCoupon crée un code promo à usage unique (flux fidélité)
func (c *Client) CreateCoupon(ctx context.Context, payload CouponPayload) (*Coupon, error) {
	var coupon Coupon
	if err := c.do(ctx, http.MethodPost, "/coupons", payload, nil, &coupon); err != nil {
		return nil, err
	}
	return &coupon, nil
}
