package middleware

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

const (
	// Limites du flux fidélité : l'inwisselen de points est la seule
	// opération avec un effet irréversible déclenchable sans paiement
	redeemMaxAttempts = 5
	redeemWindow      = 10 * time.Minute

	// Borne de lecture du body pour en extraire l'e-mail : une requête
	// d'inwisseling légitime fait quelques centaines d'octets
	maxSniffBody = int64(8 << 10)
)

// sniffEmail extrait l'adresse du query ou du body JSON, sans consommer le
// body pour le handler en aval. Lecture bornée à maxSniffBody.
func sniffEmail(c *gin.Context) string {
	if email := c.Query("email"); email != "" {
		return email
	}
	if c.Request.Body == nil {
		return ""
	}
	bodyBytes, _ := io.ReadAll(io.LimitReader(c.Request.Body, maxSniffBody))
	c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

	var input struct {
		Email string `json:"email"`
	}
	if err := json.Unmarshal(bodyBytes, &input); err == nil {
		return input.Email
	}
	return ""
}

// LoyaltyRateLimit borne les inwissel-pogingen par adresse e-mail.
// Sans Redis (rdb nil), la limite est désactivée.
func LoyaltyRateLimit(rdb *redis.Client) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil {
			c.Next()
			return
		}

		email := sniffEmail(c)
		if email == "" {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		key := "redeem_attempts:" + email

		attempts, _ := rdb.Get(ctx, key).Int()
		if attempts >= redeemMaxAttempts {
			ttl := rdb.TTL(ctx, key).Val()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       fmt.Sprintf("Te veel pogingen. Probeer het over %d minuten opnieuw", int(ttl.Minutes())+1),
				"retry_after": int(ttl.Seconds()),
			})
			c.Abort()
			return
		}

		pipe := rdb.Pipeline()
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, redeemWindow)
		_, _ = pipe.Exec(ctx)

		c.Next()
	}
}
