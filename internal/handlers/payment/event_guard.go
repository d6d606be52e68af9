package payment

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// EventGuard déduplique les livraisons webhook par event.id Stripe avant
// tout traitement. Consultatif : il économise le travail (et les logs) sur
// les relivraisons, mais c'est le CAS du registre qui reste la vraie
// garantie au-plus-une-commande.
type EventGuard interface {
	// FirstDelivery renvoie false si cet event.id a déjà été traité
	FirstDelivery(ctx context.Context, eventID string) (bool, error)
}

// TTL aligné sur la fenêtre de retry de Stripe
const eventSeenTTL = 24 * time.Hour

// RedisEventGuard : SETNX sur l'id d'événement. Sans Redis (rdb nil),
// chaque livraison est considérée comme la première.
type RedisEventGuard struct {
	rdb *redis.Client
}

func NewRedisEventGuard(rdb *redis.Client) *RedisEventGuard {
	return &RedisEventGuard{rdb: rdb}
}

func (g *RedisEventGuard) FirstDelivery(ctx context.Context, eventID string) (bool, error) {
	if g.rdb == nil {
		return true, nil
	}
	return g.rdb.SetNX(ctx, "stripe:event:"+eventID, 1, eventSeenTTL).Result()
}
