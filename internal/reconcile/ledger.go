package reconcile

import (
	"context"
	"time"
)

// État d'un checkout, du PaymentIntent jusqu'à la commande WooCommerce.
// Le registre local est la seule source de vérité pour "au plus une
// commande par PaymentIntent" — les métadonnées Stripe ne portent plus que
// les données de reconstruction.
type State string

const (
	StateInitialized  State = "initialized"
	StateUpdated      State = "updated"
	StateSettled      State = "settled"
	StateOrderCreated State = "order_created"
	StateFailed       State = "failed"
)

// Record : une ligne du registre, clé = id du PaymentIntent
type Record struct {
	PaymentIntentID string
	OrderReference  string
	State           State
	AmountCents     int64
	Email           string
	OrderID         int64
	LastError       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Ledger : le registre durable des checkouts. La transition
// settled → order_created (Claim) est une opération compare-and-swap : sur
// N livraisons concurrentes du même règlement, exactement une l'emporte.
type Ledger interface {
	// Init insère la ligne si absente (création d'intent)
	Init(ctx context.Context, rec Record) error
	// Get retourne la ligne, nil si inconnue
	Get(ctx context.Context, paymentIntentID string) (*Record, error)
	// MarkUpdated rafraîchit montant/référence après update-intent.
	// N'agit que sur initialized/updated : une écriture retardataire ne
	// fait jamais régresser une ligne settled ou order_created.
	MarkUpdated(ctx context.Context, paymentIntentID, orderReference string, amountCents int64) error
	// MarkSettled passe la ligne en settled, sauf si la commande est déjà
	// créée (upsert si la ligne n'existe pas encore)
	MarkSettled(ctx context.Context, rec Record) error
	// Claim tente settled → order_created. claimed=false avec
	// prev=order_created signifie qu'un autre chemin a déjà gagné.
	Claim(ctx context.Context, paymentIntentID string) (claimed bool, prev State, err error)
	// MarkOrderCreated enregistre l'id de la commande gagnée par Claim
	MarkOrderCreated(ctx context.Context, paymentIntentID string, orderID int64) error
	// MarkFailed relâche une ligne claimée dont la création a échoué,
	// pour qu'une relance (admin ou webhook) puisse la reprendre
	MarkFailed(ctx context.Context, paymentIntentID, reason string) error
	// ListStuck retourne les lignes settled/failed (réconciliation admin)
	ListStuck(ctx context.Context) ([]Record, error)
}
