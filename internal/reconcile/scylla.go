package reconcile

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
)

// ScyllaLedger : implémentation du registre sur ScyllaDB. Les transitions
// sensibles passent par des lightweight transactions (IF ...) — c'est la
// contrainte d'unicité qui rend le check-then-create réellement atomique.
type ScyllaLedger struct {
	session *gocql.Session
}

func NewScyllaLedger(session *gocql.Session) *ScyllaLedger {
	return &ScyllaLedger{session: session}
}

func (l *ScyllaLedger) Init(ctx context.Context, rec Record) error {
	now := time.Now()
	prev := map[string]interface{}{}
	_, err := l.session.Query(
		`INSERT INTO checkout_intents
		 (payment_intent_id, order_reference, state, amount_cents, email, order_id, last_error, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, 0, '', ?, ?) IF NOT EXISTS`,
		rec.PaymentIntentID, rec.OrderReference, string(rec.State),
		rec.AmountCents, rec.Email, now, now,
	).WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return fmt.Errorf("registre: insertion %s: %w", rec.PaymentIntentID, err)
	}
	// Ligne déjà présente : pas une erreur, l'intent a simplement été revu
	return nil
}

func (l *ScyllaLedger) Get(ctx context.Context, paymentIntentID string) (*Record, error) {
	var rec Record
	var state string
	err := l.session.Query(
		`SELECT payment_intent_id, order_reference, state, amount_cents, email, order_id, last_error, created_at, updated_at
		 FROM checkout_intents WHERE payment_intent_id = ?`,
		paymentIntentID,
	).WithContext(ctx).Scan(
		&rec.PaymentIntentID, &rec.OrderReference, &state, &rec.AmountCents,
		&rec.Email, &rec.OrderID, &rec.LastError, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	rec.State = State(state)
	return &rec, nil
}

func (l *ScyllaLedger) MarkUpdated(ctx context.Context, paymentIntentID, orderReference string, amountCents int64) error {
	// Conditionnel : une écriture update-intent retardataire ne doit jamais
	// faire régresser une ligne déjà réglée, sinon le CAS settled →
	// order_created redeviendrait gagnable et une seconde commande
	// pourrait naître. Course perdue = non-appliqué = pas une erreur.
	prev := map[string]interface{}{}
	_, err := l.session.Query(
		`UPDATE checkout_intents SET state = ?, order_reference = ?, amount_cents = ?, updated_at = ?
		 WHERE payment_intent_id = ? IF state IN (?, ?)`,
		string(StateUpdated), orderReference, amountCents, time.Now(), paymentIntentID,
		string(StateInitialized), string(StateUpdated),
	).WithContext(ctx).MapScanCAS(prev)
	return err
}

func (l *ScyllaLedger) MarkSettled(ctx context.Context, rec Record) error {
	// Conditionnel : ne jamais écraser order_created, sinon une livraison
	// retardataire rouvrirait la fenêtre de double création
	prev := map[string]interface{}{}
	applied, err := l.session.Query(
		`UPDATE checkout_intents SET state = ?, amount_cents = ?, email = ?, updated_at = ?
		 WHERE payment_intent_id = ? IF state != ?`,
		string(StateSettled), rec.AmountCents, rec.Email, time.Now(),
		rec.PaymentIntentID, string(StateOrderCreated),
	).WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return err
	}
	if !applied {
		if _, exists := prev["state"]; !exists {
			// Ligne inconnue (intent créé hors de ce service) : on l'insère
			rec.State = StateSettled
			return l.Init(ctx, rec)
		}
		// state == order_created : on laisse tel quel
	}
	return nil
}

func (l *ScyllaLedger) Claim(ctx context.Context, paymentIntentID string) (bool, State, error) {
	prev := map[string]interface{}{}
	applied, err := l.session.Query(
		`UPDATE checkout_intents SET state = ?, updated_at = ?
		 WHERE payment_intent_id = ? IF state = ?`,
		string(StateOrderCreated), time.Now(), paymentIntentID, string(StateSettled),
	).WithContext(ctx).MapScanCAS(prev)
	if err != nil {
		return false, "", err
	}
	if applied {
		return true, StateSettled, nil
	}
	state, _ := prev["state"].(string)
	return false, State(state), nil
}

func (l *ScyllaLedger) MarkOrderCreated(ctx context.Context, paymentIntentID string, orderID int64) error {
	return l.session.Query(
		`UPDATE checkout_intents SET order_id = ?, updated_at = ? WHERE payment_intent_id = ?`,
		orderID, time.Now(), paymentIntentID,
	).WithContext(ctx).Exec()
}

func (l *ScyllaLedger) MarkFailed(ctx context.Context, paymentIntentID, reason string) error {
	// Relâche une ligne claimée dont la création a échoué, pour relance
	prev := map[string]interface{}{}
	_, err := l.session.Query(
		`UPDATE checkout_intents SET state = ?, last_error = ?, updated_at = ?
		 WHERE payment_intent_id = ? IF state = ?`,
		string(StateFailed), reason, time.Now(), paymentIntentID, string(StateOrderCreated),
	).WithContext(ctx).MapScanCAS(prev)
	return err
}

func (l *ScyllaLedger) ListStuck(ctx context.Context) ([]Record, error) {
	iter := l.session.Query(
		`SELECT payment_intent_id, order_reference, state, amount_cents, email, order_id, last_error, created_at, updated_at
		 FROM checkout_intents`,
	).WithContext(ctx).Iter()

	var stuck []Record
	var rec Record
	var state string
	for iter.Scan(&rec.PaymentIntentID, &rec.OrderReference, &state, &rec.AmountCents,
		&rec.Email, &rec.OrderID, &rec.LastError, &rec.CreatedAt, &rec.UpdatedAt) {
		rec.State = State(state)
		if rec.State == StateSettled || rec.State == StateFailed {
			stuck = append(stuck, rec)
		}
	}
	if err := iter.Close(); err != nil {
		return nil, err
	}
	return stuck, nil
}
