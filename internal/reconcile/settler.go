package reconcile

import (
	"context"
	"fmt"
	"log"

	"wasgeurtje_backend/internal/models"
	"wasgeurtje_backend/internal/pricing"
	"wasgeurtje_backend/internal/woocommerce"
)

// OrderSystem : ce que le règlement exige du système de commandes
type OrderSystem interface {
	FindOrderByPaymentIntent(ctx context.Context, paymentIntentID string) (*woocommerce.Order, error)
	CreateOrder(ctx context.Context, payload woocommerce.OrderPayload, idempotencyKey string) (*woocommerce.Order, error)
}

// SettleInput : tout ce qu'il faut pour matérialiser une commande,
// quel que soit le chemin d'arrivée (webhook, appel direct, relance admin)
type SettleInput struct {
	PaymentIntentID string
	Items           []models.CartLineItem
	Customer        models.Customer
	Discount        *models.AppliedDiscount
	Totals          models.OrderTotals
	OrderReference  string
	Source          string
}

type SettleOutcome struct {
	Order     *woocommerce.Order
	Duplicate bool
}

// Settler fait converger les chemins concurrents vers au plus une commande
// par PaymentIntent. Le verrou réel est le CAS settled → order_created du
// registre ; la recherche WooCommerce ne sert que de filet consultatif.
type Settler struct {
	Orders OrderSystem
	Ledger Ledger
	Remap  map[string]string
	// Notify est déclenché en arrière-plan après création (e-mail de
	// confirmation). Peut être nil.
	Notify func(order *woocommerce.Order, in SettleInput)
}

// Settle exécute règlement → commande. Appelable autant de fois qu'on veut
// pour le même intent : une seule commande en sortira.
func (s *Settler) Settle(ctx context.Context, in SettleInput) (SettleOutcome, error) {
	rec := Record{
		PaymentIntentID: in.PaymentIntentID,
		OrderReference:  in.OrderReference,
		State:           StateSettled,
		AmountCents:     pricing.MinorUnits(in.Totals.FinalTotal),
		Email:           in.Customer.Email,
	}
	if err := s.Ledger.MarkSettled(ctx, rec); err != nil {
		return SettleOutcome{}, fmt.Errorf("registre injoignable: %w", err)
	}

	// Filet consultatif : commande déjà visible côté WooCommerce ?
	if existing, err := s.Orders.FindOrderByPaymentIntent(ctx, in.PaymentIntentID); err != nil {
		log.Printf("⚠️  Recherche doublon échouée pour %s: %v", in.PaymentIntentID, err)
	} else if existing != nil {
		log.Printf("🔁 Commande déjà présente pour %s: #%s", in.PaymentIntentID, existing.Number)
		if claimed, _, err := s.Ledger.Claim(ctx, in.PaymentIntentID); err == nil && claimed {
			if err := s.Ledger.MarkOrderCreated(ctx, in.PaymentIntentID, existing.ID); err != nil {
				log.Printf("⚠️  Registre non synchronisé pour %s: %v", in.PaymentIntentID, err)
			}
		}
		return SettleOutcome{Order: existing, Duplicate: true}, nil
	}

	// Le verrou : une seule livraison franchit settled → order_created
	claimed, prev, err := s.Ledger.Claim(ctx, in.PaymentIntentID)
	if err != nil {
		return SettleOutcome{}, fmt.Errorf("registre injoignable: %w", err)
	}
	if !claimed {
		if prev == StateOrderCreated {
			existing, _ := s.Ledger.Get(ctx, in.PaymentIntentID)
			outcome := SettleOutcome{Duplicate: true}
			if existing != nil && existing.OrderID != 0 {
				outcome.Order = &woocommerce.Order{ID: existing.OrderID}
			}
			return outcome, nil
		}
		return SettleOutcome{}, fmt.Errorf("onverwachte checkout-status %q voor %s", prev, in.PaymentIntentID)
	}

	payload, err := woocommerce.BuildOrder(
		in.PaymentIntentID, in.Items, s.Remap, in.Customer, in.Discount, in.Totals, in.Source,
	)
	if err != nil {
		s.release(ctx, in.PaymentIntentID, err)
		return SettleOutcome{}, err
	}

	order, err := s.Orders.CreateOrder(ctx, payload, woocommerce.IdempotencyKey(in.PaymentIntentID))
	if err != nil {
		s.release(ctx, in.PaymentIntentID, err)
		return SettleOutcome{}, err
	}

	if err := s.Ledger.MarkOrderCreated(ctx, in.PaymentIntentID, order.ID); err != nil {
		log.Printf("⚠️  Commande #%s créée mais registre non mis à jour: %v", order.Number, err)
	}

	if s.Notify != nil {
		go s.Notify(order, in)
	}

	return SettleOutcome{Order: order}, nil
}

// release rend la ligne reprenable après un échec de création
func (s *Settler) release(ctx context.Context, paymentIntentID string, cause error) {
	if err := s.Ledger.MarkFailed(ctx, paymentIntentID, cause.Error()); err != nil {
		log.Printf("⚠️  Impossible de marquer %s en échec: %v", paymentIntentID, err)
	}
}
