package loyalty

import (
	"context"
	"fmt"

	"github.com/gocql/gocql"
)

// PointsStore : solde de points fidélité par adresse e-mail
type PointsStore interface {
	Balance(ctx context.Context, email string) (int, error)
	// Deduct retire des points si le solde le permet. ok=false si le solde
	// est insuffisant ou a changé entre-temps.
	Deduct(ctx context.Context, email string, points int) (ok bool, err error)
	// Refund restitue des points (rollback après échec coupon)
	Refund(ctx context.Context, email string, points int) error
}

// ScyllaPoints stocke les soldes dans le keyspace checkout. La déduction
// est un compare-and-swap optimiste sur le solde lu.
type ScyllaPoints struct {
	session *gocql.Session
}

func NewScyllaPoints(session *gocql.Session) *ScyllaPoints {
	return &ScyllaPoints{session: session}
}

func (s *ScyllaPoints) Balance(ctx context.Context, email string) (int, error) {
	var points int
	err := s.session.Query(
		`SELECT points FROM loyalty_points WHERE email = ?`, email,
	).WithContext(ctx).Scan(&points)
	if err == gocql.ErrNotFound {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return points, nil
}

func (s *ScyllaPoints) Deduct(ctx context.Context, email string, points int) (bool, error) {
	// Trois tentatives : un changement concurrent du solde fait simplement
	// relire et réessayer
	for attempt := 0; attempt < 3; attempt++ {
		balance, err := s.Balance(ctx, email)
		if err != nil {
			return false, err
		}
		if balance < points {
			return false, nil
		}

		prev := map[string]interface{}{}
		applied, err := s.session.Query(
			`UPDATE loyalty_points SET points = ? WHERE email = ? IF points = ?`,
			balance-points, email, balance,
		).WithContext(ctx).MapScanCAS(prev)
		if err != nil {
			return false, err
		}
		if applied {
			return true, nil
		}
	}
	return false, fmt.Errorf("saldo van %s blijft wijzigen", email)
}

func (s *ScyllaPoints) Refund(ctx context.Context, email string, points int) error {
	balance, err := s.Balance(ctx, email)
	if err != nil {
		return err
	}
	return s.session.Query(
		`UPDATE loyalty_points SET points = ? WHERE email = ?`,
		balance+points, email,
	).WithContext(ctx).Exec()
}
