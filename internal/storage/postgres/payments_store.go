package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ payments.Store = (*PaymentStore)(nil)

// PaymentStore backs the payment ledger and orchestrator. It also exposes
// the registration reads/writes the ledger needs so a PAID transition and
// the registration confirm commit in one transaction.
type PaymentStore struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewPaymentStore(pool *pgxpool.Pool) *PaymentStore {
	return &PaymentStore{pool: pool}
}

func (s *PaymentStore) queryer() queryer {
	if s.tx != nil {
		return s.tx
	}
	return s.pool
}

const paymentColumns = `id, registration_id, user_id, method, amount_cents, status,
       transaction_id, metadata, paid_at, created_at, updated_at`

func scanPayment(row pgx.Row) (*payments.Payment, error) {
	var p payments.Payment
	err := row.Scan(
		&p.ID, &p.RegistrationID, &p.UserID, &p.Method, &p.AmountCents, &p.Status,
		&p.TransactionID, &p.Metadata, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, payments.ErrPaymentNotFound
		}
		return nil, fmt.Errorf("scan payment: %w", err)
	}
	return &p, nil
}

func (s *PaymentStore) InsertPayment(ctx context.Context, p *payments.Payment) error {
	err := s.queryer().QueryRow(ctx, `
INSERT INTO payments (id, registration_id, user_id, method, amount_cents, status, transaction_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING created_at, updated_at`,
		p.ID, p.RegistrationID, p.UserID, p.Method, p.AmountCents, p.Status, p.TransactionID, p.Metadata,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return payments.ErrPaymentExists
		}
		return fmt.Errorf("insert payment: %w", err)
	}
	return nil
}

func (s *PaymentStore) GetPayment(ctx context.Context, id string) (*payments.Payment, error) {
	row := s.queryer().QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1`, id)
	return scanPayment(row)
}

// GetPaymentForUpdate locks the payment row for the rest of the enclosing
// transaction. Concurrent status writers queue here.
func (s *PaymentStore) GetPaymentForUpdate(ctx context.Context, id string) (*payments.Payment, error) {
	row := s.queryer().QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id = $1 FOR UPDATE`, id)
	return scanPayment(row)
}

func (s *PaymentStore) GetPaymentByTransactionID(ctx context.Context, transactionID string) (*payments.Payment, error) {
	row := s.queryer().QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id = $1`, transactionID)
	return scanPayment(row)
}

func (s *PaymentStore) GetPaymentByRegistrationID(ctx context.Context, registrationID string) (*payments.Payment, error) {
	row := s.queryer().QueryRow(ctx, `SELECT `+paymentColumns+` FROM payments WHERE registration_id = $1`, registrationID)
	return scanPayment(row)
}

func (s *PaymentStore) UpdatePayment(ctx context.Context, id string, status payments.Status, metadata payments.Metadata, paidAt *time.Time) error {
	tag, err := s.queryer().Exec(ctx, `
UPDATE payments
   SET status = $2, metadata = $3, paid_at = $4, updated_at = now()
 WHERE id = $1`,
		id, status, metadata, paidAt,
	)
	if err != nil {
		return fmt.Errorf("update payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payments.ErrPaymentNotFound
	}
	return nil
}

func (s *PaymentStore) ListPaymentsByUser(ctx context.Context, userID string) ([]payments.Payment, error) {
	rows, err := s.queryer().Query(ctx, `
SELECT `+paymentColumns+`
  FROM payments
 WHERE user_id = $1
 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

func (s *PaymentStore) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]payments.Payment, error) {
	rows, err := s.queryer().Query(ctx, `
SELECT `+paymentColumns+`
  FROM payments
 WHERE status = $1 AND created_at < $2 AND transaction_id <> ''
 ORDER BY created_at ASC
 LIMIT $3`, payments.StatusPending, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("list stale pending payments: %w", err)
	}
	defer rows.Close()

	return collectPayments(rows)
}

func collectPayments(rows pgx.Rows) ([]payments.Payment, error) {
	var out []payments.Payment
	for rows.Next() {
		var p payments.Payment
		err := rows.Scan(
			&p.ID, &p.RegistrationID, &p.UserID, &p.Method, &p.AmountCents, &p.Status,
			&p.TransactionID, &p.Metadata, &p.PaidAt, &p.CreatedAt, &p.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan payment: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payments: %w", err)
	}
	return out, nil
}

func (s *PaymentStore) GetRegistration(ctx context.Context, id string) (*registrations.Registration, error) {
	reg, err := scanRegistration(s.queryer().QueryRow(ctx, `
SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, registrations.ErrRegistrationNotFound) {
			return nil, payments.ErrRegistrationNotFound
		}
		return nil, err
	}
	return reg, nil
}

func (s *PaymentStore) UpdateRegistrationStatus(ctx context.Context, id string, status registrations.Status) error {
	tag, err := s.queryer().Exec(ctx, `
UPDATE registrations SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return payments.ErrRegistrationNotFound
	}
	return nil
}

// WithTx runs fn inside one transaction. Nested calls reuse the open
// transaction.
func (s *PaymentStore) WithTx(ctx context.Context, fn func(ctx context.Context, store payments.Store) error) error {
	if s.tx != nil {
		return fn(ctx, s)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	wrapped := &PaymentStore{pool: s.pool, tx: tx}
	if err := fn(ctx, wrapped); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}
