package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var _ registrations.Repository = (*RegistrationRepository)(nil)

type RegistrationRepository struct {
	pool *pgxpool.Pool
	tx   pgx.Tx
}

func NewRegistrationRepository(pool *pgxpool.Pool) *RegistrationRepository {
	return &RegistrationRepository{pool: pool}
}

func (r *RegistrationRepository) queryer() queryer {
	if r.tx != nil {
		return r.tx
	}
	return r.pool
}

const registrationColumns = `id, event_id, modality_id, user_id, invited_by_id, status,
       base_amount_cents, service_fee_cents, discount_cents, final_amount_cents,
       payer_name, payer_email, created_at, updated_at`

func scanRegistration(row pgx.Row) (*registrations.Registration, error) {
	var reg registrations.Registration
	err := row.Scan(
		&reg.ID, &reg.EventID, &reg.ModalityID, &reg.UserID, &reg.InvitedByID, &reg.Status,
		&reg.BaseAmountCents, &reg.ServiceFeeCents, &reg.DiscountCents, &reg.FinalAmountCents,
		&reg.PayerName, &reg.PayerEmail, &reg.CreatedAt, &reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, registrations.ErrRegistrationNotFound
		}
		return nil, fmt.Errorf("scan registration: %w", err)
	}
	return &reg, nil
}

func (r *RegistrationRepository) Insert(ctx context.Context, reg *registrations.Registration) error {
	err := r.queryer().QueryRow(ctx, `
INSERT INTO registrations (id, event_id, modality_id, user_id, invited_by_id, status,
       base_amount_cents, service_fee_cents, discount_cents, final_amount_cents,
       payer_name, payer_email)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
RETURNING created_at, updated_at`,
		reg.ID, reg.EventID, reg.ModalityID, reg.UserID, reg.InvitedByID, reg.Status,
		reg.BaseAmountCents, reg.ServiceFeeCents, reg.DiscountCents, reg.FinalAmountCents,
		reg.PayerName, reg.PayerEmail,
	).Scan(&reg.CreatedAt, &reg.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (r *RegistrationRepository) GetByID(ctx context.Context, id string) (*registrations.Registration, error) {
	return scanRegistration(r.queryer().QueryRow(ctx, `
SELECT `+registrationColumns+` FROM registrations WHERE id = $1`, id))
}

func (r *RegistrationRepository) ListByUser(ctx context.Context, userID string) ([]registrations.Registration, error) {
	rows, err := r.queryer().Query(ctx, `
SELECT `+registrationColumns+`
  FROM registrations
 WHERE user_id = $1
 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list registrations: %w", err)
	}
	defer rows.Close()

	var out []registrations.Registration
	for rows.Next() {
		var reg registrations.Registration
		err := rows.Scan(
			&reg.ID, &reg.EventID, &reg.ModalityID, &reg.UserID, &reg.InvitedByID, &reg.Status,
			&reg.BaseAmountCents, &reg.ServiceFeeCents, &reg.DiscountCents, &reg.FinalAmountCents,
			&reg.PayerName, &reg.PayerEmail, &reg.CreatedAt, &reg.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		out = append(out, reg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate registrations: %w", err)
	}
	return out, nil
}

func (r *RegistrationRepository) UpdateStatus(ctx context.Context, id string, status registrations.Status) error {
	tag, err := r.queryer().Exec(ctx, `
UPDATE registrations SET status = $2, updated_at = now() WHERE id = $1`, id, status)
	if err != nil {
		return fmt.Errorf("update registration status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return registrations.ErrRegistrationNotFound
	}
	return nil
}

func (r *RegistrationRepository) HasPaidPayment(ctx context.Context, registrationID string) (bool, error) {
	var exists bool
	err := r.queryer().QueryRow(ctx, `
SELECT EXISTS (
  SELECT 1 FROM payments WHERE registration_id = $1 AND status = $2
)`, registrationID, payments.StatusPaid).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check paid payment: %w", err)
	}
	return exists, nil
}
