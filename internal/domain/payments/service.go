package payments

import (
	"context"
	"errors"
	"fmt"

	"github.com/inscrevo/server/internal/audit"
	"github.com/inscrevo/server/internal/domain/ids"
	"github.com/inscrevo/server/internal/domain/registrations"
	"github.com/inscrevo/server/internal/metrics"
	"github.com/rs/zerolog"
)

// Currency is the only settlement currency the gateway contract supports.
const Currency = "BRL"

// Service orchestrates payment creation, confirmation and polling. Status
// writes go through the ledger; this service never mutates an existing
// payment row directly.
type Service struct {
	store       Store
	gateway     Gateway
	ledger      *Ledger
	auditLogger *audit.Logger
	logger      zerolog.Logger
}

func NewService(store Store, gateway Gateway, ledger *Ledger, auditLogger *audit.Logger, logger zerolog.Logger) *Service {
	return &Service{
		store:       store,
		gateway:     gateway,
		ledger:      ledger,
		auditLogger: auditLogger,
		logger:      logger.With().Str("component", "payments").Logger(),
	}
}

// CreateParams describes a new charge attempt for a registration.
type CreateParams struct {
	RegistrationID string
	Method         Method
	CardToken      string
	Installments   int
}

// Create charges the registration's final amount at the gateway and records
// the attempt as a PENDING payment. The registration's owner or its inviter
// may create; a registration never acquires a second payment. If the
// gateway call fails, no payment row is written.
func (s *Service) Create(ctx context.Context, actingUserID string, params CreateParams) (*Payment, error) {
	reg, err := s.store.GetRegistration(ctx, params.RegistrationID)
	if err != nil {
		return nil, err
	}
	if !canPayFor(reg, actingUserID) {
		return nil, ErrAccessDenied
	}
	if reg.Status == registrations.StatusCancelled {
		return nil, ErrRegistrationCancelled
	}

	existing, err := s.store.GetPaymentByRegistrationID(ctx, reg.ID)
	if err != nil && !errors.Is(err, ErrPaymentNotFound) {
		return nil, fmt.Errorf("check existing payment: %w", err)
	}
	if existing != nil {
		return nil, ErrPaymentExists
	}

	result, err := s.gateway.CreateCharge(ctx, ChargeRequest{
		OrderRef:     reg.ID,
		Method:       params.Method,
		AmountCents:  reg.FinalAmountCents,
		Currency:     Currency,
		Payer:        Payer{Name: reg.PayerName, Email: reg.PayerEmail},
		CardToken:    params.CardToken,
		Installments: params.Installments,
	})
	if err != nil {
		return nil, err
	}
	if !result.Success {
		return nil, NewGatewayError("create charge", result.Error)
	}

	payment := &Payment{
		ID:             ids.MustNewULID(),
		RegistrationID: reg.ID,
		UserID:         reg.UserID,
		Method:         params.Method,
		AmountCents:    reg.FinalAmountCents,
		Status:         StatusPending,
		TransactionID:  result.ChargeID,
		Metadata: Metadata{
			Pix:    result.Pix,
			Boleto: result.Boleto,
			Card:   result.Card,
		},
	}

	if err := s.store.InsertPayment(ctx, payment); err != nil {
		// A concurrent create won the unique constraint race. The charge we
		// just created is left uncaptured at the gateway and expires there.
		if errors.Is(err, ErrPaymentExists) {
			s.logger.Warn().
				Str("registration_id", reg.ID).
				Str("charge_id", result.ChargeID).
				Msg("concurrent payment creation lost unique race, charge abandoned")
			return nil, ErrPaymentExists
		}
		return nil, fmt.Errorf("insert payment: %w", err)
	}

	s.logger.Info().
		Str("payment_id", payment.ID).
		Str("registration_id", reg.ID).
		Str("method", string(params.Method)).
		Int64("amount_cents", payment.AmountCents).
		Str("charge_id", payment.TransactionID).
		Msg("payment created")
	s.auditLogger.LogSuccess("payment.created", actingUserID, "payment", payment.ID, map[string]string{
		"registration_id": reg.ID,
		"method":          string(params.Method),
		"charge_id":       payment.TransactionID,
	})
	metrics.PaymentsCreatedTotal.WithLabelValues(string(params.Method)).Inc()

	return payment, nil
}

// Confirm captures a pre-authorized charge and marks the payment PAID.
// Only the payer may confirm; a PAID payment rejects a second confirm so a
// charge is never captured twice.
func (s *Service) Confirm(ctx context.Context, actingUserID, paymentID string) (*Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != actingUserID {
		return nil, ErrAccessDenied
	}
	if payment.Status == StatusPaid {
		return nil, ErrAlreadyPaid
	}
	if payment.TransactionID == "" {
		return nil, ErrMissingTransactionID
	}

	result := s.gateway.CaptureCharge(ctx, payment.TransactionID, payment.AmountCents)
	if !result.Success {
		return nil, NewGatewayError("capture charge", result.Error)
	}

	updated, _, err := s.ledger.ApplyStatus(ctx, payment.ID, StatusPaid, Evidence{
		ProviderStatus: result.ProviderStatus,
		Source:         "confirm",
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// Process polls the gateway for the charge's current status and reconciles
// the payment through the ledger. This is the path for clients that cannot
// rely on webhooks. transactionIDHint is used only when the payment has no
// stored charge id.
func (s *Service) Process(ctx context.Context, actingUserID, paymentID, transactionIDHint string) (*Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != actingUserID {
		return nil, ErrAccessDenied
	}
	if payment.Status == StatusPaid {
		return nil, ErrAlreadyPaid
	}

	chargeID := payment.TransactionID
	if chargeID == "" {
		chargeID = transactionIDHint
	}
	if chargeID == "" {
		return nil, ErrMissingTransactionID
	}

	state, err := s.gateway.GetCharge(ctx, chargeID)
	if err != nil {
		return nil, NewGatewayError("query charge", err.Error())
	}
	if state == nil {
		return nil, ErrChargeNotFound
	}

	updated, _, err := s.ledger.ApplyStatus(ctx, payment.ID, state.Status, Evidence{
		ProviderStatus: state.ProviderStatus,
		Source:         "poll",
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// FindOne returns the payment scoped to its payer. While the payment is
// still PENDING it overlays the gateway's live status for display, without
// persisting anything; the authoritative write paths are confirm, process
// and the webhook reconciler.
func (s *Service) FindOne(ctx context.Context, actingUserID, paymentID string) (*Payment, error) {
	payment, err := s.store.GetPayment(ctx, paymentID)
	if err != nil {
		return nil, err
	}
	if payment.UserID != actingUserID {
		return nil, ErrAccessDenied
	}

	if payment.Status == StatusPending && payment.TransactionID != "" {
		state, err := s.gateway.GetCharge(ctx, payment.TransactionID)
		if err != nil {
			s.logger.Warn().Err(err).Str("payment_id", payment.ID).Msg("live status refresh failed")
		} else if state != nil && CanTransition(payment.Status, state.Status) {
			payment.Status = state.Status
		}
	}

	return payment, nil
}

// ListForUser returns the user's own payments.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]Payment, error) {
	return s.store.ListPaymentsByUser(ctx, userID)
}

// Summary is the money view of one registration: the breakdown plus its
// payment attempt, if any.
type Summary struct {
	Registration *registrations.Registration
	Payment      *Payment
}

// RegistrationSummary projects the registration's monetary fields and its
// payment. No side effects.
func (s *Service) RegistrationSummary(ctx context.Context, actingUserID, registrationID string) (*Summary, error) {
	reg, err := s.store.GetRegistration(ctx, registrationID)
	if err != nil {
		return nil, err
	}
	if !canPayFor(reg, actingUserID) {
		return nil, ErrAccessDenied
	}

	payment, err := s.store.GetPaymentByRegistrationID(ctx, reg.ID)
	if err != nil && !errors.Is(err, ErrPaymentNotFound) {
		return nil, err
	}

	return &Summary{Registration: reg, Payment: payment}, nil
}

// canPayFor allows the registration's participant and its inviter.
func canPayFor(reg *registrations.Registration, userID string) bool {
	if reg.UserID == userID {
		return true
	}
	return reg.InvitedByID != nil && *reg.InvitedByID == userID
}
