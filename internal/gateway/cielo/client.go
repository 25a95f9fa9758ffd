package cielo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/inscrevo/server/internal/domain/payments"
	"github.com/inscrevo/server/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

const (
	// SandboxBaseURL is the request endpoint for the provider sandbox.
	SandboxBaseURL = "https://apisandbox.cieloecommerce.cielo.com.br"
	// SandboxQueryBaseURL is the read-only endpoint for the provider sandbox.
	SandboxQueryBaseURL = "https://apiquerysandbox.cieloecommerce.cielo.com.br"
	// ProductionBaseURL is the live request endpoint.
	ProductionBaseURL = "https://api.cieloecommerce.cielo.com.br"
	// ProductionQueryBaseURL is the live read-only endpoint.
	ProductionQueryBaseURL = "https://apiquery.cieloecommerce.cielo.com.br"

	// DefaultTimeout bounds every provider call. A timed-out call is a
	// gateway failure, never a success.
	DefaultTimeout = 30 * time.Second
	// DefaultRateLimit is requests per second against the provider.
	DefaultRateLimit = rate.Limit(10)
	// MaxQueryRetries applies to GetCharge only: it is an idempotent read.
	// Mutations are never retried; a duplicate create would duplicate the
	// charge.
	MaxQueryRetries = 2
	// RetryBaseDelay is the initial backoff delay for query retries.
	RetryBaseDelay = 500 * time.Millisecond

	// PixExpiry is how long a PIX QR code stays payable.
	PixExpiry = time.Hour
	// BoletoExpiry is how long a boleto stays payable.
	BoletoExpiry = 3 * 24 * time.Hour
)

// Client talks to the Cielo e-commerce API and implements payments.Gateway.
// Stateless beyond credentials and the rate limiter.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	queryBaseURL string
	merchantID   string
	merchantKey  string
	limiter      *rate.Limiter
	logger       zerolog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithRateLimit sets a custom rate limit (requests per second).
func WithRateLimit(rps float64) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// NewClient creates a provider client. baseURL serves mutations and
// queryBaseURL serves reads; the provider splits them across hosts.
func NewClient(baseURL, queryBaseURL, merchantID, merchantKey string, logger zerolog.Logger, opts ...Option) *Client {
	client := &Client{
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		baseURL:      baseURL,
		queryBaseURL: queryBaseURL,
		merchantID:   merchantID,
		merchantKey:  merchantKey,
		limiter:      rate.NewLimiter(DefaultRateLimit, 1),
		logger:       logger.With().Str("component", "cielo").Logger(),
	}

	for _, opt := range opts {
		opt(client)
	}

	return client
}

// CreateCharge creates a provider charge for the request. Card charges are
// authorized only (Capture=false); capture is a separate step. Transport
// and provider failures come back as Success=false, never as a raw error.
// Unsupported methods fail before any network call.
func (c *Client) CreateCharge(ctx context.Context, req payments.ChargeRequest) (payments.ChargeResult, error) {
	body, err := c.buildSaleRequest(req)
	if err != nil {
		return payments.ChargeResult{}, err
	}

	var resp saleResponse
	if err := c.do(ctx, http.MethodPost, c.baseURL+"/1/sales/", body, &resp, "create"); err != nil {
		c.logger.Error().Err(err).Str("order_ref", req.OrderRef).Msg("create charge failed")
		return payments.ChargeResult{Success: false, Error: err.Error()}, nil
	}

	p := resp.Payment
	status := NormalizeStatus(p.Status)
	if status == payments.StatusFailed {
		return payments.ChargeResult{
			Success:        false,
			ChargeID:       p.PaymentID,
			ProviderStatus: p.Status,
			Status:         status,
			Error:          providerMessage(p.ReturnMessage),
		}, nil
	}

	result := payments.ChargeResult{
		Success:        true,
		ChargeID:       p.PaymentID,
		ProviderStatus: p.Status,
		Status:         status,
	}
	now := time.Now().UTC()
	switch req.Method {
	case payments.MethodPix:
		result.Pix = &payments.PixArtifacts{
			QRCodeBase64: p.QrCodeBase64Image,
			QRCodeText:   p.QrCodeString,
			ExpiresAt:    now.Add(PixExpiry),
		}
	case payments.MethodBoleto:
		expires := now.Add(BoletoExpiry)
		if t, err := time.Parse("2006-01-02", p.ExpirationDate); err == nil {
			expires = t
		}
		result.Boleto = &payments.BoletoArtifacts{
			URL:           p.URL,
			DigitableLine: p.DigitableLine,
			Barcode:       p.BarCodeNumber,
			ExpiresAt:     expires,
		}
	case payments.MethodCreditCard:
		result.Card = &payments.CardArtifacts{
			AuthenticationURL: p.AuthenticationURL,
			AuthorizationCode: p.AuthorizationCode,
			TID:               p.Tid,
		}
	}

	return result, nil
}

// CaptureCharge finalizes a pre-authorized charge. amountCents > 0 captures
// a partial amount.
func (c *Client) CaptureCharge(ctx context.Context, chargeID string, amountCents int64) payments.ChargeResult {
	url := fmt.Sprintf("%s/1/sales/%s/capture", c.baseURL, chargeID)
	if amountCents > 0 {
		url = fmt.Sprintf("%s?amount=%d", url, amountCents)
	}
	return c.mutate(ctx, url, "capture")
}

// VoidCharge cancels or reverses a charge. amountCents > 0 voids a partial
// amount.
func (c *Client) VoidCharge(ctx context.Context, chargeID string, amountCents int64) payments.ChargeResult {
	url := fmt.Sprintf("%s/1/sales/%s/void", c.baseURL, chargeID)
	if amountCents > 0 {
		url = fmt.Sprintf("%s?amount=%d", url, amountCents)
	}
	return c.mutate(ctx, url, "void")
}

// GetCharge fetches the provider-side state of a charge. Returns (nil, nil)
// when the provider does not know the charge, so callers can tell "unknown"
// from "error". Retries transient failures; the read is idempotent.
func (c *Client) GetCharge(ctx context.Context, chargeID string) (*payments.ChargeState, error) {
	url := fmt.Sprintf("%s/1/sales/%s", c.queryBaseURL, chargeID)

	var lastErr error
	for attempt := 0; attempt <= MaxQueryRetries; attempt++ {
		if attempt > 0 {
			delay := RetryBaseDelay * time.Duration(1<<uint(attempt-1))
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var resp saleResponse
		err := c.do(ctx, http.MethodGet, url, nil, &resp, "query")
		if err == nil {
			return &payments.ChargeState{
				ChargeID:       chargeID,
				ProviderStatus: resp.Payment.Status,
				Status:         NormalizeStatus(resp.Payment.Status),
			}, nil
		}
		if errors.Is(err, errNotFound) {
			return nil, nil
		}
		lastErr = err
	}

	return nil, fmt.Errorf("query charge %s: max retries exceeded: %w", chargeID, lastErr)
}

func (c *Client) buildSaleRequest(req payments.ChargeRequest) (*saleRequest, error) {
	sale := &saleRequest{
		MerchantOrderID: req.OrderRef,
		Customer: customer{
			Name:  req.Payer.Name,
			Email: req.Payer.Email,
		},
	}

	switch req.Method {
	case payments.MethodCreditCard:
		installments := req.Installments
		if installments < 1 {
			installments = 1
		}
		sale.Payment = salePayment{
			Type:         "CreditCard",
			Amount:       req.AmountCents,
			Installments: installments,
			Capture:      false, // authorize only, capture is explicit
			CreditCard: &creditCard{
				CardToken: req.CardToken,
			},
		}
	case payments.MethodPix:
		sale.Payment = salePayment{
			Type:             "Pix",
			Amount:           req.AmountCents,
			QrCodeExpiration: int(PixExpiry.Seconds()),
		}
	case payments.MethodBoleto:
		sale.Payment = salePayment{
			Type:           "Boleto",
			Amount:         req.AmountCents,
			Provider:       "Bradesco2",
			ExpirationDate: time.Now().UTC().Add(BoletoExpiry).Format("2006-01-02"),
		}
	default:
		return nil, fmt.Errorf("%w: %s", payments.ErrUnsupportedMethod, req.Method)
	}

	return sale, nil
}

// mutate runs one capture/void call. Mutations are never retried.
func (c *Client) mutate(ctx context.Context, url, operation string) payments.ChargeResult {
	var resp operationResponse
	if err := c.do(ctx, http.MethodPut, url, nil, &resp, operation); err != nil {
		c.logger.Error().Err(err).Str("operation", operation).Msg("charge mutation failed")
		return payments.ChargeResult{Success: false, Error: err.Error()}
	}

	status := NormalizeStatus(resp.Status)
	if operation == "capture" && status != payments.StatusPaid {
		return payments.ChargeResult{
			Success:        false,
			ProviderStatus: resp.Status,
			Status:         status,
			Error:          providerMessage(resp.ReturnMessage),
		}
	}

	return payments.ChargeResult{
		Success:        true,
		ProviderStatus: resp.Status,
		Status:         status,
	}
}

var errNotFound = errors.New("charge not found")

// do executes one provider call with credentials, rate limiting and
// metrics. out is filled from a 2xx JSON body.
func (c *Client) do(ctx context.Context, method, url string, body any, out any, operation string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limiter: %w", err)
	}

	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("MerchantId", c.merchantID)
	req.Header.Set("MerchantKey", c.merchantKey)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		metrics.GatewayRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		metrics.GatewayRequestsTotal.WithLabelValues(operation, "not_found").Inc()
		return errNotFound
	case resp.StatusCode >= 500:
		metrics.GatewayRequestsTotal.WithLabelValues(operation, "error").Inc()
		return fmt.Errorf("provider error (%d): %s", resp.StatusCode, decodeAPIErrors(raw))
	case resp.StatusCode >= 400:
		metrics.GatewayRequestsTotal.WithLabelValues(operation, "denied").Inc()
		return fmt.Errorf("provider error (%d): %s", resp.StatusCode, decodeAPIErrors(raw))
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			metrics.GatewayRequestsTotal.WithLabelValues(operation, "error").Inc()
			return fmt.Errorf("parse response: %w", err)
		}
	}

	metrics.GatewayRequestsTotal.WithLabelValues(operation, "success").Inc()
	return nil
}

// decodeAPIErrors extracts the provider's error array into one message.
func decodeAPIErrors(raw []byte) string {
	var errs []apiError
	if err := json.Unmarshal(raw, &errs); err != nil || len(errs) == 0 {
		return string(raw)
	}
	msg := errs[0].Message
	for _, e := range errs[1:] {
		msg += "; " + e.Message
	}
	return msg
}

func providerMessage(msg string) string {
	if msg == "" {
		return "the payment provider declined the request"
	}
	return msg
}
