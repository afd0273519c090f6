package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

// User-visible result messages.
const (
	MsgDisabled = "Integration is disabled. Please enable it in settings."
	MsgSuccess  = "Successfully connected to ERPNext API"
)

// BalanceFetcher resolves stored credentials, asks the billing API for the
// credit balance and normalizes every outcome into a model.FetchResult.
// It makes at most one outbound call per fetch and never retries.
type BalanceFetcher struct {
	secrets driven.SecretStore
	client  driven.BillingClient
	errLog  driven.ErrorLogStore
	metrics *Metrics
	logger  *slog.Logger
}

// NewBalanceFetcher creates a BalanceFetcher. metrics may be nil.
func NewBalanceFetcher(
	secrets driven.SecretStore,
	client driven.BillingClient,
	errLog driven.ErrorLogStore,
	metrics *Metrics,
	logger *slog.Logger,
) *BalanceFetcher {
	return &BalanceFetcher{
		secrets: secrets,
		client:  client,
		errLog:  errLog,
		metrics: metrics,
		logger:  logger,
	}
}

// FetchCredits returns the current credit balance for settings. An
// explicitly disabled integration short-circuits without any network call;
// an unset enabled flag does not.
func (f *BalanceFetcher) FetchCredits(ctx context.Context, settings model.Settings) model.FetchResult {
	if settings.IsDisabled() {
		f.metrics.observeOutcome(model.FetchOutcomeDisabled)
		return model.FetchResult{Message: MsgDisabled, Outcome: model.FetchOutcomeDisabled}
	}

	start := time.Now()
	result := f.fetch(ctx, settings)
	f.metrics.observeDuration(time.Since(start))
	f.metrics.observeOutcome(result.Outcome)

	return result
}

func (f *BalanceFetcher) fetch(ctx context.Context, settings model.Settings) model.FetchResult {
	req, err := f.credentials(ctx)
	if err != nil {
		return f.connectionError(ctx, err)
	}
	req.User = settings.ERPNextUser

	balance, err := f.client.GetUserCredits(ctx, req)

	var (
		httpErr *driven.HTTPStatusError
		apiErr  *driven.APIError
	)
	switch {
	case err == nil:
		amount, ok := ParseAmount(balance.Credits)
		if !ok {
			f.logger.Warn("billing api returned non-numeric credits, using zero")
		}
		return model.FetchResult{
			Success: true,
			Credits: FormatCurrencyValue(amount),
			Amount:  amount,
			Message: MsgSuccess,
			Outcome: model.FetchOutcomeSuccess,
		}
	case errors.As(err, &httpErr):
		// HTTP-level failures are surfaced to the caller but not written to
		// the error log; only connection failures are.
		return model.FetchResult{
			Message: fmt.Sprintf("HTTP Error: %d - %s", httpErr.StatusCode, httpErr.Body),
			Outcome: model.FetchOutcomeHTTP,
		}
	case errors.As(err, &apiErr):
		return model.FetchResult{
			Message: "API Error: " + apiErr.Message,
			Outcome: model.FetchOutcomeAPI,
		}
	default:
		return f.connectionError(ctx, err)
	}
}

func (f *BalanceFetcher) credentials(ctx context.Context) (driven.CreditsRequest, error) {
	key, err := f.secrets.Reveal(ctx, model.SecretAPIKey)
	if err != nil {
		return driven.CreditsRequest{}, err
	}
	secret, err := f.secrets.Reveal(ctx, model.SecretAPISecret)
	if err != nil {
		return driven.CreditsRequest{}, err
	}
	return driven.CreditsRequest{APIKey: key, APISecret: secret}, nil
}

// connectionError logs err to slog and the error log and returns the
// corresponding failure result.
func (f *BalanceFetcher) connectionError(ctx context.Context, err error) model.FetchResult {
	f.logger.Error("erpnext api connection error", "error", err)

	if logErr := f.errLog.Log(ctx, model.ErrorCategoryConnection, "ERPNext API Connection Error: "+err.Error()); logErr != nil {
		f.logger.Error("failed to write error log", "category", model.ErrorCategoryConnection, "error", logErr)
	}

	return model.FetchResult{
		Message: "Connection Error: " + err.Error(),
		Outcome: model.FetchOutcomeTransport,
	}
}
