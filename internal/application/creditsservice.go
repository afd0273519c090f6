package application

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

// CreditsService serves the dashboard credits projection to any
// authenticated user. It reads settings through the read-only
// SettingsReader capability, so it cannot modify the record or see secrets
// regardless of who calls it.
type CreditsService struct {
	settings driven.SettingsReader
	fetcher  CreditFetcher
	errLog   driven.ErrorLogStore
	logger   *slog.Logger
}

// NewCreditsService creates a CreditsService.
func NewCreditsService(settings driven.SettingsReader, fetcher CreditFetcher, errLog driven.ErrorLogStore, logger *slog.Logger) *CreditsService {
	return &CreditsService{
		settings: settings,
		fetcher:  fetcher,
		errLog:   errLog,
		logger:   logger,
	}
}

// AvailableCredits returns the numeric credit balance, or zero when the
// settings record is missing or the fetch fails. It never returns an error
// and recovers from panics in its collaborators.
func (s *CreditsService) AvailableCredits(ctx context.Context) (value model.CreditsValue) {
	defer func() {
		if r := recover(); r != nil {
			s.fail(ctx, fmt.Errorf("panic: %v", r))
			value = model.ZeroCredits()
		}
	}()

	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.fail(ctx, err)
		return model.ZeroCredits()
	}
	if settings == nil {
		return model.ZeroCredits()
	}

	result := s.fetcher.FetchCredits(ctx, *settings)
	if !result.Success {
		return model.ZeroCredits()
	}

	return model.CreditsValue{Value: result.Amount, FieldType: model.FieldTypeCurrency}
}

// fail records err in slog and the error log. A broken error log must not
// escape the projection, so its panics are swallowed here too.
func (s *CreditsService) fail(ctx context.Context, err error) {
	s.logger.Error("error fetching credits for all users", "error", err)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("error log panicked", "panic", r)
		}
	}()

	if logErr := s.errLog.Log(ctx, model.ErrorCategoryCredits, "Error fetching credits for all users: "+err.Error()); logErr != nil {
		s.logger.Error("failed to write error log", "category", model.ErrorCategoryCredits, "error", logErr)
	}
}
