package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

// ErrSettingsNotFound is returned when an operation needs the singleton
// settings record before it has been created.
var ErrSettingsNotFound = errors.New("settings not configured")

// ErrOutcomeNotSaved marks a connection test whose fetch completed but whose
// enabled flag could not be persisted.
var ErrOutcomeNotSaved = errors.New("connection test outcome not saved")

// CreditFetcher is the subset of BalanceFetcher the services depend on.
type CreditFetcher interface {
	FetchCredits(ctx context.Context, settings model.Settings) model.FetchResult
}

// SettingsView is the settings record as shown to administrators. Secret
// values are never included, only whether they are configured.
type SettingsView struct {
	Settings     model.Settings
	HasAPIKey    bool
	HasAPISecret bool
}

// SettingsUpdate is an administrator edit. Nil fields and empty secrets
// leave the stored value unchanged.
type SettingsUpdate struct {
	Enabled     *bool
	ERPNextUser *string
	APIKey      string
	APISecret   string
}

// SettingsService manages the singleton settings record and the connection
// test that keeps its enabled flag in line with the last outcome.
type SettingsService struct {
	store   driven.SettingsStore
	secrets driven.SecretStore
	fetcher CreditFetcher
	logger  *slog.Logger
}

// NewSettingsService creates a SettingsService.
func NewSettingsService(store driven.SettingsStore, secrets driven.SecretStore, fetcher CreditFetcher, logger *slog.Logger) *SettingsService {
	return &SettingsService{
		store:   store,
		secrets: secrets,
		fetcher: fetcher,
		logger:  logger,
	}
}

// Get returns the settings view, or ErrSettingsNotFound before the first save.
func (s *SettingsService) Get(ctx context.Context) (*SettingsView, error) {
	settings, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		return nil, ErrSettingsNotFound
	}
	return s.view(ctx, *settings)
}

// Update applies an administrator edit, creating the record on first save.
// Secrets are written before the record so a failed secret write leaves the
// settings untouched.
func (s *SettingsService) Update(ctx context.Context, u SettingsUpdate) (*SettingsView, error) {
	settings, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if settings == nil {
		settings = &model.Settings{}
	}

	if u.APIKey != "" {
		if err := s.secrets.Store(ctx, model.SecretAPIKey, u.APIKey); err != nil {
			return nil, fmt.Errorf("store api key: %w", err)
		}
	}
	if u.APISecret != "" {
		if err := s.secrets.Store(ctx, model.SecretAPISecret, u.APISecret); err != nil {
			return nil, fmt.Errorf("store api secret: %w", err)
		}
	}

	if u.Enabled != nil {
		settings.SetEnabled(*u.Enabled)
	}
	if u.ERPNextUser != nil {
		settings.ERPNextUser = *u.ERPNextUser
	}

	if err := s.store.Save(ctx, *settings); err != nil {
		return nil, err
	}

	s.logger.Info("settings updated",
		"enabled", settings.Enabled != nil && *settings.Enabled,
		"erpnext_user", settings.ERPNextUser,
		"api_key_changed", u.APIKey != "",
		"api_secret_changed", u.APISecret != "",
	)

	// Re-read so the view carries the store-maintained updated_at.
	saved, err := s.store.Get(ctx)
	if err != nil {
		return nil, err
	}
	if saved == nil {
		saved = settings
	}
	return s.view(ctx, *saved)
}

// TestConnection loads the singleton settings and runs RunConnectionTest on it.
func (s *SettingsService) TestConnection(ctx context.Context) (model.FetchResult, error) {
	settings, err := s.store.Get(ctx)
	if err != nil {
		return model.FetchResult{}, err
	}
	if settings == nil {
		return model.FetchResult{}, ErrSettingsNotFound
	}
	return s.RunConnectionTest(ctx, settings)
}

// RunConnectionTest enables settings so a disabled integration can be
// re-tested, fetches credits, sets enabled to the fetch outcome and persists
// the record once. Concurrent tests are not serialized; the last save wins.
// The fetch result is returned even when persisting fails.
func (s *SettingsService) RunConnectionTest(ctx context.Context, settings *model.Settings) (model.FetchResult, error) {
	settings.SetEnabled(true)

	result := s.fetcher.FetchCredits(ctx, *settings)
	settings.SetEnabled(result.Success)

	if err := s.store.Save(ctx, *settings); err != nil {
		return result, fmt.Errorf("%w: %w", ErrOutcomeNotSaved, err)
	}

	s.logger.Info("connection test finished", "success", result.Success, "outcome", result.Outcome)
	return result, nil
}

func (s *SettingsService) view(ctx context.Context, settings model.Settings) (*SettingsView, error) {
	hasKey, err := s.secrets.IsSet(ctx, model.SecretAPIKey)
	if err != nil {
		return nil, err
	}
	hasSecret, err := s.secrets.IsSet(ctx, model.SecretAPISecret)
	if err != nil {
		return nil, err
	}
	return &SettingsView{Settings: settings, HasAPIKey: hasKey, HasAPISecret: hasSecret}, nil
}
