package application

import (
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

// --- Fakes for driven ports ---

type fakeSecretStore struct {
	values   map[string]string
	err      error
	storeErr error
	reveals  int
}

func newFakeSecretStore() *fakeSecretStore {
	return &fakeSecretStore{values: map[string]string{
		model.SecretAPIKey:    "key",
		model.SecretAPISecret: "secret",
	}}
}

func (f *fakeSecretStore) Reveal(_ context.Context, field string) (string, error) {
	f.reveals++
	if f.err != nil {
		return "", f.err
	}
	v, ok := f.values[field]
	if !ok {
		return "", errors.Join(errors.New(field), driven.ErrSecretNotSet)
	}
	return v, nil
}

func (f *fakeSecretStore) Store(_ context.Context, field, plaintext string) error {
	if f.storeErr != nil {
		return f.storeErr
	}
	f.values[field] = plaintext
	return nil
}

func (f *fakeSecretStore) IsSet(_ context.Context, field string) (bool, error) {
	_, ok := f.values[field]
	return ok, nil
}

type fakeBillingClient struct {
	balance model.CreditBalance
	err     error
	calls   int
	lastReq driven.CreditsRequest
	panics  bool
}

func (f *fakeBillingClient) GetUserCredits(_ context.Context, req driven.CreditsRequest) (model.CreditBalance, error) {
	f.calls++
	f.lastReq = req
	if f.panics {
		panic("billing client exploded")
	}
	return f.balance, f.err
}

type fakeErrorLog struct {
	entries []model.ErrorLogEntry
	err     error
}

func (f *fakeErrorLog) Log(_ context.Context, category, message string) error {
	f.entries = append(f.entries, model.ErrorLogEntry{Category: category, Message: message})
	return f.err
}

func (f *fakeErrorLog) List(_ context.Context, limit int) ([]model.ErrorLogEntry, error) {
	if limit < len(f.entries) {
		return f.entries[:limit], nil
	}
	return f.entries, nil
}

type fakeSettingsStore struct {
	settings *model.Settings
	getErr   error
	saveErr  error
	saves    []model.Settings
}

func (f *fakeSettingsStore) Get(_ context.Context) (*model.Settings, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if f.settings == nil {
		return nil, nil
	}
	s := *f.settings
	return &s, nil
}

func (f *fakeSettingsStore) Save(_ context.Context, settings model.Settings) error {
	f.saves = append(f.saves, settings)
	if f.saveErr != nil {
		return f.saveErr
	}
	f.settings = &settings
	return nil
}

// stubFetcher returns a fixed result and records the settings it was given.
type stubFetcher struct {
	result model.FetchResult
	seen   []model.Settings
}

func (s *stubFetcher) FetchCredits(_ context.Context, settings model.Settings) model.FetchResult {
	s.seen = append(s.seen, settings)
	return s.result
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func boolPtr(v bool) *bool { return &v }
