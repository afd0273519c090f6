package application

import (
	"context"
	"errors"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

func newTestCreditsService(store *fakeSettingsStore, client *fakeBillingClient) (*CreditsService, *fakeErrorLog) {
	errLog := &fakeErrorLog{}
	fetcher := NewBalanceFetcher(newFakeSecretStore(), client, errLog, NewMetrics(prometheus.NewRegistry()), discardLogger())
	return NewCreditsService(store, fetcher, errLog, discardLogger()), errLog
}

func TestAvailableCredits_NoSettingsRecord(t *testing.T) {
	client := &fakeBillingClient{}
	svc, errLog := newTestCreditsService(&fakeSettingsStore{}, client)

	value := svc.AvailableCredits(context.Background())

	assert.Equal(t, model.CreditsValue{Value: 0, FieldType: "Currency"}, value)
	assert.Equal(t, 0, client.calls, "no HTTP call without a settings record")
	assert.Empty(t, errLog.entries)
}

func TestAvailableCredits_Success(t *testing.T) {
	client := &fakeBillingClient{balance: model.CreditBalance{Credits: "1234.5"}}
	svc, _ := newTestCreditsService(&fakeSettingsStore{settings: &model.Settings{}}, client)

	value := svc.AvailableCredits(context.Background())

	assert.Equal(t, model.CreditsValue{Value: 1234.5, FieldType: "Currency"}, value)
	assert.Equal(t, 1, client.calls)
}

func TestAvailableCredits_FailuresAreZero(t *testing.T) {
	tests := []struct {
		name     string
		settings *model.Settings
		client   *fakeBillingClient
	}{
		{
			name:     "disabled",
			settings: &model.Settings{Enabled: boolPtr(false)},
			client:   &fakeBillingClient{},
		},
		{
			name:     "transport failure",
			settings: &model.Settings{},
			client:   &fakeBillingClient{err: errors.New("connection refused")},
		},
		{
			name:     "http error",
			settings: &model.Settings{},
			client:   &fakeBillingClient{err: &driven.HTTPStatusError{StatusCode: 502, Body: "Bad Gateway"}},
		},
		{
			name:     "api error",
			settings: &model.Settings{},
			client:   &fakeBillingClient{err: &driven.APIError{Message: "Invalid token"}},
		},
		{
			name:     "client panic",
			settings: &model.Settings{},
			client:   &fakeBillingClient{panics: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestCreditsService(&fakeSettingsStore{settings: tt.settings}, tt.client)

			var value model.CreditsValue
			require.NotPanics(t, func() { value = svc.AvailableCredits(context.Background()) })
			assert.Equal(t, model.ZeroCredits(), value)
		})
	}
}

func TestAvailableCredits_LoadErrorIsLogged(t *testing.T) {
	client := &fakeBillingClient{}
	svc, errLog := newTestCreditsService(&fakeSettingsStore{getErr: errors.New("no such table: settings")}, client)

	value := svc.AvailableCredits(context.Background())

	assert.Equal(t, model.ZeroCredits(), value)
	assert.Equal(t, 0, client.calls)
	require.Len(t, errLog.entries, 1)
	assert.Equal(t, "Invoice2Erpnext Credits", errLog.entries[0].Category)
	assert.Equal(t, "Error fetching credits for all users: no such table: settings", errLog.entries[0].Message)
}

func TestAvailableCredits_PanicIsLogged(t *testing.T) {
	client := &fakeBillingClient{panics: true}
	svc, errLog := newTestCreditsService(&fakeSettingsStore{settings: &model.Settings{}}, client)

	svc.AvailableCredits(context.Background())

	require.Len(t, errLog.entries, 1)
	assert.Equal(t, "Invoice2Erpnext Credits", errLog.entries[0].Category)
	assert.Contains(t, errLog.entries[0].Message, "billing client exploded")
}

type panickingErrorLog struct{ fakeErrorLog }

func (p *panickingErrorLog) Log(context.Context, string, string) error {
	panic("error log exploded")
}

func TestAvailableCredits_BrokenErrorLogDoesNotEscape(t *testing.T) {
	store := &fakeSettingsStore{getErr: errors.New("boom")}
	svc := NewCreditsService(store, &stubFetcher{}, &panickingErrorLog{}, discardLogger())

	var value model.CreditsValue
	require.NotPanics(t, func() { value = svc.AvailableCredits(context.Background()) })
	assert.Equal(t, model.ZeroCredits(), value)
}

// The projection only ever reads through the SettingsReader capability.
func TestAvailableCredits_NeverWritesSettings(t *testing.T) {
	store := &fakeSettingsStore{settings: &model.Settings{}}
	svc, _ := newTestCreditsService(store, &fakeBillingClient{err: errors.New("down")})

	svc.AvailableCredits(context.Background())

	assert.Empty(t, store.saves)
}
