package model

import "time"

// FetchOutcome classifies how a credit fetch ended. It is used for metrics
// and logging only; callers see the uniform Success/Message pair.
type FetchOutcome string

const (
	FetchOutcomeSuccess   FetchOutcome = "success"
	FetchOutcomeDisabled  FetchOutcome = "disabled"
	FetchOutcomeTransport FetchOutcome = "transport_error"
	FetchOutcomeHTTP      FetchOutcome = "http_error"
	FetchOutcomeAPI       FetchOutcome = "api_error"
)

// Defaults for the remote credits endpoint.
const (
	DefaultBillingBaseURL = "https://kainotomo.com"
	DefaultCreditsMethod  = "doc2sys.doc2sys.doctype.doc2sys_user_settings.doc2sys_user_settings.get_user_credits"
	DefaultBillingTimeout = 30 * time.Second
)

// FieldTypeCurrency is the dashboard field type of a credits projection.
const FieldTypeCurrency = "Currency"

// CreditBalance is the balance as reported by the billing API. Credits holds
// the raw value: the text of a JSON number, the contents of a JSON string, or
// empty when the API omitted it.
type CreditBalance struct {
	Credits string
}

// FetchResult is the normalized outcome of a credit fetch. Credits is set if
// and only if Success is true. Amount is the numeric balance behind Credits.
type FetchResult struct {
	Success bool
	Credits string
	Amount  float64
	Message string
	Outcome FetchOutcome
}

// CreditsValue is the numeric projection consumed by dashboard number cards.
type CreditsValue struct {
	Value     float64
	FieldType string
}

// ZeroCredits returns the projection used whenever no balance is available.
func ZeroCredits() CreditsValue {
	return CreditsValue{Value: 0, FieldType: FieldTypeCurrency}
}
