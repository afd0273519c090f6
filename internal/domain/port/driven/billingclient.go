package driven

import (
	"context"
	"fmt"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
)

// CreditsRequest carries the resolved credentials and optional remote user
// for one credits lookup.
type CreditsRequest struct {
	APIKey    string
	APISecret string
	User      string
}

// BillingClient defines the driven port for the remote billing API.
//
// GetUserCredits returns *HTTPStatusError for non-200 responses and
// *APIError when the API answers 200 but reports its own failure. Any other
// error means the call could not be completed or its body not understood.
type BillingClient interface {
	GetUserCredits(ctx context.Context, req CreditsRequest) (model.CreditBalance, error)
}

// HTTPStatusError is a non-200 response from the billing API.
type HTTPStatusError struct {
	StatusCode int
	Body       string
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("%d - %s", e.StatusCode, e.Body)
}

// APIError is a failure reported by the billing API inside a 200 response.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}
