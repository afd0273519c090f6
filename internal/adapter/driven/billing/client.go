// Package billing implements the BillingClient port against the Frappe
// get_user_credits method using resty.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/ericfisherdev/invoice2erpnext/internal/domain/model"
	"github.com/ericfisherdev/invoice2erpnext/internal/domain/port/driven"
)

// Defaults for the remote endpoint.
const (
	DefaultBaseURL       = model.DefaultBillingBaseURL
	DefaultCreditsMethod = model.DefaultCreditsMethod
	DefaultTimeout       = model.DefaultBillingTimeout
)

const genericAPIError = "API returned error"

// Compile-time interface satisfaction check.
var _ driven.BillingClient = (*Client)(nil)

// Client implements driven.BillingClient. It performs a single attempt per
// call; resty retries are left disabled.
type Client struct {
	rc       *resty.Client
	endpoint string
}

// NewClient creates a Client for baseURL using the given Frappe method path
// and request timeout.
func NewClient(baseURL, method string, timeout time.Duration) *Client {
	return NewClientWithHTTPClient(&http.Client{}, baseURL, method, timeout)
}

// NewClientWithHTTPClient creates a Client around a caller-supplied
// http.Client. Tests use it to inject an httptest server client or a custom
// transport.
func NewClientWithHTTPClient(httpClient *http.Client, baseURL, method string, timeout time.Duration) *Client {
	rc := resty.NewWithClient(httpClient).
		SetTimeout(timeout).
		SetRetryCount(0)

	return &Client{
		rc:       rc,
		endpoint: Endpoint(baseURL, method),
	}
}

// Endpoint joins a base URL and a Frappe method path into the whitelisted
// method URL.
func Endpoint(baseURL, method string) string {
	return strings.TrimRight(baseURL, "/") + "/api/method/" + strings.TrimLeft(method, "/")
}

// GetUserCredits posts to the credits method and decodes the balance.
func (c *Client) GetUserCredits(ctx context.Context, req driven.CreditsRequest) (model.CreditBalance, error) {
	body := map[string]string{}
	if req.User != "" {
		body["user"] = req.User
	}

	resp, err := c.rc.R().
		SetContext(ctx).
		SetHeader("Authorization", fmt.Sprintf("token %s:%s", req.APIKey, req.APISecret)).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(c.endpoint)
	if err != nil {
		return model.CreditBalance{}, err
	}

	if resp.StatusCode() != http.StatusOK {
		return model.CreditBalance{}, &driven.HTTPStatusError{
			StatusCode: resp.StatusCode(),
			Body:       string(resp.Body()),
		}
	}

	return decodeCredits(resp.Body())
}

// envelope is the Frappe whitelisted-method response wrapper.
type envelope struct {
	Message json.RawMessage `json:"message"`
}

type creditsPayload struct {
	Success any             `json:"success"`
	Credits json.RawMessage `json:"credits"`
	Message json.RawMessage `json:"message"`
}

// decodeCredits interprets a 200 body. A missing message wrapper is an API
// failure with the generic text. A body or wrapper that is not an object
// cannot be interpreted and is returned as a plain decode error.
func decodeCredits(body []byte) (model.CreditBalance, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return model.CreditBalance{}, fmt.Errorf("decode response: body is %s, want object", jsonKind(body))
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return model.CreditBalance{}, fmt.Errorf("decode response: %w", err)
	}

	if len(env.Message) == 0 {
		return model.CreditBalance{}, &driven.APIError{Message: genericAPIError}
	}

	trimmed := bytes.TrimSpace(env.Message)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return model.CreditBalance{}, fmt.Errorf("decode response: message is %s, want object", jsonKind(trimmed))
	}

	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var payload creditsPayload
	if err := dec.Decode(&payload); err != nil {
		return model.CreditBalance{}, fmt.Errorf("decode response message: %w", err)
	}

	if !truthy(payload.Success) {
		return model.CreditBalance{}, &driven.APIError{Message: apiMessage(payload.Message)}
	}

	credits, err := rawCredits(payload.Credits)
	if err != nil {
		return model.CreditBalance{}, err
	}

	return model.CreditBalance{Credits: credits}, nil
}

// truthy applies JSON-value truthiness: false, 0, "", null, and empty arrays
// or objects are false.
func truthy(v any) bool {
	switch x := v.(type) {
	case nil:
		return false
	case bool:
		return x
	case json.Number:
		f, err := x.Float64()
		return err != nil || f != 0
	case string:
		return x != ""
	case []any:
		return len(x) > 0
	case map[string]any:
		return len(x) > 0
	default:
		return true
	}
}

// apiMessage extracts the remote error text, falling back to the generic
// message when it is absent or null. Non-string values are reported as their
// JSON text.
func apiMessage(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return genericAPIError
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// rawCredits returns the credits value as text: the number literal, the
// string contents, or "" when absent or null.
func rawCredits(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", fmt.Errorf("decode credits: %w", err)
		}
		return s, nil
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return string(raw), nil
	default:
		return "", fmt.Errorf("decode credits: value is %s, want number", jsonKind(raw))
	}
}

func jsonKind(raw []byte) string {
	if len(raw) == 0 {
		return "empty"
	}
	switch raw[0] {
	case '{':
		return "an object"
	case '[':
		return "an array"
	case '"':
		return "a string"
	case 't', 'f':
		return "a boolean"
	case 'n':
		return "null"
	default:
		return "a number"
	}
}
