// Package failure classifies the ways a generation session can fail before
// producing files.
package failure

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// Reason is the machine-readable tag callers map to a recovery action.
type Reason string

const (
	LoginRequired    Reason = "login_required"
	ProviderRequired Reason = "provider_required"
	QuotaExceeded    Reason = "quota_exceeded"
	APIError         Reason = "api_error"
	NetworkError     Reason = "network_error"
)

// Hint describes the recovery action for r.
func (r Reason) Hint() string {
	switch r {
	case LoginRequired:
		return "log in and try again"
	case ProviderRequired:
		return "select another inference provider"
	case QuotaExceeded:
		return "upgrade your plan or wait for credits to reset"
	case NetworkError:
		return "check your connection and retry"
	default:
		return "retry the request"
	}
}

// Failure is a terminal session error carrying its reason.
type Failure struct {
	Reason  Reason
	Message string
	Status  int // HTTP status when known
	Err     error
}

func (f *Failure) Error() string {
	msg := f.Message
	if msg == "" && f.Err != nil {
		msg = f.Err.Error()
	}
	if msg == "" {
		return string(f.Reason)
	}
	return fmt.Sprintf("%s: %s", f.Reason, msg)
}

func (f *Failure) Unwrap() error { return f.Err }

// As returns the *Failure in err's chain.
func As(err error) (*Failure, bool) {
	var f *Failure
	if errors.As(err, &f) {
		return f, true
	}
	return nil, false
}

// Payload is the JSON object a builder endpoint writes instead of model
// output when a request cannot be served.
type Payload struct {
	OK                 bool   `json:"ok"`
	OpenLogin          bool   `json:"openLogin,omitempty"`
	OpenSelectProvider bool   `json:"openSelectProvider,omitempty"`
	OpenProModal       bool   `json:"openProModal,omitempty"`
	Message            string `json:"message,omitempty"`
	Error              string `json:"error,omitempty"`
}

// FromPayload reports whether text, once trimmed, is a failure payload: a
// JSON object whose "ok" field is false or missing. Anything else, including
// invalid JSON, is not a failure.
func FromPayload(text string) (*Failure, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "{") || !strings.HasSuffix(text, "}") {
		return nil, false
	}
	var p Payload
	if err := json.Unmarshal([]byte(text), &p); err != nil || p.OK {
		return nil, false
	}
	return p.Failure(), true
}

// Failure converts the payload into a tagged failure.
func (p Payload) Failure() *Failure {
	msg := p.Message
	if msg == "" {
		msg = p.Error
	}
	f := &Failure{Reason: APIError, Message: msg}
	switch {
	case p.OpenLogin:
		f.Reason = LoginRequired
	case p.OpenSelectProvider:
		f.Reason = ProviderRequired
	case p.OpenProModal:
		f.Reason = QuotaExceeded
	}
	return f
}

// Classify maps a transport error to a Failure. It returns nil for nil and
// for context cancellation, which is not a failure.
func Classify(err error) *Failure {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	if f, ok := As(err); ok {
		return f
	}

	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return FromStatus(apiErr.HTTPStatusCode, apiErr.Message, err)
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		msg := ""
		if reqErr.Err != nil {
			msg = reqErr.Err.Error()
		}
		return FromStatus(reqErr.HTTPStatusCode, msg, err)
	}

	return &Failure{Reason: NetworkError, Message: err.Error(), Err: err}
}

// FromStatus classifies an HTTP error response by status and message.
func FromStatus(status int, message string, err error) *Failure {
	f := &Failure{Reason: APIError, Message: message, Status: status, Err: err}
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "exceeded your monthly included credits"):
		f.Reason = QuotaExceeded
	case strings.Contains(lower, "inference provider information"):
		f.Reason = ProviderRequired
	case status == http.StatusUnauthorized || status == http.StatusForbidden || status == http.StatusTooManyRequests:
		f.Reason = LoginRequired
	case status == http.StatusPaymentRequired:
		f.Reason = QuotaExceeded
	case status == 0:
		f.Reason = NetworkError
	}
	return f
}
