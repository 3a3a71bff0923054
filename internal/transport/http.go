package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/jorge-barreto/sitegen/internal/failure"
	"github.com/jorge-barreto/sitegen/internal/pages"
)

// maxErrorBody bounds how much of a failed response is read for its message.
const maxErrorBody = 64 * 1024

// AskRequest is the body posted to a builder endpoint.
type AskRequest struct {
	Prompt          string       `json:"prompt"`
	Model           string       `json:"model,omitempty"`
	Provider        string       `json:"provider,omitempty"`
	PreviousPrompts []string     `json:"previousPrompts,omitempty"`
	Pages           []pages.Page `json:"pages,omitempty"`
	CurrentPage     string       `json:"currentPage,omitempty"`
}

// HTTPSource streams the response body of a builder endpoint.
type HTTPSource struct {
	*ReaderSource
	Status int
}

// OpenHTTP posts req to url and returns a Source over the response body.
// A non-2xx status is returned as a *failure.Failure, decoded from the
// response's failure payload when it carries one.
func OpenHTTP(ctx context.Context, client *http.Client, url string, req AskRequest, header http.Header) (*HTTPSource, error) {
	if client == nil {
		client = http.DefaultClient
	}
	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encoding request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			httpReq.Header.Add(k, v)
		}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(httpReq)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, failure.Classify(err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		if f, ok := failure.FromPayload(string(data)); ok {
			f.Status = resp.StatusCode
			return nil, f
		}
		msg := strings.TrimSpace(string(data))
		if msg == "" {
			msg = resp.Status
		}
		return nil, failure.FromStatus(resp.StatusCode, msg, nil)
	}

	return &HTTPSource{ReaderSource: NewReaderSource(resp.Body), Status: resp.StatusCode}, nil
}
