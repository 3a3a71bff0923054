package transport

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jorge-barreto/sitegen/internal/failure"
)

func sseServer(t *testing.T, deltas []string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		for _, d := range deltas {
			fmt.Fprintf(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":%s}]}\n\n", d)
		}
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
}

func TestOpenAISource_Content(t *testing.T) {
	srv := sseServer(t, []string{`{"content":"<<<<<<< NEW_FILE_START "}`, `{"content":"index.html"}`})
	defer srv.Close()

	client := NewOpenAIClient(srv.URL+"/v1", "key")
	src, err := OpenOpenAI(context.Background(), client, openai.ChatCompletionRequest{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	if got := drain(t, src); got != "<<<<<<< NEW_FILE_START index.html" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestOpenAISource_ReasoningWrapped(t *testing.T) {
	srv := sseServer(t, []string{
		`{"reasoning_content":"plan "}`,
		`{"reasoning_content":"it"}`,
		`{"content":"done"}`,
	})
	defer srv.Close()

	src, err := OpenOpenAI(context.Background(), NewOpenAIClient(srv.URL+"/v1", "key"), openai.ChatCompletionRequest{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	if got := drain(t, src); got != "<think>plan it</think>done" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestOpenAISource_UnterminatedReasoningClosed(t *testing.T) {
	srv := sseServer(t, []string{`{"reasoning_content":"hmm"}`})
	defer srv.Close()

	src, err := OpenOpenAI(context.Background(), NewOpenAIClient(srv.URL+"/v1", "key"), openai.ChatCompletionRequest{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	defer src.Close()

	if got := drain(t, src); got != "<think>hmm</think>" {
		t.Fatalf("unexpected text: %q", got)
	}
}

func TestOpenOpenAI_ErrorClassified(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		fmt.Fprint(w, `{"error":{"message":"You have exceeded your monthly included credits","type":"billing"}}`)
	}))
	defer srv.Close()

	_, err := OpenOpenAI(context.Background(), NewOpenAIClient(srv.URL+"/v1", "key"), openai.ChatCompletionRequest{Model: "m"})
	f, ok := failure.As(err)
	if !ok {
		t.Fatalf("expected a failure, got %v", err)
	}
	if f.Reason != failure.QuotaExceeded {
		t.Fatalf("expected %s, got %s", failure.QuotaExceeded, f.Reason)
	}
}
