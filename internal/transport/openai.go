package transport

import (
	"context"
	"errors"
	"io"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jorge-barreto/sitegen/internal/failure"
	"github.com/jorge-barreto/sitegen/internal/markers"
)

// NewOpenAIClient returns a client for any OpenAI-compatible endpoint.
func NewOpenAIClient(baseURL, apiKey string) *openai.Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return openai.NewClientWithConfig(cfg)
}

// OpenAISource streams chat completion deltas. Reasoning deltas are wrapped
// in think tags so downstream parsing sees the same text a model that
// inlines its reasoning would produce.
type OpenAISource struct {
	stream   *openai.ChatCompletionStream
	thinking bool
	ended    bool
}

// OpenOpenAI starts a streaming chat completion.
func OpenOpenAI(ctx context.Context, client *openai.Client, req openai.ChatCompletionRequest) (*OpenAISource, error) {
	req.Stream = true
	stream, err := client.CreateChatCompletionStream(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, failure.Classify(err)
	}
	return &OpenAISource{stream: stream}, nil
}

// Next returns the next non-empty delta.
func (s *OpenAISource) Next(ctx context.Context) (string, error) {
	for {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		if s.ended {
			return "", io.EOF
		}

		resp, err := s.stream.Recv()
		if errors.Is(err, io.EOF) {
			s.ended = true
			if s.thinking {
				s.thinking = false
				return markers.ThinkEnd, nil
			}
			return "", io.EOF
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			return "", failure.Classify(err)
		}
		if len(resp.Choices) == 0 {
			continue
		}

		if text := s.delta(resp.Choices[0].Delta); text != "" {
			return text, nil
		}
	}
}

func (s *OpenAISource) delta(d openai.ChatCompletionStreamChoiceDelta) string {
	var b strings.Builder
	if d.ReasoningContent != "" {
		if !s.thinking {
			b.WriteString(markers.ThinkStart)
			s.thinking = true
		}
		b.WriteString(d.ReasoningContent)
	}
	if d.Content != "" {
		if s.thinking {
			b.WriteString(markers.ThinkEnd)
			s.thinking = false
		}
		b.WriteString(d.Content)
	}
	return b.String()
}

// Close aborts the stream.
func (s *OpenAISource) Close() error {
	return s.stream.Close()
}
