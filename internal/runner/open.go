package runner

import (
	"context"
	"fmt"
	"net/http"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/jorge-barreto/sitegen/internal/config"
	"github.com/jorge-barreto/sitegen/internal/prompts"
	"github.com/jorge-barreto/sitegen/internal/session"
	"github.com/jorge-barreto/sitegen/internal/transport"
	"github.com/jorge-barreto/sitegen/internal/ux"
)

// OpenAIOpener talks to an OpenAI-compatible router directly.
type OpenAIOpener struct {
	Client    *openai.Client
	Provider  config.Provider
	Estimator *prompts.Estimator
}

// Request builds the chat request for job, sizing max tokens to the space
// the prompt leaves in the context window.
func (o *OpenAIOpener) Request(job Job) (openai.ChatCompletionRequest, int, error) {
	in := prompts.Input{
		Prompt:          job.Prompt,
		PreviousPrompts: job.PreviousPrompts,
		Pages:           job.Pages,
		SelectedElement: job.SelectedElement,
	}
	var msgs []openai.ChatCompletionMessage
	if job.Mode == session.ModeNewProject {
		msgs = prompts.NewProject(in)
	} else {
		msgs = prompts.FollowUp(in)
	}

	input := 0
	if o.Estimator != nil {
		input = o.Estimator.Messages(msgs)
	}
	maxTokens, err := prompts.MaxTokens(o.Provider.ContextWindow, o.Provider.MaxOutputTokens, input)
	if err != nil {
		return openai.ChatCompletionRequest{}, input, err
	}
	return openai.ChatCompletionRequest{
		Model:     o.model(),
		Messages:  msgs,
		MaxTokens: maxTokens,
	}, input, nil
}

func (o *OpenAIOpener) Open(ctx context.Context, job Job) (transport.Source, error) {
	req, _, err := o.Request(job)
	if err != nil {
		return nil, err
	}
	src, err := transport.OpenOpenAI(ctx, o.Client, req)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// PrintPlan prints the request a job would send without sending it.
func (o *OpenAIOpener) PrintPlan(job Job) error {
	req, input, err := o.Request(job)
	if err != nil {
		return err
	}
	fmt.Fprintf(ux.Out, "\n%sDry run: %s%s\n\n", ux.Bold, job.Mode, ux.Reset)
	fmt.Fprintf(ux.Out, "  model:      %s\n", req.Model)
	fmt.Fprintf(ux.Out, "  messages:   %d\n", len(req.Messages))
	fmt.Fprintf(ux.Out, "  input:      ~%d tokens\n", input)
	fmt.Fprintf(ux.Out, "  max tokens: %d (window %d)\n", req.MaxTokens, o.Provider.ContextWindow)
	if len(job.Pages) > 0 {
		fmt.Fprintf(ux.Out, "  pages:      %d\n", len(job.Pages))
	}
	fmt.Fprintln(ux.Out)
	return nil
}

// model appends the provider hint the router uses to pick an inference
// provider.
func (o *OpenAIOpener) model() string {
	if o.Provider.Name == "" {
		return o.Provider.Model
	}
	return o.Provider.Model + ":" + o.Provider.Name
}

// EndpointOpener posts jobs to a builder ask endpoint.
type EndpointOpener struct {
	Client   *http.Client
	URL      string
	Token    string
	Model    string
	Provider string
}

func (o *EndpointOpener) Open(ctx context.Context, job Job) (transport.Source, error) {
	header := http.Header{}
	if o.Token != "" {
		header.Set("Authorization", "Bearer "+o.Token)
	}
	src, err := transport.OpenHTTP(ctx, o.Client, o.URL, transport.AskRequest{
		Prompt:          job.Prompt,
		Model:           o.Model,
		Provider:        o.Provider,
		PreviousPrompts: job.PreviousPrompts,
		Pages:           job.Pages,
		CurrentPage:     job.CurrentPage,
	}, header)
	if err != nil {
		return nil, err
	}
	return src, nil
}

// FileOpener replays a recorded response from disk.
type FileOpener struct {
	Path string
}

func (o FileOpener) Open(ctx context.Context, job Job) (transport.Source, error) {
	f, err := os.Open(o.Path)
	if err != nil {
		return nil, fmt.Errorf("opening recorded response: %w", err)
	}
	return transport.NewReaderSource(f), nil
}

// NewOpener picks the transport the config describes.
func NewOpener(cfg *config.Config, est *prompts.Estimator) Opener {
	if cfg.Endpoint != nil {
		return &EndpointOpener{
			URL:      cfg.Endpoint.URL,
			Token:    cfg.EndpointToken(),
			Model:    cfg.Provider.Model,
			Provider: cfg.Provider.Name,
		}
	}
	return &OpenAIOpener{
		Client:    transport.NewOpenAIClient(cfg.Provider.BaseURL, cfg.APIKey()),
		Provider:  cfg.Provider,
		Estimator: est,
	}
}
