package prompts

import (
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
	"github.com/tiktoken-go/tokenizer"
)

// perMessageOverhead approximates the role and framing tokens of a message.
const perMessageOverhead = 4

// minOutputTokens is the smallest completion worth requesting.
const minOutputTokens = 1024

// ErrContextExceeded means the prompt leaves no room for a useful answer.
var ErrContextExceeded = errors.New("prompt exceeds the model's context window")

// Estimator counts tokens with the cl100k_base encoding. Counts are an
// estimate for models with other tokenizers.
type Estimator struct {
	codec tokenizer.Codec
}

// NewEstimator loads the encoding.
func NewEstimator() (*Estimator, error) {
	codec, err := tokenizer.Get(tokenizer.Cl100kBase)
	if err != nil {
		return nil, fmt.Errorf("loading tokenizer: %w", err)
	}
	return &Estimator{codec: codec}, nil
}

// Count returns the token count of text.
func (e *Estimator) Count(text string) int {
	ids, _, err := e.codec.Encode(text)
	if err != nil {
		return len(text) / 4
	}
	return len(ids)
}

// Messages returns the token count of a chat request's messages.
func (e *Estimator) Messages(msgs []openai.ChatCompletionMessage) int {
	n := 0
	for _, m := range msgs {
		n += perMessageOverhead + e.Count(m.Content)
	}
	return n
}

// MaxTokens sizes the completion so that input plus output fits in the
// context window, capped at maxOutput.
func MaxTokens(contextWindow, maxOutput, input int) (int, error) {
	available := contextWindow - input
	if available < minOutputTokens {
		return 0, fmt.Errorf("%w: %d input tokens, %d window", ErrContextExceeded, input, contextWindow)
	}
	if maxOutput > 0 && maxOutput < available {
		return maxOutput, nil
	}
	return available, nil
}
