package backend

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"clin-summ/internal/errdefs"
)

// OpenAIBackend calls a hosted chat completion API. Failures are classified
// so the dispatcher can retry transient ones: rate limits, timeouts and
// 5xx-class responses are transient; auth and request errors are not.
type OpenAIBackend struct {
	client *openai.Client
}

// NewOpenAIBackend builds a remote backend against api.openai.com.
func NewOpenAIBackend(apiKey string) (*OpenAIBackend, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key required")
	}
	cli := openai.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &OpenAIBackend{client: &cli}, nil
}

func (b *OpenAIBackend) ID() string { return "openai" }

func (b *OpenAIBackend) Generate(ctx context.Context, prompt string, p Params) (string, error) {
	if b == nil || b.client == nil {
		return "", errdefs.MalformedRequest(nil, "nil openai client")
	}
	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(p.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(prompt),
					},
				},
			},
		},
		MaxTokens:   openai.Int(int64(p.MaxNewTokens)),
		Temperature: openai.Float(p.Temperature),
	})
	if err != nil {
		return "", classifyOpenAIError(err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", errdefs.TransientBackend(nil, "openai: no choices returned")
	}
	return resp.Choices[0].Message.Content, nil
}

func classifyOpenAIError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return errdefs.TransientBackend(err, "openai: request timed out")
	}
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		switch {
		case apierr.StatusCode == http.StatusUnauthorized || apierr.StatusCode == http.StatusForbidden:
			return errdefs.AuthBackend(err, "openai: authentication failed")
		case apierr.StatusCode == http.StatusTooManyRequests:
			return errdefs.TransientBackend(err, "openai: rate limited")
		case apierr.StatusCode >= 500:
			return errdefs.TransientBackend(err, "openai: server error %d", apierr.StatusCode)
		case apierr.StatusCode >= 400:
			return errdefs.MalformedRequest(err, "openai: rejected request %d", apierr.StatusCode)
		}
	}
	// Connection resets and DNS failures arrive as plain transport errors.
	return errdefs.TransientBackend(err, "openai: transport error")
}
