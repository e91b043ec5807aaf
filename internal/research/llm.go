package research

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/joelkehle/intelbrief/internal/observability"
)

const providerAnthropic = "anthropic"

// CompletionOptions are per-call LLM settings.
type CompletionOptions struct {
	Model     string
	MaxTokens int
	Timeout   time.Duration
}

// Completer returns one JSON object per call. Transport failures surface as
// *ProviderTimeoutError or *ProviderHTTPError; an empty or non-JSON body is
// an ordinary error.
type Completer interface {
	CompleteJSON(ctx context.Context, system, user string, opts CompletionOptions) (json.RawMessage, error)
}

// AnthropicMessager is the subset of the Anthropic messages client in use.
type AnthropicMessager interface {
	New(ctx context.Context, params anthropic.MessageNewParams, opts ...option.RequestOption) (*anthropic.Message, error)
}

// AnthropicCompleter implements Completer on the Anthropic messages API.
type AnthropicCompleter struct {
	messages AnthropicMessager
}

// NewAnthropicCompleter builds a client for apiKey.
func NewAnthropicCompleter(apiKey string) (*AnthropicCompleter, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("ANTHROPIC_API_KEY not configured")
	}
	c := anthropic.NewClient(option.WithAPIKey(apiKey), option.WithMaxRetries(0))
	return &AnthropicCompleter{messages: &c.Messages}, nil
}

// NewAnthropicCompleterWith wraps an existing messages client.
func NewAnthropicCompleterWith(m AnthropicMessager) *AnthropicCompleter {
	return &AnthropicCompleter{messages: m}
}

// CompleteJSON sends one message and decodes the reply as a JSON object.
func (a *AnthropicCompleter) CompleteJSON(ctx context.Context, system, user string, opts CompletionOptions) (json.RawMessage, error) {
	if opts.Model == "" {
		opts.Model = DefaultLLMModel
	}
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 8192
	}
	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	resp, err := a.messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(opts.Model),
		MaxTokens:   int64(opts.MaxTokens),
		System:      []anthropic.TextBlockParam{{Text: system}},
		Messages:    []anthropic.MessageParam{anthropic.NewUserMessage(anthropic.NewTextBlock(user))},
		Temperature: anthropic.Float(0),
	})
	if err != nil {
		observability.ProviderCalls.WithLabelValues(providerAnthropic, "failed").Inc()
		return nil, classifyTransportError(err)
	}
	observability.ProviderCalls.WithLabelValues(providerAnthropic, "ok").Inc()

	var sb strings.Builder
	for _, b := range resp.Content {
		if b.Type == "text" {
			sb.WriteString(b.Text)
		}
	}
	return decodeJSONObject(sb.String())
}

// decodeJSONObject strips markdown fences and surrounding prose and checks
// that what remains is a single JSON object.
func decodeJSONObject(raw string) (json.RawMessage, error) {
	clean := stripCodeFences(raw)
	if clean == "" {
		return nil, errors.New("empty completion")
	}
	if !strings.HasPrefix(clean, "{") {
		start, end := strings.Index(clean, "{"), strings.LastIndex(clean, "}")
		if start < 0 || end <= start {
			return nil, errors.New("completion is not a JSON object")
		}
		clean = clean[start : end+1]
	}
	var probe map[string]any
	if err := json.Unmarshal([]byte(clean), &probe); err != nil {
		return nil, fmt.Errorf("completion json parse: %w", err)
	}
	return json.RawMessage(clean), nil
}

func stripCodeFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		parts := strings.SplitN(s, "\n", 2)
		if len(parts) == 2 {
			s = parts[1]
		}
		s = strings.TrimPrefix(s, "json")
		s = strings.TrimSpace(strings.TrimSuffix(s, "```"))
	}
	return s
}

// classifyTransportError maps SDK and network failures onto the provider
// error types the retry policy understands.
func classifyTransportError(err error) error {
	if errors.Is(err, context.Canceled) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &ProviderTimeoutError{Provider: providerAnthropic, Err: err}
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return &ProviderTimeoutError{Provider: providerAnthropic, Err: err}
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return &ProviderHTTPError{Provider: providerAnthropic, Status: apiErr.StatusCode, Body: apiErr.Error()}
	}
	return &ProviderHTTPError{Provider: providerAnthropic, Status: 502, Body: err.Error()}
}
