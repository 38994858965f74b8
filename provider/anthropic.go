package provider

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"relaychat/model"
	"relaychat/platform"
)

const (
	defaultMaxTokens   = 1024
	anthropicPageLimit = 1000
)

var errNoMessageStop = errors.New("anthropic: stream ended before message_stop")

// AnthropicAdapter talks to the Anthropic Messages API.
type AnthropicAdapter struct {
	client    anthropic.Client
	apiKey    string
	maxTokens int64
}

func NewAnthropicAdapter(cred platform.Credential, maxTokens int64, opts ...option.RequestOption) *AnthropicAdapter {
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}
	base := []option.RequestOption{
		option.WithAPIKey(cred.APIKey),
		option.WithMaxRetries(0),
	}
	if cred.BaseURL != "" {
		base = append(base, option.WithBaseURL(strings.TrimSuffix(cred.BaseURL, "/")+"/"))
	}
	return &AnthropicAdapter{
		client:    anthropic.NewClient(append(base, opts...)...),
		apiKey:    cred.APIKey,
		maxTokens: maxTokens,
	}
}

func (a *AnthropicAdapter) Kind() Kind { return KindAnthropic }

type anthropicTurn struct {
	role    model.Role
	content string
}

// anthropicConversation splits the request into the top level system text and the
// user/assistant turns. System turns from the history are appended to the room
// prompt unless they repeat it, and consecutive turns of one role are merged.
func anthropicConversation(req Request) (string, []anthropicTurn) {
	var system []string
	addSystem := func(text string) {
		text = strings.TrimSpace(text)
		if text == "" {
			return
		}
		for _, s := range system {
			if s == text {
				return
			}
		}
		system = append(system, text)
	}
	addSystem(req.SystemPrompt)

	turns := make([]anthropicTurn, 0, len(req.Messages))
	for _, m := range req.Messages {
		if m.Content == "" {
			continue
		}
		switch m.Role {
		case model.RoleSystem:
			addSystem(m.Content)
			continue
		case model.RoleUser, model.RoleAssistant:
		default:
			continue
		}
		if n := len(turns); n > 0 && turns[n-1].role == m.Role {
			turns[n-1].content += "\n\n" + m.Content
			continue
		}
		turns = append(turns, anthropicTurn{role: m.Role, content: m.Content})
	}
	return strings.Join(system, "\n\n"), turns
}

func buildAnthropicParams(req Request, maxTokens int64) anthropic.MessageNewParams {
	system, turns := anthropicConversation(req)
	messages := make([]anthropic.MessageParam, 0, len(turns))
	for _, t := range turns {
		block := anthropic.NewTextBlock(t.content)
		if t.role == model.RoleAssistant {
			messages = append(messages, anthropic.NewAssistantMessage(block))
		} else {
			messages = append(messages, anthropic.NewUserMessage(block))
		}
	}
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(req.Model),
		MaxTokens: maxTokens,
		Messages:  messages,
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func (a *AnthropicAdapter) StartCompletion(ctx context.Context, req Request) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if a.apiKey == "" {
			yield(errorEvent(fmt.Errorf("anthropic: %w", ErrMissingCredential)))
			return
		}
		stream := a.client.Messages.NewStreaming(ctx, buildAnthropicParams(req, a.maxTokens))
		defer stream.Close()

		// input tokens arrive on message_start, output tokens on message_delta
		var inputTokens int64
		for stream.Next() {
			switch event := stream.Current().AsAny().(type) {
			case anthropic.MessageStartEvent:
				inputTokens = event.Message.Usage.InputTokens
			case anthropic.ContentBlockDeltaEvent:
				delta, ok := event.Delta.AsAny().(anthropic.TextDelta)
				if !ok || delta.Text == "" {
					continue
				}
				if !yield(chunkEvent(delta.Text)) {
					return
				}
			case anthropic.MessageDeltaEvent:
				if !yield(usageEvent(inputTokens, event.Usage.OutputTokens)) {
					return
				}
			case anthropic.MessageStopEvent:
				yield(doneEvent())
				return
			}
		}
		if err := stream.Err(); err != nil {
			yield(errorEvent(fmt.Errorf("anthropic: %w", err)))
			return
		}
		yield(errorEvent(errNoMessageStop))
	}
}

func (a *AnthropicAdapter) ListModels(ctx context.Context) ([]string, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("anthropic: %w", ErrMissingCredential)
	}
	pager := a.client.Models.ListAutoPaging(ctx, anthropic.ModelListParams{
		Limit: anthropic.Int(anthropicPageLimit),
	})
	var models []string
	for pager.Next() {
		models = append(models, pager.Current().ID)
	}
	if err := pager.Err(); err != nil {
		return nil, fmt.Errorf("anthropic: list models: %w", err)
	}
	return models, nil
}
