package provider

import (
	"context"
	"fmt"
	"iter"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"relaychat/model"
	"relaychat/platform"
)

// OpenAIAdapter covers OpenAI and any endpoint speaking the chat completions protocol.
type OpenAIAdapter struct {
	client *openai.Client
	apiKey string
}

func NewOpenAIAdapter(cred platform.Credential, opts ...option.RequestOption) *OpenAIAdapter {
	base := []option.RequestOption{
		option.WithAPIKey(cred.APIKey),
		option.WithMaxRetries(0),
	}
	if cred.BaseURL != "" {
		base = append(base, option.WithBaseURL(cred.BaseURL))
	}
	return &OpenAIAdapter{
		client: openai.NewClient(append(base, opts...)...),
		apiKey: cred.APIKey,
	}
}

func (a *OpenAIAdapter) Kind() Kind { return KindOpenAI }

func openaiMessage(role model.Role, content string) openai.ChatCompletionMessageParam {
	var c any = content
	return openai.ChatCompletionMessageParam{
		Role:    openai.F(openai.ChatCompletionMessageParamRole(role)),
		Content: openai.F(c),
	}
}

// buildOpenAIParams puts a non-empty system prompt in front of the history.
func buildOpenAIParams(req Request) openai.ChatCompletionNewParams {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)
	if req.SystemPrompt != "" {
		messages = append(messages, openaiMessage(model.RoleSystem, req.SystemPrompt))
	}
	for _, m := range req.Messages {
		messages = append(messages, openaiMessage(m.Role, m.Content))
	}
	return openai.ChatCompletionNewParams{
		Messages: openai.F(messages),
		Model:    openai.F(req.Model),
		StreamOptions: openai.F(openai.ChatCompletionStreamOptionsParam{
			IncludeUsage: openai.F(true),
		}),
	}
}

func (a *OpenAIAdapter) StartCompletion(ctx context.Context, req Request) iter.Seq[Event] {
	return func(yield func(Event) bool) {
		if a.apiKey == "" {
			yield(errorEvent(fmt.Errorf("openai: %w", ErrMissingCredential)))
			return
		}
		stream := a.client.Chat.Completions.NewStreaming(ctx, buildOpenAIParams(req))
		defer stream.Close()

		for stream.Next() {
			chunk := stream.Current()
			if len(chunk.Choices) > 0 && chunk.Choices[0].Delta.Content != "" {
				if !yield(chunkEvent(chunk.Choices[0].Delta.Content)) {
					return
				}
			}
			// usage only comes on the trailing chunk with include_usage
			if chunk.Usage.PromptTokens > 0 || chunk.Usage.CompletionTokens > 0 {
				if !yield(usageEvent(chunk.Usage.PromptTokens, chunk.Usage.CompletionTokens)) {
					return
				}
			}
		}
		if err := stream.Err(); err != nil {
			yield(errorEvent(fmt.Errorf("openai: %w", err)))
			return
		}
		yield(doneEvent())
	}
}

func (a *OpenAIAdapter) ListModels(ctx context.Context) ([]string, error) {
	if a.apiKey == "" {
		return nil, fmt.Errorf("openai: %w", ErrMissingCredential)
	}
	page, err := a.client.Models.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("openai: list models: %w", err)
	}
	models := make([]string, 0, len(page.Data))
	for _, m := range page.Data {
		models = append(models, m.ID)
	}
	return models, nil
}
