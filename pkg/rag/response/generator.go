package response

import (
	"context"
	"fmt"
	"strings"

	"github.com/kunaldev758/chataffy-sub000/internal/constant"
	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/pkg/logger"
	"github.com/kunaldev758/chataffy-sub000/pkg/llm"
)

// Generator executes queued completion tasks against the configured LLM
// provider. It is the single place where task payloads become provider
// calls, so the dispatch loop stays provider-agnostic.
type Generator struct {
	provider llm.LLMProvider
	logger   logger.ILogger
}

func NewGenerator(provider llm.LLMProvider, log logger.ILogger) *Generator {
	return &Generator{
		provider: provider,
		logger:   log,
	}
}

// Execute turns the task payload into a chat call. The returned result
// carries the provider's token counts for billing.
func (g *Generator) Execute(ctx context.Context, task *entity.QueuedTask) (*entity.TaskResult, error) {
	messages := make([]llm.Message, 0, len(task.Payload.History)+2)
	if task.Payload.SystemPrompt != "" {
		messages = append(messages, llm.Message{
			Role:    constant.ChatMessageRoleSystem,
			Content: task.Payload.SystemPrompt,
		})
	}
	for _, turn := range task.Payload.History {
		messages = append(messages, llm.Message{
			Role:    turn.Role,
			Content: turn.Content,
		})
	}

	userPrompt := strings.TrimSpace(task.Payload.UserPrompt)
	if userPrompt == "" {
		return nil, fmt.Errorf("task %s has no user prompt", task.Id)
	}
	messages = append(messages, llm.Message{
		Role:    constant.ChatMessageRoleUser,
		Content: userPrompt,
	})

	var opts []llm.Option
	if task.Payload.Temperature > 0 {
		opts = append(opts, llm.WithTemperature(task.Payload.Temperature))
	}
	if task.Payload.MaxTokens > 0 {
		opts = append(opts, llm.WithMaxTokens(task.Payload.MaxTokens))
	}

	completion, err := g.provider.Chat(ctx, messages, opts...)
	if err != nil {
		return nil, fmt.Errorf("completion call: %w", err)
	}

	return &entity.TaskResult{
		Text:             completion.Text,
		PromptTokens:     completion.Usage.PromptTokens,
		CompletionTokens: completion.Usage.CompletionTokens,
	}, nil
}
