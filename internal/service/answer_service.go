package service

import (
	"context"
	"strings"

	"github.com/kunaldev758/chataffy-sub000/internal/constant"
	"github.com/kunaldev758/chataffy-sub000/internal/dto"
	"github.com/kunaldev758/chataffy-sub000/internal/entity"
	"github.com/kunaldev758/chataffy-sub000/internal/pkg/logger"
	"github.com/kunaldev758/chataffy-sub000/internal/repository/unitofwork"
	"github.com/kunaldev758/chataffy-sub000/pkg/llm"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/history"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/intent"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/prompt"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/retriever"
	"github.com/kunaldev758/chataffy-sub000/pkg/taskqueue"

	"github.com/google/uuid"
)

type IAnswerService interface {
	Answer(ctx context.Context, tenantId uuid.UUID, req *dto.AnswerRequest) (*dto.AnswerResponse, error)
}

type answerService struct {
	uowFactory       unitofwork.RepositoryFactory
	queue            *taskqueue.Queue
	retriever        *retriever.Retriever
	historyLoader    *history.Loader
	irrelevantCutoff float64
	defaultThreshold float64
	logger           logger.ILogger
}

func NewAnswerService(
	uowFactory unitofwork.RepositoryFactory,
	queue *taskqueue.Queue,
	ret *retriever.Retriever,
	historyLoader *history.Loader,
	irrelevantCutoff float64,
	defaultThreshold float64,
	log logger.ILogger,
) IAnswerService {
	return &answerService{
		uowFactory:       uowFactory,
		queue:            queue,
		retriever:        ret,
		historyLoader:    historyLoader,
		irrelevantCutoff: irrelevantCutoff,
		defaultThreshold: defaultThreshold,
		logger:           log,
	}
}

// Answer runs the full visitor-question flow: classify, retrieve, queue
// the completion and persist the exchange. Greetings are classified
// before retrieval and never touch the index: a bare salutation gets the
// greeting reply regardless of what the corpus would score for it. It
// never propagates internal failures to the visitor; those collapse into
// the apology fallback with Success=false.
func (s *answerService) Answer(ctx context.Context, tenantId uuid.UUID, req *dto.AnswerRequest) (*dto.AnswerResponse, error) {
	question := strings.TrimSpace(req.Question)
	if question == "" {
		return s.fallback(tenantId, "empty question"), nil
	}

	persona, threshold := s.tenantSettings(ctx, tenantId)
	builder := prompt.NewBuilder(persona)

	hist, err := s.historyLoader.Load(ctx, req.ConversationId)
	if err != nil {
		// Degraded but answerable: continue without history.
		s.logger.Warn("Answer", "Failed to load conversation history", map[string]interface{}{
			"tenant_id":       tenantId.String(),
			"conversation_id": req.ConversationId.String(),
			"error":           err.Error(),
		})
		hist = nil
	}

	var (
		kind         entity.TaskKind
		systemPrompt string
		usedSources  []dto.UsedSource
	)

	if intent.Classify(question) == intent.KindGreeting {
		kind = entity.TaskKindGreeting
		systemPrompt = builder.Greeting()
	} else {
		res, err := s.retriever.Retrieve(ctx, tenantId.String(), question, threshold)
		if err != nil {
			s.logger.Error("Answer", "Retrieval failed", map[string]interface{}{
				"tenant_id": tenantId.String(),
				"error":     err.Error(),
			})
			return s.fallback(tenantId, "retrieval failed"), nil
		}

		if res.MaxScore < s.irrelevantCutoff || len(res.Passages) == 0 {
			kind = entity.TaskKindRedirect
			systemPrompt = builder.Redirect()
		} else {
			kind = entity.TaskKindAnswer
			systemPrompt = builder.Grounded(res.Passages)
			usedSources = toUsedSources(res.Passages)
			if res.Relaxed {
				s.logger.Debug("Answer", "Score threshold relaxed", map[string]interface{}{
					"tenant_id": tenantId.String(),
					"max_score": res.MaxScore,
				})
			}
		}
	}

	payload := entity.TaskPayload{
		SystemPrompt: systemPrompt,
		UserPrompt:   question,
		History:      toPromptMessages(hist),
	}

	taskId, err := s.queue.Submit(ctx, tenantId, kind, payload)
	if err != nil {
		s.logger.Error("Answer", "Failed to submit completion task", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"error":     err.Error(),
		})
		return s.fallback(tenantId, "submit failed"), nil
	}

	result, err := s.queue.Await(ctx, taskId)
	if err != nil {
		s.logger.Error("Answer", "Completion task did not resolve", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"task_id":   taskId.String(),
			"error":     err.Error(),
		})
		return s.fallback(tenantId, "completion failed"), nil
	}

	s.persistTurns(ctx, tenantId, req.ConversationId, question, result.Text)

	return &dto.AnswerResponse{
		Text:        result.Text,
		UsedSources: usedSources,
		Success:     true,
	}, nil
}

// tenantSettings resolves persona and score threshold, falling back to
// engine defaults when the tenant stored nothing.
func (s *answerService) tenantSettings(ctx context.Context, tenantId uuid.UUID) (string, float64) {
	persona := ""
	threshold := s.defaultThreshold

	uow := s.uowFactory.NewUnitOfWork(ctx)
	cfg, err := uow.TenantConfigRepository().FindByTenant(ctx, tenantId)
	if err != nil {
		s.logger.Warn("Answer", "Failed to load tenant config", map[string]interface{}{
			"tenant_id": tenantId.String(),
			"error":     err.Error(),
		})
		return persona, threshold
	}
	if cfg != nil {
		persona = cfg.Persona
		if cfg.ScoreThreshold > 0 {
			threshold = cfg.ScoreThreshold
		}
	}
	return persona, threshold
}

func (s *answerService) persistTurns(ctx context.Context, tenantId, conversationId uuid.UUID, question, answer string) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.ConversationTurnRepository()

	turns := []*entity.ConversationTurn{
		{
			Id:             uuid.New(),
			ConversationId: conversationId,
			TenantId:       tenantId,
			Role:           entity.TurnRoleUser,
			Text:           question,
		},
		{
			Id:             uuid.New(),
			ConversationId: conversationId,
			TenantId:       tenantId,
			Role:           entity.TurnRoleAssistant,
			Text:           answer,
		},
	}
	for _, turn := range turns {
		if err := repo.Create(ctx, turn); err != nil {
			s.logger.Warn("Answer", "Failed to persist conversation turn", map[string]interface{}{
				"tenant_id":       tenantId.String(),
				"conversation_id": conversationId.String(),
				"role":            turn.Role,
				"error":           err.Error(),
			})
			return
		}
	}
}

func (s *answerService) fallback(tenantId uuid.UUID, reason string) *dto.AnswerResponse {
	s.logger.Info("Answer", "Returning fallback answer", map[string]interface{}{
		"tenant_id": tenantId.String(),
		"reason":    reason,
	})
	return &dto.AnswerResponse{
		Text:    constant.FallbackApologyMessage,
		Success: false,
	}
}

func toPromptMessages(hist []llm.Message) []entity.PromptMessage {
	if len(hist) == 0 {
		return nil
	}
	messages := make([]entity.PromptMessage, len(hist))
	for i, msg := range hist {
		messages[i] = entity.PromptMessage{
			Role:    msg.Role,
			Content: msg.Content,
		}
	}
	return messages
}

func toUsedSources(passages []retriever.Passage) []dto.UsedSource {
	sources := make([]dto.UsedSource, 0, len(passages))
	seen := make(map[string]bool)
	for _, p := range passages {
		if seen[p.ItemId] {
			continue
		}
		seen[p.ItemId] = true
		itemId, err := uuid.Parse(p.ItemId)
		if err != nil {
			continue
		}
		sources = append(sources, dto.UsedSource{
			ItemId:    itemId,
			SourceRef: p.SourceRef,
			Title:     p.Title,
			Score:     p.Score,
		})
	}
	return sources
}
