package entity

import (
	"time"

	"github.com/google/uuid"
)

// TaskKind selects the completion variant a queued task requests.
type TaskKind string

const (
	TaskKindAnswer   TaskKind = "answer"
	TaskKindGreeting TaskKind = "greeting"
	TaskKindRedirect TaskKind = "redirect"
)

// TaskStatus is the lifecycle state of a queued external call.
// Pending -> Processing -> Resolved|Rejected, exactly once.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusProcessing TaskStatus = "processing"
	TaskStatusResolved   TaskStatus = "resolved"
	TaskStatusRejected   TaskStatus = "rejected"
)

// PromptMessage is one turn of the prompt sent to the completion service.
type PromptMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// TaskPayload carries everything the dispatch loop needs to execute the
// external call: prompts, prior turns and generation parameters.
type TaskPayload struct {
	SystemPrompt string          `json:"system_prompt"`
	UserPrompt   string          `json:"user_prompt"`
	History      []PromptMessage `json:"history,omitempty"`
	Temperature  float64         `json:"temperature,omitempty"`
	MaxTokens    int             `json:"max_tokens,omitempty"`
}

// TaskResult is the outcome of a resolved task. Token counts feed the
// billing log.
type TaskResult struct {
	Text             string `json:"text"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

type QueuedTask struct {
	Id           uuid.UUID
	TenantId     uuid.UUID
	Kind         TaskKind
	Payload      TaskPayload
	Status       TaskStatus
	Result       *TaskResult
	Error        *string
	CreatedAt    time.Time
	DispatchedAt *time.Time
	CompletedAt  *time.Time
}
