package dto

import "github.com/google/uuid"

type AnswerRequest struct {
	ConversationId uuid.UUID `json:"conversation_id"`
	Question       string    `json:"question"`
}

type UsedSource struct {
	ItemId    uuid.UUID `json:"item_id"`
	SourceRef string    `json:"source_ref"`
	Title     string    `json:"title,omitempty"`
	Score     float64   `json:"score"`
}

type AnswerResponse struct {
	Text        string       `json:"text"`
	UsedSources []UsedSource `json:"used_sources"`
	Success     bool         `json:"success"`
}
