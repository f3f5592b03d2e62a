package entity

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind identifies what kind of content an ingestion item carries.
type ItemKind string

const (
	ItemKindWebPage ItemKind = "web_page"
	ItemKindFile    ItemKind = "file"
	ItemKindSnippet ItemKind = "snippet"
	ItemKindFAQ     ItemKind = "faq"
)

// Stage is the position of an item in the ingestion pipeline.
// Transitions only move forward, or to StageFailed which is terminal.
type Stage string

const (
	StageQueued      Stage = "queued"
	StageFetching    Stage = "fetching"
	StageFetched     Stage = "fetched"
	StageNormalizing Stage = "normalizing"
	StageNormalized  Stage = "normalized"
	StageChunking    Stage = "chunking"
	StageEmbedding   Stage = "embedding"
	StageIndexed     Stage = "indexed"
	StageFailed      Stage = "failed"
)

// stageOrder encodes the forward edges of the pipeline. StageFailed is
// reachable from any non-terminal stage and has no outgoing edge.
var stageOrder = map[Stage]int{
	StageQueued:      0,
	StageFetching:    1,
	StageFetched:     2,
	StageNormalizing: 3,
	StageNormalized:  4,
	StageChunking:    5,
	StageEmbedding:   6,
	StageIndexed:     7,
}

// Terminal reports whether the stage allows no further transitions.
func (s Stage) Terminal() bool {
	return s == StageIndexed || s == StageFailed
}

// CanTransitionTo validates a stage transition against the state machine.
func (s Stage) CanTransitionTo(next Stage) bool {
	if s.Terminal() {
		return false
	}
	if next == StageFailed {
		return true
	}
	from, ok := stageOrder[s]
	if !ok {
		return false
	}
	to, ok := stageOrder[next]
	if !ok {
		return false
	}
	return to > from
}

// ReasonQuotaExceeded is the distinguished StageError reason set when an
// item is rejected by the tenant storage quota gate.
const ReasonQuotaExceeded = "QUOTA_EXCEEDED"

type IngestionItem struct {
	Id           uuid.UUID
	TenantId     uuid.UUID
	Kind         ItemKind
	SourceRef    string
	Title        string
	RawContent   *string
	CleanContent *string
	Stage        Stage
	StageError   *string
	Attempts     int
	ChunkCount   int
	ByteSize     int64
	CreatedAt    time.Time
	UpdatedAt    *time.Time
}
