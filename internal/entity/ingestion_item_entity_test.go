package entity

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStageTerminal(t *testing.T) {
	assert.True(t, StageIndexed.Terminal())
	assert.True(t, StageFailed.Terminal())
	assert.False(t, StageQueued.Terminal())
	assert.False(t, StageEmbedding.Terminal())
}

func TestStageCanTransitionTo(t *testing.T) {
	tests := []struct {
		name string
		from Stage
		to   Stage
		want bool
	}{
		{"queued advances to fetching", StageQueued, StageFetching, true},
		{"stages may be skipped forward", StageQueued, StageNormalized, true},
		{"normalized advances to chunking", StageNormalized, StageChunking, true},
		{"embedding advances to indexed", StageEmbedding, StageIndexed, true},
		{"no backward transition", StageFetched, StageQueued, false},
		{"no self transition", StageChunking, StageChunking, false},
		{"any live stage may fail", StageFetching, StageFailed, true},
		{"indexed is terminal", StageIndexed, StageFailed, false},
		{"failed is terminal", StageFailed, StageQueued, false},
		{"unknown source stage", Stage("bogus"), StageFetched, false},
		{"unknown target stage", StageQueued, Stage("bogus"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransitionTo(tt.to))
		})
	}
}
