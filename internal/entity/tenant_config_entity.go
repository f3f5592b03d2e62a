package entity

import (
	"time"

	"github.com/google/uuid"
)

// TenantConfig holds the tenant-tunable answering knobs. Missing rows fall
// back to the engine defaults from config.
type TenantConfig struct {
	TenantId       uuid.UUID
	Persona        string
	ScoreThreshold float64
	UpdatedAt      *time.Time
}
