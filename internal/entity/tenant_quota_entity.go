package entity

import (
	"time"

	"github.com/google/uuid"
)

// TenantQuota is the authoritative storage gate for a tenant.
// StorageUsedBytes is incremented only after a successful index upsert.
type TenantQuota struct {
	TenantId           uuid.UUID
	StorageUsedBytes   int64
	StorageLimitBytes  int64
	RequestsThisWindow int
	UpdatedAt          *time.Time
}

// Remaining returns how many bytes the tenant may still index.
func (q *TenantQuota) Remaining() int64 {
	r := q.StorageLimitBytes - q.StorageUsedBytes
	if r < 0 {
		return 0
	}
	return r
}
