package contract

import (
	"context"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"

	"github.com/google/uuid"
)

type TenantQuotaRepository interface {
	FindByTenant(ctx context.Context, tenantId uuid.UUID) (*entity.TenantQuota, error)
	Upsert(ctx context.Context, quota *entity.TenantQuota) error

	// AddStorageUsed applies a single compare-and-increment: usage grows by
	// delta only if the result stays within the limit. Returns false when
	// the increment was refused. This is the authoritative quota gate; two
	// concurrent items cannot both pass a check only one should pass.
	AddStorageUsed(ctx context.Context, tenantId uuid.UUID, delta int64) (bool, error)
}
