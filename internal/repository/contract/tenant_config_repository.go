package contract

import (
	"context"

	"github.com/kunaldev758/chataffy-sub000/internal/entity"

	"github.com/google/uuid"
)

type TenantConfigRepository interface {
	// FindByTenant returns nil (not an error) when the tenant has no
	// stored config; callers fall back to engine defaults.
	FindByTenant(ctx context.Context, tenantId uuid.UUID) (*entity.TenantConfig, error)
	Upsert(ctx context.Context, config *entity.TenantConfig) error
}
