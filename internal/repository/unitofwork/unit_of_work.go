package unitofwork

import (
	"context"

	"github.com/kunaldev758/chataffy-sub000/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	IngestionItemRepository() contract.IngestionItemRepository
	QueuedTaskRepository() contract.QueuedTaskRepository
	TenantQuotaRepository() contract.TenantQuotaRepository
	TenantConfigRepository() contract.TenantConfigRepository
	ConversationTurnRepository() contract.ConversationTurnRepository
}
