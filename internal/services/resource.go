package services

import (
	"context"
	"fmt"

	"oba/internal/core"
	"oba/internal/log"
)

// Resource implements list, read, create, update, delete and deleteAll for
// one entity. It validates forms before they reach the store and publishes a
// LedgerEvent after every committed write.
type Resource[E Entity, F Form] struct {
	entity string
	repo   Repository[E, F]
	events EventPublisher
	logger *log.Logger
	sl     *log.StructuredLogger
}

func NewResource[E Entity, F Form](entity string, repo Repository[E, F], events EventPublisher, logger *log.Logger) *Resource[E, F] {
	if events == nil {
		events = NopPublisher{}
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentLedger)
	return &Resource[E, F]{
		entity: entity,
		repo:   repo,
		events: events,
		logger: logger,
		sl:     log.NewStructuredLogger(logger),
	}
}

// Entity returns the entity name, e.g. "account".
func (r *Resource[E, F]) Entity() string {
	return r.entity
}

func (r *Resource[E, F]) List(ctx context.Context) ([]E, error) {
	items, err := r.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", r.entity, err)
	}
	return items, nil
}

func (r *Resource[E, F]) Read(ctx context.Context, id int64) (E, error) {
	e, err := r.repo.Get(ctx, id)
	if err != nil {
		var zero E
		return zero, fmt.Errorf("read %s: %w", r.entity, err)
	}
	return e, nil
}

// Create validates the form, stores it and returns the stored row.
func (r *Resource[E, F]) Create(ctx context.Context, form F) (E, error) {
	var zero E
	if err := form.Validate(); err != nil {
		return zero, err
	}

	e, err := r.repo.Insert(ctx, form)
	if err != nil {
		return zero, fmt.Errorf("create %s: %w", r.entity, err)
	}

	r.committed(ctx, log.OpCreate, core.ActionCreated, e.Key())
	return e, nil
}

// Update replaces every field of an existing row. A missing id is
// core.ErrNotFound.
func (r *Resource[E, F]) Update(ctx context.Context, id int64, form F) (E, error) {
	var zero E
	if err := form.Validate(); err != nil {
		return zero, err
	}

	e, err := r.repo.Update(ctx, id, form)
	if err != nil {
		return zero, fmt.Errorf("update %s: %w", r.entity, err)
	}

	r.committed(ctx, log.OpUpdate, core.ActionUpdated, e.Key())
	return e, nil
}

func (r *Resource[E, F]) Delete(ctx context.Context, id int64) error {
	if err := r.repo.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete %s: %w", r.entity, err)
	}
	r.committed(ctx, log.OpDelete, core.ActionDeleted, id)
	return nil
}

// DeleteAll empties the table. It fails without removing anything while any
// row is still referenced.
func (r *Resource[E, F]) DeleteAll(ctx context.Context) error {
	if err := r.repo.DeleteAll(ctx); err != nil {
		return fmt.Errorf("delete all %s: %w", r.entity, err)
	}
	r.committed(ctx, log.OpDeleteAll, core.ActionDeletedAll, 0)
	return nil
}

// committed logs the write and publishes its event. Publishing is best
// effort: the write already happened, so a broker failure is only logged.
func (r *Resource[E, F]) committed(ctx context.Context, op string, action core.Action, id int64) {
	r.sl.LogLedgerWrite(ctx, op, r.entity, id)

	event := core.NewLedgerEvent(r.entity, action, id)
	if err := r.events.PublishLedgerEvent(ctx, event); err != nil {
		r.sl.LogError(ctx, "Failed to publish ledger event", err, log.OpPublish,
			log.NewFields().WithEntity(r.entity, id))
	}
}
