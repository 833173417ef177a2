// Package identity records verified subjects and provisions the application
// records that hang off them.
package identity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/consultdesk/tracker-backend/internal/platform/logger"
	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

// CreatedHook runs inside the registration transaction after the identity
// row is written. A hook error rolls the whole registration back.
type CreatedHook interface {
	OnIdentityCreated(ctx context.Context, tx repository.Tx, identity *domain.Identity) error
}

// Registry is the leaf store of identities. It is the only writer of the
// identities table.
type Registry struct {
	store repository.Store
	hooks []CreatedHook
	now   func() time.Time
	log   *logger.Logger
}

func NewRegistry(store repository.Store, log *logger.Logger, hooks ...CreatedHook) *Registry {
	return &Registry{
		store: store,
		hooks: hooks,
		now:   time.Now,
		log:   log.With("component", "identity.registry"),
	}
}

// WithClock replaces the clock used for created_at.
func (r *Registry) WithClock(now func() time.Time) *Registry {
	r.now = now
	return r
}

// Register records a new identity and runs every hook in the same
// transaction. Registering an id twice fails with domain.ErrConflict and
// leaves the first registration untouched.
func (r *Registry) Register(ctx context.Context, in domain.NewIdentity) (*domain.Identity, error) {
	in.ID = strings.TrimSpace(in.ID)
	in.Email = strings.TrimSpace(in.Email)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	identity := &domain.Identity{
		ID:          in.ID,
		Email:       in.Email,
		DisplayName: in.DisplayName,
		CreatedAt:   r.now().UTC(),
	}

	err := r.store.WithinTx(ctx, func(tx repository.Tx) error {
		if err := tx.InsertIdentity(ctx, identity); err != nil {
			return err
		}
		for _, hook := range r.hooks {
			if err := hook.OnIdentityCreated(ctx, tx, identity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("register identity %q: %w", in.ID, err)
	}

	r.log.Info("identity registered", "identity_id", identity.ID)
	return identity, nil
}
