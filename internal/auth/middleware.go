package auth

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

// RequireIdentity rejects requests without a valid bearer token and stores
// the verified claims in the gin context.
func RequireIdentity(v Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "missing authorization token"})
			return
		}

		claims, err := v.Verify(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "invalid token"})
			return
		}

		c.Set(CtxClaims, claims)
		c.Next()
	}
}

// ActorResolver turns a verified identity id into the actor it acts as.
type ActorResolver interface {
	ResolveActor(ctx context.Context, identityID string) (domain.Actor, error)
}

// WithActor resolves the caller's profile into an Actor. An identity that
// has not been provisioned yet is refused with 403.
func WithActor(r ActorResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := ClaimsFrom(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"ok": false, "error": "user not authenticated"})
			return
		}

		actor, err := r.ResolveActor(c.Request.Context(), claims.UID)
		if errors.Is(err, domain.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"ok": false, "error": "profile not provisioned, call /auth/sync first"})
			return
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"ok": false, "error": "resolve actor failed"})
			return
		}

		c.Set(CtxActor, actor)
		c.Next()
	}
}

// StoreResolver resolves actors from the profiles table.
type StoreResolver struct {
	store repository.Store
}

func NewStoreResolver(store repository.Store) *StoreResolver {
	return &StoreResolver{store: store}
}

func (r *StoreResolver) ResolveActor(ctx context.Context, identityID string) (domain.Actor, error) {
	var actor domain.Actor
	err := r.store.View(ctx, func(tx repository.Tx) error {
		p, err := tx.GetProfile(ctx, identityID)
		if err != nil {
			return err
		}
		actor = domain.ActorFromProfile(p)
		return nil
	})
	return actor, err
}
