package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
)

const (
	CtxClaims = "auth_claims"
	CtxActor  = "auth_actor"
)

// ClaimsFrom returns the verified token claims set by RequireIdentity.
func ClaimsFrom(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok && claims != nil && strings.TrimSpace(claims.UID) != ""
}

// ActorFrom returns the actor set by WithActor, or the zero (unauthenticated)
// actor.
func ActorFrom(c *gin.Context) domain.Actor {
	v, ok := c.Get(CtxActor)
	if !ok {
		return domain.Actor{}
	}
	actor, _ := v.(domain.Actor)
	return actor
}

func extractToken(c *gin.Context) string {
	bearerToken := c.GetHeader("Authorization")
	if len(bearerToken) > 7 && strings.EqualFold(bearerToken[:7], "Bearer ") {
		return strings.TrimSpace(bearerToken[7:])
	}
	return ""
}
