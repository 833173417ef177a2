package bootstrap

import (
	"context"
	"fmt"
	"strings"

	"github.com/consultdesk/tracker-backend/config"
	"github.com/consultdesk/tracker-backend/internal/auth"
)

func NewVerifier(ctx context.Context, cfg *config.AuthConfig) (auth.Verifier, error) {
	switch strings.ToLower(cfg.Mode) {
	case "firebase":
		client, err := auth.InitializeFirebase(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return auth.NewFirebaseVerifier(client), nil
	case "jwt":
		return auth.NewJWTVerifier(cfg.JWTSecret, cfg.JWTIssuer), nil
	default:
		return nil, fmt.Errorf("unknown auth mode %q", cfg.Mode)
	}
}
