package identity

import (
	"context"
	"fmt"
	"strings"

	"github.com/consultdesk/tracker-backend/internal/tracker/domain"
	"github.com/consultdesk/tracker-backend/internal/tracker/policy"
	"github.com/consultdesk/tracker-backend/internal/tracker/repository"
)

// ProfileProvisioner creates the Profile for every new identity. New
// profiles always start as consultants.
type ProfileProvisioner struct{}

// OnIdentityCreated acts as the new subject itself, so the profile passes the
// same Profile/create rule as any other caller.
func (ProfileProvisioner) OnIdentityCreated(ctx context.Context, tx repository.Tx, identity *domain.Identity) error {
	profile := &domain.Profile{
		ID:        identity.ID,
		Name:      ProfileName(identity),
		Email:     identity.Email,
		Role:      domain.RoleConsultant,
		CreatedAt: identity.CreatedAt,
	}
	if !policy.CanPerform(domain.ActorFromProfile(profile), policy.OpCreate, policy.KindProfile, profile) {
		return fmt.Errorf("provision profile %q: %w", identity.ID, domain.ErrPermissionDenied)
	}
	return tx.InsertProfile(ctx, profile)
}

// ProfileName is the trimmed display name, or the email's local part when
// the display name is missing or blank.
func ProfileName(identity *domain.Identity) string {
	if identity.DisplayName != nil {
		if name := strings.TrimSpace(*identity.DisplayName); name != "" {
			return name
		}
	}
	return domain.EmailLocalPart(identity.Email)
}
