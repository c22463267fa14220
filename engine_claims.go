package polyauth

import "context"

// ClaimsPreference narrows claims resolution to a requested identity
// and tenant. Either field may be empty.
type ClaimsPreference struct {
	IdentityID string
	TenantID   string
}

// ResolveClaims computes the authorization context for an account: the
// acting identity, the full identity list, the resolved tenant, and
// the deduplicated role keys of the account's memberships in that
// tenant. A preferred identity is honored only when the account
// actually owns it; otherwise resolution falls back to the first
// identity in creation order. An account with no identities fails with
// ErrNoIdentityBound.
func (e *Engine) ResolveClaims(ctx context.Context, accountID string, preferred *ClaimsPreference) (*ClaimsBundle, error) {
	identities, err := e.accounts.ListIdentities(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if len(identities) == 0 {
		e.metricInc(MetricNoIdentityBound)
		e.emitAudit(ctx, auditEventNoIdentityBound, "", false, accountID, "", ErrNoIdentityBound, nil)
		return nil, ErrNoIdentityBound
	}

	current := identities[0]
	if preferred != nil && preferred.IdentityID != "" {
		for _, identity := range identities {
			if identity.ID == preferred.IdentityID {
				current = identity
				break
			}
		}
	}

	tenantID := current.TenantID
	if preferred != nil && preferred.TenantID != "" {
		tenantID = preferred.TenantID
	}

	memberships, err := e.accounts.ListMemberships(ctx, accountID, tenantID)
	if err != nil {
		return nil, err
	}

	// First-seen dedupe keeps the role order stable for a fixed
	// membership set, so tokens for the same account are comparable.
	seen := make(map[string]struct{}, len(memberships))
	roles := make([]string, 0, len(memberships))
	for _, m := range memberships {
		if _, dup := seen[m.RoleKey]; dup {
			continue
		}
		seen[m.RoleKey] = struct{}{}
		roles = append(roles, m.RoleKey)
	}

	return &ClaimsBundle{
		Current:    current,
		Identities: identities,
		Roles:      roles,
		TenantID:   tenantID,
	}, nil
}

// Identities lists the account's identities in creation order.
func (e *Engine) Identities(ctx context.Context, accountID string) ([]Identity, error) {
	return e.accounts.ListIdentities(ctx, accountID)
}
