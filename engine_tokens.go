package polyauth

import (
	"context"
	"errors"
	"time"

	"github.com/polyauth/polyauth/internal"
	"github.com/polyauth/polyauth/internal/stores"
)

// IssueAccess resolves claims for the account and signs a short-lived
// access token for them. identityID and tenantID are preferences, not
// assertions: resolution falls back to the account's own identities.
func (e *Engine) IssueAccess(ctx context.Context, accountID, identityID, tenantID string) (string, error) {
	bundle, err := e.ResolveClaims(ctx, accountID, &ClaimsPreference{
		IdentityID: identityID,
		TenantID:   tenantID,
	})
	if err != nil {
		return "", err
	}

	token, err := e.tokens.CreateAccess(accountID, bundle.Current.ID, string(bundle.Current.Type), bundle.TenantID, bundle.Roles)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricAccessIssued)
	e.emitAudit(ctx, auditEventAccessIssued, auditStrategyToken, true, accountID, bundle.TenantID, nil, nil)
	return token, nil
}

// VerifyAccess checks the token's signature and temporal claims and
// returns the decoded claims. Every rejection is ErrUnauthorized; the
// token holder learns nothing about the reason.
func (e *Engine) VerifyAccess(token string) (*AccessClaims, error) {
	start := time.Now()
	claims, err := e.tokens.ParseAccess(token)
	e.metrics.Observe(MetricVerifyAccessLatency, time.Since(start))

	if err != nil {
		e.metricInc(MetricAccessRejected)
		return nil, ErrUnauthorized
	}
	return claims, nil
}

// IssueRefresh mints an opaque refresh token for the account and
// records its hash in the cache with the configured TTL. The returned
// plaintext is the only copy.
func (e *Engine) IssueRefresh(ctx context.Context, accountID string) (string, error) {
	token, err := internal.NewOpaqueToken()
	if err != nil {
		return "", err
	}

	if err := e.refresh.Put(ctx, internal.HashToken(token), accountID, e.config.Refresh.TTL); err != nil {
		return "", err
	}

	e.metricInc(MetricRefreshIssued)
	e.emitAudit(ctx, auditEventRefreshIssued, auditStrategyToken, true, accountID, "", nil, nil)
	return token, nil
}

// VerifyRefresh resolves a refresh token to its account id without
// consuming it. Revoked and expired tokens are indistinguishable: both
// are ErrUnauthorized. Cache transport failures propagate as-is so
// callers do not treat an outage as a revocation.
func (e *Engine) VerifyRefresh(ctx context.Context, token string) (string, error) {
	if token == "" {
		e.metricInc(MetricRefreshRejected)
		return "", ErrUnauthorized
	}

	accountID, err := e.refresh.Get(ctx, internal.HashToken(token))
	if err != nil {
		if errors.Is(err, stores.ErrTokenNotFound) {
			e.metricInc(MetricRefreshRejected)
			e.emitAudit(ctx, auditEventRefreshRejected, auditStrategyToken, false, "", "", ErrUnauthorized, nil)
			return "", ErrUnauthorized
		}
		return "", err
	}

	e.metricInc(MetricRefreshVerified)
	return accountID, nil
}

// RevokeRefresh invalidates a refresh token. Revoking an unknown or
// already-revoked token succeeds; the post-condition is identical.
func (e *Engine) RevokeRefresh(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}

	if err := e.refresh.Delete(ctx, internal.HashToken(token)); err != nil {
		return err
	}

	e.metricInc(MetricRefreshRevoked)
	e.emitAudit(ctx, auditEventRefreshRevoked, auditStrategyToken, true, "", "", nil, nil)
	return nil
}

// SwitchIdentity verifies a live access token and re-issues one for
// the same account acting as the requested identity and tenant. The
// new token is a plain re-resolution: an identity the account does not
// own falls back exactly as in IssueAccess.
func (e *Engine) SwitchIdentity(ctx context.Context, accessToken, identityID, tenantID string) (string, error) {
	claims, err := e.VerifyAccess(accessToken)
	if err != nil {
		return "", err
	}

	token, err := e.IssueAccess(ctx, claims.Subject, identityID, tenantID)
	if err != nil {
		return "", err
	}

	e.metricInc(MetricIdentitySwitched)
	e.emitAudit(ctx, auditEventIdentitySwitched, auditStrategyToken, true, claims.Subject, tenantID, nil, func() map[string]string {
		return map[string]string{"identity_id": identityID}
	})
	return token, nil
}
