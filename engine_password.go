package polyauth

import (
	"context"
	"errors"
)

// VerifyPassword checks identifier (email or phone) and password
// against the account store. Unknown identifier, inactive account,
// passwordless account, and wrong password all return
// ErrInvalidCredentials; only backend failures look different.
func (e *Engine) VerifyPassword(ctx context.Context, identifier, plainPassword string) (*Account, error) {
	if identifier == "" || plainPassword == "" {
		e.metricInc(MetricPasswordLoginFailure)
		return nil, ErrInvalidCredentials
	}

	account, err := e.accounts.FindAccountByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			e.failPasswordLogin(ctx, "", ErrInvalidCredentials)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.Active || account.PasswordHash == "" {
		e.failPasswordLogin(ctx, account.ID, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	ok, err := e.hasher.Verify(plainPassword, account.PasswordHash)
	if err != nil || !ok {
		// A malformed stored digest is treated exactly like a
		// mismatch; the caller learns nothing about stored state.
		e.failPasswordLogin(ctx, account.ID, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	e.metricInc(MetricPasswordLoginSuccess)
	e.emitAudit(ctx, auditEventPasswordLoginSuccess, auditStrategyPassword, true, account.ID, "", nil, nil)
	return account, nil
}

// HashPassword derives a storable digest using the engine's configured
// cost parameters. Intended for account provisioning by integrators.
func (e *Engine) HashPassword(plainPassword string) (string, error) {
	return e.hasher.Hash(plainPassword)
}

func (e *Engine) failPasswordLogin(ctx context.Context, accountID string, err error) {
	e.metricInc(MetricPasswordLoginFailure)
	e.emitAudit(ctx, auditEventPasswordLoginFailure, auditStrategyPassword, false, accountID, "", err, nil)
}
