package polyauth

import (
	"context"
	"errors"
	"fmt"
)

// VerifyExternalProvider exchanges a provider login code for the
// provider's subject identifiers and resolves them to an account:
// an account already bound to the subject is returned as-is, an
// account matching the supplemental phone number gets the binding
// attached, and otherwise a fresh account with a default consumer
// identity is created. The phone number, when given, is backfilled
// onto accounts that have none and never overwrites an existing one.
func (e *Engine) VerifyExternalProvider(ctx context.Context, code, phone string) (*Account, error) {
	if e.provider == nil {
		return nil, ErrEngineNotReady
	}
	if code == "" {
		e.failProviderLogin(ctx, "", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	session, err := e.provider.ExchangeCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	if session.SubjectID == "" {
		e.failProviderLogin(ctx, "", ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	account, err := e.resolveProviderAccount(ctx, session, phone)
	if err != nil {
		return nil, err
	}

	if !account.Active {
		e.failProviderLogin(ctx, account.ID, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	e.metricInc(MetricProviderLoginSuccess)
	e.emitAudit(ctx, auditEventProviderLoginSuccess, auditStrategyProvider, true, account.ID, "", nil, nil)
	return account, nil
}

func (e *Engine) resolveProviderAccount(ctx context.Context, session ProviderSession, phone string) (*Account, error) {
	providerName := e.config.Provider.Name

	account, err := e.accounts.FindAccountByProvider(ctx, providerName, session.SubjectID)
	switch {
	case err == nil:
		if phone != "" && account.Phone == "" {
			return e.accounts.UpdateAccount(ctx, account.ID, AccountUpdate{Phone: phone})
		}
		return account, nil
	case errors.Is(err, ErrAccountNotFound):
	default:
		return nil, err
	}

	binding := &ProviderBinding{
		Provider:    providerName,
		SubjectID:   session.SubjectID,
		SecondaryID: session.SecondaryID,
	}

	// The subject is new. If the supplemental phone already belongs to
	// an account, bind the subject there rather than minting a
	// duplicate principal for the same person.
	if phone != "" {
		account, err = e.accounts.FindAccountByPhone(ctx, phone)
		switch {
		case err == nil:
			return e.accounts.UpdateAccount(ctx, account.ID, AccountUpdate{Binding: binding})
		case errors.Is(err, ErrAccountNotFound):
		default:
			return nil, err
		}
	}

	return e.registerAccount(ctx, CreateAccountInput{
		Phone:           phone,
		DefaultIdentity: IdentityConsumer,
		DisplayName:     "Consumer",
		Binding:         binding,
	})
}

func (e *Engine) failProviderLogin(ctx context.Context, accountID string, err error) {
	e.metricInc(MetricProviderLoginFailure)
	e.emitAudit(ctx, auditEventProviderLoginFailure, auditStrategyProvider, false, accountID, "", err, nil)
}
