package polyauth

import "context"

// LoginPassword runs the full password flow: verify the credential,
// issue an access/refresh pair, and return the account's identities so
// the caller can offer an identity switch.
func (e *Engine) LoginPassword(ctx context.Context, identifier, plainPassword, identityID, tenantID string) (*LoginResult, error) {
	account, err := e.VerifyPassword(ctx, identifier, plainPassword)
	if err != nil {
		return nil, err
	}
	return e.finishLogin(ctx, account, identityID, tenantID)
}

// LoginPhoneCode runs the full phone one-time-code flow.
func (e *Engine) LoginPhoneCode(ctx context.Context, phone, code, identityID, tenantID string) (*LoginResult, error) {
	account, err := e.VerifyPhoneCode(ctx, phone, code)
	if err != nil {
		return nil, err
	}
	return e.finishLogin(ctx, account, identityID, tenantID)
}

// LoginProvider runs the full external provider flow.
func (e *Engine) LoginProvider(ctx context.Context, code, phone, identityID, tenantID string) (*LoginResult, error) {
	account, err := e.VerifyExternalProvider(ctx, code, phone)
	if err != nil {
		return nil, err
	}
	return e.finishLogin(ctx, account, identityID, tenantID)
}

func (e *Engine) finishLogin(ctx context.Context, account *Account, identityID, tenantID string) (*LoginResult, error) {
	accessToken, err := e.IssueAccess(ctx, account.ID, identityID, tenantID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := e.IssueRefresh(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	identities, err := e.accounts.ListIdentities(ctx, account.ID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Account:      account,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		Identities:   identities,
	}, nil
}
