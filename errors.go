package polyauth

import "errors"

var (
	// ErrInvalidCredentials is returned for every credential mismatch:
	// unknown identifier, wrong password, wrong or expired phone code,
	// failed provider exchange. The value is deliberately identical for
	// all of these so callers cannot distinguish which check failed.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrUnauthorized is returned for every rejected token: bad
	// signature, expired, malformed, or a refresh token that is absent
	// from the cache (revoked and expired are indistinguishable).
	ErrUnauthorized = errors.New("unauthorized")

	// ErrNoIdentityBound indicates an account with zero identities
	// reached claims resolution. This is a provisioning defect, not a
	// caller error; it is surfaced upward as a hard failure and audited
	// separately so operators can find the broken account.
	ErrNoIdentityBound = errors.New("no identity bound to this account")

	// ErrRateLimited is returned when a phone-code send is requested
	// while the per-phone cooldown window is still active.
	ErrRateLimited = errors.New("rate limited")

	// ErrProviderUnavailable reports a transport-level failure talking
	// to the external identity provider. Not a credential error.
	ErrProviderUnavailable = errors.New("identity provider unavailable")

	// ErrSMSUnavailable reports a failed SMS dispatch. The cooldown is
	// released so the caller may retry immediately.
	ErrSMSUnavailable = errors.New("sms gateway unavailable")

	// ErrAccountNotFound is the sentinel AccountStore implementations
	// return for lookups that match no account. The engine maps it to
	// ErrInvalidCredentials on credential paths.
	ErrAccountNotFound = errors.New("account not found")

	// ErrEngineNotReady is returned when an Engine method requires a
	// collaborator that was never wired in.
	ErrEngineNotReady = errors.New("engine not initialized")
)
