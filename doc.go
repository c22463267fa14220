// Package polyauth is an embeddable authentication engine for systems
// where one account can act through several identities (consumer,
// merchant staff, platform worker) across several tenants.
//
// The engine verifies credentials over three strategies — password,
// phone one-time code, and an external identity provider exchange —
// resolves the account's identities and tenant-scoped roles into a
// claims bundle, and issues a signed access token plus an opaque,
// revocable refresh token.
//
// Durable accounts live behind the AccountStore interface (a
// PostgreSQL implementation ships in store/postgres); one-time codes,
// send cooldowns, and refresh token mappings live in Redis. Engines
// are assembled with a Builder:
//
//	engine, err := polyauth.NewBuilder().
//		WithConfig(cfg).
//		WithRedis(redisClient).
//		WithAccountStore(store).
//		WithSMSGateway(gateway).
//		Build()
//
// All verification failures collapse into two sentinel errors,
// ErrInvalidCredentials for credential checks and ErrUnauthorized for
// token checks, so the engine never leaks which part of a check
// failed.
package polyauth
