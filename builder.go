package polyauth

import (
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/polyauth/polyauth/internal/audit"
	"github.com/polyauth/polyauth/internal/limiters"
	"github.com/polyauth/polyauth/internal/stores"
	"github.com/polyauth/polyauth/jwt"
	"github.com/polyauth/polyauth/password"
)

// Builder assembles an Engine from explicit collaborators. Nothing is
// read from the environment or from globals; what you wire is what the
// engine uses.
type Builder struct {
	config      Config
	hasConfig   bool
	redisClient *redis.Client
	accounts    AccountStore
	provider    ProviderClient
	sms         SMSGateway
	auditSink   AuditSink
}

func NewBuilder() *Builder {
	return &Builder{}
}

// WithConfig replaces the defaults wholesale. Callers usually start
// from DefaultConfig and override fields.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	b.hasConfig = true
	return b
}

// WithRedis wires the client backing codes, cooldowns, and refresh
// tokens.
func (b *Builder) WithRedis(client *redis.Client) *Builder {
	b.redisClient = client
	return b
}

// WithAccountStore wires the durable account backend.
func (b *Builder) WithAccountStore(store AccountStore) *Builder {
	b.accounts = store
	return b
}

// WithProviderClient wires the external identity provider exchange.
// Optional; without it VerifyExternalProvider fails with
// ErrEngineNotReady.
func (b *Builder) WithProviderClient(client ProviderClient) *Builder {
	b.provider = client
	return b
}

// WithSMSGateway wires the code dispatch transport. Optional in
// DevMode, where codes are logged instead.
func (b *Builder) WithSMSGateway(gateway SMSGateway) *Builder {
	b.sms = gateway
	return b
}

// WithAuditSink wires the audit event consumer. Audit must also be
// enabled in the config for events to flow.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.auditSink = sink
	return b
}

// DefaultConfig returns the engine defaults. Signing key material has
// no default and must be supplied.
func DefaultConfig() Config {
	return defaultConfig()
}

// Build validates the configuration and collaborators and returns a
// ready engine.
func (b *Builder) Build() (*Engine, error) {
	cfg := defaultConfig()
	if b.hasConfig {
		cfg = b.config
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if b.redisClient == nil {
		return nil, fmt.Errorf("polyauth: builder: redis client is required")
	}
	if b.accounts == nil {
		return nil, fmt.Errorf("polyauth: builder: account store is required")
	}
	if b.sms == nil && !cfg.DevMode {
		return nil, fmt.Errorf("polyauth: builder: sms gateway is required outside dev mode")
	}

	tokens, err := jwt.NewManager(jwt.Config{
		Method:     jwt.Method(cfg.JWT.SigningMethod),
		SigningKey: cfg.JWT.SigningKey,
		VerifyKey:  cfg.JWT.VerifyKey,
		Issuer:     cfg.JWT.Issuer,
		AccessTTL:  cfg.JWT.AccessTTL,
		Leeway:     cfg.JWT.Leeway,
	})
	if err != nil {
		return nil, fmt.Errorf("polyauth: builder: %w", err)
	}

	e := &Engine{
		config:   cfg,
		accounts: b.accounts,
		provider: b.provider,
		sms:      b.sms,
		hasher: password.NewHasher(password.Params{
			Memory:      cfg.Password.Memory,
			Time:        cfg.Password.Time,
			Parallelism: cfg.Password.Parallelism,
			SaltLength:  cfg.Password.SaltLength,
			KeyLength:   cfg.Password.KeyLength,
		}),
		tokens:   tokens,
		codes:    stores.NewPhoneCodeStore(b.redisClient),
		refresh:  stores.NewRefreshStore(b.redisClient),
		cooldown: limiters.NewSendCooldown(b.redisClient, cfg.PhoneCode.SendCooldown),
		metrics:  NewMetrics(cfg.Metrics),
	}

	if cfg.Audit.Enabled {
		e.audit = audit.NewDispatcher(b.auditSink, cfg.Audit.BufferSize, cfg.Audit.DropIfFull)
	}

	return e, nil
}
