package polyauth

import (
	"fmt"
	"time"
)

// Config carries every tunable of the engine. Zero values are filled
// from defaultConfig by the builder; Validate enforces hard bounds so
// a misconfigured engine fails at build time, not at login time.
type Config struct {
	JWT       JWTConfig
	Password  PasswordConfig
	PhoneCode PhoneCodeConfig
	Refresh   RefreshConfig
	Provider  ProviderConfig
	Audit     AuditConfig
	Metrics   MetricsConfig

	// DevMode makes SendPhoneCode log the generated code instead of
	// dispatching it through the SMS gateway. Never enable outside
	// local development.
	DevMode bool
}

// JWTConfig configures access token signing and verification.
type JWTConfig struct {
	// SigningMethod is "HS256" or "EdDSA".
	SigningMethod string
	// SigningKey is the HMAC secret for HS256 or the Ed25519 seed /
	// private key for EdDSA.
	SigningKey []byte
	// VerifyKey is the Ed25519 public key. Ignored for HS256.
	VerifyKey []byte
	Issuer    string
	AccessTTL time.Duration
	Leeway    time.Duration
}

// PasswordConfig holds the Argon2id cost parameters.
type PasswordConfig struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// PhoneCodeConfig configures the one-time phone code flow.
type PhoneCodeConfig struct {
	Digits       int
	TTL          time.Duration
	SendCooldown time.Duration
}

// RefreshConfig configures opaque refresh tokens.
type RefreshConfig struct {
	TTL time.Duration
}

// ProviderConfig names the external identity provider bindings are
// stored under.
type ProviderConfig struct {
	Name string
}

// AuditConfig controls the async audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events instead of blocking when the buffer is
	// full. Dropped counts are observable via Engine.AuditDropped.
	DropIfFull bool
}

// MetricsConfig controls the in-process counters.
type MetricsConfig struct {
	Enabled bool
	// EnableLatencyHistogram additionally records VerifyAccess
	// latencies.
	EnableLatencyHistogram bool
}

func defaultConfig() Config {
	return Config{
		JWT: JWTConfig{
			SigningMethod: "EdDSA",
			Issuer:        "polyauth",
			AccessTTL:     15 * time.Minute,
			Leeway:        30 * time.Second,
		},
		Password: PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		PhoneCode: PhoneCodeConfig{
			Digits:       6,
			TTL:          5 * time.Minute,
			SendCooldown: 60 * time.Second,
		},
		Refresh: RefreshConfig{
			TTL: 14 * 24 * time.Hour,
		},
		Provider: ProviderConfig{
			Name: "wechat",
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 256,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
	}
}

// Validate checks the configuration against the engine's hard bounds.
func (c Config) Validate() error {
	switch c.JWT.SigningMethod {
	case "HS256":
		if len(c.JWT.SigningKey) < 32 {
			return fmt.Errorf("polyauth: config: HS256 signing key must be at least 32 bytes")
		}
	case "EdDSA":
		if len(c.JWT.SigningKey) == 0 {
			return fmt.Errorf("polyauth: config: EdDSA requires a signing key")
		}
	default:
		return fmt.Errorf("polyauth: config: unsupported signing method %q", c.JWT.SigningMethod)
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.AccessTTL > 15*time.Minute {
		return fmt.Errorf("polyauth: config: access TTL must be in (0, 15m]")
	}
	if c.JWT.Leeway < 0 || c.JWT.Leeway > 2*time.Minute {
		return fmt.Errorf("polyauth: config: leeway must be in [0, 2m]")
	}
	if c.JWT.Issuer == "" {
		return fmt.Errorf("polyauth: config: issuer must not be empty")
	}

	if c.Password.Memory < 8*1024 {
		return fmt.Errorf("polyauth: config: argon2 memory below 8 MiB")
	}
	if c.Password.Time == 0 || c.Password.Parallelism == 0 {
		return fmt.Errorf("polyauth: config: argon2 time and parallelism must be positive")
	}
	if c.Password.SaltLength < 8 || c.Password.KeyLength < 16 {
		return fmt.Errorf("polyauth: config: argon2 salt/key lengths too small")
	}

	if c.PhoneCode.Digits < 4 || c.PhoneCode.Digits > 10 {
		return fmt.Errorf("polyauth: config: phone code digits must be in [4, 10]")
	}
	if c.PhoneCode.TTL <= 0 || c.PhoneCode.TTL > 15*time.Minute {
		return fmt.Errorf("polyauth: config: phone code TTL must be in (0, 15m]")
	}
	if c.PhoneCode.SendCooldown <= 0 || c.PhoneCode.SendCooldown > time.Hour {
		return fmt.Errorf("polyauth: config: send cooldown must be in (0, 1h]")
	}

	if c.Refresh.TTL <= 0 || c.Refresh.TTL > 90*24*time.Hour {
		return fmt.Errorf("polyauth: config: refresh TTL must be in (0, 90d]")
	}

	if c.Provider.Name == "" {
		return fmt.Errorf("polyauth: config: provider name must not be empty")
	}

	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return fmt.Errorf("polyauth: config: audit buffer size must be positive")
	}

	return nil
}
