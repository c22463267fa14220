package polyauth

import (
	"testing"
	"time"
)

func TestConfigValidateDefaults(t *testing.T) {
	cfg := testConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("test config must validate: %v", err)
	}
}

func TestConfigValidateRejections(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"short hs256 key", func(c *Config) { c.JWT.SigningKey = []byte("short") }},
		{"unknown method", func(c *Config) { c.JWT.SigningMethod = "RS512" }},
		{"zero access ttl", func(c *Config) { c.JWT.AccessTTL = 0 }},
		{"oversized access ttl", func(c *Config) { c.JWT.AccessTTL = time.Hour }},
		{"empty issuer", func(c *Config) { c.JWT.Issuer = "" }},
		{"tiny argon memory", func(c *Config) { c.Password.Memory = 1024 }},
		{"zero argon time", func(c *Config) { c.Password.Time = 0 }},
		{"code too short", func(c *Config) { c.PhoneCode.Digits = 3 }},
		{"code ttl too long", func(c *Config) { c.PhoneCode.TTL = time.Hour }},
		{"zero cooldown", func(c *Config) { c.PhoneCode.SendCooldown = 0 }},
		{"zero refresh ttl", func(c *Config) { c.Refresh.TTL = 0 }},
		{"refresh ttl too long", func(c *Config) { c.Refresh.TTL = 365 * 24 * time.Hour }},
		{"empty provider name", func(c *Config) { c.Provider.Name = "" }},
		{"audit enabled without buffer", func(c *Config) { c.Audit.Enabled = true; c.Audit.BufferSize = 0 }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := testConfig()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestBuilderRequiresCollaborators(t *testing.T) {
	_, rdb := newTestRedis(t)

	if _, err := NewBuilder().WithConfig(testConfig()).WithAccountStore(newMockAccountStore()).Build(); err == nil {
		t.Fatal("expected error without redis")
	}
	if _, err := NewBuilder().WithConfig(testConfig()).WithRedis(rdb).Build(); err == nil {
		t.Fatal("expected error without account store")
	}

	cfg := testConfig()
	cfg.DevMode = false
	if _, err := NewBuilder().WithConfig(cfg).WithRedis(rdb).WithAccountStore(newMockAccountStore()).Build(); err == nil {
		t.Fatal("expected error without sms gateway outside dev mode")
	}
}

func TestIdentityTypeValid(t *testing.T) {
	for _, valid := range []IdentityType{IdentityConsumer, IdentityMerchant, IdentityWorker} {
		if !valid.Valid() {
			t.Fatalf("%s must be valid", valid)
		}
	}
	for _, invalid := range []IdentityType{"", "ADMIN", "consumer"} {
		if invalid.Valid() {
			t.Fatalf("%q must be invalid", invalid)
		}
	}
}
