package polyauth

import (
	"github.com/polyauth/polyauth/internal/audit"
	"github.com/polyauth/polyauth/internal/limiters"
	"github.com/polyauth/polyauth/internal/stores"
	"github.com/polyauth/polyauth/jwt"
	"github.com/polyauth/polyauth/password"
)

// Engine verifies credentials, resolves claims, and issues tokens for
// multi-identity, multi-tenant accounts. Construct one with a Builder;
// the zero value is not usable. All methods are safe for concurrent
// use.
type Engine struct {
	config   Config
	accounts AccountStore
	provider ProviderClient
	sms      SMSGateway

	hasher   *password.Hasher
	tokens   *jwt.Manager
	codes    *stores.PhoneCodeStore
	refresh  *stores.RefreshStore
	cooldown *limiters.SendCooldown

	audit   *audit.Dispatcher
	metrics *Metrics
}

// Config returns a copy of the effective configuration.
func (e *Engine) Config() Config {
	return e.config
}

// Metrics exposes the engine's counters for polling.
func (e *Engine) Metrics() *Metrics {
	return e.metrics
}

// AuditDropped reports how many audit events were discarded because
// the dispatch buffer was full.
func (e *Engine) AuditDropped() uint64 {
	return e.audit.Dropped()
}

// Close drains the audit dispatcher. The engine must not be used
// afterwards.
func (e *Engine) Close() {
	e.audit.Close()
}

func (e *Engine) metricInc(id MetricID) {
	e.metrics.Inc(id)
}
