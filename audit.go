package polyauth

import (
	"context"
	"errors"
	"time"
)

const (
	auditEventPasswordLoginSuccess = "password_login_success"
	auditEventPasswordLoginFailure = "password_login_failure"
	auditEventPhoneCodeSent        = "phone_code_sent"
	auditEventPhoneCodeRateLimited = "phone_code_rate_limited"
	auditEventPhoneCodeSendFailure = "phone_code_send_failure"
	auditEventPhoneLoginSuccess    = "phone_login_success"
	auditEventPhoneLoginFailure    = "phone_login_failure"
	auditEventProviderLoginSuccess = "provider_login_success"
	auditEventProviderLoginFailure = "provider_login_failure"
	auditEventAccountRegistered    = "account_registered"
	auditEventAccessIssued         = "access_issued"
	auditEventRefreshIssued        = "refresh_issued"
	auditEventRefreshRejected      = "refresh_rejected"
	auditEventRefreshRevoked       = "refresh_revoked"
	auditEventIdentitySwitched     = "identity_switched"
	auditEventNoIdentityBound      = "no_identity_bound"
)

const (
	auditStrategyPassword  = "password"
	auditStrategyPhoneCode = "phone_code"
	auditStrategyProvider  = "provider"
	auditStrategyToken     = "token"
)

// AuditErrorCode is the stable failure classification carried on audit
// events.
type AuditErrorCode string

const (
	auditErrInvalidCredentials  AuditErrorCode = "invalid_credentials"
	auditErrUnauthorized        AuditErrorCode = "unauthorized"
	auditErrNoIdentityBound     AuditErrorCode = "no_identity_bound"
	auditErrRateLimited         AuditErrorCode = "rate_limited"
	auditErrProviderUnavailable AuditErrorCode = "provider_unavailable"
	auditErrSMSUnavailable      AuditErrorCode = "sms_unavailable"
	auditErrInternal            AuditErrorCode = "internal_error"
)

func (e *Engine) emitAudit(
	ctx context.Context,
	eventType string,
	strategy string,
	success bool,
	accountID string,
	tenantID string,
	err error,
	metadataBuilder func() map[string]string,
) {
	if e == nil || e.audit == nil {
		return
	}

	var metadata map[string]string
	if metadataBuilder != nil {
		metadata = metadataBuilder()
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		AccountID: accountID,
		TenantID:  tenantID,
		Strategy:  strategy,
		IP:        clientIPFromContext(ctx),
		Success:   success,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	e.audit.Emit(ctx, event)
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrUnauthorized):
		return auditErrUnauthorized
	case errors.Is(err, ErrNoIdentityBound):
		return auditErrNoIdentityBound
	case errors.Is(err, ErrRateLimited):
		return auditErrRateLimited
	case errors.Is(err, ErrProviderUnavailable):
		return auditErrProviderUnavailable
	case errors.Is(err, ErrSMSUnavailable):
		return auditErrSMSUnavailable
	default:
		return auditErrInternal
	}
}
