package polyauth

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/polyauth/polyauth/internal"
	"github.com/polyauth/polyauth/internal/limiters"
)

// SendPhoneCode generates a one-time numeric code for the phone
// number, stores it with the configured TTL, and dispatches it through
// the SMS gateway. A second send inside the cooldown window returns
// ErrRateLimited; a send for a phone with a pending code overwrites
// the old code. In DevMode the code is logged instead of dispatched.
func (e *Engine) SendPhoneCode(ctx context.Context, phone string) error {
	if phone == "" {
		return ErrInvalidCredentials
	}

	if err := e.cooldown.Reserve(ctx, phone); err != nil {
		if errors.Is(err, limiters.ErrCooldownActive) {
			e.metricInc(MetricPhoneCodeSendRateLimited)
			e.emitAudit(ctx, auditEventPhoneCodeRateLimited, auditStrategyPhoneCode, false, "", "", ErrRateLimited, func() map[string]string {
				return map[string]string{"phone": phone}
			})
			return ErrRateLimited
		}
		return err
	}

	code, err := internal.NewCode(e.config.PhoneCode.Digits)
	if err != nil {
		e.releaseSendWindow(ctx, phone)
		return err
	}

	if err := e.codes.Save(ctx, phone, code, e.config.PhoneCode.TTL); err != nil {
		e.releaseSendWindow(ctx, phone)
		return err
	}

	if e.config.DevMode {
		log.Printf("polyauth: dev mode: phone code for %s is %s", phone, code)
	} else {
		if e.sms == nil {
			return ErrEngineNotReady
		}
		body := fmt.Sprintf("Your verification code is %s. It expires in %d minutes.",
			code, int(e.config.PhoneCode.TTL.Minutes()))
		if err := e.sms.Send(ctx, phone, body); err != nil {
			// The code never reached the user: drop it and free the
			// window so an immediate retry is possible.
			if delErr := e.codes.Delete(ctx, phone); delErr != nil {
				log.Printf("polyauth: failed to drop undelivered code: %v", delErr)
			}
			e.releaseSendWindow(ctx, phone)

			e.metricInc(MetricPhoneCodeSendFailure)
			e.emitAudit(ctx, auditEventPhoneCodeSendFailure, auditStrategyPhoneCode, false, "", "", ErrSMSUnavailable, func() map[string]string {
				return map[string]string{"phone": phone}
			})
			return fmt.Errorf("%w: %v", ErrSMSUnavailable, err)
		}
	}

	e.metricInc(MetricPhoneCodeSent)
	e.emitAudit(ctx, auditEventPhoneCodeSent, auditStrategyPhoneCode, true, "", "", nil, func() map[string]string {
		return map[string]string{"phone": phone}
	})
	return nil
}

// VerifyPhoneCode checks the submitted code against the pending one
// for the phone number and consumes it on a match; a code verifies at
// most once even under concurrent submission. A phone number seen for
// the first time gets a fresh account with a default consumer
// identity.
func (e *Engine) VerifyPhoneCode(ctx context.Context, phone, code string) (*Account, error) {
	if phone == "" || code == "" {
		e.failPhoneLogin(ctx, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	matched, err := e.codes.Take(ctx, phone, code)
	if err != nil {
		return nil, err
	}
	if !matched {
		e.failPhoneLogin(ctx, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	account, err := e.accounts.FindAccountByPhone(ctx, phone)
	switch {
	case err == nil:
	case errors.Is(err, ErrAccountNotFound):
		account, err = e.registerAccount(ctx, CreateAccountInput{
			Phone:           phone,
			DefaultIdentity: IdentityConsumer,
			DisplayName:     "Consumer",
		})
		if err != nil {
			return nil, err
		}
	default:
		return nil, err
	}

	if !account.Active {
		e.failPhoneLogin(ctx, ErrInvalidCredentials)
		return nil, ErrInvalidCredentials
	}

	e.metricInc(MetricPhoneLoginSuccess)
	e.emitAudit(ctx, auditEventPhoneLoginSuccess, auditStrategyPhoneCode, true, account.ID, "", nil, nil)
	return account, nil
}

func (e *Engine) registerAccount(ctx context.Context, input CreateAccountInput) (*Account, error) {
	account, err := e.accounts.CreateAccount(ctx, input)
	if err != nil {
		return nil, err
	}

	e.metricInc(MetricAccountRegistered)
	e.emitAudit(ctx, auditEventAccountRegistered, "", true, account.ID, "", nil, func() map[string]string {
		return map[string]string{"identity_type": string(input.DefaultIdentity)}
	})
	return account, nil
}

func (e *Engine) failPhoneLogin(ctx context.Context, err error) {
	e.metricInc(MetricPhoneLoginFailure)
	e.emitAudit(ctx, auditEventPhoneLoginFailure, auditStrategyPhoneCode, false, "", "", err, nil)
}

func (e *Engine) releaseSendWindow(ctx context.Context, phone string) {
	if err := e.cooldown.Release(ctx, phone); err != nil {
		log.Printf("polyauth: failed to release send cooldown: %v", err)
	}
}
