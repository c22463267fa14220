// Package sms provides adapters for the engine's SMS gateway
// collaborator. Production transports (Twilio, Aliyun, an internal
// relay) are the integrator's concern; this package only smooths the
// wiring.
package sms

import (
	"context"
	"log"
)

// Func adapts a plain function to the gateway contract.
type Func func(ctx context.Context, phone, body string) error

func (f Func) Send(ctx context.Context, phone, body string) error {
	return f(ctx, phone, body)
}

// LogGateway writes messages to a logger instead of sending them.
// For development and tests only.
type LogGateway struct {
	// Logger defaults to the standard logger.
	Logger *log.Logger
}

func (g *LogGateway) Send(_ context.Context, phone, body string) error {
	if g.Logger != nil {
		g.Logger.Printf("sms to %s: %s", phone, body)
		return nil
	}
	log.Printf("sms to %s: %s", phone, body)
	return nil
}
