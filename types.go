package polyauth

import (
	"context"
	"io"
	"time"

	"github.com/polyauth/polyauth/internal/audit"
	"github.com/polyauth/polyauth/jwt"
)

// IdentityType enumerates the personas an account may act as. The set
// is closed: values outside it are rejected at the store boundary and
// never reach a signed token.
type IdentityType string

const (
	IdentityConsumer IdentityType = "CONSUMER"
	IdentityMerchant IdentityType = "MERCHANT"
	IdentityWorker   IdentityType = "WORKER"
)

// Valid reports whether t is one of the known identity types.
func (t IdentityType) Valid() bool {
	switch t {
	case IdentityConsumer, IdentityMerchant, IdentityWorker:
		return true
	default:
		return false
	}
}

// Account is the durable login principal. PasswordHash holds a PHC
// format digest, or "" for accounts provisioned through phone or
// provider login that never set a password.
type Account struct {
	ID           string
	Email        string
	Phone        string
	PasswordHash string
	Active       bool
	CreatedAt    time.Time
}

// Identity is one persona of an account. TenantID is empty for
// tenant-less personas (typically consumers).
type Identity struct {
	ID          string
	AccountID   string
	TenantID    string
	Type        IdentityType
	DisplayName string
	CreatedAt   time.Time
}

// Membership grants an account a role within a tenant. RoleKey is the
// stable machine-readable key (e.g. "merchant.admin"), not the display
// name.
type Membership struct {
	ID                string
	AccountID         string
	TenantID          string
	RoleKey           string
	DefaultIdentityID string
}

// ProviderBinding links an account to an external identity provider
// subject. SecondaryID carries the provider's cross-application
// subject (unionid-style) when one exists.
type ProviderBinding struct {
	Provider    string
	SubjectID   string
	SecondaryID string
}

// ClaimsBundle is the resolved authorization context for one account
// at one moment: the identity it acts as, everything it could switch
// to, and the role keys scoped to the resolved tenant.
type ClaimsBundle struct {
	Current    Identity
	Identities []Identity
	Roles      []string
	TenantID   string
}

// AccessClaims is the decoded payload of a verified access token.
type AccessClaims = jwt.AccessClaims

// LoginResult is the outcome of a successful login flow.
type LoginResult struct {
	Account      *Account
	AccessToken  string
	RefreshToken string
	Identities   []Identity
}

// CreateAccountInput describes a new account plus its first identity.
// The store must create both, and the optional binding, in a single
// transaction.
type CreateAccountInput struct {
	Email           string
	Phone           string
	PasswordHash    string
	DefaultIdentity IdentityType
	DisplayName     string
	Binding         *ProviderBinding
}

// AccountUpdate is a partial update applied to an existing account.
// Nil/empty fields are left untouched.
type AccountUpdate struct {
	Phone   string
	Binding *ProviderBinding
}

// AccountStore is the durable storage collaborator. Implementations
// return ErrAccountNotFound for lookups that match nothing; every
// other error is treated as a backend failure and propagated.
type AccountStore interface {
	// FindAccountByIdentifier resolves an email or phone number.
	FindAccountByIdentifier(ctx context.Context, identifier string) (*Account, error)
	FindAccountByPhone(ctx context.Context, phone string) (*Account, error)
	FindAccountByProvider(ctx context.Context, provider, subjectID string) (*Account, error)
	CreateAccount(ctx context.Context, input CreateAccountInput) (*Account, error)
	UpdateAccount(ctx context.Context, accountID string, update AccountUpdate) (*Account, error)
	// ListIdentities returns the account's identities in creation order.
	ListIdentities(ctx context.Context, accountID string) ([]Identity, error)
	// ListMemberships returns memberships with their role keys joined
	// in. An empty tenantID returns memberships across all tenants.
	ListMemberships(ctx context.Context, accountID, tenantID string) ([]Membership, error)
}

// ProviderSession is the subject material returned by a successful
// provider code exchange. A zero SubjectID means the provider rejected
// the code.
type ProviderSession struct {
	SubjectID   string
	SecondaryID string
}

// ProviderClient exchanges a short-lived provider login code for the
// provider's stable subject identifiers.
type ProviderClient interface {
	ExchangeCode(ctx context.Context, code string) (ProviderSession, error)
}

// SMSGateway dispatches a text message. Implementations live outside
// the engine; see the sms package for adapters.
type SMSGateway interface {
	Send(ctx context.Context, phone, body string) error
}

// AuditEvent is re-exported so sinks can be implemented without
// importing internal packages.
type AuditEvent = audit.Event

// AuditSink consumes audit events emitted by the engine.
type AuditSink = audit.Sink

// ChannelSink forwards events to a channel; useful in tests.
type ChannelSink = audit.ChannelSink

// JSONWriterSink writes events as JSON lines.
type JSONWriterSink = audit.JSONWriterSink

// NoOpSink discards all events.
type NoOpSink = audit.NoOpSink

// NewChannelSink creates a ChannelSink with the given buffer capacity.
func NewChannelSink(buffer int) *ChannelSink {
	return audit.NewChannelSink(buffer)
}

// NewJSONWriterSink creates a JSONWriterSink that writes to w.
func NewJSONWriterSink(w io.Writer) *JSONWriterSink {
	return audit.NewJSONWriterSink(w)
}
