package polyauth

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	return mr, rdb
}

func testConfig() Config {
	cfg := defaultConfig()
	cfg.JWT.SigningMethod = "HS256"
	cfg.JWT.SigningKey = []byte("test-signing-key-of-32-bytes-ok!")
	cfg.DevMode = true
	return cfg
}

func newTestEngine(t *testing.T, rdb *redis.Client, store AccountStore, mutate func(*Config)) *Engine {
	t.Helper()

	cfg := testConfig()
	if mutate != nil {
		mutate(&cfg)
	}

	builder := NewBuilder().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(store)

	engine, err := builder.Build()
	if err != nil {
		t.Fatalf("build engine: %v", err)
	}
	t.Cleanup(engine.Close)

	return engine
}

// mockAccountStore is a map-backed AccountStore with injectable
// failures.
type mockAccountStore struct {
	mu          sync.Mutex
	accounts    map[string]Account
	identities  map[string][]Identity
	memberships map[string][]Membership
	bindings    map[string]string
	created     []CreateAccountInput
	nextID      int

	failFind   error
	failCreate error
}

func newMockAccountStore() *mockAccountStore {
	return &mockAccountStore{
		accounts:    make(map[string]Account),
		identities:  make(map[string][]Identity),
		memberships: make(map[string][]Membership),
		bindings:    make(map[string]string),
	}
}

func (m *mockAccountStore) putAccount(a Account) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts[a.ID] = a
}

func (m *mockAccountStore) putIdentity(i Identity) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.identities[i.AccountID] = append(m.identities[i.AccountID], i)
}

func (m *mockAccountStore) putMembership(mb Membership) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.memberships[mb.AccountID] = append(m.memberships[mb.AccountID], mb)
}

func (m *mockAccountStore) putBinding(provider, subjectID, accountID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bindings[provider+":"+subjectID] = accountID
}

func (m *mockAccountStore) FindAccountByIdentifier(_ context.Context, identifier string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFind != nil {
		return nil, m.failFind
	}
	for _, a := range m.accounts {
		if a.Email == identifier || (a.Phone != "" && a.Phone == identifier) {
			account := a
			return &account, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *mockAccountStore) FindAccountByPhone(_ context.Context, phone string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFind != nil {
		return nil, m.failFind
	}
	for _, a := range m.accounts {
		if a.Phone != "" && a.Phone == phone {
			account := a
			return &account, nil
		}
	}
	return nil, ErrAccountNotFound
}

func (m *mockAccountStore) FindAccountByProvider(_ context.Context, provider, subjectID string) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFind != nil {
		return nil, m.failFind
	}
	id, ok := m.bindings[provider+":"+subjectID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	account := m.accounts[id]
	return &account, nil
}

func (m *mockAccountStore) CreateAccount(_ context.Context, input CreateAccountInput) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreate != nil {
		return nil, m.failCreate
	}

	m.nextID++
	account := Account{
		ID:           fmt.Sprintf("acct-%d", m.nextID),
		Email:        input.Email,
		Phone:        input.Phone,
		PasswordHash: input.PasswordHash,
		Active:       true,
		CreatedAt:    time.Now(),
	}
	m.accounts[account.ID] = account
	m.identities[account.ID] = []Identity{{
		ID:          fmt.Sprintf("ident-%d", m.nextID),
		AccountID:   account.ID,
		Type:        input.DefaultIdentity,
		DisplayName: input.DisplayName,
		CreatedAt:   time.Now(),
	}}
	if input.Binding != nil {
		m.bindings[input.Binding.Provider+":"+input.Binding.SubjectID] = account.ID
	}
	m.created = append(m.created, input)
	return &account, nil
}

func (m *mockAccountStore) UpdateAccount(_ context.Context, accountID string, update AccountUpdate) (*Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	account, ok := m.accounts[accountID]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if update.Phone != "" && account.Phone == "" {
		account.Phone = update.Phone
	}
	if update.Binding != nil {
		m.bindings[update.Binding.Provider+":"+update.Binding.SubjectID] = accountID
	}
	m.accounts[accountID] = account
	return &account, nil
}

func (m *mockAccountStore) ListIdentities(_ context.Context, accountID string) ([]Identity, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Identity(nil), m.identities[accountID]...), nil
}

func (m *mockAccountStore) ListMemberships(_ context.Context, accountID, tenantID string) ([]Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []Membership
	for _, mb := range m.memberships[accountID] {
		if tenantID == "" || mb.TenantID == tenantID {
			out = append(out, mb)
		}
	}
	return out, nil
}
