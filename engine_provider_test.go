package polyauth

import (
	"context"
	"errors"
	"testing"
)

type mockProviderClient struct {
	sessions map[string]ProviderSession
	err      error
}

func (m *mockProviderClient) ExchangeCode(_ context.Context, code string) (ProviderSession, error) {
	if m.err != nil {
		return ProviderSession{}, m.err
	}
	return m.sessions[code], nil
}

func newProviderEngine(t *testing.T, store *mockAccountStore, client ProviderClient) *Engine {
	t.Helper()

	_, rdb := newTestRedis(t)

	cfg := testConfig()
	engine, err := NewBuilder().
		WithConfig(cfg).
		WithRedis(rdb).
		WithAccountStore(store).
		WithProviderClient(client).
		Build()
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	t.Cleanup(engine.Close)
	return engine
}

func TestVerifyExternalProviderExistingBinding(t *testing.T) {
	store := newMockAccountStore()
	store.putAccount(Account{ID: "acct-bound", Phone: "+8613800000009", Active: true})
	store.putBinding("wechat", "openid-1", "acct-bound")

	engine := newProviderEngine(t, store, &mockProviderClient{
		sessions: map[string]ProviderSession{"good-code": {SubjectID: "openid-1"}},
	})

	account, err := engine.VerifyExternalProvider(context.Background(), "good-code", "")
	if err != nil {
		t.Fatalf("VerifyExternalProvider failed: %v", err)
	}
	if account.ID != "acct-bound" {
		t.Fatalf("resolved %s, want acct-bound", account.ID)
	}
	if len(store.created) != 0 {
		t.Fatal("must not create an account for a known binding")
	}
}

func TestVerifyExternalProviderCreatesAccount(t *testing.T) {
	store := newMockAccountStore()
	engine := newProviderEngine(t, store, &mockProviderClient{
		sessions: map[string]ProviderSession{"good-code": {SubjectID: "openid-new", SecondaryID: "unionid-new"}},
	})

	account, err := engine.VerifyExternalProvider(context.Background(), "good-code", "+8613800000010")
	if err != nil {
		t.Fatalf("VerifyExternalProvider failed: %v", err)
	}
	if account.Phone != "+8613800000010" {
		t.Fatalf("phone = %q, want supplemental phone", account.Phone)
	}

	if len(store.created) != 1 {
		t.Fatalf("created %d accounts, want 1", len(store.created))
	}
	input := store.created[0]
	if input.DefaultIdentity != IdentityConsumer {
		t.Fatalf("default identity = %s, want CONSUMER", input.DefaultIdentity)
	}
	if input.Binding == nil || input.Binding.SubjectID != "openid-new" || input.Binding.SecondaryID != "unionid-new" {
		t.Fatalf("binding not persisted: %+v", input.Binding)
	}
}

func TestVerifyExternalProviderBindsToPhoneAccount(t *testing.T) {
	store := newMockAccountStore()
	store.putAccount(Account{ID: "acct-phone", Phone: "+8613800000011", Active: true})

	engine := newProviderEngine(t, store, &mockProviderClient{
		sessions: map[string]ProviderSession{"good-code": {SubjectID: "openid-2"}},
	})

	account, err := engine.VerifyExternalProvider(context.Background(), "good-code", "+8613800000011")
	if err != nil {
		t.Fatalf("VerifyExternalProvider failed: %v", err)
	}
	if account.ID != "acct-phone" {
		t.Fatalf("resolved %s, want acct-phone", account.ID)
	}
	if len(store.created) != 0 {
		t.Fatal("must attach the binding, not create a duplicate account")
	}

	// The binding now resolves directly.
	again, err := engine.VerifyExternalProvider(context.Background(), "good-code", "")
	if err != nil || again.ID != "acct-phone" {
		t.Fatalf("binding lookup after attach: %v, %+v", err, again)
	}
}

func TestVerifyExternalProviderPhoneBackfillDoesNotOverwrite(t *testing.T) {
	store := newMockAccountStore()
	store.putAccount(Account{ID: "acct-bound", Phone: "+8613800000012", Active: true})
	store.putBinding("wechat", "openid-3", "acct-bound")

	engine := newProviderEngine(t, store, &mockProviderClient{
		sessions: map[string]ProviderSession{"good-code": {SubjectID: "openid-3"}},
	})

	account, err := engine.VerifyExternalProvider(context.Background(), "good-code", "+8699999999999")
	if err != nil {
		t.Fatalf("VerifyExternalProvider failed: %v", err)
	}
	if account.Phone != "+8613800000012" {
		t.Fatalf("existing phone was overwritten: %q", account.Phone)
	}
}

func TestVerifyExternalProviderRejectedCode(t *testing.T) {
	engine := newProviderEngine(t, newMockAccountStore(), &mockProviderClient{
		sessions: map[string]ProviderSession{}, // every code yields a zero session
	})

	if _, err := engine.VerifyExternalProvider(context.Background(), "bad-code", ""); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("got %v, want ErrInvalidCredentials", err)
	}
}

func TestVerifyExternalProviderTransportFailure(t *testing.T) {
	engine := newProviderEngine(t, newMockAccountStore(), &mockProviderClient{
		err: errors.New("dial timeout"),
	})

	_, err := engine.VerifyExternalProvider(context.Background(), "any", "")
	if !errors.Is(err, ErrProviderUnavailable) {
		t.Fatalf("got %v, want ErrProviderUnavailable", err)
	}
	if errors.Is(err, ErrInvalidCredentials) {
		t.Fatal("transport failure must not look like a credential failure")
	}
}

func TestVerifyExternalProviderWithoutClient(t *testing.T) {
	_, rdb := newTestRedis(t)
	engine := newTestEngine(t, rdb, newMockAccountStore(), nil)

	if _, err := engine.VerifyExternalProvider(context.Background(), "code", ""); !errors.Is(err, ErrEngineNotReady) {
		t.Fatalf("got %v, want ErrEngineNotReady", err)
	}
}
