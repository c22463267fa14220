// Package postgres implements polyauth.AccountStore on PostgreSQL via
// database/sql with the pgx driver.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/polyauth/polyauth"
)

var _ polyauth.AccountStore = (*Store)(nil)

// Store is a polyauth.AccountStore backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open dials the database with the pgx driver and verifies the
// connection.
func Open(ctx context.Context, dsn string) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: open: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return New(db), nil
}

// Close releases the underlying pool.
func (s *Store) Close() error {
	return s.db.Close()
}

const accountColumns = `id, coalesce(email, ''), coalesce(phone, ''), coalesce(password_hash, ''), is_active, created_at`

func scanAccount(row *sql.Row) (*polyauth.Account, error) {
	var a polyauth.Account
	if err := row.Scan(&a.ID, &a.Email, &a.Phone, &a.PasswordHash, &a.Active, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, polyauth.ErrAccountNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (s *Store) FindAccountByIdentifier(ctx context.Context, identifier string) (*polyauth.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where email=$1 or phone=$1`, identifier)
	return scanAccount(row)
}

func (s *Store) FindAccountByPhone(ctx context.Context, phone string) (*polyauth.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where phone=$1`, phone)
	return scanAccount(row)
}

func (s *Store) FindAccountByProvider(ctx context.Context, provider, subjectID string) (*polyauth.Account, error) {
	row := s.db.QueryRowContext(ctx,
		`select a.id, coalesce(a.email, ''), coalesce(a.phone, ''), coalesce(a.password_hash, ''), a.is_active, a.created_at
		 from accounts a
		 join provider_bindings b on b.account_id = a.id
		 where b.provider=$1 and b.subject_id=$2`, provider, subjectID)
	return scanAccount(row)
}

// CreateAccount inserts the account, its first identity, and the
// optional provider binding in one transaction.
func (s *Store) CreateAccount(ctx context.Context, input polyauth.CreateAccountInput) (*polyauth.Account, error) {
	if !input.DefaultIdentity.Valid() {
		return nil, fmt.Errorf("postgres: invalid identity type %q", input.DefaultIdentity)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	accountID := uuid.NewString()
	var account polyauth.Account
	row := tx.QueryRowContext(ctx,
		`insert into accounts(id, email, phone, password_hash, is_active)
		 values($1, nullif($2, ''), nullif($3, ''), nullif($4, ''), true)
		 returning `+accountColumns,
		accountID, input.Email, input.Phone, input.PasswordHash)
	if err := row.Scan(&account.ID, &account.Email, &account.Phone, &account.PasswordHash, &account.Active, &account.CreatedAt); err != nil {
		return nil, err
	}

	if _, err := tx.ExecContext(ctx,
		`insert into identities(id, account_id, type, display_name) values($1,$2,$3,$4)`,
		uuid.NewString(), account.ID, string(input.DefaultIdentity), input.DisplayName); err != nil {
		return nil, err
	}

	if input.Binding != nil {
		if _, err := tx.ExecContext(ctx,
			`insert into provider_bindings(account_id, provider, subject_id, secondary_id)
			 values($1,$2,$3, nullif($4, ''))`,
			account.ID, input.Binding.Provider, input.Binding.SubjectID, input.Binding.SecondaryID); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &account, nil
}

// UpdateAccount applies a partial update. Phone is only backfilled
// onto accounts that have none; the where clause keeps an existing
// number intact even under concurrent updates.
func (s *Store) UpdateAccount(ctx context.Context, accountID string, update polyauth.AccountUpdate) (*polyauth.Account, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	if update.Phone != "" {
		if _, err := tx.ExecContext(ctx,
			`update accounts set phone=$2 where id=$1 and phone is null`,
			accountID, update.Phone); err != nil {
			return nil, err
		}
	}

	if update.Binding != nil {
		if _, err := tx.ExecContext(ctx,
			`insert into provider_bindings(account_id, provider, subject_id, secondary_id)
			 values($1,$2,$3, nullif($4, ''))
			 on conflict (provider, subject_id) do update set secondary_id = excluded.secondary_id`,
			accountID, update.Binding.Provider, update.Binding.SubjectID, update.Binding.SecondaryID); err != nil {
			return nil, err
		}
	}

	var account polyauth.Account
	row := tx.QueryRowContext(ctx,
		`select `+accountColumns+` from accounts where id=$1`, accountID)
	if err := row.Scan(&account.ID, &account.Email, &account.Phone, &account.PasswordHash, &account.Active, &account.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, polyauth.ErrAccountNotFound
		}
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Store) ListIdentities(ctx context.Context, accountID string) ([]polyauth.Identity, error) {
	rows, err := s.db.QueryContext(ctx,
		`select id, account_id, coalesce(tenant_id, ''), type, coalesce(display_name, ''), created_at
		 from identities where account_id=$1 order by created_at, id`, accountID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var identities []polyauth.Identity
	for rows.Next() {
		var identity polyauth.Identity
		var identityType string
		if err := rows.Scan(&identity.ID, &identity.AccountID, &identity.TenantID, &identityType, &identity.DisplayName, &identity.CreatedAt); err != nil {
			return nil, err
		}
		identity.Type = polyauth.IdentityType(identityType)
		identities = append(identities, identity)
	}
	return identities, rows.Err()
}

func (s *Store) ListMemberships(ctx context.Context, accountID, tenantID string) ([]polyauth.Membership, error) {
	rows, err := s.db.QueryContext(ctx,
		`select m.id, m.account_id, m.tenant_id, r.key, coalesce(m.default_identity_id, '')
		 from memberships m
		 join roles r on r.id = m.role_id
		 where m.account_id=$1 and ($2 = '' or m.tenant_id=$2)
		 order by m.created_at, m.id`, accountID, tenantID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var memberships []polyauth.Membership
	for rows.Next() {
		var m polyauth.Membership
		if err := rows.Scan(&m.ID, &m.AccountID, &m.TenantID, &m.RoleKey, &m.DefaultIdentityID); err != nil {
			return nil, err
		}
		memberships = append(memberships, m)
	}
	return memberships, rows.Err()
}
