package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v2"

	"github.com/ksalhab89/coupon-system-auth/internal/repository"
)

func newMockPool(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()

	mock, err := pgxmock.NewPool()
	if err != nil {
		t.Fatalf("new mock pool: %v", err)
	}
	t.Cleanup(mock.Close)

	return mock
}

func TestCompanyRepositoryFindByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCompanyRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "name", "email", "password"}).
		AddRow(int64(42), "Acme Corp", "acme@example.com", "argon2id$hash")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password FROM companies WHERE email = $1")).
		WithArgs("acme@example.com").
		WillReturnRows(rows)

	account, err := repo.FindByEmail(context.Background(), "acme@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if account.ID != 42 {
		t.Fatalf("id = %d, want 42", account.ID)
	}
	if account.DisplayName != "Acme Corp" {
		t.Fatalf("display name = %q, want %q", account.DisplayName, "Acme Corp")
	}
	if account.PasswordHash != "argon2id$hash" {
		t.Fatalf("password hash = %q", account.PasswordHash)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCompanyRepositoryFindByEmailNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCompanyRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, name, email, password FROM companies WHERE email = $1")).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCustomerRepositoryFindByEmail(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCustomerRepository(mock)

	rows := pgxmock.NewRows([]string{"id", "first_name", "last_name", "email", "password"}).
		AddRow(int64(7), "Ada", "Lovelace", "ada@example.com", "argon2id$hash")

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, password FROM customers WHERE email = $1")).
		WithArgs("ada@example.com").
		WillReturnRows(rows)

	account, err := repo.FindByEmail(context.Background(), "ada@example.com")
	if err != nil {
		t.Fatalf("find by email: %v", err)
	}
	if account.DisplayName != "Ada Lovelace" {
		t.Fatalf("display name = %q, want %q", account.DisplayName, "Ada Lovelace")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCustomerRepositoryFindByEmailNotFound(t *testing.T) {
	mock := newMockPool(t)
	repo := NewCustomerRepository(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, password FROM customers WHERE email = $1")).
		WithArgs("ghost@example.com").
		WillReturnError(pgx.ErrNoRows)

	if _, err := repo.FindByEmail(context.Background(), "ghost@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
