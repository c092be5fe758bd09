package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
	"github.com/ksalhab89/coupon-system-auth/internal/repository"
)

// CustomerRepository resolves customer accounts from the customers table.
type CustomerRepository struct {
	db Querier
}

func NewCustomerRepository(db Querier) *CustomerRepository {
	return &CustomerRepository{db: db}
}

// FindByEmail returns the customer account for the email, or
// repository.ErrNotFound when no row matches.
func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query, args, err := builder.
		Select("id", "first_name", "last_name", "email", "password").
		From("customers").
		Where("email = ?", email).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build customer query: %w", err)
	}

	var (
		account   domain.Account
		firstName string
		lastName  string
	)
	row := r.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&account.ID, &firstName, &lastName, &account.Email, &account.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("query customer by email: %w", err)
	}

	account.DisplayName = strings.TrimSpace(firstName + " " + lastName)
	return &account, nil
}

var _ port.AccountRepository = (*CustomerRepository)(nil)
