package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
	"github.com/ksalhab89/coupon-system-auth/internal/core/port"
	"github.com/ksalhab89/coupon-system-auth/internal/repository"
)

// CompanyRepository resolves company accounts from the companies table.
type CompanyRepository struct {
	db Querier
}

func NewCompanyRepository(db Querier) *CompanyRepository {
	return &CompanyRepository{db: db}
}

// FindByEmail returns the company account for the email, or
// repository.ErrNotFound when no row matches.
func (r *CompanyRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	query, args, err := builder.
		Select("id", "name", "email", "password").
		From("companies").
		Where("email = ?", email).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build company query: %w", err)
	}

	var account domain.Account
	row := r.db.QueryRow(ctx, query, args...)
	if err := row.Scan(&account.ID, &account.DisplayName, &account.Email, &account.PasswordHash); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("query company by email: %w", err)
	}

	return &account, nil
}

var _ port.AccountRepository = (*CompanyRepository)(nil)
