package port

import (
	"context"

	"github.com/ksalhab89/coupon-system-auth/internal/core/domain"
)

// AccountRepository resolves a company or customer account by contact email.
// Implementations return repository.ErrNotFound when no row matches.
type AccountRepository interface {
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
}
