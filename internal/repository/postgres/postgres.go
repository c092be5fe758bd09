package postgres

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool the account repositories need.
// pgxmock satisfies it in tests.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

var builder = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
