package postgres

import (
	"errors"
	"fmt"
	"testing"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/identity-tenancy-api/internal/models"
	"github.com/identity-tenancy-api/internal/query"
)

func TestMapErr(t *testing.T) {
	assert.NoError(t, mapErr(nil, "x"))
	assert.ErrorIs(t, mapErr(pgx.ErrNoRows, "get"), models.ErrNotFound)
	assert.ErrorIs(t, mapErr(&pgconn.PgError{Code: uniqueViolation}, "insert"), models.ErrAlreadyExists)

	other := errors.New("boom")
	err := mapErr(fmt.Errorf("wrapped: %w", other), "op")
	assert.ErrorIs(t, err, other)
	assert.NotErrorIs(t, err, models.ErrNotFound)
}

func TestSearchQueryIsScopedAndParameterized(t *testing.T) {
	pred := query.And{
		query.Eq{Field: query.OwnerTenantField, Value: "acme"},
		query.Or{query.Contains{Field: query.UserField("username"), Value: "zh%"}},
	}

	sql, args, err := tenantUserSelect().Where(pred).OrderBy("tu.id").ToSql()
	require.NoError(t, err)
	assert.Contains(t, sql, "JOIN data_source_users dsu ON dsu.id = tu.data_source_user_id")
	assert.Contains(t, sql, "ds.owner_tenant_id = $1")
	assert.Contains(t, sql, "dsu.username ILIKE $2")
	assert.Equal(t, []interface{}{"acme", `%zh\%%`}, args)
}

func TestPurgeStatement(t *testing.T) {
	sql, args, err := psql.Delete(models.TableTenantUsers).
		Where(sq.Eq{models.ColumnDataSourceID: []any{int64(1), int64(2)}}).ToSql()
	require.NoError(t, err)
	assert.Equal(t, "DELETE FROM tenant_users WHERE data_source_id IN ($1,$2)", sql)
	assert.Equal(t, []interface{}{int64(1), int64(2)}, args)
}
