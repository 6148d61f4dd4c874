package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataForKnownCodes(t *testing.T) {
	cases := map[Code]Metadata{
		CodeValidation:   {http.StatusBadRequest, false, "validation failed", true},
		CodeUnauthorized: {http.StatusUnauthorized, false, "authentication required", false},
		CodeForbidden:    {http.StatusForbidden, false, "access denied", false},
		CodeNotFound:     {http.StatusNotFound, false, "resource not found", false},
		CodeInvalidState: {http.StatusUnprocessableEntity, false, "operation not allowed in current state", true},
		CodeIdempotency:  {http.StatusConflict, false, "idempotency key reused", true},
		CodeRateLimit:    {http.StatusTooManyRequests, false, "rate limit exceeded", false},
		CodeDependency:   {http.StatusServiceUnavailable, true, "dependency unavailable", true},
	}
	for code, want := range cases {
		assert.Equal(t, want, MetadataFor(code), string(code))
	}
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestWrapKeepsCauseAndDetails(t *testing.T) {
	cause := stdErrors.New("boom")
	err := Wrap(CodeConflict, cause, "username taken").WithDetails(map[string]string{"username": "taken"})

	assert.ErrorIs(t, err, cause)
	assert.Equal(t, CodeConflict, err.Code())
	assert.Equal(t, "username taken", err.Message())
	assert.Equal(t, map[string]string{"username": "taken"}, err.Details())
	assert.Equal(t, "CONFLICT: username taken: boom", err.Error())
	assert.Nil(t, New(CodeValidation, "x").Details())
}

func TestIsCodeFollowsWrappedChain(t *testing.T) {
	outer := fmt.Errorf("create order: %w", New(CodeInvalidState, "Cart is empty"))

	assert.True(t, IsCode(outer, CodeInvalidState))
	assert.False(t, IsCode(outer, CodeNotFound))
	assert.False(t, IsCode(stdErrors.New("plain"), CodeInternal))
	assert.Nil(t, As(nil))
}

func TestDumpExtractsPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: PGUniqueViolation, ConstraintName: "users_username_key", TableName: "users"}
	dump := Dump(Wrap(CodeConflict, fmt.Errorf("insert: %w", pgErr), "username taken"))

	assert.Equal(t, CodeConflict, dump.Code)
	assert.True(t, dump.IsUniqueViolation())
	require.Len(t, dump.Chain, 3)

	fields := dump.Fields()
	assert.Equal(t, "users_username_key", fields["pg_constraint"])
	assert.Equal(t, "users", fields["pg_table"])
	assert.NotContains(t, fields, "pg_column")
}

func TestDumpOfPlainErrorHasNoPostgresFields(t *testing.T) {
	fields := Dump(stdErrors.New("boom")).Fields()
	assert.Equal(t, "boom", fields["error"])
	assert.NotContains(t, fields, "pg_code")
}
