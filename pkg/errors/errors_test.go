package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataFor(t *testing.T) {
	cases := map[Code]Metadata{
		CodeValidation:    {http.StatusBadRequest, false, "validation failed", true},
		CodeUnauthorized:  {http.StatusUnauthorized, false, "authentication required", false},
		CodeForbidden:     {http.StatusForbidden, false, "access denied", false},
		CodeNotFound:      {http.StatusNotFound, false, "resource not found", false},
		CodeConflict:      {http.StatusConflict, false, "conflict detected", false},
		CodeStateConflict: {http.StatusConflict, false, "state transition disallowed", true},
		CodeRateLimit:     {http.StatusTooManyRequests, false, "rate limit exceeded", false},
		CodeInternal:      {http.StatusInternalServerError, true, "internal server error", false},
		CodeDependency:    {http.StatusServiceUnavailable, true, "dependency unavailable", true},
	}
	for code, want := range cases {
		assert.Equal(t, want, MetadataFor(code), code)
	}
	assert.Equal(t, http.StatusInternalServerError, MetadataFor("SOMETHING_UNKNOWN").HTTPStatus)
}

func TestConstructors(t *testing.T) {
	e := New(CodeValidation, "missing foo")
	assert.Equal(t, CodeValidation, e.Code())
	assert.Equal(t, "missing foo", e.Message())
	assert.Nil(t, e.Details())
	assert.Equal(t, map[string]any{"field": "foo"}, e.WithDetails(map[string]any{"field": "foo"}).Details())

	assert.Equal(t, "order abc not found", Newf(CodeNotFound, "order %s not found", "abc").Message())

	cause := stdErrors.New("dial tcp: refused")
	wrapped := Wrap(CodeDependency, cause, "publish order.created")
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, "publish order.created", wrapped.Message())
	assert.Contains(t, wrapped.Error(), "dial tcp: refused")
}

func TestLookupThroughWrapping(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", New(CodeStateConflict, "illegal transition"))
	require.NotNil(t, As(wrapped))
	assert.Equal(t, CodeStateConflict, CodeOf(wrapped))
	assert.True(t, IsCode(wrapped, CodeStateConflict))

	plain := stdErrors.New("plain")
	assert.Nil(t, As(plain))
	assert.Nil(t, As(nil))
	assert.False(t, IsCode(plain, CodeStateConflict))
	assert.Equal(t, CodeInternal, CodeOf(plain))
}

func TestDump(t *testing.T) {
	d := Dump(Wrap(CodeDependency, stdErrors.New("connection refused"), "load order"))
	assert.Equal(t, CodeDependency, d.Code)
	assert.Len(t, d.Chain, 2)

	pgCause := &pq.Error{Code: "23505", Constraint: "users_email_key", Table: "users"}
	d = Dump(Wrap(CodeConflict, pgCause, "email already registered"))
	assert.Equal(t, "23505", d.PGCode)
	assert.Equal(t, "users_email_key", d.PGConstraint)
	assert.Equal(t, "users", d.PGTable)
}
