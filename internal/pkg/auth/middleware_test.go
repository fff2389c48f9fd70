// internal/pkg/auth/middleware_test.go
package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePrincipals struct {
	versions map[string]int
	err      error
}

func (f *fakePrincipals) TokenVersion(ctx context.Context, customerID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.versions[customerID], nil
}

func callMiddleware(t *testing.T, principals PrincipalRepository, headers map[string]string) (*httptest.ResponseRecorder, Identity, bool) {
	t.Helper()
	var captured Identity
	var reached bool
	handler := Middleware(principals, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := FromContext(r.Context())
		require.NoError(t, err)
		captured, reached = id, true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/cart", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec, captured, reached
}

func TestMiddlewareCustomerWithMatchingTokenVersion(t *testing.T) {
	principals := &fakePrincipals{versions: map[string]int{"c1": 3}}

	rec, identity, reached := callMiddleware(t, principals, map[string]string{
		"X-Customer-Id":   "c1",
		"X-Token-Version": "3",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reached)
	assert.Equal(t, "c1", identity.CustomerID)
	assert.True(t, identity.IsCustomer())
}

func TestMiddlewareRejectsRevokedToken(t *testing.T) {
	principals := &fakePrincipals{versions: map[string]int{"c1": 5}}

	rec, _, reached := callMiddleware(t, principals, map[string]string{
		"X-Customer-Id":   "c1",
		"X-Token-Version": "4",
	})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, reached, "a revoked token must never reach the handler")
	assert.Contains(t, rec.Body.String(), "TOKEN_REVOKED")
}

func TestMiddlewareGuestNeedsNoTokenVersion(t *testing.T) {
	rec, identity, reached := callMiddleware(t, &fakePrincipals{}, map[string]string{
		"X-Guest-Id": "g1",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, reached)
	assert.Equal(t, "g1", identity.GuestID)
	assert.False(t, identity.IsCustomer())
}

func TestMiddlewareExactlyOneIdentity(t *testing.T) {
	rec, _, reached := callMiddleware(t, &fakePrincipals{}, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, reached)

	rec, _, reached = callMiddleware(t, &fakePrincipals{versions: map[string]int{"c1": 0}}, map[string]string{
		"X-Customer-Id":   "c1",
		"X-Guest-Id":      "g1",
		"X-Token-Version": "0",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, reached)
}

func TestMiddlewareMissingTokenVersion(t *testing.T) {
	rec, _, reached := callMiddleware(t, &fakePrincipals{}, map[string]string{
		"X-Customer-Id": "c1",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, reached)
}

func TestMiddlewarePrincipalStoreUnavailable(t *testing.T) {
	principals := &fakePrincipals{err: errors.New("db down")}

	rec, _, reached := callMiddleware(t, principals, map[string]string{
		"X-Customer-Id":   "c1",
		"X-Token-Version": "1",
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.False(t, reached)
}

func TestIdentityKey(t *testing.T) {
	assert.Equal(t, "customer:c1", Identity{CustomerID: "c1"}.Key())
	assert.Equal(t, "guest:g1", Identity{GuestID: "g1"}.Key())
}
