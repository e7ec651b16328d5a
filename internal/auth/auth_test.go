package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wgnst/internal/audit"
	"wgnst/internal/repo"
	"wgnst/internal/secrets"
)

const secret = "test-secret"

func call(a *Authenticator, header string) (int, string) {
	var sub string
	h := a.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sub = audit.SubjectFrom(r.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/api/clients", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr.Code, sub
}

func TestJWT(t *testing.T) {
	a := New(secret, nil, false)

	tok, err := IssueJWT(secret, "alice", time.Hour)
	require.NoError(t, err)
	code, sub := call(a, "Bearer "+tok)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "alice", sub)

	expired, err := IssueJWT(secret, "alice", -time.Minute)
	require.NoError(t, err)
	code, _ = call(a, "Bearer "+expired)
	assert.Equal(t, http.StatusUnauthorized, code)

	foreign, err := IssueJWT("other-secret", "alice", time.Hour)
	require.NoError(t, err)
	code, _ = call(a, "Bearer "+foreign)
	assert.Equal(t, http.StatusUnauthorized, code)

	// без sub
	noSub, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	code, _ = call(a, "Bearer "+noSub)
	assert.Equal(t, http.StatusUnauthorized, code)

	// alg=none не принимается
	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "alice"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	code, _ = call(a, "Bearer "+none)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestMissingOrMalformedHeader(t *testing.T) {
	a := New(secret, nil, false)
	for _, h := range []string{"", "Bearer", "Basic abc", "Bearer    "} {
		code, _ := call(a, h)
		assert.Equal(t, http.StatusUnauthorized, code, "header %q", h)
	}
}

func TestAPIToken(t *testing.T) {
	tokens := secrets.New(repo.NewMemStore())
	raw, _, err := tokens.Issue(context.Background(), "ci", "robot")
	require.NoError(t, err)

	a := New(secret, tokens, false)
	code, sub := call(a, "Bearer "+raw)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "robot", sub)

	code, _ = call(a, "Bearer wgt_000000000000_00")
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestDisabled(t *testing.T) {
	code, sub := call(New("", nil, true), "")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "anonymous", sub)
}
