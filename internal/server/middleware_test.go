package server

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/keifu/internal/auth"
	"github.com/ashita-ai/keifu/internal/ledger"
	"github.com/ashita-ai/keifu/internal/model"
)

// The logging middleware runs outside auth, so the caller's role reaches it
// through the claims holder that auth fills during the request.
func TestLogging_IncludesRoleAfterAuth(t *testing.T) {
	jwtMgr, err := auth.NewJWTManager("", "", time.Hour)
	require.NoError(t, err)
	keyring, err := auth.NewKeyring("", "editor-key", "")
	require.NoError(t, err)

	var logs bytes.Buffer
	srv := New(ServerConfig{
		Store:               ledger.New("DEC", nil),
		JWTMgr:              jwtMgr,
		Keyring:             keyring,
		Logger:              slog.New(slog.NewJSONHandler(&logs, nil)),
		Version:             "test",
		MaxRequestBodyBytes: 1 << 20,
	})

	token, _, err := jwtMgr.IssueToken(model.RoleEditor)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/v1/decisions", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, logs.String(), `"role":"editor"`)
}

func TestClaimsFromContext_EmptyHolder(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)

	var seen *auth.Claims
	handler := requestIDMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), req)

	assert.Nil(t, seen)
}
