package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ashita-ai/keifu/internal/model"
)

func newTestManager(t *testing.T, expiration time.Duration) *JWTManager {
	t.Helper()
	m, err := NewJWTManager("", "", expiration)
	require.NoError(t, err)
	return m
}

func TestIssueAndValidateToken(t *testing.T) {
	m := newTestManager(t, time.Hour)

	token, exp, err := m.IssueToken(model.RoleEditor)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(time.Hour), exp, time.Minute)

	claims, err := m.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, model.RoleEditor, claims.Role)
	assert.Equal(t, "keifu", claims.Issuer)
	assert.NotEmpty(t, claims.ID)
}

func TestValidateToken_Expired(t *testing.T) {
	m := newTestManager(t, -time.Minute)

	token, _, err := m.IssueToken(model.RoleReader)
	require.NoError(t, err)

	_, err = m.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_WrongKey(t *testing.T) {
	issuer := newTestManager(t, time.Hour)
	verifier := newTestManager(t, time.Hour)

	token, _, err := issuer.IssueToken(model.RoleAdmin)
	require.NoError(t, err)

	_, err = verifier.ValidateToken(token)
	require.Error(t, err)
}

func TestValidateToken_Garbage(t *testing.T) {
	m := newTestManager(t, time.Hour)
	_, err := m.ValidateToken("not.a.jwt")
	require.Error(t, err)
}

func TestKeyDigest(t *testing.T) {
	d, err := digestKey("sk-test-key")
	require.NoError(t, err)
	require.Len(t, d.salt, digestSaltLen)
	require.Len(t, d.sum, digestLen)

	assert.True(t, d.matches("sk-test-key"))
	assert.False(t, d.matches("wrong-key"))
	assert.False(t, d.matches(""))
}

func TestKeyDigest_UniqueSalts(t *testing.T) {
	a, err := digestKey("same-key")
	require.NoError(t, err)
	b, err := digestKey("same-key")
	require.NoError(t, err)
	assert.NotEqual(t, a.salt, b.salt)
	assert.NotEqual(t, a.sum, b.sum)
}

func TestKeyring(t *testing.T) {
	kr, err := NewKeyring("admin-key", "editor-key", "reader-key")
	require.NoError(t, err)
	require.False(t, kr.Empty())

	role, ok := kr.Resolve("admin-key")
	require.True(t, ok)
	assert.Equal(t, model.RoleAdmin, role)

	role, ok = kr.Resolve("editor-key")
	require.True(t, ok)
	assert.Equal(t, model.RoleEditor, role)

	role, ok = kr.Resolve("reader-key")
	require.True(t, ok)
	assert.Equal(t, model.RoleReader, role)

	_, ok = kr.Resolve("unknown-key")
	assert.False(t, ok)
}

func TestKeyring_EmptyKeysSkipped(t *testing.T) {
	kr, err := NewKeyring("", "editor-key", "")
	require.NoError(t, err)

	_, ok := kr.Resolve("")
	assert.False(t, ok)

	role, ok := kr.Resolve("editor-key")
	require.True(t, ok)
	assert.Equal(t, model.RoleEditor, role)
}

func TestKeyring_AllEmpty(t *testing.T) {
	kr, err := NewKeyring("", "", "")
	require.NoError(t, err)
	assert.True(t, kr.Empty())

	_, ok := kr.Resolve("anything")
	assert.False(t, ok)
}

func TestRoleAtLeast(t *testing.T) {
	assert.True(t, model.RoleAtLeast(model.RoleAdmin, model.RoleReader))
	assert.True(t, model.RoleAtLeast(model.RoleEditor, model.RoleEditor))
	assert.False(t, model.RoleAtLeast(model.RoleReader, model.RoleEditor))
	assert.False(t, model.RoleAtLeast("bogus", model.RoleReader))
}
