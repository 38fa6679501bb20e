package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/aussiebroadwan/leasekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/leasekeeper/pkg/slogx"
	"github.com/stretchr/testify/require"
)

func writeKey(t *testing.T) string {
	t.Helper()

	pemKey, err := cryptox.GenerateEd25519Key()
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "admin.pem")
	require.NoError(t, os.WriteFile(path, pemKey, 0o600))
	return path
}

func TestLoadAdminSignerDerivesStableKeyID(t *testing.T) {
	path := writeKey(t)

	a, err := LoadAdminSigner(path)
	require.NoError(t, err)
	b, err := LoadAdminSigner(path)
	require.NoError(t, err)

	require.Len(t, a.KID(), 16)
	require.Equal(t, a.KID(), b.KID())

	other, err := LoadAdminSigner(writeKey(t))
	require.NoError(t, err)
	require.NotEqual(t, a.KID(), other.KID())
}

func TestLoadAdminSignerErrors(t *testing.T) {
	_, err := LoadAdminSigner(filepath.Join(t.TempDir(), "missing.pem"))
	require.Error(t, err)

	garbage := filepath.Join(t.TempDir(), "garbage.pem")
	require.NoError(t, os.WriteFile(garbage, []byte("not a key"), 0o600))
	_, err = LoadAdminSigner(garbage)
	require.ErrorIs(t, err, cryptox.ErrInvalidKey)
}

func TestInitAdminVerifier(t *testing.T) {
	verifier, err := InitAdminVerifier(Config{}, slogx.Discard())
	require.NoError(t, err)
	require.Nil(t, verifier)

	path := writeKey(t)
	cfg := Config{AdminKeyFile: path, AdminTokenIssuer: "leasekeeper"}

	verifier, err = InitAdminVerifier(cfg, slogx.Discard())
	require.NoError(t, err)
	require.NotNil(t, verifier)

	signer, err := LoadAdminSigner(path)
	require.NoError(t, err)

	token, err := signer.Sign(jwtx.NewAdminClaims(
		"operator",
		[]string{jwtx.ScopeAdminRead},
		time.Minute,
		"leasekeeper",
		time.Now(),
	))
	require.NoError(t, err)

	claims, err := verifier.Verify(token)
	require.NoError(t, err)
	require.Equal(t, "operator", claims.Subject)

	_, err = InitAdminVerifier(Config{AdminKeyFile: filepath.Join(t.TempDir(), "nope.pem")}, slogx.Discard())
	require.Error(t, err)
}
