package app

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
)

// LoadAdminSigner reads the Ed25519 PKCS8 PEM key at path. The key id is
// derived from the public key, so the server and the admin CLI agree on it
// without extra configuration.
func LoadAdminSigner(path string) (*jwtx.EdDSASigner, error) {
	pemKey, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read admin key: %w", err)
	}

	signer, err := jwtx.NewSignerEdDSA("", pemKey)
	if err != nil {
		return nil, fmt.Errorf("load admin key %s: %w", path, err)
	}
	return signer, nil
}

// InitAdminVerifier returns the bearer-token verifier for the admin API, or
// nil when no key is configured.
func InitAdminVerifier(cfg Config, logger *slog.Logger) (jwtx.Verifier, error) {
	if cfg.AdminKeyFile == "" {
		return nil, nil
	}

	signer, err := LoadAdminSigner(cfg.AdminKeyFile)
	if err != nil {
		return nil, err
	}

	logger.Info("admin API key loaded",
		"kid", signer.KID(),
		"issuer", cfg.AdminTokenIssuer,
	)
	return jwtx.NewVerifierFromSigner(signer, cfg.AdminTokenIssuer, nil), nil
}
