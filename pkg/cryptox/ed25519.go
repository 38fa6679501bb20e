// Package cryptox holds key material helpers shared by the server and the
// admin CLI.
package cryptox

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
)

const pemTypePrivateKey = "PRIVATE KEY"

// ErrInvalidKey reports PEM input that does not hold an Ed25519 PKCS8 key.
var ErrInvalidKey = errors.New("cryptox: invalid Ed25519 key")

// GenerateEd25519Key returns a fresh Ed25519 private key as a PKCS8 PEM block.
func GenerateEd25519Key() ([]byte, error) {
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cryptox: generate Ed25519 key: %w", err)
	}
	der, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return nil, fmt.Errorf("cryptox: marshal PKCS8: %w", err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: pemTypePrivateKey, Bytes: der}), nil
}

// ParseEd25519PrivateKey is the inverse of GenerateEd25519Key. Every failure
// wraps ErrInvalidKey.
func ParseEd25519PrivateKey(pemKey []byte) (ed25519.PrivateKey, error) {
	block, _ := pem.Decode(pemKey)
	switch {
	case block == nil:
		return nil, fmt.Errorf("%w: no PEM block", ErrInvalidKey)
	case block.Type != pemTypePrivateKey:
		return nil, fmt.Errorf("%w: PEM type %q", ErrInvalidKey, block.Type)
	}

	parsed, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidKey, err)
	}
	key, ok := parsed.(ed25519.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("%w: got %T", ErrInvalidKey, parsed)
	}
	return key, nil
}
