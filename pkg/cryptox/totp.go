package cryptox

import (
	"fmt"

	"github.com/pquerna/otp/totp"
)

// TOTPSecret is a freshly generated shared secret and the otpauth:// URL an
// authenticator app can import.
type TOTPSecret struct {
	Secret string `json:"secret"`
	URL    string `json:"url"`
}

// GenerateTOTPSecret creates a base32 secret with the default TOTP
// parameters (SHA1, 6 digits, 30s period).
func GenerateTOTPSecret(issuer, account string) (TOTPSecret, error) {
	key, err := totp.Generate(totp.GenerateOpts{
		Issuer:      issuer,
		AccountName: account,
	})
	if err != nil {
		return TOTPSecret{}, fmt.Errorf("cryptox: generate TOTP secret: %w", err)
	}
	return TOTPSecret{Secret: key.Secret(), URL: key.URL()}, nil
}
