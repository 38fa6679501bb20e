// Package admincli implements the leasekeeper-admin command: key generation,
// admin token minting and thin wrappers over the admin HTTP API.
package admincli

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aussiebroadwan/leasekeeper/internal/lease/app"
	"github.com/aussiebroadwan/leasekeeper/pkg/cryptox"
	"github.com/aussiebroadwan/leasekeeper/pkg/jwtx"
	"github.com/aussiebroadwan/leasekeeper/pkg/leasesdk"
)

// ErrUsage is returned for a missing or unknown subcommand.
var ErrUsage = errors.New("usage: leasekeeper-admin <keygen|mint|totp|issue|tokens|subs|renew|purge|sweep|remind|check|health> [flags]")

// EnvLookup returns the value for a key when present.
type EnvLookup func(string) (string, bool)

const (
	defaultURL = "http://localhost:8080"
	envURL     = "LEASEKEEPER_URL"
	envToken   = "LEASEKEEPER_TOKEN"
)

// Run executes one subcommand. Results are written to out as indented JSON,
// except for keygen and mint which print the key or token verbatim. The
// totp subcommand prints a new PURGE_TOTP_SECRET with its otpauth URL.
func Run(ctx context.Context, args []string, lookup EnvLookup, out io.Writer) error {
	if len(args) == 0 {
		return ErrUsage
	}
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if out == nil {
		out = io.Discard
	}

	name, rest := args[0], args[1:]
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	switch name {
	case "keygen":
		return keygen(fs, rest, out)
	case "mint":
		return mint(fs, rest, lookup, out)
	case "totp":
		account := fs.String("account", "purge", "account label shown by the authenticator app")
		issuer := fs.String("issuer", "leasekeeper", "issuer label shown by the authenticator app")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) { return cryptox.GenerateTOTPSecret(*issuer, *account) })
	}

	api := apiFlags(fs, lookup)

	switch name {
	case "issue":
		days := fs.Int("days", 0, "plan length in days")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) {
			return api.client().IssueToken(ctx, leasesdk.IssueTokenRequest{PlanDays: *days})
		})

	case "tokens":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) { return api.client().ListTokens(ctx) })

	case "subs":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) { return api.client().ListSubscriptions(ctx) })

	case "renew":
		days := fs.Int("days", 0, "days to add")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		if fs.NArg() != 1 {
			return errors.New("usage: leasekeeper-admin renew -days N <@name|id>")
		}
		return call(out, func() (any, error) { return api.client().Renew(ctx, fs.Arg(0), *days) })

	case "purge":
		code := fs.String("code", "", "TOTP code")
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) { return api.client().Purge(ctx, *code) })

	case "sweep":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) { return api.client().Sweep(ctx) })

	case "remind":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) { return api.client().Remind(ctx) })

	case "check":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) { return api.client().Diagnostics(ctx) })

	case "health":
		if err := fs.Parse(rest); err != nil {
			return err
		}
		return call(out, func() (any, error) { return api.client().GetReadiness(ctx) })
	}

	return ErrUsage
}

// keygen writes a fresh Ed25519 PKCS8 PEM key to -out, or to out when no
// path is given.
func keygen(fs *flag.FlagSet, args []string, out io.Writer) error {
	path := fs.String("out", "", "write the key to this file instead of stdout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	pemKey, err := cryptox.GenerateEd25519Key()
	if err != nil {
		return err
	}

	if *path == "" {
		_, err := out.Write(pemKey)
		return err
	}
	if err := os.WriteFile(*path, pemKey, 0o600); err != nil {
		return fmt.Errorf("write key: %w", err)
	}
	_, err = fmt.Fprintf(out, "wrote %s\n", *path)
	return err
}

// mint signs an admin bearer token with the key the server loads from
// ADMIN_KEY_FILE.
func mint(fs *flag.FlagSet, args []string, lookup EnvLookup, out io.Writer) error {
	keyDefault, _ := lookup("ADMIN_KEY_FILE")
	issuerDefault, ok := lookup("ADMIN_TOKEN_ISSUER")
	if !ok || issuerDefault == "" {
		issuerDefault = "leasekeeper"
	}

	keyPath := fs.String("key", keyDefault, "Ed25519 PEM key file")
	subject := fs.String("subject", "operator", "token subject, recorded as the creator of issued tokens")
	scopes := fs.String("scopes", jwtx.ScopeAdminRead+","+jwtx.ScopeAdminWrite, "comma separated scopes")
	ttl := fs.Duration("ttl", jwtx.DefaultAdminTokenTTL, "token lifetime")
	issuer := fs.String("issuer", issuerDefault, "token issuer")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *keyPath == "" {
		return errors.New("mint: -key or ADMIN_KEY_FILE is required")
	}
	if *ttl <= 0 {
		return errors.New("mint: -ttl must be positive")
	}

	signer, err := app.LoadAdminSigner(*keyPath)
	if err != nil {
		return err
	}

	var scopeList []string
	for _, s := range strings.Split(*scopes, ",") {
		if s = strings.TrimSpace(s); s != "" {
			scopeList = append(scopeList, s)
		}
	}

	token, err := signer.Sign(jwtx.NewAdminClaims(*subject, scopeList, *ttl, *issuer, time.Now()))
	if err != nil {
		return fmt.Errorf("sign token: %w", err)
	}
	_, err = fmt.Fprintln(out, token)
	return err
}

type apiOptions struct {
	url   *string
	token *string
}

func apiFlags(fs *flag.FlagSet, lookup EnvLookup) apiOptions {
	url, ok := lookup(envURL)
	if !ok || url == "" {
		url = defaultURL
	}
	token, _ := lookup(envToken)

	return apiOptions{
		url:   fs.String("url", url, "admin API base URL ($"+envURL+")"),
		token: fs.String("token", token, "admin bearer token ($"+envToken+")"),
	}
}

func (o apiOptions) client() *leasesdk.Client {
	return leasesdk.NewClient(*o.url, *o.token)
}

func call(out io.Writer, fn func() (any, error)) error {
	v, err := fn()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
