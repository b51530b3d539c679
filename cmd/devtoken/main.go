// Command devtoken issues caller tokens signed with AUTH_JWT_SECRET so the API
// can be exercised locally without the authentication service.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/spec-kit/chamado-service/internal/auth"
	"github.com/spec-kit/chamado-service/internal/config"
	"github.com/spec-kit/chamado-service/internal/domain"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	var subject, name, role, secret string
	var ttlMinutes int

	flagSet := pflag.NewFlagSet("devtoken", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	flagSet.StringVar(&subject, "sub", "", "employee id placed in the sub claim (required)")
	flagSet.StringVar(&name, "name", "", "display name claim")
	flagSet.StringVar(&role, "role", string(domain.RoleCommon), "ADMIN, TECHNICIAN or COMMON")
	flagSet.StringVar(&secret, "secret", "", "HS256 secret (default: AUTH_JWT_SECRET from the environment)")
	flagSet.IntVar(&ttlMinutes, "ttl", 0, "lifetime in minutes (default: AUTH_TOKEN_TTL_MINUTES)")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}
	if rest := flagSet.Args(); len(rest) > 0 {
		return fmt.Errorf("unexpected argument: %s", rest[0])
	}
	if strings.TrimSpace(subject) == "" {
		return errors.New("--sub is required")
	}
	parsedRole, err := domain.ParseRole(role)
	if err != nil {
		return err
	}

	if secret == "" || ttlMinutes == 0 {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if secret == "" {
			secret = cfg.Auth.JWTSecret
		}
		if ttlMinutes == 0 {
			ttlMinutes = cfg.Auth.TokenTTLMinutes
		}
	}

	token, expiresAt, err := auth.NewTokenManager(secret, ttlMinutes).GenerateToken(domain.Caller{
		ID:   strings.TrimSpace(subject),
		Name: strings.TrimSpace(name),
		Role: parsedRole,
	})
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, token)
	fmt.Fprintf(stderr, "expires %s\n", expiresAt.UTC().Format("2006-01-02T15:04:05Z"))
	return nil
}
