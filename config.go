package auth

import (
	"github.com/caarlos0/env/v11"
	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-router"
)

// AuthConfig is the default Config implementation. Zero values fall
// back to sane defaults on read, only the signing key is mandatory.
type AuthConfig struct {
	SigningKey      string   `env:"AUTH_SIGNING_KEY" json:"signing_key"`
	SigningMethod   string   `env:"AUTH_SIGNING_METHOD" envDefault:"HS256" json:"signing_method"`
	ContextKey      string   `env:"AUTH_CONTEXT_KEY" envDefault:"user" json:"context_key"`
	TokenExpiration int      `env:"AUTH_TOKEN_EXPIRATION" envDefault:"1" json:"token_expiration"`
	TokenLookup     string   `env:"AUTH_TOKEN_LOOKUP" json:"token_lookup"`
	AuthScheme      string   `env:"AUTH_SCHEME" envDefault:"Bearer" json:"auth_scheme"`
	Issuer          string   `env:"AUTH_ISSUER" json:"issuer"`
	Audience        []string `env:"AUTH_AUDIENCE" json:"audience"`
}

// NewConfigFromEnv loads the auth configuration from the process
// environment
func NewConfigFromEnv() (*AuthConfig, error) {
	cfg := &AuthConfig{}
	if err := env.Parse(cfg); err != nil {
		return nil, errors.Wrap(err, errors.CategoryOperation, "failed to parse auth config from environment")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the invariants a config must hold before we hand it
// to an authenticator
func (c *AuthConfig) Validate() error {
	if c.SigningKey == "" {
		return errors.New("signing key is required", errors.CategoryValidation).
			WithTextCode("MISSING_SIGNING_KEY")
	}

	if c.TokenExpiration < 0 {
		return errors.New("token expiration must not be negative", errors.CategoryValidation).
			WithTextCode("INVALID_TOKEN_EXPIRATION")
	}

	return nil
}

func (c *AuthConfig) GetSigningKey() string {
	return c.SigningKey
}

func (c *AuthConfig) GetSigningMethod() string {
	if c.SigningMethod == "" {
		return "HS256"
	}
	return c.SigningMethod
}

func (c *AuthConfig) GetContextKey() string {
	if c.ContextKey == "" {
		return "user"
	}
	return c.ContextKey
}

// GetTokenExpiration returns the token lifetime in hours
func (c *AuthConfig) GetTokenExpiration() int {
	if c.TokenExpiration == 0 {
		return 1
	}
	return c.TokenExpiration
}

func (c *AuthConfig) GetTokenLookup() string {
	if c.TokenLookup == "" {
		return "header:" + router.HeaderAuthorization
	}
	return c.TokenLookup
}

func (c *AuthConfig) GetAuthScheme() string {
	if c.AuthScheme == "" {
		return "Bearer"
	}
	return c.AuthScheme
}

func (c *AuthConfig) GetIssuer() string {
	return c.Issuer
}

func (c *AuthConfig) GetAudience() []string {
	return c.Audience
}

var _ Config = (*AuthConfig)(nil)
