package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Config holds verification parameters for journal API tokens.
type Config struct {
	Secret string
	Issuer string
}

// ScopeSet is the set of OAuth scopes granted to a token.
type ScopeSet map[string]struct{}

// Has reports whether the scope was granted.
func (s ScopeSet) Has(scope string) bool {
	_, ok := s[scope]
	return ok
}

// Claims carries the identity the journal API acts on behalf of. Subject is
// the journal user; TenantID partitions saved entries.
type Claims struct {
	Subject   string
	TenantID  string
	Scopes    ScopeSet
	ExpiresAt time.Time
}

// HasScope reports whether the claim set includes the provided scope.
func (c *Claims) HasScope(scope string) bool {
	return c != nil && c.Scopes.Has(scope)
}

// ErrMissingToken is returned when the Authorization header is absent.
var ErrMissingToken = errors.New("missing bearer token")

// ErrInvalidToken wraps parsing/validation errors.
var ErrInvalidToken = errors.New("invalid bearer token")

// Parse validates a bearer token and returns its claims. Tokens are HS256
// with the shared secret; any other algorithm or issuer is rejected.
func Parse(token string, cfg Config) (*Claims, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrMissingToken
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(cfg.Secret), nil
	}, jwt.WithIssuer(cfg.Issuer), jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	raw, ok := parsed.Claims.(jwt.MapClaims)
	if !ok || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	return claimsFrom(raw)
}

func claimsFrom(raw jwt.MapClaims) (*Claims, error) {
	subject, _ := raw["sub"].(string)
	tenantID, _ := raw["tenant_id"].(string)
	if subject == "" || tenantID == "" {
		return nil, fmt.Errorf("%w: subject and tenant are required", ErrInvalidToken)
	}

	exp, err := raw.GetExpirationTime()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	return &Claims{
		Subject:   subject,
		TenantID:  tenantID,
		Scopes:    scopeSet(raw["scopes"]),
		ExpiresAt: exp.Time,
	}, nil
}

// scopeSet accepts the scope claim as a JSON array or a space-separated
// string; identity providers emit both.
func scopeSet(value interface{}) ScopeSet {
	out := make(ScopeSet)
	add := func(scope string) {
		scope = strings.TrimSpace(scope)
		if scope != "" {
			out[scope] = struct{}{}
		}
	}

	switch v := value.(type) {
	case []interface{}:
		for _, item := range v {
			if scope, ok := item.(string); ok {
				add(scope)
			}
		}
	case []string:
		for _, scope := range v {
			add(scope)
		}
	case string:
		for _, scope := range strings.Split(v, " ") {
			add(scope)
		}
	}
	return out
}
