package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/samvad-hq/samvad-news-topics/internal/domain"
)

// Authenticator resolves the caller of the current request.
type Authenticator interface {
	CurrentUser(ctx context.Context) (domain.User, error)
}

type tokenKey struct{}

// WithToken stores the raw bearer token on the context.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, strings.TrimSpace(token))
}

// TokenFromContext returns the bearer token stored by WithToken.
func TokenFromContext(ctx context.Context) (string, bool) {
	token, ok := ctx.Value(tokenKey{}).(string)
	return token, ok && token != ""
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// JWTConfig configures HS256 token validation.
type JWTConfig struct {
	Secret   string
	Issuer   string
	Audience string
	Leeway   time.Duration
}

// Claims are the token claims mapped onto a User.
type Claims struct {
	Name    string `json:"name,omitempty"`
	Picture string `json:"picture,omitempty"`
	Email   string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// JWTAuthenticator validates HS256 bearer tokens.
type JWTAuthenticator struct {
	secret []byte
	parser *jwt.Parser
}

// NewJWTAuthenticator returns an authenticator for cfg. An empty secret yields
// an authenticator that rejects every request.
func NewJWTAuthenticator(cfg JWTConfig) *JWTAuthenticator {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}
	if cfg.Audience != "" {
		opts = append(opts, jwt.WithAudience(cfg.Audience))
	}
	if cfg.Leeway > 0 {
		opts = append(opts, jwt.WithLeeway(cfg.Leeway))
	}
	return &JWTAuthenticator{
		secret: []byte(strings.TrimSpace(cfg.Secret)),
		parser: jwt.NewParser(opts...),
	}
}

// CurrentUser validates the context token and maps its claims.
func (a *JWTAuthenticator) CurrentUser(ctx context.Context) (domain.User, error) {
	if len(a.secret) == 0 {
		return domain.User{}, fmt.Errorf("%w: authentication is not configured", domain.ErrUnauthenticated)
	}
	raw, ok := TokenFromContext(ctx)
	if !ok {
		return domain.User{}, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthenticated)
	}

	var claims Claims
	_, err := a.parser.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return a.secret, nil
	})
	if err != nil {
		return domain.User{}, fmt.Errorf("%w: %w", domain.ErrUnauthenticated, err)
	}
	if claims.Subject == "" {
		return domain.User{}, fmt.Errorf("%w: token has no subject", domain.ErrUnauthenticated)
	}

	return domain.User{
		ID:     claims.Subject,
		Name:   optional(claims.Name),
		Avatar: optional(claims.Picture),
		Email:  claims.Email,
	}, nil
}

// Sign issues an HS256 token for claims. It is used by local tooling and tests.
func Sign(secret string, claims Claims) (string, error) {
	if strings.TrimSpace(secret) == "" {
		return "", errors.New("jwt secret is empty")
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(strings.TrimSpace(secret)))
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
