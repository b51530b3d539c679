package auth

import (
	"errors"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"

	"github.com/spec-kit/chamado-service/internal/domain"
)

// TokenManager validates the HS256 tokens issued by the authentication
// service and can issue compatible ones for local use.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenManager builds a new manager.
func NewTokenManager(secret string, ttlMinutes int) *TokenManager {
	if ttlMinutes <= 0 {
		ttlMinutes = 60
	}
	return &TokenManager{
		secret: []byte(secret),
		ttl:    time.Duration(ttlMinutes) * time.Minute,
		now:    time.Now,
	}
}

// Claims describes JWT payload. The registered "sub" claim carries the
// employee id ("matrícula").
type Claims struct {
	Name string `json:"name,omitempty"`
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// Caller converts validated claims into the caller identity.
func (c *Claims) Caller() (domain.Caller, error) {
	if strings.TrimSpace(c.Subject) == "" {
		return domain.Caller{}, errors.New("token has no subject")
	}
	role, err := domain.ParseRole(c.Role)
	if err != nil {
		return domain.Caller{}, err
	}
	return domain.Caller{ID: c.Subject, Name: strings.TrimSpace(c.Name), Role: role}, nil
}

// GenerateToken builds and signs a JWT for the caller.
func (tm *TokenManager) GenerateToken(caller domain.Caller) (string, time.Time, error) {
	issuedAt := tm.now()
	expiresAt := issuedAt.Add(tm.ttl)
	claims := &Claims{
		Name: caller.Name,
		Role: string(caller.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   caller.ID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(issuedAt),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return tokenString, expiresAt, nil
}

// ParseToken validates the signature and expiry and returns the caller.
func (tm *TokenManager) ParseToken(tokenStr string) (domain.Caller, error) {
	parsed, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return tm.secret, nil
	}, jwt.WithExpirationRequired(), jwt.WithTimeFunc(tm.now))
	if err != nil {
		return domain.Caller{}, err
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Caller{}, errors.New("invalid token claims")
	}
	return claims.Caller()
}
