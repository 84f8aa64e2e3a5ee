package jwt

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	types "voice-order/internal/common/type"
	"voice-order/internal/pkg/logger"
	"voice-order/internal/pkg/validation"
)

const (
	SessionDataKey = "session_auth"
	issuer         = "voice-order"
	defaultSecret  = "$d3f4uIt_s3cr3t_key#"
)

var ErrInvalidToken = errors.New("invalid token")

type sessionClaims struct {
	SessionID string `json:"session_id"`
	jwt.RegisteredClaims
}

// Signer issues and checks session bearer tokens.
type Signer struct {
	secret []byte
	ttl    time.Duration
}

func NewSigner(secret string, ttl time.Duration) *Signer {
	if secret == "" {
		logger.Warning.Println("JWT_SECRET not found, using default secret")
		secret = defaultSecret
	}
	return &Signer{secret: []byte(secret), ttl: ttl}
}

func (s *Signer) GenerateSessionToken(sessionID string) (string, *time.Time, error) {
	now := time.Now()
	exp := now.Add(s.ttl)

	claims := sessionClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, &exp, nil
}

func (s *Signer) ValidateSessionToken(token string) (*types.SessionAuth, error) {
	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}

	auth := &types.SessionAuth{SessionID: claims.SessionID}
	if err := validation.Validate(auth); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}
	return auth, nil
}
