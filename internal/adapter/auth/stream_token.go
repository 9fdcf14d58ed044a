package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arturoeanton/reliefchat/internal/port"
	"github.com/golang-jwt/jwt/v5"
)

// StreamTokenSigner implements port.TokenSigner with the HS256 tokens Stream
// Chat expects: a "user_id" claim signed with the application secret.
type StreamTokenSigner struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewStreamTokenSigner creates a signer. A zero ttl issues tokens without an
// expiry, matching Stream's default server SDK behaviour.
func NewStreamTokenSigner(secret string, ttl time.Duration) *StreamTokenSigner {
	return &StreamTokenSigner{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// CreateToken returns a user token whose user_id claim is exactly userID.
func (s *StreamTokenSigner) CreateToken(userID string) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", port.InvalidArgument("user id is required")
	}
	if len(s.secret) == 0 {
		return "", errors.New("stream: api secret not configured")
	}

	claims := jwt.MapClaims{"user_id": userID}
	if s.ttl > 0 {
		now := s.now()
		claims["iat"] = now.Unix()
		claims["exp"] = now.Add(s.ttl).Unix()
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("stream: sign user token: %w", err)
	}
	return signed, nil
}

// ServerToken returns the token used to authenticate server-side API calls.
func (s *StreamTokenSigner) ServerToken() (string, error) {
	if len(s.secret) == 0 {
		return "", errors.New("stream: api secret not configured")
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"server": true}).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("stream: sign server token: %w", err)
	}
	return signed, nil
}

// VerifyToken validates a user token issued by CreateToken and returns its user_id.
func (s *StreamTokenSigner) VerifyToken(token string) (string, error) {
	parsed, err := jwt.Parse(token, func(*jwt.Token) (any, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil {
		return "", fmt.Errorf("%w: %w", port.ErrUnauthorized, err)
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", fmt.Errorf("%w: unexpected claims", port.ErrUnauthorized)
	}
	userID, _ := claims["user_id"].(string)
	if userID == "" {
		return "", fmt.Errorf("%w: token has no user_id", port.ErrUnauthorized)
	}
	return userID, nil
}
