// Package identity issues and verifies the JWTs that establish which
// clientId a connection, and therefore every Delta it submits, belongs to.
package identity

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identifies the collaborator a token was issued to.
type Claims struct {
	ClientID string `json:"client_id"`
	Label    string `json:"label"`
	jwt.RegisteredClaims
}

// Service issues and verifies client tokens with a single symmetric key.
type Service struct {
	secretKey []byte
	issuer    string
	ttl       time.Duration
}

// NewService returns a Service signing with secretKey, stamping issuer and
// expiring tokens after ttl (zero defaults to 24h).
func NewService(secretKey []byte, issuer string, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Service{secretKey: secretKey, issuer: issuer, ttl: ttl}
}

// Issue mints a signed token binding clientID to label.
func (s *Service) Issue(clientID, label string) (string, error) {
	now := time.Now()
	claims := Claims{
		ClientID: clientID,
		Label:    label,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    s.issuer,
			Subject:   clientID,
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secretKey)
}

// Verify parses and validates tokenString, returning the clientID and label
// it was issued for. internal/transport and its wsconn subpackage do not
// call it; wsconn.HandleWebSocket takes the clientID it is given.
func (s *Service) Verify(tokenString string) (clientID, label string, err error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("identity: unexpected signing method")
		}
		return s.secretKey, nil
	})
	if err != nil {
		return "", "", err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return "", "", errors.New("identity: invalid token claims")
	}
	if claims.ClientID == "" {
		return "", "", errors.New("identity: token missing client_id")
	}
	return claims.ClientID, claims.Label, nil
}
