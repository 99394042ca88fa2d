package auth

import (
	"context"
	"fmt"
	"time"

	"expensely-backend/internal/database/models"
	apperrors "expensely-backend/internal/errors"

	"github.com/golang-jwt/jwt/v5"
)

const hmacIssuer = "expensely-backend"

// Claims are the HS256 token claims issued for local development.
type Claims struct {
	Email string `json:"email" example:"john.doe@example.com"`
	Name  string `json:"name,omitempty" example:"John Doe"`
	jwt.RegisteredClaims
}

// HMACVerifier validates HS256 tokens signed with a shared secret.
type HMACVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewHMACVerifier creates a verifier for tokens signed with secret
func NewHMACVerifier(secret string) *HMACVerifier {
	return &HMACVerifier{secret: []byte(secret), now: time.Now}
}

// GenerateToken creates a signed token for the given identity
func (v *HMACVerifier) GenerateToken(uid, email, name string, ttl time.Duration) (string, error) {
	now := v.now()
	claims := &Claims{
		Email: email,
		Name:  name,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    hmacIssuer,
			Subject:   uid,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(v.secret)
}

// Verify validates and parses a token
func (v *HMACVerifier) Verify(_ context.Context, rawToken string) (*Principal, error) {
	token, err := jwt.ParseWithClaims(rawToken, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	},
		jwt.WithIssuer(hmacIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(v.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidCredential, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, apperrors.ErrInvalidCredential
	}
	return principalFromClaims(claims.Subject, claims.Email, claims.Name)
}

func principalFromClaims(sub, email, name string) (*Principal, error) {
	if sub == "" {
		return nil, fmt.Errorf("%w: missing subject", apperrors.ErrInvalidCredential)
	}
	email = models.NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("%w: token carries no email", apperrors.ErrInvalidCredential)
	}
	return &Principal{UID: sub, Email: email, Name: name}, nil
}
