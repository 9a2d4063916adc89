package firebase

import (
	"context"
	"fmt"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/golang-jwt/jwt/v4"

	"craftmarket/pkg/errors"
)

// AuthClient verifies bearer credentials. In production it wraps the Firebase
// Admin SDK; in development it additionally accepts locally minted HS256
// tokens so the API is usable without a Firebase project.
type AuthClient struct {
	client      *auth.Client
	devSecret   string
	development bool
}

func NewAuthClient(client *auth.Client, devSecret string, development bool) *AuthClient {
	return &AuthClient{
		client:      client,
		devSecret:   devSecret,
		development: development,
	}
}

// VerifyToken resolves a bearer token to a user id.
func (a *AuthClient) VerifyToken(ctx context.Context, token string) (string, error) {
	if a.client != nil {
		if decoded, err := a.client.VerifyIDToken(ctx, token); err == nil {
			return decoded.UID, nil
		} else if !a.development {
			return "", errors.Unauthorized("Invalid or expired token", err)
		}
	}

	if a.development {
		return a.verifyDevToken(token)
	}

	return "", errors.Unauthorized("Invalid or expired token", nil)
}

func (a *AuthClient) verifyDevToken(token string) (string, error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(a.devSecret), nil
	})
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", errors.Unauthorized("Invalid or expired token", err)
	}
	return claims.Subject, nil
}

// GenerateDevToken mints a short-lived development token for the given user.
// Refused outside development.
func (a *AuthClient) GenerateDevToken(uid string) (string, error) {
	if !a.development {
		return "", errors.Forbidden("Dev tokens are disabled outside development", nil)
	}

	claims := jwt.RegisteredClaims{
		Subject:   uid,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
		Issuer:    "craftmarket-dev",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(a.devSecret))
	if err != nil {
		return "", errors.Internal("Failed to sign dev token", err)
	}
	return signed, nil
}
