package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims identify the browser storage a cookie belongs to.
type Claims struct {
	StorageID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieExpiry is how long a browser keeps its storage cookie.
const CookieExpiry = 30 * 24 * time.Hour

const issuer = "labinventory"

// SignStorageID creates a signed cookie value for a browser storage ID.
func SignStorageID(secret, storageID string) (string, error) {
	if storageID == "" {
		return "", errors.New("empty storage id")
	}

	now := time.Now()
	claims := Claims{
		StorageID: storageID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			ExpiresAt: jwt.NewNumericDate(now.Add(CookieExpiry)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("signing cookie: %w", err)
	}
	return signed, nil
}

// ParseStorageID validates a cookie value and returns its claims.
func ParseStorageID(secret, value string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(value, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithIssuer(issuer))
	if err != nil {
		return nil, fmt.Errorf("parsing cookie: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.StorageID == "" {
		return nil, errors.New("invalid cookie")
	}

	return claims, nil
}
