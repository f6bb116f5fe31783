package jwt

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/google/uuid"
)

// AccessTokenValidity bounds how long an issued token can be used.
const AccessTokenValidity = 24 * time.Hour

// GenerateToken issues a signed access token for the given user.
func GenerateToken(userID uuid.UUID, username, secret string) (string, error) {
	claims := jwt.MapClaims{
		"id":       userID.String(),
		"username": username,
		"exp":      time.Now().Add(AccessTokenValidity).Unix(),
		"iat":      time.Now().Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ValidateAndGetClaims parses tokenString and returns its claims when the
// signature and expiry check out.
func ValidateAndGetClaims(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}

// UserIDFromClaims extracts the principal id carried in the token.
func UserIDFromClaims(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, ok := claims["id"].(string)
	if !ok {
		return uuid.Nil, errors.New("token missing user id")
	}
	return uuid.Parse(raw)
}
