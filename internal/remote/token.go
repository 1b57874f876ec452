package remote

import (
	"encoding/hex"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// createBearerToken generates a short-lived HS256 JWT from an "id:secret"
// API key, with the key id in the kid header.
func createBearerToken(apiKey, audience string) (string, error) {
	keyParts := strings.Split(apiKey, ":")
	if len(keyParts) != 2 {
		return "", fmt.Errorf("invalid api key format: expected id:secret")
	}

	id := keyParts[0]
	secret, err := hex.DecodeString(keyParts[1])
	if err != nil {
		return "", fmt.Errorf("failed to decode secret hex: %w", err)
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"iat": time.Now().Unix(),
		"exp": time.Now().Add(5 * time.Minute).Unix(),
		"aud": audience,
	})
	token.Header["kid"] = id

	return token.SignedString(secret)
}

// validAPIKey reports whether an API key can produce a signed token.
func validAPIKey(apiKey string) bool {
	_, err := createBearerToken(apiKey, "/")
	return err == nil
}
