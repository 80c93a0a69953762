package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/medportal/medportal/server/auth/key"
)

// ActionTokenClaims bind a guardian action link to a single request and
// action, for a bounded window. Subject carries the request id.
type ActionTokenClaims struct {
	Action string `json:"action"`
	jwt.StandardClaims
}

// EncodeActionToken signs a time-boxed token for the given request/action pair
func EncodeActionToken(requestID, action string, ttl time.Duration, keyPair *key.KeyPair) (string, error) {
	claims := ActionTokenClaims{
		Action: action,
		StandardClaims: jwt.StandardClaims{
			Subject:   requestID,
			IssuedAt:  time.Now().Unix(),
			ExpiresAt: time.Now().Add(ttl).Unix(),
		},
	}

	token := jwt.NewWithClaims(jwt.GetSigningMethod("RS256"), claims)
	return token.SignedString(keyPair.PrivateKey)
}

// DecodeActionToken verifies the token signature & expiry, and returns its claims
func DecodeActionToken(tokenString string, keyPair *key.KeyPair) (*ActionTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &ActionTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodRSA); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return keyPair.PublicKey, nil
	})

	if err != nil || !token.Valid {
		return nil, fmt.Errorf("invalid action token: %v", err)
	}

	tokenClaims, ok := token.Claims.(*ActionTokenClaims)
	if !ok {
		return nil, fmt.Errorf("unable to assert token.Claims to ActionTokenClaims")
	}

	return tokenClaims, nil
}
