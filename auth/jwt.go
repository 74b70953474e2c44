package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "pickup-availability"

// Claims identifies the shopper session a token was issued for.
type Claims struct {
	SessionID   string `json:"session_id"`
	FirebaseUID string `json:"firebase_uid,omitempty"`
	jwt.RegisteredClaims
}

// SignJWT creates a signed session token.
func SignJWT(secret, sessionID, firebaseUID string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		SessionID:   sessionID,
		FirebaseUID: firebaseUID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sessionID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// ParseAndValidate parses a token and validates signature, issuer and expiry.
func ParseAndValidate(secret string, tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithIssuer(issuer))
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	if claims.SessionID == "" {
		return nil, errors.New("token carries no session")
	}
	return claims, nil
}
