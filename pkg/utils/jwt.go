package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = []byte("secret")

// SetSecret allows injecting the secret from config
func SetSecret(secret string) {
	jwtSecret = []byte(secret)
}

type contextKey string

const UserClaimsKey contextKey = "user_claims"

// UserClaims carries the actor identity. Customers have CustomerID set;
// administrators have AdminID and Role and IsAdmin=true.
type UserClaims struct {
	CustomerID string `json:"customer_id,omitempty"`
	AdminID    string `json:"admin_id,omitempty"`
	Role       string `json:"role,omitempty"`
	IsAdmin    bool   `json:"isAdmin"`
	jwt.RegisteredClaims
}

// ActorID returns the id of whoever the token belongs to.
func (c *UserClaims) ActorID() string {
	if c.IsAdmin {
		return c.AdminID
	}
	return c.CustomerID
}

func GenerateToken(claims UserClaims, ttl time.Duration) (string, error) {
	now := time.Now()
	claims.RegisteredClaims = jwt.RegisteredClaims{
		ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(now),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret)
}

func ValidateToken(tokenString string) (*UserClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &UserClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return jwtSecret, nil
	})

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, jwt.ErrTokenSignatureInvalid
	}
	if claims.ActorID() == "" {
		return nil, errors.New("token carries no actor id")
	}
	return claims, nil
}
