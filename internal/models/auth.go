package models

import "github.com/golang-jwt/jwt/v5"

// JWTClaims is the payload of operator access tokens.
type JWTClaims struct {
	Operator string `json:"operator"`
	jwt.RegisteredClaims
}
