package models

import "github.com/golang-jwt/jwt/v5"

// ServiceClaims are the bearer-token claims accepted by the operator API.
type ServiceClaims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}
