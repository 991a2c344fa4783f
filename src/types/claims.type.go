package types

import "github.com/golang-jwt/jwt/v4"

// Claims are carried by staff tokens presented to the gate and booking endpoints.
type Claims struct {
	Username    string   `json:"username"`
	Role        string   `json:"role"`
	Permissions []string `json:"permissions"`
	jwt.RegisteredClaims
}

const (
	ROLE_STAFF = "staff"
	ROLE_ADMIN = "admin"
)
