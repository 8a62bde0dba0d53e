package utils

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// AccessClaims are the identity claims handed over by the external identity provider.
type AccessClaims struct {
	Role       string `json:"role"`
	FacilityID string `json:"facility_id,omitempty"`
	jwt.RegisteredClaims
}

// GenerateAccessToken signs claims shaped like the identity provider's. The
// service only verifies tokens; minting is for seeding and local tooling.
func GenerateAccessToken(subject, role, facilityID, issuer, secret string, ttl time.Duration) (string, error) {
	claims := AccessClaims{
		Role:       role,
		FacilityID: facilityID,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

func ParseAccessToken(tokenString, secret string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("invalid token signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}

	if !token.Valid || claims.Subject == "" {
		return nil, errors.New("invalid token")
	}
	return claims, nil
}
