package main

import (
	"errors"
	"fmt"
	"log"
	"maternity-service/internal/app/config"
	"maternity-service/internal/app/services/core/authorization"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/utils"
	"time"
)

type tokenRequest struct {
	Subject    string
	Role       string
	FacilityID string
	TTL        time.Duration
}

// Mints an access token for seeding and local testing, signed with the
// service's JWT_SECRET and JWT_ISSUER.
func main() {
	internalConfig := config.NewInternalConfig()

	request := tokenRequest{
		Subject:    utils.GetEnvString("TOKEN_SUBJECT", ""),
		Role:       utils.GetEnvString("TOKEN_ROLE", constvars.RolePatient),
		FacilityID: utils.GetEnvString("TOKEN_FACILITY_ID", ""),
		TTL:        time.Duration(utils.GetEnvInt("TOKEN_TTL_IN_MINUTES", 60)) * time.Minute,
	}

	token, err := mintToken(internalConfig.JWT, request)
	if err != nil {
		log.Fatalf("Error minting token: %v", err)
	}
	fmt.Println(token)
}

func mintToken(cfg config.AppJWT, request tokenRequest) (string, error) {
	if cfg.Secret == "" {
		return "", errors.New("JWT_SECRET is not set")
	}
	if request.Subject == "" {
		return "", errors.New("TOKEN_SUBJECT is not set")
	}
	if _, err := authorization.NewPrincipal(request.Subject, request.Role, request.FacilityID); err != nil {
		return "", err
	}
	return utils.GenerateAccessToken(request.Subject, request.Role, request.FacilityID, cfg.Issuer, cfg.Secret, request.TTL)
}
