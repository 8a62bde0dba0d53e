package middlewares

import (
	"context"
	"maternity-service/internal/app/models"
	"maternity-service/internal/app/services/core/authorization"
	"maternity-service/internal/pkg/constvars"
	"maternity-service/internal/pkg/exceptions"
	"maternity-service/internal/pkg/utils"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const bearerPrefix = "Bearer "

// Authenticate turns the identity provider's access token into a principal.
// Token issuance happens elsewhere; this only verifies and maps claims.
func (m *Middlewares) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := utils.GetRequestID(r.Context())

		header := r.Header.Get(constvars.HeaderAuthorization)
		token := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if header == "" || token == "" || token == header {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenMissing(nil))
			return
		}

		claims, err := utils.ParseAccessToken(token, m.InternalConfig.JWT.Secret)
		if err != nil {
			utils.LogSecurityEvent(m.Log, "invalid_access_token", requestID, "low",
				zap.String(constvars.LoggingRemoteAddrKey, r.RemoteAddr),
				zap.Error(err),
			)
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenInvalidOrExpired(err))
			return
		}
		if issuer := m.InternalConfig.JWT.Issuer; issuer != "" && claims.Issuer != issuer {
			utils.BuildErrorResponse(m.Log, w, exceptions.ErrTokenInvalidOrExpired(nil))
			return
		}

		principal, err := authorization.NewPrincipal(claims.Subject, claims.Role, claims.FacilityID)
		if err != nil {
			utils.BuildErrorResponse(m.Log, w, err)
			return
		}

		m.Log.Debug("Principal resolved",
			zap.String(constvars.LoggingRequestIDKey, requestID),
			zap.String(constvars.LoggingPrincipalIDKey, principal.IdentityID),
			zap.String(constvars.LoggingRoleKey, principal.Role),
		)

		ctx := context.WithValue(r.Context(), constvars.CONTEXT_PRINCIPAL_KEY, principal)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func PrincipalFromContext(ctx context.Context) (*models.Principal, bool) {
	principal, ok := ctx.Value(constvars.CONTEXT_PRINCIPAL_KEY).(*models.Principal)
	return principal, ok && principal != nil
}
