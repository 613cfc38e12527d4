package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/response"
	"github.com/stemsi/etesthub-backend/internal/service"
)

// ContextKeyCredential is the Gin context key for the data-service credential.
const ContextKeyCredential = "credential"

// RequireSession resolves the data-service credential of the JWT's session.
// A revoked or expired session rejects the request.
func RequireSession(authService *service.AuthService, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		cred, err := authService.Credential(c.Request.Context(), claims)
		if errors.Is(err, service.ErrSessionExpired) {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
			return
		}
		if err != nil {
			log.Error().Err(err).Str("user_id", claims.UserID).Msg("Session lookup failed")
			response.AbortFail(c, http.StatusServiceUnavailable, response.ErrInternal)
			return
		}

		c.Set(ContextKeyCredential, cred)
		c.Next()
	}
}

// GetCredential retrieves the credential set by RequireSession.
func GetCredential(c *gin.Context) model.Credential {
	cred, _ := c.MustGet(ContextKeyCredential).(model.Credential)
	return cred
}

// GetUser rebuilds the caller from the JWT claims.
func GetUser(c *gin.Context) *model.User {
	claims := GetClaims(c)
	if claims == nil {
		return nil
	}
	return claims.User()
}
