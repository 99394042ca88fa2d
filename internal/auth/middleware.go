package auth

import (
	"errors"
	"strings"

	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/logger"

	"github.com/gin-gonic/gin"
)

const (
	principalContextKey = "principal"
	emailContextKey     = "email"
	userIDContextKey    = "user_id"
)

var errVerifierUnavailable = errors.New("credential verification unavailable")

// AuthMiddleware authenticates requests with a Verifier
type AuthMiddleware struct {
	verifier Verifier
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier Verifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

func abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(apperrors.HTTPStatus(err), gin.H{
		"error": err.Error(),
		"code":  apperrors.Code(err),
	})
}

// RequireAuth verifies the bearer token and sets the principal on the context.
// A missing credential is 401; a rejected one is 403. Verifier failures that
// are not about the credential, such as an unreachable certificate endpoint,
// are 500.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		tokenString, found := strings.CutPrefix(authHeader, "Bearer ")
		tokenString = strings.TrimSpace(tokenString)
		if !found || tokenString == "" {
			abortWithError(c, apperrors.ErrMissingCredential)
			return
		}

		principal, err := m.verifier.Verify(c.Request.Context(), tokenString)
		if err != nil {
			logger.WithContext(c.Request.Context()).
				WithError(err).
				WithField("path", c.FullPath()).
				Warn("token verification failed")
			if !apperrors.IsAuthorization(err) {
				err = errVerifierUnavailable
			}
			abortWithError(c, err)
			return
		}

		SetPrincipal(c, principal)
		c.Next()
	}
}

// SetPrincipal attaches p to the gin context and the request context
func SetPrincipal(c *gin.Context, p *Principal) {
	c.Set(principalContextKey, p)
	c.Set(emailContextKey, p.Email)
	c.Set(userIDContextKey, p.UID)

	ctx := ContextWithPrincipal(c.Request.Context(), p)
	c.Request = c.Request.WithContext(logger.ContextWithUser(ctx, p.Email))
}

// GetPrincipal returns the principal set by RequireAuth
func GetPrincipal(c *gin.Context) (*Principal, bool) {
	value, exists := c.Get(principalContextKey)
	if !exists {
		return nil, false
	}
	principal, ok := value.(*Principal)
	return principal, ok && principal != nil
}

// GetUserEmail is a helper function to extract user email from context
func GetUserEmail(c *gin.Context) (string, bool) {
	email, exists := c.Get(emailContextKey)
	if !exists {
		return "", false
	}

	emailStr, ok := email.(string)
	return emailStr, ok && emailStr != ""
}
