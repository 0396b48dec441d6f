package middlewares

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/janhq/notes-mcp/internal/domain/identity"
	"github.com/janhq/notes-mcp/internal/interfaces/httpserver/responses"
	"github.com/janhq/notes-mcp/internal/utils/platformerrors"
)

// GrantVerifier turns a bearer grant into the user it was issued to
type GrantVerifier interface {
	Verify(token string) (*identity.User, error)
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

// BearerGrant rejects requests without a valid access grant and stores the
// grant's user in the request context.
func BearerGrant(verifier GrantVerifier, resourceMetadataURL string) gin.HandlerFunc {
	challenge := `Bearer realm="notes-mcp"`
	if resourceMetadataURL != "" {
		challenge += `, resource_metadata="` + resourceMetadataURL + `"`
	}

	return func(c *gin.Context) {
		token := BearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.Header("WWW-Authenticate", challenge)
			responses.HandleNewError(c, platformerrors.ErrorTypeUnauthorized, "missing bearer token", "3f0c8a41-6c55-4f4e-9a3e-0d5f6a1b2c01")
			return
		}

		user, err := verifier.Verify(token)
		if err != nil {
			c.Header("WWW-Authenticate", challenge+`, error="invalid_token"`)
			c.AbortWithStatusJSON(http.StatusUnauthorized, responses.ErrorResponse{
				Code:      "7d2e9b10-4a8f-4c3e-b1d2-5e6f7a8b9c02",
				Error:     "invalid or expired token",
				RequestID: platformerrors.RequestIDFromContext(c.Request.Context()),
			})
			return
		}

		c.Request = c.Request.WithContext(identity.WithUser(c.Request.Context(), user))
		c.Next()
	}
}
