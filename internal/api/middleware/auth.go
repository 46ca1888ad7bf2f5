// internal/api/middleware/auth.go
package middleware

import (
	"net/http"
	"strings"

	"reconciliation-service/internal/api/responses"

	"github.com/gin-gonic/gin"
)

const userIDKey = "user_id"

// TokenParser validates a bearer token and returns the user id it carries.
type TokenParser interface {
	ParseToken(token string) (uint64, error)
}

// RequireAuth exige "Authorization: Bearer <token>" válido.
func RequireAuth(parser TokenParser) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			responses.Error(c, http.StatusUnauthorized, "Token de acesso ausente ou inválido")
			return
		}

		userID, err := parser.ParseToken(strings.TrimSpace(strings.TrimPrefix(header, "Bearer ")))
		if err != nil {
			responses.Error(c, http.StatusUnauthorized, "Token de acesso inválido ou expirado")
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID devolve o usuário autenticado da requisição.
func UserID(c *gin.Context) (uint64, bool) {
	v, ok := c.Get(userIDKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(uint64)
	return id, ok
}

// SetUserID is used by tests and internal callers to mark a request as authenticated.
func SetUserID(c *gin.Context, id uint64) {
	c.Set(userIDKey, id)
}
