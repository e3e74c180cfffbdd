package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"smarthealth-frontend/internal/domain"
	"smarthealth-frontend/internal/service"
)

// SessionCookieName es la cookie que transporta el token de sesión.
const SessionCookieName = "smarthealth_session"

const (
	authSessionKey = "auth_session"
	authTokenKey   = "auth_token"
)

// SessionMiddleware resuelve la sesión de la cookie y la guarda en el contexto.
// Sin sesión válida ejecuta onMissing, que debe abortar la petición.
func SessionMiddleware(auth *service.AuthController, onMissing gin.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if auth == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "auth not configured"})
			return
		}

		token := sessionCookie(c)
		if token == "" {
			onMissing(c)
			return
		}
		session, err := auth.Session(c.Request.Context(), token)
		if err != nil {
			onMissing(c)
			return
		}

		c.Set(authSessionKey, session)
		c.Set(authTokenKey, token)
		c.Next()
	}
}

// redirectToLogin es la respuesta de las páginas sin sesión.
func redirectToLogin(c *gin.Context) {
	c.Redirect(http.StatusSeeOther, service.PathLogin)
	c.Abort()
}

// unauthorizedJSON es la respuesta de la API sin sesión.
func unauthorizedJSON(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
}

// GetAuthSession obtiene la sesión autenticada desde el contexto.
func GetAuthSession(c *gin.Context) (domain.AuthSession, bool) {
	val, ok := c.Get(authSessionKey)
	if !ok {
		return domain.AuthSession{}, false
	}
	session, ok := val.(domain.AuthSession)
	return session, ok
}

func authToken(c *gin.Context) string {
	return c.GetString(authTokenKey)
}

func sessionCookie(c *gin.Context) string {
	token, err := c.Cookie(SessionCookieName)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(token)
}
