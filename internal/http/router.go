package http

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"smarthealth-frontend/internal/service"
)

// ServiceName es el nombre que reporta /health.
const ServiceName = "smarthealth-frontend"

// NewRouter configura el router de Gin con middlewares, páginas y API.
func NewRouter(
	logger *zap.Logger,
	corsOrigins []string,
	auth *service.AuthController,
	authH *AuthHandler,
	chatH *ChatHandler,
	wsH *WSHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares basicos: logging, recovery y CORS.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), corsMiddleware(corsOrigins))
	r.SetHTMLTemplate(pageTemplates)

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusTemporaryRedirect, service.PathLogin)
	})
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": ServiceName})
	})

	r.GET("/login", authH.LoginPage)
	r.POST("/login", authH.Login)
	r.GET("/register", authH.RegisterPage)
	r.POST("/register", authH.Register)
	r.POST("/logout", authH.Logout)

	pages := r.Group("/chat", SessionMiddleware(auth, redirectToLogin))
	pages.GET("", chatH.Page)
	pages.POST("/send", chatH.Send)
	pages.POST("/new", chatH.NewSession)

	api := r.Group("/api", jsonContentTypeMiddleware())
	api.POST("/validate/confirm", authH.ValidateConfirm)

	chatAPI := api.Group("/chat", SessionMiddleware(auth, unauthorizedJSON))
	chatAPI.GET("/session", chatH.GetSession)
	chatAPI.POST("/session", chatH.CreateSession)
	chatAPI.POST("/send", chatH.APISend)

	r.GET("/ws/chat", SessionMiddleware(auth, unauthorizedJSON), wsH.Handle)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}

// jsonContentTypeMiddleware fuerza Content-Type: application/json en responses.
func jsonContentTypeMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Content-Type", "application/json")
		c.Next()
	}
}

// corsMiddleware permite los orígenes configurados ("*" = cualquiera) con
// credenciales. Las preflight OPTIONS se responden con 204.
func corsMiddleware(origins []string) gin.HandlerFunc {
	allowed := newOriginSet(origins)

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" {
			if allowed.contains(origin) {
				h := c.Writer.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
				h.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+InstanceHeader)
				h.Add("Vary", "Origin")
			}
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// originSet es la lista de orígenes permitidos; "*" admite cualquiera.
type originSet struct {
	all     bool
	origins map[string]struct{}
}

func newOriginSet(origins []string) originSet {
	set := originSet{origins: make(map[string]struct{}, len(origins))}
	for _, o := range origins {
		o = strings.TrimRight(strings.TrimSpace(o), "/")
		if o == "*" {
			set.all = true
		}
		if o != "" {
			set.origins[o] = struct{}{}
		}
	}
	return set
}

func (s originSet) contains(origin string) bool {
	if s.all {
		return true
	}
	_, ok := s.origins[origin]
	return ok
}
