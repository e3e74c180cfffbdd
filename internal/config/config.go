package config

import (
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

const (
	BackendModeMock = "mock"
	BackendModeHTTP = "http"
)

// Config centraliza la configuración del frontend.
type Config struct {
	HTTPPort string `env:"HTTP_PORT" envDefault:"8000"`

	BackendMode    string        `env:"BACKEND_MODE" envDefault:"mock"`
	BackendBaseURL string        `env:"BACKEND_BASE_URL" envDefault:"http://localhost:8080"`
	BackendTimeout time.Duration `env:"BACKEND_TIMEOUT" envDefault:"30s"`

	MockLoginDelay    time.Duration `env:"MOCK_LOGIN_DELAY" envDefault:"1s"`
	MockRegisterDelay time.Duration `env:"MOCK_REGISTER_DELAY" envDefault:"1500ms"`
	MockQueryDelay    time.Duration `env:"MOCK_QUERY_DELAY" envDefault:"2s"`

	SessionSecret     string `env:"SESSION_SECRET"`
	SessionTTLMinutes int    `env:"SESSION_TTL_MINUTES" envDefault:"480"`
	CookieSecure      bool   `env:"COOKIE_SECURE" envDefault:"false"`

	ChatPageIdleMinutes int `env:"CHAT_PAGE_IDLE_MINUTES" envDefault:"30"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`

	RedisAddr     string `env:"REDIS_ADDR"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	LoginMaxAttempts   int `env:"LOGIN_MAX_ATTEMPTS" envDefault:"5"`
	LoginWindowMinutes int `env:"LOGIN_WINDOW_MINUTES" envDefault:"10"`

	DatabaseURL string `env:"DATABASE_URL"`
}

// LoadConfig carga la configuración desde variables de entorno.
func LoadConfig() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, err
	}
	cfg.BackendMode = strings.ToLower(strings.TrimSpace(cfg.BackendMode))
	return &cfg, nil
}

// SessionTTL devuelve la vigencia de la sesión autenticada.
func (c *Config) SessionTTL() time.Duration {
	if c.SessionTTLMinutes <= 0 {
		return 8 * time.Hour
	}
	return time.Duration(c.SessionTTLMinutes) * time.Minute
}

// LoginWindow devuelve la ventana del limitador de intentos de login.
func (c *Config) LoginWindow() time.Duration {
	if c.LoginWindowMinutes <= 0 {
		return 10 * time.Minute
	}
	return time.Duration(c.LoginWindowMinutes) * time.Minute
}

// ChatPageIdleTTL devuelve la inactividad tras la cual se descarta el
// controlador de una página de chat.
func (c *Config) ChatPageIdleTTL() time.Duration {
	if c.ChatPageIdleMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.ChatPageIdleMinutes) * time.Minute
}
