package config

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Server   ServerConfig   `env:",prefix=SERVER_"`
	Postgres PostgresConfig `env:",prefix=POSTGRES_"`
	Redis    RedisConfig    `env:",prefix=REDIS_"`
	Identity IdentityConfig `env:",prefix=IDENTITY_"`
	Admin    AdminConfig    `env:",prefix="`
	Security SecurityConfig `env:",prefix="`
	Meta     MetaConfig     `env:",prefix=META_"`
	LLM      LLMConfig      `env:",prefix=LLM_"`
	Reply    ReplyConfig    `env:",prefix="`
	Debug    DebugConfig    `env:",prefix="`
	CORS     CORSConfig     `env:",prefix=CORS_"`
	Env      string         `env:"ENV,default=development"`
}

type ServerConfig struct {
	Port         string   `env:"PORT,default=8080"`
	Host         string   `env:"HOST,default=0.0.0.0"`
	ReadTimeout  Duration `env:"READ_TIMEOUT,default=15s"`
	WriteTimeout Duration `env:"WRITE_TIMEOUT,default=30s"`

	// CIDRs or IPs of reverse proxies whose X-Forwarded-For is honoured. Empty trusts none.
	TrustedProxies []string `env:"TRUSTED_PROXIES,default="`

	// Where the OAuth callback sends the browser after linking an account.
	DashboardURL string `env:"DASHBOARD_URL,default=http://localhost:3000/dashboard/account"`
}

type PostgresConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=5432"`
	User     string `env:"USER,default=reply_assistant"`
	Password string `env:"PASSWORD,default=reply_assistant_password"`
	DBName   string `env:"DB,default=reply_assistant_db"`
	SSLMode  string `env:"SSLMODE,default=disable"`

	// AutoMigrate applies pending migrations when the server starts.
	AutoMigrate bool `env:"AUTO_MIGRATE,default=false"`
}

type RedisConfig struct {
	Host     string `env:"HOST,default=localhost"`
	Port     string `env:"PORT,default=6379"`
	Password string `env:"PASSWORD,default="`
	DB       int    `env:"DB,default=0"`
}

// IdentityConfig describes how session tokens from the identity provider are verified.
type IdentityConfig struct {
	JWTSecret string `env:"JWT_SECRET,required"`
	Issuer    string `env:"ISSUER,default="`
}

type AdminConfig struct {
	UserIDs []string `env:"ADMIN_USER_IDS,default="`
}

type SecurityConfig struct {
	TokenEncryptionKey string   `env:"TOKEN_ENCRYPTION_KEY,required"`
	OAuthStateSecret   string   `env:"OAUTH_STATE_SECRET,default="`
	OAuthStateTTL      Duration `env:"OAUTH_STATE_TTL,default=10m"`
	RateLimitRequests  int      `env:"RATE_LIMIT_REQUESTS,default=30"`
	RateLimitWindow    Duration `env:"RATE_LIMIT_WINDOW,default=1m"`
}

type MetaConfig struct {
	AppID        string   `env:"APP_ID,default="`
	AppSecret    string   `env:"APP_SECRET,default="`
	RedirectURI  string   `env:"REDIRECT_URI,default=http://localhost:8080/api/v1/instagram/callback"`
	GraphVersion string   `env:"GRAPH_VERSION,default=v23.0"`
	HTTPTimeout  Duration `env:"HTTP_TIMEOUT,default=15s"`
	MaxRetries   int      `env:"MAX_RETRIES,default=2"`
}

type LLMConfig struct {
	Provider         string   `env:"PROVIDER,default=openai"`
	OpenAIAPIKey     string   `env:"OPENAI_API_KEY,default="`
	OpenAIBaseURL    string   `env:"OPENAI_BASE_URL,default=https://api.openai.com/v1"`
	GeminiAPIKey     string   `env:"GEMINI_API_KEY,default="`
	GeminiModel      string   `env:"GEMINI_MODEL,default=gemini-2.5-flash"`
	DraftModel       string   `env:"DRAFT_MODEL,default=gpt-4o-mini"`
	OperationalModel string   `env:"OPERATIONAL_PROMPT_MODEL,default=gpt-5.2"`
	Timeout          Duration `env:"TIMEOUT,default=60s"`
	MaxRetries       int      `env:"MAX_RETRIES,default=2"`

	// LogPromptIO is "true", "false" or empty (on outside production).
	LogPromptIO string `env:"LOG_PROMPT_IO,default="`
}

type ReplyConfig struct {
	IntentRulesPath string `env:"INTENT_RULES_PATH,default="`
}

type DebugConfig struct {
	InstagramCallbackPayload string `env:"DEBUG_INSTAGRAM_CALLBACK_PAYLOAD,default="`
	InstagramComments        string `env:"LOG_INSTAGRAM_COMMENTS,default="`
}

type CORSConfig struct {
	AllowedOrigins []string `env:"ALLOWED_ORIGINS,default=http://localhost:3000"`
	AllowedMethods []string `env:"ALLOWED_METHODS,default=GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders []string `env:"ALLOWED_HEADERS,default=Content-Type,Authorization"`
}

var hexKeyRegex = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// DSN returns PostgreSQL connection string
func (p PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		p.Host, p.Port, p.User, p.Password, p.DBName, p.SSLMode)
}

// URL returns the postgres:// form used by the migration driver
func (p PostgresConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.DBName, p.SSLMode)
}

// Address returns Redis connection address
func (r RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", r.Host, r.Port)
}

// IsProduction reports whether the service runs with production defaults
func (c Config) IsProduction() bool {
	return c.Env == "production"
}

// Enabled resolves a "true"/"false"/empty debug flag. Empty means enabled outside production.
func (c Config) Enabled(flag string) bool {
	switch strings.ToLower(strings.TrimSpace(flag)) {
	case "true":
		return true
	case "false":
		return false
	}
	return !c.IsProduction()
}

// Load loads configuration from environment variables
func Load(ctx context.Context) (*Config, error) {
	var config Config

	if err := envconfig.Process(ctx, &config); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if len(config.Identity.JWTSecret) < 32 {
		return nil, fmt.Errorf("IDENTITY_JWT_SECRET must be at least 32 characters long")
	}

	if err := ValidateEncryptionKey(config.Security.TokenEncryptionKey); err != nil {
		return nil, err
	}

	switch config.LLM.Provider {
	case "openai", "gemini":
	default:
		return nil, fmt.Errorf("LLM_PROVIDER must be one of openai, gemini; got %q", config.LLM.Provider)
	}

	return &config, nil
}

// ValidateEncryptionKey checks that key is 64 hex chars or exactly 32 bytes
func ValidateEncryptionKey(key string) error {
	key = strings.TrimSpace(key)
	if hexKeyRegex.MatchString(key) {
		return nil
	}
	if len([]byte(key)) != 32 {
		return fmt.Errorf("TOKEN_ENCRYPTION_KEY must be exactly 32 bytes (or 64 hex chars), got %d bytes", len([]byte(key)))
	}
	return nil
}

// LoadWithDefaults loads .env files and then the environment
func LoadWithDefaults() (*Config, error) {
	LoadDotEnv()
	return Load(context.Background())
}
