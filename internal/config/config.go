package config

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"worldforge/shared/utils"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Supported WORLD_STORE values.
const (
	StoreMemory   = "memory"
	StorePostgres = "postgres"
	StoreRedis    = "redis"
	StoreSQLite   = "sqlite"
)

// Config holds the configuration of the world history service.
type Config struct {
	Env        string `envconfig:"ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat  string `envconfig:"LOG_FORMAT" default:"json"`
	ServerPort string `envconfig:"SERVER_PORT" default:"8080"`

	// CORS
	CORSAllowedOrigins string `envconfig:"CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`

	// AI
	AIClientType     string        `envconfig:"AI_CLIENT_TYPE" default:"openai"` // openai | ollama
	AIBaseURL        string        `envconfig:"AI_BASE_URL" default:"https://openrouter.ai/api/v1"`
	AIModel          string        `envconfig:"AI_MODEL" default:"deepseek/deepseek-chat"`
	AITimeout        time.Duration `envconfig:"AI_TIMEOUT" default:"120s"`
	AITemperature    float64       `envconfig:"AI_TEMPERATURE" default:"1.0"`
	AITopP           float64       `envconfig:"AI_TOP_P" default:"1.0"`
	AIMaxTokens      int           `envconfig:"AI_MAX_TOKENS" default:"8192"`
	AIBaseRetryDelay time.Duration `envconfig:"AI_BASE_RETRY_DELAY" default:"1s"`
	NameMaxAttempts  int           `envconfig:"NAME_MAX_ATTEMPTS" default:"3"`
	// Secret, read from /run/secrets/ai_api_key
	AIAPIKey string

	// Storage
	WorldStore string `envconfig:"WORLD_STORE" default:"memory"`
	SQLitePath string `envconfig:"SQLITE_PATH" default:"data/worlds.db"`

	// PostgreSQL
	DBHost        string        `envconfig:"DB_HOST" default:"localhost"`
	DBPort        string        `envconfig:"DB_PORT" default:"5432"`
	DBUser        string        `envconfig:"DB_USER" default:"postgres"`
	DBName        string        `envconfig:"DB_NAME" default:"worldforge"`
	DBSSLMode     string        `envconfig:"DB_SSL_MODE" default:"disable"`
	DBMaxConns    int           `envconfig:"DB_MAX_CONNECTIONS" default:"10"`
	DBIdleTimeout time.Duration `envconfig:"DB_MAX_IDLE_MINUTES" default:"5m"`
	// Secret, read from /run/secrets/db_password
	DBPassword string

	// Redis. Used as a store and/or for the cross-replica advancement latch.
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	UseRedisLatch  bool          `envconfig:"USE_REDIS_LATCH" default:"false"`
	LatchTTL       time.Duration `envconfig:"LATCH_TTL" default:"5m"`
	RedisPassword  string
	RedisKeyPrefix string `envconfig:"REDIS_KEY_PREFIX" default:"worldforge"`

	// RabbitMQ. Empty URL disables event publishing.
	RabbitMQURL      string `envconfig:"RABBITMQ_URL" default:""`
	WorldEventsQueue string `envconfig:"WORLD_EVENTS_QUEUE" default:"world_events"`
}

// GetDSN returns the PostgreSQL connection string.
func (c *Config) GetDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.DBUser, c.DBPassword, c.DBHost, c.DBPort, c.DBName, c.DBSSLMode)
}

// GetAllowedOrigins splits CORSAllowedOrigins on commas.
func (c *Config) GetAllowedOrigins() []string {
	if c.CORSAllowedOrigins == "" {
		return nil
	}
	return strings.Split(strings.ReplaceAll(c.CORSAllowedOrigins, " ", ""), ",")
}

// LatchSaveMargin is the time an advance needs after the model call returns
// to repair, merge and save the world.
const LatchSaveMargin = 30 * time.Second

// Validate checks enum-like settings and the advance latch lifetime.
func (c *Config) Validate() error {
	switch c.WorldStore {
	case StoreMemory, StorePostgres, StoreRedis, StoreSQLite:
	default:
		return fmt.Errorf("unsupported WORLD_STORE %q", c.WorldStore)
	}
	switch strings.ToLower(c.AIClientType) {
	case "openai", "ollama":
	default:
		return fmt.Errorf("unsupported AI_CLIENT_TYPE %q", c.AIClientType)
	}
	if c.NameMaxAttempts < 1 {
		return fmt.Errorf("NAME_MAX_ATTEMPTS must be positive, got %d", c.NameMaxAttempts)
	}
	if c.UseRedisLatch && c.LatchTTL < c.AITimeout+LatchSaveMargin {
		return fmt.Errorf("LATCH_TTL (%v) must be at least AI_TIMEOUT (%v) plus %v, or an advance can outlive its latch",
			c.LatchTTL, c.AITimeout, LatchSaveMargin)
	}
	return nil
}

// LoadConfig loads configuration from envFilePath (if present), the
// environment and docker secrets.
func LoadConfig(envFilePath string) (*Config, error) {
	if envFilePath != "" {
		if _, err := os.Stat(envFilePath); err == nil {
			if err := godotenv.Load(envFilePath); err != nil {
				log.Printf("Warning: Could not load %s file: %v", envFilePath, err)
			}
		}
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("error processing env vars: %w", err)
	}

	var err error
	if cfg.AIAPIKey, err = utils.ReadOptionalSecret("ai_api_key"); err != nil {
		return nil, err
	}
	if cfg.AIAPIKey == "" {
		// Local setups pass the key through the environment.
		cfg.AIAPIKey = os.Getenv("AI_API_KEY")
	}
	if cfg.AIAPIKey == "" && strings.ToLower(cfg.AIClientType) == "openai" {
		return nil, fmt.Errorf("ai_api_key secret is required for AI_CLIENT_TYPE=openai")
	}

	if cfg.WorldStore == StorePostgres {
		if cfg.DBPassword, err = utils.ReadSecret("db_password"); err != nil {
			return nil, err
		}
	}
	if cfg.RedisPassword, err = utils.ReadOptionalSecret("redis_password"); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log.Printf("Configuration loaded:")
	log.Printf("  Env: %s, Port: %s, LogLevel: %s", cfg.Env, cfg.ServerPort, cfg.LogLevel)
	log.Printf("  AI: client=%s model=%s baseURL=%s timeout=%v", cfg.AIClientType, cfg.AIModel, cfg.AIBaseURL, cfg.AITimeout)
	log.Printf("  World store: %s", cfg.WorldStore)
	if cfg.WorldStore == StorePostgres {
		log.Printf("  DB DSN: %s", cfg.getMaskedDSN())
	}
	if cfg.WorldStore == StoreRedis || cfg.UseRedisLatch {
		log.Printf("  Redis: %s db=%d", cfg.RedisAddr, cfg.RedisDB)
	}
	if cfg.RabbitMQURL != "" {
		log.Printf("  World events queue: %s", cfg.WorldEventsQueue)
	}

	return &cfg, nil
}

// getMaskedDSN returns the DSN with the password replaced for logging.
func (c *Config) getMaskedDSN() string {
	dsn := c.GetDSN()
	parts := strings.Split(dsn, "@")
	if len(parts) != 2 {
		return "[invalid dsn format]"
	}
	userInfo := strings.Split(parts[0], ":")
	if len(userInfo) >= 2 {
		userInfo[len(userInfo)-1] = "********"
	}
	return strings.Join(userInfo, ":") + "@" + parts[1]
}
