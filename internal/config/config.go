package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Redis    RedisConfig
	AI       AIConfig
	Engine   EngineConfig  `mapstructure:"engine"`
	Tracing  TracingConfig `mapstructure:"tracing"`
	CORS     CORSConfig    `mapstructure:"cors"`
}

type ServerConfig struct {
	Port     string
	Mode     string
	AdminKey string `mapstructure:"admin_key"`
}

type DatabaseConfig struct {
	Host      string
	Port      int
	User      string
	Password  string
	DBName    string
	Charset   string
	ParseTime bool
}

type JWTConfig struct {
	Secret     string        `mapstructure:"secret"`
	ExpireTime time.Duration `mapstructure:"expire_hours"`
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type AIConfig struct {
	BaseURL string `mapstructure:"base_url"`
	APIKey  string `mapstructure:"api_key"`
	Model   string `mapstructure:"model"`
}

// EngineConfig holds the adaptive-engine knobs. Components receive it at
// construction time; nothing in the engine reads process environment directly.
type EngineConfig struct {
	MockGeneration     bool          `mapstructure:"mock_generation"`
	MinStockThreshold  int           `mapstructure:"min_stock_threshold"`
	MasteryAccuracy    float64       `mapstructure:"mastery_accuracy"`
	MasteryMinAttempts int           `mapstructure:"mastery_min_attempts"`
	GenerationTimeout  time.Duration `mapstructure:"generation_timeout_sec"`
	GenerationRetries  int           `mapstructure:"generation_retries"`
	RestockQueueSize   int           `mapstructure:"restock_queue_size"`
}

type TracingConfig struct {
	Enabled           bool   `mapstructure:"enabled"`
	CollectorEndpoint string `mapstructure:"collector_endpoint"`
}

type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	viper.SetEnvPrefix("STUDYBUDDY")
	viper.AutomaticEnv()

	// Database
	viper.BindEnv("database.host", "DATABASE_HOST")
	viper.BindEnv("database.port", "DATABASE_PORT")
	viper.BindEnv("database.user", "DATABASE_USER")
	viper.BindEnv("database.password", "DATABASE_PASSWORD")
	viper.BindEnv("database.dbname", "DATABASE_NAME")

	// JWT
	viper.BindEnv("jwt.secret", "JWT_SECRET")

	// Redis
	viper.BindEnv("redis.host", "REDIS_HOST")
	viper.BindEnv("redis.port", "REDIS_PORT")
	viper.BindEnv("redis.password", "REDIS_PASSWORD")

	// Server
	viper.BindEnv("server.mode", "SERVER_MODE")
	viper.BindEnv("server.admin_key", "ADMIN_KEY")

	// AI
	viper.BindEnv("ai.base_url", "AI_BASE_URL")
	viper.BindEnv("ai.api_key", "AI_API_KEY")
	viper.BindEnv("ai.model", "AI_MODEL")

	// Engine
	viper.BindEnv("engine.mock_generation", "STUDYBUDDY_MOCK_AI")

	// Tracing
	viper.BindEnv("tracing.enabled", "TRACING_ENABLED")
	viper.BindEnv("tracing.collector_endpoint", "TRACING_COLLECTOR_ENDPOINT")

	viper.SetDefault("engine.min_stock_threshold", 10)
	viper.SetDefault("engine.mastery_accuracy", 0.95)
	viper.SetDefault("engine.mastery_min_attempts", 10)
	viper.SetDefault("engine.generation_timeout_sec", 30)
	viper.SetDefault("engine.generation_retries", 3)
	viper.SetDefault("engine.restock_queue_size", 64)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.JWT.ExpireTime = cfg.JWT.ExpireTime * time.Hour
	cfg.Engine.GenerationTimeout = cfg.Engine.GenerationTimeout * time.Second

	if cfg.Server.Mode == "release" && len(cfg.JWT.Secret) < 32 {
		return nil, fmt.Errorf("JWT secret is too short (%d chars), must be at least 32 characters in release mode", len(cfg.JWT.Secret))
	}

	return &cfg, nil
}
