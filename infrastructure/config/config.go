package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	domainconfig "pathfinder-backend/domain/config"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress string `yaml:"server_address"`
	Environment   string `yaml:"environment"`
	IsLambda      bool   `yaml:"-"`
	ConfigFile    string `yaml:"-"`

	// Storage
	StorageDriver string `yaml:"storage_driver"` // sqlite | postgres | dynamodb | memory
	DatabaseURL   string `yaml:"database_url"`
	SQLitePath    string `yaml:"sqlite_path"`

	// AWS configuration
	AWSRegion     string `yaml:"aws_region"`
	AWSEndpoint   string `yaml:"aws_endpoint"` // DynamoDB Local, LocalStack
	DynamoDBTable string `yaml:"dynamodb_table"`
	EventBusName  string `yaml:"event_bus_name"`

	// Ingestion locks and shared rate limits
	LockDriver    string        `yaml:"lock_driver"` // local | redis | dynamodb
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	LockLease     time.Duration `yaml:"lock_lease"`
	LockTimeout   time.Duration `yaml:"lock_timeout"`

	// Events
	EventPublisher string `yaml:"event_publisher"` // log | eventbridge

	// Language model
	LLMProvider       string        `yaml:"llm_provider"` // openai | langchain | none
	OpenAIAPIKey      string        `yaml:"-"`
	OpenAIBaseURL     string        `yaml:"openai_base_url"`
	LLMModel          string        `yaml:"llm_model"`
	LLMTemperature    float64       `yaml:"llm_temperature"`
	LLMMaxTokens      int           `yaml:"llm_max_tokens"`
	LLMTimeout        time.Duration `yaml:"llm_timeout"`
	LLMRequestsPerSec float64       `yaml:"llm_requests_per_sec"`
	LLMMaxInputChars  int           `yaml:"llm_max_input_chars"`

	// Uploads
	UploadDir      string `yaml:"upload_dir"`
	MaxUploadBytes int64  `yaml:"max_upload_bytes"`

	// Authentication
	JWTSecret       string        `yaml:"-"`
	JWTIssuer       string        `yaml:"jwt_issuer"`
	JWTAudience     []string      `yaml:"jwt_audience"`
	JWTTTL          time.Duration `yaml:"jwt_ttl"`
	BcryptCost      int           `yaml:"bcrypt_cost"`
	IPRateLimit     int           `yaml:"ip_rate_limit"`   // requests per minute
	UserRateLimit   int           `yaml:"user_rate_limit"` // requests per minute
	RateLimitDriver string        `yaml:"rate_limit_driver"`

	// Logging
	LogLevel string `yaml:"log_level"`

	// Feature flags
	EnableMetrics bool     `yaml:"enable_metrics"`
	EnableTracing bool     `yaml:"enable_tracing"`
	OTLPEndpoint  string   `yaml:"otlp_endpoint"`
	EnableCORS    bool     `yaml:"enable_cors"`
	CORSOrigins   []string `yaml:"cors_origins"`

	// Domain rules; reloaded at runtime by the watcher
	Domain DomainSettings `yaml:"domain"`
}

// DomainSettings overrides individual domain rules. Nil fields keep the
// environment default.
type DomainSettings struct {
	DefaultGraphName           *string        `yaml:"default_graph_name"`
	MaxTopicNameLength         *int           `yaml:"max_topic_name_length"`
	MaxTopicsPerIngestion      *int           `yaml:"max_topics_per_ingestion"`
	MaxConnectionsPerIngestion *int           `yaml:"max_connections_per_ingestion"`
	AllowSelfConnections       *bool          `yaml:"allow_self_connections"`
	MaxPaths                   *int           `yaml:"max_paths"`
	MaxPathDepth               *int           `yaml:"max_path_depth"`
	RoadmapTimeout             *time.Duration `yaml:"roadmap_timeout"`
}

// Default returns the built-in configuration before any file or environment overrides
func Default() *Config {
	return &Config{
		ServerAddress:     ":8080",
		Environment:       "development",
		StorageDriver:     "sqlite",
		SQLitePath:        "pathfinder.db",
		AWSRegion:         "us-west-2",
		DynamoDBTable:     "pathfinder",
		EventBusName:      "pathfinder-events",
		LockDriver:        "local",
		RedisAddr:         "localhost:6379",
		LockLease:         30 * time.Second,
		LockTimeout:       10 * time.Second,
		EventPublisher:    "log",
		LLMProvider:       "none",
		LLMTemperature:    0.2,
		LLMMaxTokens:      2048,
		LLMTimeout:        60 * time.Second,
		LLMRequestsPerSec: 2,
		LLMMaxInputChars:  24000,
		UploadDir:         "uploads",
		MaxUploadBytes:    20 << 20,
		JWTIssuer:         "pathfinder-backend",
		JWTAudience:       []string{"pathfinder-api"},
		JWTTTL:            24 * time.Hour,
		IPRateLimit:       300,
		UserRateLimit:     120,
		RateLimitDriver:   "local",
		LogLevel:          "info",
		EnableMetrics:     true,
		EnableCORS:        true,
		CORSOrigins:       []string{"*"},
	}
}

// LoadConfig loads configuration from the optional YAML file named by
// CONFIG_FILE and then from environment variables, which take precedence
func LoadConfig() (*Config, error) {
	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return nil, err
		}
		cfg.ConfigFile = path
	}
	cfg.applyEnv()

	// Validate required configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.IsLambda = getEnvBool("IS_LAMBDA", os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "")

	c.StorageDriver = getEnv("STORAGE_DRIVER", c.StorageDriver)
	c.DatabaseURL = getEnv("DATABASE_URL", c.DatabaseURL)
	c.SQLitePath = getEnv("SQLITE_PATH", c.SQLitePath)

	c.AWSRegion = getEnv("AWS_REGION", c.AWSRegion)
	c.AWSEndpoint = getEnv("AWS_ENDPOINT_URL", c.AWSEndpoint)
	c.DynamoDBTable = getEnv("TABLE_NAME", getEnv("DYNAMODB_TABLE", c.DynamoDBTable))
	c.EventBusName = getEnv("EVENT_BUS_NAME", c.EventBusName)

	c.LockDriver = getEnv("LOCK_DRIVER", c.LockDriver)
	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.LockLease = getEnvDuration("LOCK_LEASE", c.LockLease)
	c.LockTimeout = getEnvDuration("LOCK_TIMEOUT", c.LockTimeout)

	c.EventPublisher = getEnv("EVENT_PUBLISHER", c.EventPublisher)

	c.LLMProvider = getEnv("LLM_PROVIDER", c.LLMProvider)
	c.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.OpenAIAPIKey)
	c.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", c.OpenAIBaseURL)
	c.LLMModel = getEnv("LLM_MODEL", c.LLMModel)
	c.LLMTemperature = getEnvFloat("LLM_TEMPERATURE", c.LLMTemperature)
	c.LLMMaxTokens = getEnvInt("LLM_MAX_TOKENS", c.LLMMaxTokens)
	c.LLMTimeout = getEnvDuration("LLM_TIMEOUT", c.LLMTimeout)
	c.LLMRequestsPerSec = getEnvFloat("LLM_REQUESTS_PER_SEC", c.LLMRequestsPerSec)
	c.LLMMaxInputChars = getEnvInt("LLM_MAX_INPUT_CHARS", c.LLMMaxInputChars)

	c.UploadDir = getEnv("UPLOAD_DIR", c.UploadDir)
	c.MaxUploadBytes = int64(getEnvInt("MAX_UPLOAD_BYTES", int(c.MaxUploadBytes)))

	c.JWTSecret = getEnv("JWT_SECRET", c.JWTSecret)
	c.JWTIssuer = getEnv("JWT_ISSUER", c.JWTIssuer)
	c.JWTAudience = getEnvList("JWT_AUDIENCE", c.JWTAudience)
	c.JWTTTL = getEnvDuration("JWT_TTL", c.JWTTTL)
	c.BcryptCost = getEnvInt("BCRYPT_COST", c.BcryptCost)
	c.IPRateLimit = getEnvInt("IP_RATE_LIMIT", c.IPRateLimit)
	c.UserRateLimit = getEnvInt("USER_RATE_LIMIT", c.UserRateLimit)
	c.RateLimitDriver = getEnv("RATE_LIMIT_DRIVER", c.RateLimitDriver)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.EnableMetrics = getEnvBool("ENABLE_METRICS", c.EnableMetrics)
	c.EnableTracing = getEnvBool("ENABLE_TRACING", c.EnableTracing)
	c.OTLPEndpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.OTLPEndpoint)
	c.EnableCORS = getEnvBool("ENABLE_CORS", c.EnableCORS)
	c.CORSOrigins = getEnvList("CORS_ORIGINS", c.CORSOrigins)

	if v, ok := lookupEnvInt("MAX_PATHS"); ok {
		c.Domain.MaxPaths = &v
	}
	if v, ok := lookupEnvInt("MAX_PATH_DEPTH"); ok {
		c.Domain.MaxPathDepth = &v
	}
	if v, err := time.ParseDuration(os.Getenv("ROADMAP_TIMEOUT")); err == nil {
		c.Domain.RoadmapTimeout = &v
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	switch c.StorageDriver {
	case "memory":
		if c.IsProduction() {
			return errors.New("the memory storage driver is not allowed in production")
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("SQLITE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required for the postgres driver")
		}
	case "dynamodb":
		if c.DynamoDBTable == "" {
			return errors.New("DYNAMODB_TABLE is required for the dynamodb driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	switch c.LockDriver {
	case "local", "redis":
	case "dynamodb":
		if c.StorageDriver != "dynamodb" && c.DynamoDBTable == "" {
			return errors.New("DYNAMODB_TABLE is required for the dynamodb lock driver")
		}
	default:
		return fmt.Errorf("unknown LOCK_DRIVER %q", c.LockDriver)
	}

	switch c.RateLimitDriver {
	case "local", "redis":
	default:
		return fmt.Errorf("unknown RATE_LIMIT_DRIVER %q", c.RateLimitDriver)
	}

	switch c.EventPublisher {
	case "log":
	case "eventbridge":
		if c.EventBusName == "" {
			return errors.New("EVENT_BUS_NAME is required for the eventbridge publisher")
		}
	default:
		return fmt.Errorf("unknown EVENT_PUBLISHER %q", c.EventPublisher)
	}

	switch c.LLMProvider {
	case "none":
	case "openai", "langchain":
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required for LLM_PROVIDER=%s", c.LLMProvider)
		}
	default:
		return fmt.Errorf("unknown LLM_PROVIDER %q", c.LLMProvider)
	}

	if c.IsProduction() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required in production")
	}
	if c.LockTimeout <= 0 {
		return errors.New("LOCK_TIMEOUT must be positive")
	}

	if _, err := c.DomainConfig(); err != nil {
		return fmt.Errorf("domain settings: %w", err)
	}
	return nil
}

// DomainConfig merges the environment's defaults with the Domain overrides
func (c *Config) DomainConfig() (*domainconfig.DomainConfig, error) {
	cfg := domainconfig.LoadDomainConfig(c.Environment)
	c.Domain.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (s DomainSettings) apply(cfg *domainconfig.DomainConfig) {
	if s.DefaultGraphName != nil {
		cfg.DefaultGraphName = *s.DefaultGraphName
	}
	if s.MaxTopicNameLength != nil {
		cfg.MaxTopicNameLength = *s.MaxTopicNameLength
	}
	if s.MaxTopicsPerIngestion != nil {
		cfg.MaxTopicsPerIngestion = *s.MaxTopicsPerIngestion
	}
	if s.MaxConnectionsPerIngestion != nil {
		cfg.MaxConnectionsPerIngestion = *s.MaxConnectionsPerIngestion
	}
	if s.AllowSelfConnections != nil {
		cfg.AllowSelfConnections = *s.AllowSelfConnections
	}
	if s.MaxPaths != nil {
		cfg.MaxPaths = *s.MaxPaths
	}
	if s.MaxPathDepth != nil {
		cfg.MaxPathDepth = *s.MaxPathDepth
	}
	if s.RoadmapTimeout != nil {
		cfg.RoadmapTimeout = *s.RoadmapTimeout
	}
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func lookupEnvInt(key string) (int, bool) {
	v, err := strconv.Atoi(os.Getenv(key))
	return v, err == nil
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated variable
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
