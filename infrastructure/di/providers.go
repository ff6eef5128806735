package di

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awsdynamodb "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	awseventbridge "github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/application/services"
	domainconfig "pathfinder-backend/domain/config"
	"pathfinder-backend/infrastructure/config"
	"pathfinder-backend/infrastructure/documents"
	"pathfinder-backend/infrastructure/llm"
	"pathfinder-backend/infrastructure/locking"
	"pathfinder-backend/infrastructure/messaging"
	"pathfinder-backend/infrastructure/messaging/eventbridge"
	"pathfinder-backend/infrastructure/persistence/dynamodb"
	"pathfinder-backend/infrastructure/persistence/memory"
	"pathfinder-backend/infrastructure/persistence/postgres"
	"pathfinder-backend/infrastructure/persistence/sqlite"
	"pathfinder-backend/interfaces/http/rest"
	"pathfinder-backend/interfaces/http/rest/handlers"
	"pathfinder-backend/interfaces/http/rest/middleware"
	"pathfinder-backend/pkg/auth"
	pkgerrors "pathfinder-backend/pkg/errors"
	"pathfinder-backend/pkg/observability"
)

// devJWTSecret signs tokens outside production when JWT_SECRET is unset
const devJWTSecret = "pathfinder-dev-secret-do-not-use-in-production"

// Logging is the root logger plus the level handle the config watcher adjusts
type Logging struct {
	Logger *zap.Logger
	Level  zap.AtomicLevel
}

// ModelPorts groups the language model backed ports
type ModelPorts struct {
	Topics     ports.TopicExtractor
	Decomposer ports.TopicDecomposer
	Tutor      ports.Tutor
}

// ProvideLogging creates the logger from config
func ProvideLogging(cfg *config.Config) (Logging, func(), error) {
	logger, level, err := config.NewLogger(cfg)
	if err != nil {
		return Logging{}, nil, err
	}
	cleanup := func() { _ = logger.Sync() }
	return Logging{Logger: logger, Level: level}, cleanup, nil
}

// ProvideAWSConfig creates AWS configuration
func ProvideAWSConfig(ctx context.Context, cfg *config.Config) (aws.Config, error) {
	return awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(cfg.AWSRegion),
	)
}

// ProvideDynamoDBClient creates a DynamoDB client, pointed at AWS_ENDPOINT_URL
// when set (DynamoDB Local, LocalStack)
func ProvideDynamoDBClient(awsCfg aws.Config, cfg *config.Config) *awsdynamodb.Client {
	return awsdynamodb.NewFromConfig(awsCfg, func(o *awsdynamodb.Options) {
		if cfg.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
		}
	})
}

// ProvideEventBridgeClient creates an EventBridge client
func ProvideEventBridgeClient(awsCfg aws.Config, cfg *config.Config) *awseventbridge.Client {
	return awseventbridge.NewFromConfig(awsCfg, func(o *awseventbridge.Options) {
		if cfg.AWSEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.AWSEndpoint)
		}
	})
}

// ProvideRedisClient connects to Redis when the lock or rate limit driver
// needs it. It returns a nil client otherwise.
func ProvideRedisClient(ctx context.Context, cfg *config.Config, logger *zap.Logger) (redis.UniversalClient, func(), error) {
	if cfg.LockDriver != "redis" && cfg.RateLimitDriver != "redis" {
		return nil, func() {}, nil
	}

	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:    []string{cfg.RedisAddr},
		Password: cfg.RedisPassword,
	})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	cleanup := func() {
		if err := client.Close(); err != nil {
			logger.Warn("Failed to close Redis client", zap.Error(err))
		}
	}
	return client, cleanup, nil
}

// ProvideStore opens the configured storage backend and ensures its schema
func ProvideStore(ctx context.Context, cfg *config.Config, ddb *awsdynamodb.Client, logger *zap.Logger) (ports.Store, func(), error) {
	var store ports.Store
	switch cfg.StorageDriver {
	case "memory":
		logger.Warn("Using the in-memory store; data is lost on exit")
		store = memory.NewStore()
	case "sqlite":
		s, err := sqlite.Open(cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "postgres":
		s, err := postgres.NewStore(ctx, postgres.Options{ConnString: cfg.DatabaseURL}, logger)
		if err != nil {
			return nil, nil, err
		}
		store = s
	case "dynamodb":
		store = dynamodb.NewStore(ddb, cfg.DynamoDBTable, logger)
	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}

	if err := store.Migrate(ctx); err != nil {
		_ = store.Close()
		return nil, nil, fmt.Errorf("migrate %s store: %w", cfg.StorageDriver, err)
	}

	logger.Info("Store ready", zap.String("driver", cfg.StorageDriver))
	cleanup := func() {
		if err := store.Close(); err != nil {
			logger.Warn("Failed to close store", zap.Error(err))
		}
	}
	return store, cleanup, nil
}

// ProvideGraphRepository exposes the store's graph side
func ProvideGraphRepository(store ports.Store) ports.GraphRepository { return store }

// ProvideUserRepository exposes the store's account side
func ProvideUserRepository(store ports.Store) ports.UserRepository { return store }

// ProvideUploadRepository exposes the store's upload side
func ProvideUploadRepository(store ports.Store) ports.UploadRepository { return store }

// ProvidePinger lets the readiness check reach the store
func ProvidePinger(store ports.Store) rest.Pinger { return store }

// ProvideLocker creates the per-graph ingestion lock
func ProvideLocker(cfg *config.Config, client redis.UniversalClient, ddb *awsdynamodb.Client, logger *zap.Logger) (ports.IngestionLocker, error) {
	switch cfg.LockDriver {
	case "local":
		return locking.NewLocalLocker(), nil
	case "redis":
		if client == nil {
			return nil, fmt.Errorf("redis lock driver requires a redis client")
		}
		return locking.NewRedisLocker(client, locking.RedisOptions{
			TTL:         cfg.LockLease,
			WaitTimeout: cfg.LockTimeout,
		}, logger), nil
	case "dynamodb":
		host, _ := os.Hostname()
		owner := dynamodb.OwnerID(host, os.Getpid())
		return dynamodb.NewDistributedLock(ddb, cfg.DynamoDBTable, owner, cfg.LockLease, cfg.LockTimeout, logger), nil
	default:
		return nil, fmt.Errorf("unknown lock driver %q", cfg.LockDriver)
	}
}

// ProvideEventPublisher creates the domain event publisher
func ProvideEventPublisher(cfg *config.Config, client *awseventbridge.Client, logger *zap.Logger) ports.EventPublisher {
	if cfg.EventPublisher == "eventbridge" {
		return eventbridge.NewPublisher(client, cfg.EventBusName, logger)
	}
	return messaging.NewLogPublisher(logger)
}

// ProvideMetrics creates the Prometheus collector
func ProvideMetrics() *observability.Collector {
	return observability.NewCollector("pathfinder")
}

// ProvideDomainSettings seeds the reloadable domain rules from config
func ProvideDomainSettings(cfg *config.Config) (*domainconfig.Dynamic, error) {
	domain, err := cfg.DomainConfig()
	if err != nil {
		return nil, err
	}
	return domainconfig.NewDynamic(domain), nil
}

// ProvideSettingsSource exposes the dynamic settings to services
func ProvideSettingsSource(d *domainconfig.Dynamic) domainconfig.Source { return d }

// ProvideWatcher starts watching the config file. There is nothing to watch
// without a file or inside Lambda, where it returns nil.
func ProvideWatcher(cfg *config.Config, domain *domainconfig.Dynamic, logging Logging) (*config.Watcher, func(), error) {
	if cfg.ConfigFile == "" || cfg.IsLambda {
		return nil, func() {}, nil
	}
	watcher, err := config.NewWatcher(cfg.ConfigFile, domain, logging.Level, logging.Logger)
	if err != nil {
		return nil, nil, err
	}
	watcher.Start()
	return watcher, watcher.Stop, nil
}

// ProvideCompleter builds the configured language model client wrapped in
// the rate limiter, timeout and circuit breaker. It returns nil when no
// provider is configured.
func ProvideCompleter(cfg *config.Config, metrics *observability.Collector, logger *zap.Logger) (ports.Completer, error) {
	var base ports.Completer
	switch cfg.LLMProvider {
	case "none":
		return nil, nil
	case "openai":
		client := llm.NewOpenAIClient(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
		base = llm.NewOpenAICompleter(client, cfg.LLMModel, float32(cfg.LLMTemperature), cfg.LLMMaxTokens, logger)
	case "langchain":
		model, err := llm.NewLangChainOpenAI(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL, cfg.LLMModel)
		if err != nil {
			return nil, err
		}
		base = llm.NewLangChainCompleter(model, cfg.LLMTemperature, cfg.LLMMaxTokens)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.LLMProvider)
	}

	resilience := llm.DefaultResilienceConfig()
	if cfg.LLMTimeout > 0 {
		resilience.Timeout = cfg.LLMTimeout
	}
	if cfg.LLMRequestsPerSec > 0 {
		resilience.RequestsPerSec = cfg.LLMRequestsPerSec
	}
	logger.Info("Language model enabled",
		zap.String("provider", cfg.LLMProvider),
		zap.String("model", cfg.LLMModel),
	)
	return llm.NewResilient(base, cfg.LLMProvider, resilience, metrics, logger), nil
}

// ProvideModelPorts backs the model ports with the assistant, or with
// llm.Disabled when there is no completer
func ProvideModelPorts(completer ports.Completer, cfg *config.Config, logger *zap.Logger) ModelPorts {
	if completer == nil {
		return ModelPorts{Topics: llm.Disabled{}, Decomposer: llm.Disabled{}, Tutor: llm.Disabled{}}
	}
	assistant := llm.NewAssistant(completer, cfg.LLMMaxInputChars, logger)
	return ModelPorts{Topics: assistant, Decomposer: assistant, Tutor: assistant}
}

// ProvideJWTService creates the token service. Outside production a missing
// secret falls back to a fixed development secret.
func ProvideJWTService(cfg *config.Config, logger *zap.Logger) (*auth.JWTService, error) {
	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return nil, fmt.Errorf("JWT_SECRET is required in production")
		}
		logger.Warn("JWT_SECRET not set, using the development secret")
		secret = devJWTSecret
	}
	return auth.NewJWTService(auth.JWTConfig{
		Secret:   secret,
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})
}

// ProvideTokenIssuer exposes token signing to the auth service
func ProvideTokenIssuer(s *auth.JWTService) ports.TokenIssuer { return s }

// ProvideTokenValidator exposes token validation to the middleware
func ProvideTokenValidator(s *auth.JWTService) middleware.TokenValidator { return s }

// ProvidePasswordHasher creates the bcrypt hasher
func ProvidePasswordHasher(cfg *config.Config) ports.PasswordHasher {
	return auth.NewBcryptHasher(cfg.BcryptCost)
}

// ProvideRateLimits builds the per-IP and per-user limiters on the
// configured backend
func ProvideRateLimits(cfg *config.Config, client redis.UniversalClient) (middleware.RateLimits, func(), error) {
	limits := middleware.RateLimits{IPPerMinute: cfg.IPRateLimit, UserPerMinute: cfg.UserRateLimit}

	switch cfg.RateLimitDriver {
	case "redis":
		if client == nil {
			return middleware.RateLimits{}, nil, fmt.Errorf("redis rate limit driver requires a redis client")
		}
		if cfg.IPRateLimit > 0 {
			limits.IP = auth.NewDistributedRateLimiter(client, cfg.IPRateLimit, time.Minute, "ip")
		}
		if cfg.UserRateLimit > 0 {
			limits.User = auth.NewDistributedRateLimiter(client, cfg.UserRateLimit, time.Minute, "user")
		}
		return limits, func() {}, nil
	default:
		var closers []func()
		if cfg.IPRateLimit > 0 {
			l := auth.NewTokenBucketLimiter(cfg.IPRateLimit, cfg.IPRateLimit)
			limits.IP = auth.NewIPRateLimiter(l)
			closers = append(closers, l.Close)
		}
		if cfg.UserRateLimit > 0 {
			l := auth.NewTokenBucketLimiter(cfg.UserRateLimit, cfg.UserRateLimit)
			limits.User = auth.NewUserRateLimiter(l)
			closers = append(closers, l.Close)
		}
		return limits, func() {
			for _, c := range closers {
				c()
			}
		}, nil
	}
}

// ProvideFileStore creates the upload directory store
func ProvideFileStore(cfg *config.Config) (ports.FileStore, error) {
	return documents.NewLocalFileStore(cfg.UploadDir)
}

// ProvideTextExtractor creates the document text extractor
func ProvideTextExtractor(cfg *config.Config, logger *zap.Logger) ports.TextExtractor {
	return documents.NewExtractor(cfg.MaxUploadBytes, logger)
}

// ProvideUploadService wires the upload service to the topic extractor
func ProvideUploadService(
	files ports.FileStore,
	extractor ports.TextExtractor,
	uploads ports.UploadRepository,
	graphs *services.GraphStoreService,
	models ModelPorts,
	logger *zap.Logger,
) *services.UploadService {
	return services.NewUploadService(files, extractor, uploads, graphs, models.Topics, logger)
}

// ProvideLearningService wires decomposition and tutoring
func ProvideLearningService(graphs *services.GraphStoreService, models ModelPorts, logger *zap.Logger) *services.LearningService {
	return services.NewLearningService(graphs, models.Decomposer, models.Tutor, logger)
}

// ProvideErrorHandler renders errors; development responses carry causes
func ProvideErrorHandler(cfg *config.Config, logger *zap.Logger) *pkgerrors.ErrorHandler {
	return pkgerrors.NewErrorHandler(logger, cfg.IsDevelopment(), handlers.TranslateError)
}

// ProvideUploadHandler applies the upload size limit
func ProvideUploadHandler(uploads *services.UploadService, cfg *config.Config, errs *pkgerrors.ErrorHandler, logger *zap.Logger) *handlers.UploadHandler {
	return handlers.NewUploadHandler(uploads, cfg.MaxUploadBytes, errs, logger)
}

// ProvideRouterOptions maps config onto router settings
func ProvideRouterOptions(cfg *config.Config) rest.RouterOptions {
	opts := rest.RouterOptions{EnableMetrics: cfg.EnableMetrics}
	if cfg.EnableCORS {
		opts.CORSOrigins = cfg.CORSOrigins
	}
	return opts
}
