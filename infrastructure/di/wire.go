//go:build wireinject
// +build wireinject

package di

import (
	"context"

	"github.com/google/wire"

	"pathfinder-backend/application/services"
	"pathfinder-backend/infrastructure/config"
	"pathfinder-backend/interfaces/http/rest"
	"pathfinder-backend/interfaces/http/rest/handlers"
	"pathfinder-backend/interfaces/http/rest/middleware"
)

// InfrastructureSet opens clients, storage and the cross-cutting services
var InfrastructureSet = wire.NewSet(
	ProvideLogging,
	wire.FieldsOf(new(Logging), "Logger"),
	ProvideAWSConfig,
	ProvideDynamoDBClient,
	ProvideEventBridgeClient,
	ProvideRedisClient,
	ProvideStore,
	ProvideGraphRepository,
	ProvideUserRepository,
	ProvideUploadRepository,
	ProvidePinger,
	ProvideLocker,
	ProvideEventPublisher,
	ProvideMetrics,
	ProvideDomainSettings,
	ProvideSettingsSource,
	ProvideWatcher,
	ProvideCompleter,
	ProvideModelPorts,
	ProvideJWTService,
	ProvideTokenIssuer,
	ProvideTokenValidator,
	ProvidePasswordHasher,
	ProvideRateLimits,
	ProvideFileStore,
	ProvideTextExtractor,
)

// ApplicationSet builds the services
var ApplicationSet = wire.NewSet(
	services.NewGraphStoreService,
	services.NewGraphQueryService,
	services.NewRoadmapService,
	services.NewAuthService,
	ProvideUploadService,
	ProvideLearningService,
)

// HTTPSet builds handlers, middleware and the router
var HTTPSet = wire.NewSet(
	ProvideErrorHandler,
	handlers.NewAuthHandler,
	handlers.NewGraphHandler,
	handlers.NewRoadmapHandler,
	ProvideUploadHandler,
	handlers.NewLearningHandler,
	middleware.NewAuthenticator,
	ProvideRouterOptions,
	rest.NewRouter,
)

// SuperSet is the main provider set containing all providers
var SuperSet = wire.NewSet(
	InfrastructureSet,
	ApplicationSet,
	HTTPSet,
	wire.Struct(new(Container), "*"),
)

// InitializeContainer creates a fully wired container
func InitializeContainer(ctx context.Context, cfg *config.Config) (*Container, func(), error) {
	wire.Build(SuperSet)
	return nil, nil, nil // Wire will replace this
}
