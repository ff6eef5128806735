package di

import (
	"go.uber.org/zap"

	"pathfinder-backend/application/ports"
	"pathfinder-backend/application/services"
	domainconfig "pathfinder-backend/domain/config"
	"pathfinder-backend/infrastructure/config"
	"pathfinder-backend/interfaces/http/rest"
	"pathfinder-backend/pkg/auth"
	"pathfinder-backend/pkg/observability"
)

// Container holds all application dependencies
type Container struct {
	Config   *config.Config
	Logging  Logging
	Logger   *zap.Logger
	Store    ports.Store
	Metrics  *observability.Collector
	Settings *domainconfig.Dynamic
	Watcher  *config.Watcher // nil when no config file is watched
	Tokens   *auth.JWTService

	GraphStore *services.GraphStoreService
	Roadmaps   *services.RoadmapService
	Auth       *services.AuthService
	Uploads    *services.UploadService
	Learning   *services.LearningService

	Router *rest.Router
}
