package config

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"pathfinder-backend/domain/core/entities"
)

// DomainConfig holds the tunable business rules for ingestion and path search
type DomainConfig struct {
	DefaultGraphName string

	// Ingestion constraints
	MaxTopicNameLength         int
	MaxTopicsPerIngestion      int
	MaxConnectionsPerIngestion int
	AllowSelfConnections       bool

	// Path search bounds; zero disables the bound
	MaxPaths       int
	MaxPathDepth   int
	RoadmapTimeout time.Duration
}

// DefaultDomainConfig returns the default domain configuration
func DefaultDomainConfig() *DomainConfig {
	return &DomainConfig{
		DefaultGraphName:           "Untitled Roadmap",
		MaxTopicNameLength:         100,
		MaxTopicsPerIngestion:      2000,
		MaxConnectionsPerIngestion: 10000,
		AllowSelfConnections:       true,
		MaxPaths:                   1000,
		MaxPathDepth:               64,
		RoadmapTimeout:             10 * time.Second,
	}
}

// ProductionDomainConfig tightens search bounds for shared deployments
func ProductionDomainConfig() *DomainConfig {
	cfg := DefaultDomainConfig()
	cfg.MaxPaths = 500
	cfg.RoadmapTimeout = 5 * time.Second
	return cfg
}

// LoadDomainConfig selects the configuration for an environment
func LoadDomainConfig(environment string) *DomainConfig {
	if environment == "production" {
		return ProductionDomainConfig()
	}
	return DefaultDomainConfig()
}

// Validate checks that limits are not negative and that topic names fit the
// stored column
func (c *DomainConfig) Validate() error {
	if c.MaxTopicNameLength <= 0 {
		return errors.New("max topic name length must be positive")
	}
	if c.MaxTopicNameLength > entities.MaxTopicNameLength {
		return fmt.Errorf("max topic name length %d exceeds the stored limit of %d",
			c.MaxTopicNameLength, entities.MaxTopicNameLength)
	}
	if c.MaxPaths < 0 || c.MaxPathDepth < 0 {
		return errors.New("path limits cannot be negative")
	}
	if c.MaxTopicsPerIngestion < 0 || c.MaxConnectionsPerIngestion < 0 {
		return errors.New("ingestion limits cannot be negative")
	}
	return nil
}

// Source yields the domain configuration in effect right now
type Source interface {
	Current() *DomainConfig
}

type staticSource struct{ cfg *DomainConfig }

func (s staticSource) Current() *DomainConfig { return s.cfg }

// Static returns a Source that always yields cfg
func Static(cfg *DomainConfig) Source {
	return staticSource{cfg: cfg}
}

// Dynamic is a Source whose configuration can be swapped at runtime
type Dynamic struct {
	current atomic.Pointer[DomainConfig]
}

// NewDynamic creates a Dynamic source starting at cfg
func NewDynamic(cfg *DomainConfig) *Dynamic {
	d := &Dynamic{}
	d.current.Store(cfg)
	return d
}

func (d *Dynamic) Current() *DomainConfig { return d.current.Load() }

// Store replaces the configuration after validating it
func (d *Dynamic) Store(cfg *DomainConfig) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	d.current.Store(cfg)
	return nil
}
