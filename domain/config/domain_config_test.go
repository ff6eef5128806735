package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pathfinder-backend/domain/core/entities"
)

func TestDomainConfig_Validate(t *testing.T) {
	t.Run("Should accept the defaults", func(t *testing.T) {
		require.NoError(t, DefaultDomainConfig().Validate())
		require.NoError(t, ProductionDomainConfig().Validate())
	})

	t.Run("Should cap topic names at the stored width", func(t *testing.T) {
		cfg := DefaultDomainConfig()
		cfg.MaxTopicNameLength = entities.MaxTopicNameLength
		assert.NoError(t, cfg.Validate())

		cfg.MaxTopicNameLength = entities.MaxTopicNameLength + 1
		assert.Error(t, cfg.Validate())
	})

	t.Run("Should reject non-positive name limits", func(t *testing.T) {
		cfg := DefaultDomainConfig()
		cfg.MaxTopicNameLength = 0
		assert.Error(t, cfg.Validate())
	})

	t.Run("Should reject negative bounds", func(t *testing.T) {
		cfg := DefaultDomainConfig()
		cfg.MaxPaths = -1
		assert.Error(t, cfg.Validate())

		cfg = DefaultDomainConfig()
		cfg.MaxTopicsPerIngestion = -1
		assert.Error(t, cfg.Validate())
	})
}

func TestDynamic_Store(t *testing.T) {
	d := NewDynamic(DefaultDomainConfig())

	wide := DefaultDomainConfig()
	wide.MaxTopicNameLength = 500
	require.Error(t, d.Store(wide))
	assert.Equal(t, 100, d.Current().MaxTopicNameLength, "rejected config is not installed")

	narrow := DefaultDomainConfig()
	narrow.MaxTopicNameLength = 40
	require.NoError(t, d.Store(narrow))
	assert.Equal(t, 40, d.Current().MaxTopicNameLength)
}
