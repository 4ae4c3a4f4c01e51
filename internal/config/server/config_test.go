package server

import (
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadServerConfigDefaults(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	cfg, err := LoadServerConfig()
	require.NoError(t, err)

	def := GetServerDefault()
	assert.Equal(t, def.Metadata.SQLite.Path, cfg.Metadata.SQLite.Path)
	assert.Equal(t, def.Map.ClickAnchor, cfg.Map.ClickAnchor)
	assert.Equal(t, def.Filter.NearbyRadiusKm, cfg.Filter.NearbyRadiusKm)
	assert.Len(t, cfg.Map.Tiles, len(def.Map.Tiles))
}

func TestLoadServerConfigOverrides(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("map.zoom", 11)
	viper.Set("feed.source", "https://example.org/trainings.json")

	cfg, err := LoadServerConfig()
	require.NoError(t, err)
	assert.Equal(t, 11.0, cfg.Map.Zoom)
	assert.Equal(t, "https://example.org/trainings.json", cfg.Feed.Source)
}

func TestParseDurationOr(t *testing.T) {
	assert.Equal(t, 2*time.Second, ParseDurationOr("2s", time.Minute))
	assert.Equal(t, time.Minute, ParseDurationOr("", time.Minute))
	assert.Equal(t, time.Minute, ParseDurationOr("soon", time.Minute))
	assert.Equal(t, time.Minute, ParseDurationOr("-1s", time.Minute))
}

func TestLoadServerConfigRejectsInvalidValues(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	viper.Set("map.click_anchor", 1.5)

	_, err := LoadServerConfig()
	assert.ErrorContains(t, err, "invalid configuration")
}
