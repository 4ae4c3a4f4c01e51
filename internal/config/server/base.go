package server

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type BaseServerConfig struct {
	ShutdownTimeout string `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	Log      LogServerConfig      `mapstructure:"log"      yaml:"log"`
	Metadata MetadataServerConfig `mapstructure:"metadata" yaml:"metadata"`
	Feed     FeedServerConfig     `mapstructure:"feed"     yaml:"feed"`
	Filter   FilterServerConfig   `mapstructure:"filter"   yaml:"filter"`
	Location LocationServerConfig `mapstructure:"location" yaml:"location"`
	Map      MapServerConfig      `mapstructure:"map"      yaml:"map"`
	Bridge   BridgeServerConfig   `mapstructure:"bridge"   yaml:"bridge"`
}

func LoadServerConfig() (*BaseServerConfig, error) {
	cfg := &BaseServerConfig{}

	setDefaults()

	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}
