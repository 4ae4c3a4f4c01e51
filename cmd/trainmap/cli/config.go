package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

var (
	envFiles    = []string{".env", ".env.local"}
	configPaths = []string{".", "./config", "/etc/trainmap", "$HOME/.trainmap"}
)

// loadEnvFiles loads every .env file found in dirs. Variables that are
// already set are never overwritten, so earlier directories win.
func loadEnvFiles(dirs ...string) {
	for _, dir := range dirs {
		for _, name := range envFiles {
			path := filepath.Join(os.ExpandEnv(dir), name)
			if _, err := os.Stat(path); err != nil {
				continue
			}
			godotenv.Load(path)
		}
	}
}

func initConfig(path string) error {
	if path != "" {
		loadEnvFiles(".", filepath.Dir(path))
		viper.SetConfigFile(path)
	} else {
		loadEnvFiles(configPaths...)
		viper.SetConfigName("trainmap")
		viper.SetConfigType("yaml")
		for _, dir := range configPaths {
			viper.AddConfigPath(dir)
		}
	}

	viper.SetEnvPrefix("TRAINMAP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}

	return nil
}
