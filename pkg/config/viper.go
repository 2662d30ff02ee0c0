// Package config bootstraps the application's configuration sources. It
// loads a local .env file when one exists, locates the optional YAML config
// file, and hands back a Viper instance ready for the typed schema in
// internal/config to unmarshal.
package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// NewViper builds a Viper instance backed by the standard configuration
// sources. When cfgFile is non-empty it must name a readable config file;
// otherwise the usual search paths are consulted and a missing file is not
// an error, since environment variables and defaults are enough to run.
//
// A .env file in the working directory is loaded into the process
// environment first, so credentials kept there are visible to the
// environment bindings. Variables already set in the environment win over
// .env entries.
func NewViper(cfgFile string) (*viper.Viper, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("loading .env: %w", err)
	}

	v := viper.New()

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", cfgFile, err)
		}
		return v, nil
	}

	v.SetConfigName("config")
	v.AddConfigPath(".")                    // working directory
	v.AddConfigPath("$HOME/.planning-sync") // user-specific configuration
	v.AddConfigPath("/etc/planning-sync/")  // system-wide configuration

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}
	return v, nil
}
