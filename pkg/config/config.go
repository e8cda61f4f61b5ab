// Package config loads typed configuration from the environment, optionally
// seeded from an env file so local runs and deployments share one source.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

// EnvFileVar points at an env file to export before reading any config. A
// -env flag and a ./.env file in the working directory are the fallbacks.
const EnvFileVar = "CONCIERGE_ENV_FILE"

var (
	flagEnvPath string
	flagOnce    sync.Once
)

// MustNew loads T from the environment and panics on failure. Use at process
// startup only.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads T from the environment. The resolved env file, when there is one,
// is exported into the process environment first so envconfig sees one
// consistent source.
func New[T any](prefix string) (*T, error) {
	path := resolveEnvPath()
	if path != "" {
		if err := exportEnvironment(path); err != nil {
			return nil, fmt.Errorf("load env file %s: %w", path, err)
		}
	} else if err := exportEnvironmentIfExists(".env"); err != nil {
		return nil, fmt.Errorf("load default env file: %w", err)
	}

	var conf T
	if err := envconfig.Process(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

func resolveEnvPath() string {
	if fromEnv := strings.TrimSpace(os.Getenv(EnvFileVar)); fromEnv != "" {
		return fromEnv
	}
	// A dedicated flag set keeps this independent of whatever flags the
	// embedding binary (or the test runner) defines.
	flagOnce.Do(func() {
		fs := flag.NewFlagSet("config", flag.ContinueOnError)
		fs.SetOutput(io.Discard)
		fs.StringVar(&flagEnvPath, "env", "", "path to an env file")
		_ = fs.Parse(os.Args[1:])
	})
	return strings.TrimSpace(flagEnvPath)
}

func exportEnvironmentIfExists(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		return nil
	}
	return exportEnvironment(path)
}

func exportEnvironment(path string) error {
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		return err
	}
	for k, v := range viper.AllSettings() {
		if err := os.Setenv(strings.ToUpper(k), fmt.Sprint(v)); err != nil {
			return err
		}
	}
	return nil
}
