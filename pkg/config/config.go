package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"github.com/spf13/viper"
)

const defaultEnvFile = ".env"

var (
	envFilePath string
	parseOnce   sync.Once

	exportMu sync.Mutex
	exported = map[string]bool{}
)

// MustNew is New that panics on error. Intended for main wiring only.
func MustNew[T any](prefix string) *T {
	conf, err := New[T](prefix)
	if err != nil {
		panic(err)
	}
	return conf
}

// New loads the env file selected with -env (or ./.env when present) into the
// process environment and decodes the variables under prefix into T.
func New[T any](prefix string) (*T, error) {
	var conf T
	if err := Load(prefix, &conf); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Load is the non-generic form of New.
func Load(prefix string, target any) error {
	if path := resolveEnvPath(); path != "" {
		if err := exportOnce(path, false); err != nil {
			return fmt.Errorf("failed to load env file: %w", err)
		}
	} else if err := exportOnce(defaultEnvFile, true); err != nil {
		return fmt.Errorf("failed to load default env file: %w", err)
	}

	if err := envconfig.Process(prefix, target); err != nil {
		return fmt.Errorf("config %q: %w", prefix, err)
	}
	return nil
}

// SetEnvFile overrides the -env flag. Tests use it to point at a temp file.
func SetEnvFile(path string) {
	parseOnce.Do(func() {})
	envFilePath = strings.TrimSpace(path)
}

func resolveEnvPath() string {
	parseOnce.Do(func() {
		if flag.Lookup("env") == nil {
			flag.StringVar(&envFilePath, "env", "", "path to .env file")
		}
		if !flag.Parsed() {
			flag.Parse()
		}
	})
	return strings.TrimSpace(envFilePath)
}

// exportOnce avoids re-reading the same file for every config section.
func exportOnce(path string, optional bool) error {
	exportMu.Lock()
	defer exportMu.Unlock()

	if exported[path] {
		return nil
	}

	info, err := os.Stat(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if info.IsDir() {
		if optional {
			return nil
		}
		return fmt.Errorf("%s is a directory", path)
	}

	if err := exportEnvironment(path); err != nil {
		return err
	}
	exported[path] = true
	return nil
}

// exportEnvironment never overrides variables already set in the environment.
func exportEnvironment(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("env")
	if err := v.ReadInConfig(); err != nil {
		return err
	}

	for k, val := range v.AllSettings() {
		key := strings.ToUpper(k)
		if _, ok := os.LookupEnv(key); ok {
			continue
		}
		if err := os.Setenv(key, fmt.Sprint(val)); err != nil {
			return err
		}
	}
	return nil
}
