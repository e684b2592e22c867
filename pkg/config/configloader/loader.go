// Package configloader assembles service configuration from a YAML file, a .env file and the environment.
package configloader

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	defaultConfigFile = "config.yaml"
	defaultEnvFile    = ".env"
)

type Validator interface {
	Validate() error
}

// Load reads the configuration of the named service.
// Sources, from lowest to highest priority: config.yaml, .env, system environment.
// Environment keys are prefixed with the upper-cased service name, e.g. PRODUCTS_DATABASE_URL.
// <PREFIX>CONFIG_FILE points at another YAML file, which then must exist.
func Load[T Validator](serviceName string) (T, error) {
	envPrefix := strings.ToUpper(serviceName) + "_"
	src := sources{configFile: defaultConfigFile, envFile: defaultEnvFile, envPrefix: envPrefix}
	if f := os.Getenv(envPrefix + "CONFIG_FILE"); f != "" {
		src.configFile, src.requireConfigFile = f, true
	}
	return load[T](src)
}

type sources struct {
	configFile        string
	requireConfigFile bool
	envFile           string
	envPrefix         string
}

// key maps PRODUCTS_DATABASE_URL to database.url.
func (s sources) key(envKey string) string {
	k := strings.TrimPrefix(strings.ToLower(envKey), strings.ToLower(s.envPrefix))
	return strings.ReplaceAll(k, "_", ".")
}

func load[T Validator](src sources) (T, error) {
	var cfg T
	k := koanf.New(".")

	if err := k.Load(file.Provider(src.configFile), yaml.Parser()); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist) && !src.requireConfigFile:
		case errors.Is(err, fs.ErrNotExist):
			return cfg, fmt.Errorf("config file %s not found: %w", src.configFile, err)
		default:
			return cfg, fmt.Errorf("error parsing config file %s: %w", src.configFile, err)
		}
	}

	if err := loadDotEnv(k, src); err != nil {
		log.Printf("WARN: ignoring %s: %v", src.envFile, err)
	}

	if err := k.Load(env.Provider(src.envPrefix, ".", src.key), nil); err != nil {
		return cfg, fmt.Errorf("error loading environment: %w", err)
	}

	if err := k.Unmarshal("", &cfg); err != nil {
		return cfg, fmt.Errorf("error unmarshalling config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// loadDotEnv merges the prefixed keys of the .env file. A missing file is not an error.
func loadDotEnv(k *koanf.Koanf, src sources) error {
	vars, err := godotenv.Read(src.envFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	values := make(map[string]any, len(vars))
	for name, v := range vars {
		if strings.HasPrefix(name, src.envPrefix) {
			values[src.key(name)] = v
		}
	}
	return k.Load(confmap.Provider(values, "."), nil)
}
