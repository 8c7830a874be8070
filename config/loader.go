package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "RERUN"

// LoaderConfig holds optional file overrides for Load.
type LoaderConfig struct {
	ConfigFile string // explicit yaml config file path
	EnvFile    string // explicit .env file path
}

// LoaderOption is a functional option for Load.
type LoaderOption func(*LoaderConfig)

// WithConfigFile sets an explicit yaml config file path.
func WithConfigFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.ConfigFile = path }
}

// WithEnvFile sets an explicit .env file path.
func WithEnvFile(path string) LoaderOption {
	return func(lc *LoaderConfig) { lc.EnvFile = path }
}

// Load reads the engine configuration once. Sources, later overriding
// earlier: built-in defaults, yaml config file, .env file, process
// environment (RERUN_DEFAULT_RETRY_LIMIT, RERUN_LOG_FAILURES,
// RERUN_LOGGING_LEVEL, ...). Missing files are not an error.
func Load(opts ...LoaderOption) (*Config, error) {
	var lc LoaderConfig
	for _, opt := range opts {
		opt(&lc)
	}

	v := viper.New()
	v.SetDefault("default_retry_limit", 3)
	v.SetDefault("log_failures", true)

	configFile := lc.ConfigFile
	if configFile == "" {
		configFile = findConfigFile()
	}
	if configFile != "" && exists(configFile) {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}

	envFile := lc.EnvFile
	if envFile == "" && exists(".env") {
		envFile = ".env"
	}
	if envFile != "" && exists(envFile) {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("config: loading %s: %w", envFile, err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	bindEnvKeys(v)

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.Logging.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindEnvKeys binds the known keys explicitly so AutomaticEnv picks them
// up even when no config file supplied the key.
func bindEnvKeys(v *viper.Viper) {
	keys := []string{
		"default_retry_limit",
		"log_failures",
		"logging.level",
		"logging.format",
		"logging.output",
		"logging.no_color",
		"logging.service_name",
	}
	for _, k := range keys {
		_ = v.BindEnv(k)
	}
}

// findConfigFile searches for rerun.yml in conventional locations.
func findConfigFile() string {
	searchPaths := []string{
		"./rerun.yml",
		"./config/rerun.yml",
		"../config/rerun.yml",
	}
	for _, path := range searchPaths {
		if exists(path) {
			return path
		}
	}
	return ""
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
