package config

import (
	"fmt"
	"strings"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

// envPrefix is the environment variable prefix for all service settings.
const envPrefix = "SZAS"

// newViper builds a pre-configured viper instance: YAML file type, SZAS_ env
// prefix, automatic env binding, and a key replacer mapping "." to "_" so a
// nested key like "database.host" resolves to SZAS_DATABASE_HOST.
func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	bindKeys(v)
	return v
}

// bindKeys registers every setting with viper so that env-only values are
// visible to Unmarshal; AutomaticEnv alone does not surface keys absent from
// the config file.
func bindKeys(v *viper.Viper) {
	keys := []string{
		"server.host", "server.port", "server.mode",
		"server.read_timeout", "server.write_timeout", "server.shutdown_timeout",
		"server.rate_limit_rps",
		"database.host", "database.port", "database.username", "database.password",
		"database.database", "database.ssl_mode", "database.max_conns", "database.min_conns",
		"database.conn_max_lifetime", "database.conn_max_idle_time",
		"redis.addr", "redis.username", "redis.password", "redis.db",
		"redis.pool_size", "redis.min_idle_conns",
		"redis.dial_timeout", "redis.read_timeout", "redis.write_timeout", "redis.max_retries",
		"kafka.brokers", "kafka.group_id", "kafka.batch_size", "kafka.batch_timeout",
		"kafka.write_timeout", "kafka.commit_interval", "kafka.max_retries",
		"minio.endpoint", "minio.access_key_id", "minio.secret_access_key",
		"minio.use_ssl", "minio.region", "minio.bucket",
		"worker.concurrency",
		"log.level", "log.format", "log.output_paths",
	}
	for _, key := range keys {
		_ = v.BindEnv(key)
	}
}

// Load reads the YAML file at configPath, merges SZAS_* environment variable
// overrides, applies defaults for unset fields, and validates the result.
func Load(configPath string) (*Config, error) {
	v := newViper()
	v.SetConfigFile(configPath)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("config: failed to read config file %q: %w", configPath, err)
	}

	return unmarshalAndFinalize(v)
}

// LoadFromEnv builds a Config entirely from SZAS_* environment variables,
// with no config file required. Naming convention:
//
//	SZAS_<SECTION>_<FIELD>   e.g.  SZAS_DATABASE_HOST, SZAS_REDIS_ADDR
func LoadFromEnv() (*Config, error) {
	return unmarshalAndFinalize(newViper())
}

func unmarshalAndFinalize(v *viper.Viper) (*Config, error) {
	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: failed to unmarshal configuration: %w", err)
	}

	ApplyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: validation failed: %w", err)
	}

	return cfg, nil
}

// Watch monitors configPath and invokes onChange with the newly parsed
// Config whenever the file changes on disk. Intended for hot-reloading
// non-critical settings such as the log level; callers are responsible for
// applying only the safe subset of changes at runtime.
//
// Watch is non-blocking; viper manages the background goroutine. A change
// that fails to parse or validate does not invoke the callback.
func Watch(configPath string, onChange func(*Config)) {
	v := newViper()
	v.SetConfigFile(configPath)

	// Callers are expected to have called Load first.
	_ = v.ReadInConfig()

	v.WatchConfig()
	v.OnConfigChange(func(_ fsnotify.Event) {
		cfg, err := unmarshalAndFinalize(v)
		if err != nil {
			return
		}
		onChange(cfg)
	})
}

// MustLoad wraps Load and panics on any error, for use in main() where a
// config-load failure is always fatal.
func MustLoad(configPath string) *Config {
	cfg, err := Load(configPath)
	if err != nil {
		panic(fmt.Sprintf("config: MustLoad failed: %v", err))
	}
	return cfg
}
