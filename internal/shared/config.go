package shared

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"

	"github.com/aquasofttraining/hotel-sparkling-awards-system/internal/domain"
)

// ConfigPathEnvVar points at an optional YAML file layered under the env.
const ConfigPathEnvVar = "CONFIG_PATH"

// Config keys match the lowercased environment variable names, so
// MYSQL_DSN and `mysql_dsn:` in the YAML file set the same field.
type Config struct {
	AppEnv      string `koanf:"app_env"`
	LogLevel    string `koanf:"log_level"`
	HTTPAddr    string `koanf:"http_addr" validate:"required"`
	MetricsAddr string `koanf:"metrics_addr"`

	Storage   string `koanf:"storage" validate:"oneof=mysql memory"`
	MySQLDSN  string `koanf:"mysql_dsn" validate:"required_if=Storage mysql"`
	RedisAddr string `koanf:"redis_addr"` // empty disables the cache
	RedisPass string `koanf:"redis_password"`
	RedisDB   int    `koanf:"redis_db" validate:"gte=0"`

	CacheTTLSeconds int    `koanf:"cache_ttl_seconds" validate:"gte=0"`
	JWTSecret       string `koanf:"jwt_secret"`

	ScoringWorkers int     `koanf:"scoring_workers" validate:"min=1,max=64"`
	RankRetries    int     `koanf:"rank_retries" validate:"min=0,max=10"`
	WeightReview   float64 `koanf:"weight_review"`
	WeightMetadata float64 `koanf:"weight_metadata"`
	RecalcRPS      float64 `koanf:"recalc_rps" validate:"gt=0"`
}

func defaults() Config {
	return Config{
		AppEnv:          "prod",
		LogLevel:        "info",
		HTTPAddr:        ":8080",
		MetricsAddr:     ":9100",
		Storage:         "mysql",
		MySQLDSN:        "root:root@tcp(localhost:3306)/sparkling?charset=utf8mb4",
		RedisAddr:       "localhost:6379",
		CacheTTLSeconds: 300,
		ScoringWorkers:  8,
		RankRetries:     2,
		WeightReview:    domain.DefaultWeights.Review,
		WeightMetadata:  domain.DefaultWeights.Metadata,
		RecalcRPS:       0.2,
	}
}

// Load layers defaults, then the optional YAML file, then the environment.
func Load() (Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaults(), "koanf"), nil); err != nil {
		return Config{}, fmt.Errorf("load defaults: %w", err)
	}
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load config file %s: %w", path, err)
		}
	}
	if err := k.Load(env.Provider("", ".", envKey(k)), nil); err != nil {
		return Config{}, fmt.Errorf("load environment: %w", err)
	}

	var c Config
	if err := k.Unmarshal("", &c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// envKey keeps only variables that name a known key.
func envKey(k *koanf.Koanf) func(string) string {
	return func(s string) string {
		key := strings.ToLower(s)
		if k.Exists(key) {
			return key
		}
		return ""
	}
}

func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if err := c.Weights().Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

func (c Config) Weights() domain.Weights {
	return domain.Weights{Review: c.WeightReview, Metadata: c.WeightMetadata}
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}
