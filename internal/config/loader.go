package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverJSON   = "json"
	DriverSQLite = "sqlite"
	DriverRedis  = "redis"
	DriverMemory = "memory"
)

// Config captures file and environment driven settings for the calendar.
type Config struct {
	Store      StoreConfig      `yaml:"store"`
	Scheduling SchedulingConfig `yaml:"scheduling"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Export     ExportConfig     `yaml:"export"`
}

type StoreConfig struct {
	Driver    string      `yaml:"driver"`
	DataDir   string      `yaml:"data_dir"`
	SQLiteDSN string      `yaml:"sqlite_dsn"`
	Redis     RedisConfig `yaml:"redis"`
}

type RedisConfig struct {
	Address   string `yaml:"address"`
	Password  string `yaml:"password"`
	DB        int    `yaml:"db"`
	PoolSize  int    `yaml:"pool_size"`
	KeyPrefix string `yaml:"key_prefix"`
}

type SchedulingConfig struct {
	// ExemptSameContact lets a requester overlap bookings that carry the
	// same contact key.
	ExemptSameContact bool `yaml:"exempt_same_contact"`
	StrictReads       bool `yaml:"strict_reads"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
}

type MetricsConfig struct {
	TextfilePath string `yaml:"textfile_path"`
}

type ExportConfig struct {
	Timezone string `yaml:"timezone"`
}

// Default returns the settings used when neither a file nor the environment
// overrides them.
func Default() Config {
	return Config{
		Store: StoreConfig{
			Driver:    DriverJSON,
			DataDir:   "data",
			SQLiteDSN: "calendar.db",
			Redis:     RedisConfig{KeyPrefix: "calendar:"},
		},
		Scheduling: SchedulingConfig{ExemptSameContact: true},
		Logging:    LoggingConfig{Level: "info"},
		Export:     ExportConfig{Timezone: "UTC"},
	}
}

// LoadDotEnv loads variables from path into the environment without
// overriding ones already set. A missing file is ignored.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// Load builds the configuration from defaults, the optional YAML file named
// by SCHEDULER_CONFIG_FILE and the process environment, in that order.
//
// Missing and malformed values are reported together with localized messages.
func Load() (Config, error) {
	cfg := Default()

	if path := strings.TrimSpace(os.Getenv("SCHEDULER_CONFIG_FILE")); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("設定ファイルを読み込めません: %w", err)
		}
		if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), &cfg); err != nil {
			return Config{}, fmt.Errorf("設定ファイルの形式が不正です: %w", err)
		}
	}

	missing := make([]string, 0, 1)
	invalid := make([]string, 0, 2)

	setString := func(key string, target *string) {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			*target = value
		}
	}
	setBool := func(key string, target *bool) {
		if value := strings.TrimSpace(os.Getenv(key)); value != "" {
			parsed, err := strconv.ParseBool(value)
			if err != nil {
				invalid = append(invalid, key)
				return
			}
			*target = parsed
		}
	}

	setString("SCHEDULER_STORE_DRIVER", &cfg.Store.Driver)
	setString("SCHEDULER_DATA_DIR", &cfg.Store.DataDir)
	setString("SCHEDULER_SQLITE_DSN", &cfg.Store.SQLiteDSN)
	setString("SCHEDULER_REDIS_ADDR", &cfg.Store.Redis.Address)
	setString("SCHEDULER_REDIS_PASSWORD", &cfg.Store.Redis.Password)
	setString("SCHEDULER_REDIS_PREFIX", &cfg.Store.Redis.KeyPrefix)
	setBool("SCHEDULER_EXEMPT_SAME_CONTACT", &cfg.Scheduling.ExemptSameContact)
	setBool("SCHEDULER_STRICT_READS", &cfg.Scheduling.StrictReads)
	setString("SCHEDULER_LOG_LEVEL", &cfg.Logging.Level)
	setString("SCHEDULER_METRICS_FILE", &cfg.Metrics.TextfilePath)
	setString("SCHEDULER_TIMEZONE", &cfg.Export.Timezone)

	if dbValue := strings.TrimSpace(os.Getenv("SCHEDULER_REDIS_DB")); dbValue != "" {
		db, err := strconv.Atoi(dbValue)
		if err != nil || db < 0 {
			invalid = append(invalid, "SCHEDULER_REDIS_DB")
		} else {
			cfg.Store.Redis.DB = db
		}
	}

	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	switch cfg.Store.Driver {
	case DriverJSON:
		if strings.TrimSpace(cfg.Store.DataDir) == "" {
			missing = append(missing, "SCHEDULER_DATA_DIR")
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.Store.SQLiteDSN) == "" {
			missing = append(missing, "SCHEDULER_SQLITE_DSN")
		}
	case DriverRedis:
		if strings.TrimSpace(cfg.Store.Redis.Address) == "" {
			missing = append(missing, "SCHEDULER_REDIS_ADDR")
		}
	case DriverMemory:
	default:
		invalid = append(invalid, "SCHEDULER_STORE_DRIVER")
	}

	if _, err := time.LoadLocation(cfg.Export.Timezone); err != nil {
		invalid = append(invalid, "SCHEDULER_TIMEZONE")
	}

	if len(missing) > 0 {
		return Config{}, fmt.Errorf("必須の環境変数が設定されていません: %s", strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("環境変数の値が不正です: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}

// Location resolves the export timezone.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Export.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
