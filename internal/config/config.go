package config

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

type Config struct {
	AppPort string `mapstructure:"app_port"`

	DBDriver   string `mapstructure:"db_driver"`
	SQLitePath string `mapstructure:"sqlite_path"`

	MySQLHost string `mapstructure:"mysql_host"`
	MySQLPort string `mapstructure:"mysql_port"`
	MySQLDB   string `mapstructure:"mysql_db"`
	MySQLUser string `mapstructure:"mysql_user"`
	MySQLPass string `mapstructure:"mysql_pass"`

	// empty RedisAddr switches caches to in-process memory and disables idempotency
	RedisAddr      string `mapstructure:"redis_addr"`
	RedisPassword  string `mapstructure:"redis_password"`
	RedisDB        int    `mapstructure:"redis_db"`
	RedisKeyPrefix string `mapstructure:"redis_key_prefix"`

	IdempTTLSecs int `mapstructure:"idempotency_ttl_seconds"`

	StatsCacheKey     string `mapstructure:"stats_cache_key"`
	StatsCacheTTLSecs int    `mapstructure:"stats_cache_ttl_seconds"`

	ImportWorkers       int `mapstructure:"import_workers"`
	ImportQueueSize     int `mapstructure:"import_queue_size"`
	ImportReportTTLSecs int `mapstructure:"import_report_ttl_seconds"`

	// cron spec for the periodic recompute of every loan; empty disables it
	ReconcileSchedule string `mapstructure:"reconcile_schedule"`

	Log LogConfig `mapstructure:",squash"`
}

type LogConfig struct {
	Level       string `mapstructure:"log_level"`
	Encoding    string `mapstructure:"log_encoding"`
	Development bool   `mapstructure:"log_development"`
}

func defaults(v *viper.Viper) {
	v.SetDefault("app_port", "8080")
	v.SetDefault("db_driver", DriverMySQL)
	v.SetDefault("sqlite_path", "loan-ledger.db")
	v.SetDefault("mysql_host", "mysql")
	v.SetDefault("mysql_port", "3306")
	v.SetDefault("mysql_db", "ledger")
	v.SetDefault("mysql_user", "ledger")
	v.SetDefault("mysql_pass", "ledger")
	v.SetDefault("redis_addr", "redis:6379")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "loan-ledger:")
	v.SetDefault("idempotency_ttl_seconds", 300)
	v.SetDefault("stats_cache_key", "investment_statistics")
	v.SetDefault("stats_cache_ttl_seconds", 300)
	v.SetDefault("import_workers", 2)
	v.SetDefault("import_queue_size", 16)
	v.SetDefault("import_report_ttl_seconds", 86400)
	v.SetDefault("reconcile_schedule", "0 0 * * * *")
	v.SetDefault("log_level", "info")
	v.SetDefault("log_encoding", "json")
	v.SetDefault("log_development", false)
}

// Load reads configuration from the environment (APP_PORT, MYSQL_HOST, ...)
// and, when path is set, from that file first.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()
	defaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.DBDriver = strings.ToLower(strings.TrimSpace(c.DBDriver))
	return &c, nil
}

func (c *Config) Validate() error {
	if c.AppPort == "" {
		return errors.New("missing APP_PORT")
	}
	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLHost == "" || c.MySQLPort == "" || c.MySQLDB == "" || c.MySQLUser == "" {
			return errors.New("missing MySQL config (MYSQL_HOST/PORT/DB/USER)")
		}
		// ensure port is valid
		if _, err := net.LookupPort("tcp", c.MySQLPort); err != nil {
			return fmt.Errorf("invalid MYSQL_PORT %q: %w", c.MySQLPort, err)
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			return errors.New("missing SQLITE_PATH")
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.DBDriver)
	}
	if c.StatsCacheKey == "" || c.StatsCacheTTLSecs <= 0 {
		return errors.New("STATS_CACHE_KEY and a positive STATS_CACHE_TTL_SECONDS are required")
	}
	if c.ImportWorkers <= 0 || c.ImportQueueSize <= 0 {
		return errors.New("IMPORT_WORKERS and IMPORT_QUEUE_SIZE must be positive")
	}
	return nil
}

func (c *Config) mysqlAddr() string { return net.JoinHostPort(c.MySQLHost, c.MySQLPort) }

func (c *Config) MySQLDSN() string {
	// parseTime needed for DATE/DATETIME columns
	return fmt.Sprintf("%s:%s@tcp(%s)/%s?multiStatements=true&parseTime=true&loc=UTC&charset=utf8mb4,utf8",
		c.MySQLUser, c.MySQLPass, c.mysqlAddr(), c.MySQLDB)
}

func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempTTLSecs) * time.Second
}

func (c *Config) StatsCacheTTL() time.Duration {
	return time.Duration(c.StatsCacheTTLSecs) * time.Second
}

func (c *Config) ImportReportTTL() time.Duration {
	return time.Duration(c.ImportReportTTLSecs) * time.Second
}
