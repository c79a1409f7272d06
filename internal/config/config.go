package config

import (
	"fmt"
	"time"
)

// Config represents the global configuration
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Log      LogConfig      `mapstructure:"log"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Engine   EngineConfig   `mapstructure:"engine"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"` // debug, release, test
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
	RateLimitRPS float64       `mapstructure:"rate_limit_rps"`
	RateBurst    int           `mapstructure:"rate_burst"`
}

// DatabaseConfig represents database configuration
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// RedisConfig represents Redis configuration
type RedisConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Password     string        `mapstructure:"password"`
	DB           int           `mapstructure:"db"`
	PoolSize     int           `mapstructure:"pool_size"`
	DialTimeout  time.Duration `mapstructure:"dial_timeout"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// LogConfig represents logging configuration
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	Filename   string `mapstructure:"filename"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxAge     int    `mapstructure:"max_age"`
	MaxBackups int    `mapstructure:"max_backups"`
	Compress   bool   `mapstructure:"compress"`
}

// CacheConfig represents local cache configuration
type CacheConfig struct {
	SummaryTTL        time.Duration `mapstructure:"summary_ttl"`
	FilterSize        uint          `mapstructure:"filter_size"`
	FilterFPRate      float64       `mapstructure:"filter_fp_rate"`
	WarmFilterOnStart bool          `mapstructure:"warm_filter_on_start"`
}

// EngineConfig represents discount engine tuning
type EngineConfig struct {
	MaxStackable         int     `mapstructure:"max_stackable"`
	ExclusivePriority    int     `mapstructure:"exclusive_priority"`
	ProjectedRateCeiling float64 `mapstructure:"projected_rate_ceiling"`
	MaxDailyUsage        int     `mapstructure:"max_daily_usage"`
	DiscountRateCeiling  float64 `mapstructure:"discount_rate_ceiling"`
	DailyAmountCap       float64 `mapstructure:"daily_amount_cap"`
	StrictStock          bool    `mapstructure:"strict_stock"`
}

// GetAddr returns the server address
func (s *ServerConfig) GetAddr() string {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// GetDSN returns the database DSN
func (d *DatabaseConfig) GetDSN() string {
	if d.Charset == "" {
		d.Charset = "utf8mb4"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=true&loc=Local",
		d.Username, d.Password, d.Host, d.Port, d.DBName, d.Charset)
}

// GetAddr returns the Redis address
func (r *RedisConfig) GetAddr() string {
	if r.Host == "" {
		r.Host = "localhost"
	}
	if r.Port == 0 {
		r.Port = 6379
	}
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Host == "" {
		return fmt.Errorf("database host is required")
	}

	if c.Database.Username == "" {
		return fmt.Errorf("database username is required")
	}

	if c.Database.DBName == "" {
		return fmt.Errorf("database name is required")
	}

	if c.Engine.DiscountRateCeiling <= 0 || c.Engine.DiscountRateCeiling > 100 {
		return fmt.Errorf("invalid discount rate ceiling: %f", c.Engine.DiscountRateCeiling)
	}

	if c.Engine.MaxStackable <= 0 {
		return fmt.Errorf("invalid max stackable count: %d", c.Engine.MaxStackable)
	}

	return nil
}

// SetDefaults sets default values for configuration
func (c *Config) SetDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "localhost"
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "debug"
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = 30 * time.Second
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = 30 * time.Second
	}
	if c.Server.IdleTimeout == 0 {
		c.Server.IdleTimeout = 60 * time.Second
	}
	if c.Server.RateLimitRPS == 0 {
		c.Server.RateLimitRPS = 100
	}
	if c.Server.RateBurst == 0 {
		c.Server.RateBurst = 200
	}

	if c.Database.Host == "" {
		c.Database.Host = "localhost"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.Charset == "" {
		c.Database.Charset = "utf8mb4"
	}
	if c.Database.MaxOpenConns == 0 {
		c.Database.MaxOpenConns = 100
	}
	if c.Database.MaxIdleConns == 0 {
		c.Database.MaxIdleConns = 10
	}
	if c.Database.ConnMaxLifetime == 0 {
		c.Database.ConnMaxLifetime = time.Hour
	}

	if c.Redis.Host == "" {
		c.Redis.Host = "localhost"
	}
	if c.Redis.Port == 0 {
		c.Redis.Port = 6379
	}
	if c.Redis.PoolSize == 0 {
		c.Redis.PoolSize = 100
	}
	if c.Redis.DialTimeout == 0 {
		c.Redis.DialTimeout = 5 * time.Second
	}
	if c.Redis.ReadTimeout == 0 {
		c.Redis.ReadTimeout = 3 * time.Second
	}
	if c.Redis.WriteTimeout == 0 {
		c.Redis.WriteTimeout = 3 * time.Second
	}

	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "json"
	}
	if c.Log.Output == "" {
		c.Log.Output = "stdout"
	}

	if c.Cache.SummaryTTL == 0 {
		c.Cache.SummaryTTL = 5 * time.Minute
	}
	if c.Cache.FilterSize == 0 {
		c.Cache.FilterSize = 100000
	}
	if c.Cache.FilterFPRate == 0 {
		c.Cache.FilterFPRate = 0.01
	}

	if c.Engine.MaxStackable == 0 {
		c.Engine.MaxStackable = 5
	}
	if c.Engine.ExclusivePriority == 0 {
		c.Engine.ExclusivePriority = 100
	}
	if c.Engine.ProjectedRateCeiling == 0 {
		c.Engine.ProjectedRateCeiling = 95
	}
	if c.Engine.MaxDailyUsage == 0 {
		c.Engine.MaxDailyUsage = 10
	}
	if c.Engine.DiscountRateCeiling == 0 {
		c.Engine.DiscountRateCeiling = 80
	}
	if c.Engine.DailyAmountCap == 0 {
		c.Engine.DailyAmountCap = 10000
	}
}
