package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 RIDGETRACE_SERVER_PORT
const EnvPrefix = "RIDGETRACE"

type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Redis  RedisConfig  `mapstructure:"redis"`
	Upload UploadConfig `mapstructure:"upload"`
	Auth   AuthConfig   `mapstructure:"auth"`
	Trace  TraceConfig  `mapstructure:"trace"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Mode         string        `mapstructure:"mode"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	TTL      time.Duration `mapstructure:"ttl"`
}

type UploadConfig struct {
	MaxSize      int64    `mapstructure:"max_size"`
	UploadDir    string   `mapstructure:"upload_dir"`
	AllowedTypes []string `mapstructure:"allowed_types"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	Issuer    string        `mapstructure:"issuer"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type TraceConfig struct {
	DefaultThreshold float64 `mapstructure:"default_threshold"`
	MaxThreshold     float64 `mapstructure:"max_threshold"`
	MaxConcurrent    int     `mapstructure:"max_concurrent"`
	QueueTimeout     int     `mapstructure:"queue_timeout"`
	MaxDimension     int     `mapstructure:"max_dimension"`
	Workers          int     `mapstructure:"workers"`
	CleanupTempFiles bool    `mapstructure:"cleanup_temp_files"`
}

// Load 从 YAML 文件加载配置，环境变量优先；文件不存在时使用默认值与环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	setDefaults(v)
	bindEnv(v)

	if err := v.ReadInConfig(); err != nil && !isNotFound(err) {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func isNotFound(err error) bool {
	var notFound viper.ConfigFileNotFoundError
	return errors.As(err, &notFound) || errors.Is(err, os.ErrNotExist)
}

// Validate 校验配置取值
func (c *Config) Validate() error {
	if c.Trace.DefaultThreshold < 0 || c.Trace.DefaultThreshold > c.Trace.MaxThreshold {
		return fmt.Errorf("trace.default_threshold %v out of range [0, %v]", c.Trace.DefaultThreshold, c.Trace.MaxThreshold)
	}
	if c.Trace.MaxConcurrent <= 0 {
		return fmt.Errorf("trace.max_concurrent must be positive, got %d", c.Trace.MaxConcurrent)
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("auth.token_ttl must be positive")
	}
	return nil
}

func bindEnv(v *viper.Viper) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", ":8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("upload.max_size", 10*1024*1024)
	v.SetDefault("upload.upload_dir", "./uploads")
	v.SetDefault("upload.allowed_types", []string{"image/jpeg", "image/png", "image/jpg", "image/webp", "image/bmp"})

	v.SetDefault("auth.jwt_secret", "change-me")
	v.SetDefault("auth.issuer", "ridgetrace")
	v.SetDefault("auth.token_ttl", 7*24*time.Hour)

	v.SetDefault("trace.default_threshold", 30)
	v.SetDefault("trace.max_threshold", 255)
	v.SetDefault("trace.max_concurrent", 3)
	v.SetDefault("trace.queue_timeout", 30)
	v.SetDefault("trace.max_dimension", 0)
	v.SetDefault("trace.workers", 1)
	v.SetDefault("trace.cleanup_temp_files", true)
}
