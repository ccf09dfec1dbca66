package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App          AppConfig          `mapstructure:"app"`
	AdminAPI     APIConfig          `mapstructure:"admin_api"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Log          LogConfig          `mapstructure:"log"`
	Storage      StorageConfig      `mapstructure:"storage"`
	InitialAdmin InitialAdminConfig `mapstructure:"initial_admin"`
	Store        StoreConfig        `mapstructure:"store"`
}

type AppConfig struct {
	Env               string `mapstructure:"env"`
	MultiTenantMode   bool   `mapstructure:"multi_tenant_mode"`
	LoginURL          string `mapstructure:"login_url"`
	DefaultTenantName string `mapstructure:"default_tenant_name"`
}

// DefaultTenantID is the id of the bootstrap tenant for the current mode.
func (a AppConfig) DefaultTenantID() string {
	if a.MultiTenantMode {
		return "system"
	}
	return "default"
}

type APIConfig struct {
	Port               string `mapstructure:"port"`
	GinMode            string `mapstructure:"gin_mode"`
	JWTSecret          string `mapstructure:"jwt_secret"`
	JWTExpirationHours int    `mapstructure:"jwt_expiration_hours"`
}

type DatabaseConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"name"`
	SSLMode  string `mapstructure:"sslmode"`
	MaxConns int32  `mapstructure:"max_conns"`
	MinConns int32  `mapstructure:"min_conns"`
}

type RedisConfig struct {
	Host           string        `mapstructure:"host"`
	Port           string        `mapstructure:"port"`
	Password       string        `mapstructure:"password"`
	DB             int           `mapstructure:"db"`
	DisplayNameTTL time.Duration `mapstructure:"display_name_ttl"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type StorageConfig struct {
	Driver             string `mapstructure:"driver"`
	UploadsPath        string `mapstructure:"uploads_path"`
	AWSAccessKeyID     string `mapstructure:"aws_access_key_id"`
	AWSSecretAccessKey string `mapstructure:"aws_secret_access_key"`
	AWSRegion          string `mapstructure:"aws_region"`
	AWSBucket          string `mapstructure:"aws_bucket"`
	// AWSEndpoint points the S3 driver at an S3-compatible store such as MinIO.
	AWSEndpoint        string `mapstructure:"aws_endpoint"`
}

type InitialAdminConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// StoreConfig selects the persistence backend: postgres or memory.
type StoreConfig struct {
	Driver string `mapstructure:"driver"`
}

// SetDefaults registers every key so environment variables are picked up by Unmarshal.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "development")
	v.SetDefault("app.multi_tenant_mode", true)
	v.SetDefault("app.login_url", "http://localhost:8000/login")
	v.SetDefault("app.default_tenant_name", "")

	v.SetDefault("admin_api.port", "8080")
	v.SetDefault("admin_api.gin_mode", "debug")
	v.SetDefault("admin_api.jwt_secret", "admin-super-secret-jwt-key-change-in-production")
	v.SetDefault("admin_api.jwt_expiration_hours", 24)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", "5432")
	v.SetDefault("database.user", "identity")
	v.SetDefault("database.password", "identity_password")
	v.SetDefault("database.name", "identity")
	v.SetDefault("database.sslmode", "disable")
	v.SetDefault("database.max_conns", 25)
	v.SetDefault("database.min_conns", 5)

	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", "6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.display_name_ttl", 10*time.Minute)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.uploads_path", "./uploads")
	v.SetDefault("storage.aws_access_key_id", "")
	v.SetDefault("storage.aws_secret_access_key", "")
	v.SetDefault("storage.aws_region", "us-east-1")
	v.SetDefault("storage.aws_bucket", "")
	v.SetDefault("storage.aws_endpoint", "")

	v.SetDefault("initial_admin.username", "admin")
	v.SetDefault("initial_admin.password", "")

	v.SetDefault("store.driver", "postgres")
}

// New returns a viper instance with defaults and environment binding
// (APP_MULTI_TENANT_MODE, DATABASE_HOST, ...).
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// Load reads the optional config file and unmarshals the merged settings.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if cfg.App.DefaultTenantName == "" {
		cfg.App.DefaultTenantName = cfg.App.DefaultTenantID()
	}
	return &cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		c.User,
		c.Password,
		c.Host,
		c.Port,
		c.DBName,
		c.SSLMode,
	)
}

func (c *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}
