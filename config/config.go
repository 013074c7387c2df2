package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/spf13/viper"
)

var (
	globalConfig Config
	once         sync.Once
)

// Config 扁平化配置结构体
type Config struct {
	// 服务器配置
	ServerHost         string        `mapstructure:"server_host"`
	ServerPort         int           `mapstructure:"server_port"`
	ServerReadTimeout  time.Duration `mapstructure:"server_read_timeout"`
	ServerWriteTimeout time.Duration `mapstructure:"server_write_timeout"`
	ServerIdleTimeout  time.Duration `mapstructure:"server_idle_timeout"`
	CORSAllowOrigins   string        `mapstructure:"cors_allow_origins"`
	MaxConcurrency     int64         `mapstructure:"max_concurrency"`

	// 数据库配置
	DBType            string `mapstructure:"db_type"`
	DBHost            string `mapstructure:"db_host"`
	DBPort            int    `mapstructure:"db_port"`
	DBUsername        string `mapstructure:"db_username"`
	DBPassword        string `mapstructure:"db_password"`
	DBName            string `mapstructure:"db_name"`
	DBFilePath        string `mapstructure:"db_file_path"`
	DBMaxOpenConns    int    `mapstructure:"db_max_open_conns"`
	DBMaxIdleConns    int    `mapstructure:"db_max_idle_conns"`
	DBConnMaxLifetime int    `mapstructure:"db_conn_max_lifetime"`

	// 缓存配置（会话存储）
	CacheType          string `mapstructure:"cache_type"`
	CacheRedisAddr     string `mapstructure:"cache_redis_addr"`
	CacheRedisPassword string `mapstructure:"cache_redis_password"`
	CacheRedisDB       int    `mapstructure:"cache_redis_db"`
	CacheRedisPoolSize int    `mapstructure:"cache_redis_pool_size"`

	// 图片存储配置
	StorageType           string `mapstructure:"storage_type"`
	StorageLocalPath      string `mapstructure:"storage_local_path"`
	StorageMinioEndpoint  string `mapstructure:"storage_minio_endpoint"`
	StorageMinioAccessKey string `mapstructure:"storage_minio_access_key"`
	StorageMinioSecretKey string `mapstructure:"storage_minio_secret_key"`
	StorageMinioBucket    string `mapstructure:"storage_minio_bucket"`
	StorageMinioUseSSL    bool   `mapstructure:"storage_minio_use_ssl"`
	StorageWebDAVURL      string `mapstructure:"storage_webdav_url"`
	StorageWebDAVUsername string `mapstructure:"storage_webdav_username"`
	StorageWebDAVPassword string `mapstructure:"storage_webdav_password"`
	StorageWebDAVRootPath string `mapstructure:"storage_webdav_root_path"`
	StorageWebDAVTimeout  string `mapstructure:"storage_webdav_timeout"`

	// 会话配置
	SessionSecret     string        `mapstructure:"session_secret"`
	SessionTTL        time.Duration `mapstructure:"session_ttl"`
	SessionCookieName string        `mapstructure:"session_cookie_name"`

	// 限流配置
	RateLimitApiRPS     float64       `mapstructure:"rate_limit_api_rps"`
	RateLimitApiBurst   int           `mapstructure:"rate_limit_api_burst"`
	RateLimitAuthRPS    float64       `mapstructure:"rate_limit_auth_rps"`
	RateLimitAuthBurst  int           `mapstructure:"rate_limit_auth_burst"`
	RateLimitExpireTime time.Duration `mapstructure:"rate_limit_expire_time"`

	// 上传配置
	UploadMaxSizeMB int `mapstructure:"upload_max_size_mb"`

	// 一致性清理与实时推送
	SweepOnStartup bool          `mapstructure:"sweep_on_startup"`
	SweepInterval  time.Duration `mapstructure:"sweep_interval"`
	WSSendBuffer   int           `mapstructure:"ws_send_buffer"`
}

// InitConfig Initialize configuration
func InitConfig() {
	once.Do(func() {
		loadConfig()
	})
}

func Get() *Config {
	return &globalConfig
}

// loadConfig Core configuration loading
func loadConfig() {
	setDefaults()

	configFile := viper.GetString("config_file_path")
	if configFile == "" {
		configFile = ".env"
	}
	viper.SetConfigFile(configFile)
	viper.SetConfigType("env")

	if err := viper.ReadInConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Info: %s not found, using defaults and environment variables\n", configFile)
	} else {
		fmt.Fprintf(os.Stderr, "Info: Loaded configuration from %s\n", configFile)
	}

	viper.AutomaticEnv()
	for _, key := range viper.AllKeys() {
		_ = viper.BindEnv(key)
	}

	if err := viper.Unmarshal(&globalConfig); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: Unable to unmarshal config, %v\n", err)
		os.Exit(1)
	}

	if len(globalConfig.SessionSecret) < 32 {
		fmt.Fprintln(os.Stderr, "Warning: session_secret is shorter than 32 characters, sessions will not survive restarts")
	}
}

// setDefaults 设置默认值
func setDefaults() {
	// 服务器配置默认值
	viper.SetDefault("server_host", "127.0.0.1")
	viper.SetDefault("server_port", 3001)
	viper.SetDefault("server_read_timeout", "15s")
	viper.SetDefault("server_write_timeout", "30s")
	viper.SetDefault("server_idle_timeout", "120s")
	viper.SetDefault("cors_allow_origins", "http://localhost:3000")
	viper.SetDefault("max_concurrency", 100)

	// 数据库配置默认值
	viper.SetDefault("db_type", "sqlite")
	viper.SetDefault("db_host", "localhost")
	viper.SetDefault("db_port", 5432)
	viper.SetDefault("db_username", "postgres")
	viper.SetDefault("db_password", "")
	viper.SetDefault("db_name", "photo-share")
	viper.SetDefault("db_file_path", "./data/photos.db")
	viper.SetDefault("db_max_open_conns", 100)
	viper.SetDefault("db_max_idle_conns", 25)
	viper.SetDefault("db_conn_max_lifetime", 3600)

	// 缓存配置默认值
	viper.SetDefault("cache_type", "memory")
	viper.SetDefault("cache_redis_addr", "localhost:6379")
	viper.SetDefault("cache_redis_password", "")
	viper.SetDefault("cache_redis_db", 0)
	viper.SetDefault("cache_redis_pool_size", 10)

	// 存储配置默认值
	viper.SetDefault("storage_type", "local")
	viper.SetDefault("storage_local_path", "./images")
	viper.SetDefault("storage_minio_endpoint", "")
	viper.SetDefault("storage_minio_access_key", "")
	viper.SetDefault("storage_minio_secret_key", "")
	viper.SetDefault("storage_minio_bucket", "photo-share")
	viper.SetDefault("storage_minio_use_ssl", false)
	viper.SetDefault("storage_webdav_url", "")
	viper.SetDefault("storage_webdav_username", "")
	viper.SetDefault("storage_webdav_password", "")
	viper.SetDefault("storage_webdav_root_path", "/photo-share")
	viper.SetDefault("storage_webdav_timeout", "30s")

	// 会话配置默认值
	viper.SetDefault("session_secret", "")
	viper.SetDefault("session_ttl", "24h")
	viper.SetDefault("session_cookie_name", "photo_share_session")

	// 限流配置默认值
	viper.SetDefault("rate_limit_api_rps", 30.0)
	viper.SetDefault("rate_limit_api_burst", 60)
	viper.SetDefault("rate_limit_auth_rps", 0.5)
	viper.SetDefault("rate_limit_auth_burst", 5)
	viper.SetDefault("rate_limit_expire_time", "10m")

	viper.SetDefault("upload_max_size_mb", 20)

	viper.SetDefault("sweep_on_startup", false)
	viper.SetDefault("sweep_interval", "0s")
	viper.SetDefault("ws_send_buffer", 64)
}

// Addr 返回监听地址，格式为 "host:port"
func (c *Config) Addr() string {
	host := c.ServerHost
	if host == "" {
		host = "0.0.0.0"
	}
	port := c.ServerPort
	if port == 0 {
		port = 3001
	}
	return fmt.Sprintf("%s:%d", host, port)
}

// AllowOrigins 解析逗号分隔的 CORS 来源
func (c *Config) AllowOrigins() []string {
	var origins []string
	for _, origin := range strings.Split(c.CORSAllowOrigins, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	return origins
}

// StorageOptions 返回当前存储类型的参数表，由 storage 工厂解码
func (c *Config) StorageOptions() map[string]interface{} {
	switch c.StorageType {
	case "minio":
		return map[string]interface{}{
			"endpoint":          c.StorageMinioEndpoint,
			"access_key_id":     c.StorageMinioAccessKey,
			"secret_access_key": c.StorageMinioSecretKey,
			"bucket_name":       c.StorageMinioBucket,
			"use_ssl":           c.StorageMinioUseSSL,
		}
	case "webdav":
		return map[string]interface{}{
			"url":       c.StorageWebDAVURL,
			"username":  c.StorageWebDAVUsername,
			"password":  c.StorageWebDAVPassword,
			"root_path": c.StorageWebDAVRootPath,
			"timeout":   c.StorageWebDAVTimeout,
		}
	default:
		return map[string]interface{}{
			"path": c.StorageLocalPath,
		}
	}
}

// CacheOptions 返回当前缓存类型的参数表，由 cache 工厂解码
func (c *Config) CacheOptions() map[string]interface{} {
	if c.CacheType == "redis" {
		return map[string]interface{}{
			"address":   c.CacheRedisAddr,
			"password":  c.CacheRedisPassword,
			"db":        c.CacheRedisDB,
			"pool_size": c.CacheRedisPoolSize,
		}
	}
	return map[string]interface{}{
		"num_counters": int64(100000),
		"max_cost":     int64(1 << 26),
		"buffer_items": int64(64),
	}
}
