package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// readSecret reads a Docker secret from a file path specified by an env var
// with _FILE suffix. If FOO is already set directly, the file is skipped.
// If FOO_FILE is set, reads the file content and sets FOO.
func readSecret(envKey string) {
	if os.Getenv(envKey) != "" {
		return
	}
	fileKey := envKey + "_FILE"
	filePath := os.Getenv(fileKey)
	if filePath == "" {
		return
	}
	data, err := os.ReadFile(filePath)
	if err != nil {
		return
	}
	val := strings.TrimSpace(string(data))
	os.Setenv(envKey, val)
}

type Config struct {
	Server    ServerConfig
	Cache     CacheConfig
	Download  DownloadConfig
	Redis     RedisConfig
	RateLimit RateLimitConfig
	Storage   StorageConfig
}

type ServerConfig struct {
	Port          string
	LogLevel      string
	PublicBaseURL string
	DataDir       string
}

type CacheConfig struct {
	Root string
}

type DownloadConfig struct {
	ConnectTimeoutSeconds int
	ReadTimeoutSeconds    int
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type RateLimitConfig struct {
	ProcessPerMin int
}

type StorageConfig struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	PublicURL       string
}

// Configured reports whether enough credentials are present to use the
// S3-compatible backend. When false, the server falls back to local disk.
func (s StorageConfig) Configured() bool {
	return s.AccessKeyID != "" && s.SecretAccessKey != "" && s.BucketName != ""
}

func Load() (*Config, error) {
	// Read Docker Swarm secrets from _FILE env vars before Viper binds.
	readSecret("REDIS_PASSWORD")
	readSecret("STORAGE_ACCESS_KEY_ID")
	readSecret("STORAGE_SECRET_ACCESS_KEY")

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	viper.AutomaticEnv()

	_ = viper.BindEnv("server.port", "SERVER_PORT")
	_ = viper.BindEnv("server.log_level", "LOG_LEVEL")
	_ = viper.BindEnv("server.public_base_url", "PUBLIC_BASE_URL")
	_ = viper.BindEnv("server.data_dir", "PIPELINE_DATA_DIR")
	_ = viper.BindEnv("cache.root", "TEMPLATE_CACHE_DIR")
	_ = viper.BindEnv("download.connect_timeout_seconds", "TEMPLATE_CONNECT_TIMEOUT")
	_ = viper.BindEnv("download.read_timeout_seconds", "TEMPLATE_READ_TIMEOUT")
	_ = viper.BindEnv("redis.addr", "REDIS_ADDR")
	_ = viper.BindEnv("redis.password", "REDIS_PASSWORD")
	_ = viper.BindEnv("redis.db", "REDIS_DB")
	_ = viper.BindEnv("ratelimit.process_per_min", "RATELIMIT_PROCESS_PER_MIN")
	_ = viper.BindEnv("storage.account_id", "STORAGE_ACCOUNT_ID")
	_ = viper.BindEnv("storage.access_key_id", "STORAGE_ACCESS_KEY_ID")
	_ = viper.BindEnv("storage.secret_access_key", "STORAGE_SECRET_ACCESS_KEY")
	_ = viper.BindEnv("storage.bucket_name", "STORAGE_BUCKET_NAME")
	_ = viper.BindEnv("storage.public_url", "STORAGE_PUBLIC_URL")

	viper.SetDefault("server.port", "9002")
	viper.SetDefault("server.log_level", "info")
	viper.SetDefault("server.public_base_url", "http://localhost:9002")
	viper.SetDefault("server.data_dir", "./data")
	viper.SetDefault("download.connect_timeout_seconds", 5)
	viper.SetDefault("download.read_timeout_seconds", 30)
	viper.SetDefault("redis.addr", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("ratelimit.process_per_min", 30)

	// Try to read a config file (optional).
	_ = viper.ReadInConfig()

	dataDir := viper.GetString("server.data_dir")
	cacheRoot := viper.GetString("cache.root")
	if cacheRoot == "" {
		cacheRoot = filepath.Join(dataDir, "templates")
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:          viper.GetString("server.port"),
			LogLevel:      viper.GetString("server.log_level"),
			PublicBaseURL: viper.GetString("server.public_base_url"),
			DataDir:       dataDir,
		},
		Cache: CacheConfig{
			Root: cacheRoot,
		},
		Download: DownloadConfig{
			ConnectTimeoutSeconds: viper.GetInt("download.connect_timeout_seconds"),
			ReadTimeoutSeconds:    viper.GetInt("download.read_timeout_seconds"),
		},
		Redis: RedisConfig{
			Addr:     viper.GetString("redis.addr"),
			Password: viper.GetString("redis.password"),
			DB:       viper.GetInt("redis.db"),
		},
		RateLimit: RateLimitConfig{
			ProcessPerMin: viper.GetInt("ratelimit.process_per_min"),
		},
		Storage: StorageConfig{
			AccountID:       viper.GetString("storage.account_id"),
			AccessKeyID:     viper.GetString("storage.access_key_id"),
			SecretAccessKey: viper.GetString("storage.secret_access_key"),
			BucketName:      viper.GetString("storage.bucket_name"),
			PublicURL:       viper.GetString("storage.public_url"),
		},
	}

	return cfg, nil
}
