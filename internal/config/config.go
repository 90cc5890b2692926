// Package config loads the runtime configuration from environment
// variables.  main loads a .env file into the environment first.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Storage drivers.
const (
	DriverMongo = "mongo"
	DriverMySQL = "mysql"
)

// Media providers.
const (
	ProviderCloudinary = "cloudinary"
	ProviderS3         = "s3"
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.
type Config struct {
	Env            string // APP_ENV
	Port           string // PORT, default 8001
	FrontendOrigin string // FRONTEND_ORIGIN, allowed CORS origin

	StorageDriver string // STORAGE_DRIVER, mongo or mysql
	MongoURI      string
	MongoDB       string // MONGO_DB, default "users"
	DBUser        string
	DBPass        string
	DBHost        string
	DBPort        string
	DBName        string

	MediaProvider      string // MEDIA_PROVIDER, cloudinary or s3
	CloudinaryCloud    string
	CloudinaryKey      string
	CloudinarySecret   string
	AWSRegion          string
	S3Bucket           string
	PosterFolder       string
	VideoFolder        string
	UploadDir          string
	UploadMaxBytes     int64
	BreakerFailures    uint32
	BreakerOpenTimeout time.Duration

	RabbitMQURL string // empty disables orphan events

	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads the configuration.  Every missing or malformed variable is
// reported in the single returned error.
func Load() (Config, error) {
	var problems []string
	missing := func(keys ...string) {
		for _, k := range keys {
			if os.Getenv(k) == "" {
				problems = append(problems, "missing "+k)
			}
		}
	}

	cfg := Config{
		Env:            envStr("APP_ENV", "dev"),
		Port:           envStr("PORT", "8001"),
		FrontendOrigin: envStr("FRONTEND_ORIGIN", "http://localhost:5173"),

		StorageDriver: strings.ToLower(envStr("STORAGE_DRIVER", DriverMongo)),
		MongoURI:      os.Getenv("MONGO_URI"),
		MongoDB:       envStr("MONGO_DB", "users"),
		DBUser:        os.Getenv("DB_USER"),
		DBPass:        os.Getenv("DB_PASS"),
		DBHost:        os.Getenv("DB_HOST"),
		DBPort:        envStr("DB_PORT", "3306"),
		DBName:        os.Getenv("DB_NAME"),

		MediaProvider:    strings.ToLower(envStr("MEDIA_PROVIDER", ProviderCloudinary)),
		CloudinaryCloud:  os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinarySecret: os.Getenv("CLOUDINARY_API_SECRET"),
		AWSRegion:        os.Getenv("AWS_REGION"),
		S3Bucket:         os.Getenv("S3_BUCKET"),
		PosterFolder:     envStr("MEDIA_POSTER_FOLDER", "movies/posters"),
		VideoFolder:      envStr("MEDIA_VIDEO_FOLDER", "movies/videos"),
		UploadDir:        envStr("UPLOAD_DIR", "public/temp"),

		RabbitMQURL: os.Getenv("RABBITMQ_URL"),

		LogLevel:  envStr("LOG_LEVEL", "info"),
		LogFormat: envStr("LOG_FORMAT", "json"),
	}

	var err error
	if cfg.UploadMaxBytes, err = strconv.ParseInt(envStr("UPLOAD_MAX_BYTES", "104857600"), 10, 64); err != nil || cfg.UploadMaxBytes <= 0 {
		problems = append(problems, "UPLOAD_MAX_BYTES must be a positive integer")
	}
	if n, err := strconv.ParseUint(envStr("MEDIA_BREAKER_FAILURES", "5"), 10, 32); err != nil || n == 0 {
		problems = append(problems, "MEDIA_BREAKER_FAILURES must be a positive integer")
	} else {
		cfg.BreakerFailures = uint32(n)
	}
	if cfg.BreakerOpenTimeout, err = time.ParseDuration(envStr("MEDIA_BREAKER_TIMEOUT", "30s")); err != nil {
		problems = append(problems, "MEDIA_BREAKER_TIMEOUT must be a duration")
	}
	if cfg.ShutdownTimeout, err = time.ParseDuration(envStr("SHUTDOWN_TIMEOUT", "15s")); err != nil {
		problems = append(problems, "SHUTDOWN_TIMEOUT must be a duration")
	}

	switch cfg.StorageDriver {
	case DriverMongo:
		missing("MONGO_URI")
	case DriverMySQL:
		missing("DB_USER", "DB_HOST", "DB_NAME")
	default:
		problems = append(problems, fmt.Sprintf("STORAGE_DRIVER %q is not mongo or mysql", cfg.StorageDriver))
	}

	switch cfg.MediaProvider {
	case ProviderCloudinary:
		missing("CLOUDINARY_CLOUD_NAME", "CLOUDINARY_API_KEY", "CLOUDINARY_API_SECRET")
	case ProviderS3:
		missing("AWS_REGION", "S3_BUCKET")
	default:
		problems = append(problems, fmt.Sprintf("MEDIA_PROVIDER %q is not cloudinary or s3", cfg.MediaProvider))
	}

	if len(problems) > 0 {
		return cfg, fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}
	return cfg, nil
}
