package config

import (
	"context"
	"time"

	"voice-order/internal/common/enum"
	database "voice-order/internal/pkg/db"
	"voice-order/internal/pkg/rabbitmq"
	"voice-order/internal/pkg/redis"
	s3aws "voice-order/internal/pkg/storage/s3"
)

// Config holds all application configuration loaded from environment variables
type Config struct {
	AppEnv        enum.EnvEnum  `env:"APP_ENV" envDefault:"development"`
	AppPort       int           `env:"APP_PORT" envDefault:"8080"`
	JWTSecret     string        `env:"JWT_SECRET" envDefault:""`
	SessionTTL    time.Duration `env:"SESSION_TTL" envDefault:"30m"`
	MaxAudioBytes int           `env:"MAX_AUDIO_BYTES" envDefault:"26214400"`
	WorkerPool    int           `env:"WORKER_POOL_SIZE" envDefault:"64"`
	RedisHost     string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisUser     string        `env:"REDIS_USER" envDefault:"default"`
	RedisPass     string        `env:"REDIS_PASS" envDefault:""`
	RedisPoolSize int           `env:"REDIS_POOL_SIZE" envDefault:"10"`
	RabbitHost    string        `env:"RABBIT_HOST" envDefault:"localhost"`
	RabbitPort    int           `env:"RABBIT_PORT" envDefault:"5672"`
	RabbitUser    string        `env:"RABBIT_USER" envDefault:"guest"`
	RabbitPass    string        `env:"RABBIT_PASS" envDefault:"guest"`
	DBDriver      string        `env:"DB_DRIVER" envDefault:"postgres"`
	DBHost        string        `env:"DB_HOST" envDefault:"localhost"`
	DBPort        int           `env:"DB_PORT" envDefault:"5432"`
	DBUser        string        `env:"DB_USER" envDefault:"postgres"`
	DBPass        string        `env:"DB_PASS" envDefault:""`
	DBName        string        `env:"DB_NAME" envDefault:"postgres"`
	DBCache       bool          `env:"DB_CACHE" envDefault:"true"`
	GeminiModel   string        `env:"GEMINI_MODEL" envDefault:"gemini-2.0-flash"`

	// Recordings are archived only when a bucket is configured.
	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" envDefault:""`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" envDefault:""`
	AWSRegion          string `env:"AWS_REGION" envDefault:"us-east-1"`
	AWSBucketName      string `env:"AWS_BUCKET_NAME" envDefault:""`
}

// SetupServerDto contains dependencies for server setup
type SetupServerDto struct {
	Ctx    context.Context
	Cancel context.CancelFunc
	Env    *Config
	Db     *database.Database
	Rds    redis.IRedis
	Rb     *rabbitmq.ConnectionManager
	S3     s3aws.Is3
}
