package config

import (
	"fmt"
	"net/url"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	StorageBackendMinio = "minio"
	StorageBackendGCS   = "gcs"
	StorageBackendS3    = "s3"

	MQBackendNone     = "none"
	MQBackendRabbitMQ = "rabbitmq"
	MQBackendPubSub   = "pubsub"
)

type Config struct {
	ServerPort int `env:"SERVER_PORT" envDefault:"8080"`

	Database DatabaseConfig `envPrefix:"DB_"`
	Log      LogConfig      `envPrefix:"LOG_"`
	Storage  StorageConfig  `envPrefix:"STORAGE_"`
	Minio    MinioConfig    `envPrefix:"MINIO_"`
	GCS      GCSConfig      `envPrefix:"GCS_"`
	S3       S3Config       `envPrefix:"S3_"`
	MQ       MQConfig       `envPrefix:"MQ_"`
	RabbitMQ RabbitMQConfig `envPrefix:"RABBITMQ_"`
	PubSub   PubSubConfig   `envPrefix:"PUBSUB_"`
}

type DatabaseConfig struct {
	Host     string `env:"HOST" envDefault:"localhost"`
	Port     int    `env:"PORT" envDefault:"5432"`
	User     string `env:"USER" envDefault:"roomly"`
	Password string `env:"PASSWORD" envDefault:"password"`
	DBName   string `env:"NAME" envDefault:"roomly_db"`
	UseSSL   bool   `env:"USE_SSL" envDefault:"false"`
}

type LogConfig struct {
	Level  string `env:"LEVEL" envDefault:"info"`
	Format string `env:"FORMAT" envDefault:"json"`
}

// StorageConfig selects the object storage backend for profile pictures.
type StorageConfig struct {
	Backend string `env:"BACKEND" envDefault:"minio"`

	// Folder is the namespace prefix; pictures live under <Folder>/<user id>/.
	Folder string `env:"FOLDER" envDefault:"airbnb"`

	// PublicBaseURL overrides the backend URL used to build secure URLs
	// (e.g. a CDN in front of the bucket).
	PublicBaseURL string `env:"PUBLIC_BASE_URL"`

	// MaxPhotoBytes is the largest accepted profile picture.
	MaxPhotoBytes int64 `env:"MAX_PHOTO_BYTES" envDefault:"10485760"`
}

type MinioConfig struct {
	Endpoint  string `env:"ENDPOINT" envDefault:"localhost:9000"`
	AccessKey string `env:"ACCESS_KEY"`
	SecretKey string `env:"SECRET_KEY"`
	Bucket    string `env:"BUCKET" envDefault:"roomly"`
	UseSSL    bool   `env:"USE_SSL" envDefault:"false"`
}

type GCSConfig struct {
	Bucket          string `env:"BUCKET"`
	ProjectID       string `env:"PROJECT_ID"`
	CredentialsFile string `env:"CREDENTIALS_FILE"`
}

type S3Config struct {
	Bucket       string `env:"BUCKET"`
	Region       string `env:"REGION" envDefault:"us-east-1"`
	AccessKey    string `env:"ACCESS_KEY"`
	SecretKey    string `env:"SECRET_KEY"`
	BaseEndpoint string `env:"BASE_ENDPOINT"`
}

type MQConfig struct {
	Backend string `env:"BACKEND" envDefault:"none"`
	Channel string `env:"CHANNEL" envDefault:"user-events"`
}

type RabbitMQConfig struct {
	URL           string `env:"URL"`
	PrefetchCount int    `env:"PREFETCH_COUNT" envDefault:"0"`

	// Queue is the shared subscriber queue. Empty gives each subscriber its own
	// exclusive queue.
	Queue           string `env:"QUEUE"`
	QueueDurable    bool   `env:"QUEUE_DURABLE" envDefault:"true"`
	QueueAutoDelete bool   `env:"QUEUE_AUTO_DELETE" envDefault:"false"`
}

type PubSubConfig struct {
	ProjectID          string `env:"PROJECT_ID"`
	CredentialsFile    string `env:"CREDENTIALS_FILE"`
	SubscriptionSuffix string `env:"SUBSCRIPTION_SUFFIX" envDefault:"-sub"`
}

func LoadConfig() (Config, error) {
	if os.Getenv("ENV") == "dev" {
		godotenv.Load()
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// PostgresURL builds the lib/pq connection URL for the configured database.
func (c Config) PostgresURL() string {
	sslmode := "disable"
	if c.Database.UseSSL {
		sslmode = "require"
	}

	u := &url.URL{
		Scheme: "postgres",
		Host:   fmt.Sprintf("%s:%d", c.Database.Host, c.Database.Port),
		User:   url.UserPassword(c.Database.User, c.Database.Password),
		Path:   c.Database.DBName,
	}
	q := u.Query()
	q.Set("sslmode", sslmode)
	u.RawQuery = q.Encode()
	return u.String()
}
