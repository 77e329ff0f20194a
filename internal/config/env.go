package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"CutoutDemo/internal/api/segment"
	"CutoutDemo/internal/middleware"
	"CutoutDemo/pkg/predictor"
	"CutoutDemo/pkg/redis"
	"CutoutDemo/pkg/s3"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

type Component string

const (
	ComponentServer  Component = "server"
	ComponentGateway Component = "gateway"
	ComponentClient  Component = "client"
)

const (
	HistoryFile  = "file"
	HistoryRedis = "redis"
)

var defaultPorts = map[Component]string{
	ComponentServer:  "8000",
	ComponentGateway: "8080",
	ComponentClient:  "8501",
}

// The inference server sits behind the gateway, so every user reaches it
// from the gateway's address and shares one bucket there.
var defaultRateLimits = map[Component]middleware.Config{
	ComponentServer:  {Rate: 50, Burst: 100},
	ComponentGateway: {Rate: 5, Burst: 10},
	ComponentClient:  {Rate: 5, Burst: 10},
}

// SegmentConfig configures the inference server endpoint.
type SegmentConfig struct {
	Output        string `validate:"required,oneof=bytes s3"`
	ObjectPrefix  string
	MaxUploadSize int64 `validate:"gt=0"`
}

type GatewayConfig struct {
	InferenceServerURL string        `validate:"required,url"`
	Timeout            time.Duration `validate:"gt=0"`
}

type ClientConfig struct {
	GatewayURL      string        `validate:"required,url"`
	Timeout         time.Duration `validate:"gt=0"`
	HistoryBackend  string        `validate:"required,oneof=file redis"`
	HistoryFile     string        `validate:"required_if=HistoryBackend file"`
	HistoryRedisKey string        `validate:"required_if=HistoryBackend redis"`
	ResultsDir      string        `validate:"required"`
	MaxUploadSize   int64         `validate:"gt=0"`
}

// Config is read once from the environment. Every component reads the same
// variables and only validates the sections it uses.
type Config struct {
	Env       string
	Port      string
	Model     predictor.ModelConfig
	Segment   SegmentConfig
	S3        s3.Config
	Gateway   GatewayConfig
	Client    ClientConfig
	Redis     redis.Config
	RateLimit middleware.Config
}

// Load reads an optional .env file and then the process environment.
func Load(component Component) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	cfg := &Config{
		Env:  getEnv("APP_ENV", "development"),
		Port: getEnv("APP_PORT", defaultPorts[component]),
		Model: predictor.ModelConfig{
			Backend:        predictor.Backend(getEnv("SAM_BACKEND", string(predictor.BackendLocal))),
			RepoDir:        getEnv("SAM_REPO_DIR", "./sam2"),
			ConfigName:     getEnv("SAM_MODEL_CFG", "configs/sam2.1/sam2.1_hiera_l.yaml"),
			CheckpointPath: getEnv("SAM_CHECKPOINT", "./checkpoints/sam2.1_hiera_large.pt"),
			Device:         getEnv("SAM_DEVICE", predictor.DefaultDevice),
			RuntimeURL:     getEnv("SAM_RUNTIME_URL", "http://localhost:9000"),
			Timeout:        getEnvDuration("SAM_RUNTIME_TIMEOUT", 5*time.Minute),
		},
		Segment: SegmentConfig{
			Output:        strings.ToLower(getEnv("SEGMENT_OUTPUT", segment.OutputBytes)),
			ObjectPrefix:  getEnv("S3_OBJECT_PREFIX", "cutouts"),
			MaxUploadSize: int64(getEnvInt("MAX_UPLOAD_MB", 20)) * 1024 * 1024,
		},
		S3: s3.Config{
			Region:          getEnv("AWS_REGION", "us-west-2"),
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			Bucket:          os.Getenv("AWS_BUCKET_NAME"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			PresignTTL:      getEnvDuration("S3_PRESIGN_TTL", s3.DefaultPresignTTL),
		},
		Gateway: GatewayConfig{
			InferenceServerURL: getEnv("INFERENCE_SERVER_URL", "http://localhost:8000/segment"),
			Timeout:            getEnvDuration("UPSTREAM_TIMEOUT", 3*time.Minute),
		},
		Client: ClientConfig{
			GatewayURL:      getEnv("GATEWAY_URL", "http://localhost:8080/segment"),
			Timeout:         getEnvDuration("GATEWAY_TIMEOUT", 5*time.Minute),
			HistoryBackend:  strings.ToLower(getEnv("HISTORY_BACKEND", HistoryFile)),
			HistoryFile:     getEnv("HISTORY_FILE", "history.json"),
			HistoryRedisKey: getEnv("HISTORY_REDIS_KEY", "cutout:history"),
			ResultsDir:      getEnv("RESULTS_DIR", "./storage/results"),
			MaxUploadSize:   int64(getEnvInt("MAX_UPLOAD_MB", 20)) * 1024 * 1024,
		},
		Redis: redis.Config{
			Addr:     getEnv("REDIS_ADDRESS", "localhost:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		RateLimit: middleware.Config{
			Rate:  getEnvFloat("RATE_LIMIT", defaultRateLimits[component].Rate),
			Burst: getEnvInt("RATE_BURST", defaultRateLimits[component].Burst),
		},
	}

	if err := cfg.Validate(component, NewValidator()); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the sections component depends on.
func (c *Config) Validate(component Component, v *validator.Validate) error {
	var sections []interface{}

	switch component {
	case ComponentServer:
		sections = append(sections, c.Model, c.Segment)
		if c.Segment.Output == segment.OutputS3 && c.S3.Bucket == "" {
			return fmt.Errorf("AWS_BUCKET_NAME is required when SEGMENT_OUTPUT=%s", segment.OutputS3)
		}
	case ComponentGateway:
		sections = append(sections, c.Gateway)
	case ComponentClient:
		sections = append(sections, c.Client)
		if c.Client.HistoryBackend == HistoryRedis && c.Redis.Addr == "" {
			return fmt.Errorf("REDIS_ADDRESS is required when HISTORY_BACKEND=%s", HistoryRedis)
		}
	default:
		return fmt.Errorf("unknown component %q", component)
	}

	for _, section := range sections {
		if err := v.Struct(section); err != nil {
			return fmt.Errorf("invalid %s configuration: %w", component, err)
		}
	}

	return nil
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return v
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if v, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return v
	}
	return def
}

// getEnvDuration accepts Go durations ("90s", "5m") or a plain number of
// seconds.
func getEnvDuration(key string, def time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	if d, err := time.ParseDuration(raw); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	return def
}
