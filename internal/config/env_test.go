package config

import (
	"testing"
	"time"

	"CutoutDemo/internal/api/segment"
	"CutoutDemo/pkg/predictor"
	"CutoutDemo/pkg/s3"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "test")
	t.Setenv("APP_PORT", "")

	tests := []struct {
		component Component
		port      string
		rate      float64
		burst     int
	}{
		{ComponentServer, "8000", 50, 100},
		{ComponentGateway, "8080", 5, 10},
		{ComponentClient, "8501", 5, 10},
	}

	for _, tt := range tests {
		t.Run(string(tt.component), func(t *testing.T) {
			cfg, err := Load(tt.component)
			require.NoError(t, err)

			assert.Equal(t, tt.port, cfg.Port)
			assert.Equal(t, tt.rate, cfg.RateLimit.Rate)
			assert.Equal(t, tt.burst, cfg.RateLimit.Burst)
			assert.Equal(t, predictor.BackendLocal, cfg.Model.Backend)
			assert.Equal(t, segment.OutputBytes, cfg.Segment.Output)
			assert.Equal(t, s3.DefaultPresignTTL, cfg.S3.PresignTTL)
			assert.Equal(t, 5*time.Minute, cfg.Client.Timeout)
			assert.Equal(t, HistoryFile, cfg.Client.HistoryBackend)
			assert.Equal(t, "history.json", cfg.Client.HistoryFile)
			assert.Equal(t, "./storage/results", cfg.Client.ResultsDir)
			assert.Equal(t, "http://localhost:8000/segment", cfg.Gateway.InferenceServerURL)
		})
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("APP_PORT", "9999")
	t.Setenv("SEGMENT_OUTPUT", "S3")
	t.Setenv("AWS_BUCKET_NAME", "cutouts")
	t.Setenv("S3_PRESIGN_TTL", "900")
	t.Setenv("GATEWAY_TIMEOUT", "2m")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("RATE_LIMIT", "0.5")

	cfg, err := Load(ComponentServer)
	require.NoError(t, err)

	assert.Equal(t, "9999", cfg.Port)
	assert.Equal(t, segment.OutputS3, cfg.Segment.Output)
	assert.Equal(t, "cutouts", cfg.S3.Bucket)
	assert.Equal(t, 15*time.Minute, cfg.S3.PresignTTL)
	assert.Equal(t, 2*time.Minute, cfg.Client.Timeout)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, 0.5, cfg.RateLimit.Rate)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		component Component
		env       map[string]string
		wantErr   string
	}{
		{
			name:      "s3 output without bucket",
			component: ComponentServer,
			env:       map[string]string{"SEGMENT_OUTPUT": "s3", "AWS_BUCKET_NAME": ""},
			wantErr:   "AWS_BUCKET_NAME is required",
		},
		{
			name:      "unknown output",
			component: ComponentServer,
			env:       map[string]string{"SEGMENT_OUTPUT": "ftp"},
			wantErr:   "invalid server configuration",
		},
		{
			name:      "unknown backend",
			component: ComponentServer,
			env:       map[string]string{"SAM_BACKEND": "onnx"},
			wantErr:   "invalid server configuration",
		},
		{
			name:      "gateway with a bad upstream",
			component: ComponentGateway,
			env:       map[string]string{"INFERENCE_SERVER_URL": "not a url"},
			wantErr:   "invalid gateway configuration",
		},
		{
			name:      "unknown history backend",
			component: ComponentClient,
			env:       map[string]string{"HISTORY_BACKEND": "sqlite"},
			wantErr:   "invalid client configuration",
		},
		{
			name:      "unknown component",
			component: Component("worker"),
			wantErr:   `unknown component "worker"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(tt.component)
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}
