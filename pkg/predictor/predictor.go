package predictor

import (
	"context"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"time"

	"CutoutDemo/internal/entity"
)

type Backend string

const (
	BackendLocal  Backend = "local"
	BackendRemote Backend = "remote"
)

const DefaultDevice = "cpu"

var (
	ErrCheckpointNotFound = errors.New("checkpoint not found")
	ErrUnknownBackend     = errors.New("unknown predictor backend")
	ErrImageNotSet        = errors.New("an image must be set with SetImage before mask prediction")
	ErrEmptyPrompt        = errors.New("a point or a box is required")
	ErrPromptOutOfBounds  = errors.New("prompt lies outside the image")
	ErrNoMasks            = errors.New("model returned no masks")
)

// Predictor is a prompt-driven segmentation model. Implementations keep the
// image passed to SetImage between calls and are not safe for concurrent use.
type Predictor interface {
	SetImage(ctx context.Context, img *image.NRGBA) error
	Predict(ctx context.Context, opts PredictOptions) (*Prediction, error)
}

type PredictOptions struct {
	PointCoords     []image.Point
	PointLabels     []int
	Box             *image.Rectangle
	MultimaskOutput bool
}

type Prediction struct {
	Masks  []*entity.Mask
	Scores []float64
	// Logits holds the low resolution mask logits when the backend exposes them.
	Logits [][]float32
}

// Best returns the mask with the highest score.
func (p *Prediction) Best() (*entity.Mask, float64, error) {
	if p == nil || len(p.Masks) == 0 {
		return nil, 0, ErrNoMasks
	}

	best := 0
	for i := range p.Masks {
		if i < len(p.Scores) && p.Scores[i] > p.Scores[best] {
			best = i
		}
	}

	var score float64
	if best < len(p.Scores) {
		score = p.Scores[best]
	}
	return p.Masks[best], score, nil
}

// ModelConfig describes where the model comes from. ConfigName is resolved
// against RepoDir, so nothing depends on the process working directory.
type ModelConfig struct {
	Backend        Backend       `validate:"required,oneof=local remote"`
	RepoDir        string        `validate:"required_if=Backend remote"`
	ConfigName     string        `validate:"required_if=Backend remote"`
	CheckpointPath string        `validate:"required_if=Backend remote"`
	Device         string        `validate:"omitempty,oneof=cpu cuda mps"`
	RuntimeURL     string        `validate:"required_if=Backend remote"`
	Timeout        time.Duration `validate:"gte=0"`
}

// Resolve returns a copy of c with absolute paths and the device defaulted.
func (c ModelConfig) Resolve() (ModelConfig, error) {
	if c.Device == "" {
		c.Device = DefaultDevice
	}

	if c.RepoDir != "" {
		dir, err := filepath.Abs(c.RepoDir)
		if err != nil {
			return c, fmt.Errorf("resolve model repository: %w", err)
		}
		c.RepoDir = dir
	}

	if c.ConfigName != "" && !filepath.IsAbs(c.ConfigName) {
		c.ConfigName = filepath.Join(c.RepoDir, c.ConfigName)
	}

	if c.CheckpointPath != "" {
		ckpt, err := filepath.Abs(c.CheckpointPath)
		if err != nil {
			return c, fmt.Errorf("resolve checkpoint: %w", err)
		}
		c.CheckpointPath = ckpt
	}

	return c, nil
}

// Load builds the predictor described by cfg. It is meant to run once at
// startup.
func Load(ctx context.Context, cfg ModelConfig) (Predictor, error) {
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}

	switch resolved.Backend {
	case BackendLocal:
		return NewLocalPredictor(), nil
	case BackendRemote:
		if _, err := os.Stat(resolved.CheckpointPath); err != nil {
			return nil, fmt.Errorf("%w at %s", ErrCheckpointNotFound, resolved.CheckpointPath)
		}
		p, err := NewRemotePredictor(ctx, resolved, nil)
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, resolved.Backend)
	}
}
