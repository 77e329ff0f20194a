package segmentService

import (
	"sync"

	"CutoutDemo/internal/api/segment"
	"CutoutDemo/pkg/predictor"
	"CutoutDemo/pkg/s3"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type ISegmentService interface {
	ModelLoaded() bool
	Segment(ctx context.Context, req segment.SegmentRequest) (*segment.SegmentResult, error)
}

type Config struct {
	Output       string
	ObjectPrefix string
}

type segmentService struct {
	log       *logrus.Logger
	predictor predictor.Predictor
	s3Client  s3.ItfS3
	cfg       Config

	// mu serialises SetImage and Predict; the predictor keeps the image
	// between the two calls.
	mu sync.Mutex
}

// New builds the inference service. A nil predictor leaves the service in
// degraded mode where every Segment call fails with ErrModelNotLoaded.
func New(log *logrus.Logger, p predictor.Predictor, s3Client s3.ItfS3, cfg Config) ISegmentService {
	if cfg.Output == "" {
		cfg.Output = segment.OutputBytes
	}
	if cfg.ObjectPrefix == "" {
		cfg.ObjectPrefix = "cutouts"
	}

	return &segmentService{
		log:       log,
		predictor: p,
		s3Client:  s3Client,
		cfg:       cfg,
	}
}

func (s *segmentService) ModelLoaded() bool {
	return s.predictor != nil
}
