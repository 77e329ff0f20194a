package segmentService

import (
	"fmt"
	"image"
	"net/http"

	"CutoutDemo/internal/api/segment"
	"CutoutDemo/internal/entity"
	contextPkg "CutoutDemo/pkg/context"
	"CutoutDemo/pkg/predictor"
	"CutoutDemo/pkg/response"
	"CutoutDemo/pkg/s3"
	"CutoutDemo/pkg/utils"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *segmentService) Segment(ctx context.Context, req segment.SegmentRequest) (*segment.SegmentResult, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if s.predictor == nil {
		return nil, segment.ErrModelNotLoaded
	}

	src, format, err := utils.DecodeImage(req.Image)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to decode uploaded image")
		return nil, response.Wrap(http.StatusInternalServerError, err)
	}

	width, height := src.Bounds().Dx(), src.Bounds().Dy()
	prompt := entity.BuildPrompt(req.Params, width, height)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"format":     format,
		"width":      width,
		"height":     height,
		"prompt":     prompt.String(),
	}).Info("Running segmentation")

	mask, score, err := s.predict(ctx, utils.OpaqueRGB(src), prompt)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Segmentation failed")
		return nil, response.Wrap(http.StatusInternalServerError, err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"score":      score,
		"mask_area":  mask.Area(),
	}).Debug("Mask predicted")

	cutout, err := entity.ComposeCutout(src, mask)
	if err != nil {
		return nil, response.Wrap(http.StatusInternalServerError, err)
	}

	encoded, err := utils.EncodePNG(cutout)
	if err != nil {
		return nil, response.Wrap(http.StatusInternalServerError, err)
	}

	result := &segment.SegmentResult{Score: score, Prompt: prompt}

	if s.cfg.Output != segment.OutputS3 {
		result.PNG = encoded
		return result, nil
	}

	if s.s3Client == nil {
		return nil, response.NewError(http.StatusInternalServerError, "object storage is not configured")
	}

	key := s3.NewObjectKey(s.cfg.ObjectPrefix, "png")
	url, err := s.s3Client.UploadObject(ctx, key, encoded, "image/png")
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"key":        key,
			"error":      err.Error(),
		}).Error("Failed to upload cutout")
		return nil, response.Wrap(http.StatusInternalServerError, err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"key":        key,
	}).Info("Cutout uploaded")

	result.ImageURL = url
	return result, nil
}

// predict runs a single-mask prediction for prompt and returns the best mask.
func (s *segmentService) predict(ctx context.Context, img *image.NRGBA, prompt entity.Prompt) (*entity.Mask, float64, error) {
	opts := predictor.PredictOptions{MultimaskOutput: false}

	switch prompt.Kind {
	case entity.PromptBox:
		box := prompt.Box
		opts.Box = &box
	default:
		opts.PointCoords = []image.Point{prompt.Point}
		opts.PointLabels = []int{prompt.Label}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.predictor.SetImage(ctx, img); err != nil {
		return nil, 0, fmt.Errorf("set image: %w", err)
	}

	prediction, err := s.predictor.Predict(ctx, opts)
	if err != nil {
		return nil, 0, fmt.Errorf("predict: %w", err)
	}

	return prediction.Best()
}
