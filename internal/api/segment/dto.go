package segment

import "CutoutDemo/internal/entity"

const (
	OutputBytes = "bytes"
	OutputS3    = "s3"
)

type SegmentRequest struct {
	Image  []byte
	Params entity.PromptParams
}

// SegmentResult holds either the encoded cutout or the URL it was stored
// under, never both.
type SegmentResult struct {
	PNG      []byte
	ImageURL string
	Score    float64
	Prompt   entity.Prompt
}

type ImageURLResponse struct {
	ImageURL string `json:"image_url"`
}

type HealthResponse struct {
	Status      string `json:"status"`
	ModelLoaded bool   `json:"model_loaded"`
}
