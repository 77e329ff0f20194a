package gateway

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"CutoutDemo/internal/entity"

	jsoniter "github.com/json-iterator/go"
)

// SegmentRequest is the JSON body accepted by the gateway and sent by the
// web client. Image holds base64 encoded bytes.
type SegmentRequest struct {
	Image  string     `json:"image" validate:"required"`
	PointX Coordinate `json:"point_x,omitempty"`
	PointY Coordinate `json:"point_y,omitempty"`
	BoxX1  Coordinate `json:"box_x1,omitempty"`
	BoxY1  Coordinate `json:"box_y1,omitempty"`
	BoxX2  Coordinate `json:"box_x2,omitempty"`
	BoxY2  Coordinate `json:"box_y2,omitempty"`
}

func NewSegmentRequest(image string, params entity.PromptParams) SegmentRequest {
	return SegmentRequest{
		Image:  image,
		PointX: CoordinateOf(params.PointX),
		PointY: CoordinateOf(params.PointY),
		BoxX1:  CoordinateOf(params.BoxX1),
		BoxY1:  CoordinateOf(params.BoxY1),
		BoxX2:  CoordinateOf(params.BoxX2),
		BoxY2:  CoordinateOf(params.BoxY2),
	}
}

// Coordinate keeps the literal a caller sent for a prompt value, number or
// string, so the inference server gets it untouched and judges it there.
// Empty means absent.
type Coordinate string

var jsonNumber = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

func CoordinateOf(v *int) Coordinate {
	if v == nil {
		return ""
	}
	return Coordinate(strconv.Itoa(*v))
}

func (c *Coordinate) UnmarshalJSON(data []byte) error {
	raw := strings.TrimSpace(string(data))

	switch {
	case raw == "null":
		*c = ""
	case strings.HasPrefix(raw, `"`):
		var s string
		if err := jsoniter.Unmarshal(data, &s); err != nil {
			return err
		}
		*c = Coordinate(strings.TrimSpace(s))
	case strings.HasPrefix(raw, "{"), strings.HasPrefix(raw, "["):
		return fmt.Errorf("coordinate must be a number, got %s", raw)
	default:
		*c = Coordinate(raw)
	}

	return nil
}

func (c Coordinate) MarshalJSON() ([]byte, error) {
	if jsonNumber.MatchString(string(c)) {
		return []byte(c), nil
	}
	return jsoniter.Marshal(string(c))
}

type ErrorResponse struct {
	Error string `json:"error"`
}
