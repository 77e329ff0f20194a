package entity

import (
	"fmt"
	"image"
)

type PromptKind string

const (
	PromptBox    PromptKind = "box"
	PromptPoint  PromptKind = "point"
	PromptCenter PromptKind = "center"
)

// PositiveLabel marks a prompt point as belonging to the foreground.
const PositiveLabel = 1

// PromptParams are the optional coordinates a caller may send along with an
// image. A nil field means the value was not supplied.
type PromptParams struct {
	PointX *int `json:"point_x,omitempty" query:"point_x" form:"point_x"`
	PointY *int `json:"point_y,omitempty" query:"point_y" form:"point_y"`
	BoxX1  *int `json:"box_x1,omitempty" query:"box_x1" form:"box_x1"`
	BoxY1  *int `json:"box_y1,omitempty" query:"box_y1" form:"box_y1"`
	BoxX2  *int `json:"box_x2,omitempty" query:"box_x2" form:"box_x2"`
	BoxY2  *int `json:"box_y2,omitempty" query:"box_y2" form:"box_y2"`
}

func (p PromptParams) HasBox() bool {
	return p.BoxX1 != nil && p.BoxY1 != nil && p.BoxX2 != nil && p.BoxY2 != nil
}

func (p PromptParams) HasPoint() bool {
	return p.PointX != nil && p.PointY != nil
}

// Prompt is the region of interest handed to the model.
type Prompt struct {
	Kind  PromptKind
	Point image.Point
	Box   image.Rectangle
	Label int
}

// BuildPrompt applies the selection priority: a complete box, then a complete
// point, then the centre of a width x height image.
func BuildPrompt(params PromptParams, width, height int) Prompt {
	if params.HasBox() {
		return Prompt{
			Kind:  PromptBox,
			Box:   image.Rect(*params.BoxX1, *params.BoxY1, *params.BoxX2, *params.BoxY2),
			Label: PositiveLabel,
		}
	}

	if params.HasPoint() {
		return Prompt{
			Kind:  PromptPoint,
			Point: image.Pt(*params.PointX, *params.PointY),
			Label: PositiveLabel,
		}
	}

	return Prompt{
		Kind:  PromptCenter,
		Point: image.Pt(width/2, height/2),
		Label: PositiveLabel,
	}
}

func (p Prompt) String() string {
	switch p.Kind {
	case PromptBox:
		return fmt.Sprintf("box(%d,%d,%d,%d)", p.Box.Min.X, p.Box.Min.Y, p.Box.Max.X, p.Box.Max.Y)
	default:
		return fmt.Sprintf("%s(%d,%d)", p.Kind, p.Point.X, p.Point.Y)
	}
}
