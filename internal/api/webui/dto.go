package webui

import (
	"strconv"

	"CutoutDemo/internal/entity"
)

// SubmitForm holds the optional selection sent with the upload. The page
// fills the box fields from the rectangle drawn on the canvas.
type SubmitForm struct {
	PointX string `form:"point_x" validate:"omitempty,number"`
	PointY string `form:"point_y" validate:"omitempty,number"`
	BoxX1  string `form:"box_x1" validate:"omitempty,number"`
	BoxY1  string `form:"box_y1" validate:"omitempty,number"`
	BoxX2  string `form:"box_x2" validate:"omitempty,number"`
	BoxY2  string `form:"box_y2" validate:"omitempty,number"`
}

// PromptParams converts the validated form; empty fields stay nil.
func (f SubmitForm) PromptParams() entity.PromptParams {
	return entity.PromptParams{
		PointX: atoi(f.PointX),
		PointY: atoi(f.PointY),
		BoxX1:  atoi(f.BoxX1),
		BoxY1:  atoi(f.BoxY1),
		BoxX2:  atoi(f.BoxX2),
		BoxY2:  atoi(f.BoxY2),
	}
}

func atoi(s string) *int {
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &v
}

// ResultsRoute serves cutouts the client stored itself.
const ResultsRoute = "/results"

type GatewayResponse struct {
	ImageURL string `json:"image_url"`
}

// Banner is an error shown above the form.
type Banner struct {
	Title  string
	Detail string
}

type PageData struct {
	Latest      string
	LatestScore string
	History     []entity.HistoryEntry
	Banner      *Banner
}
