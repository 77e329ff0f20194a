package gateway

import (
	"net/http"

	"CutoutDemo/pkg/response"
)

var ErrNoImage = response.NewError(http.StatusBadRequest, "No image provided")
