package segment

import (
	"fmt"
	"net/http"

	"CutoutDemo/pkg/response"
)

var (
	ErrModelNotLoaded = response.NewError(http.StatusInternalServerError, "Model not loaded")
	ErrMissingFile    = response.NewError(http.StatusBadRequest, "file is required")
)

func ErrInvalidCoordinate(name, value string) error {
	return response.NewError(http.StatusBadRequest, fmt.Sprintf("%s must be an integer, got %q", name, value))
}
