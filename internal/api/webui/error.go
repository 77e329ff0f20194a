package webui

import (
	"fmt"
	"net/http"

	"CutoutDemo/pkg/response"
)

var (
	ErrNoImage         = response.NewError(http.StatusBadRequest, "Please upload an image first")
	ErrMissingImageURL = response.NewError(http.StatusBadGateway, "gateway response has no image_url")
)

// GatewayError is a non-2xx reply from the gateway.
type GatewayError struct {
	Status int
	Body   string
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("Server Error: %d", e.Status)
}

// ConnectionError wraps a failure to reach the gateway at all.
type ConnectionError struct {
	Err error
}

func (e *ConnectionError) Error() string {
	return "Connection Failed: " + e.Err.Error()
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}
