package gatewayService

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"

	"CutoutDemo/internal/api/gateway"
	contextPkg "CutoutDemo/pkg/context"
	"CutoutDemo/pkg/httpclient"
	"CutoutDemo/pkg/response"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// Forward re-packages the base64 image as a multipart "file" part and relays
// it to the inference server. Any upstream status is returned as is; only
// transport failures come back as errors.
func (s *gatewayService) Forward(ctx context.Context, req gateway.SegmentRequest) (*httpclient.RawResponse, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if req.Image == "" {
		return nil, gateway.ErrNoImage
	}

	image, err := s.utils.DecodeBase64(req.Image)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Warn("Failed to decode image payload")
		return nil, response.Wrapf(http.StatusInternalServerError, err, "decode image")
	}

	body, contentType, err := encodeImageForm(image)
	if err != nil {
		return nil, err
	}

	query := promptQuery(req)

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"bytes":      len(image),
		"query":      query.Encode(),
	}).Info("Forwarding image to inference server")

	resp, err := s.client.Forward(ctx, &httpclient.RequestParam{
		RequestURI: s.inferenceURL,
		Method:     http.MethodPost,
		Header: map[string]string{
			"Content-Type":             contentType,
			contextPkg.RequestIDHeader: requestID,
		},
		Query: query,
		Body:  body,
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Inference server call failed")
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"status":     resp.StatusCode,
	}).Info("Inference server responded")

	return resp, nil
}

func encodeImageForm(image []byte) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="image.png"`)
	header.Set("Content-Type", "image/png")

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

// promptQuery keeps every coordinate the caller supplied, as sent.
func promptQuery(req gateway.SegmentRequest) url.Values {
	query := url.Values{}

	set := func(name string, v gateway.Coordinate) {
		if v != "" {
			query.Set(name, string(v))
		}
	}

	set("box_x1", req.BoxX1)
	set("box_y1", req.BoxY1)
	set("box_x2", req.BoxX2)
	set("box_y2", req.BoxY2)
	set("point_x", req.PointX)
	set("point_y", req.PointY)

	return query
}
