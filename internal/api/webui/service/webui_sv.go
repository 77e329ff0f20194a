package webuiService

import (
	"fmt"
	"net/http"
	"strings"

	"CutoutDemo/internal/api/gateway"
	"CutoutDemo/internal/api/webui"
	"CutoutDemo/internal/entity"
	contextPkg "CutoutDemo/pkg/context"
	"CutoutDemo/pkg/httpclient"
	"CutoutDemo/pkg/response"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *webuiService) Submit(ctx context.Context, image []byte, params entity.PromptParams) (entity.HistoryEntry, error) {
	requestID := contextPkg.GetRequestID(ctx)

	if len(image) == 0 {
		return entity.HistoryEntry{}, webui.ErrNoImage
	}

	resp, err := s.client.Forward(ctx, &httpclient.RequestParam{
		RequestURI: s.cfg.GatewayURL,
		Method:     http.MethodPost,
		Header:     map[string]string{contextPkg.RequestIDHeader: requestID},
		Body:       gateway.NewSegmentRequest(s.utils.EncodeBase64(image), params),
		Timeout:    s.cfg.Timeout,
	})
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Gateway unreachable")
		return entity.HistoryEntry{}, &webui.ConnectionError{Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"status":     resp.StatusCode,
		}).Warn("Gateway returned an error")
		return entity.HistoryEntry{}, &webui.GatewayError{
			Status: resp.StatusCode,
			Body:   strings.TrimSpace(string(resp.Body)),
		}
	}

	imageURL, err := s.resultURL(ctx, resp)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id":   requestID,
			"content_type": resp.ContentType,
			"error":        err.Error(),
		}).Warn("Gateway reply is not usable")
		return entity.HistoryEntry{}, err
	}

	entry := entity.HistoryEntry{
		URL:   imageURL,
		Score: resp.Header.Get(response.ScoreHeader),
	}
	if err := s.repo.Prepend(ctx, entry); err != nil {
		return entity.HistoryEntry{}, fmt.Errorf("save history: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
	}).Info("Cutout added to history")

	return entry, nil
}

// resultURL reads the cutout location from the gateway reply. Bytes mode
// answers with the PNG itself, which is saved and served by this process.
func (s *webuiService) resultURL(ctx context.Context, resp *httpclient.RawResponse) (string, error) {
	if strings.HasPrefix(resp.ContentType, "image/png") {
		url, err := s.results.Save(ctx, resp.Body)
		if err != nil {
			return "", fmt.Errorf("save result: %w", err)
		}
		return url, nil
	}

	var out webui.GatewayResponse
	if err := jsoniter.Unmarshal(resp.Body, &out); err != nil || out.ImageURL == "" {
		return "", webui.ErrMissingImageURL
	}
	return out.ImageURL, nil
}

func (s *webuiService) History(ctx context.Context) ([]entity.HistoryEntry, error) {
	return s.repo.List(ctx)
}

func (s *webuiService) ClearHistory(ctx context.Context) error {
	return s.repo.Clear(ctx)
}
