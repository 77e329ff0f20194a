package predictor

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"mime/multipart"
	"net/http"
	"strings"

	"CutoutDemo/internal/entity"
	"CutoutDemo/pkg/httpclient"
	"CutoutDemo/pkg/log"
	"CutoutDemo/pkg/utils"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RemotePredictor talks to a model runtime process that holds the weights.
// The runtime is loaded once by NewRemotePredictor; SetImage only keeps the
// encoded image locally and every Predict sends it along with the prompt.
type RemotePredictor struct {
	baseURL string
	cli     httpclient.IClient

	image  []byte
	width  int
	height int
}

type loadRequest struct {
	Config     string `json:"config"`
	Checkpoint string `json:"checkpoint"`
	Device     string `json:"device"`
}

type predictRequest struct {
	PointCoords     [][2]int `json:"point_coords,omitempty"`
	PointLabels     []int    `json:"point_labels,omitempty"`
	Box             []int    `json:"box,omitempty"`
	MultimaskOutput bool     `json:"multimask_output"`
}

type predictResponse struct {
	Masks  []string    `json:"masks"`
	Scores []float64   `json:"scores"`
	Logits [][]float32 `json:"logits,omitempty"`
}

// NewRemotePredictor asks the runtime at cfg.RuntimeURL to build the model.
// A nil client gets a default one using cfg.Timeout.
func NewRemotePredictor(ctx context.Context, cfg ModelConfig, cli httpclient.IClient) (*RemotePredictor, error) {
	if cli == nil {
		var opts []httpclient.Option
		if cfg.Timeout > 0 {
			opts = append(opts, httpclient.WithTimeout(cfg.Timeout))
		}
		cli = httpclient.NewHTTPClient(opts...)
	}

	p := &RemotePredictor{
		baseURL: strings.TrimRight(cfg.RuntimeURL, "/"),
		cli:     cli,
	}

	err := cli.DoHTTPRequest(ctx, &httpclient.RequestParam{
		RequestURI: p.baseURL + "/load",
		Method:     http.MethodPost,
		Body: loadRequest{
			Config:     cfg.ConfigName,
			Checkpoint: cfg.CheckpointPath,
			Device:     cfg.Device,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("load model on runtime: %w", err)
	}

	return p, nil
}

func (p *RemotePredictor) SetImage(_ context.Context, img *image.NRGBA) error {
	encoded, err := utils.EncodePNG(img)
	if err != nil {
		return err
	}

	p.image = encoded
	p.width = img.Bounds().Dx()
	p.height = img.Bounds().Dy()
	return nil
}

func (p *RemotePredictor) Predict(ctx context.Context, opts PredictOptions) (*Prediction, error) {
	if p.image == nil {
		return nil, ErrImageNotSet
	}
	if opts.Box == nil && len(opts.PointCoords) == 0 {
		return nil, ErrEmptyPrompt
	}

	body, contentType, err := p.encodePredictForm(opts)
	if err != nil {
		return nil, err
	}

	var resp predictResponse
	err = p.cli.DoHTTPRequest(ctx, &httpclient.RequestParam{
		RequestURI: p.baseURL + "/predict",
		Method:     http.MethodPost,
		Header:     map[string]string{"Content-Type": contentType},
		Body:       body,
		Response:   &resp,
	})
	if err != nil {
		return nil, fmt.Errorf("predict on runtime: %w", err)
	}

	if len(resp.Masks) == 0 {
		return nil, ErrNoMasks
	}

	prediction := &Prediction{Scores: resp.Scores, Logits: resp.Logits}
	for i, encoded := range resp.Masks {
		mask, err := p.decodeMask(encoded)
		if err != nil {
			return nil, fmt.Errorf("mask %d: %w", i, err)
		}
		prediction.Masks = append(prediction.Masks, mask)
	}

	log.WithRequestID(ctx).WithFields(log.Fields{
		"masks":  len(prediction.Masks),
		"scores": prediction.Scores,
	}).Debug("Runtime prediction done")

	return prediction, nil
}

func (p *RemotePredictor) encodePredictForm(opts PredictOptions) (*bytes.Buffer, string, error) {
	req := predictRequest{
		PointLabels:     opts.PointLabels,
		MultimaskOutput: opts.MultimaskOutput,
	}
	for _, pt := range opts.PointCoords {
		req.PointCoords = append(req.PointCoords, [2]int{pt.X, pt.Y})
	}
	if opts.Box != nil {
		b := opts.Box.Canon()
		req.Box = []int{b.Min.X, b.Min.Y, b.Max.X, b.Max.Y}
	}

	prompt, err := json.Marshal(req)
	if err != nil {
		return nil, "", fmt.Errorf("marshal prompt: %w", err)
	}

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	part, err := writer.CreateFormFile("image", "image.png")
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(p.image); err != nil {
		return nil, "", fmt.Errorf("write form file: %w", err)
	}
	if err := writer.WriteField("prompt", string(prompt)); err != nil {
		return nil, "", fmt.Errorf("write prompt field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close multipart writer: %w", err)
	}

	return body, writer.FormDataContentType(), nil
}

func (p *RemotePredictor) decodeMask(encoded string) (*entity.Mask, error) {
	raw, err := utils.New().DecodeBase64(encoded)
	if err != nil {
		return nil, fmt.Errorf("decode base64: %w", err)
	}

	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode mask image: %w", err)
	}

	mask := entity.MaskFromAlpha(img)
	if mask.Width != p.width || mask.Height != p.height {
		return nil, fmt.Errorf("mask is %dx%d, image is %dx%d", mask.Width, mask.Height, p.width, p.height)
	}
	return mask, nil
}
