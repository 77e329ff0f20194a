package segmentHandler

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strconv"
	"testing"

	"CutoutDemo/internal/api/segment"
	segmentService "CutoutDemo/internal/api/segment/service"
	"CutoutDemo/internal/middleware"
	"CutoutDemo/pkg/handlerUtil"
	"CutoutDemo/pkg/predictor"
	"CutoutDemo/pkg/response"
	"CutoutDemo/pkg/utils"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestApp(p predictor.Predictor) *fiber.App {
	return newTestAppWithUtils(p, utils.New())
}

func newTestAppWithUtils(p predictor.Predictor, u utils.IUtils) *fiber.App {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	mw := middleware.New(logger, middleware.Config{Rate: 1000, Burst: 1000})
	svc := segmentService.New(logger, p, nil, segmentService.Config{Output: segment.OutputBytes})

	app := fiber.New(fiber.Config{JSONEncoder: jsoniter.Marshal, JSONDecoder: jsoniter.Unmarshal})
	app.Use(mw.NewRequestIDMiddleware())
	New(logger, validator.New(), mw, svc, u).Start(app)
	return app
}

func whitePNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func segmentRequest(t *testing.T, file []byte, fields map[string]string, query string) *http.Request {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	if file != nil {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="file"; filename="image.png"`)
		header.Set("Content-Type", "image/png")
		part, err := writer.CreatePart(header)
		require.NoError(t, err)
		_, err = part.Write(file)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	target := "/segment"
	if query != "" {
		target += "?" + query
	}

	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeDetail(t *testing.T, resp *http.Response) string {
	t.Helper()

	var out map[string]string
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, jsoniter.Unmarshal(body, &out))
	return out[handlerUtil.DetailKey]
}

func TestSegment_WhiteImageNoCoordinates(t *testing.T) {
	app := newTestApp(predictor.NewLocalPredictor())

	resp, err := app.Test(segmentRequest(t, whitePNG(t, 100, 100), nil, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	score, err := strconv.ParseFloat(resp.Header.Get(response.ScoreHeader), 64)
	require.NoError(t, err)
	assert.Greater(t, score, 0.0)

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)

	cutout := utils.ToNRGBA(img)
	assert.Equal(t, image.Rect(0, 0, 100, 100), cutout.Bounds())
	assert.Equal(t, uint8(0xff), cutout.NRGBAAt(50, 50).A)
}

func TestSegment_BoxKeepsSourceColours(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 60, 60))
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			src.SetNRGBA(x, y, color.NRGBA{R: 200, G: 200, B: uint8(180 + x%3), A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	app := newTestApp(predictor.NewLocalPredictor())

	resp, err := app.Test(segmentRequest(t, buf.Bytes(), map[string]string{
		"box_x1": "10", "box_y1": "10",
	}, "box_x2=40&box_y2=30"), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	cutout := utils.ToNRGBA(img)

	box := image.Rect(10, 10, 40, 30)
	opaque := 0
	for y := 0; y < 60; y++ {
		for x := 0; x < 60; x++ {
			px := cutout.NRGBAAt(x, y)
			if px.A == 0 {
				continue
			}
			opaque++
			assert.True(t, image.Pt(x, y).In(box), "opaque pixel %d,%d outside box", x, y)
			assert.Equal(t, src.NRGBAAt(x, y).R, px.R)
			assert.Equal(t, src.NRGBAAt(x, y).G, px.G)
			assert.Equal(t, src.NRGBAAt(x, y).B, px.B)
		}
	}
	assert.Greater(t, opaque, 0)
}

func TestSegment_PalettedTransparencyKeepsColour(t *testing.T) {
	src := image.NewPaletted(image.Rect(0, 0, 20, 20), color.Palette{
		color.NRGBA{R: 10, G: 200, B: 30, A: 0},
	})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, src))

	app := newTestApp(predictor.NewLocalPredictor())

	resp, err := app.Test(segmentRequest(t, buf.Bytes(), nil, ""), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, color.NRGBA{R: 10, G: 200, B: 30, A: 255}, utils.ToNRGBA(img).NRGBAAt(10, 10))
}

func TestSegment_FileTooLarge(t *testing.T) {
	app := newTestAppWithUtils(predictor.NewLocalPredictor(), utils.NewWithLimit(16))

	resp, err := app.Test(segmentRequest(t, whitePNG(t, 10, 10), nil, ""), -1)
	require.NoError(t, err)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, utils.ErrFileTooLarge.Error(), decodeDetail(t, resp))
}

func TestSegment_Errors(t *testing.T) {
	tests := []struct {
		name       string
		predictor  predictor.Predictor
		req        func(t *testing.T) *http.Request
		wantStatus int
		wantDetail string
	}{
		{
			name:      "model not loaded",
			predictor: nil,
			req: func(t *testing.T) *http.Request {
				return segmentRequest(t, whitePNG(t, 10, 10), nil, "")
			},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "Model not loaded",
		},
		{
			name:      "missing file",
			predictor: predictor.NewLocalPredictor(),
			req: func(t *testing.T) *http.Request {
				return segmentRequest(t, nil, map[string]string{"point_x": "1"}, "")
			},
			wantStatus: http.StatusBadRequest,
			wantDetail: "file is required",
		},
		{
			name:      "non integer coordinate",
			predictor: predictor.NewLocalPredictor(),
			req: func(t *testing.T) *http.Request {
				return segmentRequest(t, whitePNG(t, 10, 10), nil, "point_x=abc&point_y=2")
			},
			wantStatus: http.StatusBadRequest,
			wantDetail: `point_x must be an integer, got "abc"`,
		},
		{
			name:      "malformed image",
			predictor: predictor.NewLocalPredictor(),
			req: func(t *testing.T) *http.Request {
				return segmentRequest(t, []byte("definitely not a png"), nil, "")
			},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "decode image: image: unknown format",
		},
		{
			name:      "box outside the image",
			predictor: predictor.NewLocalPredictor(),
			req: func(t *testing.T) *http.Request {
				return segmentRequest(t, whitePNG(t, 10, 10), nil, "box_x1=50&box_y1=50&box_x2=60&box_y2=60")
			},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "predict: " + predictor.ErrPromptOutOfBounds.Error(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newTestApp(tt.predictor)

			resp, err := app.Test(tt.req(t), -1)
			require.NoError(t, err)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantDetail, decodeDetail(t, resp))
		})
	}
}

func TestHealth(t *testing.T) {
	for _, loaded := range []bool{true, false} {
		var p predictor.Predictor
		if loaded {
			p = predictor.NewLocalPredictor()
		}
		app := newTestApp(p)

		resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/health", nil))
		require.NoError(t, err)

		var out segment.HealthResponse
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.NoError(t, jsoniter.Unmarshal(body, &out))
		assert.Equal(t, loaded, out.ModelLoaded)
	}
}
