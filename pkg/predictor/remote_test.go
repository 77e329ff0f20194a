package predictor

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func encodedMask(t *testing.T, w, h int, fg image.Rectangle) string {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := fg.Min.Y; y < fg.Max.Y; y++ {
		for x := fg.Min.X; x < fg.Max.X; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xff})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newRuntime(t *testing.T, masks []string, scores []float64, gotPrompt *predictRequest) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/load", func(w http.ResponseWriter, r *http.Request) {
		var req loadRequest
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &req))

		assert.Equal(t, "/repo/cfg.yaml", req.Config)
		assert.Equal(t, "cpu", req.Device)
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/predict", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(10<<20))

		file, header, err := r.FormFile("image")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "image.png", header.Filename)

		_, _, err = image.Decode(file)
		require.NoError(t, err)

		if gotPrompt != nil {
			require.NoError(t, json.Unmarshal([]byte(r.FormValue("prompt")), gotPrompt))
		}

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(predictResponse{Masks: masks, Scores: scores})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestRemotePredictor_Predict(t *testing.T) {
	ctx := context.Background()
	var prompt predictRequest

	srv := newRuntime(t,
		[]string{encodedMask(t, 8, 6, image.Rect(1, 1, 4, 3))},
		[]float64{0.87},
		&prompt,
	)

	p, err := NewRemotePredictor(ctx, ModelConfig{
		RuntimeURL: srv.URL + "/",
		ConfigName: "/repo/cfg.yaml",
		Device:     "cpu",
	}, nil)
	require.NoError(t, err)

	require.NoError(t, p.SetImage(ctx, solid(8, 6, color.NRGBA{R: 1, G: 2, B: 3, A: 255})))

	box := image.Rect(1, 1, 4, 3)
	pred, err := p.Predict(ctx, PredictOptions{Box: &box})
	require.NoError(t, err)

	assert.Equal(t, []int{1, 1, 4, 3}, prompt.Box)
	assert.Empty(t, prompt.PointCoords)
	assert.False(t, prompt.MultimaskOutput)

	mask, score, err := pred.Best()
	require.NoError(t, err)
	assert.Equal(t, 0.87, score)
	assert.Equal(t, image.Rect(1, 1, 4, 3), mask.Extent())
}

func TestRemotePredictor_SendsPoints(t *testing.T) {
	ctx := context.Background()
	var prompt predictRequest

	srv := newRuntime(t, []string{encodedMask(t, 4, 4, image.Rect(0, 0, 4, 4))}, []float64{1}, &prompt)

	p, err := NewRemotePredictor(ctx, ModelConfig{RuntimeURL: srv.URL, ConfigName: "/repo/cfg.yaml", Device: "cpu"}, nil)
	require.NoError(t, err)
	require.NoError(t, p.SetImage(ctx, solid(4, 4, color.NRGBA{A: 255})))

	_, err = p.Predict(ctx, PredictOptions{
		PointCoords: []image.Point{{2, 3}},
		PointLabels: []int{1},
	})
	require.NoError(t, err)

	assert.Equal(t, [][2]int{{2, 3}}, prompt.PointCoords)
	assert.Equal(t, []int{1}, prompt.PointLabels)
	assert.Nil(t, prompt.Box)
}

func TestRemotePredictor_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("image not set", func(t *testing.T) {
		p := &RemotePredictor{}
		_, err := p.Predict(ctx, PredictOptions{PointCoords: []image.Point{{0, 0}}})
		assert.ErrorIs(t, err, ErrImageNotSet)
	})

	t.Run("no masks", func(t *testing.T) {
		srv := newRuntime(t, nil, nil, nil)
		p, err := NewRemotePredictor(ctx, ModelConfig{RuntimeURL: srv.URL, ConfigName: "/repo/cfg.yaml", Device: "cpu"}, nil)
		require.NoError(t, err)
		require.NoError(t, p.SetImage(ctx, solid(4, 4, color.NRGBA{A: 255})))

		_, err = p.Predict(ctx, PredictOptions{PointCoords: []image.Point{{1, 1}}, PointLabels: []int{1}})
		assert.ErrorIs(t, err, ErrNoMasks)
	})

	t.Run("mask size mismatch", func(t *testing.T) {
		srv := newRuntime(t, []string{encodedMask(t, 2, 2, image.Rect(0, 0, 1, 1))}, []float64{1}, nil)
		p, err := NewRemotePredictor(ctx, ModelConfig{RuntimeURL: srv.URL, ConfigName: "/repo/cfg.yaml", Device: "cpu"}, nil)
		require.NoError(t, err)
		require.NoError(t, p.SetImage(ctx, solid(4, 4, color.NRGBA{A: 255})))

		_, err = p.Predict(ctx, PredictOptions{PointCoords: []image.Point{{1, 1}}, PointLabels: []int{1}})
		assert.ErrorContains(t, err, "mask is 2x2, image is 4x4")
	})

	t.Run("load rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "no such config", http.StatusBadRequest)
		}))
		defer srv.Close()

		_, err := NewRemotePredictor(ctx, ModelConfig{RuntimeURL: srv.URL}, nil)
		assert.ErrorContains(t, err, "no such config")
	})
}
