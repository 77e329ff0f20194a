package webuiService

import (
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"CutoutDemo/internal/api/gateway"
	"CutoutDemo/internal/api/webui"
	webuiRepository "CutoutDemo/internal/api/webui/repository"
	"CutoutDemo/internal/entity"
	"CutoutDemo/pkg/httpclient"
	"CutoutDemo/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

func newTestService(t *testing.T, gatewayURL string) (IWebUIService, webuiRepository.Repository) {
	svc, repo, _ := newTestServiceWithResults(t, gatewayURL)
	return svc, repo
}

func newTestServiceWithResults(t *testing.T, gatewayURL string) (IWebUIService, webuiRepository.Repository, string) {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := t.TempDir()
	resultsDir := filepath.Join(dir, "results")
	repo := webuiRepository.NewFileRepository(filepath.Join(dir, "history.json"), logger)
	results := webuiRepository.NewFileResultStore(resultsDir, webui.ResultsRoute, logger)
	svc := New(logger, httpclient.NewHTTPClient(), repo, results, utils.New(), Config{
		GatewayURL: gatewayURL,
		Timeout:    5 * time.Second,
	})
	return svc, repo, resultsDir
}

func intPtr(v int) *int { return &v }

func TestSubmit_RecordsHistoryNewestFirst(t *testing.T) {
	var got []gateway.SegmentRequest
	n := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req gateway.SegmentRequest
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, jsoniter.Unmarshal(body, &req))
		got = append(got, req)

		n++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"image_url":"https://bucket.example/` + string(rune('a'+n-1)) + `.png"}`))
	}))
	defer srv.Close()

	svc, _ := newTestService(t, srv.URL)
	ctx := context.Background()

	params := entity.PromptParams{BoxX1: intPtr(1), BoxY1: intPtr(2), BoxX2: intPtr(3), BoxY2: intPtr(4)}
	for i := 0; i < 3; i++ {
		entry, err := svc.Submit(ctx, []byte("img"), params)
		require.NoError(t, err)
		assert.NotEmpty(t, entry.URL)
	}

	history, err := svc.History(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.HistoryEntry{
		{URL: "https://bucket.example/c.png"},
		{URL: "https://bucket.example/b.png"},
		{URL: "https://bucket.example/a.png"},
	}, history)

	require.Len(t, got, 3)
	assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("img")), got[0].Image)
	assert.Equal(t, gateway.Coordinate("3"), got[0].BoxX2)
	assert.Empty(t, got[0].PointX)

	require.NoError(t, svc.ClearHistory(ctx))
	history, err = svc.History(ctx)
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestSubmit_Failures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
		check   func(t *testing.T, err error)
	}{
		{
			name: "gateway error status",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"detail":"Model not loaded"}`))
			},
			check: func(t *testing.T, err error) {
				var gwErr *webui.GatewayError
				require.ErrorAs(t, err, &gwErr)
				assert.Equal(t, http.StatusInternalServerError, gwErr.Status)
				assert.Equal(t, `{"detail":"Model not loaded"}`, gwErr.Body)
				assert.EqualError(t, err, "Server Error: 500")
			},
		},
		{
			name: "json without image_url",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				_, _ = w.Write([]byte(`{}`))
			},
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, webui.ErrMissingImageURL)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(tt.handler)
			defer srv.Close()

			svc, repo := newTestService(t, srv.URL)

			_, err := svc.Submit(context.Background(), []byte("img"), entity.PromptParams{})
			tt.check(t, err)

			history, err := repo.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, history)
		})
	}
}

func TestSubmit_RawPNGIsStoredAndServedLocally(t *testing.T) {
	cutout := []byte("\x89PNG cutout bytes")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("X-Mask-Score", "0.8765")
		_, _ = w.Write(cutout)
	}))
	defer srv.Close()

	svc, repo, resultsDir := newTestServiceWithResults(t, srv.URL)
	ctx := context.Background()

	entry, err := svc.Submit(ctx, []byte("img"), entity.PromptParams{})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(entry.URL, webui.ResultsRoute+"/"))
	assert.True(t, strings.HasSuffix(entry.URL, ".png"))
	assert.Equal(t, "0.8765", entry.Score)

	stored, err := os.ReadFile(filepath.Join(resultsDir, strings.TrimPrefix(entry.URL, webui.ResultsRoute+"/")))
	require.NoError(t, err)
	assert.Equal(t, cutout, stored)

	history, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, []entity.HistoryEntry{entry}, history)
}

func TestSubmit_GatewayUnreachable(t *testing.T) {
	svc, _ := newTestService(t, "http://127.0.0.1:1/segment")

	_, err := svc.Submit(context.Background(), []byte("img"), entity.PromptParams{})

	var connErr *webui.ConnectionError
	require.ErrorAs(t, err, &connErr)
	assert.Contains(t, err.Error(), "Connection Failed: ")
}

func TestSubmit_EmptyImage(t *testing.T) {
	svc, _ := newTestService(t, "http://127.0.0.1:1/segment")

	_, err := svc.Submit(context.Background(), nil, entity.PromptParams{})
	assert.ErrorIs(t, err, webui.ErrNoImage)
}
