package webuiRepository

import (
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/context"
)

func TestFileResultStore_Save(t *testing.T) {
	logger := logrus.New()
	logger.SetOutput(io.Discard)

	dir := filepath.Join(t.TempDir(), "results")
	store := NewFileResultStore(dir, "/results", logger)

	first, err := store.Save(context.Background(), []byte("\x89PNG one"))
	require.NoError(t, err)
	second, err := store.Save(context.Background(), []byte("\x89PNG two"))
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.True(t, strings.HasPrefix(first, "/results/"))
	assert.True(t, strings.HasSuffix(first, ".png"))

	data, err := os.ReadFile(filepath.Join(dir, strings.TrimPrefix(first, "/results/")))
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG one"), data)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
