package webuiRepository

import (
	"fmt"
	"os"
	"path"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// ResultStore keeps cutouts the gateway returned as raw bytes and hands back
// the URL the client serves them under.
type ResultStore interface {
	Save(ctx context.Context, png []byte) (string, error)
}

type fileResultStore struct {
	dir       string
	urlPrefix string
	log       *logrus.Logger
}

// NewFileResultStore writes into dir; the files must be served at urlPrefix.
func NewFileResultStore(dir, urlPrefix string, log *logrus.Logger) ResultStore {
	return &fileResultStore{dir: dir, urlPrefix: urlPrefix, log: log}
}

func (s *fileResultStore) Save(_ context.Context, png []byte) (string, error) {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("create results dir: %w", err)
	}

	name := uuid.NewString() + ".png"

	tmp, err := os.CreateTemp(s.dir, ".result-*.png")
	if err != nil {
		return "", fmt.Errorf("create temp result file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(png); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("write result file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("close result file: %w", err)
	}
	if err := os.Rename(tmpName, filepath.Join(s.dir, name)); err != nil {
		_ = os.Remove(tmpName)
		return "", fmt.Errorf("store result file: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"dir":   s.dir,
		"file":  name,
		"bytes": len(png),
	}).Debug("Stored cutout")

	return path.Join(s.urlPrefix, name), nil
}
