package webuiRepository

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"CutoutDemo/internal/entity"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// fileRepository keeps the history as a JSON array in a single file. Writes
// go through a temp file and a rename, so a reader never sees a partial
// array. The mutex only covers this process.
type fileRepository struct {
	path string
	log  *logrus.Logger
	mu   sync.Mutex
}

func NewFileRepository(path string, log *logrus.Logger) Repository {
	return &fileRepository{path: path, log: log}
}

func (r *fileRepository) List(_ context.Context) ([]entity.HistoryEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	return r.read()
}

func (r *fileRepository) Prepend(_ context.Context, entry entity.HistoryEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	entries, err := r.read()
	if err != nil {
		return err
	}

	entries = append([]entity.HistoryEntry{entry}, entries...)
	if err := r.write(entries); err != nil {
		r.log.WithFields(logrus.Fields{
			"path":  r.path,
			"error": err.Error(),
		}).Error("Failed to write history file")
		return err
	}

	return nil
}

func (r *fileRepository) Clear(_ context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove history file: %w", err)
	}

	r.log.WithField("path", r.path).Info("History cleared")
	return nil
}

func (r *fileRepository) read() ([]entity.HistoryEntry, error) {
	data, err := os.ReadFile(r.path)
	if errors.Is(err, os.ErrNotExist) {
		return []entity.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read history file: %w", err)
	}

	if len(data) == 0 {
		return []entity.HistoryEntry{}, nil
	}

	var entries []entity.HistoryEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse history file: %w", err)
	}

	return entries, nil
}

func (r *fileRepository) write(entries []entity.HistoryEntry) error {
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode history: %w", err)
	}

	dir := filepath.Dir(r.path)
	tmp, err := os.CreateTemp(dir, ".history-*.json")
	if err != nil {
		return fmt.Errorf("create temp history file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpName)
		return fmt.Errorf("write temp history file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("close temp history file: %w", err)
	}

	if err := os.Rename(tmpName, r.path); err != nil {
		_ = os.Remove(tmpName)
		return fmt.Errorf("replace history file: %w", err)
	}

	return nil
}
