package utils

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"mime/multipart"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

var (
	ErrNoFile          = errors.New("no file uploaded")
	ErrFileTooLarge    = errors.New("file size exceeds limit")
	ErrNotAnImage      = errors.New("uploaded file is not an image")
	ErrUnsupportedType = errors.New("unsupported image type, only jpg/jpeg/png are accepted")
)

type IUtils interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
	ValidateImageFile(file *multipart.FileHeader) error
	CheckFileSize(file *multipart.FileHeader) error
	ReadFile(file *multipart.FileHeader) ([]byte, error)
	EncodeBase64(data []byte) string
	DecodeBase64(encoded string) ([]byte, error)
}

type utils struct {
	maxFileSize  int64
	allowedTypes []string
}

func New() IUtils {
	return NewWithLimit(20 * 1024 * 1024)
}

func NewWithLimit(maxFileSize int64) IUtils {
	return &utils{
		maxFileSize:  maxFileSize,
		allowedTypes: []string{"image/png", "image/jpeg", "image/jpg"},
	}
}

func (u *utils) NewULIDFromTimestamp(t time.Time) (string, error) {
	ms := ulid.Timestamp(t)
	entropy := ulid.Monotonic(rand.Reader, 0)

	id, err := ulid.New(ms, entropy)
	if err != nil {
		return "", err
	}

	return id.String(), nil
}

func (u *utils) ValidateImageFile(file *multipart.FileHeader) error {
	if err := u.CheckFileSize(file); err != nil {
		return err
	}

	contentType := file.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		return ErrNotAnImage
	}

	for _, allowed := range u.allowedTypes {
		if contentType == allowed {
			return nil
		}
	}

	return ErrUnsupportedType
}

// CheckFileSize only enforces the upload limit, for callers that accept any
// content type.
func (u *utils) CheckFileSize(file *multipart.FileHeader) error {
	if file == nil {
		return ErrNoFile
	}
	if file.Size > u.maxFileSize {
		return ErrFileTooLarge
	}
	return nil
}

func (u *utils) ReadFile(file *multipart.FileHeader) ([]byte, error) {
	if file == nil {
		return nil, ErrNoFile
	}

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = src.Close()
	}()

	return io.ReadAll(src)
}

func (u *utils) EncodeBase64(data []byte) string {
	return base64.StdEncoding.EncodeToString(data)
}

// DecodeBase64 accepts both padded and unpadded standard encodings, and an
// optional data URL prefix as produced by browsers.
func (u *utils) DecodeBase64(encoded string) ([]byte, error) {
	if idx := strings.Index(encoded, ";base64,"); idx != -1 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[idx+len(";base64,"):]
	}
	encoded = strings.TrimSpace(encoded)

	if strings.HasSuffix(encoded, "=") || len(encoded)%4 == 0 {
		return base64.StdEncoding.DecodeString(encoded)
	}
	return base64.RawStdEncoding.DecodeString(encoded)
}
