// Package assets stores uploaded product images.
package assets

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/circuitbreaker"
	"github.com/ABH36/Machine-test/config"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// MaxUploadSize caps a single image.
const MaxUploadSize = 5 << 20

var allowedTypes = map[string]string{
	"image/jpeg": ".jpg",
	"image/png":  ".png",
	"image/webp": ".webp",
}

// Store accepts an image and returns the URL it is served from.
type Store interface {
	Upload(ctx context.Context, r io.Reader) (string, error)
}

// New returns a LocalStore, or a store that rejects every upload when no
// directory is configured.
func New(cfg config.AssetsConfig, logger *zap.Logger) (Store, error) {
	if cfg.Dir == "" {
		logger.Info("Asset directory not configured, uploads disabled")
		return disabled{}, nil
	}
	return NewLocalStore(cfg.Dir, cfg.BaseURL, logger)
}

type disabled struct{}

func (disabled) Upload(context.Context, io.Reader) (string, error) {
	return "", apperr.Upstream(nil, "Asset store not configured")
}

// LocalStore writes files under dir with random names.
type LocalStore struct {
	dir     string
	baseURL string
	breaker *circuitbreaker.CircuitBreaker
	logger  *zap.Logger
}

func NewLocalStore(dir, baseURL string, logger *zap.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create asset directory: %w", err)
	}
	return &LocalStore{
		dir:     dir,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		breaker: circuitbreaker.NewCircuitBreaker("asset-store", 3, 30*time.Second,
			circuitbreaker.WithLogger(logger)),
		logger: logger,
	}, nil
}

// Dir is the directory files are written to, for serving them statically.
func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Upload(ctx context.Context, r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return "", apperr.Validation("image", "Failed to read upload")
	}
	if len(data) == 0 {
		return "", apperr.Validation("image", "No file uploaded")
	}
	if len(data) > MaxUploadSize {
		return "", apperr.Validation("image", "File too large (max %d MB)", MaxUploadSize>>20)
	}

	mtype := mimetype.Detect(data)
	ext, ok := allowedTypes[mtype.String()]
	if !ok {
		return "", apperr.Validation("image", "Images only (jpg, png, webp), got %s", mtype.String())
	}

	name := uuid.NewString() + ext
	err = s.breaker.Execute(ctx, func(context.Context) error {
		return writeFile(filepath.Join(s.dir, name), data)
	})
	if err != nil {
		s.logger.Error("Failed to store upload", zap.String("file", name), zap.Error(err))
		return "", apperr.Upstream(err, "Asset store unavailable")
	}

	s.logger.Info("Image uploaded",
		zap.String("file", name),
		zap.String("content_type", mtype.String()),
		zap.Int("bytes", len(data)),
	)
	return s.baseURL + "/" + name, nil
}

func writeFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, bytes.NewReader(data)); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}
