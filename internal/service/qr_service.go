package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	qrcode "github.com/skip2/go-qrcode"

	"linkforge/internal/cache"
	"linkforge/internal/repository"
)

// qrSize is the generated image size in pixels, medium error recovery.
const qrSize = 256

// QRService serves QR artifacts for short links, backed by the TTL cache.
type QRService interface {
	// GetQRCode returns the cached artifact or generates, caches, and
	// returns a fresh one. Unknown or expired codes report
	// repository.ErrNotFound.
	GetQRCode(ctx context.Context, shortCode string) (string, error)

	// SaveQRCode stores a caller-supplied artifact, resetting the TTL.
	SaveQRCode(ctx context.Context, shortCode, base64PNG string) error

	// DeleteQRCode removes the cached artifact.
	DeleteQRCode(ctx context.Context, shortCode string) error
}

type qrService struct {
	repo    repository.LinkRepository
	cache   cache.QRCache
	baseURL string
	logger  *slog.Logger
}

// NewQRService creates a new QR service
func NewQRService(repo repository.LinkRepository, qrCache cache.QRCache, baseURL string, logger *slog.Logger) QRService {
	return &qrService{
		repo:    repo,
		cache:   qrCache,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

func (s *qrService) GetQRCode(ctx context.Context, shortCode string) (string, error) {
	cached, err := s.cache.GetQR(ctx, shortCode)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, cache.ErrNotFound) {
		// Cache trouble degrades to regeneration, not to an error.
		s.logger.Warn("QR cache read failed", "short_code", shortCode, "error", err)
	}

	if _, err := s.repo.FindByShortCode(ctx, shortCode); err != nil {
		return "", err
	}

	png, err := qrcode.Encode(s.baseURL+"/"+shortCode, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("failed to generate QR code: %w", err)
	}
	encoded := base64.StdEncoding.EncodeToString(png)

	if err := s.cache.SaveQR(ctx, shortCode, encoded); err != nil {
		s.logger.Warn("failed to cache QR code", "short_code", shortCode, "error", err)
	}

	return encoded, nil
}

func (s *qrService) SaveQRCode(ctx context.Context, shortCode, base64PNG string) error {
	return s.cache.SaveQR(ctx, shortCode, base64PNG)
}

func (s *qrService) DeleteQRCode(ctx context.Context, shortCode string) error {
	return s.cache.DeleteQR(ctx, shortCode)
}
