package service

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	"linkforge/internal/cache"
	"linkforge/internal/entities"
	"linkforge/internal/models"
	"linkforge/internal/queue"
	"linkforge/internal/repository"
)

var (
	ErrInvalidURL    = errors.New("URL must be an absolute http or https URL")
	ErrInvalidAlias  = errors.New("alias must be 3-30 letters, numbers, hyphens, or underscores")
	ErrReservedAlias = errors.New("alias is reserved and cannot be used")
	ErrAliasTaken    = errors.New("custom alias already taken")
)

const (
	// Generated codes are 8 URL-safe characters; at that length the
	// collision probability is negligible, so a handful of reservation
	// attempts is ample.
	codeLength          = 8
	maxReserveAttempts  = 5
	defaultLinkLifetime = 7 * 24 * time.Hour
	publishTimeout      = 2 * time.Second

	// storageTimeout caps every registry call; request contexts carry no
	// deadline of their own, so the service enforces one per call.
	storageTimeout = 5 * time.Second
)

func storageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, storageTimeout)
}

var aliasPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)

// Aliases that would shadow routes or invite abuse.
var reservedAliases = map[string]bool{
	"api":      true,
	"health":   true,
	"admin":    true,
	"shorten":  true,
	"urls":     true,
	"url":      true,
	"qrcode":   true,
	"login":    true,
	"register": true,
	"www":      true,
}

// LinkService is the short-link lifecycle engine: collision-safe code
// reservation, redirect resolution with asynchronous click accounting, and
// owner-scoped listing and deletion.
type LinkService interface {
	CreateShortLink(ctx context.Context, req *models.CreateURLRequest, userID, userEmail string) (*models.CreateURLResponse, error)
	Resolve(ctx context.Context, shortCode string, click entities.ClickEvent) (*entities.ShortLink, error)
	GetUserLinks(ctx context.Context, userID string) ([]*models.URLSummary, error)
	DeleteLink(ctx context.Context, shortCode, userID string) error
}

type linkService struct {
	repo      repository.LinkRepository
	publisher queue.ClickPublisher
	qrCache   cache.QRCache
	baseURL   string
	logger    *slog.Logger
}

// NewLinkService creates a new link service
func NewLinkService(repo repository.LinkRepository, publisher queue.ClickPublisher, qrCache cache.QRCache, baseURL string, logger *slog.Logger) LinkService {
	return &linkService{
		repo:      repo,
		publisher: publisher,
		qrCache:   qrCache,
		baseURL:   strings.TrimRight(baseURL, "/"),
		logger:    logger,
	}
}

// CreateShortLink validates the request and reserves a code. Reservation is
// the insert itself: a custom alias gets exactly one attempt, a generated
// code is regenerated with a fresh nonce on collision.
func (s *linkService) CreateShortLink(ctx context.Context, req *models.CreateURLRequest, userID, userEmail string) (*models.CreateURLResponse, error) {
	if err := validateURL(req.URL); err != nil {
		return nil, err
	}

	// An expiry in the past is accepted; the record is simply born
	// expired and the first read or sweep deactivates it.
	expiresAt := time.Now().UTC().Add(defaultLinkLifetime)
	if req.ExpiresAt != nil {
		expiresAt = req.ExpiresAt.UTC()
	}

	link := &entities.ShortLink{
		OriginalURL: req.URL,
		UserID:      userID,
		UserEmail:   userEmail,
		ExpiresAt:   &expiresAt,
	}

	var created *entities.ShortLink
	var err error

	if req.CustomAlias != nil && strings.TrimSpace(*req.CustomAlias) != "" {
		alias := strings.TrimSpace(*req.CustomAlias)
		if err := validateAlias(alias); err != nil {
			return nil, err
		}

		link.ShortCode = alias
		link.IsCustomAlias = true

		createCtx, cancel := storageContext(ctx)
		defer cancel()
		created, err = s.repo.Create(createCtx, link)
		if errors.Is(err, repository.ErrCodeTaken) {
			return nil, ErrAliasTaken
		}
		if err != nil {
			return nil, err
		}
	} else {
		created, err = s.reserveGenerated(ctx, link)
		if err != nil {
			return nil, err
		}
	}

	return &models.CreateURLResponse{
		ShortCode:     created.ShortCode,
		OriginalURL:   created.OriginalURL,
		ShortURL:      s.baseURL + "/" + created.ShortCode,
		IsCustomAlias: created.IsCustomAlias,
		CreatedAt:     created.CreatedAt,
		ExpiresAt:     created.ExpiresAt,
	}, nil
}

// reserveGenerated derives candidate codes and inserts until one sticks.
// Only a unique-violation is retried; any other storage error aborts.
func (s *linkService) reserveGenerated(ctx context.Context, link *entities.ShortLink) (*entities.ShortLink, error) {
	var created *entities.ShortLink

	backoff := retry.WithMaxRetries(maxReserveAttempts-1, retry.NewConstant(10*time.Millisecond))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		link.ShortCode = generateShortCode(link.OriginalURL)

		createCtx, cancel := storageContext(ctx)
		defer cancel()

		var err error
		created, err = s.repo.Create(createCtx, link)
		if errors.Is(err, repository.ErrCodeTaken) {
			return retry.RetryableError(err)
		}
		return err
	})
	if errors.Is(err, repository.ErrCodeTaken) {
		return nil, fmt.Errorf("failed to reserve a unique short code after %d attempts", maxReserveAttempts)
	}
	if err != nil {
		return nil, err
	}

	return created, nil
}

// generateShortCode hashes the original URL with a fresh random nonce and
// encodes the digest to a fixed-length URL-safe code.
func generateShortCode(originalURL string) string {
	sum := sha256.Sum256([]byte(originalURL + uuid.NewString()))
	return base64.RawURLEncoding.EncodeToString(sum[:])[:codeLength]
}

// Resolve looks up an active link and enqueues the click event. The enqueue
// attempt is bounded and its failure only degrades counting; the caller
// still gets the redirect target.
func (s *linkService) Resolve(ctx context.Context, shortCode string, click entities.ClickEvent) (*entities.ShortLink, error) {
	findCtx, cancel := storageContext(ctx)
	defer cancel()

	link, err := s.repo.FindByShortCode(findCtx, shortCode)
	if err != nil {
		return nil, err
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	click.ShortCode = link.ShortCode
	if err := s.publisher.Publish(pubCtx, click); err != nil {
		s.logger.Warn("failed to enqueue click event", "short_code", shortCode, "error", err)
	}

	return link, nil
}

func (s *linkService) GetUserLinks(ctx context.Context, userID string) ([]*models.URLSummary, error) {
	ctx, cancel := storageContext(ctx)
	defer cancel()

	links, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := make([]*models.URLSummary, len(links))
	for i, link := range links {
		summaries[i] = &models.URLSummary{
			ShortCode:   link.ShortCode,
			OriginalURL: link.OriginalURL,
			ClickCount:  link.ClickCount,
			CreatedAt:   link.CreatedAt,
			ExpiresAt:   link.ExpiresAt,
		}
	}

	return summaries, nil
}

// DeleteLink soft-deletes an owned link and cascades a best-effort delete
// of its cached QR artifact. A dangling cache entry is bounded by the TTL,
// so a cache failure here is logged, not surfaced.
func (s *linkService) DeleteLink(ctx context.Context, shortCode, userID string) error {
	ctx, cancel := storageContext(ctx)
	defer cancel()

	if err := s.repo.Deactivate(ctx, shortCode, userID); err != nil {
		return err
	}

	if err := s.qrCache.DeleteQR(ctx, shortCode); err != nil {
		s.logger.Warn("failed to delete cached QR code", "short_code", shortCode, "error", err)
	}

	return nil
}

func validateURL(rawURL string) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ErrInvalidURL
	}
	if (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}

func validateAlias(alias string) error {
	if !aliasPattern.MatchString(alias) {
		return ErrInvalidAlias
	}
	if reservedAliases[strings.ToLower(alias)] {
		return ErrReservedAlias
	}
	return nil
}
