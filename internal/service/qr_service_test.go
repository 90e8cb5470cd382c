package service

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"linkforge/internal/models"
	"linkforge/internal/repository"
)

func newTestQRService(repo *fakeLinkRepo, qr *fakeQRCache) QRService {
	return NewQRService(repo, qr, "http://sho.rt", testLogger())
}

func TestGetQRCode_GeneratesAndCaches(t *testing.T) {
	repo := newFakeLinkRepo()
	qr := newFakeQRCache()
	linkSvc := newTestService(repo, &fakePublisher{}, qr)
	qrSvc := newTestQRService(repo, qr)

	resp, err := linkSvc.CreateShortLink(context.Background(),
		&models.CreateURLRequest{URL: "https://example.com"}, "user-a", "a@example.com")
	require.NoError(t, err)

	encoded, err := qrSvc.GetQRCode(context.Background(), resp.ShortCode)
	require.NoError(t, err)

	// The artifact is a decodable PNG.
	png, err := base64.StdEncoding.DecodeString(encoded)
	require.NoError(t, err)
	assert.Equal(t, []byte("\x89PNG"), png[:4])

	// And it landed in the cache.
	cached, err := qr.GetQR(context.Background(), resp.ShortCode)
	require.NoError(t, err)
	assert.Equal(t, encoded, cached)
}

func TestGetQRCode_ServesCachedArtifact(t *testing.T) {
	repo := newFakeLinkRepo()
	qr := newFakeQRCache()
	qrSvc := newTestQRService(repo, qr)

	// A cache hit is served as-is, without touching the registry.
	require.NoError(t, qr.SaveQR(context.Background(), "cached", "stored-blob"))

	encoded, err := qrSvc.GetQRCode(context.Background(), "cached")
	require.NoError(t, err)
	assert.Equal(t, "stored-blob", encoded)
}

func TestGetQRCode_UnknownCode(t *testing.T) {
	qrSvc := newTestQRService(newFakeLinkRepo(), newFakeQRCache())

	_, err := qrSvc.GetQRCode(context.Background(), "missing")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestGetQRCode_ExpiredCode(t *testing.T) {
	repo := newFakeLinkRepo()
	qr := newFakeQRCache()
	linkSvc := newTestService(repo, &fakePublisher{}, qr)
	qrSvc := newTestQRService(repo, qr)

	past := time.Now().UTC().Add(-time.Second)
	resp, err := linkSvc.CreateShortLink(context.Background(),
		&models.CreateURLRequest{URL: "https://example.com", ExpiresAt: &past},
		"user-a", "a@example.com")
	require.NoError(t, err)

	_, err = qrSvc.GetQRCode(context.Background(), resp.ShortCode)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestSaveAndDeleteQRCode(t *testing.T) {
	qr := newFakeQRCache()
	qrSvc := newTestQRService(newFakeLinkRepo(), qr)

	require.NoError(t, qrSvc.SaveQRCode(context.Background(), "promo", "blob"))

	encoded, err := qrSvc.GetQRCode(context.Background(), "promo")
	require.NoError(t, err)
	assert.Equal(t, "blob", encoded)

	require.NoError(t, qrSvc.DeleteQRCode(context.Background(), "promo"))

	// Gone from the cache; the code itself was never registered.
	_, err = qrSvc.GetQRCode(context.Background(), "promo")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
