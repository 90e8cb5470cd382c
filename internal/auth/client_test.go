package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_ValidToken(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		assert.Equal(t, "/api/auth/validate", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"success","data":{"user":{"id":"user-42","email":"u@example.com"}}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	principal, err := client.Verify(context.Background(), "Bearer token-123")
	require.NoError(t, err)

	assert.Equal(t, "Bearer token-123", gotAuth)
	assert.Equal(t, "user-42", principal.UserID)
	assert.Equal(t, "u@example.com", principal.Email)
}

func TestVerify_RejectedToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Verify(context.Background(), "Bearer bad")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerify_MissingHeader(t *testing.T) {
	// No request should even be made without a credential.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("identity service should not be called")
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Verify(context.Background(), "")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerify_EmptyPrincipal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status":"success","data":{}}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL)
	_, err := client.Verify(context.Background(), "Bearer token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestVerify_ServiceUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // immediately, so the address refuses connections

	client := NewClient(srv.URL)
	_, err := client.Verify(context.Background(), "Bearer token")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrUnauthenticated)
}
