package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/config"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOAuthState_RoundTrip(t *testing.T) {
	now := time.Unix(1_700_000_000, 500)
	state, err := newOAuthState(now)
	require.NoError(t, err)

	parsed, err := parseOAuthState(state.String())
	require.NoError(t, err)
	assert.Equal(t, state.Nonce, parsed.Nonce)
	assert.True(t, parsed.IssuedAt.Equal(time.Unix(1_700_000_000, 0)))

	other, err := newOAuthState(now)
	require.NoError(t, err)
	assert.NotEqual(t, state.Nonce, other.Nonce)
}

func TestParseOAuthState_Malformed(t *testing.T) {
	// "e30" is {} and "eyJpYXQiOjB9" is {"iat":0}.
	for _, bad := range []string{"", "nodot", ".e30", "abc.", "abc.!!!", "abc.bm90LWpzb24", "abc.e30", "abc.eyJpYXQiOjB9"} {
		_, err := parseOAuthState(bad)
		assert.ErrorIs(t, err, errMalformedState, bad)
	}
}

func TestOAuthState_Expired(t *testing.T) {
	now := time.Now()
	state := oauthState{Nonce: "n", IssuedAt: now}

	assert.False(t, state.expired(now.Add(time.Minute)))
	assert.True(t, state.expired(now.Add(stateMaxAge+time.Minute)))
	assert.True(t, state.expired(now.Add(-5*time.Minute)))
}

func TestHandleGoogleLogin_SetsStateCookie(t *testing.T) {
	google := services.NewGoogleOAuth(config.GoogleConfig{ClientID: "cid", RedirectURL: "http://localhost/cb"})
	h := NewAuthHandler(nil, google, false)

	rec := httptest.NewRecorder()
	h.HandleGoogleLogin(rec, httptest.NewRequest(http.MethodGet, "/api/auth/google/login", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, stateCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.Contains(t, rec.Header().Get("Location"), "state="+cookies[0].Value)
}

func TestHandleGoogleCallback_RejectsStateMismatch(t *testing.T) {
	google := services.NewGoogleOAuth(config.GoogleConfig{ClientID: "cid"})
	h := NewAuthHandler(nil, google, false)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=a.e30&code=x", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "b.e30"})
	rec := httptest.NewRecorder()
	h.HandleGoogleCallback(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req = httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?state=a.e30&code=x", nil)
	rec = httptest.NewRecorder()
	h.HandleGoogleCallback(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHandleGoogleCallback_RejectsMalformedState(t *testing.T) {
	google := services.NewGoogleOAuth(config.GoogleConfig{ClientID: "cid"})
	h := NewAuthHandler(nil, google, false)

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=x&state=abc.e30", nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: "abc.e30"})
	rec := httptest.NewRecorder()
	h.HandleGoogleCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Invalid OAuth state", body.Error)
}

func TestHandleGoogleCallback_RejectsStaleState(t *testing.T) {
	google := services.NewGoogleOAuth(config.GoogleConfig{ClientID: "cid"})
	h := NewAuthHandler(nil, google, false)

	issued, err := newOAuthState(time.Now().Add(-time.Hour))
	require.NoError(t, err)
	state := issued.String()

	req := httptest.NewRequest(http.MethodGet, "/api/auth/google/callback?code=x&state="+state, nil)
	req.AddCookie(&http.Cookie{Name: stateCookie, Value: state})
	rec := httptest.NewRecorder()
	h.HandleGoogleCallback(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "OAuth state has expired", body.Error)
}

type presigningStore struct {
	repositories.BlobStore
}

func (presigningStore) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://bucket.example.com/" + key + "?X-Amz-Signature=sig", nil
}

func TestServePostMedia(t *testing.T) {
	disk, err := repositories.NewDiskStore(t.TempDir(), "")
	require.NoError(t, err)
	require.NoError(t, disk.Put(context.Background(), "a.png", "image/png", []byte("png")))

	mux := http.NewServeMux()
	mux.HandleFunc("GET /media/posts/{key}", NewMediaHandler(disk).ServePostMedia)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/posts/a.png", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, "png", string(body))

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/posts/b.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServePostMedia_RedirectsToPresignedURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /media/posts/{key}", NewMediaHandler(presigningStore{}).ServePostMedia)

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/media/posts/a.png", nil))

	assert.Equal(t, http.StatusTemporaryRedirect, rec.Code)
	assert.True(t, strings.HasPrefix(rec.Header().Get("Location"), "https://bucket.example.com/a.png"))
}
