package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := repositories.ConnectDatabase(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func newAuthService(t *testing.T, db *gorm.DB) *AuthService {
	t.Helper()
	tokens := NewTokenService("test-secret", time.Hour)
	return NewAuthService(repositories.NewUserRepository(db), tokens).WithBcryptCost(bcrypt.MinCost)
}

func newPostService(t *testing.T, db *gorm.DB) (*PostService, *repositories.DiskStore) {
	t.Helper()
	blobs, err := repositories.NewDiskStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)
	return NewPostService(repositories.NewPostRepository(db), blobs, nil, 1<<20), blobs
}

func signupFake(t *testing.T, auth *AuthService) (*models.PublicUser, string) {
	t.Helper()
	password := gofakeit.Password(true, true, true, false, false, 12)
	user, err := auth.Signup(context.Background(), gofakeit.Name(), gofakeit.Email(), password)
	require.NoError(t, err)
	return user, password
}

func pngDataURL(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.Black)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

// failingPosts is a PostStore whose every call fails with err.
type failingPosts struct{ err error }

func (f failingPosts) Create(context.Context, *models.Post) error  { return f.err }
func (f failingPosts) List(context.Context) ([]models.Post, error) { return nil, f.err }
func (f failingPosts) GetByID(context.Context, uuid.UUID) (*models.Post, error) {
	return nil, f.err
}
func (f failingPosts) Delete(context.Context, uuid.UUID) (*models.Post, error) {
	return nil, f.err
}
