package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rohits-web03/inkwell/internal/cache"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreatePostBody(t *testing.T) {
	in := ParseCreatePostBody(map[string]any{
		"title":        "T",
		"content":      "C",
		"author":       map[string]any{"username": "bob"},
		"created_at":   "2024-01-01T00:00:00Z",
		"published_at": "2023-01-01",
		"tags":         []any{"a"},
	})

	assert.Equal(t, "T", in.Title)
	assert.Equal(t, "2024-01-01T00:00:00Z", in.CreatedAt)
	assert.Equal(t, map[string]any{"username": "bob"}, in.Author)
	assert.Equal(t, map[string]any{"published_at": "2023-01-01", "tags": []any{"a"}}, in.Extra)
}

func TestCreate_Validation(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))
	ctx := context.Background()

	_, err := posts.Create(ctx, nil, CreatePostInput{Title: "", Content: "x"})
	assert.True(t, models.HasCode(err, models.CodeValidation))

	_, err = posts.Create(ctx, nil, CreatePostInput{Title: "t", Content: "   "})
	assert.True(t, models.HasCode(err, models.CodeValidation))
}

func TestCreate_StampsCurrentTime(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))

	before := time.Now().UTC().Add(-time.Second)
	p, err := posts.Create(context.Background(), nil, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	require.NotNil(t, p.CreatedAt)
	assert.WithinDuration(t, time.Now().UTC(), *p.CreatedAt, 5*time.Second)
	assert.True(t, p.CreatedAt.After(before))
	assert.NotEmpty(t, p.Fields["created_at"])
}

func TestCreate_KeepsCallerDate(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))
	ctx := context.Background()

	p, err := posts.Create(ctx, nil, CreatePostInput{Title: "t", Content: "c", CreatedAt: "2023-06-01T00:00:00"})
	require.NoError(t, err)
	assert.Equal(t, "2023-06-01T00:00:00", p.Fields["created_at"])
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), *p.CreatedAt)

	// A date under another accepted name suppresses the default stamp.
	p, err = posts.Create(ctx, nil, CreatePostInput{Title: "t", Content: "c", Extra: map[string]any{"publishedAt": "2020-02-02T10:00:00Z"}})
	require.NoError(t, err)
	assert.NotContains(t, p.Fields, "created_at")
	assert.Equal(t, 2020, p.CreatedAt.Year())
}

func TestCreate_AuthorRefs(t *testing.T) {
	db := setupTestDB(t)
	auth := newAuthService(t, db)
	posts, _ := newPostService(t, db)
	user, _ := signupFake(t, auth)
	ctx := context.Background()

	p, err := posts.Create(ctx, user, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)
	assert.Equal(t, user.Name, p.Author)

	p, err = posts.Create(ctx, user, CreatePostInput{Title: "t", Content: "c", Author: "alice"})
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Author)

	p, err = posts.Create(ctx, user, CreatePostInput{Title: "t", Content: "c", Author: map[string]any{"username": "bob"}})
	require.NoError(t, err)
	assert.Equal(t, "bob", p.Author)

	stored, err := posts.Get(ctx, p.ID())
	require.NoError(t, err)
	assert.Equal(t, "bob", stored.Author)

	p, err = posts.Create(ctx, user, CreatePostInput{Title: "t", Content: "c", Author: map[string]any{"avatar": "x.png"}})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"avatar": "x.png"}, p.Author)
}

func TestCreate_WithThumbnail(t *testing.T) {
	posts, blobs := newPostService(t, setupTestDB(t))
	ctx := context.Background()

	p, err := posts.Create(ctx, nil, CreatePostInput{Title: "t", Content: "c", ThumbnailBase64: pngDataURL(t, 4, 4)})
	require.NoError(t, err)

	url, _ := p.Fields["thumbnail_url"].(string)
	require.True(t, strings.HasPrefix(url, "http://localhost:8080/media/posts/"), url)
	assert.NotContains(t, p.Fields, "thumbnail_base64")

	key := strings.TrimPrefix(url, "http://localhost:8080/media/posts/")
	rc, ct, err := blobs.Get(ctx, key)
	require.NoError(t, err)
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	assert.NotEmpty(t, data)
	assert.Equal(t, "image/png", ct)
}

func TestCreate_InvalidThumbnail(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))

	_, err := posts.Create(context.Background(), nil, CreatePostInput{Title: "t", Content: "c", ThumbnailBase64: "data:image/png;base64,bm90IGFuIGltYWdl"})
	assert.True(t, models.HasCode(err, models.CodeInvalidImage))

	list, err := posts.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestCreate_StoreFailureIsInternal(t *testing.T) {
	blobs, err := repositories.NewDiskStore(t.TempDir(), "")
	require.NoError(t, err)
	posts := NewPostService(failingPosts{err: errors.New("disk full")}, blobs, nil, 1<<20)

	_, err = posts.Create(context.Background(), nil, CreatePostInput{Title: "t", Content: "c", ThumbnailBase64: pngDataURL(t, 2, 2)})
	assert.True(t, models.HasCode(err, models.CodeInternal))

	_, err = posts.List(context.Background())
	assert.True(t, models.HasCode(err, models.CodeInternal))

	_, err = posts.Get(context.Background(), uuid.NewString())
	assert.True(t, models.HasCode(err, models.CodeInternal))
}

func TestList_OrdersByResolvedDate(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))
	ctx := context.Background()

	for _, date := range []string{"2024-01-01T00:00:00Z", "2025-01-01T00:00:00.846114Z", "2023-06-01T00:00:00"} {
		_, err := posts.Create(ctx, nil, CreatePostInput{Title: date, Content: "c", Author: "a", CreatedAt: date})
		require.NoError(t, err)
	}

	list, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, "2025-01-01T00:00:00.846114Z", list[0].Fields["title"])
	assert.Equal(t, "2024-01-01T00:00:00Z", list[1].Fields["title"])
	assert.Equal(t, "2023-06-01T00:00:00", list[2].Fields["title"])
	assert.Equal(t, 846_000_000, list[0].CreatedAt.Nanosecond())

	out, err := json.Marshal(list[2])
	require.NoError(t, err)
	assert.Contains(t, string(out), `"createdAt":"2023-06-01T00:00:00.000Z"`)
}

func TestList_Empty(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))

	list, err := posts.List(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, list)
	assert.Empty(t, list)
}

func TestGet_NotFound(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))

	_, err := posts.Get(context.Background(), uuid.NewString())
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	_, err = posts.Get(context.Background(), "42")
	assert.True(t, models.HasCode(err, models.CodeNotFound))
}

func TestDelete(t *testing.T) {
	posts, blobs := newPostService(t, setupTestDB(t))
	ctx := context.Background()

	p, err := posts.Create(ctx, nil, CreatePostInput{Title: "t", Content: "c", ThumbnailBase64: pngDataURL(t, 2, 2)})
	require.NoError(t, err)
	key := strings.TrimPrefix(p.Fields["thumbnail_url"].(string), "http://localhost:8080/media/posts/")

	require.NoError(t, posts.Delete(ctx, p.ID()))

	_, err = posts.Get(ctx, p.ID())
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	err = posts.Delete(ctx, p.ID())
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	_, _, err = blobs.Get(ctx, key)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
}

func TestDelete_ConcurrentSameID(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))
	ctx := context.Background()

	p, err := posts.Create(ctx, nil, CreatePostInput{Title: "t", Content: "c"})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = posts.Delete(ctx, p.ID())
		}()
	}
	wg.Wait()

	var succeeded, notFound int
	for _, err := range errs {
		if err == nil {
			succeeded++
		} else if models.HasCode(err, models.CodeNotFound) {
			notFound++
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, notFound)
}

func newCachedPostService(t *testing.T, store PostStore) *PostService {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	blobs, err := repositories.NewDiskStore(t.TempDir(), "")
	require.NoError(t, err)
	return NewPostService(store, blobs, cache.NewWithClient(client), 1<<20)
}

func TestPostService_WithRedisCache(t *testing.T) {
	repo := repositories.NewPostRepository(setupTestDB(t))
	posts := newCachedPostService(t, repo)
	ctx := context.Background()

	first, err := posts.Create(ctx, nil, CreatePostInput{Title: "one", Content: "c"})
	require.NoError(t, err)

	list, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)

	// Rows written behind the service's back stay hidden until invalidation.
	require.NoError(t, repo.Create(ctx, &models.Post{Title: "direct", Content: "c"}))
	list, err = posts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = posts.Create(ctx, nil, CreatePostInput{Title: "two", Content: "c"})
	require.NoError(t, err)

	list, err = posts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 3)

	_, err = posts.Get(ctx, first.ID())
	require.NoError(t, err)

	require.NoError(t, posts.Delete(ctx, first.ID()))
	_, err = posts.Get(ctx, first.ID())
	assert.True(t, models.HasCode(err, models.CodeNotFound))

	list, err = posts.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)
}

// pausingPosts holds GetByID and List after they have read from the
// database, so a writer can run between the read and the cache fill.
type pausingPosts struct {
	*repositories.PostRepository
	read    chan struct{}
	release chan struct{}
	once    sync.Once
}

func newPausingPosts(repo *repositories.PostRepository) *pausingPosts {
	return &pausingPosts{
		PostRepository: repo,
		read:           make(chan struct{}),
		release:        make(chan struct{}),
	}
}

func (p *pausingPosts) pause() {
	p.once.Do(func() {
		close(p.read)
		<-p.release
	})
}

func (p *pausingPosts) GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error) {
	post, err := p.PostRepository.GetByID(ctx, id)
	p.pause()
	return post, err
}

func (p *pausingPosts) List(ctx context.Context) ([]models.Post, error) {
	rows, err := p.PostRepository.List(ctx)
	p.pause()
	return rows, err
}

func TestPostService_GetRacingDeleteDoesNotResurrect(t *testing.T) {
	repo := repositories.NewPostRepository(setupTestDB(t))
	post := &models.Post{Title: "doomed", Content: "c"}
	require.NoError(t, repo.Create(context.Background(), post))

	store := newPausingPosts(repo)
	posts := newCachedPostService(t, store)
	ctx := context.Background()
	id := post.ID.String()

	done := make(chan error, 1)
	go func() {
		_, err := posts.Get(ctx, id)
		done <- err
	}()

	<-store.read
	require.NoError(t, posts.Delete(ctx, id))
	close(store.release)
	require.NoError(t, <-done)

	_, err := posts.Get(ctx, id)
	assert.True(t, models.HasCode(err, models.CodeNotFound), "got %v", err)
}

func TestPostService_ListRacingCreateSeesNewPost(t *testing.T) {
	repo := repositories.NewPostRepository(setupTestDB(t))
	store := newPausingPosts(repo)
	posts := newCachedPostService(t, store)
	ctx := context.Background()

	done := make(chan error, 1)
	go func() {
		_, err := posts.List(ctx)
		done <- err
	}()

	<-store.read
	created, err := posts.Create(ctx, nil, CreatePostInput{Title: "late", Content: "c"})
	require.NoError(t, err)
	close(store.release)
	require.NoError(t, <-done)

	list, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, created.ID(), list[0].ID())
}

func TestSeed(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))
	ctx := context.Background()

	titles, err := posts.Seed(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sample post 1"}, titles)

	titles, err = posts.Seed(ctx, DefaultSeedCount)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sample post 1", "Sample post 2", "Sample post 3"}, titles)

	list, err := posts.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)
	for _, p := range list {
		assert.Equal(t, "system", p.Author)
		assert.NotEmpty(t, p.Fields["thumbnail_url"])
		assert.NotNil(t, p.CreatedAt)
	}
}

func TestSeed_Clamped(t *testing.T) {
	posts, _ := newPostService(t, setupTestDB(t))

	titles, err := posts.Seed(context.Background(), 1000)
	require.NoError(t, err)
	assert.Len(t, titles, MaxSeedCount)
}
