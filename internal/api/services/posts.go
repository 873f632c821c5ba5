package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/cache"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/normalize"
	"github.com/rohits-web03/inkwell/internal/repositories"
)

// PostStore is the post persistence the service depends on.
type PostStore interface {
	Create(ctx context.Context, post *models.Post) error
	List(ctx context.Context) ([]models.Post, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.Post, error)
	Delete(ctx context.Context, id uuid.UUID) (*models.Post, error)
}

// CreatePostInput is a create request. Author keeps whatever JSON value the
// caller sent; Extra holds every non-reserved key.
type CreatePostInput struct {
	Title           string
	Content         string
	Category        string
	ThumbnailURL    string
	ThumbnailBase64 string
	Author          any
	CreatedAt       string
	Extra           map[string]any
}

// createdAtLayout stamps server-side creation times with microseconds, the
// precision older writers used.
const createdAtLayout = "2006-01-02T15:04:05.000000Z07:00"

// ParseCreatePostBody splits a decoded JSON body into column-backed fields
// and extras.
func ParseCreatePostBody(body map[string]any) CreatePostInput {
	in := CreatePostInput{
		Title:           stringField(body, "title"),
		Content:         stringField(body, "content"),
		Category:        stringField(body, "category"),
		ThumbnailURL:    stringField(body, "thumbnail_url"),
		ThumbnailBase64: stringField(body, "thumbnail_base64"),
		Author:          body["author"],
		CreatedAt:       stringField(body, "created_at"),
	}
	for k, v := range body {
		if _, reserved := models.ReservedPostFields[k]; reserved {
			continue
		}
		if in.Extra == nil {
			in.Extra = make(map[string]any)
		}
		in.Extra[k] = v
	}
	return in
}

func stringField(body map[string]any, key string) string {
	switch v := body[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

type PostService struct {
	posts             PostStore
	blobs             repositories.BlobStore
	cache             *cache.Cache
	maxThumbnailBytes int64
	now               func() time.Time
}

// NewPostService wires the post store and blob store. c may be nil.
func NewPostService(posts PostStore, blobs repositories.BlobStore, c *cache.Cache, maxThumbnailBytes int64) *PostService {
	return &PostService{
		posts:             posts,
		blobs:             blobs,
		cache:             c,
		maxThumbnailBytes: maxThumbnailBytes,
		now:               time.Now,
	}
}

// Create stores a post on behalf of user (nil for system posts) and returns
// its canonical form. Create is not retried on failure.
func (s *PostService) Create(ctx context.Context, user *models.PublicUser, in CreatePostInput) (*normalize.Post, error) {
	title := strings.TrimSpace(in.Title)
	content := strings.TrimSpace(in.Content)
	if title == "" || content == "" {
		return nil, models.NewValidationError("Missing title or content")
	}

	post := &models.Post{
		Title:        title,
		Content:      content,
		Category:     strings.TrimSpace(in.Category),
		ThumbnailURL: strings.TrimSpace(in.ThumbnailURL),
		CreatedAtRaw: strings.TrimSpace(in.CreatedAt),
		Extra:        in.Extra,
	}
	s.assignAuthor(post, user, in.Author)

	dated := map[string]any{"created_at": post.CreatedAtRaw}
	for _, key := range normalize.DateFields[1:] {
		dated[key] = in.Extra[key]
	}
	if !normalize.HasDate(dated) {
		post.CreatedAtRaw = s.now().UTC().Format(createdAtLayout)
	}

	if in.ThumbnailBase64 != "" {
		thumb, err := DecodeThumbnail(in.ThumbnailBase64, s.maxThumbnailBytes)
		if err != nil {
			return nil, err
		}
		if err := s.blobs.Put(ctx, thumb.Key, thumb.ContentType, thumb.Data); err != nil {
			return nil, models.NewInternalError(fmt.Errorf("store thumbnail: %w", err))
		}
		post.ThumbnailKey = thumb.Key
		post.ThumbnailURL = s.blobs.URL(thumb.Key)
	}

	if err := s.posts.Create(ctx, post); err != nil {
		if post.ThumbnailKey != "" {
			if derr := s.blobs.Delete(ctx, post.ThumbnailKey); derr != nil {
				slog.WarnContext(ctx, "orphaned thumbnail", "key", post.ThumbnailKey, "error", derr)
			}
		}
		return nil, models.NewInternalError(err)
	}
	s.cache.Invalidate(ctx, cache.PostsListKey)

	if post.AuthorID != nil && user != nil && *post.AuthorID == user.ID {
		post.AuthorUser = &models.User{ID: user.ID, Name: user.Name, Email: user.Email}
	}
	slog.InfoContext(ctx, "post created", "post_id", post.ID)

	canonical := normalize.Normalize(post.Raw())
	return &canonical, nil
}

// assignAuthor turns the caller's author value into an AuthorRef. Objects
// that resolve to no display name are kept verbatim in Extra.
func (s *PostService) assignAuthor(post *models.Post, user *models.PublicUser, author any) {
	switch v := author.(type) {
	case string:
		if name := strings.TrimSpace(v); name != "" {
			post.SetAuthor(models.NameRef(name))
			return
		}
	case nil:
	default:
		if name := normalize.IdentityName(v); name != nil {
			post.SetAuthor(models.NameRef(fmt.Sprint(name)))
			return
		}
		if post.Extra == nil {
			post.Extra = make(map[string]any)
		}
		post.Extra["author"] = v
		return
	}
	if user != nil {
		post.SetAuthor(models.UserRef(user.ID))
	}
}

// List returns every post newest first.
func (s *PostService) List(ctx context.Context) ([]normalize.Post, error) {
	var raws []map[string]any
	err := s.cache.Aside(ctx, cache.PostsListKey, &raws, cache.PostsTTL, func() error {
		posts, err := s.posts.List(ctx)
		if err != nil {
			return err
		}
		raws = make([]map[string]any, 0, len(posts))
		for i := range posts {
			raws = append(raws, posts[i].Raw())
		}
		return nil
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	out := normalize.NormalizeAll(raws)
	normalize.SortNewestFirst(out)
	return out, nil
}

func (s *PostService) Get(ctx context.Context, id string) (*normalize.Post, error) {
	pid, err := uuid.Parse(id)
	if err != nil {
		return nil, models.NewNotFoundError("Post", id)
	}

	var raw map[string]any
	err = s.cache.Aside(ctx, cache.PostKey(pid.String()), &raw, cache.PostsTTL, func() error {
		post, err := s.posts.GetByID(ctx, pid)
		if err != nil {
			return err
		}
		raw = post.Raw()
		return nil
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.NewNotFoundError("Post", id)
		}
		return nil, models.NewInternalError(err)
	}

	canonical := normalize.Normalize(raw)
	return &canonical, nil
}

// Delete removes a post and its thumbnail. A second delete of the same id
// fails with NotFound.
func (s *PostService) Delete(ctx context.Context, id string) error {
	pid, err := uuid.Parse(id)
	if err != nil {
		return models.NewNotFoundError("Post", id)
	}

	post, err := s.posts.Delete(ctx, pid)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.NewNotFoundError("Post", id)
		}
		return models.NewInternalError(err)
	}
	s.cache.Invalidate(ctx, cache.PostsListKey, cache.PostKey(pid.String()))

	if post.ThumbnailKey != "" {
		if err := s.blobs.Delete(ctx, post.ThumbnailKey); err != nil {
			slog.WarnContext(ctx, "failed to delete thumbnail", "post_id", pid, "key", post.ThumbnailKey, "error", err)
		}
	}
	slog.InfoContext(ctx, "post deleted", "post_id", pid)
	return nil
}
