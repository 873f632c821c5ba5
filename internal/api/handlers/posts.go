package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/rohits-web03/inkwell/internal/api/middleware"
	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/normalize"
	"github.com/rohits-web03/inkwell/internal/utils"
)

type PostHandler struct {
	posts       *services.PostService
	maxBodySize int64
}

// NewPostHandler limits request bodies to maxBodySize bytes.
func NewPostHandler(posts *services.PostService, maxBodySize int64) *PostHandler {
	return &PostHandler{posts: posts, maxBodySize: maxBodySize}
}

type PostResponse struct {
	Post *normalize.Post `json:"post"`
}

type SeedRequest struct {
	Count *int `json:"count"`
}

type SeedResponse struct {
	Created []string `json:"created"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

// ListPosts godoc
// @Summary List posts newest first
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Success 200 {array} object
// @Failure 401 {object} models.ErrorResponse
// @Router /api/posts [get]
func (h *PostHandler) ListPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.posts.List(r.Context())
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, posts)
}

// GetPost godoc
// @Summary Get one post
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} PostResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id} [get]
func (h *PostHandler) GetPost(w http.ResponseWriter, r *http.Request) {
	post, err := h.posts.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, PostResponse{Post: post})
}

// CreatePost godoc
// @Summary Create a post
// @Description Accepts title, content, optional thumbnail_base64 (data URL), author, category and created_at.
// @Description Other fields are stored with the post.
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body object true "Post fields"
// @Success 201 {object} object
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/posts [post]
func (h *PostHandler) CreatePost(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxBodySize)

	var body map[string]any
	if err := utils.DecodeJSON(r.Body, &body); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			utils.WriteError(w, r, models.NewInvalidImageError("Request body is too large", err))
			return
		}
		utils.WriteError(w, r, models.NewValidationError("Invalid input"))
		return
	}
	if body == nil {
		utils.WriteError(w, r, models.NewValidationError("Missing title or content"))
		return
	}

	post, err := h.posts.Create(r.Context(), middleware.UserFromContext(r.Context()), services.ParseCreatePostBody(body))
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusCreated, post)
}

// DeletePost godoc
// @Summary Delete a post
// @Tags Posts
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/posts/{id} [delete]
func (h *PostHandler) DeletePost(w http.ResponseWriter, r *http.Request) {
	if err := h.posts.Delete(r.Context(), r.PathValue("id")); err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, MessageResponse{Message: "Post deleted"})
}

// SeedPosts godoc
// @Summary Create sample posts
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body SeedRequest false "How many posts (default 3, max 50)"
// @Success 201 {object} SeedResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /api/posts/seed [post]
func (h *PostHandler) SeedPosts(w http.ResponseWriter, r *http.Request) {
	var input SeedRequest
	if err := utils.DecodeJSON(io.LimitReader(r.Body, 1<<10), &input); err != nil && !errors.Is(err, io.EOF) {
		utils.WriteError(w, r, models.NewValidationError("Invalid input"))
		return
	}

	count := services.DefaultSeedCount
	if input.Count != nil {
		count = *input.Count
	}
	created, err := h.posts.Seed(r.Context(), count)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusCreated, SeedResponse{Created: created})
}
