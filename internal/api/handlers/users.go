package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rohits-web03/inkwell/internal/api/middleware"
	"github.com/rohits-web03/inkwell/internal/api/services"
	"github.com/rohits-web03/inkwell/internal/models"
	"github.com/rohits-web03/inkwell/internal/utils"
)

type UserHandler struct {
	auth *services.AuthService
}

func NewUserHandler(auth *services.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

type UserResponse struct {
	User *models.PublicUser `json:"user"`
}

// GetUser godoc
// @Summary Get the caller's own account
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Param id path string true "User ID"
// @Success 200 {object} UserResponse
// @Failure 401 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /api/users/{id} [get]
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	current := middleware.UserFromContext(r.Context())
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		utils.WriteError(w, r, models.NewNotFoundError("User", r.PathValue("id")))
		return
	}
	if current == nil || current.ID != id {
		utils.WriteError(w, r, models.NewForbiddenError("Forbidden"))
		return
	}

	user, err := h.auth.GetUser(r.Context(), id)
	if err != nil {
		utils.WriteError(w, r, err)
		return
	}
	utils.JSONResponse(w, http.StatusOK, UserResponse{User: user})
}
