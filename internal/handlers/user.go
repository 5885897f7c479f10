package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

const avatarFormField = "avatar"

type UserHandler struct {
	userService *services.UserService
	storage     *services.AvatarStorage
}

// NewUserHandler wires user endpoints. storage may be nil, in which case
// avatar uploads are rejected.
func NewUserHandler(userService *services.UserService, storage *services.AvatarStorage) *UserHandler {
	return &UserHandler{userService: userService, storage: storage}
}

// Me returns the current user's profile
// GET /api/users/me
func (h *UserHandler) Me(c *gin.Context) {
	user, err := h.userService.GetByID(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// UpdateMe applies a partial profile update
// PUT /api/users/me
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var req services.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	user, err := h.userService.Update(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// DeleteMe deactivates the current account
// DELETE /api/users/me
func (h *UserHandler) DeleteMe(c *gin.Context) {
	if err := h.userService.Deactivate(middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "account deactivated"})
}

// ChangePassword
// PUT /api/users/me/password
func (h *UserHandler) ChangePassword(c *gin.Context) {
	var req services.ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	if err := h.userService.ChangePassword(middleware.GetUserID(c), &req); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "password changed"})
}

// UploadAvatar stores a multipart image under the "avatar" field and sets it
// as the user's avatar
// POST /api/users/me/avatar
func (h *UserHandler) UploadAvatar(c *gin.Context) {
	if h.storage == nil {
		response.BadRequest(c, "avatar uploads are not enabled")
		return
	}

	maxBytes := h.storage.MaxBytes()
	// leave room for the multipart envelope
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes+64*1024)

	fileHeader, err := c.FormFile(avatarFormField)
	if err != nil {
		response.BadRequest(c, "avatar file is required")
		return
	}
	if fileHeader.Size > maxBytes {
		response.BadRequest(c, "avatar exceeds "+strconv.FormatInt(maxBytes/(1024*1024), 10)+" MB")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.BadRequest(c, err.Error())
		return
	}
	defer file.Close()

	user, err := h.userService.UploadAvatar(c.Request.Context(), h.storage, middleware.GetUserID(c),
		fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

type userSearchQuery struct {
	Q     string `form:"q" binding:"required"`
	Limit int    `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Search finds active users by username, email or name
// GET /api/users/search?q=
func (h *UserHandler) Search(c *gin.Context) {
	var query userSearchQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	users, err := h.userService.Search(query.Q, query.Limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, users)
}

// GetByID returns a user's public profile
// GET /api/users/:id
func (h *UserHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}

	user, err := h.userService.GetByID(id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, user)
}

// List returns active users, admin only
// GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var req services.PageRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.userService.ListActive(&req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, resp)
}

// Delete deactivates another account, admin only
// DELETE /api/users/:id
func (h *UserHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "user")
	if !ok {
		return
	}
	if id == middleware.GetUserID(c) {
		response.BadRequest(c, "use DELETE /api/users/me to deactivate your own account")
		return
	}

	if err := h.userService.Deactivate(id); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "user deactivated"})
}
