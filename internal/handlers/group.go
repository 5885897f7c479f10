package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/huangang/tripplanner/internal/middleware"
	"github.com/huangang/tripplanner/internal/services"
	"github.com/huangang/tripplanner/pkg/response"
)

type GroupHandler struct {
	groupService *services.GroupService
}

func NewGroupHandler(groupService *services.GroupService) *GroupHandler {
	return &GroupHandler{groupService: groupService}
}

// List
// GET /api/groups
func (h *GroupHandler) List(c *gin.Context) {
	groups, err := h.groupService.ListForUser(middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, groups)
}

// GetByID
// GET /api/groups/:id
func (h *GroupHandler) GetByID(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}

	group, err := h.groupService.Get(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, group)
}

// Create
// POST /api/groups
func (h *GroupHandler) Create(c *gin.Context) {
	var req services.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.Create(middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// Update
// PUT /api/groups/:id
func (h *GroupHandler) Update(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}

	var req services.UpdateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	group, err := h.groupService.Update(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, group)
}

// Delete
// DELETE /api/groups/:id
func (h *GroupHandler) Delete(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}

	if err := h.groupService.Deactivate(id, middleware.GetUserID(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "group deleted"})
}

// ListMembers
// GET /api/groups/:id/members
func (h *GroupHandler) ListMembers(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}

	members, err := h.groupService.ListMembers(id, middleware.GetUserID(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, members)
}

// AddMember
// POST /api/groups/:id/members
func (h *GroupHandler) AddMember(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}

	var req services.AddGroupMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.groupService.AddMember(id, middleware.GetUserID(c), &req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, member)
}

// UpdateMemberRole
// PUT /api/groups/:id/members/:userId/role
func (h *GroupHandler) UpdateMemberRole(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}
	memberID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	var req services.UpdateMemberRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	member, err := h.groupService.UpdateMemberRole(id, middleware.GetUserID(c), memberID, req.Role)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, member)
}

// RemoveMember
// DELETE /api/groups/:id/members/:userId
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	id, ok := parseID(c, "id", "group")
	if !ok {
		return
	}
	memberID, ok := parseID(c, "userId", "user")
	if !ok {
		return
	}

	if err := h.groupService.RemoveMember(id, middleware.GetUserID(c), memberID); err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, gin.H{"message": "member removed"})
}
