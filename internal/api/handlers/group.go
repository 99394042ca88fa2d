package handlers

import (
	"net/http"

	apperrors "expensely-backend/internal/errors"
	"expensely-backend/internal/service"

	"github.com/gin-gonic/gin"
)

// GroupHandler handles HTTP requests for groups
type GroupHandler struct {
	service service.GroupServiceInterface
}

// NewGroupHandler creates a new group handler
func NewGroupHandler(service service.GroupServiceInterface) *GroupHandler {
	return &GroupHandler{service: service}
}

// CreateGroup creates a new group
// @Summary Create a new group
// @Description Create a group; the caller is marked joined and every other member is invited
// @Tags groups
// @Accept json
// @Produce json
// @Param group body service.CreateGroupRequest true "Group data"
// @Success 201 {object} models.Group "Successfully created group"
// @Failure 400 {object} ErrorResponse "Invalid request body"
// @Failure 401 {object} ErrorResponse "Missing credential"
// @Failure 403 {object} ErrorResponse "Invalid credential"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups [post]
func (h *GroupHandler) CreateGroup(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req service.CreateGroupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequestBody)
		return
	}

	group, err := h.service.Create(c.Request.Context(), p, &req)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, group)
}

// ListGroups lists the caller's groups
// @Summary List my groups
// @Description Get every group the authenticated user is a member of
// @Tags groups
// @Produce json
// @Success 200 {array} models.Group "Groups of the caller"
// @Failure 401 {object} ErrorResponse "Missing credential"
// @Failure 403 {object} ErrorResponse "Invalid credential"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups [get]
func (h *GroupHandler) ListGroups(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	groups, err := h.service.ListForUser(c.Request.Context(), p.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, groups)
}

// GetGroup retrieves a group by ID
// @Summary Get group by ID
// @Description Get a specific group with its members
// @Tags groups
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} models.Group "Successfully retrieved group"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups/{groupId} [get]
func (h *GroupHandler) GetGroup(c *gin.Context) {
	group, err := h.service.GetByID(c.Request.Context(), c.Param("groupId"))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// JoinGroup accepts the caller's invitation
// @Summary Join a group
// @Description Mark the caller's membership as joined. Only invited members may join; repeating is harmless.
// @Tags groups
// @Produce json
// @Param groupId path string true "Group ID"
// @Success 200 {object} models.Group "Updated group"
// @Failure 403 {object} ErrorResponse "Caller is not a member"
// @Failure 404 {object} ErrorResponse "Group not found"
// @Failure 500 {object} ErrorResponse "Internal server error"
// @Security BearerAuth
// @Router /groups/{groupId}/join [post]
func (h *GroupHandler) JoinGroup(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	group, err := h.service.Join(c.Request.Context(), c.Param("groupId"), p.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, group)
}

// RemindMember sends a payment reminder
// @Summary Remind a member
// @Description Send a payment reminder push and email to one member of the group
// @Tags groups
// @Accept json
// @Produce json
// @Param groupId path string true "Group ID"
// @Param reminder body service.RemindRequest true "Member to remind"
// @Success 200 {object} MessageResponse "Reminder sent"
// @Failure 400 {object} ErrorResponse "Invalid request or self-reminder"
// @Failure 404 {object} ErrorResponse "Group or member not found"
// @Failure 429 {object} ErrorResponse "Reminder sent too recently"
// @Failure 500 {object} ErrorResponse "Delivery failed"
// @Security BearerAuth
// @Router /groups/{groupId}/remind [post]
func (h *GroupHandler) RemindMember(c *gin.Context) {
	p, ok := principal(c)
	if !ok {
		return
	}

	var req service.RemindRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, apperrors.ErrInvalidRequestBody)
		return
	}

	if err := h.service.Remind(c.Request.Context(), c.Param("groupId"), p.Email, &req); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "Reminder sent successfully"})
}
