package handler

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"patentadmin/internal/microservices/http-api/dto"
	"patentadmin/internal/microservices/http-api/repository"
	"patentadmin/internal/microservices/http-api/service"
)

type UserHandler struct {
	userService service.UserService
}

func NewUserHandler(userService service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// pagination reads page/size query params into an offset and limit.
func pagination(c *gin.Context) (offset, limit int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "50"))
	if page < 1 {
		page = 1
	}
	if size < 1 || size > 500 {
		size = 50
	}
	return (page - 1) * size, size
}

func (h *UserHandler) ListUsers(c *gin.Context) {
	filter := repository.UserListFilter{
		Search:           c.Query("search"),
		Role:             c.Query("role"),
		SubscriptionPlan: c.Query("plan"),
		SortBy:           c.DefaultQuery("sort_by", "created_at"),
		SortDesc:         c.DefaultQuery("order", "desc") == "desc",
	}
	filter.Offset, filter.Limit = pagination(c)

	if active := c.Query("is_active"); active != "" {
		parsed, err := strconv.ParseBool(active)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid is_active"})
			return
		}
		filter.IsActive = &parsed
	}
	if after := c.Query("created_after"); after != "" {
		parsed, err := time.Parse(time.RFC3339, after)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid created_after"})
			return
		}
		filter.CreatedAfter = &parsed
	}
	if before := c.Query("created_before"); before != "" {
		parsed, err := time.Parse(time.RFC3339, before)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid created_before"})
			return
		}
		filter.CreatedBefore = &parsed
	}

	resp, err := h.userService.ListUsers(filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list users"})
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (h *UserHandler) GetStatistics(c *gin.Context) {
	stats, err := h.userService.GetStatistics()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load statistics"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *UserHandler) GetUser(c *gin.Context) {
	user, err := h.userService.GetUser(c.Param("user_id"))
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user"})
		return
	}
	c.JSON(http.StatusOK, user)
}

func (h *UserHandler) GetUserActivity(c *gin.Context) {
	activity, err := h.userService.GetUserActivity(c.Param("user_id"))
	if errors.Is(err, service.ErrUserNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load user activity"})
		return
	}
	c.JSON(http.StatusOK, activity)
}

func (h *UserHandler) CreateUser(c *gin.Context) {
	var req dto.CreateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.CreateUser(&req)
	if errors.Is(err, service.ErrEmailTaken) {
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to create user"})
		return
	}
	c.JSON(http.StatusCreated, user)
}

func (h *UserHandler) UpdateUser(c *gin.Context) {
	var req dto.UpdateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.userService.UpdateUser(c.Param("user_id"), &req)
	switch {
	case err == nil:
		c.JSON(http.StatusOK, user)
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrEmailTaken):
		c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update user"})
	}
}

func (h *UserHandler) DeleteUser(c *gin.Context) {
	err := h.userService.DeactivateUser(c.Param("user_id"))
	switch {
	case err == nil:
		c.JSON(http.StatusOK, gin.H{"message": "user deactivated"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
	case errors.Is(err, service.ErrUserDeactivated):
		c.JSON(http.StatusConflict, gin.H{"error": "user already deactivated"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to deactivate user"})
	}
}

func (h *UserHandler) BulkUpdateUsers(c *gin.Context) {
	var req dto.BulkUpdateUsersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	affected, err := h.userService.BulkUpdateUsers(&req)
	if errors.Is(err, service.ErrNoUpdateFields) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to update users"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": affected})
}
