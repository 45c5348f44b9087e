package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/service/user"
)

type UserService interface {
	List(ctx context.Context, actor model.Actor) ([]user.WithTaskCounts, error)
	Get(ctx context.Context, actor model.Actor, id int) (*model.User, error)
	Delete(ctx context.Context, actor model.Actor, id int) error
}

type UserHandler struct {
	svc  UserService
	errs *ErrorResponder
}

func NewUserHandler(svc UserService, errs *ErrorResponder) *UserHandler {
	return &UserHandler{svc: svc, errs: errs}
}

// GetUsers handles GET /api/users
func (h *UserHandler) GetUsers(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	users, err := h.svc.List(c.Request.Context(), actor)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetUser handles GET /api/users/:id
func (h *UserHandler) GetUser(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	id, ok := h.errs.idParam(c, "user")
	if !ok {
		return
	}
	u, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

// DeleteUser handles DELETE /api/users/:id
func (h *UserHandler) DeleteUser(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	id, ok := h.errs.idParam(c, "user")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}
