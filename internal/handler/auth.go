package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/service/auth"
)

type AuthService interface {
	Register(ctx context.Context, in auth.RegisterInput) (*auth.Result, error)
	Login(ctx context.Context, email, password string) (*auth.Result, error)
	Profile(ctx context.Context, actor model.Actor) (*model.User, error)
	UpdateProfile(ctx context.Context, actor model.Actor, patch auth.ProfilePatch) (*auth.Result, error)
}

type AuthHandler struct {
	svc    AuthService
	errs   *ErrorResponder
	logger *zap.Logger
}

func NewAuthHandler(svc AuthService, errs *ErrorResponder, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{svc: svc, errs: errs, logger: logger}
}

// authResponse is the user document with its bearer token alongside.
type authResponse struct {
	*model.User
	Token string `json:"token"`
}

type registerRequest struct {
	Name             string `json:"name" binding:"required"`
	Email            string `json:"email" binding:"required,email"`
	Password         string `json:"password" binding:"required,min=6"`
	ProfileImageURL  string `json:"profileImageUrl"`
	AdminInviteToken string `json:"adminInviteToken"`
	DepartmentCode   string `json:"departmentCode"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !h.errs.bindJSON(c, &req) {
		return
	}

	res, err := h.svc.Register(c.Request.Context(), auth.RegisterInput{
		Name:             req.Name,
		Email:            req.Email,
		Password:         req.Password,
		ProfileImageURL:  req.ProfileImageURL,
		AdminInviteToken: req.AdminInviteToken,
		DepartmentCode:   req.DepartmentCode,
	})
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, authResponse{User: res.User, Token: res.Token})
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !h.errs.bindJSON(c, &req) {
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, authResponse{User: res.User, Token: res.Token})
}

// GetProfile handles GET /api/auth/profile
func (h *AuthHandler) GetProfile(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}

	u, err := h.svc.Profile(c.Request.Context(), actor)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type profileRequest struct {
	Name            *string `json:"name"`
	Email           *string `json:"email" binding:"omitempty,email"`
	Password        *string `json:"password"`
	ProfileImageURL *string `json:"profileImageUrl"`
}

// UpdateProfile handles PUT /api/auth/profile
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}

	var req profileRequest
	if !h.errs.bindJSON(c, &req) {
		return
	}

	res, err := h.svc.UpdateProfile(c.Request.Context(), actor, auth.ProfilePatch{
		Name:            req.Name,
		Email:           req.Email,
		Password:        req.Password,
		ProfileImageURL: req.ProfileImageURL,
	})
	if err != nil {
		h.errs.Respond(c, err)
		return
	}

	h.logger.Info("Profile updated", zap.Int("user_id", actor.ID))
	c.JSON(http.StatusOK, authResponse{User: res.User, Token: res.Token})
}
