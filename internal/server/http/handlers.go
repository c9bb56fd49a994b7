package httpserver

import (
	"net/http"
	"strings"

	"github.com/and161185/docqa-auth/internal/errs"
	"github.com/and161185/docqa-auth/internal/model"
	"github.com/and161185/docqa-auth/internal/service"
	"github.com/and161185/docqa-auth/internal/validation"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type handlers struct {
	auth        service.AuthService
	users       service.UserService
	log         *zap.Logger
	refreshPath string
}

type signupRequest struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,strongpassword"`
	ConfirmPassword string `json:"confirmPassword" validate:"required"`
}

type signinRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type updateUserRequest struct {
	Role    *string `json:"role" validate:"omitempty,role"`
	Blocked *bool   `json:"blocked"`
}

type renameRequest struct {
	Name string `json:"name" validate:"required"`
}

type sessionResponse struct {
	AccessToken string     `json:"accessToken"`
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Email       string     `json:"email"`
	Role        model.Role `json:"role"`
}

type userView struct {
	ID      string     `json:"id"`
	Email   string     `json:"email"`
	Name    string     `json:"name"`
	Role    model.Role `json:"role"`
	Blocked bool       `json:"blocked"`
}

// bind decodes the JSON body into dst and validates it.
func bind(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return errs.E(errs.ErrBadRequest, "Invalid request body")
	}
	return validation.Struct(dst)
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := bind(c, &req); err != nil {
		fail(c, h.log, err)
		return
	}
	id, err := h.auth.Signup(c.Request.Context(), req.Email, req.Name, req.Password, req.ConfirmPassword)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "message": "User created successfully"})
}

func (h *handlers) signin(c *gin.Context) {
	var req signinRequest
	if err := bind(c, &req); err != nil {
		fail(c, h.log, err)
		return
	}
	sess, err := h.auth.Signin(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.writeSession(c, sess)
}

func (h *handlers) refresh(c *gin.Context) {
	sess, err := h.auth.Refresh(c.Request.Context(), refreshCookie(c))
	if err != nil {
		fail(c, h.log, err)
		return
	}
	h.writeSession(c, sess)
}

func (h *handlers) writeSession(c *gin.Context, sess model.Session) {
	setRefreshCookie(c, h.refreshPath, sess.RefreshToken, sess.RefreshTTL)
	c.JSON(http.StatusOK, sessionResponse{
		AccessToken: sess.AccessToken,
		ID:          sess.User.ID,
		Name:        sess.User.Name,
		Email:       sess.User.Email,
		Role:        sess.User.Role,
	})
}

func (h *handlers) signout(c *gin.Context) {
	p, _ := identity(c)
	if err := h.auth.Signout(c.Request.Context(), p.ID); err != nil {
		fail(c, h.log, err)
		return
	}
	clearRefreshCookie(c, h.refreshPath)
	c.Status(http.StatusNoContent)
}

func (h *handlers) viewUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		fail(c, h.log, err)
		return
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{ID: u.ID.String(), Email: u.Email, Name: u.Name, Role: u.Role, Blocked: u.Blocked})
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := bind(c, &req); err != nil {
		fail(c, h.log, err)
		return
	}
	var role *model.Role
	if req.Role != nil {
		r := model.Role(*req.Role)
		role = &r
	}
	u, err := h.users.UpdateAccess(c.Request.Context(), c.Param("id"), role, req.Blocked)
	if err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"id":      u.ID.String(),
		"role":    u.Role,
		"blocked": u.Blocked,
	})
}

func (h *handlers) renameUser(c *gin.Context) {
	var req renameRequest
	if err := bind(c, &req); err != nil {
		fail(c, h.log, err)
		return
	}
	p, _ := identity(c)
	if err := h.users.Rename(c.Request.Context(), p.ID, req.Name); err != nil {
		fail(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": p.ID, "name": strings.TrimSpace(req.Name), "message": "Renamed successfully"})
}

func (h *handlers) me(c *gin.Context) {
	p, _ := IdentityFromContext(c.Request.Context())
	c.JSON(http.StatusOK, p)
}
