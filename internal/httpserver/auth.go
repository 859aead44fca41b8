package httpserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"offers-marketplace/internal/domain"
	accountsvc "offers-marketplace/internal/service/account"
)

type signupRequest struct {
	Email    string      `json:"email" binding:"required"`
	Password string      `json:"password" binding:"required"`
	Role     domain.Role `json:"role"`
	IsStaff  bool        `json:"isStaff"`
}

type tokenRequest struct {
	Email    string `json:"email" form:"email" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

func (h *handlers) signup(c *gin.Context) {
	var req signupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	account, err := h.deps.AuthSvc.Signup(c.Request.Context(), callerFrom(c), accountsvc.SignupInput{
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
		IsStaff:  req.IsStaff,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}
	respond(c, http.StatusCreated, "Account created.", account)
}

func (h *handlers) token(c *gin.Context) {
	var req tokenRequest
	if err := c.ShouldBind(&req); err != nil {
		h.writeError(c, bindError(err))
		return
	}
	account, token, err := h.deps.AuthSvc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   h.deps.AuthSvc.AccessTTLSeconds(),
		Account:     account,
	})
}

func (h *handlers) logout(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		h.writeError(c, domain.ErrUnauthorized)
		return
	}
	if err := h.deps.AuthSvc.Logout(c.Request.Context(), token); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
