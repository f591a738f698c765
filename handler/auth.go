package handler

import (
	"errors"
	"net/http"

	"github.com/TIANLI0/RidgeTrace/middleware"
	"github.com/TIANLI0/RidgeTrace/model"
	"github.com/TIANLI0/RidgeTrace/service"
	"github.com/TIANLI0/RidgeTrace/utils"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	users *service.UserService
}

func NewAuthHandler(users *service.UserService) *AuthHandler {
	return &AuthHandler{users: users}
}

// Register 注册账户
func (h *AuthHandler) Register(c *gin.Context) {
	var req model.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "注册信息不完整",
			Error:   err.Error(),
		})
		return
	}

	user, token, err := h.users.Register(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrUserExists) {
			c.JSON(http.StatusConflict, model.ErrorResponse{
				Success: false,
				Message: "该邮箱已注册",
			})
			return
		}
		utils.Logger.Error("failed to register user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "注册失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{
		Success: true,
		Message: "注册成功",
		Token:   token,
		User:    user,
	})
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.ErrorResponse{
			Success: false,
			Message: "请输入邮箱和密码",
			Error:   err.Error(),
		})
		return
	}

	user, token, err := h.users.Login(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, model.ErrorResponse{
				Success: false,
				Message: "邮箱或密码错误",
			})
			return
		}
		utils.Logger.Error("failed to login", zap.Error(err))
		c.JSON(http.StatusInternalServerError, model.ErrorResponse{
			Success: false,
			Message: "登录失败",
			Error:   err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{
		Success: true,
		Message: "登录成功",
		Token:   token,
		User:    user,
	})
}

// Me 返回当前登录用户
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.CurrentClaims(c)
	if claims == nil {
		c.JSON(http.StatusUnauthorized, model.ErrorResponse{
			Success: false,
			Message: "请先登录",
		})
		return
	}

	c.JSON(http.StatusOK, model.AuthResponse{
		Success: true,
		Message: "查询成功",
		User: &model.User{
			ID:    claims.Subject,
			Name:  claims.Name,
			Email: claims.Email,
		},
	})
}
