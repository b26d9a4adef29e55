package handlers

import (
	"errors"
	"net/http"

	"gridtalk/internal/middleware"
	"gridtalk/internal/models"
	"gridtalk/internal/store"

	"github.com/gin-gonic/gin"
)

// currentUser 从上下文取当前登录用户
func currentUser(c *gin.Context) *models.User {
	if user, exists := c.Get(middleware.CheckUserKey); exists {
		return user.(*models.User)
	}
	return nil
}

// fail 统一的 JSON 错误返回
func fail(c *gin.Context, code int, msg string) {
	c.JSON(code, gin.H{"error": msg})
}

// failStore 按存储层错误分级映射 HTTP 状态码
func failStore(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrValidation):
		fail(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrNotFound):
		fail(c, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrConflict):
		fail(c, http.StatusConflict, err.Error())
	default:
		fail(c, http.StatusInternalServerError, "internal error")
	}
}
