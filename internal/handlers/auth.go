package handlers

import (
	"errors"
	"net/http"

	"gridtalk/internal/db"
	"gridtalk/internal/models"
	"gridtalk/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type AuthHandler struct{}

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

type credentials struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 注册新用户。用户名唯一性由 username_lower 唯一索引兜底，
// 并发注册同名只会成功一个。
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username and password required")
		return
	}

	if !utils.ValidUsername(req.Username) {
		fail(c, http.StatusBadRequest, "invalid username format")
		return
	}
	if len(req.Password) < 6 {
		fail(c, http.StatusBadRequest, "password too short")
		return
	}

	hash, err := utils.HashPassword(req.Password)
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	user := models.User{
		Username:      req.Username,
		UsernameLower: utils.NormalizeUsername(req.Username),
		Password:      hash,
		Avatar:        utils.GetRandomEmoji(), // 随机 emoji 头像
	}
	if err := db.DB.Create(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			fail(c, http.StatusConflict, "username taken")
			return
		}
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusCreated, user)
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username and password required")
		return
	}

	var user models.User
	if err := db.DB.Where("username_lower = ?", utils.NormalizeUsername(req.Username)).
		First(&user).Error; err != nil {
		fail(c, http.StatusUnauthorized, "bad credentials")
		return
	}
	if !utils.CheckPasswordHash(req.Password, user.Password) {
		fail(c, http.StatusUnauthorized, "bad credentials")
		return
	}

	session := sessions.Default(c)
	session.Set("user_id", user.ID)
	session.Save()

	c.JSON(http.StatusOK, user)
}

// Logout 退出登录
func (h *AuthHandler) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	session.Save()
	c.Status(http.StatusOK)
}
