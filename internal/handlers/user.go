package handlers

import (
	"net/http"

	"gridtalk/internal/store"
	"gridtalk/internal/utils"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	store *store.Store
}

func NewUserHandler(st *store.Store) *UserHandler {
	return &UserHandler{store: st}
}

// Profile - 用户主页 /u/:id，带该用户的全部消息（跨分区，新帖在前）
func (h *UserHandler) Profile(c *gin.Context) {
	userID := uint(utils.StringToInt(c.Param("id")))

	user, err := h.store.GetUser(userID)
	if err != nil {
		failStore(c, err)
		return
	}

	msgs, err := h.store.FetchByAuthor(user.ID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"messages": msgs,
	})
}

type renameReq struct {
	Username string `json:"username" binding:"required"`
}

// Rename 改用户名。格式错 400，被占用 409；
// 成功后该用户历史消息上的展示名一并刷新。
func (h *UserHandler) Rename(c *gin.Context) {
	user := currentUser(c)

	var req renameReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "username required")
		return
	}

	if err := h.store.RenameAuthor(user.ID, req.Username); err != nil {
		failStore(c, err)
		return
	}

	updated, err := h.store.GetUser(user.ID)
	if err != nil {
		failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, updated)
}

// DeleteAccount 注销账号：档案、全部消息及其回复子树、
// 以及本人打出的所有票一次清掉
func (h *UserHandler) DeleteAccount(c *gin.Context) {
	user := currentUser(c)

	if err := h.store.DeleteAccount(user.ID); err != nil {
		failStore(c, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Save()

	c.Status(http.StatusOK)
}
