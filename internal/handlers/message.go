package handlers

import (
	"math"
	"net/http"
	"time"

	"gridtalk/internal/geo"
	"gridtalk/internal/models"
	"gridtalk/internal/store"
	"gridtalk/internal/thread"
	"gridtalk/internal/utils"

	"github.com/gin-gonic/gin"
)

type MessageHandler struct {
	store *store.Store
}

func NewMessageHandler(st *store.Store) *MessageHandler {
	return &MessageHandler{store: st}
}

type createMessageReq struct {
	Lat       float64 `json:"lat"`
	Lng       float64 `json:"lng"`
	Content   string  `json:"content"`
	ParentMid string  `json:"parent_mid"`
}

// Create 在当前位置、当天的分区里发消息。
// 分区键取自服务进程的本地时钟。
func (h *MessageHandler) Create(c *gin.Context) {
	user := currentUser(c)

	var req createMessageReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "bad request body")
		return
	}
	if math.IsNaN(req.Lat) || math.IsNaN(req.Lng) {
		fail(c, http.StatusBadRequest, "invalid coordinate")
		return
	}

	pk := geo.PartitionKeyAt(geo.Coordinate{Lat: req.Lat, Lng: req.Lng}, time.Now())

	var parentID *uint
	if req.ParentMid != "" {
		parent, err := h.store.GetByMid(req.ParentMid, 0)
		if err != nil {
			failStore(c, err)
			return
		}
		parentID = &parent.ID
		// 回复挂在父消息的分区下，哪怕回帖人已经走出了那个单元
		pk = parent.PartitionKey
	}

	msg, err := h.store.Post(req.Content, pk, user.ID, parentID)
	if err != nil {
		failStore(c, err)
		return
	}
	c.JSON(http.StatusCreated, msg)
}

// Feed 某个单元-日分区的消息流。
// 默认取今天、按 top 排序的顶层消息，带分页。
func (h *MessageHandler) Feed(c *gin.Context) {
	lat := utils.StringToFloat(c.Query("lat"))
	lng := utils.StringToFloat(c.Query("lng"))

	day := c.DefaultQuery("day", geo.DayKey(time.Now()))
	if !geo.ValidDayKey(day) {
		fail(c, http.StatusBadRequest, "bad day")
		return
	}

	viewerID := uint(0)
	if user := currentUser(c); user != nil {
		viewerID = user.ID
	}

	idx := geo.CellIndexAt(geo.Coordinate{Lat: lat, Lng: lng})
	pk := geo.PartitionKey(idx, day)

	msgs, err := h.store.FetchByPartition(pk, viewerID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	order := thread.SortOrder(c.DefaultQuery("sort", string(thread.SortTop)))
	offset := utils.StringToInt(c.Query("offset"))
	limit := utils.StringToInt(c.Query("limit"))

	roots := thread.Sort(thread.TopLevel(msgs), order)
	page := thread.Page(roots, offset, limit)

	type feedItem struct {
		models.Message
		ReplyCount int `json:"reply_count"`
	}
	items := make([]feedItem, 0, len(page))
	for _, m := range page {
		items = append(items, feedItem{
			Message:    m,
			ReplyCount: len(thread.FlattenedReplies(msgs, m.ID)),
		})
	}

	c.JSON(http.StatusOK, gin.H{
		"partition_key": pk,
		"cell_id":       idx.ID(),
		"day":           day,
		"total":         len(roots),
		"messages":      items,
	})
}

// Detail 单条消息 + 拍平的回复列表（分页，续页不重排）
func (h *MessageHandler) Detail(c *gin.Context) {
	mid := c.Param("mid")

	viewerID := uint(0)
	if user := currentUser(c); user != nil {
		viewerID = user.ID
	}

	msg, err := h.store.GetByMid(mid, viewerID)
	if err != nil {
		failStore(c, err)
		return
	}

	batch, err := h.store.FetchByPartition(msg.PartitionKey, viewerID)
	if err != nil {
		fail(c, http.StatusInternalServerError, "internal error")
		return
	}

	replies := thread.FlattenedReplies(batch, msg.ID)
	offset := utils.StringToInt(c.Query("offset"))
	limit := utils.StringToInt(c.Query("limit"))
	page := thread.Page(replies, offset, limit)

	type replyItem struct {
		models.Message
		Depth int `json:"depth"`
	}
	items := make([]replyItem, 0, len(page))
	for _, r := range page {
		items = append(items, replyItem{Message: r, Depth: thread.Depth(r, batch)})
	}

	c.JSON(http.StatusOK, gin.H{
		"message":      msg,
		"content_html": utils.RenderMarkdown(msg.Content),
		"reply_total":  len(replies),
		"replies":      items,
	})
}

type voteReq struct {
	Value int `json:"value"` // 1 赞，-1 踩，0 撤销
}

// Vote 投票，重复同值幂等，0 撤票
func (h *MessageHandler) Vote(c *gin.Context) {
	user := currentUser(c)
	mid := c.Param("mid")

	var req voteReq
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, "bad request body")
		return
	}

	msg, err := h.store.GetByMid(mid, 0)
	if err != nil {
		failStore(c, err)
		return
	}

	if err := h.store.SetVote(msg.ID, user.ID, req.Value); err != nil {
		failStore(c, err)
		return
	}

	updated, err := h.store.GetByMid(mid, user.ID)
	if err != nil {
		failStore(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"upvotes":     updated.Upvotes,
		"downvotes":   updated.Downvotes,
		"viewer_vote": updated.ViewerVote,
	})
}

// Delete 删除自己的消息（连带整棵回复子树）。
// 不是作者时存储层静默不处理，这里同样返回 200。
func (h *MessageHandler) Delete(c *gin.Context) {
	user := currentUser(c)
	mid := c.Param("mid")

	msg, err := h.store.GetByMid(mid, 0)
	if err != nil {
		failStore(c, err)
		return
	}

	if err := h.store.Delete(msg.ID, user.ID); err != nil {
		failStore(c, err)
		return
	}
	c.Status(http.StatusOK)
}
