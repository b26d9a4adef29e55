// Package thread 在已取回的分区消息批次上重建回复树。
// 纯函数，不碰存储；树用 parent 指针表示，子节点靠扫描过滤还原。
package thread

import (
	"sort"

	"gridtalk/internal/models"
)

// DefaultPageSize 每个父节点默认先展示的回复条数，"再看 N 条" 按此分页
const DefaultPageSize = 10

// SortOrder 回复排序策略
type SortOrder string

const (
	SortTop SortOrder = "top" // 按得分降序，同分早发的在前
	SortNew SortOrder = "new" // 按时间降序
	SortOld SortOrder = "old" // 按时间升序
)

// TopLevel 顶层消息（无父节点）
func TopLevel(msgs []models.Message) []models.Message {
	var out []models.Message
	for _, m := range msgs {
		if m.ParentID == nil {
			out = append(out, m)
		}
	}
	return out
}

// DirectReplies 某条消息的直接回复，同级按时间升序——
// 兄弟组内保持对话顺序，是全系统唯一用升序的地方
func DirectReplies(msgs []models.Message, parentID uint) []models.Message {
	var out []models.Message
	for _, m := range msgs {
		if m.ParentID != nil && *m.ParentID == parentID {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// FlattenedReplies 根消息下的整棵子树拍平（不含根自身），时间升序。
// 沿 parent 链上溯时步数以批次长度为上限，父引用悬空按非后代处理，
// 保证坏数据下也不会死循环。
func FlattenedReplies(msgs []models.Message, rootID uint) []models.Message {
	byID := make(map[uint]*models.Message, len(msgs))
	for i := range msgs {
		byID[msgs[i].ID] = &msgs[i]
	}

	var out []models.Message
	for _, m := range msgs {
		if m.ID == rootID {
			continue
		}
		if descendsFrom(&m, rootID, byID, len(msgs)) {
			out = append(out, m)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Depth 到根的父级跳数，顶层为 0。上溯同样有步数上限。
func Depth(m models.Message, msgs []models.Message) int {
	byID := make(map[uint]*models.Message, len(msgs))
	for i := range msgs {
		byID[msgs[i].ID] = &msgs[i]
	}

	depth := 0
	cur := &m
	for steps := 0; cur.ParentID != nil && steps < len(msgs); steps++ {
		parent, ok := byID[*cur.ParentID]
		if !ok {
			break
		}
		depth++
		cur = parent
	}
	return depth
}

// Sort 按策略排序（稳定排序，原切片不动）
func Sort(msgs []models.Message, order SortOrder) []models.Message {
	out := make([]models.Message, len(msgs))
	copy(out, msgs)

	switch order {
	case SortTop:
		sort.SliceStable(out, func(i, j int) bool {
			si, sj := out[i].Score(), out[j].Score()
			if si != sj {
				return si > sj
			}
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	case SortOld:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		})
	default: // SortNew
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		})
	}
	return out
}

// Page 在已排序列表上取一页。续页只是往后切片，
// 绝不重排，保证 "再看 N 条" 单调展开同一个序列。
func Page(sorted []models.Message, offset, limit int) []models.Message {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if offset < 0 {
		offset = 0
	}
	if offset >= len(sorted) {
		return nil
	}
	end := offset + limit
	if end > len(sorted) {
		end = len(sorted)
	}
	return sorted[offset:end]
}

func descendsFrom(m *models.Message, rootID uint, byID map[uint]*models.Message, maxSteps int) bool {
	cur := m
	for steps := 0; cur.ParentID != nil && steps < maxSteps; steps++ {
		if *cur.ParentID == rootID {
			return true
		}
		parent, ok := byID[*cur.ParentID]
		if !ok {
			return false
		}
		cur = parent
	}
	return false
}
