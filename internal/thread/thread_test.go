package thread

import (
	"math/rand"
	"testing"
	"time"

	"gridtalk/internal/models"
)

func msg(id uint, parentID *uint, createdAt time.Time) models.Message {
	return models.Message{ID: id, ParentID: parentID, CreatedAt: createdAt}
}

func pid(id uint) *uint { return &id }

// buildThread 根消息 + n 条随机深度的回复
func buildThread(n int) []models.Message {
	r := rand.New(rand.NewSource(7))
	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)

	msgs := []models.Message{msg(1, nil, base)}
	for i := 0; i < n; i++ {
		// 父节点一定先于子节点创建，从已有消息里随机挑
		parent := msgs[r.Intn(len(msgs))].ID
		msgs = append(msgs, msg(uint(i+2), pid(parent), base.Add(time.Duration(i+1)*time.Minute)))
	}
	return msgs
}

// TestThreadIntegrity 根下拍平恰好 N 条，父链上 depth 严格 +1
func TestThreadIntegrity(t *testing.T) {
	const n = 50
	msgs := buildThread(n)

	flat := FlattenedReplies(msgs, 1)
	if len(flat) != n {
		t.Fatalf("flattened replies = %d, want %d", len(flat), n)
	}

	byID := make(map[uint]models.Message)
	for _, m := range msgs {
		byID[m.ID] = m
	}
	for _, m := range flat {
		parent := byID[*m.ParentID]
		if Depth(m, msgs) != Depth(parent, msgs)+1 {
			t.Fatalf("depth of %d not parent+1", m.ID)
		}
	}
	if Depth(msgs[0], msgs) != 0 {
		t.Fatalf("root depth must be 0")
	}
}

func TestTopLevelAndDirectReplies(t *testing.T) {
	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		msg(1, nil, base),
		msg(2, nil, base.Add(time.Minute)),
		msg(3, pid(1), base.Add(3*time.Minute)),
		msg(4, pid(1), base.Add(2*time.Minute)),
		msg(5, pid(3), base.Add(4*time.Minute)),
	}

	tops := TopLevel(msgs)
	if len(tops) != 2 {
		t.Fatalf("top level = %d, want 2", len(tops))
	}

	// 同级回复按时间升序
	replies := DirectReplies(msgs, 1)
	if len(replies) != 2 || replies[0].ID != 4 || replies[1].ID != 3 {
		t.Fatalf("direct replies order wrong: %+v", replies)
	}
}

// TestFlattenedCycleSafe 父引用悬空不在批次里时按非后代处理，不能死循环
func TestFlattenedCycleSafe(t *testing.T) {
	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		msg(1, nil, base),
		msg(2, pid(99), base.Add(time.Minute)), // 父引用不存在
		msg(3, pid(1), base.Add(2*time.Minute)),
	}

	done := make(chan []models.Message, 1)
	go func() { done <- FlattenedReplies(msgs, 1) }()
	select {
	case flat := <-done:
		if len(flat) != 1 || flat[0].ID != 3 {
			t.Fatalf("dangling parent must not count as descendant: %+v", flat)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("FlattenedReplies did not terminate")
	}
}

// TestSortTop 得分降序，同分早发在前
func TestSortTop(t *testing.T) {
	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	a := msg(1, nil, base)
	a.Upvotes = 3
	b := msg(2, nil, base.Add(time.Minute))
	b.Upvotes = 5
	b.Downvotes = 1
	c := msg(3, nil, base.Add(2*time.Minute))
	c.Upvotes = 4 // 与 b 同分（5-1=4），但晚发

	sorted := Sort([]models.Message{c, a, b}, SortTop)
	if sorted[0].ID != 2 || sorted[1].ID != 3 || sorted[2].ID != 1 {
		t.Fatalf("top sort wrong: %d %d %d", sorted[0].ID, sorted[1].ID, sorted[2].ID)
	}
}

func TestSortNewOld(t *testing.T) {
	base := time.Date(2025, 4, 1, 8, 0, 0, 0, time.UTC)
	msgs := []models.Message{
		msg(1, nil, base),
		msg(2, nil, base.Add(time.Minute)),
		msg(3, nil, base.Add(2*time.Minute)),
	}

	newest := Sort(msgs, SortNew)
	if newest[0].ID != 3 || newest[2].ID != 1 {
		t.Fatalf("new sort wrong")
	}
	oldest := Sort(msgs, SortOld)
	if oldest[0].ID != 1 || oldest[2].ID != 3 {
		t.Fatalf("old sort wrong")
	}
}

// TestPageMonotonic 续页是同一序列的向后切片，且不重排
func TestPageMonotonic(t *testing.T) {
	msgs := buildThread(30)
	sorted := Sort(msgs, SortOld)

	first := Page(sorted, 0, 10)
	second := Page(sorted, 10, 10)
	if len(first) != 10 || len(second) != 10 {
		t.Fatalf("page sizes: %d, %d", len(first), len(second))
	}
	if first[9].ID == second[0].ID {
		t.Fatal("pages must not overlap")
	}
	if !first[9].CreatedAt.Before(second[0].CreatedAt) {
		t.Fatal("continuation must extend the same order")
	}

	// 越界返回空页，limit<=0 用默认页大小
	if got := Page(sorted, 1000, 10); got != nil {
		t.Fatalf("out of range page should be nil")
	}
	if got := Page(sorted, 0, 0); len(got) != DefaultPageSize {
		t.Fatalf("default page size = %d, want %d", len(got), DefaultPageSize)
	}
}

func TestScore(t *testing.T) {
	m := models.Message{Upvotes: 7, Downvotes: 3}
	if m.Score() != 4 {
		t.Fatalf("score = %d", m.Score())
	}
}
