package store

import (
	"errors"
	"testing"

	"gridtalk/internal/geo"
)

// TestCountsNearBounding 半径 150m = 2 个单元，偏移 (0,0) 和 (1,0) 计入，(10,0) 排除
func TestCountsNearBounding(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")

	center := geo.Coordinate{Lat: 39.9042, Lng: 116.4074}
	centerIdx := geo.CellIndexAt(center)
	day := "2025-06-01"

	post := func(dx, dy, n int) {
		idx := geo.CellIndex{X: centerIdx.X + dx, Y: centerIdx.Y + dy}
		pk := geo.PartitionKey(idx, day)
		for i := 0; i < n; i++ {
			if _, err := s.Post("hi", pk, u.ID, nil); err != nil {
				t.Fatalf("post: %v", err)
			}
		}
	}
	post(0, 0, 2)
	post(1, 0, 3)
	post(10, 0, 1)

	counts, err := s.CountsNear(center, 150, day)
	if err != nil {
		t.Fatalf("CountsNear: %v", err)
	}
	if len(counts) != 2 {
		t.Fatalf("cells = %d, want 2: %v", len(counts), counts)
	}
	if counts[centerIdx.ID()] != 2 {
		t.Fatalf("center cell count = %d", counts[centerIdx.ID()])
	}
	near := geo.CellIndex{X: centerIdx.X + 1, Y: centerIdx.Y}
	if counts[near.ID()] != 3 {
		t.Fatalf("adjacent cell count = %d", counts[near.ID()])
	}
	far := geo.CellIndex{X: centerIdx.X + 10, Y: centerIdx.Y}
	if _, ok := counts[far.ID()]; ok {
		t.Fatal("cell outside radius must be excluded")
	}
}

// TestCountsNearDayScoped 别的日子的分区不计入
func TestCountsNearDayScoped(t *testing.T) {
	s := newTestStore(t)
	u := newTestUser(t, s, "alice")

	center := geo.Coordinate{Lat: 31.2304, Lng: 121.4737}
	idx := geo.CellIndexAt(center)

	if _, err := s.Post("today", geo.PartitionKey(idx, "2025-06-01"), u.ID, nil); err != nil {
		t.Fatalf("post: %v", err)
	}
	if _, err := s.Post("yesterday", geo.PartitionKey(idx, "2025-05-31"), u.ID, nil); err != nil {
		t.Fatalf("post: %v", err)
	}

	counts, err := s.CountsNear(center, 500, "2025-06-01")
	if err != nil {
		t.Fatalf("CountsNear: %v", err)
	}
	if counts[idx.ID()] != 1 {
		t.Fatalf("count = %d, want 1 (other day leaked in)", counts[idx.ID()])
	}
}

// TestCountsNearEmpty 没有命中返回空 map，不是错误
func TestCountsNearEmpty(t *testing.T) {
	s := newTestStore(t)

	counts, err := s.CountsNear(geo.Coordinate{Lat: 0, Lng: 0}, 500, "2025-06-01")
	if err != nil {
		t.Fatalf("CountsNear: %v", err)
	}
	if len(counts) != 0 {
		t.Fatalf("want empty map, got %v", counts)
	}
}

func TestCountsNearValidation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.CountsNear(geo.Coordinate{}, 500, "not-a-day"); !errors.Is(err, ErrValidation) {
		t.Fatalf("bad day should be ErrValidation, got %v", err)
	}
	if _, err := s.CountsNear(geo.Coordinate{}, -5, "2025-06-01"); !errors.Is(err, ErrValidation) {
		t.Fatalf("negative radius should be ErrValidation, got %v", err)
	}
}
