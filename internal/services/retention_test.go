package services

import (
	"fmt"
	"testing"
	"time"

	"gridtalk/internal/db"
	"gridtalk/internal/geo"
	"gridtalk/internal/models"
	"gridtalk/internal/utils"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupDB(t *testing.T) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%s?mode=memory&cache=shared", t.Name(), utils.RandStringBytesMaskImpr(6))
	gdb, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := gdb.AutoMigrate(&models.User{}, &models.Message{}, &models.Vote{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	db.DB = gdb
}

// TestSweep 过期日分区连消息带投票清掉，保留期内的不动
func TestSweep(t *testing.T) {
	setupDB(t)

	mk := func(day string) *models.Message {
		m := &models.Message{
			Mid:          utils.RandStringBytesMaskImpr(8),
			UserID:       1,
			AuthorName:   "alice",
			Content:      "x",
			PartitionKey: geo.PartitionKey(geo.CellIndex{X: 0, Y: 0}, day),
			DayKey:       day,
		}
		if err := db.DB.Create(m).Error; err != nil {
			t.Fatalf("create: %v", err)
		}
		return m
	}

	oldDay := geo.DayKey(time.Now().AddDate(0, 0, -30))
	freshDay := geo.DayKey(time.Now())
	old := mk(oldDay)
	fresh := mk(freshDay)
	db.DB.Create(&models.Vote{UserID: 2, MessageID: old.ID, Value: 1})
	db.DB.Create(&models.Vote{UserID: 2, MessageID: fresh.ID, Value: 1})

	svc := &RetentionService{days: defaultRetentionDays}
	svc.Sweep()

	var msgs int64
	db.DB.Model(&models.Message{}).Count(&msgs)
	if msgs != 1 {
		t.Fatalf("messages left = %d, want 1", msgs)
	}
	var votes int64
	db.DB.Model(&models.Vote{}).Count(&votes)
	if votes != 1 {
		t.Fatalf("votes left = %d, want 1 (expired vote must go too)", votes)
	}
	var survivor models.Message
	if err := db.DB.First(&survivor).Error; err != nil || survivor.ID != fresh.ID {
		t.Fatalf("wrong survivor: %+v, %v", survivor, err)
	}
}
