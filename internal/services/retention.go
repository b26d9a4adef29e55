package services

import (
	"log"
	"os"
	"sync"
	"time"

	"gridtalk/internal/db"
	"gridtalk/internal/models"
	"gridtalk/internal/utils"

	"gorm.io/gorm"
)

// 消息生命周期绑在单元-日分区上，过期分区整体清理
const defaultRetentionDays = 7

// RetentionService 后台清理过期日分区的消息和投票
type RetentionService struct {
	days int
}

var (
	retentionService *RetentionService
	once             sync.Once
)

// GetRetentionService 获取单例清理服务
func GetRetentionService() *RetentionService {
	once.Do(func() {
		days := defaultRetentionDays
		if v := os.Getenv("RETENTION_DAYS"); v != "" {
			if n := utils.StringToInt(v); n > 0 {
				days = n
			}
		}
		retentionService = &RetentionService{days: days}
	})
	return retentionService
}

// Start 启动定时清理任务（每天凌晨 3 点执行）
func (s *RetentionService) Start() {
	go func() {
		for {
			// 计算到下一个凌晨 3 点的时间
			now := time.Now()
			next := time.Date(now.Year(), now.Month(), now.Day(), 3, 0, 0, 0, now.Location())
			if now.After(next) {
				next = next.Add(24 * time.Hour)
			}
			time.Sleep(time.Until(next))

			log.Println("开始清理过期分区...")
			s.Sweep()
			log.Println("过期分区清理完成")
		}
	}()
}

// Sweep 删除早于保留期的日分区。day_key 是 "yyyy-MM-dd"，
// 字符串比较即日期比较。消息和对应投票在同一事务里清掉。
func (s *RetentionService) Sweep() {
	cutoff := time.Now().AddDate(0, 0, -s.days).Format("2006-01-02")

	err := db.DB.Transaction(func(tx *gorm.DB) error {
		var ids []uint
		if err := tx.Model(&models.Message{}).
			Where("day_key < ?", cutoff).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		if err := tx.Where("message_id IN ?", ids).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		if err := tx.Where("id IN ?", ids).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		log.Printf("本次清理 %d 条过期消息", len(ids))
		return nil
	})
	if err != nil {
		log.Printf("清理过期分区失败: %v", err)
	}
}
