package store

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"gridtalk/internal/geo"
	"gridtalk/internal/models"
	"gridtalk/internal/utils"

	"gorm.io/gorm"
)

// Store 消息/投票/用户状态的唯一拥有者。
// 所有写操作经 mu 串行化，级联删除在单个事务里完成，
// 避免投票指向已删消息这类撕裂状态。读操作直接走 gorm。
type Store struct {
	db *gorm.DB
	mu sync.Mutex
}

func New(gdb *gorm.DB) *Store {
	return &Store{db: gdb}
}

// Post 在指定分区发布消息。正文为空白返回 ErrValidation；
// parentID 指向的消息必须已存在且在同一分区，否则 ErrNotFound。
func (s *Store) Post(content, partitionKey string, userID uint, parentID *uint) (*models.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: empty content", ErrValidation)
	}
	_, day, err := geo.ParsePartitionKey(partitionKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var msg *models.Message
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("%w: author %d", ErrNotFound, userID)
		}

		if parentID != nil {
			var parent models.Message
			if err := tx.First(&parent, *parentID).Error; err != nil {
				return fmt.Errorf("%w: parent %d", ErrNotFound, *parentID)
			}
			// 回复必须落在父消息所在的单元-日分区内
			if parent.PartitionKey != partitionKey {
				return fmt.Errorf("%w: parent %d not in partition %s", ErrNotFound, *parentID, partitionKey)
			}
		}

		msg = &models.Message{
			Mid:          utils.RandStringBytesMaskImpr(8),
			UserID:       user.ID,
			AuthorName:   user.Username,
			Content:      content,
			PartitionKey: partitionKey,
			DayKey:       day,
			ParentID:     parentID,
		}
		return tx.Create(msg).Error
	})
	if err != nil {
		return nil, err
	}
	return msg, nil
}

// FetchByPartition 取一个分区的全部消息，新帖在前，
// 并批量填充投票计数和 viewer 自己的投票状态。
func (s *Store) FetchByPartition(partitionKey string, viewerID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.Where("partition_key = ?", partitionKey).
		Order("created_at DESC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	s.fillVoteState(msgs, viewerID)
	return msgs, nil
}

// FetchByAuthor 取某作者的全部消息，跨分区，新帖在前，用于个人主页
func (s *Store) FetchByAuthor(userID uint) ([]models.Message, error) {
	var msgs []models.Message
	if err := s.db.Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&msgs).Error; err != nil {
		return nil, err
	}
	s.fillVoteState(msgs, 0)
	return msgs, nil
}

// GetByMid 按公开 ID 查单条消息
func (s *Store) GetByMid(mid string, viewerID uint) (*models.Message, error) {
	var msg models.Message
	if err := s.db.Where("mid = ?", mid).First(&msg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: message %s", ErrNotFound, mid)
		}
		return nil, err
	}
	one := []models.Message{msg}
	s.fillVoteState(one, viewerID)
	return &one[0], nil
}

// GetUser 按 ID 查用户
func (s *Store) GetUser(userID uint) (*models.User, error) {
	var user models.User
	if err := s.db.First(&user, userID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}
		return nil, err
	}
	return &user, nil
}

// SetVote 设置投票。value 取 1/-1/0，0 表示撤销；
// 重复同值幂等，换值覆盖。消息不存在返回 ErrNotFound。
func (s *Store) SetVote(messageID, userID uint, value int) error {
	if value != 1 && value != -1 && value != 0 {
		return fmt.Errorf("%w: vote value %d", ErrValidation, value)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		if err := tx.First(&msg, messageID).Error; err != nil {
			return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
		}

		var existing models.Vote
		err := tx.Where("user_id = ? AND message_id = ?", userID, messageID).First(&existing).Error
		switch {
		case err == nil && value == 0:
			return tx.Delete(&existing).Error
		case err == nil && existing.Value == value:
			return nil // 幂等
		case err == nil:
			return tx.Model(&existing).UpdateColumn("value", value).Error
		case errors.Is(err, gorm.ErrRecordNotFound) && value == 0:
			return nil // 无票可撤
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(&models.Vote{UserID: userID, MessageID: messageID, Value: value}).Error
		default:
			return err
		}
	})
}

// Delete 删除消息及其整棵回复子树（沿 parent 链级联，连同相关投票）。
// byUserID 不是作者时静默不处理——这是既定的非对抗信任模型，不是遗漏。
func (s *Store) Delete(messageID, byUserID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var msg models.Message
		if err := tx.First(&msg, messageID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("%w: message %d", ErrNotFound, messageID)
			}
			return err
		}
		if msg.UserID != byUserID {
			return nil
		}
		return deleteSubtrees(tx, []uint{msg.ID})
	})
}

// RenameAuthor 改用户名并级联刷新该作者所有历史消息上的冗余展示名。
// 预检只是提前报错，真正的唯一性由 username_lower 的唯一索引在写入时兜底。
func (s *Store) RenameAuthor(userID uint, newUsername string) error {
	if !utils.ValidUsername(newUsername) {
		return fmt.Errorf("%w: bad username %q", ErrValidation, newUsername)
	}
	lower := utils.NormalizeUsername(newUsername)

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}

		var taken int64
		tx.Model(&models.User{}).
			Where("username_lower = ? AND id != ?", lower, userID).
			Count(&taken)
		if taken > 0 {
			return fmt.Errorf("%w: username %q taken", ErrConflict, newUsername)
		}

		err := tx.Model(&user).Updates(map[string]interface{}{
			"username":       newUsername,
			"username_lower": lower,
		}).Error
		if err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				// 并发改名输掉竞争，和预检结论一致
				return fmt.Errorf("%w: username %q taken", ErrConflict, newUsername)
			}
			return err
		}

		return tx.Model(&models.Message{}).
			Where("user_id = ?", userID).
			UpdateColumn("author_name", newUsername).Error
	})
}

// DeleteAccount 删除账号：档案、名下全部消息（含各自的回复子树）、
// 以及该用户打在其他消息上的票，整体一个事务。
func (s *Store) DeleteAccount(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.db.Transaction(func(tx *gorm.DB) error {
		var user models.User
		if err := tx.First(&user, userID).Error; err != nil {
			return fmt.Errorf("%w: user %d", ErrNotFound, userID)
		}

		var ownIDs []uint
		if err := tx.Model(&models.Message{}).
			Where("user_id = ?", userID).
			Pluck("id", &ownIDs).Error; err != nil {
			return err
		}
		if err := deleteSubtrees(tx, ownIDs); err != nil {
			return err
		}

		// 撤掉该用户留在幸存消息上的票
		if err := tx.Where("user_id = ?", userID).Delete(&models.Vote{}).Error; err != nil {
			return err
		}
		return tx.Delete(&user).Error
	})
}

// deleteSubtrees 从给定根集合出发收集整棵回复子树并删除，投票一并清理。
// parent 一定先于 child 创建，树上不会有环，逐层展开即可收敛。
func deleteSubtrees(tx *gorm.DB, roots []uint) error {
	if len(roots) == 0 {
		return nil
	}
	all := make([]uint, 0, len(roots))
	seen := make(map[uint]bool, len(roots))
	frontier := roots
	for _, id := range roots {
		seen[id] = true
	}
	for len(frontier) > 0 {
		all = append(all, frontier...)
		var children []uint
		if err := tx.Model(&models.Message{}).
			Where("parent_id IN ?", frontier).
			Pluck("id", &children).Error; err != nil {
			return err
		}
		frontier = frontier[:0]
		for _, id := range children {
			if !seen[id] {
				seen[id] = true
				frontier = append(frontier, id)
			}
		}
	}

	if err := tx.Where("message_id IN ?", all).Delete(&models.Vote{}).Error; err != nil {
		return err
	}
	return tx.Where("id IN ?", all).Delete(&models.Message{}).Error
}

// fillVoteState 批量填充赞/踩计数和 viewer 的投票值，
// 避免每条消息一次往返。
func (s *Store) fillVoteState(msgs []models.Message, viewerID uint) {
	if len(msgs) == 0 {
		return
	}

	ids := make([]uint, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}

	type countRow struct {
		MessageID uint
		Value     int
		Count     int
	}
	var rows []countRow
	s.db.Model(&models.Vote{}).
		Select("message_id, value, COUNT(*) as count").
		Where("message_id IN ?", ids).
		Group("message_id, value").
		Scan(&rows)

	up := make(map[uint]int)
	down := make(map[uint]int)
	for _, r := range rows {
		if r.Value == 1 {
			up[r.MessageID] = r.Count
		} else if r.Value == -1 {
			down[r.MessageID] = r.Count
		}
	}

	viewer := make(map[uint]int)
	if viewerID > 0 {
		var votes []models.Vote
		s.db.Where("user_id = ? AND message_id IN ?", viewerID, ids).Find(&votes)
		for _, v := range votes {
			viewer[v.MessageID] = v.Value
		}
	}

	for i := range msgs {
		msgs[i].Upvotes = up[msgs[i].ID]
		msgs[i].Downvotes = down[msgs[i].ID]
		msgs[i].ViewerVote = viewer[msgs[i].ID]
	}
}
