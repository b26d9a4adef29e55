package store

import (
	"fmt"
	"math"

	"gridtalk/internal/geo"
	"gridtalk/internal/models"
)

// CountsNear 统计某日、中心点附近各单元的消息数。
// 半径先换算成单元数（向上取整），再按两轴偏移过滤出正方形邻域——
// 是方形不是圆形，这是有意的简化。没有命中时返回空 map。
func (s *Store) CountsNear(center geo.Coordinate, radiusMeters float64, day string) (map[string]int, error) {
	if !geo.ValidDayKey(day) {
		return nil, fmt.Errorf("%w: bad day %q", ErrValidation, day)
	}
	if radiusMeters < 0 || math.IsNaN(radiusMeters) {
		return nil, fmt.Errorf("%w: bad radius %v", ErrValidation, radiusMeters)
	}

	radiusCells := int(math.Ceil(radiusMeters / geo.CellSize))
	centerIdx := geo.CellIndexAt(center)

	// day_key 有索引，按日过滤后才按分区分组，避免全表扫
	type countRow struct {
		PartitionKey string
		Count        int
	}
	var rows []countRow
	if err := s.db.Model(&models.Message{}).
		Select("partition_key, COUNT(*) as count").
		Where("day_key = ?", day).
		Group("partition_key").
		Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int)
	for _, r := range rows {
		idx, _, err := geo.ParsePartitionKey(r.PartitionKey)
		if err != nil {
			// 库里出现坏键只跳过，不让单条脏数据拖垮整个聚合
			continue
		}
		dx := idx.X - centerIdx.X
		dy := idx.Y - centerIdx.Y
		if abs(dx) <= radiusCells && abs(dy) <= radiusCells {
			counts[idx.ID()] += r.Count
		}
	}
	return counts, nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
