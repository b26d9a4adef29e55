package geo

import (
	"fmt"
	"strings"
	"time"
)

// dayLayout 分区日期格式
const dayLayout = "2006-01-02"

// DayKey 按发帖进程的本地时钟取日历日。不做时区归一化，
// 跨时区用户在日界线附近可能落入不同分区，现状保留。
func DayKey(t time.Time) string {
	return t.Format(dayLayout)
}

// ValidDayKey 校验 "yyyy-MM-dd" 格式
func ValidDayKey(s string) bool {
	_, err := time.Parse(dayLayout, s)
	return err == nil
}

// PartitionKey 组合单元与日历日 "{x}:{y}_{yyyy-MM-dd}"，消息按它分组
func PartitionKey(idx CellIndex, day string) string {
	return idx.ID() + "_" + day
}

// PartitionKeyAt 坐标 + 时间直接得到分区键
func PartitionKeyAt(c Coordinate, t time.Time) string {
	return PartitionKey(CellIndexAt(c), DayKey(t))
}

// ParsePartitionKey 拆出单元索引和日期。CellID 内不含下划线，
// 所以按第一个 "_" 切分即可。
func ParsePartitionKey(s string) (CellIndex, string, error) {
	parts := strings.SplitN(s, "_", 2)
	if len(parts) != 2 {
		return CellIndex{}, "", fmt.Errorf("invalid partition key %q", s)
	}
	idx, err := ParseCellID(parts[0])
	if err != nil {
		return CellIndex{}, "", fmt.Errorf("invalid partition key %q: %w", s, err)
	}
	if !ValidDayKey(parts[1]) {
		return CellIndex{}, "", fmt.Errorf("invalid partition key %q: bad day", s)
	}
	return idx, parts[1], nil
}
