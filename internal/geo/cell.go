package geo

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// CellSize 网格单元边长（米），全局固定
const CellSize = 100.0

// earthRadius Web Mercator 投影球半径（米）
const earthRadius = 6378137.0

// maxLatitude Mercator 投影的纬度上限，超出后 tan 发散
const maxLatitude = 85.05112878

// Coordinate 经纬度坐标（度，WGS84）
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// CellIndex 平面网格单元索引
type CellIndex struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// clampLat 将纬度收敛到投影可用区间。NaN 必须在这里拦截，
// 否则会产生 NaN 单元索引并静默破坏分区。
func clampLat(lat float64) float64 {
	if math.IsNaN(lat) {
		return 0
	}
	if lat > maxLatitude {
		return maxLatitude
	}
	if lat < -maxLatitude {
		return -maxLatitude
	}
	return lat
}

func clampLng(lng float64) float64 {
	if math.IsNaN(lng) {
		return 0
	}
	if lng > 180 {
		return 180
	}
	if lng < -180 {
		return -180
	}
	return lng
}

// project 经纬度 -> Mercator 平面米坐标
func project(c Coordinate) (x, y float64) {
	lat := clampLat(c.Lat) * math.Pi / 180
	lng := clampLng(c.Lng) * math.Pi / 180
	x = earthRadius * lng
	y = earthRadius * math.Log(math.Tan(math.Pi/4+lat/2))
	return
}

// unproject 平面米坐标 -> 经纬度
func unproject(x, y float64) Coordinate {
	lng := x / earthRadius * 180 / math.Pi
	lat := (2*math.Atan(math.Exp(y/earthRadius)) - math.Pi/2) * 180 / math.Pi
	return Coordinate{Lat: lat, Lng: lng}
}

// CellIndexAt 计算坐标所在的网格单元。对任意输入都是确定的全函数。
func CellIndexAt(c Coordinate) CellIndex {
	x, y := project(c)
	return CellIndex{
		X: int(math.Floor(x / CellSize)),
		Y: int(math.Floor(y / CellSize)),
	}
}

// ID 单元索引的字符串形式 "{x}:{y}"，与 ParseCellID 严格互逆
func (i CellIndex) ID() string {
	return fmt.Sprintf("%d:%d", i.X, i.Y)
}

// ParseCellID 解析 "{x}:{y}"，负数索引正常处理，格式错误返回 error
func ParseCellID(s string) (CellIndex, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return CellIndex{}, fmt.Errorf("invalid cell id %q", s)
	}
	x, err := strconv.Atoi(parts[0])
	if err != nil {
		return CellIndex{}, fmt.Errorf("invalid cell id %q: %w", s, err)
	}
	y, err := strconv.Atoi(parts[1])
	if err != nil {
		return CellIndex{}, fmt.Errorf("invalid cell id %q: %w", s, err)
	}
	return CellIndex{X: x, Y: y}, nil
}

// Corners 单元的四角多边形（度），逆时针：西南、东南、东北、西北
func (i CellIndex) Corners() [4]Coordinate {
	minX := float64(i.X) * CellSize
	minY := float64(i.Y) * CellSize
	maxX := minX + CellSize
	maxY := minY + CellSize
	return [4]Coordinate{
		unproject(minX, minY),
		unproject(maxX, minY),
		unproject(maxX, maxY),
		unproject(minX, maxY),
	}
}

// Center 单元中心点坐标，用于热力图展示
func (i CellIndex) Center() Coordinate {
	cx := float64(i.X)*CellSize + CellSize/2
	cy := float64(i.Y)*CellSize + CellSize/2
	return unproject(cx, cy)
}
