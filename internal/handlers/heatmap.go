package handlers

import (
	"fmt"
	"net/http"
	"time"

	"gridtalk/internal/geo"
	"gridtalk/internal/store"
	"gridtalk/internal/utils"

	"github.com/gin-gonic/gin"
)

type HeatmapHandler struct {
	store *store.Store
}

func NewHeatmapHandler(st *store.Store) *HeatmapHandler {
	return &HeatmapHandler{store: st}
}

type heatmapCell struct {
	CellID string  `json:"cell_id"`
	Count  int     `json:"count"`
	Lat    float64 `json:"lat"` // 单元中心点，供地图层摆放
	Lng    float64 `json:"lng"`
}

// Near 附近单元的活跃度热力图。结果按中心单元+半径+日期做 30 秒缓存，
// 同一屏幕上的反复拖动不会每次都打到库。
func (h *HeatmapHandler) Near(c *gin.Context) {
	lat := utils.StringToFloat(c.Query("lat"))
	lng := utils.StringToFloat(c.Query("lng"))
	radius := utils.StringToFloat(c.DefaultQuery("radius", "500"))
	day := c.DefaultQuery("day", geo.DayKey(time.Now()))

	center := geo.Coordinate{Lat: lat, Lng: lng}
	centerIdx := geo.CellIndexAt(center)

	cacheKey := fmt.Sprintf("heatmap:%s:%s:%.0f", centerIdx.ID(), day, radius)
	if cached := utils.GetCache().Get(cacheKey); cached != nil {
		if cells, ok := cached.([]heatmapCell); ok {
			c.JSON(http.StatusOK, gin.H{"day": day, "cells": cells})
			return
		}
	}

	counts, err := h.store.CountsNear(center, radius, day)
	if err != nil {
		failStore(c, err)
		return
	}

	cells := make([]heatmapCell, 0, len(counts))
	for id, count := range counts {
		idx, err := geo.ParseCellID(id)
		if err != nil {
			continue
		}
		ctr := idx.Center()
		cells = append(cells, heatmapCell{CellID: id, Count: count, Lat: ctr.Lat, Lng: ctr.Lng})
	}

	utils.GetCache().Set(cacheKey, cells, 30*time.Second)

	c.JSON(http.StatusOK, gin.H{"day": day, "cells": cells})
}
