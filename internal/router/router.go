package router

import (
	"gridtalk/internal/handlers"
	"gridtalk/internal/middleware"
	"gridtalk/internal/store"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, st *store.Store) {
	// Handlers
	authHandler := handlers.NewAuthHandler()
	messageHandler := handlers.NewMessageHandler(st)
	heatmapHandler := handlers.NewHeatmapHandler(st)
	userHandler := handlers.NewUserHandler(st)

	// 公共路由 (Public Routes)
	r.GET("/feed", messageHandler.Feed)       // 单元-日分区消息流
	r.GET("/m/:mid", messageHandler.Detail)   // 消息详情 + 回复
	r.GET("/heatmap", heatmapHandler.Near)    // 附近活跃度热力图
	r.GET("/u/:id", userHandler.Profile)      // 用户主页

	r.POST("/signup", authHandler.Register) // 提交注册
	r.POST("/login", authHandler.Login)     // 提交登录
	r.POST("/logout", authHandler.Logout)   // 退出登录

	// 受保护路由 (Protected Routes)
	authorized := r.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.POST("/m", messageHandler.Create)        // 发消息/回复
		authorized.POST("/vote/:mid", messageHandler.Vote)  // 投票/撤票
		authorized.DELETE("/m/:mid", messageHandler.Delete) // 删除消息（级联子树）

		authorized.POST("/account/username", userHandler.Rename)    // 改用户名
		authorized.DELETE("/account", userHandler.DeleteAccount)    // 注销账号
	}
}
