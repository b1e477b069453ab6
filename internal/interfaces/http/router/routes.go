// Package router 提供 HTTP 路由配置
package router

import (
	"github.com/gin-gonic/gin"

	"storymagic-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(
	v1 *gin.RouterGroup,
	authHandler *handler.AuthHandler,
	userHandler *handler.UserHandler,
	tierHandler *handler.TierHandler,
	storyHandler *handler.StoryHandler,
	continuationHandler *handler.ContinuationHandler,
	generateHandler *handler.GenerateHandler,
) {
	// 认证管理
	auth := v1.Group("/auth")
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.RefreshToken)
		auth.POST("/logout", authHandler.Logout)
	}

	// 用户管理
	users := v1.Group("/users")
	{
		users.GET("/me", userHandler.GetMe)
		users.PUT("/me", userHandler.UpdateMe)
		users.POST("/me/avatar", userHandler.UploadAvatar)
	}

	// 订阅套餐
	tiers := v1.Group("/tiers")
	{
		tiers.GET("", tierHandler.List)
	}

	// 故事管理
	stories := v1.Group("/stories")
	{
		stories.GET("", storyHandler.List)
		stories.POST("", storyHandler.Generate)
		stories.GET("/:id", storyHandler.Get)
		stories.DELETE("/:id", storyHandler.Delete)
		stories.POST("/:id/repair-images", storyHandler.RepairImages)

		// 故事下的续写
		stories.POST("/:id/continue", continuationHandler.Continue)
		stories.GET("/:id/continuations", storyHandler.ListContinuations)
		stories.GET("/:id/continuations/:continuationId", continuationHandler.Get)
	}

	// 低层生成接口
	generate := v1.Group("/generate")
	{
		generate.POST("/story", generateHandler.Story)
		generate.POST("/image", generateHandler.Image)
		generate.POST("/compress-image", generateHandler.Compress)
		generate.POST("/caption", generateHandler.Caption)
	}
}
