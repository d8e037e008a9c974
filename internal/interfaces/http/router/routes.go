package router

import (
	"github.com/gin-gonic/gin"

	"promo-script-ai-api/internal/interfaces/http/handler"
)

// RegisterV1Routes 注册 v1 版本路由
func RegisterV1Routes(v1 *gin.RouterGroup, scriptHandler *handler.ScriptHandler, aiHandler *handler.AIHandler) {
	// 脚本生成与素材补全
	scripts := v1.Group("/scripts")
	{
		scripts.POST("/variations", scriptHandler.GenerateVariations)
		scripts.POST("/enrich", scriptHandler.Enrich)
		scripts.GET("/generations", scriptHandler.ListGenerations)
		scripts.GET("/generations/:id", scriptHandler.GetGeneration)
	}

	// 通用 AI 能力
	ai := v1.Group("/ai")
	{
		ai.POST("/completion", aiHandler.Completion)
		ai.POST("/embeddings", aiHandler.Embeddings)
		ai.POST("/video-script", scriptHandler.GenerateVariations)
	}
}
