package router

import (
	"github.com/blues/ims/internal/cache"
	"github.com/blues/ims/internal/config"
	"github.com/blues/ims/internal/event"
	"github.com/blues/ims/internal/handler"
	"github.com/blues/ims/internal/identity"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(db *gorm.DB, cacheClient *cache.Client, events *event.Dispatcher, cfg *config.Config) *gin.Engine {
	r := gin.Default()

	// 中间件
	r.Use(gin.Logger())
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status":  "ok",
			"service": "investment-marketplace-service",
		})
	})

	// API版本组，全部接口要求已登录身份
	v1 := r.Group("/api/v1")
	v1.Use(identity.Middleware(db, cfg.Auth.JWTSecret))
	{
		campaignHandler := handler.NewCampaignHandler(db, cacheClient, events)
		bidHandler := handler.NewBidHandler(db, events)
		milestoneHandler := handler.NewMilestoneHandler(db, cfg, events)
		validationHandler := handler.NewValidationHandler(db, cacheClient, events)

		// 项目相关路由
		campaigns := v1.Group("/campaigns")
		{
			campaigns.POST("", campaignHandler.CreateCampaign)
			campaigns.GET("", campaignHandler.GetCampaigns)
			campaigns.GET("/:id", campaignHandler.GetCampaign)
			campaigns.DELETE("/:id", campaignHandler.CancelCampaign)

			campaigns.GET("/:id/bids", bidHandler.GetCampaignBids)
			campaigns.POST("/:id/bids", bidHandler.SubmitBid)

			campaigns.GET("/:id/milestones", milestoneHandler.GetCampaignMilestones)

			campaigns.POST("/:id/validations", validationHandler.AddValidation)
			campaigns.DELETE("/:id/validations", validationHandler.RemoveValidation)
			campaigns.GET("/:id/validations/count", validationHandler.CountValidations)
		}

		// 出价状态变更
		bids := v1.Group("/bids")
		{
			bids.POST("/:id/accept", bidHandler.AcceptBid)
			bids.POST("/:id/reject", bidHandler.RejectBid)
			bids.POST("/:id/withdraw", bidHandler.WithdrawBid)
		}

		// 联合体相关路由
		consortiumHandler := handler.NewConsortiumHandler(db, events)
		consortiums := v1.Group("/consortiums")
		{
			consortiums.POST("", consortiumHandler.FormConsortium)
			consortiums.GET("/:id", consortiumHandler.GetConsortium)
			consortiums.PUT("/:id/members/:bidId/power", consortiumHandler.SetVotingPower)
			consortiums.DELETE("/:id/members/:bidId", consortiumHandler.RemoveMember)
			consortiums.POST("/:id/activate", consortiumHandler.Activate)
			consortiums.POST("/:id/dissolve", consortiumHandler.Dissolve)
		}

		// 里程碑状态机
		milestones := v1.Group("/milestones")
		{
			milestones.POST("/:id/start", milestoneHandler.StartMilestone)
			milestones.POST("/:id/proof", milestoneHandler.SubmitProof)
			milestones.POST("/:id/approve", milestoneHandler.ApproveAndRelease)
		}
	}

	return r
}

// CORS中间件
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}
