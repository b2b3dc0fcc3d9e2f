package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/ims/internal/cache"
	"github.com/blues/ims/internal/event"
	"github.com/blues/ims/internal/identity"
	"github.com/blues/ims/internal/logic"
	"github.com/blues/ims/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type CampaignHandler struct {
	campaignLogic   *logic.CampaignLogic
	validationLogic *logic.ValidationLogic
	events          *event.Dispatcher
}

func NewCampaignHandler(db *gorm.DB, cacheClient *cache.Client, events *event.Dispatcher) *CampaignHandler {
	return &CampaignHandler{
		campaignLogic:   logic.NewCampaignLogic(db),
		validationLogic: logic.NewValidationLogic(db, cacheClient),
		events:          events,
	}
}

// CreateCampaign 创建融资项目
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	userID, ok := identity.CurrentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}

	var req CreateCampaignRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	plans := make([]logic.MilestonePlan, 0, len(req.Milestones))
	for _, m := range req.Milestones {
		plans = append(plans, logic.MilestonePlan{
			Title:         m.Title,
			PaymentAmount: m.PaymentAmount,
		})
	}

	campaign, err := h.campaignLogic.CreateCampaign(logic.CreateCampaignInput{
		OwnerID:              userID,
		OwnerName:            req.OwnerName,
		Title:                req.Title,
		Description:          req.Description,
		FundingGoal:          req.FundingGoal,
		EquityOfferedPercent: req.EquityOfferedPercent,
		Stage:                model.CampaignStage(req.Stage),
		Milestones:           plans,
	})
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(campaign.ID, event.TypeCampaignCreated, map[string]interface{}{
		"owner_id":     campaign.OwnerID,
		"funding_goal": campaign.FundingGoal,
	})

	SuccessResponse(c, http.StatusCreated, "项目创建成功", campaign)
}

// GetCampaigns 获取项目列表
func (h *CampaignHandler) GetCampaigns(c *gin.Context) {
	status := c.Query("status")
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))

	campaigns, total, err := h.campaignLogic.GetCampaigns(status, page, pageSize)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"campaigns":  campaigns,
		"pagination": Pagination{Page: page, PageSize: pageSize, Total: total},
	})
}

// GetCampaign 获取项目详情投影：进度、里程碑列表、背书数量与当前用户背书标记
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	campaign, err := h.campaignLogic.GetCampaign(id)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	count, err := h.validationLogic.CountValidations(c.Request.Context(), id)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	hasValidated := false
	if userID, ok := identity.CurrentUserID(c); ok {
		hasValidated, err = h.validationLogic.HasValidated(id, userID)
		if err != nil {
			ErrorFrom(c, err)
			return
		}
	}

	c.JSON(http.StatusOK, gin.H{"data": CampaignDetailResponse{
		Campaign:        campaign,
		ProgressPercent: logic.FundingProgressPercent(campaign),
		ValidationCount: count,
		HasValidated:    hasValidated,
	}})
}

// CancelCampaign 取消项目
func (h *CampaignHandler) CancelCampaign(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	userID, _ := identity.CurrentUserID(c)
	campaign, err := h.campaignLogic.CancelCampaign(id, userID)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(campaign.ID, event.TypeCampaignCancelled, map[string]interface{}{
		"owner_id": campaign.OwnerID,
	})

	SuccessResponse(c, http.StatusOK, "项目已取消", campaign)
}

// parseID 解析路径中的实体ID
func parseID(c *gin.Context) (uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	return uint(id), err
}
