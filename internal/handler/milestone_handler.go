package handler

import (
	"net/http"

	"github.com/blues/ims/internal/config"
	"github.com/blues/ims/internal/event"
	"github.com/blues/ims/internal/identity"
	"github.com/blues/ims/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type MilestoneHandler struct {
	milestoneLogic *logic.MilestoneLogic
	events         *event.Dispatcher
}

func NewMilestoneHandler(db *gorm.DB, cfg *config.Config, events *event.Dispatcher) *MilestoneHandler {
	return &MilestoneHandler{
		milestoneLogic: logic.NewMilestoneLogic(db, cfg.Policy.ApprovalThresholdPercent),
		events:         events,
	}
}

// GetCampaignMilestones 获取项目里程碑状态列表
func (h *MilestoneHandler) GetCampaignMilestones(c *gin.Context) {
	campaignID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	milestones, err := h.milestoneLogic.GetCampaignMilestones(campaignID)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"milestones": milestones})
}

// StartMilestone 开始里程碑
func (h *MilestoneHandler) StartMilestone(c *gin.Context) {
	milestoneID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	userID, ok := identity.CurrentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}

	milestone, err := h.milestoneLogic.StartMilestone(milestoneID, userID)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(milestone.CampaignID, event.TypeMilestoneStarted, map[string]interface{}{
		"milestone_id":   milestone.ID,
		"sequence_index": milestone.SequenceIndex,
	})

	SuccessResponse(c, http.StatusOK, "里程碑已开始", milestone)
}

// SubmitProof 提交里程碑完成证明
func (h *MilestoneHandler) SubmitProof(c *gin.Context) {
	milestoneID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	userID, ok := identity.CurrentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}

	var req SubmitProofRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	milestone, err := h.milestoneLogic.SubmitProof(milestoneID, userID, req.ProofReference)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(milestone.CampaignID, event.TypeMilestoneProof, map[string]interface{}{
		"milestone_id":    milestone.ID,
		"proof_reference": milestone.ProofReference,
	})

	SuccessResponse(c, http.StatusOK, "完成证明已提交", milestone)
}

// ApproveAndRelease 审批并放款，调用者自动计入批准人
func (h *MilestoneHandler) ApproveAndRelease(c *gin.Context) {
	milestoneID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的里程碑ID")
		return
	}

	userID, ok := identity.CurrentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}

	var req ApproveMilestoneRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	approvers := append([]string{userID}, req.CoApprovers...)
	milestone, err := h.milestoneLogic.ApproveAndRelease(milestoneID, approvers)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(milestone.CampaignID, event.TypeMilestoneReleased, map[string]interface{}{
		"milestone_id":   milestone.ID,
		"payment_amount": milestone.PaymentAmount,
		"approvers":      approvers,
	})

	SuccessResponse(c, http.StatusOK, "里程碑放款完成", milestone)
}
