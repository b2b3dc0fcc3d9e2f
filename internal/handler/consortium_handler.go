package handler

import (
	"net/http"
	"strconv"

	"github.com/blues/ims/internal/event"
	"github.com/blues/ims/internal/logic"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ConsortiumHandler struct {
	consortiumLogic *logic.ConsortiumLogic
	events          *event.Dispatcher
}

func NewConsortiumHandler(db *gorm.DB, events *event.Dispatcher) *ConsortiumHandler {
	return &ConsortiumHandler{
		consortiumLogic: logic.NewConsortiumLogic(db),
		events:          events,
	}
}

// FormConsortium 组建联合体
func (h *ConsortiumHandler) FormConsortium(c *gin.Context) {
	var req FormConsortiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	consortium, err := h.consortiumLogic.FormConsortium(req.Name, req.BidIDs)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(consortium.CampaignID, event.TypeConsortiumFormed, map[string]interface{}{
		"consortium_id": consortium.ID,
		"member_count":  len(consortium.Members),
	})

	SuccessResponse(c, http.StatusCreated, "联合体组建成功", consortium)
}

// GetConsortium 获取联合体详情（成员名册与投票权重）
func (h *ConsortiumHandler) GetConsortium(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的联合体ID")
		return
	}

	consortium, err := h.consortiumLogic.GetConsortium(id)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"consortium": consortium})
}

// SetVotingPower 调整成员投票权重
func (h *ConsortiumHandler) SetVotingPower(c *gin.Context) {
	id, bidID, err := parseMemberPath(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径参数")
		return
	}

	var req SetVotingPowerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	consortium, err := h.consortiumLogic.SetVotingPower(id, bidID, req.VotingPowerPercent)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "投票权重已更新", consortium)
}

// RemoveMember 移除联合体成员
func (h *ConsortiumHandler) RemoveMember(c *gin.Context) {
	id, bidID, err := parseMemberPath(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的路径参数")
		return
	}

	consortium, err := h.consortiumLogic.RemoveMember(id, bidID)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	SuccessResponse(c, http.StatusOK, "成员已移除", consortium)
}

// Activate 激活联合体
func (h *ConsortiumHandler) Activate(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的联合体ID")
		return
	}

	consortium, err := h.consortiumLogic.Activate(id)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(consortium.CampaignID, event.TypeConsortiumActive, map[string]interface{}{
		"consortium_id": consortium.ID,
	})

	SuccessResponse(c, http.StatusOK, "联合体已激活", consortium)
}

// Dissolve 解散联合体
func (h *ConsortiumHandler) Dissolve(c *gin.Context) {
	id, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的联合体ID")
		return
	}

	consortium, err := h.consortiumLogic.Dissolve(id)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(consortium.CampaignID, event.TypeConsortiumClosed, map[string]interface{}{
		"consortium_id": consortium.ID,
	})

	SuccessResponse(c, http.StatusOK, "联合体已解散", consortium)
}

// parseMemberPath 解析联合体ID与成员出价ID
func parseMemberPath(c *gin.Context) (uint, uint, error) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return 0, 0, err
	}
	bidID, err := strconv.ParseUint(c.Param("bidId"), 10, 32)
	if err != nil {
		return 0, 0, err
	}
	return uint(id), uint(bidID), nil
}
