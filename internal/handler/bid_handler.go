package handler

import (
	"net/http"

	"github.com/blues/ims/internal/event"
	"github.com/blues/ims/internal/identity"
	"github.com/blues/ims/internal/logic"
	"github.com/blues/ims/internal/model"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type BidHandler struct {
	bidLogic *logic.BidLogic
	events   *event.Dispatcher
}

func NewBidHandler(db *gorm.DB, events *event.Dispatcher) *BidHandler {
	return &BidHandler{
		bidLogic: logic.NewBidLogic(db),
		events:   events,
	}
}

// SubmitBid 提交出价，参与模式决定投资/捐赠路径
func (h *BidHandler) SubmitBid(c *gin.Context) {
	campaignID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	userID, ok := identity.CurrentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}
	mode, _ := identity.CurrentMode(c)

	var req SubmitBidRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		ErrorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	bid, err := h.bidLogic.SubmitBid(campaignID, userID, req.BidderName,
		mode, req.Amount, req.EquityRequestedPercent)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(bid.CampaignID, event.TypeBidSubmitted, map[string]interface{}{
		"bid_id":    bid.ID,
		"bidder_id": bid.BidderID,
		"amount":    bid.Amount,
		"kind":      bid.Kind,
	})

	SuccessResponse(c, http.StatusCreated, "出价提交成功", bid)
}

// GetCampaignBids 获取项目出价列表
func (h *BidHandler) GetCampaignBids(c *gin.Context) {
	campaignID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的项目ID")
		return
	}

	bids, err := h.bidLogic.GetCampaignBids(campaignID)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"bids": bids})
}

// AcceptBid 接受出价
func (h *BidHandler) AcceptBid(c *gin.Context) {
	h.transition(c, "出价已接受", event.TypeBidAccepted, h.bidLogic.AcceptBid)
}

// RejectBid 拒绝出价
func (h *BidHandler) RejectBid(c *gin.Context) {
	h.transition(c, "出价已拒绝", event.TypeBidRejected, h.bidLogic.RejectBid)
}

// WithdrawBid 撤回出价
func (h *BidHandler) WithdrawBid(c *gin.Context) {
	h.transition(c, "出价已撤回", event.TypeBidWithdrawn, h.bidLogic.WithdrawBid)
}

// transition 出价状态变更的公共处理
func (h *BidHandler) transition(c *gin.Context, message, eventType string,
	op func(uint, string) (*model.Bid, error)) {

	bidID, err := parseID(c)
	if err != nil {
		ErrorResponse(c, http.StatusBadRequest, "无效的出价ID")
		return
	}

	userID, ok := identity.CurrentUserID(c)
	if !ok {
		ErrorResponse(c, http.StatusUnauthorized, "未登录")
		return
	}

	bid, err := op(bidID, userID)
	if err != nil {
		ErrorFrom(c, err)
		return
	}

	h.events.Publish(bid.CampaignID, eventType, map[string]interface{}{
		"bid_id":   bid.ID,
		"actor_id": userID,
		"status":   bid.Status,
	})

	SuccessResponse(c, http.StatusOK, message, bid)
}
