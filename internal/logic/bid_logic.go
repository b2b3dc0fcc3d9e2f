package logic

import (
	"errors"
	"time"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
	"gorm.io/gorm"
)

// BidLogic 出价业务逻辑
type BidLogic struct {
	db *gorm.DB
}

// NewBidLogic 创建出价业务逻辑
func NewBidLogic(db *gorm.DB) *BidLogic {
	return &BidLogic{db: db}
}

// SubmitBid 提交出价
// 投资模式提交投资出价；捐赠模式提交无股权捐赠出价（股权强制为0）；其他模式拒绝
func (l *BidLogic) SubmitBid(campaignID uint, bidderID, bidderName string,
	mode model.ContributionMode, amount, equityRequestedPercent float64) (*model.Bid, error) {

	action := ActionSubmitBid
	kind := model.BidKindInvestment
	if mode == model.ModeDonating {
		action = ActionDirectContribute
		kind = model.BidKindDonation
		equityRequestedPercent = 0
	}
	if err := Authorize(mode, action); err != nil {
		return nil, err
	}

	if amount <= 0 {
		return nil, apperr.Invariantf("出价金额必须大于0")
	}
	if equityRequestedPercent < 0 || equityRequestedPercent > 100 {
		return nil, apperr.Invariantf("请求股权比例必须在0-100之间")
	}

	var campaign model.Campaign
	if err := l.db.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("融资项目不存在")
		}
		return nil, apperr.Transient(err)
	}
	if campaign.Status != model.CampaignStatusActive {
		return nil, apperr.NotFoundf("项目不在融资中，无法接受出价")
	}

	bid := &model.Bid{
		CampaignID:             campaignID,
		BidderID:               bidderID,
		BidderName:             bidderName,
		Amount:                 amount,
		EquityRequestedPercent: equityRequestedPercent,
		Kind:                   kind,
		Status:                 model.BidStatusPending,
		SubmittedAt:            time.Now(),
	}
	if err := l.db.Create(bid).Error; err != nil {
		return nil, apperr.Transient(err)
	}

	return bid, nil
}

// AcceptBid 接受出价，仅项目所有者
// 股权总和校验在接受事务内加锁执行：并发提交安全，并发接受时后提交者校验失败
func (l *BidLogic) AcceptBid(bidID uint, actorID string) (*model.Bid, error) {
	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	bid, campaign, err := l.loadBidWithCampaign(tx, bidID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if campaign.OwnerID != actorID {
		tx.Rollback()
		return nil, apperr.Unauthorizedf("仅项目所有者可以接受出价")
	}
	if bid.Status.IsFinal() {
		tx.Rollback()
		return nil, apperr.Invariantf("出价已定案（%s），无法接受", bid.Status)
	}
	if campaign.Status != model.CampaignStatusActive {
		tx.Rollback()
		return nil, apperr.Invariantf("项目不在融资中，无法接受出价")
	}

	// 已接受出价的股权总和加上本次不得超过出让比例
	var acceptedEquity float64
	if err := tx.Model(&model.Bid{}).
		Where("campaign_id = ? AND status = ?", bid.CampaignID, model.BidStatusAccepted).
		Select("COALESCE(SUM(equity_requested_percent), 0)").
		Scan(&acceptedEquity).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}
	if acceptedEquity+bid.EquityRequestedPercent > campaign.EquityOfferedPercent {
		tx.Rollback()
		return nil, apperr.Invariantf("接受后股权总和 %.2f%% 将超过出让比例 %.2f%%",
			acceptedEquity+bid.EquityRequestedPercent, campaign.EquityOfferedPercent)
	}

	if err := tx.Model(bid).Update("status", model.BidStatusAccepted).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	// 捐赠出价在接受时直接入账；投资出价的资金只通过里程碑放款确认
	if bid.Kind == model.BidKindDonation {
		if err := applyFundRelease(tx, bid.CampaignID, bid.Amount); err != nil {
			tx.Rollback()
			return nil, err
		}
		record := &model.ReleaseRecord{
			CampaignID: bid.CampaignID,
			BidID:      &bid.ID,
			Amount:     bid.Amount,
			Kind:       model.ReleaseKindDonation,
		}
		if err := tx.Create(record).Error; err != nil {
			tx.Rollback()
			return nil, apperr.Transient(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	bid.Status = model.BidStatusAccepted
	return bid, nil
}

// RejectBid 拒绝出价，仅项目所有者，出价须为待处理状态
func (l *BidLogic) RejectBid(bidID uint, actorID string) (*model.Bid, error) {
	return l.finalizeBid(bidID, model.BidStatusRejected, func(bid *model.Bid, campaign *model.Campaign) error {
		if campaign.OwnerID != actorID {
			return apperr.Unauthorizedf("仅项目所有者可以拒绝出价")
		}
		return nil
	})
}

// WithdrawBid 撤回出价，仅出价人本人，出价须为待处理状态
func (l *BidLogic) WithdrawBid(bidID uint, actorID string) (*model.Bid, error) {
	return l.finalizeBid(bidID, model.BidStatusWithdrawn, func(bid *model.Bid, campaign *model.Campaign) error {
		if bid.BidderID != actorID {
			return apperr.Unauthorizedf("仅出价人可以撤回出价")
		}
		return nil
	})
}

// GetCampaignBids 获取项目出价列表
func (l *BidLogic) GetCampaignBids(campaignID uint) ([]model.Bid, error) {
	var bids []model.Bid
	if err := l.db.Where("campaign_id = ?", campaignID).
		Order("submitted_at DESC").
		Find(&bids).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	return bids, nil
}

// finalizeBid 待处理出价的终态变更（拒绝/撤回共用）
func (l *BidLogic) finalizeBid(bidID uint, target model.BidStatus,
	authorize func(*model.Bid, *model.Campaign) error) (*model.Bid, error) {

	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	bid, campaign, err := l.loadBidWithCampaign(tx, bidID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := authorize(bid, campaign); err != nil {
		tx.Rollback()
		return nil, err
	}
	if bid.Status.IsFinal() {
		tx.Rollback()
		return nil, apperr.Invariantf("出价已定案（%s），无法变更", bid.Status)
	}

	if err := tx.Model(bid).Update("status", target).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	bid.Status = target
	return bid, nil
}

// loadBidWithCampaign 加载出价并锁定其项目行
func (l *BidLogic) loadBidWithCampaign(tx *gorm.DB, bidID uint) (*model.Bid, *model.Campaign, error) {
	var bid model.Bid
	if err := tx.First(&bid, bidID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFoundf("出价不存在")
		}
		return nil, nil, apperr.Transient(err)
	}

	var campaign model.Campaign
	if err := lockForUpdate(tx).First(&campaign, bid.CampaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFoundf("融资项目不存在")
		}
		return nil, nil, apperr.Transient(err)
	}

	return &bid, &campaign, nil
}
