package logic

import (
	"errors"
	"time"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
	"gorm.io/gorm"
)

// DefaultApprovalThresholdPercent 联合体放款审批的默认投票权重阈值
const DefaultApprovalThresholdPercent = 50

// MilestoneLogic 里程碑状态机
// 状态流转 pending → in_progress → completed → payment_released，且受前序里程碑放款门控
type MilestoneLogic struct {
	db *gorm.DB
	// 联合体审批阈值为策略配置，不是常量
	approvalThresholdPercent int
}

// NewMilestoneLogic 创建里程碑状态机
func NewMilestoneLogic(db *gorm.DB, approvalThresholdPercent int) *MilestoneLogic {
	if approvalThresholdPercent <= 0 || approvalThresholdPercent > 100 {
		approvalThresholdPercent = DefaultApprovalThresholdPercent
	}
	return &MilestoneLogic{db: db, approvalThresholdPercent: approvalThresholdPercent}
}

// GetCampaignMilestones 获取项目里程碑列表，按序号排列
func (l *MilestoneLogic) GetCampaignMilestones(campaignID uint) ([]model.Milestone, error) {
	var milestones []model.Milestone
	if err := l.db.Where("campaign_id = ?", campaignID).
		Order("sequence_index ASC").
		Find(&milestones).Error; err != nil {
		return nil, apperr.Transient(err)
	}
	return milestones, nil
}

// StartMilestone 开始里程碑：pending → in_progress
// 序号n的里程碑只有在序号n-1已放款后才能离开pending（序号1无前序）
func (l *MilestoneLogic) StartMilestone(milestoneID uint, actorID string) (*model.Milestone, error) {
	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	milestone, campaign, err := l.loadMilestoneWithCampaign(tx, milestoneID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if campaign.OwnerID != actorID {
		tx.Rollback()
		return nil, apperr.Unauthorizedf("仅项目所有者可以开始里程碑")
	}
	if campaign.Status != model.CampaignStatusActive {
		tx.Rollback()
		return nil, apperr.Invariantf("项目不在融资中，无法开始里程碑")
	}
	if milestone.Status != model.MilestoneStatusPending {
		tx.Rollback()
		return nil, apperr.Invariantf("里程碑当前状态为 %s，无法开始", milestone.Status)
	}
	if err := l.checkPredecessorReleased(tx, milestone); err != nil {
		tx.Rollback()
		return nil, err
	}

	if err := tx.Model(milestone).Update("status", model.MilestoneStatusInProgress).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	milestone.Status = model.MilestoneStatusInProgress
	return milestone, nil
}

// SubmitProof 提交完成证明：in_progress → completed
func (l *MilestoneLogic) SubmitProof(milestoneID uint, actorID, proofReference string) (*model.Milestone, error) {
	if proofReference == "" {
		return nil, apperr.Invariantf("完成证明不能为空")
	}

	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	milestone, campaign, err := l.loadMilestoneWithCampaign(tx, milestoneID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	if campaign.OwnerID != actorID {
		tx.Rollback()
		return nil, apperr.Unauthorizedf("仅项目所有者可以提交完成证明")
	}
	if milestone.Status != model.MilestoneStatusInProgress {
		tx.Rollback()
		return nil, apperr.Invariantf("里程碑当前状态为 %s，无法提交完成证明", milestone.Status)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":          model.MilestoneStatusCompleted,
		"proof_reference": proofReference,
		"completed_at":    &now,
	}
	if err := tx.Model(milestone).Updates(updates).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	milestone.Status = model.MilestoneStatusCompleted
	milestone.ProofReference = proofReference
	milestone.CompletedAt = &now
	return milestone, nil
}

// ApproveAndRelease 审批放款：completed → payment_released
// 独立出资：任一已接受出价人的批准即可
// 联合体出资：批准成员的投票权重合计须达到阈值
// 对已放款里程碑重复调用是幂等的no-op，放款入账与状态翻转在同一事务内，重复投递不会重复入账
func (l *MilestoneLogic) ApproveAndRelease(milestoneID uint, approverIDs []string) (*model.Milestone, error) {
	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	milestone, campaign, err := l.loadMilestoneWithCampaign(tx, milestoneID)
	if err != nil {
		tx.Rollback()
		return nil, err
	}

	// 幂等：已放款直接返回当前快照
	if milestone.Status == model.MilestoneStatusPaymentReleased {
		tx.Rollback()
		return milestone, nil
	}
	if milestone.Status != model.MilestoneStatusCompleted {
		tx.Rollback()
		return nil, apperr.Invariantf("里程碑当前状态为 %s，未完成无法放款", milestone.Status)
	}
	if campaign.Status != model.CampaignStatusActive {
		tx.Rollback()
		return nil, apperr.Invariantf("项目不在融资中，无法放款")
	}

	if err := l.checkApproval(tx, campaign, approverIDs); err != nil {
		tx.Rollback()
		return nil, err
	}

	// 状态翻转带条件，作为放款副作用的门闩
	now := time.Now()
	res := tx.Model(&model.Milestone{}).
		Where("id = ? AND status = ?", milestoneID, model.MilestoneStatusCompleted).
		Updates(map[string]interface{}{
			"status":      model.MilestoneStatusPaymentReleased,
			"released_at": &now,
		})
	if res.Error != nil {
		tx.Rollback()
		return nil, apperr.Transient(res.Error)
	}
	if res.RowsAffected == 0 {
		// 并发调用已完成放款
		tx.Rollback()
		return l.getMilestone(milestoneID)
	}

	if err := applyFundRelease(tx, milestone.CampaignID, milestone.PaymentAmount); err != nil {
		tx.Rollback()
		return nil, err
	}

	record := &model.ReleaseRecord{
		CampaignID:  milestone.CampaignID,
		MilestoneID: &milestone.ID,
		Amount:      milestone.PaymentAmount,
		Kind:        model.ReleaseKindMilestone,
	}
	if err := tx.Create(record).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	milestone.Status = model.MilestoneStatusPaymentReleased
	milestone.ReleasedAt = &now
	return milestone, nil
}

// checkApproval 校验放款审批是否达标
func (l *MilestoneLogic) checkApproval(tx *gorm.DB, campaign *model.Campaign, approverIDs []string) error {
	if len(approverIDs) == 0 {
		return apperr.Unauthorizedf("放款审批需要至少一个出资人批准")
	}

	// 项目若有已激活联合体则按投票权重审批
	var consortium model.Consortium
	err := tx.Preload("Members.Bid").
		Where("campaign_id = ? AND status = ?", campaign.ID, model.ConsortiumStatusActive).
		First(&consortium).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Transient(err)
	}

	if err == nil {
		approvers := make(map[string]bool, len(approverIDs))
		for _, id := range approverIDs {
			approvers[id] = true
		}

		approvedPower := 0
		for _, member := range consortium.Members {
			if member.Bid.Status == model.BidStatusAccepted && approvers[member.Bid.BidderID] {
				approvedPower += member.VotingPowerPercent
			}
		}
		if approvedPower < l.approvalThresholdPercent {
			return apperr.Unauthorizedf("批准投票权重 %d%% 未达到阈值 %d%%",
				approvedPower, l.approvalThresholdPercent)
		}
		return nil
	}

	// 独立出资：批准人中须有该项目的已接受出价人
	var count int64
	if err := tx.Model(&model.Bid{}).
		Where("campaign_id = ? AND bidder_id IN ? AND status = ?",
			campaign.ID, approverIDs, model.BidStatusAccepted).
		Count(&count).Error; err != nil {
		return apperr.Transient(err)
	}
	if count == 0 {
		return apperr.Unauthorizedf("批准人中没有该项目的已接受出价人")
	}
	return nil
}

// checkPredecessorReleased 前序里程碑放款门控
func (l *MilestoneLogic) checkPredecessorReleased(tx *gorm.DB, milestone *model.Milestone) error {
	if milestone.SequenceIndex <= 1 {
		return nil
	}

	var predecessor model.Milestone
	err := tx.Where("campaign_id = ? AND sequence_index = ?",
		milestone.CampaignID, milestone.SequenceIndex-1).
		First(&predecessor).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperr.Invariantf("里程碑序号不连续：缺少序号 %d", milestone.SequenceIndex-1)
		}
		return apperr.Transient(err)
	}
	if predecessor.Status != model.MilestoneStatusPaymentReleased {
		return apperr.Invariantf("序号 %d 的里程碑尚未放款，无法推进序号 %d",
			predecessor.SequenceIndex, milestone.SequenceIndex)
	}
	return nil
}

// loadMilestoneWithCampaign 加载里程碑并锁定其项目行
func (l *MilestoneLogic) loadMilestoneWithCampaign(tx *gorm.DB, milestoneID uint) (*model.Milestone, *model.Campaign, error) {
	var milestone model.Milestone
	if err := lockForUpdate(tx).First(&milestone, milestoneID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFoundf("里程碑不存在")
		}
		return nil, nil, apperr.Transient(err)
	}

	var campaign model.Campaign
	if err := lockForUpdate(tx).First(&campaign, milestone.CampaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, apperr.NotFoundf("融资项目不存在")
		}
		return nil, nil, apperr.Transient(err)
	}

	return &milestone, &campaign, nil
}

func (l *MilestoneLogic) getMilestone(id uint) (*model.Milestone, error) {
	var milestone model.Milestone
	if err := l.db.First(&milestone, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("里程碑不存在")
		}
		return nil, apperr.Transient(err)
	}
	return &milestone, nil
}
