package logic

import (
	"errors"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CampaignLogic 融资项目业务逻辑
type CampaignLogic struct {
	db *gorm.DB
}

// NewCampaignLogic 创建融资项目业务逻辑
func NewCampaignLogic(db *gorm.DB) *CampaignLogic {
	return &CampaignLogic{db: db}
}

// MilestonePlan 创建项目时的里程碑计划项
type MilestonePlan struct {
	Title         string
	PaymentAmount float64
}

// CreateCampaignInput 创建项目入参
type CreateCampaignInput struct {
	OwnerID              string
	OwnerName            string
	Title                string
	Description          string
	FundingGoal          float64
	EquityOfferedPercent float64
	Stage                model.CampaignStage
	Milestones           []MilestonePlan
}

// CreateCampaign 创建融资项目并生成里程碑放款计划
func (l *CampaignLogic) CreateCampaign(input CreateCampaignInput) (*model.Campaign, error) {
	if err := validateCampaignInput(input); err != nil {
		return nil, err
	}

	campaign := &model.Campaign{
		Title:                input.Title,
		Description:          input.Description,
		OwnerID:              input.OwnerID,
		OwnerName:            input.OwnerName,
		FundingGoal:          input.FundingGoal,
		EquityOfferedPercent: input.EquityOfferedPercent,
		CurrentFunding:       0,
		Stage:                input.Stage,
		Status:               model.CampaignStatusActive,
	}

	// 开始事务
	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(campaign).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	// 生成里程碑计划，序号从1开始连续
	for i, plan := range input.Milestones {
		milestone := &model.Milestone{
			CampaignID:    campaign.ID,
			SequenceIndex: i + 1,
			Title:         plan.Title,
			PaymentAmount: plan.PaymentAmount,
			Status:        model.MilestoneStatusPending,
		}
		if err := tx.Create(milestone).Error; err != nil {
			tx.Rollback()
			return nil, apperr.Transient(err)
		}
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	return l.GetCampaign(campaign.ID)
}

// GetCampaign 获取项目详情（含里程碑计划）
func (l *CampaignLogic) GetCampaign(id uint) (*model.Campaign, error) {
	var campaign model.Campaign
	err := l.db.
		Preload("Milestones", func(db *gorm.DB) *gorm.DB {
			return db.Order("sequence_index ASC")
		}).
		First(&campaign, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("融资项目不存在")
		}
		return nil, apperr.Transient(err)
	}
	return &campaign, nil
}

// GetCampaigns 获取项目列表
func (l *CampaignLogic) GetCampaigns(status string, page, pageSize int) ([]model.Campaign, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 10
	}

	query := l.db.Model(&model.Campaign{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, apperr.Transient(err)
	}

	var campaigns []model.Campaign
	if err := query.Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&campaigns).Error; err != nil {
		return nil, 0, apperr.Transient(err)
	}

	return campaigns, total, nil
}

// CancelCampaign 取消项目，仅限所有者且没有进行中的里程碑
func (l *CampaignLogic) CancelCampaign(id uint, actorID string) (*model.Campaign, error) {
	tx := l.db.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	var campaign model.Campaign
	if err := lockForUpdate(tx).First(&campaign, id).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("融资项目不存在")
		}
		return nil, apperr.Transient(err)
	}

	if campaign.OwnerID != actorID {
		tx.Rollback()
		return nil, apperr.Unauthorizedf("仅项目所有者可以取消项目")
	}
	if campaign.Status != model.CampaignStatusActive {
		tx.Rollback()
		return nil, apperr.Invariantf("项目当前状态为 %s，无法取消", campaign.Status)
	}

	var inProgress int64
	if err := tx.Model(&model.Milestone{}).
		Where("campaign_id = ? AND status = ?", id, model.MilestoneStatusInProgress).
		Count(&inProgress).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}
	if inProgress > 0 {
		tx.Rollback()
		return nil, apperr.Invariantf("存在进行中的里程碑，无法取消项目")
	}

	if err := tx.Model(&campaign).Update("status", model.CampaignStatusCancelled).Error; err != nil {
		tx.Rollback()
		return nil, apperr.Transient(err)
	}

	if err := tx.Commit().Error; err != nil {
		return nil, apperr.Transient(err)
	}

	campaign.Status = model.CampaignStatusCancelled
	return &campaign, nil
}

// FundingProgressPercent 融资进度百分比，截断到[0,100]避免浮点舍入越界
func FundingProgressPercent(campaign *model.Campaign) float64 {
	if campaign.FundingGoal <= 0 {
		return 0
	}
	percent := campaign.CurrentFunding / campaign.FundingGoal * 100
	if percent < 0 {
		return 0
	}
	if percent > 100 {
		return 100
	}
	return percent
}

// applyFundRelease 条件入账：仅当入账后不超过融资目标时增加当前融资额
// 必须在调用方事务内执行；入账后若全部里程碑已放款且达到目标则自动结项
func applyFundRelease(tx *gorm.DB, campaignID uint, amount float64) error {
	if amount <= 0 {
		return apperr.Invariantf("入账金额必须大于0")
	}

	res := tx.Model(&model.Campaign{}).
		Where("id = ? AND current_funding + ? <= funding_goal", campaignID, amount).
		Update("current_funding", gorm.Expr("current_funding + ?", amount))
	if res.Error != nil {
		return apperr.Transient(res.Error)
	}
	if res.RowsAffected == 0 {
		var campaign model.Campaign
		if err := tx.First(&campaign, campaignID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFoundf("融资项目不存在")
			}
			return apperr.Transient(err)
		}
		return apperr.Invariantf("入账 %.2f 后将超出融资目标 %.2f（当前 %.2f）",
			amount, campaign.FundingGoal, campaign.CurrentFunding)
	}

	// 达到目标且全部里程碑放款完成时自动结项
	var campaign model.Campaign
	if err := tx.First(&campaign, campaignID).Error; err != nil {
		return apperr.Transient(err)
	}
	if campaign.Status == model.CampaignStatusActive && campaign.CurrentFunding >= campaign.FundingGoal {
		var unreleased int64
		if err := tx.Model(&model.Milestone{}).
			Where("campaign_id = ? AND status <> ?", campaignID, model.MilestoneStatusPaymentReleased).
			Count(&unreleased).Error; err != nil {
			return apperr.Transient(err)
		}
		if unreleased == 0 {
			if err := tx.Model(&campaign).Update("status", model.CampaignStatusCompleted).Error; err != nil {
				return apperr.Transient(err)
			}
		}
	}

	return nil
}

// validateCampaignInput 校验项目入参
func validateCampaignInput(input CreateCampaignInput) error {
	if input.OwnerID == "" {
		return apperr.Invariantf("项目所有者不能为空")
	}
	if input.Title == "" {
		return apperr.Invariantf("项目标题不能为空")
	}
	if input.FundingGoal <= 0 {
		return apperr.Invariantf("融资目标必须大于0")
	}
	if input.EquityOfferedPercent < 0 || input.EquityOfferedPercent > 100 {
		return apperr.Invariantf("出让股权比例必须在0-100之间")
	}
	if !input.Stage.IsValid() {
		return apperr.Invariantf("未知的项目阶段: %s", input.Stage)
	}

	// 里程碑金额总和不得超过融资目标（允许小于，不强制相等）
	var total float64
	for i, plan := range input.Milestones {
		if plan.PaymentAmount <= 0 {
			return apperr.Invariantf("第%d个里程碑的放款金额必须大于0", i+1)
		}
		total += plan.PaymentAmount
	}
	if total > input.FundingGoal {
		return apperr.Invariantf("里程碑放款总额 %.2f 超过融资目标 %.2f", total, input.FundingGoal)
	}

	return nil
}

// lockForUpdate 行级锁，并发校验（股权总和、放款）依赖它
// sqlite（测试环境）不支持 SELECT ... FOR UPDATE
func lockForUpdate(tx *gorm.DB) *gorm.DB {
	if tx.Dialector.Name() == "sqlite" {
		return tx
	}
	return tx.Clauses(clause.Locking{Strength: "UPDATE"})
}
