package scheduler

import (
	"time"

	"github.com/blues/ims/internal/config"
	"github.com/blues/ims/internal/logger"
	"github.com/blues/ims/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// CampaignStatusJob 项目状态对账任务
// 结项在放款事务内完成，此任务是补偿路径：修复因历史数据或中断事务遗留的未结项项目
type CampaignStatusJob struct {
	db     *gorm.DB
	config *config.Config
}

// NewCampaignStatusJob 创建项目状态对账任务
func NewCampaignStatusJob(db *gorm.DB, cfg *config.Config) *CampaignStatusJob {
	return &CampaignStatusJob{
		db:     db,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *CampaignStatusJob) GetName() string {
	return "campaign_status_reconciler"
}

// GetSchedule 获取调度配置
func (j *CampaignStatusJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务
func (j *CampaignStatusJob) Execute() {
	logger.Info("Starting campaign status reconciliation")

	var campaigns []model.Campaign
	err := j.db.Where("status = ? AND current_funding >= funding_goal", model.CampaignStatusActive).
		Find(&campaigns).Error
	if err != nil {
		logger.Error("Failed to fetch campaigns: %v", err)
		return
	}

	updatedCount := 0
	for _, campaign := range campaigns {
		var unreleased int64
		err := j.db.Model(&model.Milestone{}).
			Where("campaign_id = ? AND status <> ?", campaign.ID, model.MilestoneStatusPaymentReleased).
			Count(&unreleased).Error
		if err != nil {
			logger.Error("Failed to count milestones for campaign %d: %v", campaign.ID, err)
			continue
		}
		if unreleased > 0 {
			continue
		}

		if err := j.db.Model(&campaign).Update("status", model.CampaignStatusCompleted).Error; err != nil {
			logger.Error("Failed to complete campaign %d: %v", campaign.ID, err)
			continue
		}

		logger.Info("Campaign %d reconciled to completed", campaign.ID)
		updatedCount++
	}

	logger.Info("Campaign status reconciliation done. Updated %d campaigns", updatedCount)
}
