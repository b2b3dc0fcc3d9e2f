package scheduler

import (
	"context"
	"time"

	"github.com/blues/ims/internal/cache"
	"github.com/blues/ims/internal/config"
	"github.com/blues/ims/internal/logger"
	"github.com/blues/ims/internal/model"
	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// ValidationCountJob 背书数量缓存预热任务
type ValidationCountJob struct {
	db     *gorm.DB
	cache  *cache.Client
	config *config.Config
}

// NewValidationCountJob 创建背书缓存预热任务
func NewValidationCountJob(db *gorm.DB, cacheClient *cache.Client, cfg *config.Config) *ValidationCountJob {
	return &ValidationCountJob{
		db:     db,
		cache:  cacheClient,
		config: cfg,
	}
}

// GetName 获取任务名称
func (j *ValidationCountJob) GetName() string {
	return "validation_count_warmer"
}

// GetSchedule 获取调度配置
func (j *ValidationCountJob) GetSchedule() gocron.JobDefinition {
	return gocron.DurationJob(time.Duration(j.config.Scheduler.Interval) * time.Second)
}

// Execute 执行任务：把融资中项目的背书数量写入缓存
func (j *ValidationCountJob) Execute() {
	if j.cache == nil {
		return
	}

	var rows []struct {
		CampaignID uint
		Count      int64
	}
	err := j.db.Model(&model.Validation{}).
		Select("validations.campaign_id AS campaign_id, COUNT(*) AS count").
		Joins("JOIN campaigns ON campaigns.id = validations.campaign_id").
		Where("campaigns.status = ?", model.CampaignStatusActive).
		Group("validations.campaign_id").
		Scan(&rows).Error
	if err != nil {
		logger.Error("Failed to aggregate validation counts: %v", err)
		return
	}

	ctx := context.Background()
	for _, row := range rows {
		j.cache.SetInt64(ctx, cache.ValidationCountKey(row.CampaignID), row.Count)
	}

	logger.Info("Validation count cache warmed for %d campaigns", len(rows))
}
