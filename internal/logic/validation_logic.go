package logic

import (
	"context"
	"errors"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/cache"
	"github.com/blues/ims/internal/model"
	"gorm.io/gorm"
)

// ValidationLogic 支持背书业务逻辑
type ValidationLogic struct {
	db    *gorm.DB
	cache *cache.Client
}

// NewValidationLogic 创建背书业务逻辑，cache可为nil
func NewValidationLogic(db *gorm.DB, cacheClient *cache.Client) *ValidationLogic {
	return &ValidationLogic{db: db, cache: cacheClient}
}

// AddValidation 添加背书，仅限支持模式，每用户每项目至多一条
// 去重由存储层唯一索引原子保证，并发重复插入同样表现为已背书冲突
func (l *ValidationLogic) AddValidation(ctx context.Context, campaignID uint, userID string,
	mode model.ContributionMode) (*model.Validation, error) {

	if err := Authorize(mode, ActionValidate); err != nil {
		return nil, err
	}
	if userID == "" {
		return nil, apperr.Invariantf("用户ID不能为空")
	}

	var campaign model.Campaign
	if err := l.db.First(&campaign, campaignID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFoundf("融资项目不存在")
		}
		return nil, apperr.Transient(err)
	}

	validation := &model.Validation{
		CampaignID: campaignID,
		UserID:     userID,
	}
	if err := l.db.Create(validation).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, apperr.Conflictf("您已支持过该项目")
		}
		return nil, apperr.Transient(err)
	}

	l.cache.Delete(ctx, cache.ValidationCountKey(campaignID))
	return validation, nil
}

// RemoveValidation 移除背书，幂等删除，不存在时不报错
func (l *ValidationLogic) RemoveValidation(ctx context.Context, campaignID uint, userID string) error {
	res := l.db.Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Delete(&model.Validation{})
	if res.Error != nil {
		return apperr.Transient(res.Error)
	}

	if res.RowsAffected > 0 {
		l.cache.Delete(ctx, cache.ValidationCountKey(campaignID))
	}
	return nil
}

// CountValidations 统计项目背书数量，走旁路缓存
func (l *ValidationLogic) CountValidations(ctx context.Context, campaignID uint) (int64, error) {
	key := cache.ValidationCountKey(campaignID)
	if count, ok := l.cache.GetInt64(ctx, key); ok {
		return count, nil
	}

	var count int64
	if err := l.db.Model(&model.Validation{}).
		Where("campaign_id = ?", campaignID).
		Count(&count).Error; err != nil {
		return 0, apperr.Transient(err)
	}

	l.cache.SetInt64(ctx, key, count)
	return count, nil
}

// HasValidated 当前用户是否已背书该项目
func (l *ValidationLogic) HasValidated(campaignID uint, userID string) (bool, error) {
	var count int64
	if err := l.db.Model(&model.Validation{}).
		Where("campaign_id = ? AND user_id = ?", campaignID, userID).
		Count(&count).Error; err != nil {
		return false, apperr.Transient(err)
	}
	return count > 0, nil
}
