package model

import (
	"time"
)

// Validation 非资金类支持背书，每个用户对同一项目至多一条
// 不使用软删除，避免删除后复插与唯一索引冲突
type Validation struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignID uint   `json:"campaign_id" gorm:"not null;uniqueIndex:idx_validation_campaign_user"`
	UserID     string `json:"user_id" gorm:"not null;uniqueIndex:idx_validation_campaign_user"`
}
