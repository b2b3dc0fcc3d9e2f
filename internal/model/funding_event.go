package model

import (
	"time"
)

// FundingEvent 资金生命周期事件，只追加不修改
type FundingEvent struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	EventID    string `json:"event_id" gorm:"not null;uniqueIndex"`
	CampaignID uint   `json:"campaign_id" gorm:"not null;index"`
	EventType  string `json:"event_type" gorm:"not null;index"`
	Payload    string `json:"payload" gorm:"type:text"`
}
