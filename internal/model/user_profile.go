package model

import (
	"time"
)

// UserProfile 用户档案：参与模式的权威来源，档案本身由外部系统维护
type UserProfile struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	UserID           string           `json:"user_id" gorm:"not null;uniqueIndex"`
	DisplayName      string           `json:"display_name"`
	ContributionMode ContributionMode `json:"contribution_mode" gorm:"default:'supporting'"`
}

// ContributionMode 参与模式：投资、捐赠、支持三者互斥
type ContributionMode string

const (
	ModeInvesting  ContributionMode = "investing"  // 投资模式
	ModeDonating   ContributionMode = "donating"   // 捐赠模式
	ModeSupporting ContributionMode = "supporting" // 支持模式
)

// IsValid 参与模式是否合法
func (m ContributionMode) IsValid() bool {
	switch m {
	case ModeInvesting, ModeDonating, ModeSupporting:
		return true
	}
	return false
}
