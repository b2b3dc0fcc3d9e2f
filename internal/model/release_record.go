package model

import (
	"time"
)

// ReleaseRecord 放款记录：每次资金入账（里程碑放款或捐赠入账）生成一条审计记录
type ReleaseRecord struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`

	CampaignID  uint        `json:"campaign_id" gorm:"not null;index"`
	MilestoneID *uint       `json:"milestone_id" gorm:"index"`
	BidID       *uint       `json:"bid_id" gorm:"index"`
	Amount      float64     `json:"amount" gorm:"type:decimal(15,2);not null"`
	Kind        ReleaseKind `json:"kind" gorm:"not null"`
}

// ReleaseKind 放款类型
type ReleaseKind string

const (
	ReleaseKindMilestone ReleaseKind = "milestone_payment" // 里程碑放款
	ReleaseKindDonation  ReleaseKind = "donation"          // 捐赠出价接受时入账
)
