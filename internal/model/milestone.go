package model

import (
	"time"

	"gorm.io/gorm"
)

// Milestone 项目里程碑：按顺序分批放款的资金计划
type Milestone struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	CampaignID uint `json:"campaign_id" gorm:"not null;uniqueIndex:idx_milestone_campaign_seq"`

	// 序号从1开始且连续，里程碑只能在前一个放款完成后推进
	SequenceIndex int    `json:"sequence_index" gorm:"not null;uniqueIndex:idx_milestone_campaign_seq"`
	Title         string `json:"title"`

	PaymentAmount float64 `json:"payment_amount" gorm:"type:decimal(15,2);not null"`

	Status         MilestoneStatus `json:"status" gorm:"default:'pending'"`
	ProofReference string          `json:"proof_reference"`
	CompletedAt    *time.Time      `json:"completed_at"`
	ReleasedAt     *time.Time      `json:"released_at"`

	// 关联
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
}

// MilestoneStatus 里程碑状态
type MilestoneStatus string

const (
	MilestoneStatusPending         MilestoneStatus = "pending"          // 待开始
	MilestoneStatusInProgress      MilestoneStatus = "in_progress"      // 进行中
	MilestoneStatusCompleted       MilestoneStatus = "completed"        // 已完成待放款
	MilestoneStatusPaymentReleased MilestoneStatus = "payment_released" // 已放款
)
