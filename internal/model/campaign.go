package model

import (
	"time"

	"gorm.io/gorm"
)

// Campaign 融资项目模型
type Campaign struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// 基本信息
	Title       string `json:"title" gorm:"not null" binding:"required"`
	Description string `json:"description" gorm:"type:text"`

	// 创建者信息
	OwnerID   string `json:"owner_id" gorm:"not null;index"`
	OwnerName string `json:"owner_name"`

	// 融资信息
	FundingGoal          float64 `json:"funding_goal" gorm:"type:decimal(15,2);not null" binding:"required,min=0"`
	CurrentFunding       float64 `json:"current_funding" gorm:"type:decimal(15,2);default:0"`
	EquityOfferedPercent float64 `json:"equity_offered_percent" gorm:"type:decimal(5,2);default:0"`

	// 阶段与状态
	Stage  CampaignStage  `json:"stage" gorm:"default:'idea'"`
	Status CampaignStatus `json:"status" gorm:"default:'active'"`

	// 关联
	Bids       []Bid       `json:"bids,omitempty" gorm:"foreignKey:CampaignID"`
	Milestones []Milestone `json:"milestones,omitempty" gorm:"foreignKey:CampaignID"`
}

// CampaignStage 项目阶段
type CampaignStage string

const (
	CampaignStageIdea      CampaignStage = "idea"      // 创意期
	CampaignStagePrototype CampaignStage = "prototype" // 原型期
	CampaignStageMVP       CampaignStage = "mvp"       // MVP
	CampaignStageScaling   CampaignStage = "scaling"   // 扩张期
)

// IsValid 阶段是否合法
func (s CampaignStage) IsValid() bool {
	switch s {
	case CampaignStageIdea, CampaignStagePrototype, CampaignStageMVP, CampaignStageScaling:
		return true
	}
	return false
}

// CampaignStatus 项目状态
type CampaignStatus string

const (
	CampaignStatusActive    CampaignStatus = "active"    // 融资中
	CampaignStatusCompleted CampaignStatus = "completed" // 已完成
	CampaignStatusCancelled CampaignStatus = "cancelled" // 已取消
)
