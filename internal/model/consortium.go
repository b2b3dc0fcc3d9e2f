package model

import (
	"time"

	"gorm.io/gorm"
)

// Consortium 投资联合体：多个已接受出价组成的联合投票实体
type Consortium struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	CampaignID uint   `json:"campaign_id" gorm:"not null;index"`
	Name       string `json:"name" gorm:"not null"`

	Status ConsortiumStatus `json:"status" gorm:"default:'forming'"`

	// 关联：联合体单向持有成员列表，成员行记录出价ID与投票权重
	Members []ConsortiumMember `json:"members,omitempty" gorm:"foreignKey:ConsortiumID"`
}

// TableName 自定义表名，避免依赖复数推断
func (Consortium) TableName() string {
	return "consortiums"
}

// ConsortiumMember 联合体成员
type ConsortiumMember struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	ConsortiumID uint `json:"consortium_id" gorm:"not null;index"`
	BidID        uint `json:"bid_id" gorm:"not null;index"`

	// 投票权重为整数百分比，激活时全体成员之和必须等于100
	VotingPowerPercent int `json:"voting_power_percent" gorm:"not null;default:0"`

	// 关联
	Bid Bid `json:"bid,omitempty" gorm:"foreignKey:BidID"`
}

// TableName 自定义表名
func (ConsortiumMember) TableName() string {
	return "consortium_members"
}

// ConsortiumStatus 联合体状态
type ConsortiumStatus string

const (
	ConsortiumStatusForming   ConsortiumStatus = "forming"   // 组建中
	ConsortiumStatusActive    ConsortiumStatus = "active"    // 已激活
	ConsortiumStatusDissolved ConsortiumStatus = "dissolved" // 已解散
)
