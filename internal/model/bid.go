package model

import (
	"time"

	"gorm.io/gorm"
)

// Bid 出价记录
type Bid struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	CampaignID uint   `json:"campaign_id" gorm:"not null;index"`
	BidderID   string `json:"bidder_id" gorm:"not null;index"`
	BidderName string `json:"bidder_name"`

	Amount                 float64 `json:"amount" gorm:"type:decimal(15,2);not null"`
	EquityRequestedPercent float64 `json:"equity_requested_percent" gorm:"type:decimal(5,2);default:0"`

	// kind 在提交时根据参与模式确定，捐赠出价股权恒为0
	Kind        BidKind   `json:"kind" gorm:"default:'investment'"`
	Status      BidStatus `json:"status" gorm:"default:'pending'"`
	SubmittedAt time.Time `json:"submitted_at"`

	// 关联
	Campaign Campaign `json:"campaign,omitempty" gorm:"foreignKey:CampaignID"`
}

// BidKind 出价类型
type BidKind string

const (
	BidKindInvestment BidKind = "investment" // 投资出价
	BidKindDonation   BidKind = "donation"   // 捐赠出价
)

// BidStatus 出价状态
type BidStatus string

const (
	BidStatusPending   BidStatus = "pending"   // 待处理
	BidStatusAccepted  BidStatus = "accepted"  // 已接受
	BidStatusRejected  BidStatus = "rejected"  // 已拒绝
	BidStatusWithdrawn BidStatus = "withdrawn" // 已撤回
)

// IsFinal 出价是否已定案（非待处理状态不可再变更）
func (s BidStatus) IsFinal() bool {
	return s != BidStatusPending
}
