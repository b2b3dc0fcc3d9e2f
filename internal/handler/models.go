package handler

import (
	"github.com/blues/ims/internal/model"
)

// 通用响应结构
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data"`
}

// 分页信息结构
type Pagination struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

// CreateCampaignRequest 创建项目请求
type CreateCampaignRequest struct {
	Title                string                 `json:"title" binding:"required"`
	Description          string                 `json:"description"`
	OwnerName            string                 `json:"owner_name"`
	FundingGoal          float64                `json:"funding_goal" binding:"required"`
	EquityOfferedPercent float64                `json:"equity_offered_percent"`
	Stage                string                 `json:"stage" binding:"required"`
	Milestones           []MilestonePlanRequest `json:"milestones"`
}

// MilestonePlanRequest 里程碑计划项
type MilestonePlanRequest struct {
	Title         string  `json:"title"`
	PaymentAmount float64 `json:"payment_amount" binding:"required"`
}

// CampaignDetailResponse 项目详情投影：含进度与当前用户背书标记
type CampaignDetailResponse struct {
	Campaign        *model.Campaign `json:"campaign"`
	ProgressPercent float64         `json:"progress_percent"`
	ValidationCount int64           `json:"validation_count"`
	HasValidated    bool            `json:"has_validated"`
}

// SubmitBidRequest 提交出价请求
type SubmitBidRequest struct {
	BidderName             string  `json:"bidder_name"`
	Amount                 float64 `json:"amount" binding:"required"`
	EquityRequestedPercent float64 `json:"equity_requested_percent"`
}

// FormConsortiumRequest 组建联合体请求
type FormConsortiumRequest struct {
	Name   string `json:"name" binding:"required"`
	BidIDs []uint `json:"bid_ids" binding:"required"`
}

// SetVotingPowerRequest 调整投票权重请求
type SetVotingPowerRequest struct {
	VotingPowerPercent int `json:"voting_power_percent"`
}

// SubmitProofRequest 提交完成证明请求
type SubmitProofRequest struct {
	ProofReference string `json:"proof_reference" binding:"required"`
}

// ApproveMilestoneRequest 放款审批请求
// 调用者自动计入批准人；co_approvers用于代收的联合体批量投票
type ApproveMilestoneRequest struct {
	CoApprovers []string `json:"co_approvers"`
}
