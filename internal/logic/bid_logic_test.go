package logic

import (
	"errors"
	"testing"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
)

func TestSubmitBidModeRouting(t *testing.T) {
	db := newTestDB(t)
	bidLogic := NewBidLogic(db)

	campaign := createTestCampaign(t, db, "owner-1", 50000, 15)

	// 投资模式：正常提交
	bid, err := bidLogic.SubmitBid(campaign.ID, "investor-1", "", model.ModeInvesting, 30000, 8)
	if err != nil {
		t.Fatalf("investing submit failed: %v", err)
	}
	if bid.Kind != model.BidKindInvestment || bid.Status != model.BidStatusPending {
		t.Fatalf("unexpected bid %+v", bid)
	}

	// 捐赠模式：股权强制归零
	donation, err := bidLogic.SubmitBid(campaign.ID, "donor-1", "", model.ModeDonating, 500, 5)
	if err != nil {
		t.Fatalf("donating submit failed: %v", err)
	}
	if donation.Kind != model.BidKindDonation || donation.EquityRequestedPercent != 0 {
		t.Fatalf("expected zero-equity donation bid, got %+v", donation)
	}

	// 支持模式不能出价
	if _, err := bidLogic.SubmitBid(campaign.ID, "fan-1", "", model.ModeSupporting, 100, 0); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for supporting mode, got %v", err)
	}

	// 金额与股权范围校验
	if _, err := bidLogic.SubmitBid(campaign.ID, "investor-1", "", model.ModeInvesting, 0, 8); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation for zero amount, got %v", err)
	}
	if _, err := bidLogic.SubmitBid(campaign.ID, "investor-1", "", model.ModeInvesting, 100, 101); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation for equity above 100, got %v", err)
	}

	// 项目不存在
	if _, err := bidLogic.SubmitBid(99999, "investor-1", "", model.ModeInvesting, 100, 1); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for missing campaign, got %v", err)
	}
}

func TestAcceptBidEquityOverflow(t *testing.T) {
	db := newTestDB(t)
	bidLogic := NewBidLogic(db)

	// 目标5万，出让15%：A出价3万/8%被接受后，B的2.5万/9%会导致17%>15%
	campaign := createTestCampaign(t, db, "owner-1", 50000, 15)
	submitAcceptedBid(t, db, campaign, "investor-a", 30000, 8)

	bidB, err := bidLogic.SubmitBid(campaign.ID, "investor-b", "", model.ModeInvesting, 25000, 9)
	if err != nil {
		t.Fatalf("submit bid failed: %v", err)
	}

	if _, err := bidLogic.AcceptBid(bidB.ID, "owner-1"); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation for equity overflow, got %v", err)
	}

	// 失败的接受不改变状态
	var reloaded model.Bid
	if err := db.First(&reloaded, bidB.ID).Error; err != nil {
		t.Fatalf("reload bid failed: %v", err)
	}
	if reloaded.Status != model.BidStatusPending {
		t.Fatalf("expected bid still pending, got %s", reloaded.Status)
	}

	// 股权降到7%后可以接受（8+7=15）
	bidC, err := bidLogic.SubmitBid(campaign.ID, "investor-c", "", model.ModeInvesting, 25000, 7)
	if err != nil {
		t.Fatalf("submit bid failed: %v", err)
	}
	if _, err := bidLogic.AcceptBid(bidC.ID, "owner-1"); err != nil {
		t.Fatalf("accept at exact equity cap failed: %v", err)
	}
}

func TestAcceptBidAuthorization(t *testing.T) {
	db := newTestDB(t)
	bidLogic := NewBidLogic(db)

	campaign := createTestCampaign(t, db, "owner-1", 50000, 15)
	bid, err := bidLogic.SubmitBid(campaign.ID, "investor-1", "", model.ModeInvesting, 1000, 1)
	if err != nil {
		t.Fatalf("submit bid failed: %v", err)
	}

	if _, err := bidLogic.AcceptBid(bid.ID, "stranger"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for non-owner accept, got %v", err)
	}
}

func TestDonationBidCreditsFundingAtAccept(t *testing.T) {
	db := newTestDB(t)
	bidLogic := NewBidLogic(db)

	campaign := createTestCampaign(t, db, "owner-1", 10000, 0)

	donation, err := bidLogic.SubmitBid(campaign.ID, "donor-1", "", model.ModeDonating, 600, 0)
	if err != nil {
		t.Fatalf("submit donation failed: %v", err)
	}
	if _, err := bidLogic.AcceptBid(donation.ID, "owner-1"); err != nil {
		t.Fatalf("accept donation failed: %v", err)
	}

	if got := reloadCampaign(t, db, campaign.ID).CurrentFunding; got != 600 {
		t.Fatalf("expected funding 600 after donation accept, got %v", got)
	}

	var record model.ReleaseRecord
	if err := db.Where("campaign_id = ? AND kind = ?", campaign.ID, model.ReleaseKindDonation).
		First(&record).Error; err != nil {
		t.Fatalf("expected donation release record: %v", err)
	}
	if record.Amount != 600 {
		t.Fatalf("expected release record amount 600, got %v", record.Amount)
	}

	// 超出目标的捐赠在接受时被拒绝
	big, err := bidLogic.SubmitBid(campaign.ID, "donor-2", "", model.ModeDonating, 9500, 0)
	if err != nil {
		t.Fatalf("submit donation failed: %v", err)
	}
	if _, err := bidLogic.AcceptBid(big.ID, "owner-1"); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation for overfunding donation, got %v", err)
	}
	if got := reloadCampaign(t, db, campaign.ID).CurrentFunding; got != 600 {
		t.Fatalf("expected funding unchanged after failed accept, got %v", got)
	}
}

func TestRejectAndWithdrawOnlyFromPending(t *testing.T) {
	db := newTestDB(t)
	bidLogic := NewBidLogic(db)

	campaign := createTestCampaign(t, db, "owner-1", 50000, 15)

	// 撤回仅限出价人本人
	bid, err := bidLogic.SubmitBid(campaign.ID, "investor-1", "", model.ModeInvesting, 1000, 1)
	if err != nil {
		t.Fatalf("submit bid failed: %v", err)
	}
	if _, err := bidLogic.WithdrawBid(bid.ID, "someone-else"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for foreign withdraw, got %v", err)
	}
	if _, err := bidLogic.WithdrawBid(bid.ID, "investor-1"); err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}

	// 已定案的出价不可再变更
	if _, err := bidLogic.RejectBid(bid.ID, "owner-1"); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation for finalized bid, got %v", err)
	}

	accepted := submitAcceptedBid(t, db, campaign, "investor-2", 2000, 2)
	if _, err := bidLogic.WithdrawBid(accepted.ID, "investor-2"); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation withdrawing accepted bid, got %v", err)
	}
}
