package logic

import (
	"errors"
	"testing"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
	"gorm.io/gorm"
)

// milestoneBySeq 按序号取里程碑
func milestoneBySeq(t *testing.T, db *gorm.DB, campaignID uint, seq int) *model.Milestone {
	t.Helper()
	var milestone model.Milestone
	if err := db.Where("campaign_id = ? AND sequence_index = ?", campaignID, seq).
		First(&milestone).Error; err != nil {
		t.Fatalf("load milestone seq %d failed: %v", seq, err)
	}
	return &milestone
}

// releaseMilestone 走完单个里程碑的完整流程
func releaseMilestone(t *testing.T, db *gorm.DB, l *MilestoneLogic,
	campaign *model.Campaign, seq int, approverID string) *model.Milestone {
	t.Helper()

	m := milestoneBySeq(t, db, campaign.ID, seq)
	if _, err := l.StartMilestone(m.ID, campaign.OwnerID); err != nil {
		t.Fatalf("start milestone seq %d failed: %v", seq, err)
	}
	if _, err := l.SubmitProof(m.ID, campaign.OwnerID, "ipfs://proof"); err != nil {
		t.Fatalf("submit proof seq %d failed: %v", seq, err)
	}
	released, err := l.ApproveAndRelease(m.ID, []string{approverID})
	if err != nil {
		t.Fatalf("approve and release seq %d failed: %v", seq, err)
	}
	return released
}

func TestMilestoneSequentialGating(t *testing.T) {
	db := newTestDB(t)
	milestoneLogic := NewMilestoneLogic(db, 0)

	campaign := createTestCampaign(t, db, "owner-1", 30000, 10, 10000, 10000, 10000)
	submitAcceptedBid(t, db, campaign, "investor-1", 30000, 10)

	first := milestoneBySeq(t, db, campaign.ID, 1)
	second := milestoneBySeq(t, db, campaign.ID, 2)

	// 前序未放款时序号2不能开始
	if _, err := milestoneLogic.StartMilestone(second.ID, "owner-1"); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation starting seq 2 first, got %v", err)
	}

	// 非所有者不能开始
	if _, err := milestoneLogic.StartMilestone(first.ID, "stranger"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for non-owner start, got %v", err)
	}

	started, err := milestoneLogic.StartMilestone(first.ID, "owner-1")
	if err != nil {
		t.Fatalf("start milestone failed: %v", err)
	}
	if started.Status != model.MilestoneStatusInProgress {
		t.Fatalf("expected in_progress, got %s", started.Status)
	}

	// 进行中的里程碑不能重复开始
	if _, err := milestoneLogic.StartMilestone(first.ID, "owner-1"); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation re-starting, got %v", err)
	}

	// 空证明被拒绝
	if _, err := milestoneLogic.SubmitProof(first.ID, "owner-1", ""); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation for empty proof, got %v", err)
	}

	proved, err := milestoneLogic.SubmitProof(first.ID, "owner-1", "https://report.example/q1")
	if err != nil {
		t.Fatalf("submit proof failed: %v", err)
	}
	if proved.Status != model.MilestoneStatusCompleted || proved.CompletedAt == nil {
		t.Fatalf("expected completed milestone with timestamp, got %+v", proved)
	}

	// 未完成的里程碑不能放款
	if _, err := milestoneLogic.ApproveAndRelease(second.ID, []string{"investor-1"}); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation releasing pending milestone, got %v", err)
	}

	released, err := milestoneLogic.ApproveAndRelease(first.ID, []string{"investor-1"})
	if err != nil {
		t.Fatalf("approve and release failed: %v", err)
	}
	if released.Status != model.MilestoneStatusPaymentReleased || released.ReleasedAt == nil {
		t.Fatalf("expected released milestone with timestamp, got %+v", released)
	}
	if got := reloadCampaign(t, db, campaign.ID).CurrentFunding; got != 10000 {
		t.Fatalf("expected funding 10000 after first release, got %v", got)
	}

	// 放款后序号2可以开始
	if _, err := milestoneLogic.StartMilestone(second.ID, "owner-1"); err != nil {
		t.Fatalf("start seq 2 after predecessor release failed: %v", err)
	}
}

func TestApproveAndReleaseStandaloneApprover(t *testing.T) {
	db := newTestDB(t)
	milestoneLogic := NewMilestoneLogic(db, 0)

	campaign := createTestCampaign(t, db, "owner-1", 20000, 10, 20000)
	submitAcceptedBid(t, db, campaign, "investor-1", 20000, 10)

	m := milestoneBySeq(t, db, campaign.ID, 1)
	if _, err := milestoneLogic.StartMilestone(m.ID, "owner-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := milestoneLogic.SubmitProof(m.ID, "owner-1", "ipfs://proof"); err != nil {
		t.Fatalf("submit proof failed: %v", err)
	}

	// 批准人为空或非出资人都不放行
	if _, err := milestoneLogic.ApproveAndRelease(m.ID, nil); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for empty approvers, got %v", err)
	}
	if _, err := milestoneLogic.ApproveAndRelease(m.ID, []string{"owner-1"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for non-backer approver, got %v", err)
	}

	if _, err := milestoneLogic.ApproveAndRelease(m.ID, []string{"investor-1"}); err != nil {
		t.Fatalf("approve and release failed: %v", err)
	}
}

func TestApproveAndReleaseConsortiumThreshold(t *testing.T) {
	db := newTestDB(t)
	milestoneLogic := NewMilestoneLogic(db, 50)
	consortiumLogic := NewConsortiumLogic(db)

	campaign := createTestCampaign(t, db, "owner-1", 225000, 30, 100000, 125000)
	bidA := submitAcceptedBid(t, db, campaign, "investor-a", 75000, 10)
	bidB := submitAcceptedBid(t, db, campaign, "investor-b", 50000, 8)
	bidC := submitAcceptedBid(t, db, campaign, "investor-c", 100000, 12)

	consortium, err := consortiumLogic.FormConsortium("alpha",
		[]uint{bidA.ID, bidB.ID, bidC.ID})
	if err != nil {
		t.Fatalf("form consortium failed: %v", err)
	}
	if _, err := consortiumLogic.Activate(consortium.ID); err != nil {
		t.Fatalf("activate failed: %v", err)
	}

	m := milestoneBySeq(t, db, campaign.ID, 1)
	if _, err := milestoneLogic.StartMilestone(m.ID, "owner-1"); err != nil {
		t.Fatalf("start failed: %v", err)
	}
	if _, err := milestoneLogic.SubmitProof(m.ID, "owner-1", "ipfs://proof"); err != nil {
		t.Fatalf("submit proof failed: %v", err)
	}

	// 单个45%权重（investor-c）不达50%阈值
	if _, err := milestoneLogic.ApproveAndRelease(m.ID, []string{"investor-c"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error below threshold, got %v", err)
	}

	// 联合体存在时，非成员的已接受出价人也不能替代权重审批
	if _, err := milestoneLogic.ApproveAndRelease(m.ID, []string{"owner-1"}); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for non-member approver, got %v", err)
	}

	// 45%+22%=67% 达标
	released, err := milestoneLogic.ApproveAndRelease(m.ID, []string{"investor-c", "investor-b"})
	if err != nil {
		t.Fatalf("approve with combined power failed: %v", err)
	}
	if released.Status != model.MilestoneStatusPaymentReleased {
		t.Fatalf("expected released, got %s", released.Status)
	}
	if got := reloadCampaign(t, db, campaign.ID).CurrentFunding; got != 100000 {
		t.Fatalf("expected funding 100000, got %v", got)
	}
}

func TestApproveAndReleaseIdempotent(t *testing.T) {
	db := newTestDB(t)
	milestoneLogic := NewMilestoneLogic(db, 0)

	campaign := createTestCampaign(t, db, "owner-1", 20000, 10, 8000, 12000)
	submitAcceptedBid(t, db, campaign, "investor-1", 20000, 10)

	releaseMilestone(t, db, milestoneLogic, campaign, 1, "investor-1")
	funding := reloadCampaign(t, db, campaign.ID).CurrentFunding

	// 重复放款是no-op：状态不变、资金不重复入账
	m := milestoneBySeq(t, db, campaign.ID, 1)
	again, err := milestoneLogic.ApproveAndRelease(m.ID, []string{"investor-1"})
	if err != nil {
		t.Fatalf("repeated approve returned error: %v", err)
	}
	if again.Status != model.MilestoneStatusPaymentReleased {
		t.Fatalf("expected released status, got %s", again.Status)
	}
	if got := reloadCampaign(t, db, campaign.ID).CurrentFunding; got != funding {
		t.Fatalf("expected funding unchanged at %v, got %v", funding, got)
	}

	var records int64
	if err := db.Model(&model.ReleaseRecord{}).
		Where("campaign_id = ? AND kind = ?", campaign.ID, model.ReleaseKindMilestone).
		Count(&records).Error; err != nil {
		t.Fatalf("count release records failed: %v", err)
	}
	if records != 1 {
		t.Fatalf("expected exactly 1 release record, got %d", records)
	}
}

func TestCampaignCompletesWhenAllMilestonesReleased(t *testing.T) {
	db := newTestDB(t)
	milestoneLogic := NewMilestoneLogic(db, 0)

	campaign := createTestCampaign(t, db, "owner-1", 20000, 10, 8000, 12000)
	submitAcceptedBid(t, db, campaign, "investor-1", 20000, 10)

	releaseMilestone(t, db, milestoneLogic, campaign, 1, "investor-1")
	if got := reloadCampaign(t, db, campaign.ID); got.Status != model.CampaignStatusActive {
		t.Fatalf("expected campaign still active mid-schedule, got %s", got.Status)
	}

	releaseMilestone(t, db, milestoneLogic, campaign, 2, "investor-1")

	final := reloadCampaign(t, db, campaign.ID)
	if final.CurrentFunding != 20000 {
		t.Fatalf("expected funding 20000, got %v", final.CurrentFunding)
	}
	if final.Status != model.CampaignStatusCompleted {
		t.Fatalf("expected completed campaign, got %s", final.Status)
	}
}
