package logic

import (
	"testing"

	"github.com/blues/ims/internal/model"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 内存sqlite测试库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test db: %v", err)
	}

	if err := db.AutoMigrate(
		&model.Campaign{},
		&model.Bid{},
		&model.Consortium{},
		&model.ConsortiumMember{},
		&model.Milestone{},
		&model.Validation{},
		&model.ReleaseRecord{},
		&model.FundingEvent{},
		&model.UserProfile{},
	); err != nil {
		t.Fatalf("failed to migrate test db: %v", err)
	}

	return db
}

// createTestCampaign 建一个融资中的测试项目，可选里程碑计划
func createTestCampaign(t *testing.T, db *gorm.DB, ownerID string, goal, equity float64,
	milestoneAmounts ...float64) *model.Campaign {
	t.Helper()

	plans := make([]MilestonePlan, 0, len(milestoneAmounts))
	for _, amount := range milestoneAmounts {
		plans = append(plans, MilestonePlan{PaymentAmount: amount})
	}

	campaign, err := NewCampaignLogic(db).CreateCampaign(CreateCampaignInput{
		OwnerID:              ownerID,
		Title:                "test campaign",
		FundingGoal:          goal,
		EquityOfferedPercent: equity,
		Stage:                model.CampaignStageMVP,
		Milestones:           plans,
	})
	if err != nil {
		t.Fatalf("create campaign failed: %v", err)
	}
	return campaign
}

// submitAcceptedBid 提交并接受一个投资出价
func submitAcceptedBid(t *testing.T, db *gorm.DB, campaign *model.Campaign,
	bidderID string, amount, equity float64) *model.Bid {
	t.Helper()

	bidLogic := NewBidLogic(db)
	bid, err := bidLogic.SubmitBid(campaign.ID, bidderID, "", model.ModeInvesting, amount, equity)
	if err != nil {
		t.Fatalf("submit bid failed: %v", err)
	}
	accepted, err := bidLogic.AcceptBid(bid.ID, campaign.OwnerID)
	if err != nil {
		t.Fatalf("accept bid failed: %v", err)
	}
	return accepted
}

func reloadCampaign(t *testing.T, db *gorm.DB, id uint) *model.Campaign {
	t.Helper()

	var campaign model.Campaign
	if err := db.First(&campaign, id).Error; err != nil {
		t.Fatalf("reload campaign failed: %v", err)
	}
	return &campaign
}
