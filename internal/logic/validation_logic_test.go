package logic

import (
	"context"
	"errors"
	"testing"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
)

func TestValidationAddRemoveCycle(t *testing.T) {
	db := newTestDB(t)
	validationLogic := NewValidationLogic(db, nil)
	ctx := context.Background()

	campaign := createTestCampaign(t, db, "owner-1", 10000, 5)

	if _, err := validationLogic.AddValidation(ctx, campaign.ID, "fan-1", model.ModeSupporting); err != nil {
		t.Fatalf("add validation failed: %v", err)
	}
	count, err := validationLogic.CountValidations(ctx, campaign.ID)
	if err != nil || count != 1 {
		t.Fatalf("expected count 1, got %d (err %v)", count, err)
	}

	// 重复背书是冲突，计数不变
	if _, err := validationLogic.AddValidation(ctx, campaign.ID, "fan-1", model.ModeSupporting); !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict for duplicate validation, got %v", err)
	}
	if count, _ = validationLogic.CountValidations(ctx, campaign.ID); count != 1 {
		t.Fatalf("expected count still 1 after duplicate, got %d", count)
	}

	validated, err := validationLogic.HasValidated(campaign.ID, "fan-1")
	if err != nil || !validated {
		t.Fatalf("expected fan-1 validated, got %v (err %v)", validated, err)
	}

	// 移除后可以重新背书
	if err := validationLogic.RemoveValidation(ctx, campaign.ID, "fan-1"); err != nil {
		t.Fatalf("remove validation failed: %v", err)
	}
	if count, _ = validationLogic.CountValidations(ctx, campaign.ID); count != 0 {
		t.Fatalf("expected count 0 after removal, got %d", count)
	}
	if _, err := validationLogic.AddValidation(ctx, campaign.ID, "fan-1", model.ModeSupporting); err != nil {
		t.Fatalf("re-add after removal failed: %v", err)
	}

	// 移除不存在的背书是幂等no-op
	if err := validationLogic.RemoveValidation(ctx, campaign.ID, "ghost"); err != nil {
		t.Fatalf("removing absent validation returned error: %v", err)
	}
}

func TestValidationModeAndTargetChecks(t *testing.T) {
	db := newTestDB(t)
	validationLogic := NewValidationLogic(db, nil)
	ctx := context.Background()

	campaign := createTestCampaign(t, db, "owner-1", 10000, 5)

	// 投资与捐赠模式不能背书
	if _, err := validationLogic.AddValidation(ctx, campaign.ID, "investor-1", model.ModeInvesting); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for investing mode, got %v", err)
	}
	if _, err := validationLogic.AddValidation(ctx, campaign.ID, "donor-1", model.ModeDonating); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for donating mode, got %v", err)
	}

	if _, err := validationLogic.AddValidation(ctx, 99999, "fan-1", model.ModeSupporting); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found for missing campaign, got %v", err)
	}
	if _, err := validationLogic.AddValidation(ctx, campaign.ID, "", model.ModeSupporting); !errors.Is(err, apperr.ErrInvariant) {
		t.Fatalf("expected invariant violation for empty user, got %v", err)
	}
}
