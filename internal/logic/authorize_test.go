package logic

import (
	"errors"
	"testing"

	"github.com/blues/ims/internal/apperr"
	"github.com/blues/ims/internal/model"
)

func TestAuthorizeModeMatrix(t *testing.T) {
	cases := []struct {
		mode    model.ContributionMode
		action  Action
		allowed bool
	}{
		{model.ModeInvesting, ActionSubmitBid, true},
		{model.ModeInvesting, ActionDirectContribute, false},
		{model.ModeInvesting, ActionValidate, false},
		{model.ModeDonating, ActionDirectContribute, true},
		{model.ModeDonating, ActionSubmitBid, false},
		{model.ModeDonating, ActionValidate, false},
		{model.ModeSupporting, ActionValidate, true},
		{model.ModeSupporting, ActionSubmitBid, false},
		{model.ModeSupporting, ActionDirectContribute, false},
	}

	for _, tc := range cases {
		err := Authorize(tc.mode, tc.action)
		if tc.allowed && err != nil {
			t.Fatalf("expected %s/%s to be allowed, got %v", tc.mode, tc.action, err)
		}
		if !tc.allowed {
			if err == nil {
				t.Fatalf("expected %s/%s to be denied", tc.mode, tc.action)
			}
			if !errors.Is(err, apperr.ErrUnauthorized) {
				t.Fatalf("expected authorization error for %s/%s, got %v", tc.mode, tc.action, err)
			}
		}
	}
}

func TestAuthorizeUnknownMode(t *testing.T) {
	err := Authorize(model.ContributionMode("observer"), ActionValidate)
	if !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("expected authorization error for unknown mode, got %v", err)
	}
}
