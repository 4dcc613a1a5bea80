package shopauth

import (
	"context"
	"errors"
	"strings"
	"testing"
)

func TestTwoFactorStatus(t *testing.T) {
	fb := newFakeBackend(t)
	fb.twoFactorEnabled = true
	client := newTestClient(t, fb)

	status, err := client.TwoFactorStatus(context.Background())
	if err != nil {
		t.Fatalf("TwoFactorStatus failed: %v", err)
	}
	if !status.Enabled || status.Method != "email" {
		t.Fatalf("unexpected status: %+v", status)
	}
}

func TestEnableTwoFactorReturnsBackupCodes(t *testing.T) {
	fb := newFakeBackend(t)
	client := newTestClient(t, fb)

	result, err := client.EnableTwoFactor(context.Background(), "sms", "+15550100")
	if err != nil {
		t.Fatalf("EnableTwoFactor failed: %v", err)
	}
	if len(result.BackupCodes) != 2 {
		t.Fatalf("expected backup codes, got %v", result.BackupCodes)
	}
	if got := client.Metrics().Value(MetricTwoFactorEnabled); got != 1 {
		t.Fatalf("expected 1 enable, got %d", got)
	}

	status, err := client.TwoFactorStatus(context.Background())
	if err != nil {
		t.Fatalf("TwoFactorStatus failed: %v", err)
	}
	if !status.Enabled || status.Method != "sms" {
		t.Fatalf("enable not reflected in status: %+v", status)
	}
}

func TestEnableTwoFactorRejected(t *testing.T) {
	fb := newFakeBackend(t)
	fb.enableFails = true
	client := newTestClient(t, fb)

	_, err := client.EnableTwoFactor(context.Background(), "sms", "")
	if !errors.Is(err, ErrTwoFactorChangeRejected) {
		t.Fatalf("expected ErrTwoFactorChangeRejected, got %v", err)
	}
	if !strings.Contains(err.Error(), "phone number required") {
		t.Fatalf("backend message not surfaced: %v", err)
	}
	if got := client.Metrics().Value(MetricTwoFactorEnabled); got != 0 {
		t.Fatalf("rejected enable must not count, got %d", got)
	}
}

func TestDisableTwoFactor(t *testing.T) {
	fb := newFakeBackend(t)
	fb.twoFactorEnabled = true
	client := newTestClient(t, fb)

	if err := client.DisableTwoFactor(context.Background()); err != nil {
		t.Fatalf("DisableTwoFactor failed: %v", err)
	}

	status, err := client.TwoFactorStatus(context.Background())
	if err != nil {
		t.Fatalf("TwoFactorStatus failed: %v", err)
	}
	if status.Enabled {
		t.Fatal("disable not reflected in status")
	}
	if got := client.Metrics().Value(MetricTwoFactorDisabled); got != 1 {
		t.Fatalf("expected 1 disable, got %d", got)
	}
}
