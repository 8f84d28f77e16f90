package services

import (
	"context"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/testutil"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

func newSettingsService(t *testing.T, gdb *gorm.DB) SettingsService {
	t.Helper()
	log := testutil.TestLogger(t)
	return NewSettingsService(gdb, log, repos.NewSettingRepo(gdb, log))
}

func TestFilerInfoUnconfiguredFails(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newSettingsService(t, gdb)

	_, err := service.FilerInfo(context.Background())
	if err == nil {
		t.Fatalf("want error for unconfigured filer info")
	}
	if !strings.Contains(err.Error(), "not configured") {
		t.Fatalf("error: %v", err)
	}
}

func TestFilerInfoRoundTrip(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newSettingsService(t, gdb)
	ctx := context.Background()

	in := FilerInfo{
		Name:    "Springfield Community College",
		EIN:     "12-3456789",
		Address: "100 College Way, Springfield, OR 97477",
		Phone:   "(541) 555-0100",
	}
	if err := service.SaveFilerInfo(ctx, in); err != nil {
		t.Fatalf("SaveFilerInfo: %v", err)
	}

	out, err := service.FilerInfo(ctx)
	if err != nil {
		t.Fatalf("FilerInfo: %v", err)
	}
	if out != in {
		t.Fatalf("want=%+v got=%+v", in, out)
	}
}

func TestFilerInfoRequiresNameAndEIN(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newSettingsService(t, gdb)
	ctx := context.Background()

	if err := service.SaveFilerInfo(ctx, FilerInfo{Name: "No EIN College"}); err != nil {
		t.Fatalf("SaveFilerInfo: %v", err)
	}
	if _, err := service.FilerInfo(ctx); err == nil {
		t.Fatalf("filer info without EIN must not be usable")
	}
}

func TestSummaryConfigDefaultsWhenAbsent(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newSettingsService(t, gdb)

	cfg, err := service.SummaryConfig(context.Background())
	if err != nil {
		t.Fatalf("SummaryConfig: %v", err)
	}
	if len(cfg.CreditPayTypes) != 1 || cfg.CreditPayTypes[0] != types.TransactionTypePayment {
		t.Fatalf("credit pay types: %v", cfg.CreditPayTypes)
	}
	if !cfg.SubtractRefunds {
		t.Fatalf("refunds must subtract by default")
	}
	if len(cfg.ScholarshipTypes) != 2 {
		t.Fatalf("scholarship types: %v", cfg.ScholarshipTypes)
	}
}

func TestSummaryConfigRoundTrip(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newSettingsService(t, gdb)
	ctx := context.Background()

	in := SummaryConfig{
		CreditPayTypes:   []string{"payment", "wire"},
		SubtractRefunds:  false,
		RefundTypes:      []string{"refund"},
		ScholarshipTypes: []string{"scholarship"},
	}
	if err := service.SaveSummaryConfig(ctx, in); err != nil {
		t.Fatalf("SaveSummaryConfig: %v", err)
	}

	out, err := service.SummaryConfig(ctx)
	if err != nil {
		t.Fatalf("SummaryConfig: %v", err)
	}
	if len(out.CreditPayTypes) != 2 || out.CreditPayTypes[1] != "wire" {
		t.Fatalf("credit pay types: %v", out.CreditPayTypes)
	}
	if out.SubtractRefunds {
		t.Fatalf("subtract_refunds must persist as false")
	}
	if len(out.ScholarshipTypes) != 1 || out.ScholarshipTypes[0] != "scholarship" {
		t.Fatalf("scholarship types: %v", out.ScholarshipTypes)
	}
}
