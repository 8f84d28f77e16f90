package services

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

// FilerInfo is the issuing institution's identity printed on every form.
type FilerInfo struct {
	Name    string
	EIN     string
	Address string
	Phone   string
}

// SummaryConfig controls which ledger transaction types count toward each box
// of the form.
type SummaryConfig struct {
	CreditPayTypes   []string
	SubtractRefunds  bool
	RefundTypes      []string
	ScholarshipTypes []string
}

func defaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		CreditPayTypes:   []string{types.TransactionTypePayment},
		SubtractRefunds:  true,
		RefundTypes:      []string{types.TransactionTypeRefund},
		ScholarshipTypes: []string{types.TransactionTypeScholarship, types.TransactionTypeGrant},
	}
}

type SettingsService interface {
	FilerInfo(ctx context.Context) (FilerInfo, error)
	SaveFilerInfo(ctx context.Context, info FilerInfo) error
	SummaryConfig(ctx context.Context) (SummaryConfig, error)
	SaveSummaryConfig(ctx context.Context, cfg SummaryConfig) error
}

type settingsService struct {
	db          *gorm.DB
	log         *logger.Logger
	settingRepo repos.SettingRepo
}

func NewSettingsService(db *gorm.DB, baseLog *logger.Logger, settingRepo repos.SettingRepo) SettingsService {
	serviceLog := baseLog.With("service", "SettingsService")
	return &settingsService{db: db, log: serviceLog, settingRepo: settingRepo}
}

// FilerInfo fails when the institution never configured its identity; issuing
// forms with placeholder filer data would be worse than refusing.
func (s *settingsService) FilerInfo(ctx context.Context) (FilerInfo, error) {
	setting, err := s.settingRepo.Get(ctx, nil, types.SettingKeyFiler)
	if err != nil {
		return FilerInfo{}, fmt.Errorf("load filer setting: %w", err)
	}
	if setting == nil {
		return FilerInfo{}, fmt.Errorf("filer info setting %q is not configured", types.SettingKeyFiler)
	}
	info := FilerInfo{
		Name:    stringValue(setting.Value, "name"),
		EIN:     stringValue(setting.Value, "ein"),
		Address: stringValue(setting.Value, "address"),
		Phone:   stringValue(setting.Value, "phone"),
	}
	if info.Name == "" || info.EIN == "" {
		return FilerInfo{}, fmt.Errorf("filer info setting %q is missing name or EIN", types.SettingKeyFiler)
	}
	return info, nil
}

func (s *settingsService) SaveFilerInfo(ctx context.Context, info FilerInfo) error {
	return s.settingRepo.Upsert(ctx, nil, types.SettingKeyFiler, map[string]interface{}{
		"name":    info.Name,
		"ein":     info.EIN,
		"address": info.Address,
		"phone":   info.Phone,
	})
}

func (s *settingsService) SummaryConfig(ctx context.Context) (SummaryConfig, error) {
	setting, err := s.settingRepo.Get(ctx, nil, types.SettingKeySummary)
	if err != nil {
		return SummaryConfig{}, fmt.Errorf("load summary setting: %w", err)
	}
	if setting == nil {
		return defaultSummaryConfig(), nil
	}
	cfg := SummaryConfig{
		CreditPayTypes:   stringSlice(setting.Value, "credit_pay_types"),
		SubtractRefunds:  boolValue(setting.Value, "subtract_refunds"),
		RefundTypes:      stringSlice(setting.Value, "refund_types"),
		ScholarshipTypes: stringSlice(setting.Value, "scholarship_types"),
	}
	if len(cfg.CreditPayTypes) == 0 && len(cfg.ScholarshipTypes) == 0 {
		return defaultSummaryConfig(), nil
	}
	return cfg, nil
}

func (s *settingsService) SaveSummaryConfig(ctx context.Context, cfg SummaryConfig) error {
	return s.settingRepo.Upsert(ctx, nil, types.SettingKeySummary, map[string]interface{}{
		"credit_pay_types":  toInterfaceSlice(cfg.CreditPayTypes),
		"subtract_refunds":  cfg.SubtractRefunds,
		"refund_types":      toInterfaceSlice(cfg.RefundTypes),
		"scholarship_types": toInterfaceSlice(cfg.ScholarshipTypes),
	})
}

func stringValue(m map[string]interface{}, key string) string {
	if m == nil {
		return ""
	}
	if v, ok := m[key].(string); ok {
		return v
	}
	return ""
}

func boolValue(m map[string]interface{}, key string) bool {
	if m == nil {
		return false
	}
	if v, ok := m[key].(bool); ok {
		return v
	}
	return false
}

func stringSlice(m map[string]interface{}, key string) []string {
	if m == nil {
		return nil
	}
	raw, ok := m[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			out = append(out, s)
		}
	}
	return out
}

func toInterfaceSlice(in []string) []interface{} {
	out := make([]interface{}, 0, len(in))
	for _, s := range in {
		out = append(out, s)
	}
	return out
}
