package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusbridge/taxforms-backend/internal/logger"
	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

// TransactionSummary is one student's aggregated ledger activity over a date
// range, as consumed by the publish pipeline and the exports.
type TransactionSummary struct {
	Charges      decimal.Decimal
	Payments     decimal.Decimal
	Scholarships decimal.Decimal
}

func zeroSummary() TransactionSummary {
	return TransactionSummary{
		Charges:      decimal.Zero,
		Payments:     decimal.Zero,
		Scholarships: decimal.Zero,
	}
}

// Qualifies reports whether the student gets a form at all.
func (s TransactionSummary) Qualifies() bool {
	return s.Payments.GreaterThan(decimal.Zero) || s.Scholarships.GreaterThan(decimal.Zero)
}

// SummaryProvider is the trust boundary to the transaction ledger. The range
// is inclusive-start, exclusive-end; every requested student appears in the
// result, defaulting to all-zero.
type SummaryProvider interface {
	BulkSummary(ctx context.Context, studentIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]TransactionSummary, error)
}

type ledgerSummaryProvider struct {
	log      *logger.Logger
	txRepo   repos.StudentTransactionRepo
	settings SettingsService
}

func NewLedgerSummaryProvider(baseLog *logger.Logger, txRepo repos.StudentTransactionRepo, settings SettingsService) SummaryProvider {
	serviceLog := baseLog.With("service", "LedgerSummaryProvider")
	return &ledgerSummaryProvider{log: serviceLog, txRepo: txRepo, settings: settings}
}

func (p *ledgerSummaryProvider) BulkSummary(ctx context.Context, studentIDs []uuid.UUID, start, end time.Time) (map[uuid.UUID]TransactionSummary, error) {
	out := make(map[uuid.UUID]TransactionSummary, len(studentIDs))
	for _, id := range studentIDs {
		out[id] = zeroSummary()
	}
	if len(studentIDs) == 0 {
		return out, nil
	}

	cfg, err := p.settings.SummaryConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve summary config: %w", err)
	}

	rows, err := p.txRepo.SumByStudentAndType(ctx, nil, studentIDs, start, end)
	if err != nil {
		return nil, fmt.Errorf("aggregate ledger rows: %w", err)
	}

	credit := toSet(cfg.CreditPayTypes)
	refund := toSet(cfg.RefundTypes)
	scholarship := toSet(cfg.ScholarshipTypes)

	for _, row := range rows {
		sum := out[row.StudentID]
		switch {
		case row.Type == types.TransactionTypeCharge:
			sum.Charges = sum.Charges.Add(row.Total)
		case credit[row.Type]:
			sum.Payments = sum.Payments.Add(row.Total)
		case cfg.SubtractRefunds && refund[row.Type]:
			sum.Payments = sum.Payments.Sub(row.Total)
		case scholarship[row.Type]:
			sum.Scholarships = sum.Scholarships.Add(row.Total)
		}
		out[row.StudentID] = sum
	}
	return out, nil
}

func toSet(in []string) map[string]bool {
	out := make(map[string]bool, len(in))
	for _, s := range in {
		out[s] = true
	}
	return out
}
