package services

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"strings"
	"testing"

	"gorm.io/gorm"

	"github.com/campusbridge/taxforms-backend/internal/repos"
	"github.com/campusbridge/taxforms-backend/internal/testutil"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

func newExportService(t *testing.T, gdb *gorm.DB) ExportService {
	t.Helper()
	log := testutil.TestLogger(t)
	settingRepo := repos.NewSettingRepo(gdb, log)
	txRepo := repos.NewStudentTransactionRepo(gdb, log)
	studentRepo := repos.NewStudentRepo(gdb, log)
	settings := NewSettingsService(gdb, log, settingRepo)
	summary := NewLedgerSummaryProvider(log, txRepo, settings)
	return NewExportService(gdb, log, summary, studentRepo, txRepo)
}

func parseCSV(t *testing.T, data []byte) [][]string {
	t.Helper()
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		t.Fatalf("parse csv: %v", err)
	}
	return records
}

func TestDataCSVShapeAndFilter(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newExportService(t, gdb)

	doe := testutil.SeedStudent(t, gdb, "Jane", "Doe")
	smith := testutil.SeedStudent(t, gdb, "Bob", "Smith")
	adams := testutil.SeedStudent(t, gdb, "Zoe", "Adams")

	testutil.SeedTransaction(t, gdb, doe.ID, types.TransactionTypeCharge, "5000.00", 2024)
	testutil.SeedTransaction(t, gdb, doe.ID, types.TransactionTypePayment, "3000.00", 2024)
	testutil.SeedTransaction(t, gdb, doe.ID, types.TransactionTypeScholarship, "500.00", 2024)
	// Charges alone get a data row even though no form would be published.
	testutil.SeedTransaction(t, gdb, smith.ID, types.TransactionTypeCharge, "4200.00", 2024)
	// A refund-only student has neither charges nor scholarships and is dropped.
	testutil.SeedTransaction(t, gdb, adams.ID, types.TransactionTypeRefund, "100.00", 2024)

	start, end := YearRange(2024)
	data, err := service.DataCSV(context.Background(), start, end)
	if err != nil {
		t.Fatalf("DataCSV: %v", err)
	}

	records := parseCSV(t, data)
	if len(records) != 3 {
		t.Fatalf("want header + 2 rows, got %d records", len(records))
	}
	if got := strings.Join(records[0], ","); got != strings.Join(exportHeader, ",") {
		t.Fatalf("header: %q", got)
	}

	// Ordered by last name: Doe before Smith.
	doeRow, smithRow := records[1], records[2]
	if doeRow[1] != "Jane Doe" || smithRow[1] != "Bob Smith" {
		t.Fatalf("row order: %q then %q", doeRow[1], smithRow[1])
	}
	if doeRow[0] != doe.ID.String() {
		t.Fatalf("student id column: %q", doeRow[0])
	}
	// Box1 carries the charges aggregate; payments are the separate
	// reference column at the end.
	if doeRow[9] != "5000.00" || doeRow[10] != "500.00" || doeRow[11] != "3000.00" {
		t.Fatalf("doe amounts: box1=%q box5=%q payments=%q", doeRow[9], doeRow[10], doeRow[11])
	}
	if smithRow[9] != "4200.00" || smithRow[10] != "0.00" || smithRow[11] != "0.00" {
		t.Fatalf("charge-only amounts: box1=%q box5=%q payments=%q", smithRow[9], smithRow[10], smithRow[11])
	}
}

func TestDataCSVEmptyRange(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newExportService(t, gdb)

	start, end := YearRange(2024)
	data, err := service.DataCSV(context.Background(), start, end)
	if err != nil {
		t.Fatalf("DataCSV: %v", err)
	}
	records := parseCSV(t, data)
	if len(records) != 1 {
		t.Fatalf("want header only, got %d records", len(records))
	}
}

func TestFilledFormsZipContents(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newExportService(t, gdb)

	doe := testutil.SeedStudent(t, gdb, "Jane", "Doe")
	smith := testutil.SeedStudent(t, gdb, "Bob", "Smith")
	chargeOnly := testutil.SeedStudent(t, gdb, "Carl", "Young")

	testutil.SeedTransaction(t, gdb, doe.ID, types.TransactionTypePayment, "3000.00", 2024)
	testutil.SeedTransaction(t, gdb, smith.ID, types.TransactionTypeScholarship, "750.00", 2024)
	testutil.SeedTransaction(t, gdb, chargeOnly.ID, types.TransactionTypeCharge, "5000.00", 2024)

	start, end := YearRange(2024)
	generator := &fakeGenerator{}
	data, err := service.FilledFormsZip(context.Background(), generator, start, end)
	if err != nil {
		t.Fatalf("FilledFormsZip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}

	entries := map[string][]byte{}
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("open %s: %v", f.Name, err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatalf("read %s: %v", f.Name, err)
		}
		entries[f.Name] = b
	}

	if len(entries) != 3 {
		t.Fatalf("want 2 forms + manifest, got entries %v", zr.File)
	}
	if got := string(entries["1098-T_2024_Jane_Doe.pdf"]); got != "%PDF-1.7 Jane Doe" {
		t.Fatalf("doe entry: %q", got)
	}
	if _, ok := entries["1098-T_2024_Bob_Smith.pdf"]; !ok {
		t.Fatalf("smith entry missing; entries %v", zr.File)
	}
	if _, ok := entries["1098-T_2024_Carl_Young.pdf"]; ok {
		t.Fatalf("charge-only student must not get a filled form")
	}

	manifest := parseCSV(t, entries[zipManifestName])
	if len(manifest) != 3 {
		t.Fatalf("manifest rows: %d", len(manifest))
	}
	lastCol := len(manifest[0]) - 1
	if manifest[0][lastCol] != "Filled-Form-Path" {
		t.Fatalf("manifest last column: %q", manifest[0][lastCol])
	}
	// Manifest order matches archive row order (last name ascending).
	if manifest[1][1] != "Jane Doe" || manifest[1][lastCol] != "1098-T_2024_Jane_Doe.pdf" {
		t.Fatalf("manifest doe row: %v", manifest[1])
	}
	if manifest[2][1] != "Bob Smith" || manifest[2][lastCol] != "1098-T_2024_Bob_Smith.pdf" {
		t.Fatalf("manifest smith row: %v", manifest[2])
	}
}

func TestFilledFormsZipDisambiguatesDuplicateNames(t *testing.T) {
	gdb := testutil.OpenDB(t)
	service := newExportService(t, gdb)

	twinA := testutil.SeedStudent(t, gdb, "Jane", "Doe")
	twinB := testutil.SeedStudent(t, gdb, "Jane", "Doe")
	testutil.SeedTransaction(t, gdb, twinA.ID, types.TransactionTypePayment, "1000.00", 2024)
	testutil.SeedTransaction(t, gdb, twinB.ID, types.TransactionTypePayment, "2000.00", 2024)

	start, end := YearRange(2024)
	data, err := service.FilledFormsZip(context.Background(), &fakeGenerator{}, start, end)
	if err != nil {
		t.Fatalf("FilledFormsZip: %v", err)
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	names := map[string]bool{}
	for _, f := range zr.File {
		names[f.Name] = true
	}
	if !names["1098-T_2024_Jane_Doe.pdf"] || !names["1098-T_2024_Jane_Doe_2.pdf"] {
		t.Fatalf("duplicate names not disambiguated: %v", zr.File)
	}
}
