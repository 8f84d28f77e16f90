package repos

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/campusbridge/taxforms-backend/internal/testutil"
	"github.com/campusbridge/taxforms-backend/internal/types"
)

func newForm(studentID uuid.UUID, taxYear int, published bool) *types.Form1098T {
	now := time.Now()
	f := &types.Form1098T{
		ID:                 uuid.New(),
		StudentID:          studentID,
		TaxYear:            taxYear,
		PaymentsReceived:   decimal.RequireFromString("1000.00"),
		ScholarshipsGrants: decimal.Zero,
		StudentName:        "Jane Doe",
		StudentAddress:     "100 College Ave, Springfield, IL 62704",
		FilePath:           "tax_forms/1098t/" + uuid.New().String() + ".pdf",
		FileSize:           1024,
		IsPublished:        published,
	}
	if published {
		f.PublishedAt = &now
	}
	return f
}

func TestPublishedFormUniquePerStudentYear(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.TestLogger(t)
	repo := NewForm1098TRepo(gdb, log)
	ctx := context.Background()

	student := testutil.SeedStudent(t, gdb, "Jane", "Doe")

	if _, err := repo.Create(ctx, nil, []*types.Form1098T{newForm(student.ID, 2024, true)}); err != nil {
		t.Fatalf("first publish: %v", err)
	}
	if _, err := repo.Create(ctx, nil, []*types.Form1098T{newForm(student.ID, 2024, true)}); err == nil {
		t.Fatalf("second published row for same student/year must be rejected")
	}
}

func TestUnpublishedDuplicatesAllowed(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.TestLogger(t)
	repo := NewForm1098TRepo(gdb, log)
	ctx := context.Background()

	student := testutil.SeedStudent(t, gdb, "Jane", "Doe")

	for i := 0; i < 3; i++ {
		if _, err := repo.Create(ctx, nil, []*types.Form1098T{newForm(student.ID, 2024, false)}); err != nil {
			t.Fatalf("unpublished row %d: %v", i, err)
		}
	}
	// One published row on top of the retired ones is still fine.
	if _, err := repo.Create(ctx, nil, []*types.Form1098T{newForm(student.ID, 2024, true)}); err != nil {
		t.Fatalf("published row after retired rows: %v", err)
	}
}

func TestGetPublishedReturnsNilWhenNone(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.TestLogger(t)
	repo := NewForm1098TRepo(gdb, log)
	ctx := context.Background()

	student := testutil.SeedStudent(t, gdb, "Jane", "Doe")

	got, err := repo.GetPublished(ctx, nil, student.ID, 2024)
	if err != nil {
		t.Fatalf("GetPublished: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil, got %+v", got)
	}

	if _, err := repo.Create(ctx, nil, []*types.Form1098T{newForm(student.ID, 2024, false)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	got, err = repo.GetPublished(ctx, nil, student.ID, 2024)
	if err != nil {
		t.Fatalf("GetPublished: %v", err)
	}
	if got != nil {
		t.Fatalf("unpublished row must not be returned, got %+v", got)
	}
}

func TestUnpublishRetainsRow(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.TestLogger(t)
	repo := NewForm1098TRepo(gdb, log)
	ctx := context.Background()

	student := testutil.SeedStudent(t, gdb, "Jane", "Doe")
	created, err := repo.Create(ctx, nil, []*types.Form1098T{newForm(student.ID, 2023, true)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if err := repo.Unpublish(ctx, nil, created[0].ID); err != nil {
		t.Fatalf("Unpublish: %v", err)
	}

	rows, err := repo.GetByIDs(ctx, nil, []uuid.UUID{created[0].ID})
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("retired row must survive, got %d rows", len(rows))
	}
	if rows[0].IsPublished {
		t.Fatalf("row still published after Unpublish")
	}

	got, err := repo.GetPublished(ctx, nil, student.ID, 2023)
	if err != nil {
		t.Fatalf("GetPublished: %v", err)
	}
	if got != nil {
		t.Fatalf("want nil after unpublish, got %+v", got)
	}
}

func TestListPublishedByStudentOrdersYearDescending(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.TestLogger(t)
	repo := NewForm1098TRepo(gdb, log)
	ctx := context.Background()

	student := testutil.SeedStudent(t, gdb, "Jane", "Doe")
	for _, year := range []int{2022, 2024, 2023} {
		if _, err := repo.Create(ctx, nil, []*types.Form1098T{newForm(student.ID, year, true)}); err != nil {
			t.Fatalf("create %d: %v", year, err)
		}
	}

	rows, err := repo.ListPublishedByStudent(ctx, nil, student.ID)
	if err != nil {
		t.Fatalf("ListPublishedByStudent: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("want 3 rows, got %d", len(rows))
	}
	for i, want := range []int{2024, 2023, 2022} {
		if rows[i].TaxYear != want {
			t.Fatalf("row %d: want year %d got %d", i, want, rows[i].TaxYear)
		}
	}
}

func TestCountAndStudentIDsByYear(t *testing.T) {
	gdb := testutil.OpenDB(t)
	log := testutil.TestLogger(t)
	repo := NewForm1098TRepo(gdb, log)
	ctx := context.Background()

	a := testutil.SeedStudent(t, gdb, "Jane", "Doe")
	b := testutil.SeedStudent(t, gdb, "John", "Roe")
	if _, err := repo.Create(ctx, nil, []*types.Form1098T{
		newForm(a.ID, 2024, true),
		newForm(b.ID, 2024, true),
		newForm(a.ID, 2023, true),
	}); err != nil {
		t.Fatalf("create: %v", err)
	}

	count, err := repo.CountPublishedByYear(ctx, nil, 2024)
	if err != nil {
		t.Fatalf("CountPublishedByYear: %v", err)
	}
	if count != 2 {
		t.Fatalf("want 2, got %d", count)
	}

	ids, err := repo.PublishedStudentIDsByYear(ctx, nil, 2024)
	if err != nil {
		t.Fatalf("PublishedStudentIDsByYear: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("want 2 ids, got %d", len(ids))
	}
}
