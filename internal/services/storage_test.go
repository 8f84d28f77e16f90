package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestArtifactPathLayout(t *testing.T) {
	studentID := uuid.MustParse("a8098c1a-f86e-11da-bd1a-00112444be1e")
	ts := time.Date(2025, time.January, 31, 9, 30, 5, 0, time.UTC)

	got := ArtifactPath("tax_forms/1098t", studentID, 2024, ts)
	want := fmt.Sprintf("tax_forms/1098t/2024/student_%s_1098t_2024_20250131_093005.pdf", studentID)
	if got != want {
		t.Fatalf("want %q got %q", want, got)
	}
}

func TestMemoryStorageRoundTrip(t *testing.T) {
	storage := NewMemoryFormStorage("tax_forms/1098t")
	ctx := context.Background()
	studentID := uuid.New()

	path, size, err := storage.Save(ctx, []byte("%PDF-1.7 test"), studentID, 2024)
	if err != nil {
		t.Fatalf("Save: %v", err)
	}
	if size != int64(len("%PDF-1.7 test")) {
		t.Fatalf("size: want %d got %d", len("%PDF-1.7 test"), size)
	}

	data, err := storage.Get(ctx, path)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if string(data) != "%PDF-1.7 test" {
		t.Fatalf("content mismatch: %q", data)
	}

	ok, err := storage.Exists(ctx, path)
	if err != nil || !ok {
		t.Fatalf("Exists: ok=%v err=%v", ok, err)
	}

	if err := storage.Delete(ctx, path); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := storage.Get(ctx, path); !errors.Is(err, ErrArtifactNotFound) {
		t.Fatalf("want ErrArtifactNotFound after delete, got %v", err)
	}
	// Delete of a missing path is not an error.
	if err := storage.Delete(ctx, path); err != nil {
		t.Fatalf("repeat Delete: %v", err)
	}
}
