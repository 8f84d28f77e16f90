package services

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestBuiltinFieldMapLookup(t *testing.T) {
	m, err := LoadFieldMap(t.TempDir(), 2024)
	if err != nil {
		t.Fatalf("LoadFieldMap: %v", err)
	}
	id, err := m.Lookup(FieldBox1Payments)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if want := "topmostSubform[0].CopyB[0].RightCol[0].f2_8[0]"; id != want {
		t.Fatalf("box 1 id: want %q got %q", want, id)
	}
}

func TestLookupMissingFieldFails(t *testing.T) {
	m := FieldMap{TaxYear: 2024, Fields: map[string]string{FieldFilerName: "x"}}
	_, err := m.Lookup(FieldBox1Payments)
	if err == nil {
		t.Fatalf("missing field must error")
	}
	var missing *MissingFieldError
	if !errors.As(err, &missing) {
		t.Fatalf("want MissingFieldError, got %T", err)
	}
	if missing.Field != FieldBox1Payments || missing.TaxYear != 2024 {
		t.Fatalf("error detail: %+v", missing)
	}
}

func TestOverlayReplacesBuiltinEntries(t *testing.T) {
	dir := t.TempDir()
	overlay := "fields:\n  " + FieldBox1Payments + ": \"custom[0].f9[0]\"\n"
	if err := os.WriteFile(filepath.Join(dir, "2024.yaml"), []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	m, err := LoadFieldMap(dir, 2024)
	if err != nil {
		t.Fatalf("LoadFieldMap: %v", err)
	}
	id, err := m.Lookup(FieldBox1Payments)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if id != "custom[0].f9[0]" {
		t.Fatalf("overlay must win: got %q", id)
	}
	// Untouched entries keep the built-in ids.
	id, err = m.Lookup(FieldFilerEIN)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if want := "topmostSubform[0].CopyB[0].LeftCol[0].f2_2[0]"; id != want {
		t.Fatalf("builtin id lost: want %q got %q", want, id)
	}
}

func TestOverlayForNewYearOnBaseYear(t *testing.T) {
	dir := t.TempDir()
	overlay := "base_year: 2024\nfields:\n  " + FieldBox1Payments + ": \"v2025[0].f1[0]\"\n"
	if err := os.WriteFile(filepath.Join(dir, "2025.yaml"), []byte(overlay), 0o644); err != nil {
		t.Fatalf("write overlay: %v", err)
	}

	m, err := LoadFieldMap(dir, 2025)
	if err != nil {
		t.Fatalf("LoadFieldMap: %v", err)
	}
	id, _ := m.Lookup(FieldBox1Payments)
	if id != "v2025[0].f1[0]" {
		t.Fatalf("overlay entry: got %q", id)
	}
	id, err = m.Lookup(FieldStudentName)
	if err != nil {
		t.Fatalf("base year entry must carry over: %v", err)
	}
	if id == "" {
		t.Fatalf("empty id for carried-over field")
	}
}

func TestNoFieldMapForUnknownYear(t *testing.T) {
	_, err := LoadFieldMap(t.TempDir(), 2019)
	if err == nil {
		t.Fatalf("unknown year without overlay must error")
	}
}
