package services

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Logical field names used by the renderer. The per-year field map translates
// these to the template-internal AcroForm identifiers, which change whenever
// the IRS revises the form layout.
const (
	FieldFilerName      = "filer_name"
	FieldFilerEIN       = "filer_ein"
	FieldStudentTIN     = "student_tin"
	FieldStudentName    = "student_name"
	FieldStudentAddress = "student_address"
	FieldStudentCity    = "student_address2"
	FieldAccountNumber  = "account_number"

	FieldBox1Payments        = "box1_payments"
	FieldBox4Adjustments     = "box4_adjustments"
	FieldBox5Scholarships    = "box5_scholarships"
	FieldBox6ScholarshipAdj  = "box6_scholarship_adjustments"
	FieldBox10InsuranceRef   = "box10_insurance_refund"
	FieldBox7JanMarchCheck   = "box7_jan_march_check"
	FieldBox8HalftimeCheck   = "box8_halftime_check"
	FieldBox9GraduateCheck   = "box9_graduate_check"
	FieldCorrectedCheck      = "corrected_check"
)

// FieldMap is the versioned logical-name to template-field-id table for one
// tax year's template.
type FieldMap struct {
	TaxYear int
	Fields  map[string]string
}

// MissingFieldError means the active field map has no entry for a logical
// field the renderer needs. Rendering must fail rather than emit a form with
// the value silently dropped.
type MissingFieldError struct {
	TaxYear int
	Field   string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("field map for %d has no entry for %q", e.TaxYear, e.Field)
}

func (m FieldMap) Lookup(field string) (string, error) {
	id, ok := m.Fields[field]
	if !ok || id == "" {
		return "", &MissingFieldError{TaxYear: m.TaxYear, Field: field}
	}
	return id, nil
}

// Copy B field identifiers of the 2024 revision. New years start from the
// most recent built-in year and apply a YAML overlay for whatever moved.
var builtinFieldMaps = map[int]map[string]string{
	2024: {
		FieldFilerName:      "topmostSubform[0].CopyB[0].LeftCol[0].f2_1[0]",
		FieldFilerEIN:       "topmostSubform[0].CopyB[0].LeftCol[0].f2_2[0]",
		FieldStudentTIN:     "topmostSubform[0].CopyB[0].LeftCol[0].f2_3[0]",
		FieldStudentName:    "topmostSubform[0].CopyB[0].LeftCol[0].f2_4[0]",
		FieldStudentAddress: "topmostSubform[0].CopyB[0].LeftCol[0].f2_5[0]",
		FieldStudentCity:    "topmostSubform[0].CopyB[0].LeftCol[0].f2_6[0]",
		FieldAccountNumber:  "topmostSubform[0].CopyB[0].LeftCol[0].f2_7[0]",

		FieldBox1Payments:       "topmostSubform[0].CopyB[0].RightCol[0].f2_8[0]",
		FieldBox4Adjustments:    "topmostSubform[0].CopyB[0].RightCol[0].Box4_ReadOrder[0].f2_9[0]",
		FieldBox5Scholarships:   "topmostSubform[0].CopyB[0].RightCol[0].f2_10[0]",
		FieldBox6ScholarshipAdj: "topmostSubform[0].CopyB[0].RightCol[0].Box6_ReadOrder[0].f2_11[0]",
		FieldBox10InsuranceRef:  "topmostSubform[0].CopyB[0].RightCol[0].f2_12[0]",

		FieldBox7JanMarchCheck: "topmostSubform[0].CopyB[0].RightCol[0].c2_3[0]",
		FieldBox8HalftimeCheck: "topmostSubform[0].CopyB[0].RightCol[0].c2_4[0]",
		FieldBox9GraduateCheck: "topmostSubform[0].CopyB[0].RightCol[0].c2_5[0]",
		FieldCorrectedCheck:    "topmostSubform[0].CopyB[0].c2_1[0]",
	},
}

type fieldMapOverlay struct {
	BaseYear int               `yaml:"base_year"`
	Fields   map[string]string `yaml:"fields"`
}

// LoadFieldMap resolves the field map for a tax year: a built-in table, an
// optional YAML overlay ({templateDir}/{year}.yaml), or an overlay on top of
// an earlier built-in year when the overlay names one.
func LoadFieldMap(templateDir string, taxYear int) (FieldMap, error) {
	fields := make(map[string]string)
	builtin, haveBuiltin := builtinFieldMaps[taxYear]
	for k, v := range builtin {
		fields[k] = v
	}

	overlayPath := filepath.Join(templateDir, fmt.Sprintf("%d.yaml", taxYear))
	raw, err := os.ReadFile(overlayPath)
	switch {
	case err == nil:
		var overlay fieldMapOverlay
		if err := yaml.Unmarshal(raw, &overlay); err != nil {
			return FieldMap{}, fmt.Errorf("parse field map overlay %s: %w", overlayPath, err)
		}
		if !haveBuiltin && overlay.BaseYear != 0 {
			base, ok := builtinFieldMaps[overlay.BaseYear]
			if !ok {
				return FieldMap{}, fmt.Errorf("field map overlay %s names unknown base_year %d", overlayPath, overlay.BaseYear)
			}
			for k, v := range base {
				fields[k] = v
			}
		}
		for k, v := range overlay.Fields {
			fields[k] = v
		}
	case errors.Is(err, fs.ErrNotExist):
		if !haveBuiltin {
			return FieldMap{}, fmt.Errorf(
				"no field map for tax year %d: no built-in table and no overlay at %s",
				taxYear, overlayPath,
			)
		}
	default:
		return FieldMap{}, fmt.Errorf("read field map overlay %s: %w", overlayPath, err)
	}

	return FieldMap{TaxYear: taxYear, Fields: fields}, nil
}
