package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/shopspring/decimal"

	"github.com/campusbridge/taxforms-backend/internal/logger"
)

// StudentFormData is the identity block printed on one form.
type StudentFormData struct {
	Name          string
	TIN           string
	Address       string
	Address2      string
	AccountNumber string
}

// FormAmounts are the required Box 1 and Box 5 figures.
type FormAmounts struct {
	Payments     decimal.Decimal
	Scholarships decimal.Decimal
}

// OptionalAmounts are each independently optional; a nil pointer leaves the
// corresponding box untouched in the template.
type OptionalAmounts struct {
	Adjustments            *decimal.Decimal
	ScholarshipAdjustments *decimal.Decimal
	InsuranceRefund        *decimal.Decimal
}

// FormCheckboxes are tri-state: nil leaves the field untouched, true checks
// it, false explicitly writes the off state.
type FormCheckboxes struct {
	JanMarch  *bool
	Halftime  *bool
	Graduate  *bool
	Corrected *bool
}

type FormGenerator interface {
	Generate(student StudentFormData, amounts FormAmounts, optional *OptionalAmounts, checkboxes *FormCheckboxes) ([]byte, error)
}

type pdfFormGenerator struct {
	log      *logger.Logger
	template []byte
	mapping  FieldMap
	filer    FilerInfo
	conf     *model.Configuration
}

// NewFormGenerator reads the template once; a batch reuses one generator
// across all students. Filer info is fixed at construction so a mid-batch
// settings edit cannot split a batch across two issuer identities.
func NewFormGenerator(baseLog *logger.Logger, templatePath string, mapping FieldMap, filer FilerInfo) (FormGenerator, error) {
	serviceLog := baseLog.With("service", "FormGenerator", "tax_year", mapping.TaxYear)
	template, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("read 1098-T template %s: %w", templatePath, err)
	}
	return &pdfFormGenerator{
		log:      serviceLog,
		template: template,
		mapping:  mapping,
		filer:    filer,
		conf:     model.NewDefaultConfiguration(),
	}, nil
}

func (g *pdfFormGenerator) Generate(student StudentFormData, amounts FormAmounts, optional *OptionalAmounts, checkboxes *FormCheckboxes) ([]byte, error) {
	data, err := buildFormData(g.mapping, g.filer, student, amounts, optional, checkboxes)
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal form data: %w", err)
	}

	var out bytes.Buffer
	if err := api.FillForm(bytes.NewReader(g.template), bytes.NewReader(payload), &out, g.conf); err != nil {
		return nil, fmt.Errorf("fill 1098-T form: %w", err)
	}
	return out.Bytes(), nil
}

// pdfcpu form-fill JSON. Fields absent from the payload stay untouched in the
// output; the form is intentionally not flattened so IRS viewers still see
// editable AcroForm fields.
type formTextField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Locked bool   `json:"locked"`
}

type formCheckBox struct {
	Name   string `json:"name"`
	Value  bool   `json:"value"`
	Locked bool   `json:"locked"`
}

type formPage struct {
	TextFields []formTextField `json:"textfield,omitempty"`
	CheckBoxes []formCheckBox  `json:"checkbox,omitempty"`
}

type formData struct {
	Forms []formPage `json:"forms"`
}

func buildFormData(mapping FieldMap, filer FilerInfo, student StudentFormData, amounts FormAmounts, optional *OptionalAmounts, checkboxes *FormCheckboxes) (*formData, error) {
	page := formPage{}

	addText := func(field, value string) error {
		id, err := mapping.Lookup(field)
		if err != nil {
			return err
		}
		page.TextFields = append(page.TextFields, formTextField{Name: id, Value: value})
		return nil
	}
	addCheck := func(field string, value bool) error {
		id, err := mapping.Lookup(field)
		if err != nil {
			return err
		}
		page.CheckBoxes = append(page.CheckBoxes, formCheckBox{Name: id, Value: value})
		return nil
	}

	filerBlock := filer.Name
	if filer.Address != "" {
		filerBlock += "\n" + filer.Address
	}
	if filer.Phone != "" {
		filerBlock += "\n" + filer.Phone
	}

	required := []struct {
		field string
		value string
	}{
		{FieldFilerName, filerBlock},
		{FieldFilerEIN, filer.EIN},
		{FieldStudentName, student.Name},
		{FieldStudentTIN, student.TIN},
		{FieldStudentAddress, student.Address},
		{FieldAccountNumber, student.AccountNumber},
		{FieldBox1Payments, FormatCurrency(amounts.Payments)},
		{FieldBox5Scholarships, FormatCurrency(amounts.Scholarships)},
	}
	for _, f := range required {
		if err := addText(f.field, f.value); err != nil {
			return nil, err
		}
	}

	if student.Address2 != "" {
		if err := addText(FieldStudentCity, student.Address2); err != nil {
			return nil, err
		}
	}

	if optional != nil {
		opts := []struct {
			field string
			value *decimal.Decimal
		}{
			{FieldBox4Adjustments, optional.Adjustments},
			{FieldBox6ScholarshipAdj, optional.ScholarshipAdjustments},
			{FieldBox10InsuranceRef, optional.InsuranceRefund},
		}
		for _, o := range opts {
			if o.value == nil {
				continue
			}
			if err := addText(o.field, FormatCurrency(*o.value)); err != nil {
				return nil, err
			}
		}
	}

	if checkboxes != nil {
		checks := []struct {
			field string
			value *bool
		}{
			{FieldBox7JanMarchCheck, checkboxes.JanMarch},
			{FieldBox8HalftimeCheck, checkboxes.Halftime},
			{FieldBox9GraduateCheck, checkboxes.Graduate},
			{FieldCorrectedCheck, checkboxes.Corrected},
		}
		for _, c := range checks {
			if c.value == nil {
				continue
			}
			if err := addCheck(c.field, *c.value); err != nil {
				return nil, err
			}
		}
	}

	return &formData{Forms: []formPage{page}}, nil
}

// FormatCurrency renders a fixed two-decimal string, half-up. IRS boxes must
// never show a bare integer, scientific notation, or an empty string for zero.
func FormatCurrency(amount decimal.Decimal) string {
	return amount.StringFixed(2)
}

// FormFilename is the attachment name offered on download.
func FormFilename(taxYear int, studentName string) string {
	return fmt.Sprintf("1098-T_%d_%s.pdf", taxYear, strings.ReplaceAll(studentName, " ", "_"))
}
