package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/pflag"

	"github.com/alexanderramin/appraise/internal/domain"
)

var (
	_ pflag.Value = (*templateTypeFlag)(nil)
	_ pflag.Value = (*propertyClassFlag)(nil)
	_ pflag.Value = (*measurementFlag)(nil)
	_ pflag.Value = (*statusFlag)(nil)
)

// templateTypeFlag accepts NAS, RPS, CUSTOM or AIC_FORM in any case.
type templateTypeFlag domain.TemplateType

func (f *templateTypeFlag) String() string { return string(*f) }
func (f *templateTypeFlag) Type() string   { return "template" }

func (f *templateTypeFlag) Set(s string) error {
	t := domain.TemplateType(strings.ToUpper(strings.TrimSpace(s)))
	if !domain.ValidTemplateTypes[t] {
		return fmt.Errorf("must be one of NAS, RPS, CUSTOM, AIC_FORM")
	}
	*f = templateTypeFlag(t)
	return nil
}

type propertyClassFlag domain.PropertyClass

func (f *propertyClassFlag) String() string { return string(*f) }
func (f *propertyClassFlag) Type() string   { return "class" }

func (f *propertyClassFlag) Set(s string) error {
	switch c := domain.PropertyClass(strings.ToLower(s)); c {
	case domain.PropertyResidential, domain.PropertySemicommercial:
		*f = propertyClassFlag(c)
		return nil
	}
	return fmt.Errorf("must be residential or semicommercial")
}

type measurementFlag domain.MeasurementSystem

func (f *measurementFlag) String() string { return string(*f) }
func (f *measurementFlag) Type() string   { return "units" }

func (f *measurementFlag) Set(s string) error {
	switch m := domain.MeasurementSystem(strings.ToLower(s)); m {
	case domain.MeasurementMetric, domain.MeasurementImperial:
		*f = measurementFlag(m)
		return nil
	}
	return fmt.Errorf("must be metric or imperial")
}

type statusFlag domain.AppraisalStatus

func (f *statusFlag) String() string { return string(*f) }
func (f *statusFlag) Type() string   { return "status" }

func (f *statusFlag) Set(s string) error {
	switch st := domain.AppraisalStatus(strings.ToLower(s)); st {
	case domain.AppraisalDraft, domain.AppraisalInProgress, domain.AppraisalCompleted, domain.AppraisalArchived:
		*f = statusFlag(st)
		return nil
	}
	return fmt.Errorf("must be draft, in_progress, completed or archived")
}
