// Package validator checks analysis submissions before anything leaves the process.
package validator

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

// VCFExtension is the only accepted file suffix. The comparison is case-sensitive.
const VCFExtension = ".vcf"

type Validator struct {
	validate *validator.Validate
}

func New() *Validator {
	v := validator.New()

	// Custom validators
	v.RegisterValidation("vcf_file", validateVCFFile)
	v.RegisterValidation("supported_drug", validateSupportedDrug)

	return &Validator{validate: v}
}

func (v *Validator) Validate(i interface{}) error {
	return v.validate.Struct(i)
}

// ValidateAnalysisRequest checks a submission and returns a domain validation
// error carrying the first operator-facing message that applies.
func (v *Validator) ValidateAnalysisRequest(req *domain.AnalysisRequest) error {
	if req == nil {
		return domain.NewValidationError(domain.MsgMissingFile)
	}

	err := v.Validate(req)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return domain.NewValidationError(err.Error())
	}
	return domain.NewValidationError(messageFor(verrs[0]))
}

// IsVCFName reports whether a file name carries the .vcf suffix.
func IsVCFName(name string) bool {
	return strings.HasSuffix(name, VCFExtension)
}

func messageFor(fe validator.FieldError) string {
	switch fe.StructField() {
	case "FileName":
		if fe.Tag() == "required" {
			return domain.MsgMissingFile
		}
		return domain.MsgInvalidExtension
	case "Drugs":
		if fe.Tag() == "supported_drug" {
			return fmt.Sprintf("Unsupported drug: %v", fe.Value())
		}
		return domain.MsgNoDrugs
	}
	return fmt.Sprintf("invalid %s", strings.ToLower(fe.Field()))
}

func validateVCFFile(fl validator.FieldLevel) bool {
	return IsVCFName(fl.Field().String())
}

func validateSupportedDrug(fl validator.FieldLevel) bool {
	return domain.Drug(fl.Field().String()).IsSupported()
}
