package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

const (
	summarySheet  = "Summary"
	variantsSheet = "Variants"
)

var summaryHeaders = []string{
	"Drug", "Patient ID", "Risk Label", "Severity", "Confidence (%)",
	"Primary Gene", "Diplotype", "Phenotype", "Action", "Dosing Guidance",
	"Alternative Drugs", "Monitoring Required", "CPIC Guideline",
	"VCF Parsed", "Variants Detected", "Genes Analyzed", "Confidence Basis",
}

var variantHeaders = []string{
	"Drug", "rsID", "Gene", "Star Allele", "Chromosome", "Position", "Ref", "Alt", "Genotype",
}

// WriteXLSX writes a workbook with one summary row per drug and one row per
// detected variant.
func WriteXLSX(w io.Writer, r *Report) error {
	f := excelize.NewFile()
	defer f.Close()

	// The default sheet is renamed rather than recreated so it stays active.
	if err := f.SetSheetName("Sheet1", summarySheet); err != nil {
		return fmt.Errorf("renaming summary sheet: %w", err)
	}
	if _, err := f.NewSheet(variantsSheet); err != nil {
		return fmt.Errorf("creating variants sheet: %w", err)
	}

	if err := writeRow(f, summarySheet, 1, toCells(summaryHeaders)); err != nil {
		return err
	}
	if err := writeRow(f, variantsSheet, 1, toCells(variantHeaders)); err != nil {
		return err
	}

	variantRow := 2
	for i, res := range r.Results {
		if err := writeRow(f, summarySheet, i+2, summaryCells(res)); err != nil {
			return err
		}
		for _, v := range res.PharmacogenomicProfile.DetectedVariants {
			cells := []interface{}{
				res.Drug, v.RSID, v.Gene, v.StarAllele, v.Chromosome, v.Position, v.Ref, v.Alt, v.Genotype,
			}
			if err := writeRow(f, variantsSheet, variantRow, cells); err != nil {
				return err
			}
			variantRow++
		}
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("writing workbook: %w", err)
	}
	return nil
}

func summaryCells(res domain.AnalysisResult) []interface{} {
	rec := res.ClinicalRecommendation
	qm := res.QualityMetrics
	return []interface{}{
		res.Drug,
		res.PatientID,
		string(res.RiskAssessment.RiskLabel),
		strings.ToUpper(string(res.RiskAssessment.Severity)),
		domain.ConfidencePercent(res.RiskAssessment.ConfidenceScore),
		res.PharmacogenomicProfile.PrimaryGene,
		res.PharmacogenomicProfile.Diplotype,
		res.PharmacogenomicProfile.Phenotype,
		rec.Action,
		rec.DosingGuidance,
		strings.Join(rec.AlternativeDrugs, ", "),
		rec.MonitoringRequired,
		rec.CPICGuideline,
		qm.VCFParsingSuccess,
		qm.VariantsDetected,
		strings.Join(qm.GenesAnalyzed, ", "),
		qm.ConfidenceBasis,
	}
}

func writeRow(f *excelize.File, sheet string, row int, cells []interface{}) error {
	for c, v := range cells {
		cell, err := excelize.CoordinatesToCellName(c+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return fmt.Errorf("setting %s!%s: %w", sheet, cell, err)
		}
	}
	return nil
}

func toCells(values []string) []interface{} {
	out := make([]interface{}, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}
