package render

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

// Labels shared by every renderer.
const (
	LabelMonitoringRequired = "Monitoring Required"
	LabelRoutineMonitoring  = "Routine Monitoring"
	LabelParseSuccess       = "Success"
	LabelParseFailed        = "Failed"
	EmptyPlaceholder        = "—"
)

// VariantRow is one line of the detected-variants table.
type VariantRow struct {
	RSID       string
	Gene       string
	StarAllele string
	Chromosome string
	Position   string
	Genotype   string
}

// Section is a titled block of explanation text.
type Section struct {
	Label string
	Text  string
}

// CardView is everything a renderer needs to draw one result card.
type CardView struct {
	Drug      string
	PatientID string

	RiskLabel     string
	Risk          RiskPalette
	BorderColor   string
	Severity      string
	SeverityColor string

	ConfidencePct   int
	ConfidenceColor string

	PrimaryGene string
	Diplotype   string
	Phenotype   string
	Variants    []VariantRow

	Action             string
	DosingGuidance     string
	AlternativeDrugs   []string
	MonitoringRequired bool
	MonitoringLabel    string
	CPICGuideline      string

	Explanation []Section

	VCFParsed        bool
	VCFParsedLabel   string
	VCFParsedColor   string
	VariantsDetected int
	GenesAnalyzed    string
	ConfidenceBasis  string
}

// HasVariants reports whether the variants table should be drawn.
func (c CardView) HasVariants() bool {
	return len(c.Variants) > 0
}

// HasAlternatives reports whether the alternative drugs list should be drawn.
func (c CardView) HasAlternatives() bool {
	return len(c.AlternativeDrugs) > 0
}

// NewCardView derives the presentation of a single result.
func NewCardView(res domain.AnalysisResult) CardView {
	risk := res.RiskAssessment
	profile := res.PharmacogenomicProfile
	rec := res.ClinicalRecommendation
	llm := res.LLMGeneratedExplanation
	qm := res.QualityMetrics

	pct := domain.ConfidencePercent(risk.ConfidenceScore)

	view := CardView{
		Drug:      res.Drug,
		PatientID: res.PatientID,

		RiskLabel:     string(risk.RiskLabel),
		Risk:          RiskColors(risk.RiskLabel),
		BorderColor:   CardBorderColor(risk.RiskLabel),
		Severity:      strings.ToUpper(string(risk.Severity)),
		SeverityColor: SeverityColor(risk.Severity),

		ConfidencePct:   pct,
		ConfidenceColor: ConfidenceColor(pct),

		PrimaryGene: profile.PrimaryGene,
		Diplotype:   profile.Diplotype,
		Phenotype:   profile.Phenotype,

		Action:             rec.Action,
		DosingGuidance:     rec.DosingGuidance,
		AlternativeDrugs:   rec.AlternativeDrugs,
		MonitoringRequired: rec.MonitoringRequired,
		MonitoringLabel:    LabelRoutineMonitoring,
		CPICGuideline:      rec.CPICGuideline,

		Explanation: []Section{
			{Label: "Summary", Text: llm.Summary},
			{Label: "Biological Mechanism", Text: llm.Mechanism},
			{Label: "Variant Impact", Text: llm.VariantImpact},
			{Label: "Clinical Significance", Text: llm.ClinicalSignificance},
		},

		VCFParsed:        qm.VCFParsingSuccess,
		VCFParsedLabel:   LabelParseFailed,
		VCFParsedColor:   failedColor,
		VariantsDetected: qm.VariantsDetected,
		GenesAnalyzed:    JoinOrDash(qm.GenesAnalyzed),
		ConfidenceBasis:  qm.ConfidenceBasis,
	}

	if rec.MonitoringRequired {
		view.MonitoringLabel = LabelMonitoringRequired
	}
	if qm.VCFParsingSuccess {
		view.VCFParsedLabel = LabelParseSuccess
		view.VCFParsedColor = okColor
	}

	for _, v := range profile.DetectedVariants {
		view.Variants = append(view.Variants, VariantRow{
			RSID:       v.RSID,
			Gene:       v.Gene,
			StarAllele: v.StarAllele,
			Chromosome: v.Chromosome,
			Position:   FormatPosition(v.Position),
			Genotype:   v.Genotype,
		})
	}

	return view
}

// NewCardViews maps results to cards one-to-one, keeping the received order.
func NewCardViews(results []domain.AnalysisResult) []CardView {
	views := make([]CardView, len(results))
	for i, res := range results {
		views[i] = NewCardView(res)
	}
	return views
}

// FormatPosition renders a genomic coordinate with comma thousands separators.
func FormatPosition(pos int64) string {
	return humanize.Comma(pos)
}

// JoinOrDash joins values with ", " or returns a dash for an empty list.
func JoinOrDash(values []string) string {
	if joined := strings.Join(values, ", "); joined != "" {
		return joined
	}
	return EmptyPlaceholder
}

// FileSizeKB formats a byte count as kilobytes with one decimal.
func FileSizeKB(size int64) string {
	return fmt.Sprintf("%.1f KB", float64(size)/1024)
}

// ResultsHeading is the line above the cards, e.g. "2 drugs analyzed".
func ResultsHeading(n int) string {
	if n > 1 {
		return fmt.Sprintf("%d drugs analyzed", n)
	}
	return fmt.Sprintf("%d drug analyzed", n)
}
