package domain

import "math"

// RiskLabel is the drug-specific risk category assigned by the analysis backend.
type RiskLabel string

const (
	RiskSafe         RiskLabel = "Safe"
	RiskAdjustDosage RiskLabel = "Adjust Dosage"
	RiskToxic        RiskLabel = "Toxic"
	RiskIneffective  RiskLabel = "Ineffective"
	RiskUnknown      RiskLabel = "Unknown"
)

// Severity grades how serious a risk label is.
type Severity string

const (
	SeverityNone     Severity = "none"
	SeverityLow      Severity = "low"
	SeverityModerate Severity = "moderate"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// AnalysisResult is one per-drug entry of the /analyze response array.
type AnalysisResult struct {
	PatientID               string                 `json:"patient_id"`
	Drug                    string                 `json:"drug"`
	Timestamp               string                 `json:"timestamp,omitempty"`
	RiskAssessment          RiskAssessment         `json:"risk_assessment"`
	PharmacogenomicProfile  PharmacogenomicProfile `json:"pharmacogenomic_profile"`
	ClinicalRecommendation  ClinicalRecommendation `json:"clinical_recommendation"`
	LLMGeneratedExplanation Explanation            `json:"llm_generated_explanation"`
	QualityMetrics          QualityMetrics         `json:"quality_metrics"`
}

// RiskAssessment carries the risk label, its severity and the backend's confidence.
type RiskAssessment struct {
	RiskLabel       RiskLabel `json:"risk_label"`
	ConfidenceScore float64   `json:"confidence_score"`
	Severity        Severity  `json:"severity"`
}

// ConfidencePercent converts a [0,1] confidence score to a whole percentage.
func ConfidencePercent(score float64) int {
	return int(math.Round(score * 100))
}

// PharmacogenomicProfile describes the primary gene and the variants found in it.
type PharmacogenomicProfile struct {
	PrimaryGene      string            `json:"primary_gene"`
	Diplotype        string            `json:"diplotype"`
	Phenotype        string            `json:"phenotype"`
	DetectedVariants []DetectedVariant `json:"detected_variants"`
}

// DetectedVariant is a single pharmacogenomic variant reported for the sample.
type DetectedVariant struct {
	RSID       string `json:"rsid"`
	Gene       string `json:"gene"`
	StarAllele string `json:"star_allele"`
	Chromosome string `json:"chromosome"`
	Position   int64  `json:"position"`
	Ref        string `json:"ref,omitempty"`
	Alt        string `json:"alt,omitempty"`
	Genotype   string `json:"genotype"`
}

// ClinicalRecommendation is the CPIC-derived guidance for the drug.
type ClinicalRecommendation struct {
	Action             string   `json:"action"`
	DosingGuidance     string   `json:"dosing_guidance"`
	AlternativeDrugs   []string `json:"alternative_drugs"`
	MonitoringRequired bool     `json:"monitoring_required"`
	CPICGuideline      string   `json:"cpic_guideline"`
}

// Explanation holds the free-text narrative generated by the backend's language model.
type Explanation struct {
	Summary              string `json:"summary"`
	Mechanism            string `json:"mechanism"`
	VariantImpact        string `json:"variant_impact"`
	ClinicalSignificance string `json:"clinical_significance"`
}

// QualityMetrics reports how well the uploaded VCF could be used.
type QualityMetrics struct {
	VCFParsingSuccess bool     `json:"vcf_parsing_success"`
	VariantsDetected  int      `json:"variants_detected"`
	GenesAnalyzed     []string `json:"genes_analyzed"`
	ConfidenceBasis   string   `json:"confidence_basis"`
}

// HealthStatus is the body returned by the backend health endpoint.
type HealthStatus struct {
	Status    string `json:"status"`
	Service   string `json:"service"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}
