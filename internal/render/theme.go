// Package render turns analysis results into per-drug cards for the terminal
// and the web front.
package render

import "github.com/pharma-guard/pharmaguard/internal/domain"

// RiskPalette is the colour set for one risk label.
type RiskPalette struct {
	Background string
	Border     string
	Text       string
	Dot        string
}

var riskPalettes = map[domain.RiskLabel]RiskPalette{
	domain.RiskSafe:         {Background: "#dcfce7", Border: "#16a34a", Text: "#15803d", Dot: "#22c55e"},
	domain.RiskAdjustDosage: {Background: "#fef9c3", Border: "#ca8a04", Text: "#a16207", Dot: "#eab308"},
	domain.RiskToxic:        {Background: "#fee2e2", Border: "#dc2626", Text: "#b91c1c", Dot: "#ef4444"},
	domain.RiskIneffective:  {Background: "#ffedd5", Border: "#ea580c", Text: "#c2410c", Dot: "#f97316"},
	domain.RiskUnknown:      {Background: "#f1f5f9", Border: "#64748b", Text: "#475569", Dot: "#94a3b8"},
}

var severityColors = map[domain.Severity]string{
	domain.SeverityNone:     "#22c55e",
	domain.SeverityLow:      "#84cc16",
	domain.SeverityModerate: "#eab308",
	domain.SeverityHigh:     "#f97316",
	domain.SeverityCritical: "#ef4444",
}

const (
	neutralBorder = "#e2e8f0"
	mutedColor    = "#94a3b8"

	confidenceHigh   = "#22c55e"
	confidenceMedium = "#eab308"
	confidenceLow    = "#f97316"

	okColor     = "#16a34a"
	failedColor = "#dc2626"
)

// RiskColors returns the palette for a label; unrecognised labels get the
// Unknown palette.
func RiskColors(label domain.RiskLabel) RiskPalette {
	if p, ok := riskPalettes[label]; ok {
		return p
	}
	return riskPalettes[domain.RiskUnknown]
}

// CardBorderColor is the outline of a whole card. Unrecognised labels get a
// neutral outline rather than the Unknown palette.
func CardBorderColor(label domain.RiskLabel) string {
	if p, ok := riskPalettes[label]; ok {
		return p.Border
	}
	return neutralBorder
}

// SeverityColor returns the colour for a severity grade.
func SeverityColor(sev domain.Severity) string {
	if c, ok := severityColors[sev]; ok {
		return c
	}
	return mutedColor
}

// ConfidenceColor grades a whole-number percentage: 90 and up is green,
// 70 and up is yellow, anything lower is orange.
func ConfidenceColor(pct int) string {
	switch {
	case pct >= 90:
		return confidenceHigh
	case pct >= 70:
		return confidenceMedium
	default:
		return confidenceLow
	}
}
