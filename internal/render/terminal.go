package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

// CardTitle opens every card in terminal output.
const CardTitle = "DRUG ANALYSIS"

const defaultCardWidth = 88

// Terminal writes lipgloss-styled cards to a writer. Colour is dropped
// automatically when the writer is not a terminal.
type Terminal struct {
	out      io.Writer
	renderer *lipgloss.Renderer
	width    int
}

// NewTerminal creates a terminal renderer for w.
func NewTerminal(w io.Writer) *Terminal {
	return &Terminal{
		out:      w,
		renderer: lipgloss.NewRenderer(w),
		width:    defaultCardWidth,
	}
}

// WithWidth sets the outer card width.
func (t *Terminal) WithWidth(width int) *Terminal {
	if width > 20 {
		t.width = width
	}
	return t
}

// Render writes the heading followed by one card per result, in order.
func (t *Terminal) Render(results []domain.AnalysisResult) error {
	heading := t.renderer.NewStyle().Bold(true).Render("Analysis Results")
	sub := t.renderer.NewStyle().Foreground(lipgloss.Color(mutedColor)).Render(ResultsHeading(len(results)))
	if _, err := fmt.Fprintf(t.out, "%s\n%s\n\n", heading, sub); err != nil {
		return err
	}

	for _, view := range NewCardViews(results) {
		if _, err := fmt.Fprintln(t.out, t.Card(view)); err != nil {
			return err
		}
	}
	return nil
}

// Card renders a single card.
func (t *Terminal) Card(v CardView) string {
	r := t.renderer
	inner := t.width - 4

	label := r.NewStyle().Foreground(lipgloss.Color(mutedColor))
	bold := r.NewStyle().Bold(true)
	section := func(title, accent string) string {
		bar := r.NewStyle().Foreground(lipgloss.Color(accent)).Render("┃")
		return "\n" + bar + " " + bold.Render(title)
	}

	var b strings.Builder

	// Header
	badge := r.NewStyle().
		Foreground(lipgloss.Color(v.Risk.Text)).
		Background(lipgloss.Color(v.Risk.Background)).
		Bold(true).
		Padding(0, 1).
		Render("● " + v.RiskLabel)
	severity := r.NewStyle().Foreground(lipgloss.Color(v.SeverityColor)).Bold(true).Render(v.Severity)

	b.WriteString(label.Render(CardTitle) + "\n")
	b.WriteString(r.NewStyle().Bold(true).Render(v.Drug) + "  " + badge + "\n")
	b.WriteString(label.Render("Patient: ") + v.PatientID + "   " + label.Render("Severity: ") + severity + "\n")

	// Confidence
	b.WriteString("\n" + label.Render("Confidence Score") + "\n")
	b.WriteString(t.confidenceBar(v, inner-6) + "\n")

	// Profile
	b.WriteString(section("Pharmacogenomic Profile", "#0d6e6e") + "\n")
	b.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		label.Render("Primary Gene:"), bold.Render(v.PrimaryGene),
		label.Render("Diplotype:"), bold.Render(v.Diplotype),
		label.Render("Phenotype:"), bold.Render(v.Phenotype)))
	if v.HasVariants() {
		b.WriteString(label.Render("Detected Variants") + "\n")
		b.WriteString(t.variantTable(v.Variants))
	}

	// Recommendation
	b.WriteString(section("Clinical Recommendation", "#f0b429") + "\n")
	b.WriteString(label.Render("Action: ") + bold.Render(v.Action) + "\n")
	b.WriteString(label.Render("Dosing Guidance") + "\n")
	b.WriteString(r.NewStyle().Width(inner).Render(v.DosingGuidance) + "\n")
	if v.HasAlternatives() {
		b.WriteString(label.Render("Alternative Drugs: ") + strings.Join(v.AlternativeDrugs, ", ") + "\n")
	}
	monitoring := "✓ " + v.MonitoringLabel
	monitoringColor := okColor
	if v.MonitoringRequired {
		monitoring = "⚠ " + v.MonitoringLabel
		monitoringColor = "#92400e"
	}
	b.WriteString(r.NewStyle().Foreground(lipgloss.Color(monitoringColor)).Render(monitoring) + "\n")
	b.WriteString(label.Render("Guideline: "+v.CPICGuideline) + "\n")

	// Explanation
	b.WriteString(section("AI-Generated Clinical Explanation", "#7c3aed") + "\n")
	for _, s := range v.Explanation {
		b.WriteString(r.NewStyle().Foreground(lipgloss.Color("#6d28d9")).Bold(true).Render(strings.ToUpper(s.Label)) + "\n")
		b.WriteString(r.NewStyle().Width(inner).Render(s.Text) + "\n")
	}

	// Quality
	b.WriteString(section("Quality Metrics", "#0891b2") + "\n")
	parsed := "✗ " + v.VCFParsedLabel
	if v.VCFParsed {
		parsed = "✓ " + v.VCFParsedLabel
	}
	b.WriteString(fmt.Sprintf("%s %s   %s %d   %s %s\n",
		label.Render("VCF Parsed:"), r.NewStyle().Foreground(lipgloss.Color(v.VCFParsedColor)).Bold(true).Render(parsed),
		label.Render("Variants Found:"), v.VariantsDetected,
		label.Render("Genes Analyzed:"), v.GenesAnalyzed))
	b.WriteString(label.Render("Basis: " + v.ConfidenceBasis))

	return r.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(v.BorderColor)).
		Padding(0, 1).
		Width(t.width - 2).
		Render(b.String())
}

func (t *Terminal) confidenceBar(v CardView, width int) string {
	if width < 10 {
		width = 10
	}
	filled := v.ConfidencePct * width / 100
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	color := lipgloss.Color(v.ConfidenceColor)
	bar := t.renderer.NewStyle().Foreground(color).Render(strings.Repeat("█", filled)) +
		t.renderer.NewStyle().Foreground(lipgloss.Color(neutralBorder)).Render(strings.Repeat("░", width-filled))
	pct := t.renderer.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%d%%", v.ConfidencePct))
	return bar + " " + pct
}

func (t *Terminal) variantTable(rows []VariantRow) string {
	headers := []string{"rsID", "Gene", "Star Allele", "Chrom", "Position", "Genotype"}
	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = len(h)
	}
	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = []string{row.RSID, row.Gene, row.StarAllele, row.Chromosome, row.Position, row.Genotype}
		for j, c := range cells[i] {
			if w := lipgloss.Width(c); w > widths[j] {
				widths[j] = w
			}
		}
	}

	line := func(values []string) string {
		parts := make([]string, len(values))
		for i, val := range values {
			parts[i] = val + strings.Repeat(" ", widths[i]-lipgloss.Width(val))
		}
		return "  " + strings.Join(parts, "  ") + "\n"
	}

	var b strings.Builder
	b.WriteString(t.renderer.NewStyle().Foreground(lipgloss.Color("#64748b")).Render(strings.TrimRight(line(headers), "\n")) + "\n")
	for _, c := range cells {
		b.WriteString(line(c))
	}
	return b.String()
}
