package domain

import (
	"fmt"
	"strings"
)

// Drug is one of the drug identifiers the analysis backend accepts.
type Drug string

const (
	DrugCodeine      Drug = "CODEINE"
	DrugWarfarin     Drug = "WARFARIN"
	DrugClopidogrel  Drug = "CLOPIDOGREL"
	DrugSimvastatin  Drug = "SIMVASTATIN"
	DrugAzathioprine Drug = "AZATHIOPRINE"
	DrugFluorouracil Drug = "FLUOROURACIL"
)

// SupportedDrugs lists the selectable drugs in display order.
var SupportedDrugs = []Drug{
	DrugCodeine,
	DrugWarfarin,
	DrugClopidogrel,
	DrugSimvastatin,
	DrugAzathioprine,
	DrugFluorouracil,
}

// primaryGenes maps each drug to the pharmacogene the backend evaluates for it.
var primaryGenes = map[Drug]string{
	DrugCodeine:      "CYP2D6",
	DrugWarfarin:     "CYP2C9",
	DrugClopidogrel:  "CYP2C19",
	DrugSimvastatin:  "SLCO1B1",
	DrugAzathioprine: "TPMT",
	DrugFluorouracil: "DPYD",
}

// PrimaryGene returns the pharmacogene associated with the drug.
func (d Drug) PrimaryGene() string {
	return primaryGenes[d]
}

// IsSupported reports whether d is part of the fixed enumeration.
func (d Drug) IsSupported() bool {
	_, ok := primaryGenes[d]
	return ok
}

// SupportedGenes returns the pharmacogenes in the same order as SupportedDrugs.
func SupportedGenes() []string {
	genes := make([]string, 0, len(SupportedDrugs))
	for _, d := range SupportedDrugs {
		genes = append(genes, d.PrimaryGene())
	}
	return genes
}

// ParseDrug normalizes a user-supplied name and checks it against the enumeration.
func ParseDrug(raw string) (Drug, error) {
	d := Drug(strings.ToUpper(strings.TrimSpace(raw)))
	if !d.IsSupported() {
		return "", NewValidationError(fmt.Sprintf("Unsupported drug: %s", raw))
	}
	return d, nil
}

// ParseDrugList splits a comma-separated list, skipping empty entries.
func ParseDrugList(raw string) ([]Drug, error) {
	var drugs []Drug
	for _, part := range strings.Split(raw, ",") {
		if strings.TrimSpace(part) == "" {
			continue
		}
		d, err := ParseDrug(part)
		if err != nil {
			return nil, err
		}
		drugs = append(drugs, d)
	}
	return drugs, nil
}

// JoinDrugs renders the wire form of the drugs field.
func JoinDrugs(drugs []Drug) string {
	names := make([]string, len(drugs))
	for i, d := range drugs {
		names[i] = string(d)
	}
	return strings.Join(names, ",")
}
