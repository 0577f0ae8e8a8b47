package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDrug(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Drug
		wantErr  bool
	}{
		{name: "uppercase", input: "CODEINE", expected: DrugCodeine},
		{name: "lowercase with spaces", input: "  warfarin ", expected: DrugWarfarin},
		{name: "mixed case", input: "Fluorouracil", expected: DrugFluorouracil},
		{name: "unsupported", input: "ASPIRIN", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := ParseDrug(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, d)
		})
	}
}

func TestParseDrugList(t *testing.T) {
	drugs, err := ParseDrugList("codeine, ,SIMVASTATIN,")
	require.NoError(t, err)
	assert.Equal(t, []Drug{DrugCodeine, DrugSimvastatin}, drugs)

	_, err = ParseDrugList("CODEINE,IBUPROFEN")
	assert.Error(t, err)

	drugs, err = ParseDrugList("")
	require.NoError(t, err)
	assert.Empty(t, drugs)
}

func TestJoinDrugs(t *testing.T) {
	assert.Equal(t, "CODEINE,WARFARIN", JoinDrugs([]Drug{DrugCodeine, DrugWarfarin}))
	assert.Equal(t, "", JoinDrugs(nil))
}

func TestPrimaryGenes(t *testing.T) {
	assert.Len(t, SupportedDrugs, 6)
	assert.Equal(t, "CYP2D6", DrugCodeine.PrimaryGene())
	assert.Equal(t, "DPYD", DrugFluorouracil.PrimaryGene())
	assert.Equal(t, []string{"CYP2D6", "CYP2C9", "CYP2C19", "SLCO1B1", "TPMT", "DPYD"}, SupportedGenes())
	assert.False(t, Drug("ASPIRIN").IsSupported())
}

func TestConfidencePercent(t *testing.T) {
	assert.Equal(t, 92, ConfidencePercent(0.92))
	assert.Equal(t, 100, ConfidencePercent(1))
	assert.Equal(t, 0, ConfidencePercent(0))
	assert.Equal(t, 70, ConfidencePercent(0.704))
	assert.Equal(t, 89, ConfidencePercent(0.894))
}
