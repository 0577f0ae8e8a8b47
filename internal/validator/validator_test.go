package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

func TestValidateAnalysisRequest(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		req     *domain.AnalysisRequest
		wantMsg string
	}{
		{
			name: "valid request",
			req: &domain.AnalysisRequest{
				FileName: "patient.vcf",
				Content:  []byte("##fileformat=VCFv4.2\n"),
				Drugs:    []domain.Drug{domain.DrugCodeine, domain.DrugWarfarin},
			},
		},
		{
			name:    "nil request",
			req:     nil,
			wantMsg: domain.MsgMissingFile,
		},
		{
			name:    "missing file",
			req:     &domain.AnalysisRequest{Drugs: []domain.Drug{domain.DrugCodeine}},
			wantMsg: domain.MsgMissingFile,
		},
		{
			name:    "missing file and drugs reports the file first",
			req:     &domain.AnalysisRequest{},
			wantMsg: domain.MsgMissingFile,
		},
		{
			name:    "wrong extension",
			req:     &domain.AnalysisRequest{FileName: "patient.txt", Drugs: []domain.Drug{domain.DrugCodeine}},
			wantMsg: domain.MsgInvalidExtension,
		},
		{
			name:    "uppercase extension is rejected",
			req:     &domain.AnalysisRequest{FileName: "patient.VCF", Drugs: []domain.Drug{domain.DrugCodeine}},
			wantMsg: domain.MsgInvalidExtension,
		},
		{
			name:    "nil drugs",
			req:     &domain.AnalysisRequest{FileName: "patient.vcf"},
			wantMsg: domain.MsgNoDrugs,
		},
		{
			name:    "empty drugs",
			req:     &domain.AnalysisRequest{FileName: "patient.vcf", Drugs: []domain.Drug{}},
			wantMsg: domain.MsgNoDrugs,
		},
		{
			name:    "unsupported drug",
			req:     &domain.AnalysisRequest{FileName: "patient.vcf", Drugs: []domain.Drug{domain.DrugCodeine, "ASPIRIN"}},
			wantMsg: "Unsupported drug: ASPIRIN",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateAnalysisRequest(tt.req)
			if tt.wantMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, tt.wantMsg, domain.UserMessage(err))
		})
	}
}

func TestIsVCFName(t *testing.T) {
	assert.True(t, IsVCFName("sample.vcf"))
	assert.True(t, IsVCFName(".vcf"))
	assert.False(t, IsVCFName("sample.vcf.gz"))
	assert.False(t, IsVCFName("sample"))
	assert.False(t, IsVCFName(""))
}
