package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/logging"
)

// fakeAnalyzer records calls and returns a canned outcome.
type fakeAnalyzer struct {
	mu       sync.Mutex
	calls    int
	lastReq  *domain.AnalysisRequest
	resp     *domain.AnalysisResponse
	err      error
	inflight func(s *Session)
	session  *Session
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, req *domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
	f.mu.Lock()
	f.calls++
	f.lastReq = req
	f.mu.Unlock()
	if f.inflight != nil {
		f.inflight(f.session)
	}
	return f.resp, f.err
}

func (f *fakeAnalyzer) Calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newSession() *Session {
	return New(nil, logging.Discard())
}

func okResponse() *domain.AnalysisResponse {
	return &domain.AnalysisResponse{
		Results: []domain.AnalysisResult{{Drug: "CODEINE"}, {Drug: "WARFARIN"}},
		Raw:     []byte(`[{"drug":"CODEINE"},{"drug":"WARFARIN"}]`),
	}
}

func TestSelectFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		wantErr bool
	}{
		{name: "vcf accepted", file: "sample.vcf"},
		{name: "txt rejected", file: "sample.txt", wantErr: true},
		{name: "gzipped rejected", file: "sample.vcf.gz", wantErr: true},
		{name: "no extension rejected", file: "sample", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession()
			require.NoError(t, s.SelectFile("previous.vcf", []byte("prev")))

			err := s.SelectFile(tt.file, []byte("##fileformat=VCFv4.2"))
			st := s.Snapshot()
			require.NotNil(t, st.File)

			if tt.wantErr {
				require.Error(t, err)
				assert.Equal(t, "Please upload a .vcf file", st.Err)
				assert.Equal(t, "previous.vcf", st.File.Name, "rejected file must not replace the prior one")
				assert.Equal(t, int64(4), st.File.Size)
				return
			}
			require.NoError(t, err)
			assert.Empty(t, st.Err)
			assert.Equal(t, tt.file, st.File.Name)
			assert.Equal(t, int64(20), st.File.Size)
		})
	}
}

func TestSelectFile_ClearsError(t *testing.T) {
	s := newSession()
	require.Error(t, s.SelectFile("notes.txt", nil))
	assert.NotEmpty(t, s.Snapshot().Err)

	require.NoError(t, s.SelectFile("sample.vcf", nil))
	assert.Empty(t, s.Snapshot().Err)
}

func TestToggleDrug(t *testing.T) {
	s := newSession()

	require.NoError(t, s.ToggleDrug("WARFARIN"))
	require.NoError(t, s.ToggleDrug("codeine"))
	require.NoError(t, s.ToggleDrug("SIMVASTATIN"))
	assert.Equal(t, []domain.Drug{domain.DrugWarfarin, domain.DrugCodeine, domain.DrugSimvastatin}, s.SelectedDrugs())
	assert.True(t, s.IsSelected(domain.DrugCodeine))

	require.NoError(t, s.ToggleDrug("CODEINE"))
	assert.Equal(t, []domain.Drug{domain.DrugWarfarin, domain.DrugSimvastatin}, s.SelectedDrugs())
	assert.False(t, s.IsSelected(domain.DrugCodeine))

	err := s.ToggleDrug("ASPIRIN")
	require.Error(t, err)
	assert.True(t, domain.IsValidation(err))
	assert.Len(t, s.SelectedDrugs(), 2)
}

func TestToggleDrug_TwiceIsIdentity(t *testing.T) {
	for _, d := range domain.SupportedDrugs {
		t.Run(string(d), func(t *testing.T) {
			s := newSession()
			require.NoError(t, s.ToggleDrug("CLOPIDOGREL"))
			require.NoError(t, s.ToggleDrug("AZATHIOPRINE"))
			before := s.SelectedDrugs()
			wasSelected := s.IsSelected(d)

			require.NoError(t, s.ToggleDrug(string(d)))
			require.NoError(t, s.ToggleDrug(string(d)))

			after := s.SelectedDrugs()
			if wasSelected {
				// Re-adding appends, so only membership is restored.
				assert.ElementsMatch(t, before, after)
			} else {
				assert.Equal(t, before, after)
			}
		})
	}
}

func TestSubmit_ValidationBeforeNetwork(t *testing.T) {
	tests := []struct {
		name    string
		setup   func(s *Session)
		wantMsg string
	}{
		{
			name:    "no file",
			setup:   func(s *Session) { _ = s.ToggleDrug("CODEINE") },
			wantMsg: "Please upload a VCF file first.",
		},
		{
			name:    "no drugs",
			setup:   func(s *Session) { _ = s.SelectFile("sample.vcf", []byte("x")) },
			wantMsg: "Please select at least one drug.",
		},
		{
			name: "drug toggled off again",
			setup: func(s *Session) {
				_ = s.SelectFile("sample.vcf", []byte("x"))
				_ = s.ToggleDrug("CODEINE")
				_ = s.ToggleDrug("CODEINE")
			},
			wantMsg: "Please select at least one drug.",
		},
		{
			name:    "nothing selected",
			setup:   func(s *Session) {},
			wantMsg: "Please upload a VCF file first.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newSession()
			tt.setup(s)
			analyzer := &fakeAnalyzer{resp: okResponse()}

			assert.False(t, s.CanSubmit())
			rep, err := s.Submit(context.Background(), analyzer)
			require.Error(t, err)
			assert.Nil(t, rep)
			assert.True(t, domain.IsValidation(err))
			assert.Equal(t, 0, analyzer.Calls(), "no request may be sent")
			assert.Equal(t, tt.wantMsg, s.Snapshot().Err)
			assert.False(t, s.Snapshot().Loading)
		})
	}
}

func TestSubmit_Success(t *testing.T) {
	s := newSession()
	require.NoError(t, s.SelectFile("sample.vcf", []byte("##fileformat=VCFv4.2")))
	require.NoError(t, s.ToggleDrug("WARFARIN"))
	require.NoError(t, s.ToggleDrug("CODEINE"))
	assert.True(t, s.CanSubmit())

	analyzer := &fakeAnalyzer{resp: okResponse(), session: s}
	analyzer.inflight = func(s *Session) {
		st := s.Snapshot()
		assert.True(t, st.Loading)
		assert.False(t, s.CanSubmit())
		assert.Empty(t, st.Err)
	}

	rep, err := s.Submit(context.Background(), analyzer)
	require.NoError(t, err)
	require.NotNil(t, rep)

	assert.Equal(t, 1, analyzer.Calls())
	assert.Equal(t, "sample.vcf", analyzer.lastReq.FileName)
	assert.Equal(t, []domain.Drug{domain.DrugWarfarin, domain.DrugCodeine}, analyzer.lastReq.Drugs)

	st := s.Snapshot()
	assert.False(t, st.Loading)
	assert.Empty(t, st.Err)
	require.Len(t, st.Results, 2)
	assert.Equal(t, "CODEINE", st.Results[0].Drug)
	assert.Equal(t, "[\n  {\n    \"drug\": \"CODEINE\"\n  },\n  {\n    \"drug\": \"WARFARIN\"\n  }\n]", st.RawJSON)
	assert.Equal(t, rep.ID, st.ReportID)
	assert.Equal(t, rep.RawJSON, st.RawJSON)
}

func TestSubmit_FailureClearsPriorResults(t *testing.T) {
	s := newSession()
	require.NoError(t, s.SelectFile("sample.vcf", []byte("x")))
	require.NoError(t, s.ToggleDrug("CODEINE"))

	_, err := s.Submit(context.Background(), &fakeAnalyzer{resp: okResponse()})
	require.NoError(t, err)
	require.NotEmpty(t, s.Snapshot().Results)

	failing := &fakeAnalyzer{err: domain.NewTransportError(400, "Invalid VCF header")}
	_, err = s.Submit(context.Background(), failing)
	require.Error(t, err)

	st := s.Snapshot()
	assert.Equal(t, "Analysis failed: Invalid VCF header", st.Err)
	assert.Empty(t, st.Results)
	assert.Empty(t, st.RawJSON)
	assert.Empty(t, st.ReportID)
	assert.False(t, st.Loading)
	assert.Equal(t, 1, failing.Calls())
}

func TestSubmit_MalformedResponse(t *testing.T) {
	s := newSession()
	require.NoError(t, s.SelectFile("sample.vcf", []byte("x")))
	require.NoError(t, s.ToggleDrug("CODEINE"))

	analyzer := &fakeAnalyzer{resp: &domain.AnalysisResponse{Raw: []byte("{")}}
	_, err := s.Submit(context.Background(), analyzer)
	require.Error(t, err)
	assert.Contains(t, s.Snapshot().Err, "Analysis failed: ")
	assert.False(t, s.Snapshot().Loading)
}

func TestSubmit_NilAnalyzer(t *testing.T) {
	s := newSession()
	require.NoError(t, s.SelectFile("sample.vcf", []byte("x")))
	require.NoError(t, s.ToggleDrug("CODEINE"))

	_, err := s.Submit(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, "Analysis failed: no analyzer configured", s.Snapshot().Err)
}

func TestSubmit_Busy(t *testing.T) {
	s := newSession()
	require.NoError(t, s.SelectFile("sample.vcf", []byte("x")))
	require.NoError(t, s.ToggleDrug("CODEINE"))

	var nestedErr error
	analyzer := &fakeAnalyzer{resp: okResponse(), session: s}
	analyzer.inflight = func(s *Session) {
		_, nestedErr = s.Submit(context.Background(), &fakeAnalyzer{resp: okResponse()})
	}

	_, err := s.Submit(context.Background(), analyzer)
	require.NoError(t, err)
	assert.ErrorIs(t, nestedErr, ErrBusy)
	assert.Equal(t, 1, analyzer.Calls())
}
