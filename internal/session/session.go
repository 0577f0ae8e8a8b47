// Package session holds the operator's in-progress upload: the chosen variant
// file, the drug selection and the outcome of the last submission.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/report"
	"github.com/pharma-guard/pharmaguard/internal/validator"
)

// ErrBusy is returned when a submission is attempted while one is in flight.
var ErrBusy = errors.New("analysis already in progress")

// VCFFile is the uploaded variant-call file.
type VCFFile struct {
	Name    string
	Size    int64
	Content []byte
}

// State is a point-in-time copy of a session, safe to hand to renderers.
type State struct {
	File     *VCFFile
	Drugs    []domain.Drug
	Loading  bool
	Err      string
	Results  []domain.AnalysisResult
	RawJSON  string
	ReportID string
}

// Session is the upload/selection surface. It is safe for concurrent use so
// a page can be rendered while a submission is in flight.
type Session struct {
	mu        sync.RWMutex
	file      *VCFFile
	drugs     []domain.Drug
	loading   bool
	err       string
	results   []domain.AnalysisResult
	rawJSON   string
	reportID  string
	validator *validator.Validator
	logger    *logrus.Logger
}

// New creates an empty session.
func New(v *validator.Validator, logger *logrus.Logger) *Session {
	if v == nil {
		v = validator.New()
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &Session{validator: v, logger: logger}
}

// SelectFile replaces the current file if name ends in .vcf. Otherwise the
// error message is set and the previously selected file is kept.
func (s *Session) SelectFile(name string, content []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !validator.IsVCFName(name) {
		s.err = domain.MsgInvalidExtension
		return domain.NewValidationError(domain.MsgInvalidExtension)
	}

	s.file = &VCFFile{
		Name:    name,
		Size:    int64(len(content)),
		Content: content,
	}
	s.err = ""
	return nil
}

// ToggleDrug adds the drug to the end of the selection, or removes it if it
// is already selected.
func (s *Session) ToggleDrug(raw string) error {
	d, err := domain.ParseDrug(raw)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for i, selected := range s.drugs {
		if selected == d {
			s.drugs = append(s.drugs[:i:i], s.drugs[i+1:]...)
			return nil
		}
	}
	s.drugs = append(s.drugs, d)
	return nil
}

// IsSelected reports whether d is part of the current selection.
func (s *Session) IsSelected(d domain.Drug) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, selected := range s.drugs {
		if selected == d {
			return true
		}
	}
	return false
}

// SelectedDrugs returns the selection in the order drugs were added.
func (s *Session) SelectedDrugs() []domain.Drug {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.Drug(nil), s.drugs...)
}

// CanSubmit reports whether a file and at least one drug are selected and no
// submission is running.
func (s *Session) CanSubmit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.file != nil && len(s.drugs) > 0 && !s.loading
}

// Snapshot returns a copy of the current state.
func (s *Session) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Drugs:    append([]domain.Drug(nil), s.drugs...),
		Loading:  s.loading,
		Err:      s.err,
		Results:  s.results,
		RawJSON:  s.rawJSON,
		ReportID: s.reportID,
	}
	if s.file != nil {
		f := *s.file
		st.File = &f
	}
	return st
}

// Submit validates the selection and dispatches one analysis request.
// Validation failures are reported before any network call. A submission
// clears the previous error, results and raw JSON; on success it returns the
// report built from the response.
func (s *Session) Submit(ctx context.Context, analyzer domain.Analyzer) (*report.Report, error) {
	s.mu.Lock()
	if s.loading {
		s.mu.Unlock()
		return nil, ErrBusy
	}

	req := &domain.AnalysisRequest{Drugs: append([]domain.Drug(nil), s.drugs...)}
	if s.file != nil {
		req.FileName = s.file.Name
		req.Content = s.file.Content
	}
	if err := s.validator.ValidateAnalysisRequest(req); err != nil {
		s.err = domain.UserMessage(err)
		s.mu.Unlock()
		return nil, err
	}

	s.loading = true
	s.err = ""
	s.results = nil
	s.rawJSON = ""
	s.reportID = ""
	s.mu.Unlock()

	rep, err := s.dispatch(ctx, analyzer, req)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.err = domain.UserMessage(err)
		s.logger.WithFields(logrus.Fields{
			"file":  req.FileName,
			"drugs": domain.JoinDrugs(req.Drugs),
			"error": err.Error(),
		}).Warn("Analysis submission failed")
		return nil, err
	}

	s.results = rep.Results
	s.rawJSON = rep.RawJSON
	s.reportID = rep.ID
	return rep, nil
}

func (s *Session) dispatch(ctx context.Context, analyzer domain.Analyzer, req *domain.AnalysisRequest) (*report.Report, error) {
	if analyzer == nil {
		return nil, domain.NewUnexpectedError(fmt.Errorf("no analyzer configured"))
	}

	resp, err := analyzer.Analyze(ctx, req)
	if err != nil {
		return nil, err
	}

	rep, err := report.New(req.FileName, req.Drugs, resp)
	if err != nil {
		return nil, domain.NewUnexpectedError(err)
	}
	return rep, nil
}
