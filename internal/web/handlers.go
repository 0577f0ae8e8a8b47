package web

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/pharma-guard/pharmaguard/internal/domain"
	"github.com/pharma-guard/pharmaguard/internal/middleware"
	"github.com/pharma-guard/pharmaguard/internal/render"
	"github.com/pharma-guard/pharmaguard/internal/report"
	"github.com/pharma-guard/pharmaguard/internal/session"
)

// Form field names accepted by POST /analyze.
const (
	fieldVCFFile = "vcf_file"
	fieldDrugs   = "drugs"
)

const (
	contentTypeJSON = "application/json; charset=utf-8"
	contentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// msgRateLimited is shown when a client exhausted its submission budget.
const msgRateLimited = "Too many analyses submitted. Please wait a minute and try again."

type drugOption struct {
	Drug    domain.Drug
	Checked bool
}

type formPage struct {
	Title       string
	Options     []drugOption
	Error       string
	File        *session.VCFFile
	MaxUpload   string
	BackendURL  string
	RecentCount int64
}

type reportPage struct {
	Title        string
	Report       *report.Report
	Stored       bool
	DownloadName string
}

type reportListItem struct {
	ID        string
	CreatedAt string
	FileName  string
	Drugs     string
	Results   int
}

type reportListPage struct {
	Title    string
	Reports  []reportListItem
	Total    int64
	Limit    int
	Offset   int
	PrevPage int
	NextPage int
	HasPrev  bool
	HasNext  bool
}

type errorPage struct {
	Title   string
	Status  int
	Message string
}

func (s *Server) entry(c *gin.Context) *logrus.Entry {
	return s.logger.WithField("correlation_id", c.GetString(middleware.CorrelationIDKey))
}

func (s *Server) newFormPage(c *gin.Context, st session.State, msg string) formPage {
	selected := make(map[domain.Drug]bool, len(st.Drugs))
	for _, d := range st.Drugs {
		selected[d] = true
	}

	options := make([]drugOption, 0, len(domain.SupportedDrugs))
	for _, d := range domain.SupportedDrugs {
		options = append(options, drugOption{Drug: d, Checked: selected[d]})
	}

	if msg == "" {
		msg = st.Err
	}

	page := formPage{
		Title:      "PharmaGuard",
		Options:    options,
		Error:      msg,
		File:       st.File,
		MaxUpload:  render.FileSizeKB(s.configManager.GetServerConfig().MaxUploadBytes),
		BackendURL: s.configManager.GetAPIConfig().BaseURL,
	}
	if n, err := s.store.Count(c.Request.Context()); err == nil {
		page.RecentCount = n
	}
	return page
}

func (s *Server) renderForm(c *gin.Context, status int, st session.State, msg string) {
	c.HTML(status, "index.html", s.newFormPage(c, st, msg))
}

func (s *Server) renderError(c *gin.Context, status int, msg string) {
	c.HTML(status, "error.html", errorPage{
		Title:   http.StatusText(status),
		Status:  status,
		Message: msg,
	})
}

// handleIndex renders the empty upload form
func (s *Server) handleIndex(c *gin.Context) {
	s.renderForm(c, http.StatusOK, session.State{}, "")
}

// handleAnalyze runs one submission. Drugs are applied before the file so
// the selection survives a rejected upload.
func (s *Server) handleAnalyze(c *gin.Context) {
	sess := session.New(s.validator, s.logger)
	maxUpload := s.configManager.GetServerConfig().MaxUploadBytes
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUpload)

	fh, fileErr := c.FormFile(fieldVCFFile)
	if fileErr != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(fileErr, &tooLarge) {
			s.renderForm(c, http.StatusRequestEntityTooLarge, sess.Snapshot(),
				fmt.Sprintf("The uploaded file exceeds the %s limit.", render.FileSizeKB(maxUpload)))
			return
		}
		// A missing file is reported by Submit together with the other checks.
		fh = nil
	}

	for _, raw := range c.PostFormArray(fieldDrugs) {
		for _, part := range strings.Split(raw, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			// Repeats are ignored so a drug sent twice stays selected.
			if d, err := domain.ParseDrug(part); err == nil && sess.IsSelected(d) {
				continue
			}
			if err := sess.ToggleDrug(part); err != nil {
				s.renderForm(c, http.StatusBadRequest, sess.Snapshot(), domain.UserMessage(err))
				return
			}
		}
	}

	if fh != nil && fh.Filename != "" {
		content, err := readUpload(fh)
		if err != nil {
			s.entry(c).WithError(err).Error("Failed to read uploaded file")
			s.renderForm(c, http.StatusBadRequest, sess.Snapshot(), domain.UserMessage(domain.NewUnexpectedError(err)))
			return
		}
		if err := sess.SelectFile(fh.Filename, content); err != nil {
			s.renderForm(c, http.StatusBadRequest, sess.Snapshot(), "")
			return
		}
	}

	started := time.Now()
	rep, err := sess.Submit(c.Request.Context(), s.analyzer)
	if err != nil {
		status := http.StatusBadGateway
		fields := logrus.Fields{"latency": time.Since(started).String()}
		var ae *domain.AnalysisError
		if errors.As(err, &ae) {
			fields["kind"] = ae.Kind
			if ae.Status != 0 {
				fields["status"] = ae.Status
			}
			if ae.Kind == domain.KindValidation {
				status = http.StatusBadRequest
			}
		}
		s.entry(c).WithFields(fields).Info("Analysis not completed")
		s.renderForm(c, status, sess.Snapshot(), "")
		return
	}

	s.entry(c).WithFields(logrus.Fields{
		"report_id": rep.ID,
		"drugs":     domain.JoinDrugs(rep.Drugs),
		"results":   len(rep.Results),
		"latency":   time.Since(started).String(),
	}).Info("Analysis completed")

	if err := s.store.Save(c.Request.Context(), rep); err != nil {
		// The results are still shown; only the download links depend on the archive.
		s.entry(c).WithError(err).WithField("report_id", rep.ID).Error("Failed to archive report")
		c.HTML(http.StatusOK, "report.html", reportPage{
			Title:        "PharmaGuard Results",
			Report:       rep,
			Stored:       false,
			DownloadName: report.JSONFileName,
		})
		return
	}

	c.Redirect(http.StatusSeeOther, "/reports/"+rep.ID)
}

func readUpload(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("opening upload: %w", err)
	}
	defer f.Close()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	return content, nil
}

// handleRateLimited re-renders the form when a client submits too often.
func (s *Server) handleRateLimited(c *gin.Context) {
	s.entry(c).WithField("client_ip", c.ClientIP()).Warn("Analysis rate limit exceeded")
	s.renderForm(c, http.StatusTooManyRequests, session.State{}, msgRateLimited)
}

// handleListReports renders the archive, newest first
func (s *Server) handleListReports(c *gin.Context) {
	limit := queryInt(c, "limit", 20)
	offset := queryInt(c, "offset", 0)
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	ctx := c.Request.Context()
	reports, err := s.store.List(ctx, limit, offset)
	if err != nil {
		s.entry(c).WithError(err).Error("Failed to list reports")
		s.renderError(c, http.StatusInternalServerError, "The report archive is unavailable.")
		return
	}
	total, err := s.store.Count(ctx)
	if err != nil {
		s.entry(c).WithError(err).Error("Failed to count reports")
		s.renderError(c, http.StatusInternalServerError, "The report archive is unavailable.")
		return
	}

	page := reportListPage{
		Title:    "Recent Reports",
		Total:    total,
		Limit:    limit,
		Offset:   offset,
		PrevPage: max(offset-limit, 0),
		NextPage: offset + limit,
		HasPrev:  offset > 0,
		HasNext:  int64(offset+limit) < total,
	}
	for _, r := range reports {
		page.Reports = append(page.Reports, reportListItem{
			ID:        r.ID,
			CreatedAt: r.CreatedAt.Format("2006-01-02 15:04:05 MST"),
			FileName:  r.FileName,
			Drugs:     strings.ReplaceAll(domain.JoinDrugs(r.Drugs), ",", ", "),
			Results:   len(r.Results),
		})
	}
	c.HTML(http.StatusOK, "reports.html", page)
}

// lookupReport fetches the :id report or renders the error page.
func (s *Server) lookupReport(c *gin.Context) (*report.Report, bool) {
	id := c.Param("id")
	rep, err := s.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.renderError(c, http.StatusNotFound, "This report does not exist or has expired.")
			return nil, false
		}
		s.entry(c).WithError(err).WithField("report_id", id).Error("Failed to load report")
		s.renderError(c, http.StatusInternalServerError, "The report archive is unavailable.")
		return nil, false
	}
	return rep, true
}

// handleGetReport renders the result cards for one report
func (s *Server) handleGetReport(c *gin.Context) {
	rep, ok := s.lookupReport(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "report.html", reportPage{
		Title:        "PharmaGuard Results",
		Report:       rep,
		Stored:       true,
		DownloadName: report.JSONFileName,
	})
}

// handleDownloadJSON serves the pretty-printed response body
func (s *Server) handleDownloadJSON(c *gin.Context) {
	rep, ok := s.lookupReport(c)
	if !ok {
		return
	}
	c.Header("Content-Disposition", attachment(report.JSONFileName))
	c.Header("Content-Type", contentTypeJSON)
	c.Status(http.StatusOK)
	if err := report.WriteJSON(c.Writer, rep); err != nil {
		s.entry(c).WithError(err).Warn("Failed to write JSON download")
	}
}

// handleDownloadXLSX serves the spreadsheet export
func (s *Server) handleDownloadXLSX(c *gin.Context) {
	rep, ok := s.lookupReport(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, rep); err != nil {
		s.entry(c).WithError(err).WithField("report_id", rep.ID).Error("Failed to build spreadsheet")
		s.renderError(c, http.StatusInternalServerError, "The spreadsheet could not be generated.")
		return
	}
	c.Header("Content-Disposition", attachment(report.XLSXFileName))
	c.Data(http.StatusOK, contentTypeXLSX, buf.Bytes())
}

// handleDrugs lists the selectable drugs with their primary genes
func (s *Server) handleDrugs(c *gin.Context) {
	names := make([]string, 0, len(domain.SupportedDrugs))
	genes := make(map[string]string, len(domain.SupportedDrugs))
	for _, d := range domain.SupportedDrugs {
		names = append(names, string(d))
		genes[string(d)] = d.PrimaryGene()
	}
	c.JSON(http.StatusOK, gin.H{
		"supported_drugs": names,
		"primary_genes":   genes,
	})
}

// handleGenes lists the pharmacogenes covered by the drug selection
func (s *Server) handleGenes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"supported_genes": domain.SupportedGenes(),
	})
}

// handleHealth reports local status together with the analysis backend's
func (s *Server) handleHealth(c *gin.Context) {
	ctx := c.Request.Context()
	body := gin.H{
		"status":    "healthy",
		"service":   "pharmaguard-web",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"version":   Version,
	}

	archiveStatus := gin.H{"status": "healthy"}
	if err := s.store.Ping(ctx); err != nil {
		archiveStatus = gin.H{"status": "unhealthy", "error": err.Error()}
		body["status"] = "degraded"
	} else if n, err := s.store.Count(ctx); err == nil {
		archiveStatus["reports"] = n
	}
	body["archive"] = archiveStatus

	backend := gin.H{"url": s.configManager.GetAPIConfig().BaseURL}
	if s.catalog == nil {
		backend["status"] = "unknown"
	} else if h, err := s.catalog.Health(ctx); err != nil {
		backend["status"] = "unreachable"
		backend["error"] = domain.UserMessage(err)
		body["status"] = "degraded"
	} else {
		backend["status"] = h.Status
		backend["service"] = h.Service
		backend["version"] = h.Version
	}
	body["backend"] = backend

	c.JSON(http.StatusOK, body)
}

func queryInt(c *gin.Context, key string, fallback int) int {
	raw := c.Query(key)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return n
}

func attachment(name string) string {
	return fmt.Sprintf("attachment; filename=%q", name)
}
