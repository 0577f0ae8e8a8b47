package external

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"

	"github.com/pharma-guard/pharmaguard/internal/domain"
)

// Form field names expected by the /analyze endpoint.
const (
	FieldVCFFile = "vcf_file"
	FieldDrugs   = "drugs"
)

// AnalysisClient talks to the remote PharmaGuard analysis API.
type AnalysisClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Logger
}

// NewAnalysisClient creates a new analysis API client.
// A zero timeout leaves the request bounded only by its context.
func NewAnalysisClient(config domain.APIConfig, logger *logrus.Logger) *AnalysisClient {
	if logger == nil {
		logger = logrus.New()
	}
	return &AnalysisClient{
		baseURL: strings.TrimRight(config.BaseURL, "/"),
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		logger: logger,
	}
}

// BaseURL returns the API root the client was configured with.
func (c *AnalysisClient) BaseURL() string {
	return c.baseURL
}

type drugsResponse struct {
	SupportedDrugs []string `json:"supported_drugs"`
}

type genesResponse struct {
	SupportedGenes []string `json:"supported_genes"`
}

// Analyze uploads the variant file and drug list in one multipart POST and
// decodes the per-drug result array. Nothing is retried.
func (c *AnalysisClient) Analyze(ctx context.Context, req *domain.AnalysisRequest) (*domain.AnalysisResponse, error) {
	body, contentType, err := encodeAnalysisForm(req)
	if err != nil {
		return nil, domain.NewUnexpectedError(err)
	}

	endpoint := c.baseURL + "/analyze"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, domain.NewUnexpectedError(fmt.Errorf("failed to create analyze request: %w", err))
	}
	httpReq.Header.Set("Content-Type", contentType)
	httpReq.Header.Set("Accept", "application/json")

	start := time.Now()
	entry := c.logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"file":     req.FileName,
		"drugs":    domain.JoinDrugs(req.Drugs),
	})
	entry.Debug("Dispatching analysis request")

	raw, status, err := c.do(httpReq)
	if err != nil {
		entry.WithError(err).Warn("Analysis request failed")
		return nil, err
	}

	entry = entry.WithFields(logrus.Fields{
		"status":   status,
		"duration": time.Since(start).String(),
	})

	if status < 200 || status > 299 {
		apiErr := errorFromBody(status, raw)
		entry.WithField("detail", apiErr.Message).Warn("Analysis backend returned an error")
		return nil, apiErr
	}

	var results []domain.AnalysisResult
	if err := json.Unmarshal(raw, &results); err != nil {
		entry.WithError(err).Warn("Analysis response could not be decoded")
		return nil, domain.NewUnexpectedError(fmt.Errorf("failed to decode analysis response: %w", err))
	}

	entry.WithField("results", len(results)).Info("Analysis completed")
	return &domain.AnalysisResponse{Results: results, Raw: raw}, nil
}

// SupportedDrugs lists the drugs the backend reports it can analyze.
func (c *AnalysisClient) SupportedDrugs(ctx context.Context) ([]string, error) {
	var out drugsResponse
	if err := c.getJSON(ctx, "/drugs", &out); err != nil {
		return nil, err
	}
	return out.SupportedDrugs, nil
}

// SupportedGenes lists the pharmacogenes the backend evaluates.
func (c *AnalysisClient) SupportedGenes(ctx context.Context) ([]string, error) {
	var out genesResponse
	if err := c.getJSON(ctx, "/genes", &out); err != nil {
		return nil, err
	}
	return out.SupportedGenes, nil
}

// Health queries the backend health endpoint.
func (c *AnalysisClient) Health(ctx context.Context) (*domain.HealthStatus, error) {
	var out domain.HealthStatus
	if err := c.getJSON(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *AnalysisClient) getJSON(ctx context.Context, path string, target interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return domain.NewUnexpectedError(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	raw, status, err := c.do(req)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return errorFromBody(status, raw)
	}
	if err := json.Unmarshal(raw, target); err != nil {
		return domain.NewUnexpectedError(fmt.Errorf("failed to decode %s response: %w", path, err))
	}
	return nil
}

func (c *AnalysisClient) do(req *http.Request) ([]byte, int, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, domain.NewUnexpectedError(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, domain.NewUnexpectedError(fmt.Errorf("failed to read response body: %w", err))
	}
	return raw, resp.StatusCode, nil
}

// encodeAnalysisForm writes the vcf_file part followed by the comma-joined drugs field.
func encodeAnalysisForm(req *domain.AnalysisRequest) (*bytes.Buffer, string, error) {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)

	fileWriter, err := writer.CreateFormFile(FieldVCFFile, req.FileName)
	if err != nil {
		return nil, "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := fileWriter.Write(req.Content); err != nil {
		return nil, "", fmt.Errorf("write file: %w", err)
	}
	if err := writer.WriteField(FieldDrugs, domain.JoinDrugs(req.Drugs)); err != nil {
		return nil, "", fmt.Errorf("write drugs field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("close writer: %w", err)
	}
	return body, writer.FormDataContentType(), nil
}

// errorFromBody derives the operator message from a failed response.
// A non-JSON body yields "Server error"; a JSON body without a usable detail
// yields "HTTP <status>"; a non-string detail is reported as its raw JSON.
func errorFromBody(status int, body []byte) *domain.AnalysisError {
	if !gjson.ValidBytes(body) {
		return domain.NewTransportError(status, domain.MsgServerError)
	}

	detail := gjson.GetBytes(body, "detail")
	if isFalsy(detail) {
		return domain.NewTransportError(status, fmt.Sprintf("HTTP %d", status))
	}
	if detail.Type == gjson.String {
		return domain.NewTransportError(status, detail.Str)
	}
	return domain.NewTransportError(status, detail.Raw)
}

// isFalsy treats an absent, null, false, zero or empty detail as missing.
func isFalsy(r gjson.Result) bool {
	switch r.Type {
	case gjson.Null, gjson.False:
		return true
	case gjson.String:
		return r.Str == ""
	case gjson.Number:
		return r.Num == 0
	}
	return false
}
