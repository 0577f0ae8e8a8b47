package domain

import (
	"context"
)

// AnalysisRequest is one submission to the remote analysis endpoint.
type AnalysisRequest struct {
	FileName string `validate:"required,vcf_file"`
	Content  []byte
	Drugs    []Drug `validate:"required,min=1,dive,supported_drug"`
}

// AnalysisResponse is a decoded success body together with the bytes it came from.
type AnalysisResponse struct {
	Results []AnalysisResult
	Raw     []byte
}

// Analyzer dispatches an analysis request to the backend.
type Analyzer interface {
	Analyze(ctx context.Context, req *AnalysisRequest) (*AnalysisResponse, error)
}

// CatalogSource lists what the backend supports and whether it is reachable.
type CatalogSource interface {
	SupportedDrugs(ctx context.Context) ([]string, error)
	SupportedGenes(ctx context.Context) ([]string, error)
	Health(ctx context.Context) (*HealthStatus, error)
}

// ConfigManager defines the interface for configuration management
type ConfigManager interface {
	GetConfig() *Config
	GetServerConfig() *ServerConfig
	GetAPIConfig() *APIConfig
	GetArchiveConfig() *ArchiveConfig
	GetDatabaseConfig() *DatabaseConfig
	Validate() error
	GetDatabaseURL() string
	GetRedisConnectionString() string
	IsProduction() bool
	IsDevelopment() bool
}
