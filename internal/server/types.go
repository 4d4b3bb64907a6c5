package server

import (
	"net/http"

	"github.com/MeKo-Tech/qrscan/internal/barcode"
	"github.com/MeKo-Tech/qrscan/internal/extract"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds the HTTP server state and dependencies.
type Server struct {
	dispatcher  *extract.Dispatcher
	corsOrigin  string
	maxUploadMB int64
	timeoutSec  int
	version     string
}

// Config holds server configuration.
type Config struct {
	Host        string
	Port        int
	CORSOrigin  string
	MaxUploadMB int64
	TimeoutSec  int
	Version     string
	Extract     extract.Options
}

// HealthResponse is returned by GET /health.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
	Time    string `json:"time"`
}

// FeatureInfo describes one emitted feature key.
type FeatureInfo struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
}

// AnalyzeResponse is returned by POST /v1/analyze.
type AnalyzeResponse struct {
	Success    bool            `json:"success"`
	Filename   string          `json:"filename,omitempty"`
	FileFormat string          `json:"file_format,omitempty"`
	Result     *extract.Result `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
}

// NewServer creates a new analysis server instance.
func NewServer(config Config) (*Server, error) {
	backend, err := barcode.NewBackend()
	if err != nil {
		return nil, err
	}
	return NewServerWithDispatcher(extract.NewDispatcher(backend, config.Extract), config), nil
}

// NewServerWithDispatcher creates a server around an existing dispatcher.
func NewServerWithDispatcher(d *extract.Dispatcher, config Config) *Server {
	return &Server{
		dispatcher:  d,
		corsOrigin:  config.CORSOrigin,
		maxUploadMB: config.MaxUploadMB,
		timeoutSec:  config.TimeoutSec,
		version:     config.Version,
	}
}

// SetupRoutes configures the HTTP routes.
func (s *Server) SetupRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/health", s.corsMiddleware(s.healthHandler))
	mux.HandleFunc("/v1/analyze", s.corsMiddleware(s.analyzeHandler))
	mux.HandleFunc("/v1/features", s.corsMiddleware(s.featuresHandler))
	mux.Handle("/metrics", promhttp.Handler())
}

// Handler returns the routed handler wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.SetupRoutes(mux)
	return loggingMiddleware(mux)
}
