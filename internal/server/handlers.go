package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/MeKo-Tech/qrscan/internal/config"
	"github.com/MeKo-Tech/qrscan/internal/extract"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := HealthResponse{
		Status:  "healthy",
		Version: s.version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode health response", "error", err)
	}
}

// featuresHandler lists the feature keys the analyzer can emit.
func (s *Server) featuresHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	features := make([]FeatureInfo, 0, len(extract.FeatureNames))
	for _, name := range extract.FeatureNames {
		features = append(features, FeatureInfo{
			Name:        string(name),
			Type:        string(name.ValueType()),
			Description: name.Description(),
		})
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(features); err != nil {
		slog.Error("Failed to encode features response", "error", err)
	}
}

// analyzeHandler runs the extraction engine on one uploaded document.
func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	limit := s.maxUploadMB * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, limit)

	if err := r.ParseMultipartForm(limit); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(strings.ToLower(err.Error()), "request body too large") {
			s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		} else {
			s.writeErrorResponse(w, "Failed to parse form data", http.StatusBadRequest)
		}
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.writeErrorResponse(w, "No file provided", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	if header.Size > limit {
		s.writeErrorResponse(w, "File too large", http.StatusRequestEntityTooLarge)
		return
	}

	data, err := io.ReadAll(file)
	if err != nil {
		s.writeErrorResponse(w, "Failed to read file data", http.StatusInternalServerError)
		return
	}
	uploadSizeBytes.Observe(float64(len(data)))

	d := s.dispatcher
	if v := r.FormValue("max_value_length"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil {
			err = config.ValidateMaxValueLength(n)
		}
		if err != nil {
			s.writeErrorResponse(w, fmt.Sprintf("Invalid max_value_length: %s", v), http.StatusBadRequest)
			return
		}
		d = d.WithMaxValueLength(n)
	}

	ctx := r.Context()
	if s.timeoutSec > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.timeoutSec)*time.Second)
		defer cancel()
	}

	format := r.FormValue("file_format")
	res, err := d.Run(ctx, extract.Document{Data: data, Format: format})
	if err != nil {
		slog.Error("Analysis failed", "filename", header.Filename, "file_format", format, "error", err)
		s.writeErrorResponse(w, fmt.Sprintf("Analysis failed: %v", err), http.StatusInternalServerError)
		return
	}
	recordResult(res)

	w.Header().Set("Content-Type", "application/json")
	response := AnalyzeResponse{
		Success:    true,
		Filename:   header.Filename,
		FileFormat: format,
		Result:     res,
	}
	if err := json.NewEncoder(w).Encode(response); err != nil {
		slog.Error("Failed to encode analysis response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	response := AnalyzeResponse{
		Success: false,
		Error:   message,
	}

	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Log error, but can't send another response
		slog.Error("Failed to write error response", "error", err)
	}
}
