package bill

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// envelope is the wrapper around every JSON API response
type envelope struct {
	IsSuccess bool   `json:"is_success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
}

// writeJSON writes a JSON response with CORS headers set
func writeJSON(w http.ResponseWriter, status int, payload envelope) {
	setCORSHeaders(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Error encoding response", "error", err)
	}
}

// writeError writes a failure envelope
func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{IsSuccess: false, Error: message})
}

// handleExtractBillData runs the full extraction pipeline for one document URL
func (s *Server) handleExtractBillData(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Document string `json:"document"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Document == "" {
		writeError(w, http.StatusBadRequest, "Missing 'document'")
		return
	}

	result, err := s.service.ExtractBillData(req.Document)
	if err != nil {
		if errors.Is(err, ErrDownloadFailed) {
			slog.Error("Document download failed", "url", req.Document, "error", err)
			writeError(w, http.StatusBadRequest, "Download failed")
			return
		}
		slog.Error("Error processing document", "url", req.Document, "error", err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, envelope{IsSuccess: true, Data: result})
}

// handleListExtractions returns all extraction history records
func (s *Server) handleListExtractions(w http.ResponseWriter, r *http.Request) {
	extractions, err := s.service.ListExtractions()
	if err != nil {
		slog.Error("Error listing extractions", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, envelope{IsSuccess: true, Data: extractions})
}

// handleGetExtraction returns a single extraction record
func (s *Server) handleGetExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Extraction ID required")
		return
	}

	extraction, err := s.service.GetExtraction(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Extraction not found")
		return
	}

	writeJSON(w, http.StatusOK, envelope{IsSuccess: true, Data: extraction})
}

// handleGetExtractionFile returns the archived document for an extraction
func (s *Server) handleGetExtractionFile(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Extraction ID required")
		return
	}

	data, contentType, err := s.service.GetExtractionFile(id)
	if err != nil {
		writeError(w, http.StatusNotFound, "Document not found")
		return
	}

	setCORSHeaders(w)
	w.Header().Set("Content-Type", contentType)
	w.Write(data)
}

// handleDeleteExtraction deletes an extraction record and its archive
func (s *Server) handleDeleteExtraction(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "Extraction ID required")
		return
	}

	if err := s.service.DeleteExtraction(id); err != nil {
		writeError(w, http.StatusInternalServerError, "Error deleting extraction")
		return
	}

	setCORSHeaders(w)
	w.WriteHeader(http.StatusNoContent)
}
