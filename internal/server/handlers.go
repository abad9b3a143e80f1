package server

import (
	"embed"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/notefall/lyrebird/core/convert"
	"github.com/notefall/lyrebird/core/errors"
)

//go:embed static/*
var staticFS embed.FS

// musicXMLContentType is the media type for uncompressed MusicXML.
const musicXMLContentType = "application/vnd.recordare.musicxml+xml"

// APIResponse is the standard API response wrapper.
type APIResponse struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *APIError `json:"error,omitempty"`
	Meta    *APIMeta  `json:"meta,omitempty"`
}

// APIError represents an API error.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// APIMeta contains response metadata.
type APIMeta struct {
	Total     int    `json:"total,omitempty"`
	Timestamp string `json:"timestamp"`
}

// ScoreInfo describes one cataloged score.
type ScoreInfo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Composer    string `json:"composer"`
	File        string `json:"file"`
	Fingerprint string `json:"fingerprint"`
	ModTime     string `json:"mod_time"`
	MusicXMLURL string `json:"musicxml_url"`
}

// HealthInfo is the health check response.
type HealthInfo struct {
	Status  string    `json:"status"`
	Version string    `json:"version"`
	Uptime  string    `json:"uptime"`
	Scores  int       `json:"scores"`
	Clients int       `json:"clients"`
	Cache   CacheInfo `json:"cache"`
}

// CacheInfo reports document cache occupancy.
type CacheInfo struct {
	Documents int   `json:"documents"`
	Bytes     int64 `json:"bytes"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
}

var startTime = time.Now()

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	page, err := staticFS.ReadFile("static/index.html")
	if err != nil {
		respondError(w, http.StatusInternalServerError, "PAGE_UNAVAILABLE", "embedded preview page missing")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write(page)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	entries, err := s.catalog.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "CATALOG_ERROR", err.Error())
		return
	}

	cacheStats := s.docs.Stats()
	respond(w, http.StatusOK, HealthInfo{
		Status:  "ok",
		Version: Version,
		Uptime:  time.Since(startTime).Round(time.Second).String(),
		Scores:  len(entries),
		Clients: s.hub.ClientCount(),
		Cache: CacheInfo{
			Documents: cacheStats.Size,
			Bytes:     cacheStats.TotalBytes,
			Hits:      cacheStats.Hits,
			Misses:    cacheStats.Misses,
		},
	})
}

func (s *Server) handleScores(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	entries, err := s.catalog.List(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "CATALOG_ERROR", err.Error())
		return
	}

	infos := make([]ScoreInfo, 0, len(entries))
	for _, e := range entries {
		infos = append(infos, ScoreInfo{
			ID:          e.ID,
			Title:       e.Title,
			Composer:    e.Composer,
			File:        filepath.Base(e.Path),
			Fingerprint: e.Fingerprint,
			ModTime:     e.ModTime.Format(time.RFC3339),
			MusicXMLURL: "/api/scores/" + e.ID + ".musicxml",
		})
	}

	respondWithTotal(w, http.StatusOK, infos, len(infos))
}

// handleScoreDocument converts one cataloged score on demand. The ETag
// is the fingerprint of the file as it is on disk right now, so a page
// holding a current copy gets 304 without any conversion work. Converted
// documents are cached by fingerprint.
func (s *Server) handleScoreDocument(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET is allowed")
		return
	}

	name := strings.TrimPrefix(r.URL.Path, "/api/scores/")
	id, ok := strings.CutSuffix(name, ".musicxml")
	if !ok || id == "" || strings.Contains(id, "/") {
		respondError(w, http.StatusNotFound, "NOT_FOUND", "Unknown score resource")
		return
	}

	entry, err := s.catalog.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			respondError(w, http.StatusNotFound, "NOT_FOUND", "No such score")
			return
		}
		respondError(w, http.StatusInternalServerError, "CATALOG_ERROR", err.Error())
		return
	}

	raw, err := os.ReadFile(entry.Path)
	if err != nil {
		respondError(w, http.StatusNotFound, "FILE_MISSING", "Score file no longer readable")
		return
	}

	fingerprint := convert.Fingerprint(raw)
	etag := `"` + fingerprint + `"`
	if inm := r.Header.Get("If-None-Match"); inm != "" && strings.Contains(inm, etag) {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}

	xml, cached := s.docs.Get(fingerprint)
	if !cached {
		xml, err = convert.Convert(raw)
		if err != nil {
			respondError(w, http.StatusUnprocessableEntity, "CONVERT_FAILED", err.Error())
			return
		}
		s.docs.Put(fingerprint, xml)
	}

	w.Header().Set("Content-Type", musicXMLContentType)
	w.Header().Set("ETag", etag)
	w.Write([]byte(xml))
}

func respond(w http.ResponseWriter, status int, data any) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondWithTotal(w http.ResponseWriter, status int, data any, total int) {
	response := APIResponse{
		Success: true,
		Data:    data,
		Meta: &APIMeta{
			Total:     total,
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	response := APIResponse{
		Success: false,
		Error: &APIError{
			Code:    code,
			Message: message,
		},
		Meta: &APIMeta{
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		},
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(response)
}
