package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/l3aro/flowstruct/pkg/flow"
	"github.com/l3aro/flowstruct/pkg/render"
)

// ErrInputTooLarge is returned when a request body exceeds max_input_bytes.
var ErrInputTooLarge = errors.New("input too large")

// CodeRequest is the body accepted by every API route. Language is optional
// and forces the rule set when set.
type CodeRequest struct {
	Code     string `json:"code"`
	Language string `json:"language,omitempty"`
}

// DetectResponse is returned by /api/detect.
type DetectResponse struct {
	Language flow.Language `json:"language"`
	Scores   []flow.Score  `json:"scores"`
}

// ParseResponse is returned by /api/parse.
type ParseResponse struct {
	flow.ParseResult
	Stats  flow.Stats `json:"stats"`
	Cached bool       `json:"cached"`
}

// CacheHealth summarizes the result cache in health output.
type CacheHealth struct {
	Entries int     `json:"entries"`
	Hits    int64   `json:"hits"`
	Misses  int64   `json:"misses"`
	HitRate float64 `json:"hit_rate"`
}

type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Service   string            `json:"service"`
	Version   string            `json:"version,omitempty"`
	Uptime    string            `json:"uptime,omitempty"`
	Cache     CacheHealth       `json:"cache"`
	Details   map[string]string `json:"details,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	stats := s.cache.Stats()
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Service:   ServiceName,
		Version:   s.version,
		Uptime:    time.Since(s.started).Round(time.Second).String(),
		Cache: CacheHealth{
			Entries: stats.Length,
			Hits:    stats.HitCount,
			Misses:  stats.MissCount,
			HitRate: stats.HitRate(),
		},
		Details: map[string]string{
			"go_version": runtime.Version(),
			"num_cpu":    strconv.Itoa(runtime.NumCPU()),
		},
	}

	s.writeJSON(w, r, http.StatusOK, response)
}

func (s *Server) handleDetect(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}

	scores := flow.Scores(req.Code)
	s.writeJSON(w, r, http.StatusOK, DetectResponse{
		Language: flow.Detect(req.Code),
		Scores:   scores,
	})
}

func (s *Server) handleParse(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	result, cached, ok := s.parse(w, req)
	if !ok {
		return
	}

	s.writeJSON(w, r, http.StatusOK, ParseResponse{
		ParseResult: result,
		Stats:       result.Stats(),
		Cached:      cached,
	})
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	format := render.FormatSVG
	if v := query.Get("format"); v != "" {
		f, err := render.ParseFormat(v)
		if err != nil {
			http.Error(w, "Invalid format: "+err.Error(), http.StatusBadRequest)
			return
		}
		format = f
	}

	zoom := render.DefaultZoom
	if v := query.Get("zoom"); v != "" {
		z, err := strconv.ParseFloat(v, 64)
		if err != nil {
			http.Error(w, "Invalid zoom: "+v, http.StatusBadRequest)
			return
		}
		zoom = render.ClampZoom(z)
	}

	req, ok := s.decodeRequest(w, r)
	if !ok {
		return
	}
	result, _, ok := s.parse(w, req)
	if !ok {
		return
	}

	out, err := render.Render(format, result, render.Options{
		Zoom:   zoom,
		Pretty: query.Get("pretty") == "true",
	})
	if err != nil {
		s.logger.Error("render failed", "format", format, "error", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", render.ContentType(format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(out); err != nil {
		s.logger.Error("writing response", "error", err)
	}
}

// parse resolves the optional forced language and parses through the cache.
func (s *Server) parse(w http.ResponseWriter, req CodeRequest) (flow.ParseResult, bool, bool) {
	var lang flow.Language
	if req.Language != "" {
		l, err := flow.ParseLanguage(req.Language)
		if err != nil {
			http.Error(w, "Invalid language: "+err.Error(), http.StatusBadRequest)
			return flow.ParseResult{}, false, false
		}
		lang = l
	}

	result, cached := s.cache.GetOrParse(lang, req.Code)
	return result, cached, true
}

// decodeRequest enforces POST, caps the body at max_input_bytes and decodes
// it. On failure the error response has already been written.
func (s *Server) decodeRequest(w http.ResponseWriter, r *http.Request) (CodeRequest, bool) {
	var req CodeRequest
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return req, false
	}
	defer r.Body.Close()

	err := readJSON(w, r, s.cfg.MaxInputBytes, &req)
	switch {
	case err == nil:
		return req, true
	case errors.Is(err, ErrInputTooLarge):
		http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
	default:
		http.Error(w, "Invalid request: "+err.Error(), http.StatusBadRequest)
	}
	return req, false
}

func readJSON(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fmt.Errorf("%w: limit is %d bytes", ErrInputTooLarge, tooLarge.Limit)
		}
		return err
	}
	return nil
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	encoder := json.NewEncoder(w)
	if r.URL.Query().Get("pretty") == "true" {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(v); err != nil {
		s.logger.Error("encoding response", "error", err)
	}
}
