// Package httpadapter exposes the question-answering pipeline over HTTP.
package httpadapter

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/chattydoc/chattydoc/internal/config"
	"github.com/chattydoc/chattydoc/internal/core/domain"
	"github.com/chattydoc/chattydoc/internal/core/ports"
	"github.com/chattydoc/chattydoc/internal/observability/metrics"
)

const (
	serviceName        = "api"
	multipartMemoryCap = 32 << 20
	backpressureWait   = 100 * time.Millisecond
)

type Router struct {
	cfg     config.Config
	ask     ports.QuestionAnswerer
	history ports.HistoryReader
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	cfg config.Config,
	ask ports.QuestionAnswerer,
	history ports.HistoryReader,
	serverMetrics *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		cfg:     cfg,
		ask:     ask,
		history: history,
		metrics: serverMetrics,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.askQuestion)
	mux.HandleFunc("/v1/history", rt.listHistory)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, rt.cfg.APIMaxConcurrent, backpressureWait)
	handler = rateLimitMiddleware(handler, rt.cfg.APIRateLimitRPS, rt.cfg.APIRateLimitBurst)
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (rt *Router) askQuestion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	start := time.Now()

	if err := r.ParseMultipartForm(multipartMemoryCap); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "multipart form is required"})
		return
	}

	question := r.FormValue("question")
	files, err := readUploadedFiles(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	answer, err := rt.ask.Ask(r.Context(), question, files)
	if err != nil {
		status := mapErrorToHTTPStatus(err)
		rt.recordAsk(statusClass(status), 0, start)
		writeJSON(w, status, map[string]string{"error": err.Error()})
		return
	}

	rt.recordAsk("ok", len(answer.Sources), start)
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) listHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "limit must be a non-negative integer"})
			return
		}
		limit = parsed
	}

	records, err := rt.history.ListRecentAnswers(r.Context(), limit)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if records == nil {
		records = []domain.AnswerRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"answers": records})
}

func readUploadedFiles(r *http.Request) ([]domain.FileBlob, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}

	headers := r.MultipartForm.File["files"]
	files := make([]domain.FileBlob, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			return nil, fmt.Errorf("open uploaded file %s: %w", header.Filename, err)
		}
		data, err := io.ReadAll(file)
		_ = file.Close()
		if err != nil {
			return nil, fmt.Errorf("read uploaded file %s: %w", header.Filename, err)
		}
		files = append(files, domain.FileBlob{
			Name: header.Filename,
			Size: header.Size,
			Data: data,
		})
	}
	return files, nil
}

func (rt *Router) recordAsk(status string, sources int, start time.Time) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordAsk(serviceName, status, sources, time.Since(start))
}

func statusClass(status int) string {
	if status >= 500 {
		return "server_error"
	}
	return "client_error"
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
