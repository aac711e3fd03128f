package app

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"xenios/compat/internal/games"
	"xenios/compat/internal/interaction"
	"xenios/compat/internal/schema"
)

type HTTPServer struct {
	service    *Service
	apiKey     string
	publicKey  ed25519.PublicKey
	corsOrigin string
}

func NewHTTPServer(service *Service, apiKey string, publicKey ed25519.PublicKey, corsOrigin string) *HTTPServer {
	return &HTTPServer{
		service:    service,
		apiKey:     apiKey,
		publicKey:  publicKey,
		corsOrigin: corsOrigin,
	}
}

func (s *HTTPServer) Handler() http.Handler {
	return s.withMiddleware(http.HandlerFunc(s.handle))
}

func (s *HTTPServer) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodOptions {
		writeJSON(w, http.StatusNoContent, map[string]any{})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && (r.URL.Path == "/" || r.URL.Path == "/health") {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true, "service": "xenios-compat-api"})
		return
	}

	if (r.Method == http.MethodGet || r.Method == http.MethodHead) && r.URL.Path == "/ready" {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		status := "ready"
		statusCode := http.StatusOK
		checks := map[string]any{
			"sessions": map[string]any{"status": "ok"},
		}

		if err := s.service.Ping(ctx); err != nil {
			status = "not_ready"
			statusCode = http.StatusServiceUnavailable
			checks["sessions"] = map[string]any{
				"status": "error",
				"error":  err.Error(),
			}
		}

		writeJSON(w, statusCode, map[string]any{
			"ok":     status == "ready",
			"status": status,
			"checks": checks,
		})
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/schema" {
		writeJSON(w, http.StatusOK, schema.Default())
		return
	}

	if r.Method == http.MethodGet && r.URL.Path == "/games" {
		list, err := s.service.Games(r.Context())
		if err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		if list == nil {
			list = []games.Game{}
		}
		writeJSON(w, http.StatusOK, list)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/report" {
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
			return
		}
		s.handleReport(w, r)
		return
	}

	if r.Method == http.MethodPost && r.URL.Path == "/board" {
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Unauthorized")
			return
		}
		if err := s.service.RebuildBoard(r.Context()); err != nil {
			status, code, message := mapError(err)
			writeError(w, status, code, message)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
		return
	}

	// The interactions webhook authenticates with the request signature
	// instead of the bearer key.
	if r.Method == http.MethodPost && r.URL.Path == "/discord" {
		if !interaction.Verify(r, s.publicKey) {
			writeError(w, http.StatusUnauthorized, "BAD_SIGNATURE", "invalid request signature")
			return
		}
		s.handleDiscord(w, r)
		return
	}

	writeError(w, http.StatusNotFound, "NOT_FOUND", "Not found")
}

func (s *HTTPServer) handleReport(w http.ResponseWriter, r *http.Request) {
	var raw schema.RawReport
	if err := decodeBody(r, &raw); err != nil {
		writeError(w, http.StatusBadRequest, "INVALID_BODY", err.Error())
		return
	}

	report, err := schema.Validate(raw)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "VALIDATION_FAILED", err.Error())
		return
	}
	report.Source = normalizeSource(raw.Source)

	result, err := s.service.ProcessReport(r.Context(), report)
	if err != nil {
		status, code, message := mapError(err)
		writeError(w, status, code, message)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *HTTPServer) authorized(r *http.Request) bool {
	return s.apiKey != "" && bearerToken(r) == s.apiKey
}

func (s *HTTPServer) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requestID := r.Header.Get("X-Request-ID")
		if requestID == "" {
			requestID = randomRequestID()
		}
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		started := time.Now()
		writer := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		setCORSHeaders(writer.Header(), s.corsOrigin)
		writer.Header().Set("X-Request-ID", requestID)

		next.ServeHTTP(writer, r)

		log.Printf(`{"request_id":"%s","method":"%s","path":"%s","status":%d,"duration_ms":%d}`,
			requestID,
			r.Method,
			r.URL.Path,
			writer.status,
			time.Since(started).Milliseconds(),
		)
	})
}

type requestIDKey struct{}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func randomRequestID() string {
	buf := make([]byte, 8)
	_, _ = rand.Read(buf)
	return hex.EncodeToString(buf)
}

func setCORSHeaders(header http.Header, corsOrigin string) {
	header.Set("Access-Control-Allow-Origin", corsOrigin)
	header.Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Request-ID")
	header.Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	header.Set("Cache-Control", "no-store")
	header.Set("Content-Type", "application/json")
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"code":  code,
		"error": message,
	})
}

func decodeBody(r *http.Request, target any) error {
	if r.Body == nil {
		return nil
	}
	defer r.Body.Close()
	decoder := json.NewDecoder(r.Body)
	if err := decoder.Decode(target); err != nil {
		if errors.Is(err, http.ErrBodyReadAfterClose) {
			return nil
		}
		return fmt.Errorf("invalid JSON body")
	}
	return nil
}

func bearerToken(r *http.Request) string {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

func mapError(err error) (status int, code, message string) {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Status, domainErr.Code, domainErr.Message
	}
	if errors.Is(err, games.ErrVersionConflict) {
		return http.StatusConflict, "CONFLICT", "The dataset changed while the report was being processed; resubmit the report"
	}
	return http.StatusInternalServerError, "SERVER_ERROR", "Server error"
}
