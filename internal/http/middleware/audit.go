package middleware

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/medisupply/devis-api/internal/service"
	"go.uber.org/zap"
)

// AuditConfig controls which requests produce audit entries
type AuditConfig struct {
	SkipPaths   []string
	SkipMethods []string
	// AuditReads also records GET requests. Off by default; reads of quote
	// data are frequent and carry no state change.
	AuditReads bool
}

// DefaultAuditConfig skips health probes, swagger and preflight requests
func DefaultAuditConfig() *AuditConfig {
	return &AuditConfig{
		SkipPaths: []string{
			"/health",
			"/health/db",
			"/health/ready",
			"/swagger",
		},
		SkipMethods: []string{
			http.MethodOptions,
			http.MethodHead,
		},
		AuditReads: false,
	}
}

// AuditMiddleware records successful mutating requests to the audit trail:
// who changed what, on which entity, with the (sanitized) request payload.
type AuditMiddleware struct {
	auditService *service.AuditLogService
	config       *AuditConfig
	logger       *zap.Logger
}

func NewAuditMiddleware(auditService *service.AuditLogService, config *AuditConfig, logger *zap.Logger) *AuditMiddleware {
	if config == nil {
		config = DefaultAuditConfig()
	}
	return &AuditMiddleware{
		auditService: auditService,
		config:       config,
		logger:       logger,
	}
}

// Audit captures the request body and final status, then writes the audit
// entry asynchronously once the response has gone out.
func (m *AuditMiddleware) Audit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.shouldAudit(r) {
			next.ServeHTTP(w, r)
			return
		}

		var requestBody []byte
		if r.Body != nil && (r.Method == http.MethodPost || r.Method == http.MethodPut || r.Method == http.MethodPatch) {
			requestBody, _ = io.ReadAll(r.Body)
			r.Body = io.NopCloser(bytes.NewBuffer(requestBody))
		}

		rw := &responseCapture{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		// Resolve the route before detaching: chi returns its RouteContext
		// to a pool once the chain unwinds, so the goroutine must not
		// touch it.
		entityType, entityID := m.extractEntityInfo(r)
		go m.logAudit(r, rw.statusCode, requestBody, entityType, entityID)
	})
}

func (m *AuditMiddleware) shouldAudit(r *http.Request) bool {
	for _, method := range m.config.SkipMethods {
		if r.Method == method {
			return false
		}
	}

	if r.Method == http.MethodGet && !m.config.AuditReads {
		return false
	}

	for _, skipPath := range m.config.SkipPaths {
		if strings.HasPrefix(r.URL.Path, skipPath) {
			return false
		}
	}

	return true
}

func (m *AuditMiddleware) logAudit(r *http.Request, statusCode int, requestBody []byte, entityType string, entityID *uuid.UUID) {
	if m.auditService == nil {
		return
	}

	// Failed requests changed nothing.
	if statusCode < 200 || statusCode >= 300 {
		return
	}

	action := methodToAction(r.Method)
	if action == "" {
		return
	}

	var values map[string]interface{}
	if len(requestBody) > 0 {
		var parsed map[string]interface{}
		if json.Unmarshal(requestBody, &parsed) == nil {
			delete(parsed, "password")
			delete(parsed, "secret")
			delete(parsed, "token")
			delete(parsed, "apiKey")
			values = parsed
		}
	}

	entry := service.LogEntry{
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   values,
	}

	// The entry is written after the response is sent; detach from the
	// request context so cancellation does not drop the write.
	if err := m.auditService.Log(context.WithoutCancel(r.Context()), r, entry); err != nil {
		m.logger.Warn("failed to create audit log entry",
			zap.String("path", r.URL.Path),
			zap.String("method", r.Method),
			zap.Error(err))
	}
}

func methodToAction(method string) domain.AuditAction {
	switch method {
	case http.MethodPost:
		return domain.AuditActionCreate
	case http.MethodPut, http.MethodPatch:
		return domain.AuditActionUpdate
	case http.MethodDelete:
		return domain.AuditActionDelete
	default:
		return ""
	}
}

// extractEntityInfo resolves the entity type from the chi route pattern and
// the entity ID from the "id" URL param when present
func (m *AuditMiddleware) extractEntityInfo(r *http.Request) (string, *uuid.UUID) {
	routeCtx := chi.RouteContext(r.Context())
	if routeCtx == nil {
		return entityTypeFromPath(r.URL.Path), nil
	}

	var entityID *uuid.UUID
	if idStr := routeCtx.URLParam("id"); idStr != "" {
		if id, err := uuid.Parse(idStr); err == nil {
			entityID = &id
		}
	}

	return entityTypeFromPath(routeCtx.RoutePattern()), entityID
}

var pathEntityTypes = map[string]string{
	"clients":  "Client",
	"products": "Product",
	"quotes":   "Quote",
	"users":    "User",
	"exports":  "ExportSnapshot",
}

func entityTypeFromPath(path string) string {
	for _, part := range strings.Split(strings.Trim(path, "/"), "/") {
		if entityType, ok := pathEntityTypes[part]; ok {
			return entityType
		}
	}
	return "Unknown"
}

// responseCapture records the status code written by the handler
type responseCapture struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseCapture) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
