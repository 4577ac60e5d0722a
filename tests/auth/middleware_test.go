package auth_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/config"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func createTestMiddleware(apiKey string) *auth.Middleware {
	cfg := &config.Config{
		Auth: config.AuthConfig{
			JWTSecret:       "test-secret-at-least-32-characters-long",
			Issuer:          "devis-api-test",
			TokenTTLMinutes: 60,
			APIKey:          apiKey,
		},
	}
	return auth.NewMiddleware(cfg, zap.NewNop())
}

func TestMiddleware_Authenticate_WithAPIKey(t *testing.T) {
	apiKey := "test-api-key-12345"
	middleware := createTestMiddleware(apiKey)

	handlerCalled := false
	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set("x-api-key", apiKey)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	assert.Equal(t, "System", capturedUserCtx.DisplayName)
	assert.True(t, capturedUserCtx.HasRole(domain.RoleAdmin))
}

func TestMiddleware_Authenticate_WithInvalidAPIKey(t *testing.T) {
	middleware := createTestMiddleware("correct-key")

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set("x-api-key", "wrong-key")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_WithJWT(t *testing.T) {
	middleware := createTestMiddleware("")

	cfg := &config.AuthConfig{
		JWTSecret:       "test-secret-at-least-32-characters-long",
		Issuer:          "devis-api-test",
		TokenTTLMinutes: 60,
	}
	tokenString, err := auth.NewJWTManager(cfg).IssueToken(testUser())
	require.NoError(t, err)

	handlerCalled := false
	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	assert.Equal(t, "user-42", capturedUserCtx.UserID)
	assert.Equal(t, "Jean Dupont", capturedUserCtx.DisplayName)
	assert.Equal(t, "jean.dupont@example.com", capturedUserCtx.Email)
}

func TestMiddleware_Authenticate_MissingAuth(t *testing.T) {
	middleware := createTestMiddleware("test-key")

	handlerCalled := false
	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_Authenticate_InvalidBearerFormat(t *testing.T) {
	middleware := createTestMiddleware("test-key")

	tests := []struct {
		name       string
		authHeader string
	}{
		{"no bearer prefix", "some-token"},
		{"basic auth", "Basic dXNlcjpwYXNz"},
		{"empty bearer", "Bearer "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
			}))

			req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
			req.Header.Set("Authorization", tt.authHeader)
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.False(t, handlerCalled)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}
}

func TestMiddleware_RequireRole_HasRole(t *testing.T) {
	middleware := createTestMiddleware("test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleAdmin, domain.RoleSeller)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
		w.WriteHeader(http.StatusOK)
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleSeller},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.True(t, handlerCalled)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestMiddleware_RequireRole_MissingRole(t *testing.T) {
	middleware := createTestMiddleware("test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleAdmin)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleViewer},
	}
	req := httptest.NewRequest(http.MethodGet, "/api/v1/users", nil)
	req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestMiddleware_RequireRole_NoUserContext(t *testing.T) {
	middleware := createTestMiddleware("test-key")

	handlerCalled := false
	handler := middleware.RequireRole(domain.RoleViewer)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		handlerCalled = true
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.False(t, handlerCalled)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMiddleware_RequireWriter(t *testing.T) {
	middleware := createTestMiddleware("test-key")

	tests := []struct {
		name           string
		roles          []domain.UserRoleType
		expectedStatus int
		expectCalled   bool
	}{
		{
			name:           "seller may mutate",
			roles:          []domain.UserRoleType{domain.RoleSeller},
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "admin may mutate",
			roles:          []domain.UserRoleType{domain.RoleAdmin},
			expectedStatus: http.StatusOK,
			expectCalled:   true,
		},
		{
			name:           "viewer is rejected",
			roles:          []domain.UserRoleType{domain.RoleViewer},
			expectedStatus: http.StatusForbidden,
			expectCalled:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handlerCalled := false
			handler := middleware.RequireWriter(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				handlerCalled = true
				w.WriteHeader(http.StatusOK)
			}))

			userCtx := &auth.UserContext{Roles: tt.roles}
			req := httptest.NewRequest(http.MethodPost, "/api/v1/quotes", nil)
			req = req.WithContext(auth.WithUserContext(req.Context(), userCtx))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectCalled, handlerCalled)
			assert.Equal(t, tt.expectedStatus, w.Code)
		})
	}
}

func TestMiddleware_APIKeyPriority(t *testing.T) {
	apiKey := "test-api-key"
	middleware := createTestMiddleware(apiKey)

	cfg := &config.AuthConfig{
		JWTSecret:       "test-secret-at-least-32-characters-long",
		Issuer:          "devis-api-test",
		TokenTTLMinutes: 60,
	}
	tokenString, err := auth.NewJWTManager(cfg).IssueToken(testUser())
	require.NoError(t, err)

	var capturedUserCtx *auth.UserContext

	handler := middleware.Authenticate(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capturedUserCtx, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	// Send request with BOTH API key and JWT - API key should take priority
	req := httptest.NewRequest(http.MethodGet, "/api/v1/quotes", nil)
	req.Header.Set("x-api-key", apiKey)
	req.Header.Set("Authorization", "Bearer "+tokenString)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, capturedUserCtx)
	// Should be System user (from API key), not the JWT user
	assert.Equal(t, "System", capturedUserCtx.DisplayName)
}
