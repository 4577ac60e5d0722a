package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/lib/pq"
	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/config"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAuthConfig() *config.AuthConfig {
	return &config.AuthConfig{
		JWTSecret:       "test-secret-at-least-32-characters-long",
		Issuer:          "devis-api-test",
		TokenTTLMinutes: 60,
	}
}

func testUser() *domain.User {
	return &domain.User{
		ID:          "user-42",
		Email:       "jean.dupont@example.com",
		DisplayName: "Jean Dupont",
		Roles:       pq.StringArray{"admin", "seller"},
		IsActive:    true,
	}
}

func TestJWTManager_IssueAndValidate(t *testing.T) {
	manager := auth.NewJWTManager(testAuthConfig())

	token, err := manager.IssueToken(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, token)

	userCtx, err := manager.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, "user-42", userCtx.UserID)
	assert.Equal(t, "Jean Dupont", userCtx.DisplayName)
	assert.Equal(t, "jean.dupont@example.com", userCtx.Email)
	assert.ElementsMatch(t, []domain.UserRoleType{domain.RoleAdmin, domain.RoleSeller}, userCtx.Roles)
}

func TestJWTManager_ValidateToken_WrongSecret(t *testing.T) {
	manager := auth.NewJWTManager(testAuthConfig())

	token, err := manager.IssueToken(testUser())
	require.NoError(t, err)

	otherCfg := testAuthConfig()
	otherCfg.JWTSecret = "a-completely-different-secret-value-here"
	other := auth.NewJWTManager(otherCfg)

	_, err = other.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTManager_ValidateToken_WrongIssuer(t *testing.T) {
	issuerCfg := testAuthConfig()
	issuerCfg.Issuer = "some-other-service"
	issuer := auth.NewJWTManager(issuerCfg)

	token, err := issuer.IssueToken(testUser())
	require.NoError(t, err)

	manager := auth.NewJWTManager(testAuthConfig())
	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTManager_ValidateToken_Expired(t *testing.T) {
	cfg := testAuthConfig()
	manager := auth.NewJWTManager(cfg)

	// Issue an already-expired token signed with the same secret
	now := time.Now()
	claims := auth.Claims{
		DisplayName: "Jean Dupont",
		Roles:       []string{"seller"},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "user-42",
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now.Add(-2 * time.Hour)),
			ExpiresAt: jwt.NewNumericDate(now.Add(-1 * time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrExpiredToken)
}

func TestJWTManager_ValidateToken_MissingSubject(t *testing.T) {
	cfg := testAuthConfig()
	manager := auth.NewJWTManager(cfg)

	now := time.Now()
	claims := auth.Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(cfg.JWTSecret))
	require.NoError(t, err)

	_, err = manager.ValidateToken(token)
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTManager_ValidateToken_Garbage(t *testing.T) {
	manager := auth.NewJWTManager(testAuthConfig())

	_, err := manager.ValidateToken("not.a.token")
	assert.ErrorIs(t, err, auth.ErrInvalidToken)
}

func TestJWTManager_ValidateToken_UnknownRolesDropped(t *testing.T) {
	manager := auth.NewJWTManager(testAuthConfig())

	user := testUser()
	user.Roles = pq.StringArray{"seller", "intergalactic-overlord"}

	token, err := manager.IssueToken(user)
	require.NoError(t, err)

	userCtx, err := manager.ValidateToken(token)
	require.NoError(t, err)

	assert.Equal(t, []domain.UserRoleType{domain.RoleSeller}, userCtx.Roles)
}
