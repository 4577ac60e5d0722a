package auth_test

import (
	"context"
	"testing"

	"github.com/medisupply/devis-api/internal/auth"
	"github.com/medisupply/devis-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestUserContext_HasRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []domain.UserRoleType
		role     domain.UserRoleType
		expected bool
	}{
		{
			name:     "has role",
			roles:    []domain.UserRoleType{domain.RoleAdmin, domain.RoleSeller},
			role:     domain.RoleAdmin,
			expected: true,
		},
		{
			name:     "does not have role",
			roles:    []domain.UserRoleType{domain.RoleSeller},
			role:     domain.RoleAdmin,
			expected: false,
		},
		{
			name:     "empty roles",
			roles:    []domain.UserRoleType{},
			role:     domain.RoleAdmin,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasRole(tt.role))
		})
	}
}

func TestUserContext_HasAnyRole(t *testing.T) {
	tests := []struct {
		name     string
		roles    []domain.UserRoleType
		check    []domain.UserRoleType
		expected bool
	}{
		{
			name:     "has one of the roles",
			roles:    []domain.UserRoleType{domain.RoleSeller},
			check:    []domain.UserRoleType{domain.RoleAdmin, domain.RoleSeller},
			expected: true,
		},
		{
			name:     "has none of the roles",
			roles:    []domain.UserRoleType{domain.RoleViewer},
			check:    []domain.UserRoleType{domain.RoleAdmin, domain.RoleSeller},
			expected: false,
		},
		{
			name:     "empty check list",
			roles:    []domain.UserRoleType{domain.RoleSeller},
			check:    []domain.UserRoleType{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.HasAnyRole(tt.check...))
		})
	}
}

func TestUserContext_IsAdmin(t *testing.T) {
	tests := []struct {
		name     string
		roles    []domain.UserRoleType
		expected bool
	}{
		{
			name:     "is admin",
			roles:    []domain.UserRoleType{domain.RoleAdmin},
			expected: true,
		},
		{
			name:     "is not admin",
			roles:    []domain.UserRoleType{domain.RoleSeller},
			expected: false,
		},
		{
			name:     "has multiple roles including admin",
			roles:    []domain.UserRoleType{domain.RoleSeller, domain.RoleAdmin},
			expected: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.IsAdmin())
		})
	}
}

func TestUserContext_CanWrite(t *testing.T) {
	tests := []struct {
		name     string
		roles    []domain.UserRoleType
		expected bool
	}{
		{
			name:     "admin can write",
			roles:    []domain.UserRoleType{domain.RoleAdmin},
			expected: true,
		},
		{
			name:     "seller can write",
			roles:    []domain.UserRoleType{domain.RoleSeller},
			expected: true,
		},
		{
			name:     "viewer is read-only",
			roles:    []domain.UserRoleType{domain.RoleViewer},
			expected: false,
		},
		{
			name:     "no roles",
			roles:    []domain.UserRoleType{},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{Roles: tt.roles}
			assert.Equal(t, tt.expected, userCtx.CanWrite())
		})
	}
}

func TestUserContext_GetDisplayNameInitials(t *testing.T) {
	tests := []struct {
		name        string
		displayName string
		expected    string
	}{
		{
			name:        "two names",
			displayName: "Jean Dupont",
			expected:    "JD",
		},
		{
			name:        "three names",
			displayName: "Jean Michel Dupont",
			expected:    "JMD",
		},
		{
			name:        "single name",
			displayName: "Jean",
			expected:    "J",
		},
		{
			name:        "empty name",
			displayName: "",
			expected:    "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userCtx := &auth.UserContext{DisplayName: tt.displayName}
			assert.Equal(t, tt.expected, userCtx.GetDisplayNameInitials())
		})
	}
}

func TestUserContext_RolesAsStrings(t *testing.T) {
	userCtx := &auth.UserContext{
		Roles: []domain.UserRoleType{domain.RoleAdmin, domain.RoleSeller},
	}

	result := userCtx.RolesAsStrings()

	assert.Equal(t, []string{"admin", "seller"}, result)
}

func TestWithUserContext_and_FromContext(t *testing.T) {
	userCtx := &auth.UserContext{
		UserID:      "user-123",
		DisplayName: "Test User",
		Email:       "test@example.com",
		Roles:       []domain.UserRoleType{domain.RoleSeller},
	}

	ctx := auth.WithUserContext(context.Background(), userCtx)

	retrieved, ok := auth.FromContext(ctx)
	assert.True(t, ok)
	assert.Equal(t, userCtx.UserID, retrieved.UserID)
	assert.Equal(t, userCtx.DisplayName, retrieved.DisplayName)
	assert.Equal(t, userCtx.Email, retrieved.Email)
	assert.Equal(t, userCtx.Roles, retrieved.Roles)
}

func TestFromContext_Missing(t *testing.T) {
	ctx := context.Background()

	_, ok := auth.FromContext(ctx)
	assert.False(t, ok)
}

func TestMustFromContext_Panics(t *testing.T) {
	ctx := context.Background()

	assert.Panics(t, func() {
		auth.MustFromContext(ctx)
	})
}

func TestMustFromContext_Success(t *testing.T) {
	userCtx := &auth.UserContext{
		UserID:      "user-123",
		DisplayName: "Test User",
	}

	ctx := auth.WithUserContext(context.Background(), userCtx)

	assert.NotPanics(t, func() {
		retrieved := auth.MustFromContext(ctx)
		assert.Equal(t, userCtx.UserID, retrieved.UserID)
	})
}
