// Copyright 2025 The Contacts API Authors
// Licensed under the EUPL-1.2

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoleSatisfies(t *testing.T) {
	tests := []struct {
		role     Role
		required Role
		expected bool
	}{
		{RoleUser, RoleUser, true},
		{RoleAdmin, RoleAdmin, true},
		{RoleUser, RoleAdmin, false},
		// Strict tiers: admin does not stand in for user.
		{RoleAdmin, RoleUser, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"_vs_"+string(tt.required), func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.role.Satisfies(tt.required))
		})
	}
}

func TestRoleValid(t *testing.T) {
	assert.True(t, RoleUser.Valid())
	assert.True(t, RoleAdmin.Valid())
	assert.False(t, Role("superuser").Valid())
	assert.False(t, Role("").Valid())
}

func TestUserJSON_OmitsSecrets(t *testing.T) {
	token := "opaque"
	user := User{
		ID:           1,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: "bcrypt-hash",
		ResetToken:   &token,
		Role:         RoleUser,
		CreatedAt:    time.Date(2024, time.June, 1, 12, 0, 0, 0, time.UTC),
		UpdatedAt:    time.Date(2024, time.June, 2, 12, 0, 0, 0, time.UTC),
	}

	encoded, err := json.Marshal(user)
	require.NoError(t, err)

	assert.NotContains(t, string(encoded), "bcrypt-hash")
	assert.NotContains(t, string(encoded), "opaque")
	assert.Contains(t, string(encoded), `"username":"alice"`)

	// Timestamps are store-internal and absent from the cached
	// projection; exposing them would make a cache-served user
	// distinguishable from a store-served one.
	assert.NotContains(t, string(encoded), "created_at")
	assert.NotContains(t, string(encoded), "updated_at")
}
