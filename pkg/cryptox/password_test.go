package cryptox

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	// Set up a temporary pepper file for testing
	tmpDir := os.TempDir()
	pepperPath := filepath.Join(tmpDir, "tenauth-test-pepper")
	SetPepperPath(pepperPath)

	os.Remove(pepperPath)
	defer os.Remove(pepperPath)

	os.Exit(m.Run())
}

func TestHashPassword(t *testing.T) {
	tests := []struct {
		name     string
		password string
	}{
		{"simple password", "password123"},
		{"complex password", "P@ssw0rd!#$%^&*()"},
		{"long password", strings.Repeat("a", 100)},
		{"empty password", ""},
		{"whitespace password", "   spaces   "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hash, err := HashPassword(tt.password)
			require.NoError(t, err)
			require.NotEmpty(t, hash)

			require.True(t, strings.HasPrefix(hash, "$argon2id$v=19$"),
				"hash should be in PHC format")

			parts := strings.Split(hash, "$")
			require.Len(t, parts, 6, "PHC hash should have 6 parts")
		})
	}
}

func TestHashPassword_UniqueSalts(t *testing.T) {
	password := "samepassword"

	hash1, err := HashPassword(password)
	require.NoError(t, err)

	hash2, err := HashPassword(password)
	require.NoError(t, err)

	require.NotEqual(t, hash1, hash2, "hashes should differ due to unique salts")
}

func TestVerifyPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)

	t.Run("matching password verifies", func(t *testing.T) {
		require.NoError(t, VerifyPassword("correct horse battery staple", hash))
	})

	t.Run("wrong password fails", func(t *testing.T) {
		require.ErrorIs(t, VerifyPassword("wrong", hash), ErrMismatch)
	})

	t.Run("malformed hash fails", func(t *testing.T) {
		require.Error(t, VerifyPassword("anything", "not-a-phc-hash"))
		require.Error(t, VerifyPassword("anything", "$argon2i$v=19$m=1,t=1,p=1$YQ$YQ"))
	})
}

func TestVerifyLegacyPassword(t *testing.T) {
	require.True(t, VerifyLegacyPassword("AutomationBT2023", "AutomationBT2023"))
	require.False(t, VerifyLegacyPassword("AutomationBT2024", "AutomationBT2023"))
	require.False(t, VerifyLegacyPassword("", "AutomationBT2023"))

	// An unset expected value never matches, including against empty input.
	require.False(t, VerifyLegacyPassword("", ""))
}
