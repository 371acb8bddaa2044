package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearTestEnvVars(t *testing.T) {
	t.Helper()
	vars := []string{
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD", "DB_SSLMODE",
		"LMS_ODBC_DSN", "LOG_LEVEL", "LOG_FORMAT",
		"CHARTERBOOKS_LOG_LEVEL", "CHARTERBOOKS_DATABASE_HOST",
		"CHARTERBOOKS_MATCHING_DATE_WINDOW_DAYS", "CHARTERBOOKS_MATCHING_ALLOW_SPLIT",
	}
	for _, v := range vars {
		t.Setenv(v, "")
		os.Unsetenv(v)
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearTestEnvVars(t)
	t.Chdir(t.TempDir())

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, "text", config.Log.Format)
	assert.Equal(t, "localhost", config.Database.Host)
	assert.Equal(t, 5432, config.Database.Port)
	assert.Equal(t, "charterbooks", config.Database.Name)
	assert.Equal(t, "disable", config.Database.SSLMode)
	assert.Equal(t, 5, config.Matching.DateWindowDays)
	assert.Equal(t, "0", config.Matching.AmountTolerance)
	assert.Equal(t, 0.70, config.Matching.MinConfidence)
	assert.False(t, config.Matching.AllowSplit)
	assert.Equal(t, 3, config.Matching.MaxSplitParts)
	assert.Equal(t, 0.85, config.Matching.NameDrift)
	assert.True(t, config.Categorization.AutoLearn)
	assert.Equal(t, 0.8, config.Categorization.ConfidenceThreshold)
	assert.Equal(t, "", config.LMS.DSN)
}

func TestLoad_LegacyEnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)
	t.Chdir(t.TempDir())

	// The one-off scripts configured the database with bare DB_* variables.
	t.Setenv("DB_HOST", "10.0.0.12")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_NAME", "livery")
	t.Setenv("DB_USER", "office")
	t.Setenv("DB_PASSWORD", "s3cret")
	t.Setenv("LMS_ODBC_DSN", "DSN=lms;UID=admin")
	t.Setenv("LOG_LEVEL", "debug")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.12", config.Database.Host)
	assert.Equal(t, 5433, config.Database.Port)
	assert.Equal(t, "livery", config.Database.Name)
	assert.Equal(t, "office", config.Database.User)
	assert.Equal(t, "s3cret", config.Database.Password)
	assert.Equal(t, "DSN=lms;UID=admin", config.LMS.DSN)
	assert.Equal(t, "debug", config.Log.Level)
}

func TestLoad_PrefixedEnvironmentVariables(t *testing.T) {
	clearTestEnvVars(t)
	t.Chdir(t.TempDir())

	t.Setenv("CHARTERBOOKS_DATABASE_HOST", "db.internal")
	t.Setenv("CHARTERBOOKS_MATCHING_DATE_WINDOW_DAYS", "7")
	t.Setenv("CHARTERBOOKS_MATCHING_ALLOW_SPLIT", "true")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", config.Database.Host)
	assert.Equal(t, 7, config.Matching.DateWindowDays)
	assert.True(t, config.Matching.AllowSplit)
}

func TestLoad_ConfigFile(t *testing.T) {
	clearTestEnvVars(t)

	dir := t.TempDir()
	content := `
log:
  level: warn
database:
  host: filehost
  port: 6432
matching:
  min_confidence: 0.9
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(content), 0o600))
	t.Chdir(dir)

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "warn", config.Log.Level)
	assert.Equal(t, "filehost", config.Database.Host)
	assert.Equal(t, 6432, config.Database.Port)
	assert.Equal(t, 0.9, config.Matching.MinConfidence)
	// Values not in the file keep their defaults
	assert.Equal(t, "text", config.Log.Format)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		envKey  string
		envVal  string
		wantErr string
	}{
		{"bad log level", "LOG_LEVEL", "loud", "invalid log level"},
		{"bad min confidence", "CHARTERBOOKS_MATCHING_MIN_CONFIDENCE", "1.5", "min_confidence"},
		{"bad split parts", "CHARTERBOOKS_MATCHING_MAX_SPLIT_PARTS", "1", "max_split_parts"},
		{"bad port", "DB_PORT", "99999", "database.port"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearTestEnvVars(t)
			t.Chdir(t.TempDir())
			t.Setenv(tt.envKey, tt.envVal)

			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseURL(t *testing.T) {
	clearTestEnvVars(t)
	t.Chdir(t.TempDir())

	t.Setenv("DB_HOST", "10.0.0.12")
	t.Setenv("DB_NAME", "livery")
	t.Setenv("DB_USER", "office")
	t.Setenv("DB_PASSWORD", "p w")

	config, err := Load()
	require.NoError(t, err)

	dsn := config.DatabaseURL()
	assert.Contains(t, dsn, "host=10.0.0.12")
	assert.Contains(t, dsn, "dbname=livery")
	assert.Contains(t, dsn, "user=office")
	assert.Contains(t, dsn, "password=p w")
	assert.Contains(t, dsn, "sslmode=disable")
	assert.Contains(t, dsn, "pool_max_conns=4")
}

func TestDatabaseURL_NoPassword(t *testing.T) {
	clearTestEnvVars(t)
	t.Chdir(t.TempDir())

	config, err := Load()
	require.NoError(t, err)
	assert.NotContains(t, config.DatabaseURL(), "password=")
}

func TestGetEnv(t *testing.T) {
	t.Setenv("CHARTERBOOKS_TEST_VALUE", "set")
	assert.Equal(t, "set", GetEnv("CHARTERBOOKS_TEST_VALUE", "fallback"))
	assert.Equal(t, "fallback", GetEnv("CHARTERBOOKS_TEST_MISSING", "fallback"))
}
